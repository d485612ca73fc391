package commands

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"edgar13f/internal/components/telemetry"
	"edgar13f/internal/scrapers/edgar"
	"edgar13f/lib/osutil"
	libtelemetry "edgar13f/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Crawls the latest 13F-HR report of every entity listed in a file, one \"Name | CIK\" per line.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		queries, err := readBatch(f)
		f.Close()
		if err != nil {
			return err
		}

		config := loadConfig()
		a, err := newApp(config, *dumpHttp, telemetry.SlogAPI{})
		if err != nil {
			osutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		libtelemetry.InstrumentPerfStats(cmd.Context(), time.Second*5)

		results := runBatch(cmd, a, queries, config.BatchConcurrency)
		renderResults(cmd.OutOrStdout(), results)

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d crawls failed", failed, len(results))
		}
		return nil
	},
}

// readBatch parses one entity per line, blank lines and lines starting with
// # are skipped. Any malformed line fails the whole batch.
func readBatch(r io.Reader) ([]edgar.EntityQuery, error) {
	var queries []edgar.EntityQuery
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q, err := edgar.ParseEntityQuery(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		queries = append(queries, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no entities in batch", edgar.ErrUserInput)
	}
	return queries, nil
}

// runBatch crawls every query at depth 1, a failing crawl never cancels the
// others.
func runBatch(cmd *cobra.Command, a *app, queries []edgar.EntityQuery, concurrency int) []crawlResult {
	results := make([]crawlResult, len(queries))

	var mutex sync.Mutex
	done := 0

	group, ctx := errgroup.WithContext(cmd.Context())
	group.SetLimit(max(1, concurrency))
	for i, q := range queries {
		group.Go(func() error {
			result := a.crawl(ctx, q, 1)
			results[i] = result

			mutex.Lock()
			done++
			progress := done
			mutex.Unlock()

			if result.Err != nil {
				slog.Warn("crawl failed", "entity", q.String(), "err", result.Err)
			}
			slog.Info("batch progress", "done", progress, "total", len(queries))
			return nil
		})
	}
	group.Wait()
	return results
}

func renderResults(w io.Writer, results []crawlResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Entity", "CIK", "Pages", "Documents", "Failures", "Result"})
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Query.Name, r.Query.CIK, r.Stats.Pages, r.Stats.Documents, r.Stats.Failures, status})
	}
	t.Render()
}
