package commands

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"edgar13f/internal/components/telemetry"
	"edgar13f/internal/scrapers/edgar"
	"edgar13f/lib/osutil"

	"github.com/spf13/cobra"
)

var (
	crawlDepth  *int
	crawlCik    *string
	crawlTicker *string
)

func init() {
	crawlDepth = crawlCmd.Flags().Int("depth", 1, "How many of the most recent 13F-HR reports to fetch.")
	crawlCik = crawlCmd.Flags().String("cik", "", "The CIK of the entity, combined with a name it picks one of several matches.")
	crawlTicker = crawlCmd.Flags().String("ticker", "", "The entity as \"Name | CIK\".")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [entity] [--depth N] [--cik CIK] [--ticker \"Name | CIK\"]",
	Short: "Crawls the 13F-HR reports of one entity, prompts for it when none is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := resolveQuery(cmd.InOrStdin(), cmd.ErrOrStderr(), args, *crawlTicker, *crawlCik)
		if err != nil {
			return err
		}
		if *crawlDepth < 1 {
			return fmt.Errorf("%w: depth must be at least 1, got %d", edgar.ErrUserInput, *crawlDepth)
		}

		config := loadConfig()
		a, err := newApp(config, *dumpHttp, telemetry.SlogAPI{})
		if err != nil {
			osutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		result := a.crawl(cmd.Context(), q, *crawlDepth)
		if result.Err != nil {
			return result.Err
		}
		slog.Info(
			"crawl finished",
			"entity", result.Query.String(),
			"pages", result.Stats.Pages,
			"documents", result.Stats.Documents,
			"failures", result.Stats.Failures,
			"output", a.store.Dir(),
		)
		return nil
	},
}

// resolveQuery builds the entity from the ticker flag, the positional
// argument or a line read from in, in that order. cik fills in or replaces
// the CIK of whatever was given.
func resolveQuery(in io.Reader, out io.Writer, args []string, ticker, cik string) (edgar.EntityQuery, error) {
	var input string
	switch {
	case ticker != "":
		input = ticker
	case len(args) > 0:
		input = args[0]
	case cik != "":
		input = cik
	default:
		fmt.Fprint(out, "Entity (name, CIK or \"Name | CIK\"): ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return edgar.EntityQuery{}, err
		}
		input = strings.TrimSpace(line)
	}

	q, err := edgar.ParseEntityQuery(input)
	if err != nil {
		return edgar.EntityQuery{}, err
	}
	if cik == "" {
		return q, nil
	}

	override, err := edgar.ParseEntityQuery(cik)
	if err != nil {
		return edgar.EntityQuery{}, err
	}
	if override.CIK == "" || override.Name != "" {
		return edgar.EntityQuery{}, fmt.Errorf("%w: --cik must be numeric, got %q", edgar.ErrUserInput, cik)
	}
	q.CIK = override.CIK
	return q, nil
}
