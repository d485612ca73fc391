package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"edgar13f/internal/tabular"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var showColumns *[]string

func init() {
	showColumns = showCmd.Flags().StringSlice("columns", nil, "Only show these columns.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [file] [--columns a,b,c]",
	Short: "Renders a TSV report as a table, defaults to the search summary.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) > 0 {
			path = args[0]
		} else {
			path = filepath.Join(loadConfig().OutputDir, tabular.SummaryFilename)
		}

		d, err := tabular.Load(path)
		if err != nil {
			return err
		}
		if d.Len() == 0 && len(d.Headers) == 0 {
			return fmt.Errorf("%s is empty or does not exist", path)
		}
		return renderDataset(cmd.OutOrStdout(), d, *showColumns)
	},
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// renderDataset writes d as a table, columns picks and orders the columns to
// show and defaults to all of them.
func renderDataset(w io.Writer, d tabular.Dataset, columns []string) error {
	if len(columns) == 0 {
		columns = d.Headers
	}
	if unknown, _ := lo.Difference(columns, d.Headers); len(unknown) > 0 {
		return fmt.Errorf("unknown columns: %v", unknown)
	}

	t := newTable(w)
	t.AppendHeader(toRow(columns))
	for _, r := range d.Records {
		t.AppendRow(toRow(lo.Map(columns, func(c string, _ int) string {
			return r.Cell(c)
		})))
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d rows", d.Len())})
	t.Render()
	return nil
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
