package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"mxguide/internal/stats"
)

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print record counts by category and severity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.store().Load()
			if err != nil {
				return err
			}
			report := stats.Compute(doc.Errors)

			manager, err := a.chunkManager(nil)
			if err != nil {
				return err
			}
			if report, err = stats.WithChunks(report, manager, a.profile.MaxPerFile); err != nil {
				return err
			}

			p := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
			if p.format == "json" {
				return p.json(report)
			}

			p.line("Total errors: %d", report.Total)
			p.line("")
			p.table([]string{"CATEGORY", "COUNT"}, countRows(report.Categories))
			p.line("")
			p.table([]string{"SEVERITY", "COUNT"}, countRows(report.Severities))
			if report.Chunks != nil {
				p.line("")
				p.kv([][2]string{
					{"Chunk files", strconv.Itoa(report.Chunks.Files)},
					{"Max per file", strconv.Itoa(report.Chunks.MaxPerFile)},
				})
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "table", "output format: table or json")
	return cmd
}

func countRows(counts []stats.Count) [][]string {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Name, strconv.Itoa(c.Count)}
	}
	return rows
}
