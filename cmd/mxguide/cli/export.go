package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mxguide/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	formats := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		formats[i] = string(f)
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the record store in another format",
		Long:  "Writes the record store as indented JSON, MessagePack, or a SQLite database with one row per record.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")

			format, err := export.ParseFormat(name)
			if err != nil {
				return err
			}
			if out == "" {
				return fmt.Errorf("--out is required")
			}

			doc, err := a.store().Load()
			if err != nil {
				return err
			}
			res, err := export.Export(cmd.Context(), doc, export.Options{
				Format: format,
				Path:   out,
				Logger: a.logger,
			})
			if err != nil {
				return err
			}

			newPrinter("table", cmd.OutOrStdout()).line("Exported %d errors to %s (%s, %d bytes)", res.Records, res.Path, format, res.Bytes)
			return nil
		},
	}
	cmd.Flags().String("format", string(export.JSON), "output format: "+strings.Join(formats, ", "))
	cmd.Flags().String("out", "", "destination file")
	return cmd
}
