package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"mxguide/internal/validate"
)

// errValidationFailed is returned after the report has been printed so the
// process exits non-zero without cobra printing anything further.
var errValidationFailed = errors.New("validation failed")

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the record store and chunk files for problems",
		Long:  "Checks the record store for parse errors, duplicate codes, and missing required fields, then checks every chunk file and index.json. Exits non-zero when any issue is found.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := a.chunkManager(nil)
			if err != nil {
				return err
			}
			report, err := validate.Run(validate.Config{
				Store:          a.store(),
				Chunks:         manager,
				MaxPerFile:     a.profile.MaxPerFile,
				RequiredFields: a.profile.RequiredFields,
				Logger:         a.logger,
			})
			if err != nil {
				return err
			}

			p := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
			if p.format == "json" {
				if err := p.json(report); err != nil {
					return err
				}
			} else {
				printValidation(p, report)
			}

			if !report.Passed() {
				cmd.SilenceErrors = true
				return errValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "table", "output format: table or json")
	return cmd
}

func printValidation(p *printer, r validate.Report) {
	p.line("Validating data files...")
	p.line("")
	if r.MainLoaded {
		p.line("%s: %d errors (valid JSON)", r.MainFile, r.MainRecords)
	}

	if r.ChunkDir {
		p.line("")
		rows := make([][]string, 0, len(r.Chunks))
		for _, c := range r.Chunks {
			status := "ok"
			if !c.OK {
				status = "FAIL"
			}
			rows = append(rows, []string{c.File, strconv.Itoa(c.Count), status})
		}
		p.table([]string{"CHUNK", "ERRORS", "STATUS"}, rows)
		p.line("")
		p.line("Total in chunks: %d", r.ChunkRecords)
	}

	p.line("")
	if r.Passed() {
		p.line("All validations passed!")
		return
	}
	p.line("Issues found (%d):", len(r.Issues))
	for _, issue := range r.Issues {
		p.line("   - %s", issue)
	}
}
