package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mxguide/internal/chunk"
	"mxguide/internal/record"
)

func newCombineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "combine",
		Short: "Rebuild the record store from the chunk files",
		Long:  "Reads index.json and concatenates the listed chunks, in index order, into the record store. Duplicate codes are reported but do not stop the combine.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter("table", cmd.OutOrStdout())

			manager, err := a.chunkManager(nil)
			if err != nil {
				return err
			}
			r, err := chunk.NewReader(chunk.ReaderConfig{Manager: manager, Logger: a.logger})
			if err != nil {
				return err
			}
			res, err := r.Combine()
			if err != nil {
				if errors.Is(err, chunk.ErrChunkDirNotFound) || errors.Is(err, chunk.ErrIndexNotFound) {
					return fmt.Errorf("%w (run split first)", err)
				}
				return err
			}

			if len(res.Duplicates) > 0 {
				p.line("Warning: duplicate codes found: %s", strings.Join(res.Duplicates, ", "))
			}

			st := a.store()
			if err := st.Save(&record.Document{Errors: res.Records}); err != nil {
				return err
			}
			p.line("Combined %d errors from %d chunks", len(res.Records), res.Chunks)
			p.line("Output: %s", st.Path())
			return nil
		},
	}
}
