package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mxguide/internal/examples"
)

func newMergeExamplesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge-examples",
		Short: "Merge newly written examples into the curated examples file",
		Long:  "Appends every example from the profile's complex examples file whose id is not yet curated, refreshes the metadata counts and categories, and removes the merged file unless --keep is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, _ := cmd.Flags().GetBool("keep")
			d := a.dir()
			if d.ExamplesPath() == "" || d.ComplexExamplesPath() == "" {
				return fmt.Errorf("profile %q has no examples files configured", a.profile.Name)
			}

			res, err := examples.Merge(examples.Config{
				MainPath: d.ExamplesPath(),
				NewPath:  d.ComplexExamplesPath(),
				Keep:     keep,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			p := newPrinter("table", cmd.OutOrStdout())
			p.kv([][2]string{
				{"Added", fmt.Sprint(res.Added)},
				{"Skipped", fmt.Sprint(res.Skipped)},
				{"Total", fmt.Sprint(res.Total)},
				{"Categories", strings.Join(res.Categories, ", ")},
			})
			if res.Removed {
				p.line("Removed %s", d.ComplexExamplesPath())
			}
			return nil
		},
	}
	cmd.Flags().Bool("keep", false, "keep the merged file instead of removing it")
	return cmd
}
