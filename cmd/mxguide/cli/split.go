package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mxguide/internal/chunk"
	chunkfile "mxguide/internal/chunk/file"
	chunkmem "mxguide/internal/chunk/memory"
	"mxguide/internal/config"
	"mxguide/internal/datadir"
)

func newSplitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split the record store into chunk files",
		Long:  "Groups records by category and writes them to <prefix>_NNN.json chunk files plus an index.json, replacing any previous split.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := a.profile
			if cmd.Flags().Changed("max-per-file") {
				profile.MaxPerFile, _ = cmd.Flags().GetInt("max-per-file")
			}
			if cmd.Flags().Changed("max-bytes") {
				profile.MaxChunkBytes, _ = cmd.Flags().GetString("max-bytes")
			}
			if cmd.Flags().Changed("compress") {
				profile.Compress, _ = cmd.Flags().GetStringSlice("compress")
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			keepStale, _ := cmd.Flags().GetBool("keep-stale")

			if err := profile.Validate(); err != nil {
				return err
			}
			return runSplit(cmd, a, profile, dryRun, keepStale)
		},
	}

	cmd.Flags().Int("max-per-file", 0, "maximum records per chunk (default: profile setting)")
	cmd.Flags().String("max-bytes", "", "maximum encoded record bytes per chunk, e.g. 64KB (default: profile setting)")
	cmd.Flags().StringSlice("compress", nil, "sidecar encodings to write: br, gz, zst (default: profile setting)")
	cmd.Flags().Bool("dry-run", false, "plan the chunks in memory without writing anything")
	cmd.Flags().Bool("keep-stale", false, "keep chunk files left over from a previous, larger split")
	return cmd
}

func runSplit(cmd *cobra.Command, a *app, profile config.Profile, dryRun, keepStale bool) error {
	d := datadir.New(profile)
	p := newPrinter("table", cmd.OutOrStdout())

	policy, err := profile.RotationPolicy()
	if err != nil {
		return err
	}
	encodings, err := chunkfile.ParseEncodings(profile.Compress)
	if err != nil {
		return err
	}

	doc, err := a.store().Load()
	if err != nil {
		return err
	}

	var manager chunk.Manager
	if dryRun {
		manager = chunkmem.NewManager(chunkmem.Config{Prefix: d.ChunkPrefix(), Logger: a.logger})
	} else {
		manager, err = chunkfile.NewManager(chunkfile.Config{
			Dir:      d.ChunksDir(),
			Prefix:   d.ChunkPrefix(),
			Compress: encodings,
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
	}

	w, err := chunk.NewWriter(chunk.WriterConfig{
		Manager:    manager,
		Policy:     policy,
		MaxPerFile: profile.MaxPerFile,
		KeepStale:  keepStale || dryRun,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	res, err := w.Split(doc.Errors)
	if err != nil {
		return err
	}

	if res.Index.TotalChunks == 0 {
		p.line("No errors to split")
		return nil
	}

	rows := make([][]string, 0, len(res.Index.Chunks))
	for _, e := range res.Index.Chunks {
		rows = append(rows, []string{e.File, strconv.Itoa(e.Count)})
	}
	p.table([]string{"FILE", "ERRORS"}, rows)
	p.line("")

	verb := "Split"
	if dryRun {
		verb = "Would split"
	}
	p.line("%s %d errors into %d files (max %d per file)", verb, res.Index.TotalErrors, res.Index.TotalChunks, profile.MaxPerFile)
	if dryRun {
		return nil
	}
	p.line("Location: %s", d.ChunksDir())
	if len(encodings) > 0 {
		exts := make([]string, len(encodings))
		for i, e := range encodings {
			exts[i] = e.Ext()
		}
		p.line("Sidecars: %s", strings.Join(exts, " "))
	}
	for _, name := range res.Pruned {
		p.line("Removed stale %s", name)
	}
	return nil
}
