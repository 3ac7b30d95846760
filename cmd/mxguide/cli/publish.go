package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mxguide/internal/publish"
)

func newPublishCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the chunk directory to a static host",
		Long: `Uploads every chunk, sidecar, and index.json to a target. index.json is
uploaded last so readers never see an index that references missing chunks.

Targets:
  file:///var/www/data/chunks
  s3://bucket/prefix        (AWS default credential chain, or MXGUIDE_S3_ACCESS_KEY/MXGUIDE_S3_SECRET_KEY)
  gs://bucket/prefix        (Google application default credentials)
  azblob://container/prefix (AZURE_STORAGE_CONNECTION_STRING)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := a.cfg.Publish
			if cmd.Flags().Changed("target") {
				settings.Target, _ = cmd.Flags().GetString("target")
			}
			if cmd.Flags().Changed("rate") {
				settings.Rate, _ = cmd.Flags().GetFloat64("rate")
			}
			if cmd.Flags().Changed("s3-endpoint") {
				settings.S3Endpoint, _ = cmd.Flags().GetString("s3-endpoint")
			}
			if settings.Target == "" {
				return errors.New("--target is required (or set publish.target in the config file)")
			}

			target, err := publish.ParseTarget(settings.Target)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			uploader, err := publish.Open(ctx, target, publish.Options{S3Endpoint: settings.S3Endpoint})
			if err != nil {
				return fmt.Errorf("open %s: %w", target, err)
			}
			defer func() { _ = uploader.Close() }()

			res, err := publish.Publish(ctx, publish.Config{
				Dir:      a.dir().ChunksDir(),
				Target:   target,
				Uploader: uploader,
				Rate:     settings.Rate,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			p := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
			if p.format == "json" {
				return p.json(res)
			}
			rows := make([][]string, len(res.Objects))
			for i, o := range res.Objects {
				enc := o.ContentEncoding
				if enc == "" {
					enc = "-"
				}
				rows[i] = []string{o.Key, strconv.Itoa(o.Size), enc}
			}
			p.table([]string{"KEY", "BYTES", "ENCODING"}, rows)
			p.line("")
			p.line("Published %d objects (%d bytes) to %s", len(res.Objects), res.Bytes, target)
			return nil
		},
	}
	cmd.Flags().String("target", "", "destination URL (default: publish.target from the config file)")
	cmd.Flags().Float64("rate", 0, "maximum uploads per second, 0 for unlimited (default: publish.rate from the config file)")
	cmd.Flags().String("s3-endpoint", "", "S3 endpoint override for S3-compatible stores")
	cmd.Flags().StringP("output", "o", "table", "output format: table or json")
	return cmd
}
