// Package cli implements the mxguide command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	chunkfile "mxguide/internal/chunk/file"
	"mxguide/internal/config"
	"mxguide/internal/datadir"
	"mxguide/internal/logging"
	"mxguide/internal/store"
)

// app is the state shared by every subcommand. It is filled in by the root
// command's PersistentPreRunE before any RunE executes.
type app struct {
	logger  *slog.Logger
	cfg     *config.Config
	profile config.Profile
}

// NewRootCommand returns the "mxguide" command with all subcommands wired in.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "mxguide",
		Short:         "Maintain the ISO 20022 error-code datasets",
		Long:          "Split a dataset's record store into fixed-size chunk files for static hosting, rebuild it from the chunks, and validate, inspect, export, or publish the result.",
		SilenceUsage:  true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().String("profile", config.ProfileGuide, "dataset profile: "+strings.Join(config.Default().ProfileNames(), ", ")+", or one defined in the config file")
	cmd.PersistentFlags().String("config", "", "config file (default: "+config.DefaultFileName+" in the working directory, if present)")
	cmd.PersistentFlags().String("data-dir", "", "dataset directory (overrides the profile)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	cmd.PersistentFlags().StringSlice("log-component", nil, "per-component log level, e.g. chunk-writer=debug (repeatable)")

	cmd.AddCommand(
		newSplitCmd(a),
		newCombineCmd(a),
		newValidateCmd(a),
		newStatsCmd(a),
		newQueryCmd(a),
		newExportCmd(a),
		newPublishCmd(a),
		newMergeExamplesCmd(a),
		newVersionCmd(version),
	)

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	components, _ := cmd.Flags().GetStringSlice("log-component")
	logger, err := newLogger(cmd.ErrOrStderr(), level, format, components)
	if err != nil {
		return err
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("profile")
	profile, err := cfg.Profile(name)
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		profile.DataDir = dir
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	a.logger = logger
	a.cfg = cfg
	a.profile = profile
	logger.Debug("configuration loaded", "profile", profile.Name, "data_dir", profile.DataDir)
	return nil
}

// newLogger builds the base logger: a text or JSON handler on w, wrapped in a
// ComponentFilterHandler, tagged with a fresh run id.
func newLogger(w io.Writer, level, format string, components []string) (*slog.Logger, error) {
	def, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	// Allow all levels; filtering done by ComponentFilterHandler.
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var base slog.Handler
	switch format {
	case "text":
		base = slog.NewTextHandler(w, opts)
	case "json":
		base = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}

	filter := logging.NewComponentFilterHandler(base, def)
	for _, c := range components {
		name, lvl, ok := strings.Cut(c, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --log-component %q (want component=level)", c)
		}
		l, err := parseLevel(lvl)
		if err != nil {
			return nil, err
		}
		filter.SetLevel(name, l)
	}

	run, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	return slog.New(filter).With("run", run.String()), nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

func (a *app) dir() datadir.Dir {
	return datadir.New(a.profile)
}

func (a *app) store() *store.Store {
	return store.New(store.Config{Path: a.dir().MainPath(), Logger: a.logger})
}

// chunkManager opens the profile's chunk directory.
func (a *app) chunkManager(compress []chunkfile.Encoding) (*chunkfile.Manager, error) {
	d := a.dir()
	return chunkfile.NewManager(chunkfile.Config{
		Dir:      d.ChunksDir(),
		Prefix:   d.ChunkPrefix(),
		Compress: compress,
		Logger:   a.logger,
	})
}

// outputFormat returns "json" or "table" from the --output flag.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version needs neither configuration nor a logger.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
