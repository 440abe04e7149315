// Package cli is the interactive front end: a cobra command per catalog,
// each running a numbered text menu over the matching engine.
//
// Menus read one answer per line. Domain errors are printed as
// "Error: ..." and the menu carries on; end of input behaves like Exit.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/campus-records/internal/config"
)

// RootOptions holds global flags and what PersistentPreRunE builds from
// them.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	cfg *config.Config
	log *slog.Logger
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Student results and library records",
		Long: `Manage two independent record catalogs from an interactive menu:
student exam results (in memory) and a library of books and members
(saved to disk).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = setupLogger(cfg.Env, opts.Verbose, cmd.ErrOrStderr())

			opts.log.Debug("config loaded",
				slog.String("env", cfg.Env),
				slog.String("backend", cfg.Storage.Backend))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to the configuration YAML file (or CONFIG_PATH)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewResultsCommand(opts))
	cmd.AddCommand(NewLibraryCommand(opts))

	return cmd
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at WARN level, so the menu
// is not interleaved with chatter. Production (prod): JSON at INFO level.
// --verbose lowers either to DEBUG.
//
// Logs go to w (stderr) so they never mix with menu output on stdout.
func setupLogger(env string, verbose bool, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Level
	switch env {
	case "prod":
		level = slog.LevelInfo
	case "staging":
		level = slog.LevelDebug
	default:
		level = slog.LevelWarn
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	switch env {
	case "prod", "staging":
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}
