package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/posterior/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	EnvFile    string
	Database   string // overrides the configured database when set

	// Config is loaded in PersistentPreRunE and shared by all subcommands.
	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the posterior CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "posterior",
		Short: "posterior - MCMC sample archive and diagnostics",
		Long: `Archive posterior draws from MCMC runs, slice them by variable and chain,
and report convergence diagnostics (R-hat, ESS, MCSE, HDI).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.Logger = newLogger(opts.Verbose)
			slog.SetDefault(opts.Logger)

			cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if opts.Database != "" {
				cfg.Database = opts.Database
			}
			opts.Config = cfg
			opts.Logger.Debug("config loaded", "database", cfg.Database, "cache", cfg.Cache.Enabled)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file read before the environment")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite run archive (overrides config)")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// newLogger writes text logs to stderr, at debug level when verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
