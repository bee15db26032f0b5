package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/config"
	"github.com/roach88/variantforge/internal/logger"
	"github.com/roach88/variantforge/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DBPath     string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the variantforge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "variantforge",
		Short: "Expand component sets into every variant combination",
		Long: `variantforge expands a component set's property schema into every
combination of values and materializes one placed instance per combination,
including one clone per combination of each nested exposed instance.

Instances are packed on a raster grid whose cursor is persisted per page,
so successive runs continue below earlier output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "state database path (overrides store.path)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCursorCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// env is the resolved configuration and logger shared by commands.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

// load resolves configuration, applies global flag overrides and builds the
// logger. Logs go to the command's stderr so JSON output stays clean.
func (o *RootOptions) load(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.DBPath != "" {
		cfg.Store.Path = o.DBPath
	}
	if o.Verbose {
		cfg.Log.Verbose = true
	}
	log := logger.New(logger.Options{
		JSON:    cfg.Log.JSON,
		Verbose: cfg.Log.Verbose,
		Output:  cmd.ErrOrStderr(),
	})
	return &env{cfg: cfg, log: log}, nil
}

// openStore opens the configured state database.
func (e *env) openStore() (*store.Store, error) {
	st, err := store.Open(e.cfg.Store.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// intFlag returns the flag value when set on the command line, fallback
// otherwise.
func intFlag(cmd *cobra.Command, name string, value, fallback int) int {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}
