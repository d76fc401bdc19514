package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/qppconv/internal/config"
	"github.com/roach88/qppconv/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"; empty takes the config value
	ConfigPath string
	LogLevel   string

	// Config is loaded by the root command. Subcommands run on their own
	// (as in tests) see the defaults.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the qppconv CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qppconv",
		Short: "qppconv - QRDA-III to QPP converter",
		Long: `Convert QRDA Category III documents into QPP submission JSON.

Each document is parsed, decoded into a template tree, checked against the
business rules of the selected scopes and encoded. Failures are reported as
a structured error payload with a path for every detail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text); default from config")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a CUE config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error); default from config")

	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewScopesCommand(opts))
	cmd.AddCommand(NewTemplatesCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// load reads the config file, applies flag overrides and installs the
// logger.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	o.Config = &cfg

	if o.Format == "" {
		o.Format = cfg.Format
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	levelName := cfg.LogLevel
	if o.LogLevel != "" {
		levelName = o.LogLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	logging.Init(level, "text", cmd.ErrOrStderr())
	return nil
}

// settings returns the loaded config, or the defaults when the root
// command did not run.
func (o *RootOptions) settings() config.Config {
	if o.Config != nil {
		return *o.Config
	}
	return config.Default()
}

// format returns the output format, defaulting to text.
func (o *RootOptions) format() string {
	if o.Format == "" {
		return "text"
	}
	return o.Format
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.format(),
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
