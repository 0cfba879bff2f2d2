package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/wikisql/internal/config"
	"github.com/roach88/wikisql/internal/endpoint"
	"github.com/roach88/wikisql/internal/queryir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Language   string
	ShowSPARQL bool
	DBPath     string

	// Config is the loaded configuration with flag overrides applied.
	// Set by the root command before any subcommand runs.
	Config *config.Config

	// NewExecutor builds the endpoint client. Tests replace it with a fake.
	NewExecutor func(endpoint.Config) Executor

	logCloser io.Closer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wikisql CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikisql [sql]",
		Short: "wikisql - SQL queries against Wikidata",
		Long: `Run a small subset of SQL against Wikidata.

Tables are Wikidata classes (Q-IDs), columns are properties (P-IDs).
Queries are compiled to SPARQL and sent to the Wikidata Query Service.

With a query argument the query is run once; without one an interactive
prompt starts.

Examples:
  wikisql "SELECT * FROM Q845945 LIMIT 10"
  wikisql "SELECT item, P17 FROM Q515 WHERE P17 = 'France' LIMIT 5" --sparql
  wikisql -l ja "SELECT item FROM Q5 LIMIT 3"`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.finish()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runQuery(opts, args[0], cmd)
			}
			return runREPL(opts, cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $"+config.EnvConfigPath+")")
	cmd.PersistentFlags().StringVarP(&opts.Language, "language", "l", queryir.DefaultLanguage, "label language")
	cmd.PersistentFlags().BoolVar(&opts.ShowSPARQL, "sparql", false, "show the generated SPARQL")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "query history database path")

	// Add subcommands
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewREPLCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// prepare loads the config file, applies flag overrides and sets up logging.
// Flags the user set win over file values; unset flags take the file's.
func (o *RootOptions) prepare(cmd *cobra.Command) error {
	cfg, err := config.Load(config.ResolvePath(o.ConfigPath))
	if err != nil {
		f := o.formatterFor(cmd)
		f.Format = formatOrText(o.Format)
		return f.Report(err)
	}

	flags := cmd.Flags()
	if flags.Changed("language") {
		cfg.Language = o.Language
	}
	if flags.Changed("sparql") {
		cfg.ShowSPARQL = o.ShowSPARQL
	}
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("db") {
		cfg.History.Path = o.DBPath
	}

	if !isValidFormat(cfg.Format) {
		msg := fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", msg)
		return NewExitError(ExitCommandError, msg)
	}
	lang, err := queryir.NormalizeLanguage(cfg.Language)
	if err != nil {
		f := o.formatterFor(cmd)
		f.Format = cfg.Format
		_ = f.Error(ErrCodeLanguage, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeLanguage, err)
	}
	cfg.Language = lang

	o.Config = cfg
	o.Format = cfg.Format
	o.Language = cfg.Language
	o.ShowSPARQL = cfg.ShowSPARQL
	o.DBPath = cfg.History.Path

	closer, err := setupLogging(cfg.Log, o.Verbose, cmd.ErrOrStderr())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: failed to set up logging: %v\n", err)
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	o.logCloser = closer
	return nil
}

func (o *RootOptions) finish() error {
	if o.logCloser == nil {
		return nil
	}
	err := o.logCloser.Close()
	o.logCloser = nil
	return err
}

// formatterFor builds the output formatter for cmd's writers.
func (o *RootOptions) formatterFor(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // errors go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// executor returns the endpoint client for the current config.
func (o *RootOptions) executor() Executor {
	cfg := o.Config.EndpointClientConfig()
	if o.NewExecutor != nil {
		return o.NewExecutor(cfg)
	}
	return endpoint.New(cfg)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func formatOrText(format string) string {
	if isValidFormat(format) {
		return format
	}
	return "text"
}
