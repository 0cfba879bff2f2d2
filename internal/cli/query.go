package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run one query against Wikidata",
		Long: `Compile a SQL query to SPARQL, run it on the endpoint and print the
results as a table (or JSON with --format json).

Exit codes:
  0 - Query ran (including empty results)
  1 - The endpoint failed (HTTP error, timeout, bad response)
  2 - Command error (syntax error, bad config)

Examples:
  wikisql query "SELECT * FROM Q845945 LIMIT 10"
  wikisql query --sparql "SELECT P17, P17_qid FROM Q515 LIMIT 3"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], cmd)
		},
	}
}

func runQuery(opts *RootOptions, sql string, cmd *cobra.Command) error {
	// Use command's context if available (for testing), otherwise create one
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := newSession(opts, opts.formatterFor(cmd))
	defer session.Close()

	return session.Run(ctx, sql)
}
