package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wikisql/internal/translate"
)

// CompileOutput is the JSON payload of the compile command.
type CompileOutput struct {
	SQL       string   `json:"sql"`
	Language  string   `json:"language"`
	SPARQL    string   `json:"sparql"`
	Variables []string `json:"variables"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <sql>",
		Short: "Print the SPARQL for a query without running it",
		Long: `Compile a SQL query to SPARQL and print it. Nothing is sent to the
endpoint and nothing is recorded in the history.

Examples:
  wikisql compile "SELECT * FROM Q845945 s JOIN Q5 p ON s.P17 = p.P27"
  wikisql compile -l de --format json "SELECT item FROM Q5"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, args[0], cmd)
		},
	}
}

func runCompile(opts *RootOptions, sql string, cmd *cobra.Command) error {
	formatter := opts.formatterFor(cmd)

	tr, err := translate.Translate(sql, opts.Language)
	if err != nil {
		return formatter.Report(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(CompileOutput{
			SQL:       sql,
			Language:  opts.Language,
			SPARQL:    tr.SPARQL,
			Variables: tr.Variables,
		})
	}

	formatter.VerboseLog("Columns: %v", tr.Variables)
	fmt.Fprint(formatter.Writer, tr.SPARQL)
	return nil
}
