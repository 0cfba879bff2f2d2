package cli

import (
	"bufio"
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/wikisql/internal/queryir"
)

const (
	replPrompt = "wikisql> "

	replBanner = `wikisql - SQL interface to Wikidata
Type a SQL query, or 'quit' to exit. \sparql toggles SPARQL display,
\lang <tag> changes the label language.
Example: SELECT * FROM Q845945 LIMIT 10;
`
)

// NewREPLCommand creates the repl command.
func NewREPLCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive prompt",
		Long: `Read queries line by line and run each one.

A failing query prints its error and the prompt continues.

Commands:
  quit, exit, \q   leave
  \sparql          toggle display of the generated SPARQL
  \lang <tag>      change the label language, e.g. \lang fr`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(rootOpts, cmd)
		},
	}
}

func runREPL(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := opts.formatterFor(cmd)
	session := newSession(opts, formatter)
	defer session.Close()

	w := cmd.OutOrStdout()
	interactive := formatter.Format != "json"
	if interactive {
		fmt.Fprint(w, replBanner+"\n")
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			fmt.Fprint(w, replPrompt)
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Fprintln(w)
			}
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch lower := strings.ToLower(line); {
		case lower == "quit" || lower == "exit" || lower == `\q`:
			return nil
		case lower == `\sparql`:
			session.ShowSPARQL = !session.ShowSPARQL
			fmt.Fprintf(w, "SPARQL display: %s\n", onOff(session.ShowSPARQL))
			continue
		case lower == `\lang` || strings.HasPrefix(lower, `\lang `):
			setLanguage(session, formatter, strings.TrimSpace(line[len(`\lang`):]))
			continue
		}

		// Ctrl-C cancels the running query; at the prompt it exits as usual.
		qctx, stop := signal.NotifyContext(ctx, syscall.SIGINT)
		_ = session.Run(qctx, line) // already reported; the loop continues
		stop()
		if interactive {
			fmt.Fprintln(w)
		}
	}

	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	return nil
}

func setLanguage(s *Session, formatter *OutputFormatter, tag string) {
	if tag == "" {
		fmt.Fprintf(formatter.Writer, "Label language: %s\n", s.Language)
		return
	}
	lang, err := queryir.NormalizeLanguage(tag)
	if err != nil {
		_ = formatter.Error(ErrCodeLanguage, err.Error(), nil)
		return
	}
	s.Language = lang
	fmt.Fprintf(formatter.Writer, "Label language: %s\n", lang)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
