package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/wikisql/internal/history"
	"github.com/roach88/wikisql/internal/render"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously run queries",
		Long: `List queries recorded in the history database, newest first.

Examples:
  wikisql history
  wikisql history --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatterFor(cmd)

	if opts.Config.History.Disabled {
		_ = formatter.Error(ErrCodeHistory, "query history is disabled in the config", nil)
		return NewExitError(ExitCommandError, "query history is disabled")
	}

	st, err := history.Open(opts.DBPath)
	if err != nil {
		_ = formatter.Error(ErrCodeHistory, err.Error(), map[string]string{"path": opts.DBPath})
		return WrapExitError(ExitCommandError, "failed to open history", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := st.List(ctx, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeHistory, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list history", err)
	}

	if formatter.Format == "json" {
		if runs == nil {
			runs = []history.Run{}
		}
		return formatter.Success(runs)
	}

	return render.Table(formatter.Writer, historyTable(runs))
}

// historyTable lays runs out for render.Table.
func historyTable(runs []history.Run) render.Result {
	result := render.Result{
		Columns: []string{"#", "when", "lang", "rows", "time", "query"},
	}
	for _, r := range runs {
		outcome := strconv.Itoa(r.RowCount)
		if r.Truncated {
			outcome += "+"
		}
		if r.Failed() {
			outcome = "error"
		}
		result.Rows = append(result.Rows, []string{
			strconv.FormatInt(r.Seq, 10),
			r.CreatedAt.Local().Format(time.DateTime),
			r.Language,
			outcome,
			fmt.Sprintf("%.1fs", r.Duration.Seconds()),
			r.SQL,
		})
	}
	return result
}
