package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/wikisql/internal/endpoint"
	"github.com/roach88/wikisql/internal/history"
	"github.com/roach88/wikisql/internal/render"
	"github.com/roach88/wikisql/internal/translate"
)

// Executor runs SPARQL against an endpoint. *endpoint.Client implements it.
type Executor interface {
	Execute(ctx context.Context, sparql string) (*endpoint.ResultSet, error)
}

// QueryOutput is the JSON payload of a query.
type QueryOutput struct {
	SQL    string        `json:"sql"`
	SPARQL string        `json:"sparql,omitempty"`
	Result render.Result `json:"result"`
}

// Session runs queries with one executor and history store. The REPL keeps
// a session for its whole lifetime; the query command uses one per run.
type Session struct {
	Language   string
	ShowSPARQL bool

	exec      Executor
	history   *history.Store // nil when history is disabled or unavailable
	formatter *OutputFormatter
	now       func() time.Time
}

// newSession builds a session from the resolved root options. A history
// database that can't be opened is logged and skipped: queries still run.
func newSession(opts *RootOptions, formatter *OutputFormatter) *Session {
	s := &Session{
		Language:   opts.Language,
		ShowSPARQL: opts.ShowSPARQL,
		exec:       opts.executor(),
		formatter:  formatter,
		now:        time.Now,
	}

	if opts.Config.History.Disabled || opts.DBPath == "" {
		return s
	}
	st, err := history.Open(opts.DBPath)
	if err != nil {
		slog.Warn("query history unavailable", "path", opts.DBPath, "error", err)
		return s
	}
	s.history = st
	return s
}

// Close releases the history database.
func (s *Session) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}

// Run compiles, executes and renders one query, then records it.
// The returned error has already been reported through the formatter.
func (s *Session) Run(ctx context.Context, sql string) error {
	start := s.now()
	run := history.Run{SQL: sql, Language: s.Language}

	tr, err := translate.Translate(sql, s.Language)
	if err != nil {
		run.Error = err.Error()
		s.record(ctx, run, start)
		return s.formatter.Report(err)
	}
	run.SPARQL = tr.SPARQL

	if s.ShowSPARQL && s.formatter.Format != "json" {
		w := s.formatter.Writer
		fmt.Fprintln(w, "--- Generated SPARQL ---")
		fmt.Fprint(w, tr.SPARQL)
		fmt.Fprintln(w, "------------------------")
		fmt.Fprintln(w)
	}

	slog.Debug("executing query", "sql", sql, "language", s.Language)
	rs, err := s.exec.Execute(ctx, tr.SPARQL)
	if err != nil {
		run.Error = err.Error()
		s.record(ctx, run, start)
		return s.formatter.Report(err)
	}

	columns := rs.Variables
	if len(columns) == 0 {
		columns = tr.Variables
	}
	result := render.Result{
		Columns:   columns,
		Rows:      rs.Table(),
		Truncated: rs.Truncated,
	}
	run.RowCount = len(result.Rows)
	run.Truncated = rs.Truncated
	s.record(ctx, run, start)

	if s.formatter.Format == "json" {
		out := QueryOutput{SQL: sql, Result: result}
		if s.ShowSPARQL {
			out.SPARQL = tr.SPARQL
		}
		return s.formatter.Success(out)
	}
	return render.Table(s.formatter.Writer, result)
}

// record appends run to the history. History failures never fail a query.
func (s *Session) record(ctx context.Context, run history.Run, start time.Time) {
	if s.history == nil {
		return
	}
	run.Duration = s.now().Sub(start)
	if _, err := s.history.Record(ctx, run); err != nil {
		slog.Warn("failed to record query", "error", err)
	}
}
