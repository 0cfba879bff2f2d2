package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/wikisql/internal/config"
	"github.com/roach88/wikisql/internal/endpoint"
	"github.com/roach88/wikisql/internal/queryir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query execution failed, or test cases failed
	ExitCommandError = 2 // Command error (syntax error, bad config, bad flags)
)

// Error codes carried in CLIError.Code.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Config file missing or invalid
	ErrCodeHistory     = "E003" // History database error
	ErrCodeLanguage    = "E004" // Invalid label language tag
	ErrCodeSyntax      = "E101" // Query text outside the grammar
	ErrCodeUnsupported = "E102" // Valid SQL outside the supported subset
	ErrCodeExecution   = "E201" // Endpoint returned an error or bad response
	ErrCodeTimeout     = "E202" // Endpoint request timed out
	ErrCodeTestFailed  = "E_TEST_FAILED"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify maps an error to its CLIError code, exit code and details.
func classify(err error) (code string, exit int, details any) {
	var (
		se *queryir.SyntaxError
		qe *endpoint.QueryExecutionError
		ce *config.ConfigError
	)
	switch {
	case errors.As(err, &se):
		code = ErrCodeSyntax
		if se.Code == queryir.ErrCodeUnsupportedFeature {
			code = ErrCodeUnsupported
		}
		d := map[string]any{"clause": string(se.Clause), "kind": string(se.Code)}
		if se.Pos > 0 {
			d["position"] = se.Pos
		}
		return code, ExitCommandError, d
	case errors.As(err, &qe):
		code = ErrCodeExecution
		if qe.Kind == endpoint.KindTimeout {
			code = ErrCodeTimeout
		}
		d := map[string]any{"kind": string(qe.Kind)}
		if qe.StatusCode != 0 {
			d["status"] = qe.StatusCode
		}
		return code, ExitFailure, d
	case errors.As(err, &ce):
		return ErrCodeConfig, ExitCommandError, map[string]any{"path": ce.Path}
	}
	return ErrCodeGeneric, GetExitCode(err), nil
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for errors and diagnostics (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E101", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format. JSON goes to Writer so
// the response stays parseable; text goes to ErrWriter.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error: %s\n", message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details [%s]: %v\n", code, details)
	}
	return nil
}

// Report prints err and returns the ExitError the command should fail with.
func (f *OutputFormatter) Report(err error) error {
	code, exit, details := classify(err)
	_ = f.Error(code, err.Error(), details)
	return WrapExitError(exit, code, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
