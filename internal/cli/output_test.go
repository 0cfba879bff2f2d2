package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wikisql/internal/config"
	"github.com/roach88/wikisql/internal/endpoint"
	"github.com/roach88/wikisql/internal/queryir"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    buf,
		ErrWriter: errBuf,
	}

	err := formatter.Error(ErrCodeSyntax, "syntax error in FROM clause: boom", nil)
	require.NoError(t, err)
	assert.Empty(t, errBuf.String(), "JSON errors stay on stdout")

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSyntax, resp.Error.Code)
	assert.Equal(t, "syntax error in FROM clause: boom", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "text",
		Writer:    buf,
		ErrWriter: errBuf,
	}

	err := formatter.Error(ErrCodeExecution, "query execution failed", map[string]int{"status": 500})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
	assert.Equal(t, "Error: query execution failed\n", errBuf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"clause": "FROM"}
	err := formatter.Error(ErrCodeSyntax, "bad table", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error: bad table")
	assert.Contains(t, buf.String(), "Details [E101]:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Columns: %v", []string{"item"})

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Columns: [item]")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestOutputFormatter_Report(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		code     string
		exitCode int
	}{
		{
			name:     "syntax error",
			err:      queryir.NewSyntaxError(queryir.ErrCodeInvalidReference, queryir.ClauseFrom, 15, "invalid table reference"),
			code:     ErrCodeSyntax,
			exitCode: ExitCommandError,
		},
		{
			name:     "unsupported feature",
			err:      queryir.NewUnsupportedFeature(queryir.ClauseQuery, 18, "ORDER BY"),
			code:     ErrCodeUnsupported,
			exitCode: ExitCommandError,
		},
		{
			name:     "http error",
			err:      &endpoint.QueryExecutionError{Kind: endpoint.KindHTTP, StatusCode: 500, Message: "HTTP 500"},
			code:     ErrCodeExecution,
			exitCode: ExitFailure,
		},
		{
			name:     "timeout",
			err:      fmt.Errorf("run: %w", &endpoint.QueryExecutionError{Kind: endpoint.KindTimeout, Message: "timed out"}),
			code:     ErrCodeTimeout,
			exitCode: ExitFailure,
		},
		{
			name:     "config",
			err:      &config.ConfigError{Path: "x.yaml", Message: "schema violation"},
			code:     ErrCodeConfig,
			exitCode: ExitCommandError,
		},
		{
			name:     "other",
			err:      errors.New("boom"),
			code:     ErrCodeGeneric,
			exitCode: ExitFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Report(tc.err)
			assert.Equal(t, tc.exitCode, GetExitCode(err))
			assert.True(t, errors.Is(err, tc.err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
			assert.Equal(t, tc.err.Error(), resp.Error.Message)
		})
	}
}

func TestReport_SyntaxErrorDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	_ = formatter.Report(queryir.NewSyntaxError(queryir.ErrCodeMalformed, queryir.ClauseLimit, 30, "LIMIT needs a number"))

	var resp struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "LIMIT", resp.Error.Details["clause"])
	assert.Equal(t, "MALFORMED", resp.Error.Details["kind"])
	assert.Equal(t, float64(30), resp.Error.Details["position"])
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestExitError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open history", inner)
	assert.Equal(t, "failed to open history: disk full", err.Error())
	assert.True(t, errors.Is(err, inner))
}
