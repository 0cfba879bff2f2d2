package cli

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommand_Text(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "compile", "SELECT * FROM Q845945 LIMIT 10")
	require.NoError(t, res.err)

	want, err := os.ReadFile("../querysparql/testdata/golden/select_star.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), res.stdout)
	assert.Empty(t, env.fake.calls(), "compile never contacts the endpoint")
}

func TestCompileCommand_DoesNotRecordHistory(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run("", "compile", "SELECT * FROM Q5").err)
	assert.NoFileExists(t, env.dbPath)
}

func TestCompileCommand_JSON(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "compile", "SELECT * FROM Q845945 s JOIN Q5 p ON s.P17 = p.P27 LIMIT 5", "--format", "json", "-l", "ja")
	require.NoError(t, res.err)

	var resp struct {
		Status string        `json:"status"`
		Data   CompileOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ja", resp.Data.Language)
	assert.Equal(t, []string{"item", "itemLabel", "p", "pLabel"}, resp.Data.Variables)
	assert.Contains(t, resp.Data.SPARQL, "?item wdt:P17 ?P17 .")
	assert.Contains(t, resp.Data.SPARQL, "?p wdt:P27 ?P17 .")
}

func TestCompileCommand_SyntaxError(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "compile", "SELECT * FROM Q5 ORDER BY item")

	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "unsupported feature: ORDER BY")
}

func TestCompileCommand_SyntaxErrorJSON(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "compile", "SELECT * FROM notaqid", "--format", "json")

	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSyntax, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "FROM")

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "FROM", details["clause"])
}

func TestCompileCommand_MissingArg(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "compile")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "accepts 1 arg")
}
