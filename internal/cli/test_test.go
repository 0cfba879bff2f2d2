package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingSuite = `name: tmp
cases:
  - name: star
    sql: SELECT * FROM Q5 LIMIT 2
    expect:
      contains: ["LIMIT 2"]
  - name: bad_table
    sql: SELECT * FROM countries
    expect:
      error_clause: FROM
`

const failingSuite = `name: failing
cases:
  - name: wrong
    sql: SELECT * FROM Q5
    expect:
      contains: ["LIMIT 99"]
`

func TestTestCommand_Examples(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "test", "../../testdata/cases/examples.yaml")

	require.NoError(t, res.err, res.stdout)
	assert.Contains(t, res.stdout, "✓ examples")
	assert.Contains(t, res.stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Empty(t, env.fake.calls(), "suites never contact the endpoint")
}

func TestTestCommand_Failure(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "failing.yaml", failingSuite)

	res := env.run("", "test", path)
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "✗ failing (0/1 cases)")
	assert.Contains(t, res.stdout, `SPARQL does not contain "LIMIT 99"`)
}

func TestTestCommand_MissingArgs(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "test")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "requires at least 1 arg")
}

func TestTestCommand_InvalidSuite(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "bad.yaml", "name: x\ncases: []\n")

	res := env.run("", "test", path)
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "cases list is required")
}

func TestTestCommand_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "test", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestTestCommand_UpdateThenCompareGolden(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "tmp.yaml", passingSuite)
	golden := filepath.Join(filepath.Dir(path), "golden", "tmp.golden")

	res := env.run("", "test", path, "--update")
	require.NoError(t, res.err, res.stdout)
	assert.Contains(t, res.stdout, "golden updated")
	assert.FileExists(t, golden)

	res = env.run("", "test", path)
	require.NoError(t, res.err, res.stdout)

	// a stale golden file fails the suite even when expectations hold
	require.NoError(t, os.WriteFile(golden, []byte("# star\nstale\n"), 0644))
	res = env.run("", "test", path)
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "golden file mismatch")
}

func TestTestCommand_JSON(t *testing.T) {
	env := newTestEnv(t)
	ok := writeFile(t, "tmp.yaml", passingSuite)
	bad := writeFile(t, "failing.yaml", failingSuite)

	res := env.run("", "test", ok, bad, "--format", "json")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)

	require.Len(t, resp.Data.Suites, 2)
	assert.True(t, resp.Data.Suites[0].Pass)
	assert.Len(t, resp.Data.Suites[0].Cases, 2)
	assert.False(t, resp.Data.Suites[1].Pass)
}
