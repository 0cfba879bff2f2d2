package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wikisql/internal/config"
	"github.com/roach88/wikisql/internal/endpoint"
)

// fakeExecutor records queries and returns a canned result.
type fakeExecutor struct {
	mu      sync.Mutex
	cfg     endpoint.Config
	rs      *endpoint.ResultSet
	err     error
	queries []string
}

func (f *fakeExecutor) Execute(ctx context.Context, sparql string) (*endpoint.ResultSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, sparql)
	if f.err != nil {
		return nil, f.err
	}
	if f.rs == nil {
		return &endpoint.ResultSet{}, nil
	}
	return f.rs, nil
}

func (f *fakeExecutor) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func citiesResult() *endpoint.ResultSet {
	return &endpoint.ResultSet{
		Variables: []string{"itemLabel", "P17Label"},
		Rows: []endpoint.Row{
			{"itemLabel": "Paris", "P17Label": "France"},
			{"itemLabel": "Lyon", "P17Label": "France"},
		},
	}
}

type cliRun struct {
	stdout string
	stderr string
	err    error
}

// testEnv runs root commands against a fake endpoint and a temp history.
type testEnv struct {
	t      *testing.T
	fake   *fakeExecutor
	dbPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")
	return &testEnv{
		t:      t,
		fake:   &fakeExecutor{rs: citiesResult()},
		dbPath: filepath.Join(t.TempDir(), "history.db"),
	}
}

func (e *testEnv) run(stdin string, args ...string) cliRun {
	e.t.Helper()

	opts := &RootOptions{
		NewExecutor: func(cfg endpoint.Config) Executor {
			e.fake.cfg = cfg
			return e.fake
		},
	}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--db", e.dbPath))

	err := cmd.Execute()
	return cliRun{stdout: out.String(), stderr: errOut.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "wikisql [sql]", cmd.Use)
	assert.Contains(t, cmd.Long, "Wikidata")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"query", "compile", "repl", "history", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	languageFlag := cmd.PersistentFlags().Lookup("language")
	require.NotNil(t, languageFlag)
	assert.Equal(t, "l", languageFlag.Shorthand)
	assert.Equal(t, "en", languageFlag.DefValue)

	for _, name := range []string{"config", "sparql", "db"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	limitFlag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "20", limitFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "compile", "SELECT * FROM Q5", "--format", "xml")

	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stderr, `invalid format "xml"`)
}

func TestInvalidLanguage(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "compile", "SELECT * FROM Q5", "-l", "not a tag")

	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "invalid language tag")
	assert.Empty(t, env.fake.calls())
}

func TestConfigFile(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "wikisql.yaml", `
language: ja
endpoint:
  url: http://localhost:1234/sparql
  timeout: 5s
  max_rows: 7
`)

	res := env.run("", "compile", "SELECT item FROM Q5", "--config", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `wikibase:language "ja,en"`)

	// flags override the file
	res = env.run("", "compile", "SELECT item FROM Q5", "--config", path, "-l", "fr")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `wikibase:language "fr,en"`)

	res = env.run("", "query", "SELECT item FROM Q5", "--config", path)
	require.NoError(t, res.err)
	assert.Equal(t, "http://localhost:1234/sparql", env.fake.cfg.URL)
	assert.Equal(t, 7, env.fake.cfg.MaxRows)
}

func TestConfigFromEnv(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "wikisql.yaml", "language: de\n")
	t.Setenv(config.EnvConfigPath, path)

	res := env.run("", "compile", "SELECT item FROM Q5")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `wikibase:language "de,en"`)
}

func TestConfigInvalid(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "wikisql.yaml", "format: xml\n")

	res := env.run("", "compile", "SELECT item FROM Q5", "--config", path)
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "schema violation")
}

func TestRoot_RunsQueryArgument(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "SELECT item, P17 FROM Q515 WHERE P17 = 'France' LIMIT 5")

	require.NoError(t, res.err)
	require.Len(t, env.fake.calls(), 1)
	assert.Contains(t, res.stdout, "Paris")
	assert.Contains(t, res.stdout, "(2 rows)")
}

func TestRoot_NoArgumentStartsREPL(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("SELECT * FROM Q5 LIMIT 1\nquit\n")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, replPrompt)
	assert.Len(t, env.fake.calls(), 1)
}
