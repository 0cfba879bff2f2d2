package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wikisql/internal/endpoint"
	"github.com/roach88/wikisql/internal/history"
	"github.com/roach88/wikisql/internal/render"
)

const franceQuery = "SELECT item, P17 FROM Q515 WHERE P17 = 'France' LIMIT 5"

func TestQueryCommand_Text(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "query", franceQuery)

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "itemLabel")
	assert.Contains(t, res.stdout, "P17Label")
	assert.Contains(t, res.stdout, "Paris")
	assert.Contains(t, res.stdout, "Lyon")
	assert.Contains(t, res.stdout, "(2 rows)")
	assert.NotContains(t, res.stdout, "Generated SPARQL")

	calls := env.fake.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], `FILTER(STR(?P17Label) = "France")`)
}

func TestQueryCommand_ShowSPARQL(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "query", franceQuery, "--sparql")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "--- Generated SPARQL ---")
	assert.Contains(t, res.stdout, "?item wdt:P31 wd:Q515 .")
	assert.Less(t, strings.Index(res.stdout, "Generated SPARQL"), strings.Index(res.stdout, "Paris"))
}

func TestQueryCommand_NoResults(t *testing.T) {
	env := newTestEnv(t)
	env.fake.rs = &endpoint.ResultSet{Variables: []string{"item", "itemLabel"}}

	res := env.run("", "query", "SELECT * FROM Q845945 LIMIT 10")
	require.NoError(t, res.err)
	assert.Equal(t, render.NoResults+"\n", res.stdout)
}

func TestQueryCommand_Truncated(t *testing.T) {
	env := newTestEnv(t)
	rs := citiesResult()
	rs.Truncated = true
	env.fake.rs = rs

	res := env.run("", "query", franceQuery)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "truncated at the row limit")
}

func TestQueryCommand_JSON(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "query", franceQuery, "--format", "json", "--sparql")
	require.NoError(t, res.err)

	var resp struct {
		Status string      `json:"status"`
		Data   QueryOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, franceQuery, resp.Data.SQL)
	assert.Contains(t, resp.Data.SPARQL, "LIMIT 5")
	assert.Equal(t, []string{"itemLabel", "P17Label"}, resp.Data.Result.Columns)
	assert.Equal(t, [][]string{{"Paris", "France"}, {"Lyon", "France"}}, resp.Data.Result.Rows)
}

func TestQueryCommand_SyntaxError(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("", "query", "SELECT * FROM notaqid")

	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "syntax error in FROM clause")
	assert.Empty(t, res.stdout)
	assert.Empty(t, env.fake.calls(), "no SPARQL is sent for a syntax error")
}

func TestQueryCommand_ExecutionError(t *testing.T) {
	env := newTestEnv(t)
	env.fake.err = &endpoint.QueryExecutionError{Kind: endpoint.KindHTTP, StatusCode: 500, Message: "HTTP 500: Internal Server Error"}

	res := env.run("", "query", franceQuery)
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "query execution failed (http 500)")
}

func TestQueryCommand_RecordsHistory(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run("", "query", franceQuery).err)
	require.Error(t, env.run("", "query", "SELECT * FROM notaqid").err)

	st, err := history.Open(env.dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "SELECT * FROM notaqid", runs[0].SQL)
	assert.True(t, runs[0].Failed())
	assert.Empty(t, runs[0].SPARQL)

	assert.Equal(t, franceQuery, runs[1].SQL)
	assert.Equal(t, 2, runs[1].RowCount)
	assert.Equal(t, "en", runs[1].Language)
	assert.Contains(t, runs[1].SPARQL, "wd:Q515")
}

func TestQueryCommand_HistoryDisabled(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "wikisql.yaml", "history:\n  disabled: true\n")

	require.NoError(t, env.run("", "query", franceQuery, "--config", path).err)
	assert.NoFileExists(t, env.dbPath)
}
