// Package harness runs conformance suites for the SQL-to-SPARQL compiler.
//
// A suite is a YAML file of named cases. Each case is a SQL-subset query
// plus expectations about the generated SPARQL or about the syntax error the
// query must produce. Suites never touch the network: they exercise parsing
// and generation only.
//
// # Suite Format
//
//	name: examples
//	description: "Worked examples from the README"
//	language: en            # default label language for every case
//	cases:
//	  - name: select_star
//	    sql: SELECT * FROM Q845945 LIMIT 10
//	    expect:
//	      contains:
//	        - "?item wdt:P31 wd:Q845945 ."
//	      not_contains:
//	        - FILTER
//	      variables: [item, itemLabel]
//	  - name: bad_table
//	    sql: SELECT * FROM countries
//	    expect:
//	      error: invalid table reference
//	      error_clause: FROM
//
// # Expectations
//
//   - contains: every string must appear in the SPARQL
//   - not_contains: no string may appear in the SPARQL
//   - variables: the projected variables, in order
//   - error: the query must fail with a message containing this text
//   - error_clause: the failing clause (SELECT, FROM, JOIN, WHERE, LIMIT, query)
//   - error_code: the syntax error code, e.g. UNSUPPORTED_FEATURE
//
// A case either expects SPARQL or expects an error, never both.
//
// # Golden Files
//
// The SPARQL of every successful case can be snapshotted into a golden file
// next to the suite (golden/<suite file>.golden). In Go tests use
// RunWithGolden; the CLI uses WriteGolden and CompareGolden.
//
// # Usage
//
//	suite, err := harness.LoadSuite("testdata/cases/examples.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result := harness.Run(suite)
//	if !result.Pass {
//	    for _, c := range result.FailedCases() {
//	        log.Println(c.Name, c.Errors)
//	    }
//	}
package harness
