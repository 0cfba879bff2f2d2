// Package translate is the single entry point from SQL-subset text to SPARQL.
package translate

import (
	"github.com/roach88/wikisql/internal/parser"
	"github.com/roach88/wikisql/internal/queryir"
	"github.com/roach88/wikisql/internal/querysparql"
)

// Translation is a parsed query together with its generated SPARQL.
type Translation struct {
	Query *queryir.Query

	// SPARQL is the generated query text, exposed verbatim for --sparql.
	SPARQL string

	// Variables are the projected variable names in SELECT column order.
	Variables []string
}

// Translate parses text and generates SPARQL with labels in language.
//
// An invalid language tag or a parse failure returns an error and no SPARQL;
// parse failures are *queryir.SyntaxError.
func Translate(text, language string) (*Translation, error) {
	lang, err := queryir.NormalizeLanguage(language)
	if err != nil {
		return nil, err
	}

	q, err := parser.ParseWithLanguage(text, lang)
	if err != nil {
		return nil, err
	}

	return &Translation{
		Query:     q,
		SPARQL:    querysparql.NewCompiler().Compile(q),
		Variables: querysparql.Variables(q),
	}, nil
}
