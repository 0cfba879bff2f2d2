package harness

import (
	"log/slog"

	"github.com/roach88/wikisql/internal/translate"
)

// Run compiles every case of the suite and checks its expectations.
//
// Cases are independent: a failing case never stops the suite.
func Run(suite *Suite) *Result {
	result := NewResult(suite.Name)
	for _, c := range suite.Cases {
		result.Add(RunCase(c, suite.LanguageFor(c)))
	}

	slog.Debug("suite finished",
		"suite", suite.Name,
		"passed", result.Passed,
		"failed", result.Failed)
	return result
}

// RunCase compiles one case with the given label language.
func RunCase(c Case, language string) CaseResult {
	res := CaseResult{Name: c.Name, Pass: true}

	tr, err := translate.Translate(c.SQL, language)
	if err != nil {
		res.Err = err.Error()
		checkError(&res, c.Expect, err)
		return res
	}

	res.SPARQL = tr.SPARQL
	checkTranslation(&res, c.Expect, tr)
	return res
}
