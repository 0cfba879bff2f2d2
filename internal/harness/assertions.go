package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/wikisql/internal/queryir"
	"github.com/roach88/wikisql/internal/translate"
)

// checkTranslation evaluates the SPARQL expectations of a case that compiled.
func checkTranslation(res *CaseResult, e Expect, tr *translate.Translation) {
	if e.ExpectsError() {
		res.addError(fmt.Sprintf("expected error %s, but the query compiled", describeError(e)))
		return
	}

	for _, s := range e.Contains {
		if !strings.Contains(tr.SPARQL, s) {
			res.addError(fmt.Sprintf("SPARQL does not contain %q", s))
		}
	}
	for _, s := range e.NotContains {
		if strings.Contains(tr.SPARQL, s) {
			res.addError(fmt.Sprintf("SPARQL unexpectedly contains %q", s))
		}
	}
	if len(e.Variables) > 0 && !equalStrings(e.Variables, tr.Variables) {
		res.addError(fmt.Sprintf("variables: expected %v, got %v", e.Variables, tr.Variables))
	}
}

// checkError evaluates the expectations of a case whose query failed.
func checkError(res *CaseResult, e Expect, err error) {
	if !e.ExpectsError() {
		res.addError(fmt.Sprintf("unexpected error: %v", err))
		return
	}

	if e.Error != "" && !strings.Contains(err.Error(), e.Error) {
		res.addError(fmt.Sprintf("error %q does not contain %q", err.Error(), e.Error))
	}

	if e.ErrorClause == "" && e.ErrorCode == "" {
		return
	}
	var se *queryir.SyntaxError
	if !errors.As(err, &se) {
		res.addError(fmt.Sprintf("expected a syntax error, got %v", err))
		return
	}
	if e.ErrorClause != "" && string(se.Clause) != e.ErrorClause {
		res.addError(fmt.Sprintf("error clause: expected %s, got %s", e.ErrorClause, se.Clause))
	}
	if e.ErrorCode != "" && string(se.Code) != e.ErrorCode {
		res.addError(fmt.Sprintf("error code: expected %s, got %s", e.ErrorCode, se.Code))
	}
}

func describeError(e Expect) string {
	var parts []string
	if e.Error != "" {
		parts = append(parts, fmt.Sprintf("%q", e.Error))
	}
	if e.ErrorClause != "" {
		parts = append(parts, "in "+e.ErrorClause)
	}
	if e.ErrorCode != "" {
		parts = append(parts, "("+e.ErrorCode+")")
	}
	return strings.Join(parts, " ")
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
