package queryir

import (
	"errors"
	"fmt"
)

// SyntaxErrorCode categorizes syntax errors.
type SyntaxErrorCode string

const (
	// ErrCodeMalformed indicates a missing or badly formed clause.
	ErrCodeMalformed SyntaxErrorCode = "MALFORMED"

	// ErrCodeUnknownColumn indicates a column token that is not *, item,
	// item_qid, Pxxx or Pxxx_qid.
	ErrCodeUnknownColumn SyntaxErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeUnsupportedFeature indicates valid SQL outside the supported subset.
	ErrCodeUnsupportedFeature SyntaxErrorCode = "UNSUPPORTED_FEATURE"

	// ErrCodeInvalidReference indicates a bad entity reference or alias.
	ErrCodeInvalidReference SyntaxErrorCode = "INVALID_REFERENCE"
)

// Clause names the part of the query an error was found in.
type Clause string

const (
	ClauseQuery  Clause = "query"
	ClauseSelect Clause = "SELECT"
	ClauseFrom   Clause = "FROM"
	ClauseJoin   Clause = "JOIN"
	ClauseWhere  Clause = "WHERE"
	ClauseLimit  Clause = "LIMIT"
)

// SyntaxError reports input text the compiler cannot translate.
//
// Syntax errors are always caused by the input and always name the offending
// clause. No SPARQL is produced for a query that fails with a SyntaxError.
type SyntaxError struct {
	// Code identifies the error category.
	Code SyntaxErrorCode

	// Clause is the clause containing the problem.
	Clause Clause

	// Message is a human-readable description.
	Message string

	// Pos is the 1-based byte offset of the offending token (0 = unknown).
	Pos int
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var where string
	if e.Clause == ClauseQuery || e.Clause == "" {
		where = "syntax error"
	} else {
		where = fmt.Sprintf("syntax error in %s clause", e.Clause)
	}
	if e.Pos > 0 {
		return fmt.Sprintf("%s: %s (at position %d)", where, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

// NewSyntaxError creates a SyntaxError with a formatted message.
func NewSyntaxError(code SyntaxErrorCode, clause Clause, pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Code:    code,
		Clause:  clause,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}

// NewUnsupportedFeature creates a SyntaxError for a construct outside the
// supported subset. feature names the construct, e.g. "ORDER BY".
func NewUnsupportedFeature(clause Clause, pos int, feature string) *SyntaxError {
	return &SyntaxError{
		Code:    ErrCodeUnsupportedFeature,
		Clause:  clause,
		Message: "unsupported feature: " + feature,
		Pos:     pos,
	}
}

// IsSyntaxError returns true if err is or wraps a SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// IsUnsupportedFeature returns true if err is or wraps a SyntaxError for an
// unsupported feature.
func IsUnsupportedFeature(err error) bool {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnsupportedFeature
	}
	return false
}
