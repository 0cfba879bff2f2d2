package endpoint

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes query execution failures.
type ErrorKind string

const (
	// KindHTTP indicates the endpoint answered with a non-2xx status.
	KindHTTP ErrorKind = "http"

	// KindTimeout indicates the request exceeded its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindDecode indicates the response body was not a SPARQL JSON result.
	KindDecode ErrorKind = "decode"

	// KindTransport indicates the request never got a response.
	KindTransport ErrorKind = "transport"
)

// QueryExecutionError reports a failure to run SPARQL against the endpoint.
//
// The compiler never produces this error. It is returned by Client.Execute
// and passed through unchanged by callers.
type QueryExecutionError struct {
	// Kind identifies the failure category.
	Kind ErrorKind

	// StatusCode is the HTTP status for KindHTTP, 0 otherwise.
	StatusCode int

	// Message is a human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *QueryExecutionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("query execution failed (%s %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("query execution failed (%s): %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// IsQueryExecutionError returns true if err is or wraps a QueryExecutionError.
func IsQueryExecutionError(err error) bool {
	var qe *QueryExecutionError
	return errors.As(err, &qe)
}

// IsTimeout returns true if err is a QueryExecutionError of KindTimeout.
func IsTimeout(err error) bool {
	var qe *QueryExecutionError
	if errors.As(err, &qe) {
		return qe.Kind == KindTimeout
	}
	return false
}
