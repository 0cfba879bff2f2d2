// Package endpoint executes SPARQL against the Wikidata Query Service.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
)

const (
	// DefaultURL is the public Wikidata SPARQL endpoint.
	DefaultURL = "https://query.wikidata.org/sparql"

	// DefaultUserAgent identifies the client, as the endpoint's usage policy
	// requires.
	DefaultUserAgent = "wikisql/0.1 (https://github.com/roach88/wikisql)"

	// DefaultTimeout bounds one request.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRows is the result-set ceiling.
	DefaultMaxRows = 10000

	// EntityPrefix is stripped from entity IRIs, leaving the Q-ID or P-ID.
	EntityPrefix = "http://www.wikidata.org/entity/"

	// maxErrorBody caps how much of an error response ends up in a message.
	maxErrorBody = 512
)

// Config holds client settings. Zero values select the defaults.
type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration

	// MaxRows caps the rows kept from one response. Negative means no cap.
	MaxRows int

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Row maps projected variable names to values. Unbound variables are absent.
type Row map[string]string

// ResultSet is the decoded endpoint response.
type ResultSet struct {
	// Variables are the projected names from head.vars, in SELECT order.
	Variables []string

	Rows []Row

	// Truncated is set when rows beyond MaxRows were dropped.
	Truncated bool
}

// Table returns the rows as string slices in Variables order, with empty
// strings for unbound values.
func (rs *ResultSet) Table() [][]string {
	out := make([][]string, len(rs.Rows))
	for i, row := range rs.Rows {
		cells := make([]string, len(rs.Variables))
		for j, v := range rs.Variables {
			cells[j] = row[v]
		}
		out[i] = cells
	}
	return out
}

// Client runs SPARQL queries over HTTP. It is safe for concurrent use.
type Client struct {
	url       string
	userAgent string
	maxRows   int
	http      *http.Client
}

// New creates a Client, filling unset Config fields with defaults.
func New(cfg Config) *Client {
	c := &Client{
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		maxRows:   cfg.MaxRows,
		http:      cfg.HTTPClient,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.maxRows == 0 {
		c.maxRows = DefaultMaxRows
	}
	if c.http == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	return c
}

// URL returns the endpoint the client sends queries to.
func (c *Client) URL() string {
	return c.url
}

// Execute sends one SPARQL query and decodes the JSON result set.
//
// All failures are *QueryExecutionError. There are no retries.
func (c *Client) Execute(ctx context.Context, sparql string) (*ResultSet, error) {
	params := url.Values{}
	params.Set("query", sparql)
	params.Set("format", "json")

	target := c.url
	if strings.Contains(target, "?") {
		target += "&" + params.Encode()
	} else {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &QueryExecutionError{Kind: KindTransport, Message: "can't create request", Err: err}
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	slog.Debug("sending SPARQL query", "endpoint", c.url, "bytes", len(sparql))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	slog.Debug("SPARQL response received",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &QueryExecutionError{
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Message:    errorSnippet(resp.Status, body),
		}
	}

	rs, err := decodeResults(body, c.maxRows)
	if err != nil {
		return nil, err
	}
	if rs.Truncated {
		slog.Warn("result set truncated", "max_rows", c.maxRows)
	}
	return rs, nil
}

// decodeResults parses a SPARQL 1.1 JSON result document.
func decodeResults(body []byte, maxRows int) (*ResultSet, error) {
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, &QueryExecutionError{Kind: KindDecode, Message: "response is not JSON", Err: err}
	}

	if !parsed.Exists("head", "vars") {
		return nil, &QueryExecutionError{Kind: KindDecode, Message: "response has no head.vars"}
	}

	rs := &ResultSet{}
	for _, v := range parsed.Search("head", "vars").Children() {
		name, ok := v.Data().(string)
		if !ok {
			return nil, &QueryExecutionError{Kind: KindDecode, Message: fmt.Sprintf("head.vars entry %v is not a string", v.Data())}
		}
		rs.Variables = append(rs.Variables, name)
	}

	if !parsed.Exists("results", "bindings") {
		return nil, &QueryExecutionError{Kind: KindDecode, Message: "response has no results.bindings"}
	}

	bindings := parsed.Search("results", "bindings").Children()
	for _, binding := range bindings {
		if maxRows > 0 && len(rs.Rows) >= maxRows {
			rs.Truncated = true
			break
		}

		row := make(Row, len(rs.Variables))
		for _, name := range rs.Variables {
			cell := binding.Search(name, "value")
			if cell == nil {
				continue
			}
			value, ok := cell.Data().(string)
			if !ok {
				return nil, &QueryExecutionError{Kind: KindDecode, Message: fmt.Sprintf("value of %s is not a string", name)}
			}
			row[name] = ShortenEntity(value)
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

// ShortenEntity turns "http://www.wikidata.org/entity/Q42" into "Q42".
// Other values are returned unchanged.
func ShortenEntity(value string) string {
	if rest, ok := strings.CutPrefix(value, EntityPrefix); ok && rest != "" {
		return rest
	}
	return value
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &QueryExecutionError{Kind: KindTimeout, Message: "endpoint did not answer in time", Err: err}
	}
	return &QueryExecutionError{Kind: KindTransport, Message: err.Error(), Err: err}
}

func errorSnippet(status string, body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	if text == "" {
		return status
	}
	// the endpoint puts the parser error on the first line of a Java trace
	if i := strings.IndexByte(text, '\n'); i > 0 {
		text = text[:i]
	}
	return status + ": " + text
}
