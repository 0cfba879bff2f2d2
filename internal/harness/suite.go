package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wikisql/internal/queryir"
)

// Suite is a named set of compiler conformance cases.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Language is the default label language for cases that don't set one.
	Language string `yaml:"language,omitempty"`

	Cases []Case `yaml:"cases"`

	// Path is the file the suite was loaded from (not part of the YAML).
	Path string `yaml:"-"`
}

// Case is one query and what it must compile to.
type Case struct {
	Name     string `yaml:"name"`
	SQL      string `yaml:"sql"`
	Language string `yaml:"language,omitempty"`
	Expect   Expect `yaml:"expect"`
}

// Expect holds the checks for a case. See the package documentation.
type Expect struct {
	Contains    []string `yaml:"contains,omitempty"`
	NotContains []string `yaml:"not_contains,omitempty"`
	Variables   []string `yaml:"variables,omitempty"`

	Error       string `yaml:"error,omitempty"`
	ErrorClause string `yaml:"error_clause,omitempty"`
	ErrorCode   string `yaml:"error_code,omitempty"`
}

// ExpectsError reports whether the case must fail to compile.
func (e Expect) ExpectsError() bool {
	return e.Error != "" || e.ErrorClause != "" || e.ErrorCode != ""
}

func (e Expect) expectsSPARQL() bool {
	return len(e.Contains) > 0 || len(e.NotContains) > 0 || len(e.Variables) > 0
}

// LanguageFor returns the label language for c: the case's own, then the
// suite's, then English.
func (s *Suite) LanguageFor(c Case) string {
	if c.Language != "" {
		return c.Language
	}
	if s.Language != "" {
		return s.Language
	}
	return queryir.DefaultLanguage
}

// LoadSuite reads and validates a suite YAML file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	suite, err := ParseSuite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	suite.Path = path
	return suite, nil
}

// ParseSuite decodes and validates suite YAML.
func ParseSuite(data []byte) (*Suite, error) {
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

var validClauses = map[string]bool{
	string(queryir.ClauseQuery):  true,
	string(queryir.ClauseSelect): true,
	string(queryir.ClauseFrom):   true,
	string(queryir.ClauseJoin):   true,
	string(queryir.ClauseWhere):  true,
	string(queryir.ClauseLimit):  true,
}

var validCodes = map[string]bool{
	string(queryir.ErrCodeMalformed):          true,
	string(queryir.ErrCodeUnknownColumn):      true,
	string(queryir.ErrCodeUnsupportedFeature): true,
	string(queryir.ErrCodeInvalidReference):   true,
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if s.Language != "" {
		if _, err := queryir.NormalizeLanguage(s.Language); err != nil {
			return fmt.Errorf("language: %w", err)
		}
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		if strings.TrimSpace(c.SQL) == "" {
			return fmt.Errorf("cases[%d] %s: sql is required", i, c.Name)
		}
		if c.Language != "" {
			if _, err := queryir.NormalizeLanguage(c.Language); err != nil {
				return fmt.Errorf("cases[%d] %s: language: %w", i, c.Name, err)
			}
		}
		if err := validateExpect(c.Expect); err != nil {
			return fmt.Errorf("cases[%d] %s: %w", i, c.Name, err)
		}
	}
	return nil
}

func validateExpect(e Expect) error {
	if e.ExpectsError() && e.expectsSPARQL() {
		return fmt.Errorf("expect: error and SPARQL checks are mutually exclusive")
	}
	if e.ErrorClause != "" && !validClauses[e.ErrorClause] {
		return fmt.Errorf("expect: unknown error_clause %q", e.ErrorClause)
	}
	if e.ErrorCode != "" && !validCodes[e.ErrorCode] {
		return fmt.Errorf("expect: unknown error_code %q", e.ErrorCode)
	}
	return nil
}
