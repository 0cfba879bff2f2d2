package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as golden file content: one block per case,
// headed by "# <case name>", holding the SPARQL or the compile error.
func Snapshot(result *Result) []byte {
	var buf bytes.Buffer
	for i, c := range result.Cases {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "# %s\n", c.Name)
		if c.Err != "" {
			fmt.Fprintf(&buf, "error: %s\n", c.Err)
			continue
		}
		buf.WriteString(c.SPARQL)
		if !strings.HasSuffix(c.SPARQL, "\n") {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// RunWithGolden runs the suite and compares its snapshot against
// testdata/golden/<suite name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func RunWithGolden(t *testing.T, suite *Suite) *Result {
	t.Helper()

	result := Run(suite)
	AssertGolden(t, suite.Name, result)
	return result
}

// AssertGolden compares an existing result against a golden file without
// re-running the suite.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}

// GoldenPath returns the golden file for a suite file:
// <dir>/golden/<base name>.golden.
func GoldenPath(suitePath string) string {
	dir := filepath.Dir(suitePath)
	base := filepath.Base(suitePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// WriteGolden stores the snapshot of result as the suite's golden file.
func WriteGolden(suite *Suite, result *Result) error {
	path := GoldenPath(suite.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, Snapshot(result), 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether result matches the suite's golden file.
// A missing golden file is returned as an error wrapping os.ErrNotExist.
func CompareGolden(suite *Suite, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(suite.Path))
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(want, Snapshot(result)), nil
}
