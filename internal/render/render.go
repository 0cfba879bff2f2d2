// Package render formats query results for the terminal.
package render

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// NoResults is printed instead of a table for an empty result set.
const NoResults = "(no results)"

// Result is a rendered-ready result set. Columns follow the SELECT order of
// the query; every row has one cell per column.
type Result struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Truncated bool       `json:"truncated,omitempty"`
}

// Table writes r as an ASCII table followed by a row-count footer.
func Table(w io.Writer, r Result) error {
	if len(r.Rows) == 0 {
		_, err := fmt.Fprintln(w, NoResults)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(r.Columns)
	// variable names are case-sensitive, keep them as generated
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range r.Rows {
		table.Append(pad(row, len(r.Columns)))
	}
	table.Render()

	footer := fmt.Sprintf("\n(%d %s)", len(r.Rows), plural(len(r.Rows), "row", "rows"))
	if r.Truncated {
		footer += " truncated at the row limit"
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}

// pad extends row with empty cells so it matches the header width.
func pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
