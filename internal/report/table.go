package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Align is the alignment of one table column
type Align int

const (
	Left Align = iota
	Right
)

// Table renders rows of text as aligned columns under a header and a rule line.
// Header cells are always left aligned.
type Table struct {
	aligns  []Align
	headers []string
	rows    [][]string
}

// NewTable creates a table with one column per header. Missing alignments default to Left.
func NewTable(aligns []Align, headers ...string) *Table {
	a := make([]Align, len(headers))
	copy(a, aligns)
	return &Table{aligns: a, headers: headers}
}

// AddRow appends a row; extra cells are dropped and missing cells are blank
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Lines renders the table
func (t *Table) Lines() []string {
	widths := make([]int, len(t.headers))
	for _, row := range append([][]string{t.headers}, t.rows...) {
		for j, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[j] {
				widths[j] = n
			}
		}
	}

	total := 0
	for _, w := range widths {
		total += w
	}
	if len(widths) > 1 {
		total += 2 * (len(widths) - 1)
	}

	lines := []string{t.render(t.headers, widths, true), strings.Repeat("-", total)}
	for _, row := range t.rows {
		lines = append(lines, t.render(row, widths, false))
	}
	return lines
}

func (t *Table) render(row []string, widths []int, header bool) string {
	var b strings.Builder
	for j, cell := range row {
		if j > 0 {
			b.WriteString("  ")
		}
		pad := strings.Repeat(" ", widths[j]-utf8.RuneCountInString(cell))
		if !header && t.aligns[j] == Right {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Write prints the rendered table to w
func (t *Table) Write(w io.Writer) error {
	for _, line := range t.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
