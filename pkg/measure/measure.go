// Package measure reconciles externally computed per-object feature tables
// against the label set of a plane. Tables are keyed by object label with
// named feature columns; alignment fills in missing objects, drops
// duplicates and unknown objects, and fails hard when the result still does
// not match the plane's labels.
package measure

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"slices"
)

var columnNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// InvalidColumnNameError reports a column name outside the allowed
// character set (alphanumeric, underscore, hyphen).
type InvalidColumnNameError struct {
	Name string
}

func (e *InvalidColumnNameError) Error() string {
	return fmt.Sprintf("invalid column name %q: must match %s", e.Name, columnNamePattern)
}

// DuplicateColumnNameError reports a column name used more than once.
type DuplicateColumnNameError struct {
	Name string
}

func (e *DuplicateColumnNameError) Error() string {
	return fmt.Sprintf("duplicate column name %q", e.Name)
}

// LabelMismatchError reports that a table could not be reconciled to the
// plane's label set after applying every recovery rule. It indicates a
// contract violation by the upstream feature producer and is not retried.
type LabelMismatchError struct {
	Got  []int32
	Want []int32
}

func (e *LabelMismatchError) Error() string {
	return fmt.Sprintf("table labels %v do not match plane labels %v", e.Got, e.Want)
}

// Table is one per-timepoint feature table: rows keyed by object label,
// columns named features. Column names are validated at construction.
type Table struct {
	columns []string
	labels  []int32
	rows    [][]float64
}

// NewTable creates an empty table with the given feature columns. Column
// names must match the allowed character set and be pairwise unique; a
// violation is a construction-time error.
func NewTable(columns []string) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		if !columnNamePattern.MatchString(name) {
			return nil, &InvalidColumnNameError{Name: name}
		}
		if seen[name] {
			return nil, &DuplicateColumnNameError{Name: name}
		}
		seen[name] = true
	}
	return &Table{columns: slices.Clone(columns)}, nil
}

// AppendRow adds a row of feature values for the given label. The value
// count must match the column count.
func (t *Table) AppendRow(label int32, values []float64) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row for label %d has %d values, want %d", label, len(values), len(t.columns))
	}
	t.labels = append(t.labels, label)
	t.rows = append(t.rows, slices.Clone(values))
	return nil
}

// Columns returns the feature column names.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Labels returns the row labels in row order.
func (t *Table) Labels() []int32 {
	return slices.Clone(t.labels)
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []float64 {
	return slices.Clone(t.rows[i])
}

// Value returns the value for a label and column name, or an error if
// either does not exist. When a label appears more than once the first
// occurrence wins.
func (t *Table) Value(label int32, column string) (float64, error) {
	col := slices.Index(t.columns, column)
	if col < 0 {
		return 0, fmt.Errorf("no column %q", column)
	}
	row := slices.Index(t.labels, label)
	if row < 0 {
		return 0, fmt.Errorf("no row for label %d", label)
	}
	return t.rows[row][col], nil
}

// Align reconciles the table against the sorted label set of a plane and
// returns a new table whose rows exactly match that label sequence.
//
// Recovery rules, applied in order:
//   - duplicate labels: only the first occurrence of each is kept
//     (input order);
//   - unknown labels (not in the plane's label set): their rows are
//     dropped;
//   - missing labels: a row of NaN values is added for each, and the
//     result is re-sorted ascending by label.
//
// If the reconciled rows still do not equal the label sequence (e.g. the
// upstream producer supplied rows out of ascending order), the data
// contract is broken and a LabelMismatchError is returned. verbose enables
// warning diagnostics for each applied rule.
func (t *Table) Align(labels []int32, verbose bool) (*Table, error) {
	warnf := func(format string, args ...interface{}) {
		if verbose {
			log.Printf("Warning: "+format, args...)
		}
	}

	out := &Table{
		columns: slices.Clone(t.columns),
		labels:  slices.Clone(t.labels),
	}
	out.rows = make([][]float64, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = slices.Clone(row)
	}

	if hasDuplicates(out.labels) {
		warnf("table has duplicate labels, keeping first occurrence of each")
		out.dropDuplicates()
	}

	known := make(map[int32]bool, len(labels))
	for _, l := range labels {
		known[l] = true
	}
	if slices.ContainsFunc(out.labels, func(l int32) bool { return !known[l] }) {
		warnf("table has labels not present in the plane, dropping their rows")
		out.filter(func(label int32) bool { return known[label] })
	}

	if len(out.rows) < len(labels) {
		present := make(map[int32]bool, len(out.labels))
		for _, l := range out.labels {
			present[l] = true
		}
		for _, label := range labels {
			if !present[label] {
				warnf("adding NaN values for missing object #%d", label)
				nan := make([]float64, len(out.columns))
				for i := range nan {
					nan[i] = math.NaN()
				}
				out.labels = append(out.labels, label)
				out.rows = append(out.rows, nan)
			}
		}
		out.sortByLabel()
	}

	if !slices.Equal(out.labels, labels) {
		return nil, &LabelMismatchError{Got: slices.Clone(out.labels), Want: slices.Clone(labels)}
	}
	return out, nil
}

// sortByLabel stably sorts rows ascending by label.
func (t *Table) sortByLabel() {
	order := make([]int, len(t.labels))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return int(t.labels[a] - t.labels[b])
	})
	labels := make([]int32, len(order))
	rows := make([][]float64, len(order))
	for i, j := range order {
		labels[i] = t.labels[j]
		rows[i] = t.rows[j]
	}
	t.labels = labels
	t.rows = rows
}

// dropDuplicates keeps the first occurrence of each label in input order.
func (t *Table) dropDuplicates() {
	seen := make(map[int32]bool, len(t.labels))
	t.filter(func(label int32) bool {
		if seen[label] {
			return false
		}
		seen[label] = true
		return true
	})
}

// filter keeps only the rows whose label satisfies keep, preserving order.
// keep is invoked once per row in row order.
func (t *Table) filter(keep func(label int32) bool) {
	labels := t.labels[:0]
	rows := t.rows[:0]
	for i, label := range t.labels {
		if keep(label) {
			labels = append(labels, label)
			rows = append(rows, t.rows[i])
		}
	}
	t.labels = labels
	t.rows = rows
}

func hasDuplicates(labels []int32) bool {
	seen := make(map[int32]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return true
		}
		seen[l] = true
	}
	return false
}
