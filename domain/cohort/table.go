package cohort

import (
	"fmt"
	"strings"

	"ecttool/domain/core"
)

// Table is a read-only cohort: one row per patient. Filtering returns new
// tables sharing the same rows; nothing here mutates a row after New.
type Table struct {
	headers []string
	index   map[string]int
	rows    []Row
}

// New builds a table from headers and rows, validating the cells of every
// endpoint whose columns are present.
func New(headers []string, rows []Row, endpoints ...Endpoint) (*Table, error) {
	index := make(map[string]int, len(headers))
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, core.NewInvalidInputError("header", fmt.Sprintf("column %d has no name", i+1))
		}
		if _, dup := index[h]; dup {
			return nil, core.NewInvalidInputError("header", fmt.Sprintf("duplicate column %q", h))
		}
		index[h] = i
		cleaned[i] = h
	}

	owned := make([]Row, len(rows))
	for i, r := range rows {
		row := make(Row, len(cleaned))
		for _, h := range cleaned {
			row[h] = strings.TrimSpace(r[h])
		}
		owned[i] = row
	}

	t := &Table{headers: cleaned, index: index, rows: owned}
	for _, ep := range endpoints {
		if err := t.validateEndpoint(ep); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) validateEndpoint(ep Endpoint) error {
	if t.HasColumn(ep.TimeColumn) {
		for i, row := range t.rows {
			if _, _, err := ParseTime(row[ep.TimeColumn]); err != nil {
				return core.NewInvalidInputError(ep.TimeColumn,
					fmt.Sprintf("row %d: %q is not a non-negative number", i+1, row[ep.TimeColumn]))
			}
		}
	}
	if t.HasColumn(ep.StatusColumn) {
		for i, row := range t.rows {
			if _, _, err := ParseStatus(row[ep.StatusColumn]); err != nil {
				return core.NewInvalidInputError(ep.StatusColumn,
					fmt.Sprintf("row %d: %q is not a binary status", i+1, row[ep.StatusColumn]))
			}
		}
	}
	return nil
}

// Len returns the number of patients.
func (t *Table) Len() int {
	return len(t.rows)
}

// Headers returns a copy of the column names in file order.
func (t *Table) Headers() []string {
	out := make([]string, len(t.headers))
	copy(out, t.headers)
	return out
}

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Where returns the rows whose column equals value.
func (t *Table) Where(column, value string) *Table {
	sub := &Table{headers: t.headers, index: t.index}
	for _, row := range t.rows {
		if row[column] == value {
			sub.rows = append(sub.rows, row)
		}
	}
	return sub
}

// Count returns how many rows carry value in column.
func (t *Table) Count(column, value string) int {
	n := 0
	for _, row := range t.rows {
		if row[column] == value {
			n++
		}
	}
	return n
}

// Distinct returns the non-missing values of a column in first-seen order.
func (t *Table) Distinct(column string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range t.rows {
		v := row[column]
		if IsMissing(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// WithEndpoint keeps the rows with both endpoint cells present.
func (t *Table) WithEndpoint(ep Endpoint) *Table {
	sub := &Table{headers: t.headers, index: t.index}
	for _, row := range t.rows {
		if IsMissing(row[ep.TimeColumn]) || IsMissing(row[ep.StatusColumn]) {
			continue
		}
		sub.rows = append(sub.rows, row)
	}
	return sub
}

// Observations extracts durations and event flags for the rows with both
// endpoint cells present.
func (t *Table) Observations(ep Endpoint) ([]float64, []bool, error) {
	durations, _, events, err := t.observe(ep, "")
	return durations, events, err
}

// GroupedObservations is Observations plus the value of groupColumn for each
// kept row.
func (t *Table) GroupedObservations(ep Endpoint, groupColumn string) ([]float64, []string, []bool, error) {
	if !t.HasColumn(groupColumn) {
		return nil, nil, nil, core.NewUnknownCategoryError("column", groupColumn)
	}
	return t.observe(ep, groupColumn)
}

func (t *Table) observe(ep Endpoint, groupColumn string) ([]float64, []string, []bool, error) {
	if !t.HasColumn(ep.TimeColumn) {
		return nil, nil, nil, core.NewUnknownCategoryError("column", ep.TimeColumn)
	}
	if !t.HasColumn(ep.StatusColumn) {
		return nil, nil, nil, core.NewUnknownCategoryError("column", ep.StatusColumn)
	}

	durations := make([]float64, 0, len(t.rows))
	events := make([]bool, 0, len(t.rows))
	var groups []string
	for i, row := range t.rows {
		d, okT, err := ParseTime(row[ep.TimeColumn])
		if err != nil {
			return nil, nil, nil, core.NewInvalidInputError(ep.TimeColumn, fmt.Sprintf("row %d: %v", i+1, err))
		}
		e, okS, err := ParseStatus(row[ep.StatusColumn])
		if err != nil {
			return nil, nil, nil, core.NewInvalidInputError(ep.StatusColumn, fmt.Sprintf("row %d: %v", i+1, err))
		}
		if !okT || !okS {
			continue
		}
		durations = append(durations, d)
		events = append(events, e)
		if groupColumn != "" {
			groups = append(groups, row[groupColumn])
		}
	}
	return durations, groups, events, nil
}
