// Package matrix builds the course-outcome to program-outcome mapping matrix and
// derives its TOTAL and AVERAGE rows from the editable base cells.
package matrix

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

const (
	// RowTotal and RowAverage are the reserved synthetic rows.
	RowTotal   = "TOTAL"
	RowAverage = "AVERAGE"

	// MaxStrength is the highest strength a base cell accepts; 0 means no mapping.
	MaxStrength = 19
)

var (
	ErrSyntheticRow       = errors.New("synthetic rows are computed and cannot be edited")
	ErrUnknownRow         = errors.New("unknown matrix row")
	ErrUnknownColumn      = errors.New("unknown matrix column")
	ErrStrengthOutOfRange = fmt.Errorf("strength must be between 0 and %d", MaxStrength)
)

// Cell is one (row, column, value) triple with the descriptive text of its
// row and column.
type Cell struct {
	Row               string  `json:"row"`
	Column            string  `json:"column"`
	Value             float64 `json:"value"`
	RowDescription    string  `json:"row_description,omitempty"`
	ColumnDescription string  `json:"column_description,omitempty"`
}

// Header is a row or column label with the description of its first occurrence.
type Header struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Synthetic   bool   `json:"synthetic,omitempty"`
}

type cellKey struct {
	row, column string
}

// Matrix holds the base cells of a mapping matrix. TOTAL and AVERAGE are never
// stored; every read recomputes them from the current base values.
type Matrix struct {
	mu       sync.RWMutex
	rows     []Header
	columns  []Header
	rowIndex map[string]int
	colIndex map[string]int
	values   map[cellKey]float64
}

// IsSynthetic reports whether row is one of the computed summary rows.
func IsSynthetic(row string) bool {
	return row == RowTotal || row == RowAverage
}

// Build creates a matrix from a flat cell list. Labels are deduplicated by first
// occurrence and the first description seen for a label wins. Values given for
// TOTAL or AVERAGE rows are ignored.
func Build(cells []Cell) *Matrix {
	m := &Matrix{
		rowIndex: make(map[string]int),
		colIndex: make(map[string]int),
		values:   make(map[cellKey]float64),
	}

	var po, pso, other []Header
	seenCols := make(map[string]bool)
	synthetic := make(map[string]Header)

	for _, c := range cells {
		if IsSynthetic(c.Row) {
			if _, ok := synthetic[c.Row]; !ok {
				synthetic[c.Row] = Header{Label: c.Row, Description: c.RowDescription, Synthetic: true}
			}
		} else if _, ok := m.rowIndex[c.Row]; !ok {
			m.rowIndex[c.Row] = len(m.rows)
			m.rows = append(m.rows, Header{Label: c.Row, Description: c.RowDescription})
		}

		if !seenCols[c.Column] {
			seenCols[c.Column] = true
			h := Header{Label: c.Column, Description: c.ColumnDescription}
			switch columnGroup(c.Column) {
			case groupPO:
				po = append(po, h)
			case groupPSO:
				pso = append(pso, h)
			default:
				other = append(other, h)
			}
		}

		if IsSynthetic(c.Row) {
			continue
		}
		key := cellKey{c.Row, c.Column}
		if _, dup := m.values[key]; !dup {
			m.values[key] = c.Value
		}
	}

	m.columns = append(append(append(m.columns, po...), pso...), other...)
	for i, h := range m.columns {
		m.colIndex[h.Label] = i
	}

	for _, label := range []string{RowTotal, RowAverage} {
		h, ok := synthetic[label]
		if !ok {
			h = Header{Label: label, Synthetic: true}
		}
		m.rows = append(m.rows, h)
	}
	return m
}

type group int

const (
	groupPO group = iota
	groupPSO
	groupOther
)

func columnGroup(label string) group {
	upper := strings.ToUpper(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(upper, "PSO"):
		return groupPSO
	case strings.HasPrefix(upper, "PO"):
		return groupPO
	}
	return groupOther
}

// Rows returns base rows in first-seen order followed by TOTAL and AVERAGE.
func (m *Matrix) Rows() []Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Header(nil), m.rows...)
}

// BaseRows returns the row labels that hold editable cells.
func (m *Matrix) BaseRows() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseRowsLocked()
}

func (m *Matrix) baseRowsLocked() []string {
	labels := make([]string, 0, len(m.rows))
	for _, h := range m.rows {
		if !h.Synthetic {
			labels = append(labels, h.Label)
		}
	}
	return labels
}

// Columns returns PO columns then PSO columns, each in first-seen order.
func (m *Matrix) Columns() []Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Header(nil), m.columns...)
}

// ValueOf returns the value shown at (row, column).
func (m *Matrix) ValueOf(row, column string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.valueLocked(row, column)
}

func (m *Matrix) valueLocked(row, column string) float64 {
	switch row {
	case RowTotal:
		return m.totalLocked(column)
	case RowAverage:
		base := len(m.baseRowsLocked())
		if base < 1 {
			base = 1
		}
		avg := m.totalLocked(column) / float64(base)
		avg = math.Round(avg*10) / 10
		if math.IsNaN(avg) || math.IsInf(avg, 0) {
			return 0
		}
		return avg
	}
	return m.values[cellKey{row, column}]
}

func (m *Matrix) totalLocked(column string) float64 {
	var sum float64
	for _, row := range m.baseRowsLocked() {
		sum += m.values[cellKey{row, column}]
	}
	return sum
}

// SetStrength edits a base cell. The row and column must already exist.
func (m *Matrix) SetStrength(row, column string, strength int) error {
	if IsSynthetic(row) {
		return ErrSyntheticRow
	}
	if strength < 0 || strength > MaxStrength {
		return ErrStrengthOutOfRange
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rowIndex[row]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, row)
	}
	if _, ok := m.colIndex[column]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	m.values[cellKey{row, column}] = float64(strength)
	return nil
}

// Cells returns the current base cells in row-major display order, including
// zero cells, so the result can be fed back to Build.
func (m *Matrix) Cells() []Cell {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cells []Cell
	for _, r := range m.rows {
		if r.Synthetic {
			continue
		}
		for _, c := range m.columns {
			cells = append(cells, Cell{
				Row:               r.Label,
				Column:            c.Label,
				Value:             m.values[cellKey{r.Label, c.Label}],
				RowDescription:    r.Description,
				ColumnDescription: c.Description,
			})
		}
	}
	return cells
}

// View is a rendered snapshot of the matrix.
type View struct {
	Columns []Header  `json:"columns"`
	Rows    []ViewRow `json:"rows"`
}

// ViewRow is one rendered row; Values is aligned with View.Columns.
type ViewRow struct {
	Header
	Editable bool      `json:"editable"`
	Values   []float64 `json:"values"`
}

// View renders every row, including the recomputed summary rows.
func (m *Matrix) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v := View{
		Columns: append([]Header{}, m.columns...),
		Rows:    make([]ViewRow, 0, len(m.rows)),
	}
	for _, r := range m.rows {
		row := ViewRow{Header: r, Editable: !r.Synthetic, Values: make([]float64, len(m.columns))}
		for i, c := range m.columns {
			row.Values[i] = m.valueLocked(r.Label, c.Label)
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
