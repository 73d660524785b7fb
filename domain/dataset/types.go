package dataset

import (
	"fmt"
	"math"
	"strconv"

	"creditdash/domain/core"
)

// ColumnType is the semantic type inferred for a column
type ColumnType string

const (
	ColumnTypeNumeric     ColumnType = "numeric"
	ColumnTypeCategorical ColumnType = "categorical"
	ColumnTypeBoolean     ColumnType = "boolean"
)

// SourceKind tells where a dataset came from
type SourceKind string

const (
	SourceKindPath   SourceKind = "path"
	SourceKindUpload SourceKind = "upload"
)

// Source describes the origin of a dataset
type Source struct {
	Kind SourceKind `json:"kind"`
	Name string     `json:"name"` // file name or path as given
	Key  string     `json:"key"`  // source identity used by the loader cache
	Size int64      `json:"size"`
}

// Column is a named, homogeneously typed sequence of cells
type Column struct {
	Name   string     `json:"name"`
	Type   ColumnType `json:"type"`
	DType  string     `json:"dtype"` // display dtype: int64, float64, bool, object
	Values []Value    `json:"-"`
}

// Len returns the number of cells
func (c *Column) Len() int {
	return len(c.Values)
}

// IsNumeric reports whether the column was inferred numeric
func (c *Column) IsNumeric() bool {
	return c.Type == ColumnTypeNumeric
}

// Format renders cell i the way the column's dtype prints it
func (c *Column) Format(i int) string {
	v := c.Values[i]
	if f, ok := v.Float(); ok && c.DType == "float64" && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return v.String()
}

// Dataset is an immutable, in-memory table of equal-length columns
type Dataset struct {
	ID      core.DatasetID `json:"id"`
	Source  Source         `json:"source"`
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a dataset, checking that every column has the same row count
// and that names are unique.
func New(id core.DatasetID, source Source, columns []*Column) (*Dataset, error) {
	ds := &Dataset{
		ID:      id,
		Source:  source,
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if _, dup := ds.index[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", core.ErrMalformedData, col.Name)
		}
		ds.index[col.Name] = i
		if i == 0 {
			ds.rows = col.Len()
			continue
		}
		if col.Len() != ds.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d",
				core.ErrMalformedData, col.Name, col.Len(), ds.rows)
		}
	}
	return ds, nil
}

// NumRows returns the row count
func (d *Dataset) NumRows() int {
	return d.rows
}

// NumColumns returns the column count
func (d *Dataset) NumColumns() int {
	return len(d.columns)
}

// Columns returns the columns in order. Callers must not modify them.
func (d *Dataset) Columns() []*Column {
	return d.columns
}

// ColumnNames returns the column names in order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, col := range d.columns {
		names[i] = col.Name
	}
	return names
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// HasColumn reports whether a column exists
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// NumericColumns returns the numeric columns in order
func (d *Dataset) NumericColumns() []*Column {
	var out []*Column
	for _, col := range d.columns {
		if col.IsNumeric() {
			out = append(out, col)
		}
	}
	return out
}

// Row returns a copy of the cells in row i
func (d *Dataset) Row(i int) []Value {
	row := make([]Value, len(d.columns))
	for j, col := range d.columns {
		row[j] = col.Values[i]
	}
	return row
}

// RowComplete reports whether row i has no missing cell in any column
func (d *Dataset) RowComplete(i int) bool {
	for _, col := range d.columns {
		if col.Values[i].IsMissing() {
			return false
		}
	}
	return true
}

// Select returns a new dataset with the given rows, in the given order. Column
// types and dtypes are carried over from the parent.
func (d *Dataset) Select(rows []int) *Dataset {
	cols := make([]*Column, len(d.columns))
	for j, col := range d.columns {
		values := make([]Value, len(rows))
		for k, r := range rows {
			values[k] = col.Values[r]
		}
		cols[j] = &Column{Name: col.Name, Type: col.Type, DType: col.DType, Values: values}
	}
	index := make(map[string]int, len(d.index))
	for name, i := range d.index {
		index[name] = i
	}
	return &Dataset{ID: d.ID, Source: d.Source, columns: cols, index: index, rows: len(rows)}
}
