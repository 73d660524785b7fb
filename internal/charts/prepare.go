package charts

import (
	"encoding/json"
	"errors"
	"math"

	"creditdash/domain/dataset"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoNumericData means there is nothing to correlate: no numeric column,
	// or no row without absent cells
	ErrNoNumericData = errors.New("no numeric data")
	// ErrColumnUnavailable means the requested column is absent or not numeric
	ErrColumnUnavailable = errors.New("column unavailable")
)

// CompleteRows returns the indices of rows with no absent cell in any column
func CompleteRows(ds *dataset.Dataset) []int {
	rows := make([]int, 0, ds.NumRows())
	for i := 0; i < ds.NumRows(); i++ {
		if ds.RowComplete(i) {
			rows = append(rows, i)
		}
	}
	return rows
}

// PrepareDistribution returns the values of a numeric column over the
// complete rows of ds
func PrepareDistribution(ds *dataset.Dataset, column string) ([]float64, error) {
	col, ok := ds.Column(column)
	if !ok || !col.IsNumeric() {
		return nil, ErrColumnUnavailable
	}
	rows := CompleteRows(ds)
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		f, _ := col.Values[r].Float()
		values = append(values, f)
	}
	return values, nil
}

// Matrix is a square correlation matrix labelled by column name
type Matrix struct {
	Columns []string
	Rows    int // complete rows the coefficients were computed from
	data    *mat.SymDense
}

// Size returns the number of columns
func (m *Matrix) Size() int {
	return len(m.Columns)
}

// At returns the coefficient between columns i and j. NaN when undefined.
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// PrepareCorrelationMatrix computes pairwise Pearson coefficients between the
// numeric columns of ds, using only rows with no absent cell in any column.
// Coefficients involving a constant column are NaN.
func PrepareCorrelationMatrix(ds *dataset.Dataset) (*Matrix, error) {
	numeric := ds.NumericColumns()
	rows := CompleteRows(ds)
	if len(numeric) == 0 || len(rows) == 0 {
		return nil, ErrNoNumericData
	}

	k := len(numeric)
	x := mat.NewDense(len(rows), k, nil)
	constant := make([]bool, k)
	for j, col := range numeric {
		first, _ := col.Values[rows[0]].Float()
		constant[j] = true
		for i, r := range rows {
			f, _ := col.Values[r].Float()
			x.Set(i, j, f)
			if f != first {
				constant[j] = false
			}
		}
	}

	corr := mat.NewSymDense(k, nil)
	if len(rows) > 1 {
		stat.CorrelationMatrix(corr, x, nil)
	}
	for j := 0; j < k; j++ {
		if len(rows) > 1 && !constant[j] {
			continue
		}
		for i := 0; i < k; i++ {
			corr.SetSym(i, j, math.NaN())
		}
	}

	names := make([]string, k)
	for j, col := range numeric {
		names[j] = col.Name
	}
	return &Matrix{Columns: names, Rows: len(rows), data: corr}, nil
}

// MarshalJSON writes the matrix as column names plus nested rows, with
// undefined coefficients as null
func (m *Matrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, m.Size())
	for i := range values {
		values[i] = make([]*float64, m.Size())
		for j := range values[i] {
			if v := m.At(i, j); !math.IsNaN(v) {
				values[i][j] = &v
			}
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Rows    int          `json:"rows"`
		Values  [][]*float64 `json:"values"`
	}{m.Columns, m.Rows, values})
}
