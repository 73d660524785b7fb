package filter

import (
	"math"

	"creditdash/domain/dataset"
)

// View is a read-only subset of a dataset's rows, kept as row indices into
// the base dataset. Row order follows the base.
type View struct {
	base *dataset.Dataset
	rows []int
}

// All returns a view over every row of ds
func All(ds *dataset.Dataset) *View {
	rows := make([]int, ds.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return &View{base: ds, rows: rows}
}

// Base returns the dataset the view indexes into
func (v *View) Base() *dataset.Dataset {
	return v.base
}

// Len returns the number of rows in the view
func (v *View) Len() int {
	return len(v.rows)
}

// RowIndices returns the base row indices in order. Callers must not modify it.
func (v *View) RowIndices() []int {
	return v.rows
}

// Materialize copies the view's rows into a standalone dataset
func (v *View) Materialize() *dataset.Dataset {
	return v.base.Select(v.rows)
}

// Apply returns the rows of ds satisfying every predicate whose column exists
// in ds. Predicates on absent columns are skipped.
func Apply(ds *dataset.Dataset, preds []Predicate) *View {
	return ApplyView(All(ds), preds)
}

// ApplyView narrows an existing view further
func ApplyView(view *View, preds []Predicate) *View {
	type bound struct {
		pred Predicate
		col  *dataset.Column
	}
	active := make([]bound, 0, len(preds))
	for _, p := range preds {
		col, ok := view.base.Column(p.Column)
		if !ok {
			continue
		}
		active = append(active, bound{pred: p, col: col})
	}

	out := make([]int, 0, len(view.rows))
	for _, r := range view.rows {
		keep := true
		for _, b := range active {
			if !b.pred.Match(b.col.Values[r]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return &View{base: view.base, rows: out}
}

// RangeBounds returns floor(min) and ceil(max) of a column's numeric values.
// ok is false when the column is absent or holds no numeric value. Always pass
// the loaded dataset, never a filtered copy, so widgets span the full range.
func RangeBounds(ds *dataset.Dataset, column string) (lo, hi float64, ok bool) {
	col, found := ds.Column(column)
	if !found {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range col.Values {
		f, isNum := v.Float()
		if !isNum {
			continue
		}
		ok = true
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	if !ok {
		return 0, 0, false
	}
	return math.Floor(lo), math.Ceil(hi), true
}
