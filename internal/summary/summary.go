package summary

import (
	"encoding/json"
	"math"
	"sort"

	"creditdash/domain/dataset"

	"github.com/montanaflynn/stats"
)

// NumericStats describes a numeric column. Every field except Count is NaN
// when the column has no values; Std is NaN below two values.
type NumericStats struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	P25   float64
	P50   float64
	P75   float64
	Max   float64
}

// CategoricalStats describes a non-numeric column
type CategoricalStats struct {
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top,omitempty"`
	Freq   int    `json:"freq"`
}

// ColumnSummary is one column of the report. Exactly one of Numeric and
// Categorical is set.
type ColumnSummary struct {
	Name        string             `json:"name"`
	Type        dataset.ColumnType `json:"type"`
	DType       string             `json:"dtype"`
	Numeric     *NumericStats      `json:"numeric,omitempty"`
	Categorical *CategoricalStats  `json:"categorical,omitempty"`
}

// Report holds descriptive statistics for every column
type Report struct {
	Rows    int             `json:"rows"`
	Columns []ColumnSummary `json:"columns"`
}

// Summarize computes the report for ds
func Summarize(ds *dataset.Dataset) *Report {
	report := &Report{Rows: ds.NumRows(), Columns: make([]ColumnSummary, 0, ds.NumColumns())}
	for _, col := range ds.Columns() {
		cs := ColumnSummary{Name: col.Name, Type: col.Type, DType: col.DType}
		if col.IsNumeric() {
			cs.Numeric = Numeric(values(col))
		} else {
			cs.Categorical = Categorical(col.Values)
		}
		report.Columns = append(report.Columns, cs)
	}
	return report
}

// NumericColumns returns the summaries of numeric columns in order
func (r *Report) NumericColumns() []ColumnSummary {
	var out []ColumnSummary
	for _, c := range r.Columns {
		if c.Numeric != nil {
			out = append(out, c)
		}
	}
	return out
}

func values(col *dataset.Column) []float64 {
	data := make([]float64, 0, col.Len())
	for _, v := range col.Values {
		if f, ok := v.Float(); ok {
			data = append(data, f)
		}
	}
	return data
}

// Numeric computes count, mean, sample standard deviation and quartiles
func Numeric(data []float64) *NumericStats {
	nan := math.NaN()
	s := &NumericStats{Count: len(data), Mean: nan, Std: nan, Min: nan, P25: nan, P50: nan, P75: nan, Max: nan}
	if len(data) == 0 {
		return s
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	s.Mean, _ = stats.Mean(sorted)
	s.Min, _ = stats.Min(sorted)
	s.Max, _ = stats.Max(sorted)
	if len(sorted) > 1 {
		s.Std, _ = stats.StandardDeviationSample(sorted)
	}
	s.P25 = Quantile(sorted, 0.25)
	s.P50 = Quantile(sorted, 0.50)
	s.P75 = Quantile(sorted, 0.75)
	return s
}

// Quantile interpolates linearly between order statistics at h = (n-1)q.
// sorted must be in ascending order.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * q
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	frac := h - lo
	a, b := sorted[i], sorted[i+1]
	if d := b - a; !math.IsInf(d, 0) {
		return a + frac*d
	}
	// the gap overflows for values near ±MaxFloat64; weight the ends instead
	return a*(1-frac) + b*frac
}

// Categorical counts non-missing values and finds the most frequent one.
// Ties go to the value seen first.
func Categorical(vals []dataset.Value) *CategoricalStats {
	s := &CategoricalStats{}
	counts := make(map[string]int)
	var order []dataset.Value
	for _, v := range vals {
		if v.IsMissing() {
			continue
		}
		s.Count++
		k := v.Key()
		if counts[k] == 0 {
			order = append(order, v)
		}
		counts[k]++
	}
	s.Unique = len(order)
	for _, v := range order {
		if c := counts[v.Key()]; c > s.Freq {
			s.Top, s.Freq = v.String(), c
		}
	}
	return s
}

// MarshalJSON writes NaN statistics as null. A statistic that overflowed
// float64, such as the std of values near ±MaxFloat64, is written as the
// string "Infinity" or "-Infinity" so it stays distinct from undefined.
func (s NumericStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Count int       `json:"count"`
		Mean  jsonFloat `json:"mean"`
		Std   jsonFloat `json:"std"`
		Min   jsonFloat `json:"min"`
		P25   jsonFloat `json:"25%"`
		P50   jsonFloat `json:"50%"`
		P75   jsonFloat `json:"75%"`
		Max   jsonFloat `json:"max"`
	}{s.Count, jsonFloat(s.Mean), jsonFloat(s.Std), jsonFloat(s.Min), jsonFloat(s.P25), jsonFloat(s.P50), jsonFloat(s.P75), jsonFloat(s.Max)})
}

type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(v)
}
