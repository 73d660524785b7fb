package filter

import (
	"math"
	"net/url"
	"strconv"

	"creditdash/domain/dataset"
)

// ControlKind is the widget type used for a column
type ControlKind string

const (
	ControlRange       ControlKind = "range"
	ControlSelect      ControlKind = "select"
	ControlMultiSelect ControlKind = "multiselect"
)

// Control declares a filter widget for an optional column
type Control struct {
	Column string
	Label  string
	Kind   ControlKind
}

// Controls is an ordered list of control descriptors
type Controls []Control

// DefaultControls are the credit-risk dashboard's filter widgets
func DefaultControls() Controls {
	return Controls{
		{Column: "age", Label: "Age Range", Kind: ControlRange},
		{Column: "monthly_inc", Label: "Monthly Income Range", Kind: ControlRange},
		{Column: "real_estate", Label: "Has Real Estate?", Kind: ControlSelect},
		{Column: "dependents", Label: "Number of Dependents", Kind: ControlMultiSelect},
	}
}

// Option is one selectable value of a select or multiselect widget
type Option struct {
	Label string
	Value dataset.Value
}

// Widget is a control bound to the domain it has in a particular dataset
type Widget struct {
	Control
	Min, Max float64  // range
	Options  []Option // select, multiselect
}

// Resolve keeps the controls whose column exists in ds and attaches their
// domain. Range controls also need at least one numeric value; select
// controls need at least one option.
func (c Controls) Resolve(ds *dataset.Dataset) []Widget {
	var widgets []Widget
	for _, ctl := range c {
		col, ok := ds.Column(ctl.Column)
		if !ok {
			continue
		}
		w := Widget{Control: ctl}
		switch ctl.Kind {
		case ControlRange:
			lo, hi, ok := RangeBounds(ds, ctl.Column)
			if !ok {
				continue
			}
			w.Min, w.Max = lo, hi
		case ControlSelect, ControlMultiSelect:
			w.Options = distinctOptions(col)
			if ctl.Kind == ControlSelect && len(w.Options) == 0 {
				continue
			}
		default:
			continue
		}
		widgets = append(widgets, w)
	}
	return widgets
}

// Predicates resolves the controls against ds and converts the widget state
// in sel into predicates
func (c Controls) Predicates(ds *dataset.Dataset, sel Selection) []Predicate {
	return Predicates(Bind(c.Resolve(ds), sel))
}

func distinctOptions(col *dataset.Column) []Option {
	seen := make(map[string]struct{})
	var opts []Option
	for _, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		k := v.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		opts = append(opts, Option{Label: v.String(), Value: v})
	}
	return opts
}

// Selection is submitted widget state. Columns without an entry use the
// widget default: full range, first option, or every option.
type Selection struct {
	Ranges map[string][2]float64
	Choice map[string]string
	Multi  map[string][]string
}

// ParseSelection reads widget state from query parameters: <col>_min and
// <col>_max for ranges, <col> for selects, repeated <col> for multiselects.
// A multiselect the user emptied is sent as <col>_touched=1 with no values.
func ParseSelection(q url.Values, widgets []Widget) Selection {
	sel := Selection{
		Ranges: map[string][2]float64{},
		Choice: map[string]string{},
		Multi:  map[string][]string{},
	}
	for _, w := range widgets {
		switch w.Kind {
		case ControlRange:
			lo, hi := w.Min, w.Max
			set := false
			if f, err := strconv.ParseFloat(q.Get(w.Column+"_min"), 64); err == nil && !math.IsNaN(f) {
				lo, set = f, true
			}
			if f, err := strconv.ParseFloat(q.Get(w.Column+"_max"), 64); err == nil && !math.IsNaN(f) {
				hi, set = f, true
			}
			if set {
				sel.Ranges[w.Column] = [2]float64{lo, hi}
			}
		case ControlSelect:
			if q.Has(w.Column) {
				sel.Choice[w.Column] = q.Get(w.Column)
			}
		case ControlMultiSelect:
			if vals, ok := q[w.Column]; ok {
				sel.Multi[w.Column] = vals
			} else if q.Get(w.Column+"_touched") == "1" {
				sel.Multi[w.Column] = []string{}
			}
		}
	}
	return sel
}

// Binding is a widget with its current value
type Binding struct {
	Widget
	Lo, Hi float64
	Chosen []Option
}

// IsChosen reports whether an option is currently selected, for rendering
func (b Binding) IsChosen(label string) bool {
	for _, o := range b.Chosen {
		if o.Label == label {
			return true
		}
	}
	return false
}

// Bind applies sel over the widgets' defaults
func Bind(widgets []Widget, sel Selection) []Binding {
	out := make([]Binding, 0, len(widgets))
	for _, w := range widgets {
		b := Binding{Widget: w}
		switch w.Kind {
		case ControlRange:
			b.Lo, b.Hi = w.Min, w.Max
			if r, ok := sel.Ranges[w.Column]; ok {
				b.Lo = clamp(r[0], w.Min, w.Max)
				b.Hi = clamp(r[1], w.Min, w.Max)
				if b.Lo > b.Hi {
					b.Lo, b.Hi = b.Hi, b.Lo
				}
			}
		case ControlSelect:
			b.Chosen = w.Options[:1]
			if label, ok := sel.Choice[w.Column]; ok {
				for _, o := range w.Options {
					if o.Label == label {
						b.Chosen = []Option{o}
						break
					}
				}
			}
		case ControlMultiSelect:
			b.Chosen = w.Options
			if labels, ok := sel.Multi[w.Column]; ok {
				want := make(map[string]struct{}, len(labels))
				for _, l := range labels {
					want[l] = struct{}{}
				}
				b.Chosen = nil
				for _, o := range w.Options {
					if _, hit := want[o.Label]; hit {
						b.Chosen = append(b.Chosen, o)
					}
				}
			}
		}
		out = append(out, b)
	}
	return out
}

// Predicate converts the bound widget into a filter predicate
func (b Binding) Predicate() Predicate {
	switch b.Kind {
	case ControlRange:
		return NumericRange(b.Column, b.Lo, b.Hi)
	case ControlSelect:
		return Equals(b.Column, b.Chosen[0].Value)
	default:
		set := make([]dataset.Value, len(b.Chosen))
		for i, o := range b.Chosen {
			set[i] = o.Value
		}
		return In(b.Column, set)
	}
}

// Predicates converts every binding
func Predicates(bindings []Binding) []Predicate {
	preds := make([]Predicate, len(bindings))
	for i, b := range bindings {
		preds[i] = b.Predicate()
	}
	return preds
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
