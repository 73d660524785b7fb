package filter

import (
	"fmt"
	"strings"

	"creditdash/domain/dataset"
)

// Kind identifies the shape of a predicate
type Kind string

const (
	KindRange  Kind = "range"
	KindEquals Kind = "equals"
	KindIn     Kind = "in"
)

// Predicate is a single condition over one column
type Predicate struct {
	Kind   Kind
	Column string

	Min, Max float64         // KindRange, inclusive
	Value    dataset.Value   // KindEquals
	Set      []dataset.Value // KindIn

	members map[string]struct{}
}

// NumericRange keeps rows where min <= value <= max
func NumericRange(column string, min, max float64) Predicate {
	return Predicate{Kind: KindRange, Column: column, Min: min, Max: max}
}

// Equals keeps rows whose value equals v exactly
func Equals(column string, v dataset.Value) Predicate {
	return Predicate{Kind: KindEquals, Column: column, Value: v}
}

// In keeps rows whose value is a member of set. An empty set matches nothing.
func In(column string, set []dataset.Value) Predicate {
	members := make(map[string]struct{}, len(set))
	for _, v := range set {
		if !v.IsMissing() {
			members[v.Key()] = struct{}{}
		}
	}
	return Predicate{Kind: KindIn, Column: column, Set: set, members: members}
}

// Match evaluates the predicate against one cell
func (p Predicate) Match(v dataset.Value) bool {
	if v.IsMissing() {
		return false
	}
	switch p.Kind {
	case KindRange:
		f, ok := v.Float()
		return ok && p.Min <= f && f <= p.Max
	case KindEquals:
		return v.Equal(p.Value)
	case KindIn:
		if p.members == nil {
			return false
		}
		_, ok := p.members[v.Key()]
		return ok
	}
	return false
}

func (p Predicate) String() string {
	switch p.Kind {
	case KindRange:
		return fmt.Sprintf("%s in [%g, %g]", p.Column, p.Min, p.Max)
	case KindEquals:
		return fmt.Sprintf("%s == %s", p.Column, p.Value)
	case KindIn:
		parts := make([]string, len(p.Set))
		for i, v := range p.Set {
			parts[i] = v.String()
		}
		return fmt.Sprintf("%s in {%s}", p.Column, strings.Join(parts, ", "))
	}
	return string(p.Kind)
}
