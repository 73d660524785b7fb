package main

import (
	"fmt"
	"strconv"
	"strings"

	"creditdash/domain/dataset"
	"creditdash/internal/errors"
	"creditdash/internal/filter"
)

// parsePredicates turns --range, --eq and --in flag values into predicates
// over ds. Every referenced column must exist.
func parsePredicates(ds *dataset.Dataset, ranges, equals, sets []string) ([]filter.Predicate, error) {
	var preds []filter.Predicate

	for _, flagVal := range ranges {
		col, arg, err := splitAssignment(ds, "range", flagVal)
		if err != nil {
			return nil, err
		}
		lo, hi, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("--range %q: want COLUMN=MIN:MAX", flagVal))
		}
		min, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("--range %q: bad minimum", flagVal))
		}
		max, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("--range %q: bad maximum", flagVal))
		}
		if min > max {
			min, max = max, min
		}
		preds = append(preds, filter.NumericRange(col.Name, min, max))
	}

	for _, flagVal := range equals {
		col, arg, err := splitAssignment(ds, "eq", flagVal)
		if err != nil {
			return nil, err
		}
		preds = append(preds, filter.Equals(col.Name, resolveValue(col, arg)))
	}

	for _, flagVal := range sets {
		col, arg, err := splitAssignment(ds, "in", flagVal)
		if err != nil {
			return nil, err
		}
		var members []dataset.Value
		if arg != "" {
			for _, part := range strings.Split(arg, ",") {
				members = append(members, resolveValue(col, strings.TrimSpace(part)))
			}
		}
		preds = append(preds, filter.In(col.Name, members))
	}
	return preds, nil
}

func splitAssignment(ds *dataset.Dataset, flag, flagVal string) (*dataset.Column, string, error) {
	name, arg, ok := strings.Cut(flagVal, "=")
	if !ok || name == "" {
		return nil, "", errors.InvalidInput(fmt.Sprintf("--%s %q: want COLUMN=VALUE", flag, flagVal))
	}
	col, found := ds.Column(name)
	if !found {
		return nil, "", errors.NotFound(fmt.Sprintf("column %s", name))
	}
	return col, arg, nil
}

// resolveValue finds the column value whose display text is text, so "1"
// matches a numeric 1 and "True" a boolean. Unmatched text is parsed by the
// column's type, which then simply matches no row.
func resolveValue(col *dataset.Column, text string) dataset.Value {
	for _, v := range col.Values {
		if !v.IsMissing() && v.String() == text {
			return v
		}
	}
	if col.IsNumeric() {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return dataset.NewNumericValue(f)
		}
	}
	return dataset.NewStringValue(text)
}
