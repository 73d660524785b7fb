package tabular

import (
	"math"
	"strconv"
	"strings"

	"creditdash/domain/dataset"
)

// CoercionConfig defines which raw cell texts mean "missing" and which spell booleans
type CoercionConfig struct {
	MissingTokens []string `json:"missing_tokens"`
	TrueTokens    []string `json:"true_tokens"`
	FalseTokens   []string `json:"false_tokens"`
}

// DefaultCoercionConfig returns the NA and boolean spellings pandas-style CSV readers use
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		MissingTokens: []string{
			"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan", "null", "NULL",
			"None", "<NA>", "#N/A", "#NA", "#N/A N/A", "-1.#IND", "1.#IND",
			"-1.#QNAN", "1.#QNAN",
		},
		TrueTokens:  []string{"True", "true", "TRUE"},
		FalseTokens: []string{"False", "false", "FALSE"},
	}
}

// TypeCoercer infers column types and converts raw cells to typed values
type TypeCoercer struct {
	missing map[string]struct{}
	boolean map[string]bool
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	c := &TypeCoercer{
		missing: make(map[string]struct{}, len(config.MissingTokens)),
		boolean: make(map[string]bool, len(config.TrueTokens)+len(config.FalseTokens)),
	}
	for _, tok := range config.MissingTokens {
		c.missing[tok] = struct{}{}
	}
	for _, tok := range config.TrueTokens {
		c.boolean[tok] = true
	}
	for _, tok := range config.FalseTokens {
		c.boolean[tok] = false
	}
	return c
}

// IsMissing reports whether a raw cell denotes an absent value
func (c *TypeCoercer) IsMissing(raw string) bool {
	_, ok := c.missing[strings.TrimSpace(raw)]
	return ok
}

// TypeAnalysis contains the results of type distribution analysis for one column
type TypeAnalysis struct {
	TotalCount      int                `json:"total_count"`
	ValidCount      int                `json:"valid_count"`
	NumericCount    int                `json:"numeric_count"`
	IntegralCount   int                `json:"integral_count"`
	BooleanCount    int                `json:"boolean_count"`
	RecommendedType dataset.ColumnType `json:"recommended_type"`
	DType           string             `json:"dtype"`
}

// AnalyzeTypeDistribution looks at every cell of a column. A column is numeric
// only when every non-missing cell parses as a finite number, boolean only
// when every non-missing cell is a boolean token.
func (c *TypeCoercer) AnalyzeTypeDistribution(cells []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(cells)}

	for _, raw := range cells {
		if c.IsMissing(raw) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.tryParseNumeric(raw); ok {
			analysis.NumericCount++
			// "1.0" and "1e3" are integral values but float-formatted cells
			if _, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
				analysis.IntegralCount++
			}
		}
		if _, ok := c.tryParseBoolean(raw); ok {
			analysis.BooleanCount++
		}
	}

	analysis.RecommendedType, analysis.DType = c.determineRecommendedType(analysis)
	return analysis
}

// InferColumn runs the type-inference pass for one column and returns it typed
func (c *TypeCoercer) InferColumn(name string, cells []string) *dataset.Column {
	analysis := c.AnalyzeTypeDistribution(cells)
	col := &dataset.Column{
		Name:   name,
		Type:   analysis.RecommendedType,
		DType:  analysis.DType,
		Values: make([]dataset.Value, len(cells)),
	}
	for i, raw := range cells {
		col.Values[i] = c.CoerceValue(raw, analysis.RecommendedType)
	}
	return col
}

// CoerceValue converts a raw cell to a value of the column's type
func (c *TypeCoercer) CoerceValue(raw string, colType dataset.ColumnType) dataset.Value {
	if c.IsMissing(raw) {
		return dataset.NewMissingValue()
	}
	switch colType {
	case dataset.ColumnTypeNumeric:
		if f, ok := c.tryParseNumeric(raw); ok {
			return dataset.NewNumericValue(f)
		}
		return dataset.NewMissingValue()
	case dataset.ColumnTypeBoolean:
		if b, ok := c.tryParseBoolean(raw); ok {
			return dataset.NewBooleanValue(b)
		}
		return dataset.NewMissingValue()
	default:
		return dataset.NewStringValue(strings.TrimSpace(raw))
	}
}

// tryParseNumeric accepts plain decimal and scientific notation only
func (c *TypeCoercer) tryParseNumeric(raw string) (float64, bool) {
	clean := strings.TrimSpace(raw)
	if clean == "" || strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		return 0, false
	}
	val, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

func (c *TypeCoercer) tryParseBoolean(raw string) (bool, bool) {
	b, ok := c.boolean[strings.TrimSpace(raw)]
	return b, ok
}

// determineRecommendedType chooses the column type and its display dtype
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) (dataset.ColumnType, string) {
	hasMissing := analysis.ValidCount < analysis.TotalCount

	if analysis.NumericCount == analysis.ValidCount {
		// an all-missing column is numeric, as float64
		if analysis.ValidCount > 0 && !hasMissing && analysis.IntegralCount == analysis.NumericCount {
			return dataset.ColumnTypeNumeric, "int64"
		}
		return dataset.ColumnTypeNumeric, "float64"
	}

	if analysis.BooleanCount == analysis.ValidCount {
		if hasMissing {
			return dataset.ColumnTypeBoolean, "object"
		}
		return dataset.ColumnTypeBoolean, "bool"
	}

	return dataset.ColumnTypeCategorical, "object"
}
