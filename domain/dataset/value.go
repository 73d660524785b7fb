package dataset

import (
	"encoding/json"
	"math"
	"strconv"
)

// ValueType defines the storage type of a single cell
type ValueType string

const (
	ValueTypeMissing ValueType = ""
	ValueTypeString  ValueType = "string"
	ValueTypeNumeric ValueType = "numeric"
	ValueTypeBoolean ValueType = "boolean"
)

// Value is a typed cell. The zero Value is missing (absent) and is distinct
// from every valid value, including the empty string and zero.
type Value struct {
	Type ValueType
	str  string
	num  float64
	b    bool
}

// NewStringValue creates a text value
func NewStringValue(s string) Value {
	return Value{Type: ValueTypeString, str: s}
}

// NewNumericValue creates a numeric value. NaN is stored as missing.
func NewNumericValue(n float64) Value {
	if math.IsNaN(n) {
		return Value{}
	}
	return Value{Type: ValueTypeNumeric, num: n}
}

// NewBooleanValue creates a boolean value
func NewBooleanValue(b bool) Value {
	return Value{Type: ValueTypeBoolean, b: b}
}

// NewMissingValue creates a missing value
func NewMissingValue() Value {
	return Value{}
}

// IsMissing reports whether the cell is absent
func (v Value) IsMissing() bool {
	return v.Type == ValueTypeMissing
}

// IsNumeric returns true if the value represents a valid number
func (v Value) IsNumeric() bool {
	return v.Type == ValueTypeNumeric
}

// Float returns the numeric payload; ok is false for non-numeric cells
func (v Value) Float() (float64, bool) {
	if v.Type != ValueTypeNumeric {
		return 0, false
	}
	return v.num, true
}

// Text returns the text payload; ok is false for non-text cells
func (v Value) Text() (string, bool) {
	if v.Type != ValueTypeString {
		return "", false
	}
	return v.str, true
}

// Bool returns the boolean payload; ok is false for non-boolean cells
func (v Value) Bool() (bool, bool) {
	if v.Type != ValueTypeBoolean {
		return false, false
	}
	return v.b, true
}

// Equal is exact, type-sensitive equality. A missing value equals nothing,
// not even another missing value.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValueTypeString:
		return v.str == other.str
	case ValueTypeNumeric:
		return v.num == other.num
	case ValueTypeBoolean:
		return v.b == other.b
	}
	return false
}

// Key returns a string that is unique per distinct non-missing value, for use
// as a map key. Values of different types never share a key.
func (v Value) Key() string {
	switch v.Type {
	case ValueTypeString:
		return "s:" + v.str
	case ValueTypeNumeric:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case ValueTypeBoolean:
		return "b:" + strconv.FormatBool(v.b)
	}
	return "missing"
}

// String renders the value for display. Missing cells render as "NaN".
func (v Value) String() string {
	switch v.Type {
	case ValueTypeString:
		return v.str
	case ValueTypeNumeric:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueTypeBoolean:
		if v.b {
			return "True"
		}
		return "False"
	}
	return "NaN"
}

// MarshalJSON encodes missing as null and other values as their JSON kind
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case ValueTypeString:
		return json.Marshal(v.str)
	case ValueTypeNumeric:
		if math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case ValueTypeBoolean:
		return json.Marshal(v.b)
	}
	return []byte("null"), nil
}
