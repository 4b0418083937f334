package payload

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Shape describes how a data collection field arrived.
type Shape int

const (
	// ShapeAbsent is a missing or null field.
	ShapeAbsent Shape = iota
	// ShapeScalar is a bare string, number or boolean.
	ShapeScalar
	// ShapeWrapped is an object carrying the scalar under "value".
	ShapeWrapped
	// ShapeUnsupported is any other shape; it is treated as absent.
	ShapeUnsupported
)

func (s Shape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeScalar:
		return "scalar"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "unsupported"
	}
}

// maxExactInteger is the largest integer a float64 holds without loss.
const maxExactInteger = 1 << 53

// Field is a data collection result decoded from either `"x"` or `{"value": "x", ...}`.
// Value holds a string, json.Number or bool when Shape is ShapeScalar or ShapeWrapped.
type Field struct {
	Shape Shape
	Value any
}

// DecodeField decodes one entry of data_collection_results.
func DecodeField(raw json.RawMessage) Field {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Field{Shape: ShapeAbsent}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Field{Shape: ShapeUnsupported}
	}

	switch x := v.(type) {
	case nil:
		return Field{Shape: ShapeAbsent}
	case string, json.Number, bool:
		return Field{Shape: ShapeScalar, Value: x}
	case map[string]any:
		inner, ok := x["value"]
		if !ok {
			return Field{Shape: ShapeUnsupported}
		}
		switch y := inner.(type) {
		case nil:
			return Field{Shape: ShapeAbsent}
		case string, json.Number, bool:
			return Field{Shape: ShapeWrapped, Value: y}
		}
	}
	return Field{Shape: ShapeUnsupported}
}

// Present reports whether the field carries a usable scalar.
func (f Field) Present() bool {
	return f.Shape == ShapeScalar || f.Shape == ShapeWrapped
}

// String returns the value when it is a JSON string.
func (f Field) String() (string, bool) {
	if !f.Present() {
		return "", false
	}
	s, ok := f.Value.(string)
	return s, ok
}

// Float coerces the value to a finite number. Booleans are not numbers.
func (f Field) Float() (float64, bool) {
	if !f.Present() {
		return 0, false
	}
	var v any
	switch x := f.Value.(type) {
	case bool:
		return 0, false
	case json.Number:
		v = x.String()
	case string:
		v = strings.TrimSpace(x)
	default:
		v = x
	}
	n, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Integer coerces the value to a number truncated toward zero.
func (f Field) Integer() (float64, bool) {
	n, ok := f.Float()
	if !ok || math.Abs(n) >= maxExactInteger {
		return 0, false
	}
	return math.Trunc(n), true
}
