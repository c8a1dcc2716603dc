// Package form holds the user's selections for one display and the control
// walker that decides which of them are answered.
package form

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// QuantityControlID is the control holding the number of displays ordered.
const QuantityControlID = "quantity"

// Form maps control ids to the current selection: an option key for single
// controls, a number for number controls. Values arrive from JSON, YAML or
// HTTP forms, so every read tolerates missing keys, nulls and wrong types.
type Form map[string]any

// StringValue returns the value as a string if it is one.
func (f Form) StringValue(id string) (string, bool) {
	s, ok := f[id].(string)
	return s, ok
}

// String returns the string value, or "" when missing or not a string.
func (f Form) String(id string) string {
	s, _ := f.StringValue(id)
	return s
}

// Int returns the value coerced to an int. Missing, null and non-numeric
// values read as 0.
func (f Form) Int(id string) int {
	n, _ := ToInt(f[id])
	return n
}

// IntOr is like Int but returns def when the value cannot be read.
func (f Form) IntOr(id string, def int) int {
	if n, ok := ToInt(f[id]); ok {
		return n
	}
	return def
}

// Quantity is the program quantity, 1 when unset. No floor is applied.
func (f Form) Quantity() int {
	return f.IntOr(QuantityControlID, 1)
}

// Equals reports whether control id currently holds want. A missing or null
// value only equals the empty string.
func (f Form) Equals(id, want string) bool {
	v, ok := f[id]
	if !ok || v == nil {
		return want == ""
	}
	s, ok := v.(string)
	return ok && s == want
}

// Clone returns a shallow copy.
func (f Form) Clone() Form {
	out := make(Form, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ToInt coerces a form value to an int, truncating fractions. It never panics.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if fl, err := n.Float64(); err == nil {
			return floatToInt(fl)
		}
		return 0, false
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt || f < math.MinInt {
		return 0, false
	}
	return int(f), true
}
