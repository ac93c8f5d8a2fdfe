package feed

import (
	"encoding/json"
	"strconv"
)

// vector is a positional-array record as decoded from a provider payload.
// Accessors never panic: out-of-range indexes and mismatched types read as absent.
type vector []interface{}

func decodeVector(raw json.RawMessage) (vector, bool) {
	var v []interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return vector(v), true
}

// float returns the value at i as a float64, accepting numeric strings
func (v vector) float(i int) *float64 {
	if i >= len(v) {
		return nil
	}
	switch x := v[i].(type) {
	case float64:
		return &x
	case string:
		if x == "" {
			return nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// integer returns the value at i as an int when it is a whole number
func (v vector) integer(i int) *int {
	f := v.float(i)
	if f == nil || *f != float64(int(*f)) {
		return nil
	}
	n := int(*f)
	return &n
}

// str returns the value at i as a string, or "" when absent
func (v vector) str(i int) string {
	if i >= len(v) {
		return ""
	}
	switch x := v[i].(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// boolean returns the value at i as a bool; numeric 0/1 flags are accepted
func (v vector) boolean(i int) bool {
	if i >= len(v) {
		return false
	}
	switch x := v[i].(type) {
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return false
	}
}
