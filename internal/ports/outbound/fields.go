package outbound

import (
	"encoding/json"
	"strconv"
)

// Fields holds the cell values of a record keyed by column name.
// Values arrive as decoded JSON: strings, float64, bool, []interface{}.
type Fields map[string]interface{}

// Has reports whether the column is present and non-null
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// String returns the column as a string, or "" when absent
func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Float returns the column as a number; ok is false when absent or not numeric
func (f Fields) Float(key string) (float64, bool) {
	switch v := f[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	default:
		return 0, false
	}
}

// Bool returns the column as a boolean; absent checkboxes read as false
func (f Fields) Bool(key string) bool {
	v, _ := f[key].(bool)
	return v
}

// Links returns the record ids held by a link column
func (f Fields) Links(key string) []string {
	return f.Strings(key)
}

// Strings returns a multi-value column as strings, skipping non-string entries
func (f Fields) Strings(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// FirstLink returns the first id of a link column, or "" when empty
func (f Fields) FirstLink(key string) string {
	links := f.Links(key)
	if len(links) == 0 {
		return ""
	}
	return links[0]
}

// Clone returns a shallow copy of the field map
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
