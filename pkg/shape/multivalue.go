package shape

import (
	"encoding/json"
	"strings"
)

// Kind identifies which wire shape a multi-value field arrived in.
type Kind int

const (
	KindAbsent Kind = iota
	KindArray
	KindJSONString
	KindCSVString
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindArray:
		return "array"
	case KindJSONString:
		return "json_string"
	case KindCSVString:
		return "csv_string"
	case KindScalar:
		return "scalar"
	}
	return "unknown"
}

// MultiValue is a list-valued field decoded once at the network boundary.
// The backend stores lab order tests and lab result values in text columns,
// so the same field may be a JSON array, a JSON array encoded inside a
// string, a comma separated string or a single scalar.
type MultiValue struct {
	kind   Kind
	values []string
}

// Multi builds an array-shaped MultiValue from already canonical values.
func Multi(values ...string) MultiValue {
	out := make([]string, len(values))
	copy(out, values)
	return MultiValue{kind: KindArray, values: out}
}

// Kind returns the wire shape the value was decoded from.
func (m MultiValue) Kind() Kind {
	return m.kind
}

// Values returns the canonical ordered list. The caller owns the slice.
func (m MultiValue) Values() []string {
	switch m.kind {
	case KindAbsent:
		return []string{}
	case KindArray, KindJSONString, KindCSVString, KindScalar:
		out := make([]string, len(m.values))
		copy(out, m.values)
		return out
	}
	return []string{}
}

// Len returns the number of canonical values.
func (m MultiValue) Len() int {
	if m.kind == KindAbsent {
		return 0
	}
	return len(m.values)
}

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (m *MultiValue) UnmarshalJSON(data []byte) error {
	*m = DecodeMultiValue(data)
	return nil
}

// MarshalJSON always writes the canonical array form.
func (m MultiValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Values())
}

// DecodeMultiValue classifies a raw wire value.
func DecodeMultiValue(raw json.RawMessage) MultiValue {
	v, ok := decodeAny(raw)
	if !ok {
		return MultiValue{kind: KindAbsent}
	}
	switch x := v.(type) {
	case nil:
		return MultiValue{kind: KindAbsent}
	case []any:
		return MultiValue{kind: KindArray, values: stringifyAll(x)}
	case string:
		return ParseString(x)
	case map[string]any:
		return MultiValue{kind: KindScalar, values: []string{Stringify(x)}}
	default:
		return MultiValue{kind: KindScalar, values: []string{Stringify(x)}}
	}
}

// ParseString classifies a string field. A string holding a JSON array is
// unpacked, a string holding JSON null is absent, any other JSON value is a
// single element, and anything that fails to parse is split on commas.
func ParseString(s string) MultiValue {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return MultiValue{kind: KindAbsent}
	}
	if v, ok := decodeAny([]byte(trimmed)); ok {
		switch x := v.(type) {
		case nil:
			return MultiValue{kind: KindAbsent}
		case []any:
			return MultiValue{kind: KindJSONString, values: stringifyAll(x)}
		default:
			return MultiValue{kind: KindJSONString, values: []string{Stringify(x)}}
		}
	}
	return MultiValue{kind: KindCSVString, values: splitCSV(trimmed)}
}
