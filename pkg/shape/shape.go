// Package shape decodes the loosely typed payloads emitted by the hospital
// backend into one canonical in-memory form. Foreign keys may arrive as bare
// ids, nested objects or display strings; multi-value fields may arrive as
// arrays, JSON-encoded strings or comma separated strings.
//
// Every function in this package is total. Malformed input degrades to an
// empty or best-effort value; nothing here returns an error or panics.
package shape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ID returns the canonical string form of an identifier. Numeric ids and
// their string encodings compare equal after passing through ID.
func ID(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return numberText(x)
	case json.RawMessage:
		parsed, ok := decodeAny(x)
		if !ok {
			return ""
		}
		return ID(parsed)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return ""
	}
}

// Stringify renders a single decoded JSON value as text. Numbers keep their
// literal form, null becomes the empty string and composite values become
// compact JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return ID(x)
	case json.RawMessage:
		parsed, ok := decodeAny(x)
		if !ok {
			return strings.TrimSpace(string(x))
		}
		return Stringify(parsed)
	case fmt.Stringer:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// NormalizeToArray converts an array, a JSON-encoded string or a comma
// separated string into an ordered list of strings. Absent or unsupported
// input yields an empty, non-nil list.
func NormalizeToArray(v any) []string {
	switch x := v.(type) {
	case nil:
		return []string{}
	case MultiValue:
		return x.Values()
	case *MultiValue:
		if x == nil {
			return []string{}
		}
		return x.Values()
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	case []any:
		return stringifyAll(x)
	case json.RawMessage:
		return DecodeMultiValue(x).Values()
	case string:
		return ParseString(x).Values()
	case json.Number, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return []string{Stringify(x)}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]string, rv.Len())
		for i := range out {
			out[i] = Stringify(rv.Index(i).Interface())
		}
		return out
	case reflect.String:
		return ParseString(rv.String()).Values()
	}
	return []string{}
}

func stringifyAll(items []any) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = Stringify(item)
	}
	return out
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// decodeAny parses exactly one JSON value, preserving number literals.
// Trailing data after the first value counts as a parse failure.
func decodeAny(raw []byte) (any, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, false
	}
	return v, true
}

func numberText(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
