package shape

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Text is a string field that tolerates numbers, booleans and null on the
// wire. Decimal columns such as prices arrive as either "12.50" or 12.5.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	v, ok := decodeAny(data)
	if !ok {
		*t = ""
		return nil
	}
	switch x := v.(type) {
	case map[string]any, []any:
		*t = ""
	default:
		*t = Text(Stringify(x))
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

// Int is an integer field that tolerates numeric strings and fractional
// numbers. Anything unparseable decodes to zero.
type Int int

func (n *Int) UnmarshalJSON(data []byte) error {
	v, ok := decodeAny(data)
	if !ok {
		*n = 0
		return nil
	}
	*n = Int(ToInt(v))
	return nil
}

// ToInt converts a loosely typed value to an int, truncating fractions.
func ToInt(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return truncate(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return truncate(f)
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return truncate(f)
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return 0
}

func truncate(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Trunc(f))
}
