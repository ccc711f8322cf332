package shape

import (
	"encoding/json"
	"strings"
)

// Ref is a foreign key as it appears on the wire. The backend sends either a
// bare id (number or string), an expanded object carrying id and naming
// fields, or null.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// RefTo builds a reference from a known id.
func RefTo(id any) Ref {
	return Ref{ID: ID(id)}
}

// UnmarshalJSON implements json.Unmarshaler. Unrecognized shapes decode to the
// zero Ref.
func (r *Ref) UnmarshalJSON(data []byte) error {
	*r = ParseRef(data)
	return nil
}

// ParseRef decodes a raw wire value into a Ref.
func ParseRef(raw []byte) Ref {
	v, ok := decodeAny(raw)
	if !ok {
		return Ref{}
	}
	switch x := v.(type) {
	case map[string]any:
		return Ref{ID: ID(x["id"]), Name: DisplayName(x)}
	case json.Number, string:
		return Ref{ID: ID(x)}
	default:
		return Ref{}
	}
}

// MarshalJSON writes the reference back as the bare id the backend accepts
// on writes. An empty reference is written as null.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// IsZero reports whether the reference points at nothing.
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// WithFallbackName fills Name from a sibling display field when the wire
// object did not carry one.
func (r Ref) WithFallbackName(name string) Ref {
	if r.Name == "" {
		r.Name = strings.TrimSpace(name)
	}
	return r
}

// Display returns the human-readable label for the reference.
func (r Ref) Display() string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID == "" {
		return ""
	}
	return "#" + r.ID
}

// DisplayName derives a person or object label from a loosely typed map.
// Precedence is name, then first and last name, then email.
func DisplayName(m map[string]any) string {
	if m == nil {
		return ""
	}
	if name := strings.TrimSpace(Stringify(m["name"])); name != "" {
		return name
	}
	first := firstString(m, "first_name", "firstName")
	last := firstString(m, "last_name", "lastName")
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	return strings.TrimSpace(Stringify(m["email"]))
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(Stringify(m[k])); s != "" {
			return s
		}
	}
	return ""
}
