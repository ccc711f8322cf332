package pagination

import (
	"bytes"
	"encoding/json"
)

// envelope is the DRF page shape. Only results is consumed; count, next and
// previous are ignored because every list call fetches a single page.
type envelope struct {
	Results json.RawMessage `json:"results"`
}

// DecodeList unwraps a list body that is either a bare JSON array or an
// object carrying a results array. Any other shape yields an empty list.
// Elements that fail to decode into T are skipped and counted in dropped.
func DecodeList[T any](body []byte) (items []T, dropped int) {
	items = []T{}
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 {
		return items, 0
	}

	if raw[0] == '{' {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return items, 0
		}
		raw = bytes.TrimSpace(env.Results)
	}
	if len(raw) == 0 || raw[0] != '[' {
		return items, 0
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return items, 0
	}
	for _, el := range elems {
		if string(bytes.TrimSpace(el)) == "null" {
			dropped++
			continue
		}
		var v T
		if err := json.Unmarshal(el, &v); err != nil {
			dropped++
			continue
		}
		items = append(items, v)
	}
	return items, dropped
}
