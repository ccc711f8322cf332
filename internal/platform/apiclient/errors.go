package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/hms/hms/pkg/shape"
)

var (
	// ErrNotFound matches 404 responses and failed single-entity reads.
	ErrNotFound = errors.New("apiclient: not found")
	// ErrValidation matches 400 responses that carry per-field messages.
	ErrValidation = errors.New("apiclient: validation failed")
	// ErrInvalidID is returned before any request is made for an id the
	// backend could never accept.
	ErrInvalidID = errors.New("apiclient: invalid id")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
	// Fields holds server validation messages keyed by field name, verbatim.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Is lets callers use errors.Is with the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusBadRequest && len(e.Fields) > 0
	}
	return false
}

var messageKeys = []string{"detail", "error", "message", "non_field_errors"}

// Message returns the most relevant human-readable message from the body.
func (e *APIError) Message() string {
	for _, k := range messageKeys {
		if msgs := e.Fields[k]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if msgs := e.Fields[k]; len(msgs) > 0 {
				return k + ": " + msgs[0]
			}
		}
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	return body
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Method: method,
		Path:   path,
		Status: status,
		Body:   string(body),
		Fields: parseFieldErrors(body),
	}
}

// parseFieldErrors reads a DRF error object. Values may be a message, a list
// of messages or a nested object; nested objects are kept as compact JSON.
func parseFieldErrors(body []byte) map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		return nil
	}
	fields := make(map[string][]string, len(raw))
	for k, v := range raw {
		msgs := shape.DecodeMultiValue(v)
		if msgs.Kind() == shape.KindCSVString || msgs.Kind() == shape.KindJSONString {
			// A plain message string may contain commas; keep it whole.
			var s string
			if json.Unmarshal(v, &s) == nil {
				fields[k] = []string{s}
				continue
			}
		}
		if vals := msgs.Values(); len(vals) > 0 {
			fields[k] = vals
		}
	}
	return fields
}

// ValidateID trims id and checks that it is a positive integer, the only
// form the backend assigns.
func ValidateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	n, err := strconv.ParseFloat(id, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if n <= 0 || n != math.Trunc(n) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return shape.ID(n), nil
}
