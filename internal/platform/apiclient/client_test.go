package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type wireItem struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

type recorded struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c, &calls
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("expected %s, got %s", DefaultBaseURL, c.BaseURL())
	}
	if c.scheme != DefaultAuthScheme {
		t.Errorf("expected scheme %s, got %s", DefaultAuthScheme, c.scheme)
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	if _, err := New("ftp://example.com/"); err == nil {
		t.Fatal("expected error for non-http base url")
	}
}

func TestNew_Options(t *testing.T) {
	hc := &http.Client{}
	c, err := New("http://example.com/api/", WithHTTPClient(hc), WithTimeout(3*time.Second), WithAuthScheme("Bearer"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.httpClient != hc || hc.Timeout != 3*time.Second {
		t.Error("expected custom http client with timeout")
	}
	if c.scheme != "Bearer" {
		t.Errorf("expected Bearer scheme, got %s", c.scheme)
	}
}

func TestClient_AuthorizationHeader(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	res := NewResource[wireItem](c, "patients", http.MethodPatch)

	if _, err := res.List(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.SetToken("abc123")
	if _, err := res.List(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.SetToken("")
	if _, err := res.List(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := *calls
	if len(got) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(got))
	}
	if got[0].Auth != "" {
		t.Errorf("expected no auth header before token, got %q", got[0].Auth)
	}
	if got[1].Auth != "Token abc123" {
		t.Errorf("expected Token auth header, got %q", got[1].Auth)
	}
	if got[2].Auth != "" {
		t.Errorf("expected header removed after clearing token, got %q", got[2].Auth)
	}
	if got[0].Path != "/api/patients/" {
		t.Errorf("expected /api/patients/, got %s", got[0].Path)
	}
}

func TestResource_ListShapes(t *testing.T) {
	bodies := map[string]int{
		`{"results": [{"id": 7}], "count": 1}`: 1,
		`[{"id": 3}, {"id": 9}]`:               2,
		`{"detail": "nothing"}`:                0,
	}
	for body, want := range bodies {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, body)
		})
		items, err := NewResource[wireItem](c, "sales", http.MethodPut).List(context.Background())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", body, err)
		}
		if len(items) != want {
			t.Errorf("%s: expected %d items, got %d", body, want, len(items))
		}
	}
}

func TestResource_UpdateVerb(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id": 4, "name": "updated"}`)
	})
	patched, err := NewResource[wireItem](c, "patients", http.MethodPatch).Update(context.Background(), "4", map[string]any{"name": "updated"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patched.Name != "updated" {
		t.Errorf("expected updated entity, got %+v", patched)
	}
	if _, err := NewResource[wireItem](c, "medicines", http.MethodPut).Update(context.Background(), "4", map[string]any{"name": "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := *calls
	if got[0].Method != http.MethodPatch || got[0].Path != "/api/patients/4/" {
		t.Errorf("expected PATCH /api/patients/4/, got %s %s", got[0].Method, got[0].Path)
	}
	if got[1].Method != http.MethodPut {
		t.Errorf("expected PUT for medicines, got %s", got[1].Method)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(got[0].Body), &sent); err != nil {
		t.Fatalf("expected json body: %v", err)
	}
	if len(sent) != 1 || sent["name"] != "updated" {
		t.Errorf("expected only the supplied key to be sent, got %v", sent)
	}
}

func TestResource_CreateAndRemove(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			writeJSON(w, http.StatusCreated, `{"id": 12, "name": "new"}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	res := NewResource[wireItem](c, "diagnoses", http.MethodPut)

	created, err := res.Create(context.Background(), wireItem{Name: "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 12 {
		t.Errorf("expected created id 12, got %d", created.ID)
	}
	if err := res.Remove(context.Background(), "12"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := (*calls)[1]; got.Method != http.MethodDelete || got.Path != "/api/diagnoses/12/" {
		t.Errorf("unexpected delete call %+v", got)
	}
}

func TestResource_GetErrors(t *testing.T) {
	status := http.StatusNotFound
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, `{"detail": "Not found."}`)
	})
	res := NewResource[wireItem](c, "patients", http.MethodPatch)

	_, err := res.Get(context.Background(), "5")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for 404, got %v", err)
	}

	status = http.StatusInternalServerError
	_, err = res.Get(context.Background(), "5")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for 500 on get, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Errorf("expected wrapped APIError with status 500, got %v", err)
	}

	before := len(*calls)
	for _, id := range []string{"", "abc", "NaN", "-1", "0", "1.5"} {
		if _, err := res.Get(context.Background(), id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("id %q: expected ErrInvalidID, got %v", id, err)
		}
	}
	if len(*calls) != before {
		t.Error("expected invalid ids to be rejected without a request")
	}
}

func TestResource_ValidationError(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"email": ["Enter a valid email address."], "phone": "This field is required, sorry."}`)
	})
	_, err := NewResource[wireItem](c, "patients", http.MethodPatch).Create(context.Background(), map[string]string{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if got := apiErr.Fields["email"]; len(got) != 1 || got[0] != "Enter a valid email address." {
		t.Errorf("unexpected email messages: %v", got)
	}
	if got := apiErr.Fields["phone"]; len(got) != 1 || got[0] != "This field is required, sorry." {
		t.Errorf("expected message kept whole, got %v", got)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("did not expect validation error to match ErrNotFound")
	}
}

func TestAPIError_Message(t *testing.T) {
	e := newAPIError("POST", "auth/login/", 400, []byte(`{"non_field_errors": ["Invalid credentials"]}`))
	if e.Message() != "Invalid credentials" {
		t.Errorf("unexpected message %q", e.Message())
	}
	e = newAPIError("GET", "x/", 502, []byte(`Bad Gateway`))
	if e.Message() != "Bad Gateway" {
		t.Errorf("expected raw body message, got %q", e.Message())
	}
	if errors.Is(e, ErrValidation) {
		t.Error("did not expect 502 to match ErrValidation")
	}
}

func TestValidateID(t *testing.T) {
	id, err := ValidateID(" 42 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "42" {
		t.Errorf("expected 42, got %s", id)
	}
	if _, err := ValidateID("tmp-123"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected temporary ids to be rejected, got %v", err)
	}
}

func TestResourceOf(t *testing.T) {
	tests := map[string]string{
		"patients/":             "patients",
		"/patients/7/":          "patients",
		"medicines/low_stock/":  "medicines",
		"auth/login/":           "auth",
		"total_revenue/?x=1":    "total_revenue",
	}
	for in, want := range tests {
		if got := resourceOf(in); got != want {
			t.Errorf("resourceOf(%q) = %q, want %q", in, got, want)
		}
	}
}
