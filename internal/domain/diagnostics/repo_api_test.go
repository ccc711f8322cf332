package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apiclient"
)

func newFakeBackend(t *testing.T, register func(e *echo.Echo)) *apiclient.Client {
	t.Helper()
	e := echo.New()
	register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	c, err := apiclient.New(srv.URL + "/api/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func decodeBody(c echo.Context) map[string]any {
	data, _ := io.ReadAll(c.Request().Body)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}

func TestOrderClient_CreateSendsTestsArray(t *testing.T) {
	var body map[string]any
	c := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/api/lab-orders/", func(c echo.Context) error {
			body = decodeBody(c)
			return c.JSONBlob(http.StatusCreated, []byte(`{"id":3,"patient":1,"tests":["glucose","wbc"],"status":"pending"}`))
		})
	})
	o, err := NewOrderClient(c).Create(context.Background(), LabOrder{
		PatientID: "1", TestIDs: []string{"glucose", "wbc"}, Priority: PriorityUrgent,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tests, _ := body["tests"].([]any)
	if len(tests) != 2 || body["status"] != "pending" || body["doctor"] != nil {
		t.Errorf("unexpected body %v", body)
	}
	if o.ID != "3" || o.Priority != PriorityUrgent {
		t.Errorf("unexpected order %+v", o)
	}
}

func TestOrderClient_UpdateUsesPut(t *testing.T) {
	var method string
	c := newFakeBackend(t, func(e *echo.Echo) {
		e.Any("/api/lab-orders/:id/", func(c echo.Context) error {
			method = c.Request().Method
			return c.JSONBlob(http.StatusOK, []byte(`{"id":3,"status":"completed"}`))
		})
	})
	st := OrderCompleted
	if _, err := NewOrderClient(c).Update(context.Background(), "3", LabOrderPatch{Status: &st}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if method != http.MethodPut {
		t.Errorf("expected PUT, got %s", method)
	}
}

func TestResultClient_CreateAndSummaries(t *testing.T) {
	var body map[string]any
	c := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/api/lab-results/", func(c echo.Context) error {
			body = decodeBody(c)
			return c.JSONBlob(http.StatusCreated, []byte(`{"id":9,"lab_order":{"id":3,"tests":["glucose"]},"result":"[\"110\"]"}`))
		})
		e.GET("/api/lab-results/", func(c echo.Context) error {
			return c.JSONBlob(http.StatusOK, []byte(`[{"id":9,"lab_order":{"id":3,"patient_name":"Ann","tests":[]},"result":"110"}]`))
		})
	})
	rc := NewResultClient(c)
	r, err := rc.Create(context.Background(), LabResult{OrderID: "3", Values: []string{"110"}, Unit: "mg/dL"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if body["lab_order"] != "3" || body["result"] != `["110"]` {
		t.Errorf("unexpected body %v", body)
	}
	if r.ID != "9" || r.Unit != "mg/dL" || r.Values[0] != "110" {
		t.Errorf("unexpected result %+v", r)
	}

	sums, err := rc.Summaries(context.Background())
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(sums) != 1 || sums[0].OrderName != "Order #3" || sums[0].PatientName != "Ann" {
		t.Errorf("unexpected summaries %+v", sums)
	}
}

func TestResultClient_GetNotFound(t *testing.T) {
	c := newFakeBackend(t, func(e *echo.Echo) {
		e.GET("/api/lab-results/:id/", func(c echo.Context) error {
			return c.JSONBlob(http.StatusInternalServerError, []byte(`{"detail":"boom"}`))
		})
	})
	if _, err := NewResultClient(c).Get(context.Background(), "4"); !errors.Is(err, apiclient.ErrNotFound) {
		t.Errorf("expected ErrNotFound for any non-2xx, got %v", err)
	}
}
