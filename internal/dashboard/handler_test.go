package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/diagnostics"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/medication"
	"github.com/hms/hms/internal/platform/persist"
	"github.com/hms/hms/internal/platform/telemetry"
	"github.com/hms/hms/internal/platform/websocket"
	"github.com/hms/hms/internal/session"
	"github.com/hms/hms/internal/store"
	"github.com/hms/hms/pkg/shape"
)

var testNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

type fakeHospital struct {
	st     *store.Store
	report store.SyncReport
	syncs  int
}

func (f *fakeHospital) Store() *store.Store { return f.st }

func (f *fakeHospital) Sync(context.Context) store.SyncReport {
	f.syncs++
	return f.report
}

func (f *fakeHospital) Stats(_ context.Context, threshold int) store.Stats {
	return f.st.Stats(testNow, threshold)
}

func (f *fakeHospital) LabResultPairs(id string) (shape.Pairing, bool) {
	return f.st.LabResultPairs(id, nil)
}

type fakeSessions struct{ cur session.Session }

func (f fakeSessions) Current() session.Session { return f.cur }

type pingBackend struct {
	*persist.Memory
	err error
}

func (p pingBackend) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, sess session.Session, b persist.Backend) (*echo.Echo, *fakeHospital) {
	t.Helper()
	st := store.New(store.WithClock(func() time.Time { return testNow }))
	patients := make([]identity.Patient, 0, 25)
	for i := 1; i <= 25; i++ {
		patients = append(patients, identity.Patient{ID: strconv.Itoa(i), FirstName: "P" + strconv.Itoa(i)})
	}
	st.Patients().Set(patients)
	st.Medicines().Set([]medication.Medicine{
		{ID: "1", Name: "Ibuprofen", Stock: 3, Price: "2.50"},
		{ID: "2", Name: "Paracetamol", Stock: 40, Price: "1.00"},
	})
	st.LabOrders().Set([]diagnostics.LabOrder{{ID: "5", PatientID: "1", TestIDs: []string{"glucose", "wbc"}}})
	st.LabResults().Set([]diagnostics.LabResult{{ID: "6", OrderID: "5", Values: []string{"110", "4.2"}}})

	fh := &fakeHospital{st: st}
	e := NewServer(ServerConfig{
		Logger:      zerolog.Nop(),
		Metrics:     telemetry.New(),
		Backend:     b,
		CORSOrigins: []string{"http://localhost:3000"},
		Version:     "test",
	}, NewHandler(fh, fakeSessions{cur: sess}, 10))
	return e, fh
}

func do(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ListPaginates(t *testing.T) {
	e, _ := newTestServer(t, session.Session{}, nil)
	rec := do(e, http.MethodGet, "/api/v1/patients?limit=10&offset=20")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data    []identity.Patient `json:"data"`
		Total   int                `json:"total"`
		HasMore bool               `json:"has_more"`
		Links   []struct {
			Relation string `json:"relation"`
		} `json:"links"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 25 || len(resp.Data) != 5 || resp.Data[0].ID != "21" || resp.HasMore {
		t.Errorf("unexpected page %+v", resp)
	}
	if len(resp.Links) != 2 || resp.Links[1].Relation != "previous" {
		t.Errorf("expected self and previous links, got %+v", resp.Links)
	}
}

func TestHandler_ListEmptyCollection(t *testing.T) {
	e, _ := newTestServer(t, session.Session{}, nil)
	rec := do(e, http.MethodGet, "/api/v1/sales")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected empty data array, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_GetReportsSyncState(t *testing.T) {
	e, fh := newTestServer(t, session.Session{}, nil)
	fh.st.Patients().MarkFailed("3", errors.New("boom"))

	rec := do(e, http.MethodGet, "/api/v1/patients/3")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Data identity.Patient `json:"data"`
		Sync store.SyncStatus `json:"sync"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Data.ID != "3" || got.Sync.State != store.StateFailed || got.Sync.Error != "boom" {
		t.Errorf("unexpected record %+v", got)
	}

	if rec := do(e, http.MethodGet, "/api/v1/patients/999"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_LowStock(t *testing.T) {
	e, _ := newTestServer(t, session.Session{}, nil)
	rec := do(e, http.MethodGet, "/api/v1/medicines/low-stock")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Ibuprofen") || strings.Contains(rec.Body.String(), "Paracetamol") {
		t.Errorf("unexpected low stock response %d %s", rec.Code, rec.Body.String())
	}
	rec = do(e, http.MethodGet, "/api/v1/medicines/low-stock?threshold=50")
	if !strings.Contains(rec.Body.String(), "Paracetamol") {
		t.Errorf("expected threshold override, got %s", rec.Body.String())
	}
	if rec := do(e, http.MethodGet, "/api/v1/medicines/low-stock?threshold=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_LabResultPairs(t *testing.T) {
	e, _ := newTestServer(t, session.Session{}, nil)
	rec := do(e, http.MethodGet, "/api/v1/lab-results/6/pairs")
	var pairs shape.Pairing
	_ = json.Unmarshal(rec.Body.Bytes(), &pairs)
	if rec.Code != http.StatusOK || !pairs.Aligned || len(pairs.Pairs) != 2 || pairs.Pairs[1].Value != "4.2" {
		t.Errorf("unexpected pairs %d %+v", rec.Code, pairs)
	}
	if rec := do(e, http.MethodGet, "/api/v1/lab-results/404/pairs"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_Stats(t *testing.T) {
	e, _ := newTestServer(t, session.Session{}, nil)
	rec := do(e, http.MethodGet, "/api/v1/stats")
	var st store.Stats
	_ = json.Unmarshal(rec.Body.Bytes(), &st)
	if st.TotalPatients != 25 || st.LowStockMedicines != 1 || st.PendingLabOrders != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestHandler_Prescriptions(t *testing.T) {
	e, fh := newTestServer(t, session.Session{}, nil)
	rx := fh.st.Prescriptions().Add(clinical.Prescription{PatientID: "1", Status: clinical.PrescriptionDispensed})

	rec := do(e, http.MethodGet, "/api/v1/prescriptions")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Fatalf("unexpected list %d %s", rec.Code, rec.Body.String())
	}
	rec = do(e, http.MethodGet, "/api/v1/prescriptions/"+rx.ID)
	var got struct {
		Data clinical.Prescription `json:"data"`
		Sync store.SyncStatus      `json:"sync"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Data.ID != rx.ID || got.Sync.State != store.StateConfirmed {
		t.Errorf("unexpected prescription record %+v", got)
	}

	var st store.Stats
	_ = json.Unmarshal(do(e, http.MethodGet, "/api/v1/stats").Body.Bytes(), &st)
	if st.TotalPrescriptions != 1 || st.PrescriptionRate != 100 {
		t.Errorf("unexpected prescription stats %+v", st)
	}
}

func TestHandler_SessionHidesToken(t *testing.T) {
	user := identity.User{ID: "1", Name: "Pat", Role: identity.RoleAdmin}
	e, _ := newTestServer(t, session.Session{User: &user, Token: "secret", Authenticated: true}, nil)
	rec := do(e, http.MethodGet, "/api/v1/session")
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "secret") || !strings.Contains(rec.Body.String(), `"isAuthenticated":true`) {
		t.Errorf("unexpected session response %s", rec.Body.String())
	}
}

func TestHandler_Sync(t *testing.T) {
	e, fh := newTestServer(t, session.Session{}, nil)
	if rec := do(e, http.MethodPost, "/api/v1/sync"); rec.Code != http.StatusUnauthorized || fh.syncs != 0 {
		t.Errorf("expected 401 without a session, got %d", rec.Code)
	}

	e, fh = newTestServer(t, session.Session{Authenticated: true, Token: "t"}, nil)
	if rec := do(e, http.MethodPost, "/api/v1/sync"); rec.Code != http.StatusOK || fh.syncs != 1 {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	fh.report = store.SyncReport{Failures: map[string]string{store.Medicines: "503"}}
	rec := do(e, http.MethodPost, "/api/v1/sync")
	if rec.Code != http.StatusMultiStatus || !strings.Contains(rec.Body.String(), `"medicines":"503"`) {
		t.Errorf("expected 207 with failures, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	e, _ := newTestServer(t, session.Session{}, nil)
	rec := do(e, http.MethodGet, "/health")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("unexpected health response %d", rec.Code)
	}
	do(e, http.MethodGet, "/api/v1/patients")
	rec = do(e, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/api/v1/patients") {
		t.Errorf("expected route metrics, got %d", rec.Code)
	}
}

func TestServer_HealthDegradesWithBackend(t *testing.T) {
	e, _ := newTestServer(t, session.Session{}, pingBackend{Memory: persist.NewMemory(), err: errors.New("connection refused")})
	rec := do(e, http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "degraded") {
		t.Errorf("expected degraded health, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestFeed_ForwardsChanges(t *testing.T) {
	st := store.New(store.WithClock(func() time.Time { return testNow }))
	hub := websocket.NewHub(zerolog.Nop())
	sales := websocket.NewClient(store.Sales)
	hub.Register(sales)
	stop := Feed(st, hub)

	st.Patients().Add(identity.Patient{FirstName: "Ann"})
	st.Sales().Set([]medication.Sale{{ID: "1", MedicineID: "7", Quantity: 1}})
	st.Reset()
	stop()
	st.Sales().Set(nil)

	var got []websocket.Event
	for len(sales.Send) > 0 {
		var e websocket.Event
		_ = json.Unmarshal(<-sales.Send, &e)
		got = append(got, e)
	}
	if len(got) != 2 || got[0].Topic != store.Sales || got[0].Op != "set" || got[1].Topic != websocket.All || got[1].Op != "reset" {
		t.Errorf("unexpected events %+v", got)
	}
	if !got[0].At.Equal(testNow) {
		t.Errorf("expected event stamped with the store clock, got %v", got[0].At)
	}
}
