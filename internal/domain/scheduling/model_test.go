package scheduling

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hms/hms/internal/domain/identity"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

// ---- Status ----

func TestNormalizeStatus(t *testing.T) {
	tests := map[string]Status{
		"":          StatusScheduled,
		"canceled":  StatusCancelled,
		"Cancelled": StatusCancelled,
		"completed": StatusCompleted,
		"no_show":   StatusNoShow,
	}
	for in, want := range tests {
		if got := NormalizeStatus(in); got != want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
	if StatusCancelled.Wire() != "canceled" {
		t.Errorf("expected canceled on the wire, got %q", StatusCancelled.Wire())
	}
	if StatusScheduled.Wire() != "scheduled" {
		t.Errorf("expected scheduled, got %q", StatusScheduled.Wire())
	}
}

// ---- Appointment ----

func TestAppointment_NormalizedDefaults(t *testing.T) {
	a := Appointment{ID: " 3 ", PatientID: "1"}.Normalized()
	if a.ID != "3" || a.Duration != DefaultDuration || a.Type != TypeConsultation {
		t.Errorf("unexpected defaults %+v", a)
	}
	if a.Status != StatusScheduled || a.PaymentStatus != identity.PaymentNotPaid {
		t.Errorf("unexpected status defaults %+v", a)
	}
}

func TestAppointment_WireRoundTripKeepsLocalClock(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	a := Appointment{Date: "2024-03-15", Time: "22:30"}
	date, clock, err := wireSchedule(a.Date, a.Time, loc)
	if err != nil {
		t.Fatalf("wire schedule: %v", err)
	}
	if date != "2024-03-16T02:30:00Z" || clock != "02:30:00" {
		t.Errorf("expected one UTC instant for date and time, got %s %s", date, clock)
	}

	w := appointmentWire{ID: "1", Date: "2024-03-16T02:30:00Z", Time: "02:30:00"}
	got := w.toModel(loc)
	if got.Date != "2024-03-15" || got.Time != "22:30" {
		t.Errorf("expected local date and time from the same instant, got %s %s", got.Date, got.Time)
	}
}

func TestAppointmentWire_ToModel(t *testing.T) {
	raw := `{"id": 11, "patient": {"id": 4, "first_name": "Ann", "last_name": "Lee"},
		"doctor": 2, "doctor_name": "Dr House", "date": "2024-01-02T09:15:00Z",
		"time": "09:15:00", "reason": "checkup", "status": "canceled"}`
	var w appointmentWire
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	a := w.toModel(time.UTC)
	if a.ID != "11" || a.PatientID != "4" || a.PatientName != "Ann Lee" {
		t.Errorf("unexpected patient mapping %+v", a)
	}
	if a.DoctorID != "2" || a.DoctorName != "Dr House" {
		t.Errorf("unexpected doctor mapping %+v", a)
	}
	if a.Status != StatusCancelled || a.PaymentStatus != identity.PaymentNotPaid {
		t.Errorf("unexpected status mapping %+v", a)
	}
	if a.Date != "2024-01-02" || a.Time != "09:15" {
		t.Errorf("unexpected schedule %s %s", a.Date, a.Time)
	}
	if !a.CreatedAt.Equal(time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)) {
		t.Errorf("expected created to fall back to the instant, got %v", a.CreatedAt)
	}
}

func TestAppointmentWire_UnparseableDateKeepsRaw(t *testing.T) {
	a := appointmentWire{Date: "soon", Time: "10:45:00"}.toModel(time.UTC)
	if a.Date != "soon" || a.Time != "10:45" {
		t.Errorf("expected raw date and trimmed time, got %q %q", a.Date, a.Time)
	}
}

// ---- Patch ----

func TestAppointmentPatch_WireRequiresDateAndTime(t *testing.T) {
	d := "2024-05-01"
	body, err := AppointmentPatch{Date: &d}.Wire(time.UTC)
	if err != nil {
		t.Fatalf("wire: %v", err)
	}
	if _, ok := body["date"]; ok {
		t.Error("expected date omitted without time")
	}

	completed := AppointmentPatch{Date: &d}.CompleteSchedule(Appointment{Date: "2024-04-01", Time: "08:00"})
	body, err = completed.Wire(time.UTC)
	if err != nil {
		t.Fatalf("wire: %v", err)
	}
	if body["date"] != "2024-05-01T08:00:00Z" || body["time"] != "08:00:00" {
		t.Errorf("unexpected schedule body %v", body)
	}
}

func TestAppointmentPatch_WireStatusAndPayment(t *testing.T) {
	st := StatusCancelled
	paid := identity.PaymentPaid
	doc := "7"
	body, err := AppointmentPatch{Status: &st, PaymentStatus: &paid, DoctorID: &doc}.Wire(time.UTC)
	if err != nil {
		t.Fatalf("wire: %v", err)
	}
	if body["status"] != "canceled" || body["payment_status"] != "paid" || body["doctor"] != "7" {
		t.Errorf("unexpected body %v", body)
	}
	if len(body) != 3 {
		t.Errorf("expected three keys, got %v", body)
	}
}

func TestAppointmentPatch_InvalidSchedule(t *testing.T) {
	d, c := "2024-13-40", "25:00"
	if _, err := (AppointmentPatch{Date: &d, Time: &c}).Wire(time.UTC); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestAppointment_KeepLocal(t *testing.T) {
	prev := Appointment{Duration: 45, Type: TypeProcedure, Notes: "fasting"}
	got := Appointment{Duration: DefaultDuration, Type: TypeConsultation}.KeepLocal(prev)
	if got.Duration != 45 || got.Type != TypeProcedure || got.Notes != "fasting" {
		t.Errorf("unexpected merge %+v", got)
	}
}

func TestAppointment_IsToday(t *testing.T) {
	now := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	if !(Appointment{Date: "2024-06-01"}).IsToday(now) {
		t.Error("expected today")
	}
	if (Appointment{Date: "2024-06-02"}).IsToday(now) {
		t.Error("expected not today")
	}
}
