package scheduling

import (
	"strings"
	"time"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/pkg/shape"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"

	// Reserved. Declared for forward compatibility; nothing produces them.
	StatusConfirmed Status = "confirmed"
	StatusNoShow    Status = "no_show"
)

// wireCancelled is the backend spelling of StatusCancelled.
const wireCancelled = "canceled"

// NormalizeStatus maps the backend spelling onto Status. Empty becomes
// scheduled; anything else is kept lowercased.
func NormalizeStatus(s string) Status {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "":
		return StatusScheduled
	case wireCancelled:
		return StatusCancelled
	}
	return Status(s)
}

// Wire returns the backend spelling.
func (s Status) Wire() string {
	if s == StatusCancelled {
		return wireCancelled
	}
	return string(s)
}

// Type classifies the visit. The backend does not store it.
type Type string

const (
	TypeConsultation Type = "consultation"
	TypeFollowUp     Type = "follow_up"
	TypeEmergency    Type = "emergency"
	TypeProcedure    Type = "procedure"
)

// DefaultDuration is the slot length in minutes.
const DefaultDuration = 30

// Layouts of the separately stored date and time of day.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment is the canonical appointment record. Date and Time are always
// derived from one instant in the configured location.
type Appointment struct {
	ID            string                 `json:"id"`
	PatientID     string                 `json:"patientId"`
	PatientName   string                 `json:"patientName,omitempty"`
	DoctorID      string                 `json:"doctorId"`
	DoctorName    string                 `json:"doctorName,omitempty"`
	Date          string                 `json:"date"`
	Time          string                 `json:"time"`
	Duration      int                    `json:"duration"`
	Type          Type                   `json:"type"`
	Status        Status                 `json:"status"`
	PaymentStatus identity.PaymentStatus `json:"paymentStatus"`
	Reason        string                 `json:"reason"`
	Notes         string                 `json:"notes,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

func (a Appointment) Key() string { return a.ID }

func (a Appointment) WithKey(id string) Appointment {
	a.ID = id
	return a
}

func (a Appointment) Touched(at time.Time) Appointment {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = at
	}
	a.UpdatedAt = at
	return a
}

// Normalized canonicalizes ids and status and applies the client defaults.
func (a Appointment) Normalized() Appointment {
	a.ID = shape.ID(a.ID)
	a.PatientID = shape.ID(a.PatientID)
	a.DoctorID = shape.ID(a.DoctorID)
	a.Status = NormalizeStatus(string(a.Status))
	a.PaymentStatus = identity.NormalizePaymentStatus(string(a.PaymentStatus))
	if a.Duration <= 0 {
		a.Duration = DefaultDuration
	}
	if a.Type == "" {
		a.Type = TypeConsultation
	}
	return a
}

// At combines Date and Time into one instant in loc.
func (a Appointment) At(loc *time.Location) (time.Time, bool) {
	return combine(a.Date, a.Time, loc)
}

// WithInstant sets Date and Time from t as seen in loc.
func (a Appointment) WithInstant(t time.Time, loc *time.Location) Appointment {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	a.Date = t.Format(DateLayout)
	a.Time = t.Format(TimeLayout)
	return a
}

// AppointmentPatch is a shallow update. Date and Time are sent to the
// backend only when both are set.
type AppointmentPatch struct {
	PatientID     *string
	DoctorID      *string
	Date          *string
	Time          *string
	Duration      *int
	Type          *Type
	Status        *Status
	PaymentStatus *identity.PaymentStatus
	Reason        *string
	Notes         *string
}

func (ap AppointmentPatch) Apply(a Appointment) Appointment {
	setString(&a.PatientID, ap.PatientID)
	setString(&a.DoctorID, ap.DoctorID)
	setString(&a.Date, ap.Date)
	setString(&a.Time, ap.Time)
	setString(&a.Reason, ap.Reason)
	setString(&a.Notes, ap.Notes)
	if ap.Duration != nil {
		a.Duration = *ap.Duration
	}
	if ap.Type != nil {
		a.Type = *ap.Type
	}
	if ap.Status != nil {
		a.Status = NormalizeStatus(string(*ap.Status))
	}
	if ap.PaymentStatus != nil {
		a.PaymentStatus = *ap.PaymentStatus
	}
	return a
}

// CompleteSchedule fills whichever of Date or Time is missing from base so
// that a change to either one moves the combined instant.
func (ap AppointmentPatch) CompleteSchedule(base Appointment) AppointmentPatch {
	if ap.Date == nil && ap.Time == nil {
		return ap
	}
	if ap.Date == nil && base.Date != "" {
		d := base.Date
		ap.Date = &d
	}
	if ap.Time == nil && base.Time != "" {
		t := base.Time
		ap.Time = &t
	}
	return ap
}

// KeepLocal copies the client-only fields from prev, which the backend
// does not round-trip.
func (a Appointment) KeepLocal(prev Appointment) Appointment {
	if prev.Duration > 0 {
		a.Duration = prev.Duration
	}
	if prev.Type != "" {
		a.Type = prev.Type
	}
	if a.Notes == "" {
		a.Notes = prev.Notes
	}
	return a
}

// IsToday reports whether the appointment falls on the calendar day of now.
func (a Appointment) IsToday(now time.Time) bool {
	return a.Date == now.Format(DateLayout)
}

func combine(date, clock string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = "00:00"
	}
	for _, layout := range []string{DateLayout + " 15:04:05", DateLayout + " 15:04"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
