package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/pkg/shape"
)

// appointmentWire is the backend representation. date is a full ISO
// datetime, time a separate HH:MM:SS column.
type appointmentWire struct {
	ID            shape.Text `json:"id"`
	Patient       shape.Ref  `json:"patient"`
	PatientName   shape.Text `json:"patient_name"`
	Doctor        shape.Ref  `json:"doctor"`
	DoctorName    shape.Text `json:"doctor_name"`
	Date          shape.Text `json:"date"`
	Time          shape.Text `json:"time"`
	Reason        shape.Text `json:"reason"`
	Notes         shape.Text `json:"notes"`
	Status        shape.Text `json:"status"`
	PaymentStatus shape.Text `json:"payment_status"`
	CreatedAt     shape.Text `json:"created_at"`
	UpdatedAt     shape.Text `json:"updated_at"`
}

func (w appointmentWire) toModel(loc *time.Location) Appointment {
	patient := w.Patient.WithFallbackName(w.PatientName.String())
	doctor := w.Doctor.WithFallbackName(w.DoctorName.String())
	a := Appointment{
		ID:            w.ID.String(),
		PatientID:     patient.ID,
		PatientName:   patient.Name,
		DoctorID:      doctor.ID,
		DoctorName:    doctor.Name,
		Status:        Status(w.Status.String()),
		PaymentStatus: identity.PaymentStatus(w.PaymentStatus.String()),
		Reason:        w.Reason.String(),
		Notes:         w.Notes.String(),
	}

	instant, ok := shape.ParseTime(w.Date.String(), loc)
	if ok {
		a = a.WithInstant(instant, loc)
	} else {
		a.Date = w.Date.String()
		a.Time = clockOf(w.Time.String())
	}

	created, okCreated := shape.ParseTime(w.CreatedAt.String(), loc)
	switch {
	case okCreated:
		a.CreatedAt = created
	case ok:
		a.CreatedAt = instant
	}
	if updated, okUpdated := shape.ParseTime(w.UpdatedAt.String(), loc); okUpdated {
		a.UpdatedAt = updated
	} else {
		a.UpdatedAt = a.CreatedAt
	}
	return a.Normalized()
}

// appointmentPayload is the create body.
type appointmentPayload struct {
	Patient       string `json:"patient"`
	Doctor        string `json:"doctor"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

func newAppointmentPayload(a Appointment, loc *time.Location) (appointmentPayload, error) {
	a = a.Normalized()
	date, clock, err := wireSchedule(a.Date, a.Time, loc)
	if err != nil {
		return appointmentPayload{}, err
	}
	return appointmentPayload{
		Patient:       a.PatientID,
		Doctor:        a.DoctorID,
		Date:          date,
		Time:          clock,
		Reason:        a.Reason,
		Status:        a.Status.Wire(),
		PaymentStatus: string(a.PaymentStatus),
	}, nil
}

// Wire returns the PATCH body holding only the supplied fields.
func (ap AppointmentPatch) Wire(loc *time.Location) (map[string]any, error) {
	body := map[string]any{}
	if ap.Date != nil && ap.Time != nil {
		date, clock, err := wireSchedule(*ap.Date, *ap.Time, loc)
		if err != nil {
			return nil, err
		}
		body["date"] = date
		body["time"] = clock
	}
	if ap.PatientID != nil {
		body["patient"] = shape.ID(*ap.PatientID)
	}
	if ap.DoctorID != nil {
		body["doctor"] = shape.ID(*ap.DoctorID)
	}
	if ap.Reason != nil {
		body["reason"] = *ap.Reason
	}
	if ap.Status != nil {
		body["status"] = NormalizeStatus(string(*ap.Status)).Wire()
	}
	if ap.PaymentStatus != nil {
		body["payment_status"] = string(identity.NormalizePaymentStatus(string(*ap.PaymentStatus)))
	}
	return body, nil
}

// wireSchedule converts a local date and time of day into the backend's ISO
// datetime plus HH:MM:SS, both taken from the same UTC instant.
func wireSchedule(date, clock string, loc *time.Location) (string, string, error) {
	t, ok := combine(date, clock, loc)
	if !ok {
		return "", "", fmt.Errorf("invalid appointment schedule %q %q", date, clock)
	}
	t = t.UTC()
	return t.Format(time.RFC3339), t.Format("15:04:05"), nil
}

// clockOf trims an HH:MM:SS value to HH:MM.
func clockOf(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 5 && s[2] == ':' {
		return s[:5]
	}
	return s
}
