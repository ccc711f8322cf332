package clinical

import (
	"time"

	"github.com/hms/hms/pkg/shape"
)

type diagnosisWire struct {
	ID                  shape.Text    `json:"id"`
	Patient             shape.Ref     `json:"patient"`
	PatientName         shape.Text    `json:"patient_name"`
	Doctor              shape.Ref     `json:"doctor"`
	DoctorName          shape.Text    `json:"doctor_name"`
	Appointment         shape.Ref     `json:"appointment"`
	Symptoms            shape.Text    `json:"symptoms"`
	TreatmentPlan       shape.Text    `json:"treatment_plan"`
	Diagnosis           shape.Text    `json:"diagnosis"`
	PrescribedMedicines Prescriptions `json:"prescribed_medicines"`
	AdditionalNotes     shape.Text    `json:"additional_notes"`
	CreatedAt           shape.Text    `json:"created_at"`
}

func (w diagnosisWire) toModel() Diagnosis {
	patient := w.Patient.WithFallbackName(w.PatientName.String())
	doctor := w.Doctor.WithFallbackName(w.DoctorName.String())
	created, _ := shape.ParseTime(w.CreatedAt.String(), time.UTC)
	return Diagnosis{
		ID:            w.ID.String(),
		PatientID:     patient.ID,
		PatientName:   patient.Name,
		DoctorID:      doctor.ID,
		DoctorName:    doctor.Name,
		AppointmentID: w.Appointment.ID,
		Symptoms:      w.Symptoms.String(),
		Diagnosis:     w.Diagnosis.String(),
		TreatmentPlan: w.TreatmentPlan.String(),
		Medicines:     w.PrescribedMedicines,
		Notes:         w.AdditionalNotes.String(),
		CreatedAt:     created,
		UpdatedAt:     created,
	}.Normalized()
}

type prescriptionWire struct {
	MedicineID *int64 `json:"medicine_id,omitempty"`
	Name       string `json:"name"`
	Dosage     string `json:"dosage,omitempty"`
	Frequency  string `json:"frequency,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

func prescriptionsWire(ps Prescriptions) []prescriptionWire {
	out := make([]prescriptionWire, 0, len(ps))
	for _, p := range ps {
		pw := prescriptionWire{
			Name:      p.Name,
			Dosage:    p.Dosage,
			Frequency: p.Frequency,
			Duration:  p.Duration,
		}
		if n := shape.ToInt(p.MedicineID); n > 0 {
			id := int64(n)
			pw.MedicineID = &id
		}
		out = append(out, pw)
	}
	return out
}

type diagnosisPayload struct {
	Patient             string             `json:"patient"`
	Doctor              *string            `json:"doctor"`
	Symptoms            string             `json:"symptoms"`
	TreatmentPlan       string             `json:"treatment_plan"`
	Diagnosis           string             `json:"diagnosis"`
	PrescribedMedicines []prescriptionWire `json:"prescribed_medicines"`
	AdditionalNotes     *string            `json:"additional_notes"`
}

func newDiagnosisPayload(d Diagnosis) diagnosisPayload {
	d = d.Normalized()
	return diagnosisPayload{
		Patient:             d.PatientID,
		Doctor:              optional(d.DoctorID),
		Symptoms:            d.Symptoms,
		TreatmentPlan:       d.TreatmentPlan,
		Diagnosis:           d.Diagnosis,
		PrescribedMedicines: prescriptionsWire(d.Medicines),
		AdditionalNotes:     optional(d.Notes),
	}
}

// Wire returns the update body holding only the supplied fields.
func (dp DiagnosisPatch) Wire() map[string]any {
	body := map[string]any{}
	if dp.PatientID != nil {
		body["patient"] = shape.ID(*dp.PatientID)
	}
	if dp.DoctorID != nil {
		body["doctor"] = optional(shape.ID(*dp.DoctorID))
	}
	if dp.Symptoms != nil {
		body["symptoms"] = *dp.Symptoms
	}
	if dp.TreatmentPlan != nil {
		body["treatment_plan"] = *dp.TreatmentPlan
	}
	if dp.Diagnosis != nil {
		body["diagnosis"] = *dp.Diagnosis
	}
	if dp.Medicines != nil {
		body["prescribed_medicines"] = prescriptionsWire(*dp.Medicines)
	}
	if dp.Notes != nil {
		body["additional_notes"] = optional(*dp.Notes)
	}
	return body
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
