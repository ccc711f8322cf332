package clinical

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/hms/hms/pkg/shape"
)

// PrescribedMedicine is one entry of a diagnosis prescription. Only Name is
// reliably present; the other fields depend on which client wrote the record.
type PrescribedMedicine struct {
	MedicineID string `json:"medicineId,omitempty"`
	Name       string `json:"name"`
	Dosage     string `json:"dosage,omitempty"`
	Frequency  string `json:"frequency,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// UnmarshalJSON accepts both the canonical form and the two wire formats:
// {dosage, duration} and {dose, duration_days}. A bare string is a name.
func (m *PrescribedMedicine) UnmarshalJSON(data []byte) error {
	var name string
	if json.Unmarshal(data, &name) == nil {
		*m = PrescribedMedicine{Name: strings.TrimSpace(name)}
		return nil
	}
	var w struct {
		MedicineID   shape.Text `json:"medicine_id"`
		MedicineID2  shape.Text `json:"medicineId"`
		Name         shape.Text `json:"name"`
		Dosage       shape.Text `json:"dosage"`
		Dose         shape.Text `json:"dose"`
		Frequency    shape.Text `json:"frequency"`
		Duration     shape.Text `json:"duration"`
		DurationDays shape.Text `json:"duration_days"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		*m = PrescribedMedicine{}
		return nil
	}
	*m = PrescribedMedicine{
		MedicineID: shape.ID(first(w.MedicineID.String(), w.MedicineID2.String())),
		Name:       strings.TrimSpace(w.Name.String()),
		Dosage:     first(w.Dosage.String(), w.Dose.String()),
		Frequency:  w.Frequency.String(),
		Duration:   first(w.Duration.String(), days(w.DurationDays.String())),
	}
	return nil
}

// MarshalJSON writes the canonical camelCase form; encoding through an alias
// type keeps the custom decoder out of the loop.
func (m PrescribedMedicine) MarshalJSON() ([]byte, error) {
	type plain PrescribedMedicine
	return json.Marshal(plain(m))
}

// Prescriptions decodes a prescription list that may arrive as an array of
// objects or strings, a JSON encoded string or a comma separated list of
// names. Entries without a name are dropped.
type Prescriptions []PrescribedMedicine

func (p *Prescriptions) UnmarshalJSON(data []byte) error {
	var items []PrescribedMedicine
	if err := json.Unmarshal(data, &items); err != nil {
		items = nil
		var raw string
		if json.Unmarshal(data, &raw) == nil {
			if json.Unmarshal([]byte(raw), &items) != nil {
				items = nil
				for _, name := range shape.NormalizeToArray(raw) {
					items = append(items, PrescribedMedicine{Name: name})
				}
			}
		}
	}
	out := make(Prescriptions, 0, len(items))
	for _, it := range items {
		if it.Name != "" {
			out = append(out, it)
		}
	}
	*p = out
	return nil
}

// Diagnosis is the canonical diagnosis record. The backend keeps only a
// creation timestamp; UpdatedAt is maintained by the client.
type Diagnosis struct {
	ID               string        `json:"id"`
	PatientID        string        `json:"patientId"`
	PatientName      string        `json:"patientName,omitempty"`
	DoctorID         string        `json:"doctorId,omitempty"`
	DoctorName       string        `json:"doctorName,omitempty"`
	AppointmentID    string        `json:"appointmentId,omitempty"`
	Symptoms         string        `json:"symptoms"`
	Diagnosis        string        `json:"diagnosis"`
	TreatmentPlan    string        `json:"treatmentPlan"`
	Medicines        Prescriptions `json:"prescribedMedicines"`
	Notes            string        `json:"notes,omitempty"`
	FollowUpRequired bool          `json:"followUpRequired"`
	FollowUpDate     string        `json:"followUpDate,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func (d Diagnosis) Key() string { return d.ID }

func (d Diagnosis) WithKey(id string) Diagnosis {
	d.ID = id
	return d
}

func (d Diagnosis) Touched(at time.Time) Diagnosis {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = at
	}
	d.UpdatedAt = at
	return d
}

func (d Diagnosis) Normalized() Diagnosis {
	d.ID = shape.ID(d.ID)
	d.PatientID = shape.ID(d.PatientID)
	d.DoctorID = shape.ID(d.DoctorID)
	d.AppointmentID = shape.ID(d.AppointmentID)
	if d.Medicines == nil {
		d.Medicines = Prescriptions{}
	}
	return d
}

// Medications returns the prescribed medicine names in order.
func (d Diagnosis) Medications() []string {
	out := make([]string, 0, len(d.Medicines))
	for _, m := range d.Medicines {
		out = append(out, m.Name)
	}
	return out
}

// KeepLocal copies the fields the backend does not store from prev.
func (d Diagnosis) KeepLocal(prev Diagnosis) Diagnosis {
	if d.AppointmentID == "" {
		d.AppointmentID = shape.ID(prev.AppointmentID)
	}
	if !d.FollowUpRequired {
		d.FollowUpRequired = prev.FollowUpRequired
	}
	if d.FollowUpDate == "" {
		d.FollowUpDate = prev.FollowUpDate
	}
	return d
}

// DiagnosisPatch is a shallow update.
type DiagnosisPatch struct {
	PatientID        *string
	DoctorID         *string
	Symptoms         *string
	Diagnosis        *string
	TreatmentPlan    *string
	Medicines        *Prescriptions
	Notes            *string
	FollowUpRequired *bool
	FollowUpDate     *string
}

func (dp DiagnosisPatch) Apply(d Diagnosis) Diagnosis {
	setString(&d.PatientID, dp.PatientID)
	setString(&d.DoctorID, dp.DoctorID)
	setString(&d.Symptoms, dp.Symptoms)
	setString(&d.Diagnosis, dp.Diagnosis)
	setString(&d.TreatmentPlan, dp.TreatmentPlan)
	setString(&d.Notes, dp.Notes)
	setString(&d.FollowUpDate, dp.FollowUpDate)
	if dp.Medicines != nil {
		d.Medicines = append(Prescriptions{}, (*dp.Medicines)...)
	}
	if dp.FollowUpRequired != nil {
		d.FollowUpRequired = *dp.FollowUpRequired
	}
	return d
}

// PrescribeNames builds a prescription list from bare medicine names.
func PrescribeNames(names ...string) Prescriptions {
	out := make(Prescriptions, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, PrescribedMedicine{Name: n})
		}
	}
	return out
}

func first(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func days(n string) string {
	if n == "" || n == "0" {
		return ""
	}
	if n == "1" {
		return "1 day"
	}
	return n + " days"
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
