package clinical

import (
	"strings"
	"time"

	"github.com/hms/hms/pkg/shape"
)

// PrescriptionStatus is the dispensing state of a prescription.
type PrescriptionStatus string

const (
	PrescriptionPending            PrescriptionStatus = "pending"
	PrescriptionDispensed          PrescriptionStatus = "dispensed"
	PrescriptionPartiallyDispensed PrescriptionStatus = "partially_dispensed"
	PrescriptionCancelled          PrescriptionStatus = "cancelled"
)

// NormalizePrescriptionStatus lowercases s and maps empty to pending.
func NormalizePrescriptionStatus(s string) PrescriptionStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PrescriptionPending
	}
	return PrescriptionStatus(s)
}

// PrescriptionItem is one dispensable line of a prescription. Prices are
// decimal strings.
type PrescriptionItem struct {
	MedicineID        string `json:"medicineId"`
	Quantity          int    `json:"quantity"`
	Dosage            string `json:"dosage,omitempty"`
	Frequency         string `json:"frequency,omitempty"`
	Duration          string `json:"duration,omitempty"`
	Instructions      string `json:"instructions,omitempty"`
	DispensedQuantity int    `json:"dispensedQuantity,omitempty"`
	UnitPrice         string `json:"unitPrice,omitempty"`
	TotalPrice        string `json:"totalPrice,omitempty"`
}

// Prescription is a pharmacy order written for a patient. Prescriptions are
// kept on the client only; the backend has no resource for them.
type Prescription struct {
	ID               string             `json:"id"`
	PatientID        string             `json:"patientId"`
	DoctorID         string             `json:"doctorId"`
	Medications      []PrescriptionItem `json:"medications"`
	Status           PrescriptionStatus `json:"status"`
	PrescriptionDate string             `json:"prescriptionDate"`
	DispensedDate    string             `json:"dispensedDate,omitempty"`
	DispensedBy      string             `json:"dispensedBy,omitempty"`
	Notes            string             `json:"notes,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

func (p Prescription) Key() string { return p.ID }

func (p Prescription) WithKey(id string) Prescription {
	p.ID = id
	return p
}

func (p Prescription) Touched(at time.Time) Prescription {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = at
	}
	p.UpdatedAt = at
	return p
}

func (p Prescription) Normalized() Prescription {
	p.ID = shape.ID(p.ID)
	p.PatientID = shape.ID(p.PatientID)
	p.DoctorID = shape.ID(p.DoctorID)
	p.Status = NormalizePrescriptionStatus(string(p.Status))
	items := make([]PrescriptionItem, 0, len(p.Medications))
	for _, it := range p.Medications {
		it.MedicineID = shape.ID(it.MedicineID)
		items = append(items, it)
	}
	p.Medications = items
	return p
}

// Dispensed reports whether every line was handed out.
func (p Prescription) Dispensed() bool { return p.Status == PrescriptionDispensed }

// PrescriptionPatch is a shallow update.
type PrescriptionPatch struct {
	Medications   *[]PrescriptionItem
	Status        *PrescriptionStatus
	DispensedDate *string
	DispensedBy   *string
	Notes         *string
}

func (pp PrescriptionPatch) Apply(p Prescription) Prescription {
	if pp.Medications != nil {
		p.Medications = append([]PrescriptionItem{}, (*pp.Medications)...)
	}
	if pp.Status != nil {
		p.Status = NormalizePrescriptionStatus(string(*pp.Status))
	}
	setString(&p.DispensedDate, pp.DispensedDate)
	setString(&p.DispensedBy, pp.DispensedBy)
	setString(&p.Notes, pp.Notes)
	return p
}
