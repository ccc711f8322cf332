package identity

import (
	"strings"
	"time"

	"github.com/hms/hms/pkg/shape"
)

// PaymentStatus is the billing state of a patient or appointment.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentNotPaid PaymentStatus = "not_paid"
)

// NormalizePaymentStatus maps anything other than "paid" to not_paid.
func NormalizePaymentStatus(s string) PaymentStatus {
	if PaymentStatus(strings.ToLower(strings.TrimSpace(s))) == PaymentPaid {
		return PaymentPaid
	}
	return PaymentNotPaid
}

// Gender values accepted by the backend.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// NormalizeGender lowercases g and maps unknown values to other.
func NormalizeGender(g string) string {
	switch g = strings.ToLower(strings.TrimSpace(g)); g {
	case GenderMale, GenderFemale:
		return g
	}
	return GenderOther
}

// DefaultRelationship is used when the emergency contact relationship is absent.
const DefaultRelationship = "Not specified"

// EmergencyContact is a patient's contact person.
type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// Patient is the canonical patient record.
type Patient struct {
	ID               string           `json:"id"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	DateOfBirth      string           `json:"dateOfBirth"`
	Gender           string           `json:"gender"`
	Address          string           `json:"address"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
	BloodType        string           `json:"bloodType,omitempty"`
	Allergies        string           `json:"allergies,omitempty"`
	MedicalHistory   string           `json:"medicalHistory,omitempty"`
	PaymentStatus    PaymentStatus    `json:"paymentStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (p Patient) Key() string { return p.ID }

func (p Patient) WithKey(id string) Patient {
	p.ID = id
	return p
}

// Touched stamps the update time, and the creation time when missing.
func (p Patient) Touched(at time.Time) Patient {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = at
	}
	p.UpdatedAt = at
	return p
}

// Normalized returns p with a canonical id and defaulted enumerations.
func (p Patient) Normalized() Patient {
	p.ID = shape.ID(p.ID)
	p.Gender = NormalizeGender(p.Gender)
	p.PaymentStatus = NormalizePaymentStatus(string(p.PaymentStatus))
	if strings.TrimSpace(p.EmergencyContact.Relationship) == "" {
		p.EmergencyContact.Relationship = DefaultRelationship
	}
	return p
}

// FullName joins first and last name.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// DisplayName follows person name precedence: full name, then email, then id.
func (p Patient) DisplayName() string {
	return PersonName(map[string]any{
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"email":      p.Email,
		"id":         p.ID,
	})
}

// PatientPatch is a shallow update. Nil fields are left unchanged.
type PatientPatch struct {
	FirstName        *string
	LastName         *string
	Email            *string
	Phone            *string
	DateOfBirth      *string
	Gender           *string
	Address          *string
	EmergencyContact *EmergencyContact
	BloodType        *string
	Allergies        *string
	MedicalHistory   *string
	PaymentStatus    *PaymentStatus
}

// Apply merges the supplied fields into p.
func (pp PatientPatch) Apply(p Patient) Patient {
	setString(&p.FirstName, pp.FirstName)
	setString(&p.LastName, pp.LastName)
	setString(&p.Email, pp.Email)
	setString(&p.Phone, pp.Phone)
	setString(&p.DateOfBirth, pp.DateOfBirth)
	setString(&p.Gender, pp.Gender)
	setString(&p.Address, pp.Address)
	setString(&p.BloodType, pp.BloodType)
	setString(&p.Allergies, pp.Allergies)
	setString(&p.MedicalHistory, pp.MedicalHistory)
	if pp.EmergencyContact != nil {
		p.EmergencyContact = *pp.EmergencyContact
	}
	if pp.PaymentStatus != nil {
		p.PaymentStatus = *pp.PaymentStatus
	}
	return p
}

// PersonName derives a display name from a loosely typed person record:
// name, then first and last name, then email, then id.
func PersonName(m map[string]any) string {
	if name := shape.DisplayName(m); name != "" {
		return name
	}
	if id := shape.ID(m["id"]); id != "" {
		return id
	}
	return "Unknown"
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
