package identity

import (
	"time"

	"github.com/hms/hms/pkg/shape"
)

// patientWire is the backend patient representation.
type patientWire struct {
	ID                           shape.Text `json:"id"`
	FirstName                    shape.Text `json:"first_name"`
	LastName                     shape.Text `json:"last_name"`
	Email                        shape.Text `json:"email"`
	Phone                        shape.Text `json:"phone"`
	DateOfBirth                  shape.Text `json:"date_of_birth"`
	Gender                       shape.Text `json:"gender"`
	Address                      shape.Text `json:"address"`
	EmergencyContactName         shape.Text `json:"emergency_contact_name"`
	EmergencyContactPhone        shape.Text `json:"emergency_contact_phone"`
	EmergencyContactRelationship shape.Text `json:"emergency_contact_relationship"`
	BloodType                    shape.Text `json:"blood_type"`
	Allergies                    shape.Text `json:"allergies"`
	MedicalHistory               shape.Text `json:"medical_history"`
	PaymentStatus                shape.Text `json:"payment_status"`
	CreatedAt                    shape.Text `json:"created_at"`
	UpdatedAt                    shape.Text `json:"updated_at"`
}

func (w patientWire) toModel() Patient {
	created, _ := shape.ParseTime(w.CreatedAt.String(), time.UTC)
	updated, ok := shape.ParseTime(w.UpdatedAt.String(), time.UTC)
	if !ok {
		updated = created
	}
	return Patient{
		ID:          w.ID.String(),
		FirstName:   w.FirstName.String(),
		LastName:    w.LastName.String(),
		Email:       w.Email.String(),
		Phone:       w.Phone.String(),
		DateOfBirth: w.DateOfBirth.String(),
		Gender:      w.Gender.String(),
		Address:     w.Address.String(),
		EmergencyContact: EmergencyContact{
			Name:         w.EmergencyContactName.String(),
			Phone:        w.EmergencyContactPhone.String(),
			Relationship: w.EmergencyContactRelationship.String(),
		},
		BloodType:      w.BloodType.String(),
		Allergies:      w.Allergies.String(),
		MedicalHistory: w.MedicalHistory.String(),
		PaymentStatus:  PaymentStatus(w.PaymentStatus.String()),
		CreatedAt:      created,
		UpdatedAt:      updated,
	}.Normalized()
}

// patientPayload is the create body. Email is nullable and unique on the
// server, so an empty email is sent as null.
type patientPayload struct {
	FirstName                    string  `json:"first_name"`
	LastName                     string  `json:"last_name"`
	Email                        *string `json:"email"`
	Phone                        string  `json:"phone"`
	DateOfBirth                  string  `json:"date_of_birth"`
	Gender                       string  `json:"gender"`
	Address                      string  `json:"address"`
	EmergencyContactName         string  `json:"emergency_contact_name"`
	EmergencyContactPhone        string  `json:"emergency_contact_phone"`
	EmergencyContactRelationship string  `json:"emergency_contact_relationship"`
	BloodType                    string  `json:"blood_type,omitempty"`
	Allergies                    string  `json:"allergies,omitempty"`
	MedicalHistory               string  `json:"medical_history,omitempty"`
	PaymentStatus                string  `json:"payment_status"`
}

func newPatientPayload(p Patient) patientPayload {
	p = p.Normalized()
	var email *string
	if p.Email != "" {
		email = &p.Email
	}
	return patientPayload{
		FirstName:                    p.FirstName,
		LastName:                     p.LastName,
		Email:                        email,
		Phone:                        p.Phone,
		DateOfBirth:                  p.DateOfBirth,
		Gender:                       p.Gender,
		Address:                      p.Address,
		EmergencyContactName:         p.EmergencyContact.Name,
		EmergencyContactPhone:        p.EmergencyContact.Phone,
		EmergencyContactRelationship: p.EmergencyContact.Relationship,
		BloodType:                    p.BloodType,
		Allergies:                    p.Allergies,
		MedicalHistory:               p.MedicalHistory,
		PaymentStatus:                string(p.PaymentStatus),
	}
}

// Wire returns the PATCH body holding only the supplied fields.
func (pp PatientPatch) Wire() map[string]any {
	body := map[string]any{}
	putString(body, "first_name", pp.FirstName)
	putString(body, "last_name", pp.LastName)
	if pp.Email != nil {
		if *pp.Email == "" {
			body["email"] = nil
		} else {
			body["email"] = *pp.Email
		}
	}
	putString(body, "phone", pp.Phone)
	putString(body, "date_of_birth", pp.DateOfBirth)
	if pp.Gender != nil {
		body["gender"] = NormalizeGender(*pp.Gender)
	}
	putString(body, "address", pp.Address)
	if pp.EmergencyContact != nil {
		body["emergency_contact_name"] = pp.EmergencyContact.Name
		body["emergency_contact_phone"] = pp.EmergencyContact.Phone
		rel := pp.EmergencyContact.Relationship
		if rel == "" {
			rel = DefaultRelationship
		}
		body["emergency_contact_relationship"] = rel
	}
	putString(body, "blood_type", pp.BloodType)
	putString(body, "allergies", pp.Allergies)
	putString(body, "medical_history", pp.MedicalHistory)
	if pp.PaymentStatus != nil {
		body["payment_status"] = string(NormalizePaymentStatus(string(*pp.PaymentStatus)))
	}
	return body
}

// userWire is the backend user representation, shared by the users list and
// the login response.
type userWire struct {
	ID             shape.Text `json:"id"`
	Email          shape.Text `json:"email"`
	Role           shape.Text `json:"role"`
	Name           shape.Text `json:"name"`
	FirstName      shape.Text `json:"first_name"`
	LastName       shape.Text `json:"last_name"`
	Specialization shape.Text `json:"specialization"`
	Phone          shape.Text `json:"phone"`
	Address        shape.Text `json:"address"`
	LicenseNumber  shape.Text `json:"license_number"`
	CreatedAt      shape.Text `json:"created_at"`
	UpdatedAt      shape.Text `json:"updated_at"`
}

func (w userWire) toStaff() Staff {
	created, _ := shape.ParseTime(w.CreatedAt.String(), time.UTC)
	updated, ok := shape.ParseTime(w.UpdatedAt.String(), time.UTC)
	if !ok {
		updated = created
	}
	return Staff{
		ID:             w.ID.String(),
		Name:           w.Name.String(),
		FirstName:      w.FirstName.String(),
		LastName:       w.LastName.String(),
		Email:          w.Email.String(),
		Phone:          w.Phone.String(),
		Role:           Role(w.Role.String()),
		Address:        w.Address.String(),
		Specialization: w.Specialization.String(),
		LicenseNumber:  w.LicenseNumber.String(),
		CreatedAt:      created,
		UpdatedAt:      updated,
	}.Normalized()
}

func (w userWire) toUser(now time.Time) User {
	s := w.toStaff()
	u := User{
		ID:             s.ID,
		Email:          s.Email,
		Name:           s.Name,
		Role:           s.Role,
		Specialization: s.Specialization,
		Phone:          s.Phone,
		Address:        s.Address,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	return u
}

// Wire returns the PATCH body for a user update.
func (sp StaffPatch) Wire() map[string]any {
	body := map[string]any{}
	name := sp.Name
	if name == nil && (sp.FirstName != nil || sp.LastName != nil) {
		var first, last string
		if sp.FirstName != nil {
			first = *sp.FirstName
		}
		if sp.LastName != nil {
			last = *sp.LastName
		}
		joined := joinName(first, last)
		name = &joined
	}
	putString(body, "name", name)
	putString(body, "email", sp.Email)
	putString(body, "phone", sp.Phone)
	putString(body, "address", sp.Address)
	putString(body, "specialization", sp.Specialization)
	if sp.Role != nil {
		body["role"] = string(NormalizeRole(string(*sp.Role)))
	}
	return body
}

// loginWire is the login response: the user fields inline plus a token.
type loginWire struct {
	userWire
	Message shape.Text `json:"message"`
	Token   shape.Text `json:"token"`
	Key     shape.Text `json:"key"`
}

func (w loginWire) token() string {
	if t := w.Token.String(); t != "" {
		return t
	}
	return w.Key.String()
}

type registerWire struct {
	Message shape.Text `json:"message"`
	Token   shape.Text `json:"token"`
}

func putString(body map[string]any, key string, v *string) {
	if v != nil {
		body[key] = *v
	}
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
