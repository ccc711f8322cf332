package identity

import (
	"strings"
	"time"

	"github.com/hms/hms/pkg/shape"
)

// Role is the closed set of staff roles.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RolePharmacist   Role = "pharmacist"
	RoleReceptionist Role = "receptionist"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleDoctor, RolePharmacist, RoleReceptionist}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePharmacist, RoleReceptionist:
		return true
	}
	return false
}

// NormalizeRole maps server role spellings onto Role. Unknown values become
// pharmacist, the least privileged dashboard.
func NormalizeRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrator":
		return RoleAdmin
	case "doctor":
		return RoleDoctor
	case "pharmacist", "pharmacy":
		return RolePharmacist
	case "receptionist", "reception":
		return RoleReceptionist
	}
	return RolePharmacist
}

// Staff is a hospital user as listed by the users endpoint.
type Staff struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Role           Role      `json:"role"`
	Address        string    `json:"address"`
	Specialization string    `json:"specialization,omitempty"`
	LicenseNumber  string    `json:"licenseNumber,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (s Staff) Key() string { return s.ID }

func (s Staff) WithKey(id string) Staff {
	s.ID = id
	return s
}

func (s Staff) Touched(at time.Time) Staff {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = at
	}
	s.UpdatedAt = at
	return s
}

// Normalized canonicalizes the id and role and fills whichever of Name or
// FirstName/LastName is missing from the other.
func (s Staff) Normalized() Staff {
	s.ID = shape.ID(s.ID)
	s.Role = NormalizeRole(string(s.Role))
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		s.Name = strings.TrimSpace(s.FirstName + " " + s.LastName)
	}
	if s.FirstName == "" && s.LastName == "" && s.Name != "" {
		s.FirstName, s.LastName = splitName(s.Name)
	}
	return s
}

// DisplayName follows person name precedence.
func (s Staff) DisplayName() string {
	return PersonName(map[string]any{
		"name":       s.Name,
		"first_name": s.FirstName,
		"last_name":  s.LastName,
		"email":      s.Email,
		"id":         s.ID,
	})
}

// StaffPatch is a shallow update of a staff member.
type StaffPatch struct {
	Name           *string
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Role           *Role
	Address        *string
	Specialization *string
	LicenseNumber  *string
}

func (sp StaffPatch) Apply(s Staff) Staff {
	setString(&s.Name, sp.Name)
	setString(&s.FirstName, sp.FirstName)
	setString(&s.LastName, sp.LastName)
	setString(&s.Email, sp.Email)
	setString(&s.Phone, sp.Phone)
	setString(&s.Address, sp.Address)
	setString(&s.Specialization, sp.Specialization)
	setString(&s.LicenseNumber, sp.LicenseNumber)
	if sp.Role != nil {
		s.Role = *sp.Role
	}
	if sp.Name == nil && (sp.FirstName != nil || sp.LastName != nil) {
		s.Name = strings.TrimSpace(s.FirstName + " " + s.LastName)
	}
	return s
}

// NewStaff is the registration request for a staff member. The backend
// creates users through the register endpoint, which takes a password.
type NewStaff struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Role           Role   `json:"role"`
	Specialization string `json:"specialization,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
}

// Staff returns the optimistic cache entry for the request.
func (n NewStaff) Staff() Staff {
	return Staff{
		Name:           n.Name,
		Email:          n.Email,
		Role:           n.Role,
		Specialization: n.Specialization,
		Phone:          n.Phone,
		Address:        n.Address,
	}.Normalized()
}

// User is the authenticated account held by the session.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	Specialization string    `json:"specialization,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserPatch is a local shallow update of the session user.
type UserPatch struct {
	Email          *string `json:"email,omitempty"`
	Name           *string `json:"name,omitempty"`
	Role           *Role   `json:"role,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Address        *string `json:"address,omitempty"`
}

func (up UserPatch) Apply(u User) User {
	setString(&u.Email, up.Email)
	setString(&u.Name, up.Name)
	setString(&u.Specialization, up.Specialization)
	setString(&u.Phone, up.Phone)
	setString(&u.Address, up.Address)
	if up.Role != nil {
		u.Role = NormalizeRole(string(*up.Role))
	}
	return u
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
