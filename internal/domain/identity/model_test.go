package identity

import (
	"encoding/json"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

// ---- Roles ----

func TestNormalizeRole(t *testing.T) {
	tests := map[string]Role{
		"admin":         RoleAdmin,
		"Administrator": RoleAdmin,
		"doctor":        RoleDoctor,
		"pharmacy":      RolePharmacist,
		" pharmacist ":  RolePharmacist,
		"reception":     RoleReceptionist,
		"receptionist":  RoleReceptionist,
		"nurse":         RolePharmacist,
		"":              RolePharmacist,
	}
	for in, want := range tests {
		if got := NormalizeRole(in); got != want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles {
		if !r.Valid() {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if Role("nurse").Valid() {
		t.Error("expected nurse to be invalid")
	}
}

// ---- Patient ----

func TestPatient_Normalized(t *testing.T) {
	p := Patient{ID: " 12 ", Gender: "FEMALE", PaymentStatus: "unknown"}.Normalized()
	if p.ID != "12" {
		t.Errorf("expected id 12, got %q", p.ID)
	}
	if p.Gender != GenderFemale {
		t.Errorf("expected female, got %q", p.Gender)
	}
	if p.PaymentStatus != PaymentNotPaid {
		t.Errorf("expected not_paid, got %q", p.PaymentStatus)
	}
	if p.EmergencyContact.Relationship != DefaultRelationship {
		t.Errorf("expected default relationship, got %q", p.EmergencyContact.Relationship)
	}
	if got := (Patient{Gender: "x"}).Normalized().Gender; got != GenderOther {
		t.Errorf("expected other for unknown gender, got %q", got)
	}
}

func TestPatient_DisplayName(t *testing.T) {
	if got := (Patient{FirstName: "Ada", LastName: "Lovelace"}).DisplayName(); got != "Ada Lovelace" {
		t.Errorf("expected full name, got %q", got)
	}
	if got := (Patient{Email: "a@b.c", ID: "4"}).DisplayName(); got != "a@b.c" {
		t.Errorf("expected email fallback, got %q", got)
	}
	if got := (Patient{ID: "4"}).DisplayName(); got != "4" {
		t.Errorf("expected id fallback, got %q", got)
	}
	if got := (Patient{}).DisplayName(); got != "Unknown" {
		t.Errorf("expected Unknown, got %q", got)
	}
}

func TestPatient_Touched(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	p := Patient{}.Touched(t0).Touched(t1)
	if !p.CreatedAt.Equal(t0) || !p.UpdatedAt.Equal(t1) {
		t.Errorf("unexpected timestamps created=%v updated=%v", p.CreatedAt, p.UpdatedAt)
	}
}

func TestPatientPatch_ApplyAndWire(t *testing.T) {
	paid := PaymentPaid
	patch := PatientPatch{Phone: strPtr("555"), PaymentStatus: &paid, Email: strPtr("")}
	p := patch.Apply(Patient{ID: "1", FirstName: "A", Phone: "111", Email: "old@x"})
	if p.Phone != "555" || p.FirstName != "A" || p.PaymentStatus != PaymentPaid || p.Email != "" {
		t.Errorf("unexpected patched patient %+v", p)
	}

	body := patch.Wire()
	if len(body) != 3 {
		t.Fatalf("expected only supplied keys, got %v", body)
	}
	if body["phone"] != "555" || body["payment_status"] != "paid" {
		t.Errorf("unexpected wire body %v", body)
	}
	if v, ok := body["email"]; !ok || v != nil {
		t.Errorf("expected empty email sent as null, got %v", v)
	}
}

func TestPatientWire_ToModel(t *testing.T) {
	raw := `{
		"id": 7, "first_name": "Grace", "last_name": "Hopper", "email": null,
		"gender": "Female", "emergency_contact_name": "Bob",
		"emergency_contact_phone": 5551234, "payment_status": "paid",
		"created_at": "2024-03-01T10:00:00Z"
	}`
	var w patientWire
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p := w.toModel()
	if p.ID != "7" || p.FullName() != "Grace Hopper" || p.Email != "" {
		t.Errorf("unexpected patient %+v", p)
	}
	if p.EmergencyContact.Phone != "5551234" || p.EmergencyContact.Relationship != DefaultRelationship {
		t.Errorf("unexpected emergency contact %+v", p.EmergencyContact)
	}
	if p.CreatedAt.IsZero() || !p.UpdatedAt.Equal(p.CreatedAt) {
		t.Errorf("expected updated to fall back to created, got %v / %v", p.CreatedAt, p.UpdatedAt)
	}
}

func TestNewPatientPayload_NullEmail(t *testing.T) {
	data, err := json.Marshal(newPatientPayload(Patient{FirstName: "A"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if v, ok := m["email"]; !ok || v != nil {
		t.Errorf("expected email null, got %v", v)
	}
	if m["payment_status"] != "not_paid" || m["gender"] != "other" {
		t.Errorf("expected defaults, got %v", m)
	}
}

// ---- Staff ----

func TestStaff_Normalized(t *testing.T) {
	s := Staff{ID: "3", Name: "Jane Q Public", Role: "reception"}.Normalized()
	if s.FirstName != "Jane" || s.LastName != "Q Public" {
		t.Errorf("expected split name, got %q / %q", s.FirstName, s.LastName)
	}
	if s.Role != RoleReceptionist {
		t.Errorf("expected receptionist, got %q", s.Role)
	}

	s = Staff{FirstName: "John", LastName: "Doe"}.Normalized()
	if s.Name != "John Doe" {
		t.Errorf("expected joined name, got %q", s.Name)
	}
}

func TestStaffPatch_NameFromParts(t *testing.T) {
	patch := StaffPatch{FirstName: strPtr("Ann")}
	s := patch.Apply(Staff{Name: "Old Name", FirstName: "Old", LastName: "Name"})
	if s.Name != "Ann Name" {
		t.Errorf("expected recomputed name, got %q", s.Name)
	}
	if got := patch.Wire()["name"]; got != "Ann" {
		t.Errorf("expected wire name Ann, got %v", got)
	}
}

func TestUserPatch_Apply(t *testing.T) {
	role := Role("Administrator")
	u := UserPatch{Phone: strPtr("9"), Role: &role}.Apply(User{ID: "1", Name: "N", Role: RoleDoctor})
	if u.Phone != "9" || u.Name != "N" || u.Role != RoleAdmin {
		t.Errorf("unexpected user %+v", u)
	}
}

func TestUserWire_ToUserStampsMissingTimes(t *testing.T) {
	now := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	u := userWire{ID: "2", Role: "pharmacy"}.toUser(now)
	if u.Role != RolePharmacist {
		t.Errorf("expected pharmacist, got %q", u.Role)
	}
	if !u.CreatedAt.Equal(now) || !u.UpdatedAt.Equal(now) {
		t.Errorf("expected timestamps stamped with now, got %v / %v", u.CreatedAt, u.UpdatedAt)
	}
}
