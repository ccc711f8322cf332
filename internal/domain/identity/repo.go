package identity

import "context"

type PatientRepository interface {
	List(ctx context.Context) ([]Patient, error)
	Get(ctx context.Context, id string) (Patient, error)
	Create(ctx context.Context, p Patient) (Patient, error)
	Update(ctx context.Context, id string, patch PatientPatch) (Patient, error)
	Delete(ctx context.Context, id string) error
}

type StaffRepository interface {
	List(ctx context.Context) ([]Staff, error)
	Get(ctx context.Context, id string) (Staff, error)
	// Register creates an account. The backend returns no entity, only a
	// message and token.
	Register(ctx context.Context, n NewStaff) error
	Update(ctx context.Context, id string, patch StaffPatch) (Staff, error)
	Delete(ctx context.Context, id string) error
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
}
