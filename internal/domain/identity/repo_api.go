package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hms/hms/internal/platform/apiclient"
)

// -- Patients --

// PatientClient reads and writes patients through the backend API.
type PatientClient struct {
	res *apiclient.Resource[patientWire]
}

func NewPatientClient(c *apiclient.Client) *PatientClient {
	return &PatientClient{res: apiclient.NewResource[patientWire](c, "patients", http.MethodPatch)}
}

func (pc *PatientClient) List(ctx context.Context) ([]Patient, error) {
	ws, err := pc.res.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Patient, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (pc *PatientClient) Get(ctx context.Context, id string) (Patient, error) {
	w, err := pc.res.Get(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	return w.toModel(), nil
}

func (pc *PatientClient) Create(ctx context.Context, p Patient) (Patient, error) {
	w, err := pc.res.Create(ctx, newPatientPayload(p))
	if err != nil {
		return Patient{}, err
	}
	return w.toModel(), nil
}

func (pc *PatientClient) Update(ctx context.Context, id string, patch PatientPatch) (Patient, error) {
	w, err := pc.res.Update(ctx, id, patch.Wire())
	if err != nil {
		return Patient{}, err
	}
	return w.toModel(), nil
}

func (pc *PatientClient) Delete(ctx context.Context, id string) error {
	return pc.res.Remove(ctx, id)
}

// -- Staff --

const registerPath = "auth/register/"

// StaffClient manages hospital user accounts.
type StaffClient struct {
	res *apiclient.Resource[userWire]
}

func NewStaffClient(c *apiclient.Client) *StaffClient {
	return &StaffClient{res: apiclient.NewResource[userWire](c, "users", http.MethodPatch)}
}

func (sc *StaffClient) List(ctx context.Context) ([]Staff, error) {
	ws, err := sc.res.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Staff, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toStaff())
	}
	return out, nil
}

func (sc *StaffClient) Get(ctx context.Context, id string) (Staff, error) {
	w, err := sc.res.Get(ctx, id)
	if err != nil {
		return Staff{}, err
	}
	return w.toStaff(), nil
}

func (sc *StaffClient) Register(ctx context.Context, n NewStaff) error {
	if n.Email == "" || n.Password == "" {
		return fmt.Errorf("register staff: email and password are required")
	}
	n.Role = NormalizeRole(string(n.Role))
	var out registerWire
	if err := sc.res.Client().DoJSON(ctx, http.MethodPost, registerPath, n, &out); err != nil {
		return fmt.Errorf("register staff: %w", err)
	}
	return nil
}

func (sc *StaffClient) Update(ctx context.Context, id string, patch StaffPatch) (Staff, error) {
	w, err := sc.res.Update(ctx, id, patch.Wire())
	if err != nil {
		return Staff{}, err
	}
	return w.toStaff(), nil
}

func (sc *StaffClient) Delete(ctx context.Context, id string) error {
	return sc.res.Remove(ctx, id)
}

// -- Auth --

const loginPath = "auth/login/"

// ErrNoToken is returned when a login succeeds without issuing a token.
var ErrNoToken = errors.New("login: response carried no token")

// LoginResult is a successful credential exchange.
type LoginResult struct {
	User    User
	Token   string
	Message string
}

// AuthClient performs the login exchange.
type AuthClient struct {
	client *apiclient.Client
	now    func() time.Time
}

func NewAuthClient(c *apiclient.Client) *AuthClient {
	return &AuthClient{client: c, now: time.Now}
}

// Login posts the credentials. Any non-2xx response is returned as an
// *apiclient.APIError. A 2xx response without a token is an error too.
func (ac *AuthClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var w loginWire
	if err := ac.client.DoJSON(ctx, http.MethodPost, loginPath, body, &w); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	token := w.token()
	if token == "" {
		return LoginResult{}, ErrNoToken
	}
	u := w.userWire.toUser(ac.now().UTC())
	if u.Email == "" {
		u.Email = email
	}
	return LoginResult{User: u, Token: token, Message: w.Message.String()}, nil
}
