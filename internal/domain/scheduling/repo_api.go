package scheduling

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hms/hms/internal/platform/apiclient"
)

// Client reads and writes appointments. Calendar dates and times of day are
// interpreted in loc.
type Client struct {
	res *apiclient.Resource[appointmentWire]
	loc *time.Location
}

func NewClient(c *apiclient.Client, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		res: apiclient.NewResource[appointmentWire](c, "appointments", http.MethodPatch),
		loc: loc,
	}
}

// Location returns the zone used for dates and times of day.
func (ac *Client) Location() *time.Location {
	return ac.loc
}

func (ac *Client) List(ctx context.Context) ([]Appointment, error) {
	ws, err := ac.res.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel(ac.loc))
	}
	return out, nil
}

func (ac *Client) Get(ctx context.Context, id string) (Appointment, error) {
	w, err := ac.res.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	return w.toModel(ac.loc), nil
}

// Create posts a. Duration, type and notes are client-side only and are
// carried over onto the returned entity.
func (ac *Client) Create(ctx context.Context, a Appointment) (Appointment, error) {
	payload, err := newAppointmentPayload(a, ac.loc)
	if err != nil {
		return Appointment{}, fmt.Errorf("create appointments: %w", err)
	}
	w, err := ac.res.Create(ctx, payload)
	if err != nil {
		return Appointment{}, err
	}
	return carryLocal(w.toModel(ac.loc), a.Duration, a.Type, a.Notes), nil
}

func (ac *Client) Update(ctx context.Context, id string, patch AppointmentPatch) (Appointment, error) {
	body, err := patch.Wire(ac.loc)
	if err != nil {
		return Appointment{}, fmt.Errorf("update appointments %s: %w", id, err)
	}
	w, err := ac.res.Update(ctx, id, body)
	if err != nil {
		return Appointment{}, err
	}
	var (
		duration int
		typ      Type
		notes    string
	)
	if patch.Duration != nil {
		duration = *patch.Duration
	}
	if patch.Type != nil {
		typ = *patch.Type
	}
	if patch.Notes != nil {
		notes = *patch.Notes
	}
	return carryLocal(w.toModel(ac.loc), duration, typ, notes), nil
}

func (ac *Client) Delete(ctx context.Context, id string) error {
	return ac.res.Remove(ctx, id)
}

func carryLocal(a Appointment, duration int, typ Type, notes string) Appointment {
	if duration > 0 {
		a.Duration = duration
	}
	if typ != "" {
		a.Type = typ
	}
	if a.Notes == "" {
		a.Notes = notes
	}
	return a
}
