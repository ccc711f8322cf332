package clinical

import (
	"context"
	"net/http"

	"github.com/hms/hms/internal/platform/apiclient"
)

// Client reads and writes diagnoses. Updates use PUT.
type Client struct {
	res *apiclient.Resource[diagnosisWire]
}

func NewClient(c *apiclient.Client) *Client {
	return &Client{res: apiclient.NewResource[diagnosisWire](c, "diagnoses", http.MethodPut)}
}

func (dc *Client) List(ctx context.Context) ([]Diagnosis, error) {
	ws, err := dc.res.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Diagnosis, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (dc *Client) Get(ctx context.Context, id string) (Diagnosis, error) {
	w, err := dc.res.Get(ctx, id)
	if err != nil {
		return Diagnosis{}, err
	}
	return w.toModel(), nil
}

// Create posts d. Appointment and follow-up fields are client-side only and
// are kept on the returned entity.
func (dc *Client) Create(ctx context.Context, d Diagnosis) (Diagnosis, error) {
	w, err := dc.res.Create(ctx, newDiagnosisPayload(d))
	if err != nil {
		return Diagnosis{}, err
	}
	return w.toModel().KeepLocal(d), nil
}

func (dc *Client) Update(ctx context.Context, id string, patch DiagnosisPatch) (Diagnosis, error) {
	w, err := dc.res.Update(ctx, id, patch.Wire())
	if err != nil {
		return Diagnosis{}, err
	}
	return w.toModel(), nil
}

func (dc *Client) Delete(ctx context.Context, id string) error {
	return dc.res.Remove(ctx, id)
}
