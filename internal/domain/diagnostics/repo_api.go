package diagnostics

import (
	"context"
	"net/http"

	"github.com/hms/hms/internal/platform/apiclient"
)

// -- Orders --

// OrderClient reads and writes lab orders. Updates use PUT.
type OrderClient struct {
	res *apiclient.Resource[orderWire]
}

func NewOrderClient(c *apiclient.Client) *OrderClient {
	return &OrderClient{res: apiclient.NewResource[orderWire](c, "lab-orders", http.MethodPut)}
}

func (oc *OrderClient) List(ctx context.Context) ([]LabOrder, error) {
	ws, err := oc.res.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LabOrder, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (oc *OrderClient) Get(ctx context.Context, id string) (LabOrder, error) {
	w, err := oc.res.Get(ctx, id)
	if err != nil {
		return LabOrder{}, err
	}
	return w.toModel(), nil
}

func (oc *OrderClient) Create(ctx context.Context, o LabOrder) (LabOrder, error) {
	w, err := oc.res.Create(ctx, newOrderPayload(o))
	if err != nil {
		return LabOrder{}, err
	}
	created := w.toModel()
	if created.Priority == "" {
		created.Priority = o.Priority
	}
	return created, nil
}

func (oc *OrderClient) Update(ctx context.Context, id string, patch LabOrderPatch) (LabOrder, error) {
	w, err := oc.res.Update(ctx, id, patch.Wire())
	if err != nil {
		return LabOrder{}, err
	}
	return w.toModel(), nil
}

func (oc *OrderClient) Delete(ctx context.Context, id string) error {
	return oc.res.Remove(ctx, id)
}

// -- Results --

// ResultClient reads and writes lab results. Updates use PUT.
type ResultClient struct {
	res *apiclient.Resource[resultWire]
}

func NewResultClient(c *apiclient.Client) *ResultClient {
	return &ResultClient{res: apiclient.NewResource[resultWire](c, "lab-results", http.MethodPut)}
}

func (rc *ResultClient) List(ctx context.Context) ([]LabResult, error) {
	ws, err := rc.res.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LabResult, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (rc *ResultClient) Get(ctx context.Context, id string) (LabResult, error) {
	w, err := rc.res.Get(ctx, id)
	if err != nil {
		return LabResult{}, err
	}
	return w.toModel(), nil
}

// Summaries lists results flattened for display.
func (rc *ResultClient) Summaries(ctx context.Context) ([]Summary, error) {
	results, err := rc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(results))
	for _, r := range results {
		out = append(out, Summarize(r))
	}
	return out, nil
}

func (rc *ResultClient) Create(ctx context.Context, r LabResult) (LabResult, error) {
	w, err := rc.res.Create(ctx, newResultPayload(r))
	if err != nil {
		return LabResult{}, err
	}
	return w.toModel().KeepLocal(r), nil
}

func (rc *ResultClient) Update(ctx context.Context, id string, patch LabResultPatch) (LabResult, error) {
	w, err := rc.res.Update(ctx, id, patch.Wire())
	if err != nil {
		return LabResult{}, err
	}
	return w.toModel(), nil
}

func (rc *ResultClient) Delete(ctx context.Context, id string) error {
	return rc.res.Remove(ctx, id)
}
