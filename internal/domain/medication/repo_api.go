package medication

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apiclient"
)

// -- Medicines --

// MedicineClient reads and writes the inventory. Updates use PUT.
type MedicineClient struct {
	res *apiclient.Resource[medicineWire]
}

func NewMedicineClient(c *apiclient.Client) *MedicineClient {
	return &MedicineClient{res: apiclient.NewResource[medicineWire](c, "medicines", http.MethodPut)}
}

func (mc *MedicineClient) List(ctx context.Context) ([]Medicine, error) {
	return mc.list(ctx, "")
}

func (mc *MedicineClient) LowStock(ctx context.Context) ([]Medicine, error) {
	return mc.list(ctx, "medicines/low_stock/")
}

func (mc *MedicineClient) list(ctx context.Context, path string) ([]Medicine, error) {
	var (
		ws  []medicineWire
		err error
	)
	if path == "" {
		ws, err = mc.res.List(ctx)
	} else {
		ws, err = mc.res.ListAt(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	out := make([]Medicine, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (mc *MedicineClient) Get(ctx context.Context, id string) (Medicine, error) {
	w, err := mc.res.Get(ctx, id)
	if err != nil {
		return Medicine{}, err
	}
	return w.toModel(), nil
}

func (mc *MedicineClient) Create(ctx context.Context, m Medicine) (Medicine, error) {
	w, err := mc.res.Create(ctx, newMedicinePayload(m))
	if err != nil {
		return Medicine{}, err
	}
	return w.toModel(), nil
}

func (mc *MedicineClient) Update(ctx context.Context, id string, patch MedicinePatch) (Medicine, error) {
	w, err := mc.res.Update(ctx, id, patch.Wire())
	if err != nil {
		return Medicine{}, err
	}
	return w.toModel(), nil
}

func (mc *MedicineClient) Delete(ctx context.Context, id string) error {
	return mc.res.Remove(ctx, id)
}

// -- Sales --

// SaleClient records sales. Updates use PUT.
type SaleClient struct {
	res    *apiclient.Resource[saleWire]
	logger zerolog.Logger
}

func NewSaleClient(c *apiclient.Client, logger zerolog.Logger) *SaleClient {
	return &SaleClient{
		res:    apiclient.NewResource[saleWire](c, "sales", http.MethodPut),
		logger: logger,
	}
}

func (sc *SaleClient) List(ctx context.Context) ([]Sale, error) {
	ws, err := sc.res.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Sale, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (sc *SaleClient) Get(ctx context.Context, id string) (Sale, error) {
	w, err := sc.res.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	return w.toModel(), nil
}

func (sc *SaleClient) Create(ctx context.Context, s Sale) (Sale, error) {
	if s.Quantity <= 0 {
		return Sale{}, fmt.Errorf("create sales: quantity must be greater than zero")
	}
	w, err := sc.res.Create(ctx, newSalePayload(s))
	if err != nil {
		return Sale{}, err
	}
	created := w.toModel()
	if created.MedicineName == "" {
		created.MedicineName = s.MedicineName
	}
	return created, nil
}

func (sc *SaleClient) Update(ctx context.Context, id string, patch SalePatch) (Sale, error) {
	w, err := sc.res.Update(ctx, id, patch.Wire())
	if err != nil {
		return Sale{}, err
	}
	return w.toModel(), nil
}

func (sc *SaleClient) Delete(ctx context.Context, id string) error {
	return sc.res.Remove(ctx, id)
}

// TotalRevenue reads the revenue aggregate, optionally bounded by ISO dates.
// Deployments that mount the route at the API root are tried second.
func (sc *SaleClient) TotalRevenue(ctx context.Context, start, end string) (Revenue, error) {
	q := url.Values{}
	if start != "" {
		q.Set("start_date", start)
	}
	if end != "" {
		q.Set("end_date", end)
	}
	suffix := ""
	if len(q) > 0 {
		suffix = "?" + q.Encode()
	}
	var w revenueWire
	if err := sc.getWithFallback(ctx, "sales/total_revenue/"+suffix, "total_revenue/"+suffix, &w); err != nil {
		return Revenue{}, fmt.Errorf("total revenue: %w", err)
	}
	return Revenue{Total: NormalizeAmount(w.TotalRevenue.String()), Currency: w.Currency.String()}, nil
}

// TodaySales reads the backend summary of today's sales.
func (sc *SaleClient) TodaySales(ctx context.Context) (DailySales, error) {
	var w dailySalesWire
	if err := sc.getWithFallback(ctx, "sales/today_sales/", "today_sales/", &w); err != nil {
		return DailySales{}, fmt.Errorf("today sales: %w", err)
	}
	return w.toModel(), nil
}

func (sc *SaleClient) getWithFallback(ctx context.Context, primary, fallback string, out any) error {
	client := sc.res.Client()
	err := client.DoJSON(ctx, http.MethodGet, primary, nil, out)
	if err == nil {
		return nil
	}
	sc.logger.Debug().Err(err).Str("path", primary).Str("fallback", fallback).Msg("retrying at fallback route")
	if ferr := client.DoJSON(ctx, http.MethodGet, fallback, nil, out); ferr != nil {
		return errors.Join(err, ferr)
	}
	return nil
}
