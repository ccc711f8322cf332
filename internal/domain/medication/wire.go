package medication

import (
	"encoding/json"
	"time"

	"github.com/hms/hms/pkg/shape"
)

type medicineWire struct {
	ID          shape.Text `json:"id"`
	Name        shape.Text `json:"name"`
	Category    shape.Text `json:"category"`
	Description shape.Text `json:"description"`
	Stock       shape.Int  `json:"stock"`
	Price       shape.Text `json:"price"`
	CreatedAt   shape.Text `json:"created_at"`
	UpdatedAt   shape.Text `json:"updated_at"`
}

func (w medicineWire) toModel() Medicine {
	created, _ := shape.ParseTime(w.CreatedAt.String(), time.UTC)
	updated, ok := shape.ParseTime(w.UpdatedAt.String(), time.UTC)
	if !ok {
		updated = created
	}
	return Medicine{
		ID:          w.ID.String(),
		Name:        w.Name.String(),
		Category:    w.Category.String(),
		Description: w.Description.String(),
		Stock:       int(w.Stock),
		Price:       w.Price.String(),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}.Normalized()
}

type medicinePayload struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Stock       int    `json:"stock"`
	Price       string `json:"price"`
}

func newMedicinePayload(m Medicine) medicinePayload {
	m = m.Normalized()
	return medicinePayload{
		Name:        m.Name,
		Category:    m.Category,
		Description: m.Description,
		Stock:       m.Stock,
		Price:       m.Price,
	}
}

// Wire returns the update body holding only the supplied fields.
func (mp MedicinePatch) Wire() map[string]any {
	body := map[string]any{}
	if mp.Name != nil {
		body["name"] = *mp.Name
	}
	if mp.Category != nil {
		body["category"] = *mp.Category
	}
	if mp.Description != nil {
		body["description"] = *mp.Description
	}
	if mp.Stock != nil {
		body["stock"] = *mp.Stock
	}
	if mp.Price != nil {
		body["price"] = NormalizeAmount(*mp.Price)
	}
	return body
}

// saleWire is the backend sale. medicine is the id; medicine_detail the
// nested medicine on read.
type saleWire struct {
	ID             shape.Text      `json:"id"`
	Medicine       shape.Ref       `json:"medicine"`
	MedicineDetail json.RawMessage `json:"medicine_detail"`
	Quantity       shape.Int       `json:"quantity"`
	TotalAmount    shape.Text      `json:"total_amount"`
	Date           shape.Text      `json:"date"`
	CreatedAt      shape.Text      `json:"created_at"`
}

func (w saleWire) toModel() Sale {
	s := Sale{
		ID:          w.ID.String(),
		MedicineID:  w.Medicine.ID,
		Quantity:    int(w.Quantity),
		TotalAmount: w.TotalAmount.String(),
		Date:        w.Date.String(),
	}
	if m, ok := w.detail(); ok {
		if s.MedicineID == "" {
			s.MedicineID = m.ID
		}
		s.MedicineName = m.Name
	}
	if s.MedicineName == "" {
		s.MedicineName = w.Medicine.Name
	}
	created, ok := shape.ParseTime(w.CreatedAt.String(), time.UTC)
	if !ok {
		created, _ = shape.ParseTime(s.Date, time.UTC)
	}
	s.CreatedAt = created
	s.UpdatedAt = created
	return s.Normalized()
}

func (w saleWire) detail() (Medicine, bool) {
	if len(w.MedicineDetail) == 0 || w.MedicineDetail[0] != '{' {
		return Medicine{}, false
	}
	var mw medicineWire
	if err := json.Unmarshal(w.MedicineDetail, &mw); err != nil {
		return Medicine{}, false
	}
	return mw.toModel(), true
}

// salePayload omits the total; the backend computes it from the price.
type salePayload struct {
	Medicine string `json:"medicine"`
	Quantity int    `json:"quantity"`
	Date     string `json:"date"`
}

func newSalePayload(s Sale) salePayload {
	s = s.Normalized()
	return salePayload{Medicine: s.MedicineID, Quantity: s.Quantity, Date: s.Date}
}

// Wire returns the update body holding only the supplied fields.
func (sp SalePatch) Wire() map[string]any {
	body := map[string]any{}
	if sp.MedicineID != nil {
		body["medicine"] = shape.ID(*sp.MedicineID)
	}
	if sp.Quantity != nil {
		body["quantity"] = *sp.Quantity
	}
	if sp.Date != nil {
		body["date"] = *sp.Date
	}
	return body
}

type revenueWire struct {
	TotalRevenue shape.Text `json:"total_revenue"`
	Currency     shape.Text `json:"currency"`
}

type dailySalesWire struct {
	Date         shape.Text        `json:"date"`
	Sales        []json.RawMessage `json:"sales"`
	TotalRevenue shape.Text        `json:"total_revenue"`
	SalesCount   shape.Int         `json:"sales_count"`
}

func (w dailySalesWire) toModel() DailySales {
	out := DailySales{
		Date:         w.Date.String(),
		Sales:        make([]Sale, 0, len(w.Sales)),
		TotalRevenue: NormalizeAmount(w.TotalRevenue.String()),
		SalesCount:   int(w.SalesCount),
	}
	for _, raw := range w.Sales {
		var sw saleWire
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		if err := json.Unmarshal(raw, &sw); err != nil {
			continue
		}
		out.Sales = append(out.Sales, sw.toModel())
	}
	if out.SalesCount == 0 {
		out.SalesCount = len(out.Sales)
	}
	return out
}
