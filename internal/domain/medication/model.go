package medication

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/pkg/shape"
)

// DefaultLowStockThreshold matches the backend low_stock route.
const DefaultLowStockThreshold = 10

// Medicine is the canonical inventory record. Price is a decimal string so
// that no precision is lost in transit.
type Medicine struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Stock       int       `json:"stock"`
	Price       string    `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (m Medicine) Key() string { return m.ID }

func (m Medicine) WithKey(id string) Medicine {
	m.ID = id
	return m
}

func (m Medicine) Touched(at time.Time) Medicine {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = at
	}
	m.UpdatedAt = at
	return m
}

func (m Medicine) Normalized() Medicine {
	m.ID = shape.ID(m.ID)
	m.Name = strings.TrimSpace(m.Name)
	m.Price = NormalizeAmount(m.Price)
	if m.Stock < 0 {
		m.Stock = 0
	}
	return m
}

// LowStock reports whether stock is below threshold. A non-positive
// threshold uses the default.
func (m Medicine) LowStock(threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return m.Stock < threshold
}

// MedicinePatch is a shallow update.
type MedicinePatch struct {
	Name        *string
	Category    *string
	Description *string
	Stock       *int
	Price       *string
}

func (mp MedicinePatch) Apply(m Medicine) Medicine {
	setString(&m.Name, mp.Name)
	setString(&m.Category, mp.Category)
	setString(&m.Description, mp.Description)
	if mp.Price != nil {
		m.Price = NormalizeAmount(*mp.Price)
	}
	if mp.Stock != nil {
		m.Stock = *mp.Stock
	}
	return m
}

// Sale is one recorded medicine sale. The backend computes TotalAmount and
// decrements the medicine's stock.
type Sale struct {
	ID           string    `json:"id"`
	MedicineID   string    `json:"medicineId"`
	MedicineName string    `json:"medicineName,omitempty"`
	Quantity     int       `json:"quantity"`
	TotalAmount  string    `json:"totalAmount"`
	Date         string    `json:"date"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (s Sale) Key() string { return s.ID }

func (s Sale) WithKey(id string) Sale {
	s.ID = id
	return s
}

func (s Sale) Touched(at time.Time) Sale {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = at
	}
	if s.Date == "" {
		s.Date = at.Format(time.DateOnly)
	}
	s.UpdatedAt = at
	return s
}

func (s Sale) Normalized() Sale {
	s.ID = shape.ID(s.ID)
	s.MedicineID = shape.ID(s.MedicineID)
	s.TotalAmount = NormalizeAmount(s.TotalAmount)
	return s
}

// SalePatch is a shallow update.
type SalePatch struct {
	MedicineID *string
	Quantity   *int
	Date       *string
}

func (sp SalePatch) Apply(s Sale) Sale {
	setString(&s.MedicineID, sp.MedicineID)
	setString(&s.Date, sp.Date)
	if sp.Quantity != nil {
		s.Quantity = *sp.Quantity
	}
	return s
}

// NewSale prices a sale of qty units of m. The total is an estimate until
// the backend confirms it.
func NewSale(m Medicine, qty int, date string) Sale {
	return Sale{
		MedicineID:   m.ID,
		MedicineName: m.Name,
		Quantity:     qty,
		TotalAmount:  LineTotal(m.Price, qty),
		Date:         date,
	}
}

// Revenue is the backend revenue aggregate.
type Revenue struct {
	Total    string `json:"totalRevenue"`
	Currency string `json:"currency,omitempty"`
}

// DailySales is the backend summary of one day's sales.
type DailySales struct {
	Date         string `json:"date"`
	Sales        []Sale `json:"sales"`
	TotalRevenue string `json:"totalRevenue"`
	SalesCount   int    `json:"salesCount"`
}

// -- Decimal amounts --

// ParseAmount parses a decimal string exactly.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders d with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NormalizeAmount rewrites a parseable decimal with two places and keeps
// anything else verbatim.
func NormalizeAmount(s string) string {
	d, ok := ParseAmount(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	return FormatAmount(d)
}

// LineTotal multiplies a unit price by a quantity exactly. An unparseable
// price yields an empty string.
func LineTotal(price string, qty int) string {
	d, ok := ParseAmount(price)
	if !ok {
		return ""
	}
	return FormatAmount(d.Mul(decimal.NewFromInt(int64(qty))))
}

// SumAmounts adds decimal strings, skipping unparseable ones.
func SumAmounts(amounts ...string) string {
	total := decimal.Zero
	for _, a := range amounts {
		if d, ok := ParseAmount(a); ok {
			total = total.Add(d)
		}
	}
	return FormatAmount(total)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
