package diagnostics

import (
	"strings"
	"time"

	"github.com/hms/hms/pkg/shape"
)

// OrderStatus is the lab order lifecycle state.
type OrderStatus string

const (
	OrderPending         OrderStatus = "pending"
	OrderSampleCollected OrderStatus = "sample_collected"
	OrderInProgress      OrderStatus = "in_progress"
	OrderCompleted       OrderStatus = "completed"
	OrderCancelled       OrderStatus = "cancelled"
)

// NormalizeOrderStatus lowercases s and maps empty to pending. Unknown
// values are kept; Valid reports them.
func NormalizeOrderStatus(s string) OrderStatus {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "":
		return OrderPending
	case "canceled":
		return OrderCancelled
	}
	return OrderStatus(s)
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderSampleCollected, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Priority is client-side triage metadata.
type Priority string

const (
	PriorityRoutine Priority = "routine"
	PriorityUrgent  Priority = "urgent"
	PriorityStat    Priority = "stat"
)

// LabOrder is the canonical lab order. TestIDs hold catalog ids or free-text
// keys when no catalog entry matched.
type LabOrder struct {
	ID                  string      `json:"id"`
	PatientID           string      `json:"patientId"`
	PatientName         string      `json:"patientName,omitempty"`
	DoctorID            string      `json:"doctorId,omitempty"`
	DoctorName          string      `json:"doctorName,omitempty"`
	TestIDs             []string    `json:"testIds"`
	Status              OrderStatus `json:"status"`
	Priority            Priority    `json:"priority,omitempty"`
	Notes               string      `json:"notes,omitempty"`
	OrderDate           time.Time   `json:"orderDate"`
	SampleCollectedDate string      `json:"sampleCollectedDate,omitempty"`
	CompletedDate       string      `json:"completedDate,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

func (o LabOrder) Key() string { return o.ID }

func (o LabOrder) WithKey(id string) LabOrder {
	o.ID = id
	return o
}

func (o LabOrder) Touched(at time.Time) LabOrder {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = at
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = o.CreatedAt
	}
	o.UpdatedAt = at
	return o
}

func (o LabOrder) Normalized() LabOrder {
	o.ID = shape.ID(o.ID)
	o.PatientID = shape.ID(o.PatientID)
	o.DoctorID = shape.ID(o.DoctorID)
	o.TestIDs = shape.NormalizeToArray(o.TestIDs)
	o.Status = NormalizeOrderStatus(string(o.Status))
	return o
}

// Name is the order label: its tests joined, else the doctor, else its id.
func (o LabOrder) Name() string {
	if len(o.TestIDs) > 0 {
		return strings.Join(o.TestIDs, ", ")
	}
	if o.DoctorName != "" {
		return o.DoctorName
	}
	if o.ID != "" {
		return "Order #" + o.ID
	}
	return ""
}

// LabOrderPatch is a shallow update.
type LabOrderPatch struct {
	PatientID *string
	DoctorID  *string
	TestIDs   *[]string
	Status    *OrderStatus
	Priority  *Priority
	Notes     *string
}

func (op LabOrderPatch) Apply(o LabOrder) LabOrder {
	setString(&o.PatientID, op.PatientID)
	setString(&o.DoctorID, op.DoctorID)
	setString(&o.Notes, op.Notes)
	if op.TestIDs != nil {
		o.TestIDs = shape.NormalizeToArray(*op.TestIDs)
	}
	if op.Status != nil {
		o.Status = NormalizeOrderStatus(string(*op.Status))
	}
	if op.Priority != nil {
		o.Priority = *op.Priority
	}
	return o
}

// ResultStatus flags the clinical reading of a result.
type ResultStatus string

const (
	ResultNormal   ResultStatus = "normal"
	ResultAbnormal ResultStatus = "abnormal"
	ResultCritical ResultStatus = "critical"
)

// LabResult is the canonical result record. Values are positional, one per
// test of the parent order when the counts agree.
type LabResult struct {
	ID          string       `json:"id"`
	OrderID     string       `json:"orderId"`
	Order       *LabOrder    `json:"order,omitempty"`
	TestID      string       `json:"testId,omitempty"`
	Values      []string     `json:"values"`
	Unit        string       `json:"unit,omitempty"`
	NormalRange string       `json:"normalRange,omitempty"`
	Status      ResultStatus `json:"status,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Technician  string       `json:"technician,omitempty"`
	ReviewedBy  string       `json:"reviewedBy,omitempty"`
	CompletedAt time.Time    `json:"completedAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (r LabResult) Key() string { return r.ID }

func (r LabResult) WithKey(id string) LabResult {
	r.ID = id
	return r
}

func (r LabResult) Touched(at time.Time) LabResult {
	if r.CompletedAt.IsZero() {
		r.CompletedAt = at
	}
	r.UpdatedAt = at
	return r
}

// Normalized canonicalizes ids and coerces Values to strings.
func (r LabResult) Normalized() LabResult {
	r.ID = shape.ID(r.ID)
	r.OrderID = shape.ID(r.OrderID)
	if r.Order != nil {
		o := r.Order.Normalized()
		r.Order = &o
		if r.OrderID == "" {
			r.OrderID = o.ID
		}
	}
	r.Values = shape.NormalizeToArray(r.Values)
	return r
}

// WithValues sets Values from any of the tolerated shapes, for example
// []any{3.2, "neg"}.
func (r LabResult) WithValues(v any) LabResult {
	r.Values = shape.NormalizeToArray(v)
	return r
}

// KeepLocal copies the fields the backend does not store from prev.
func (r LabResult) KeepLocal(prev LabResult) LabResult {
	setEmpty(&r.TestID, prev.TestID)
	setEmpty(&r.Unit, prev.Unit)
	setEmpty(&r.NormalRange, prev.NormalRange)
	setEmpty(&r.Notes, prev.Notes)
	setEmpty(&r.Technician, prev.Technician)
	setEmpty(&r.ReviewedBy, prev.ReviewedBy)
	if r.Status == "" {
		r.Status = prev.Status
	}
	if r.Order == nil && prev.Order != nil {
		o := *prev.Order
		r.Order = &o
	}
	return r
}

// LabResultPatch is a shallow update.
type LabResultPatch struct {
	OrderID    *string
	Values     *[]string
	Status     *ResultStatus
	Notes      *string
	ReviewedBy *string
}

func (rp LabResultPatch) Apply(r LabResult) LabResult {
	setString(&r.OrderID, rp.OrderID)
	setString(&r.Notes, rp.Notes)
	setString(&r.ReviewedBy, rp.ReviewedBy)
	if rp.Values != nil {
		r.Values = shape.NormalizeToArray(*rp.Values)
	}
	if rp.Status != nil {
		r.Status = *rp.Status
	}
	return r
}

// Summary is the flattened view of a result used by listings.
type Summary struct {
	ID          string    `json:"id"`
	Values      []string  `json:"values"`
	OrderID     string    `json:"orderId,omitempty"`
	OrderName   string    `json:"orderName,omitempty"`
	OrderTests  []string  `json:"orderTests"`
	PatientName string    `json:"patientName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summarize flattens r using its embedded order snapshot.
func Summarize(r LabResult) Summary {
	s := Summary{
		ID:         r.ID,
		Values:     append([]string{}, r.Values...),
		OrderID:    r.OrderID,
		OrderTests: []string{},
		CreatedAt:  r.CompletedAt,
	}
	if r.Order != nil {
		s.OrderName = r.Order.Name()
		s.OrderTests = append(s.OrderTests, r.Order.TestIDs...)
		s.PatientName = r.Order.PatientName
	}
	return s
}

// LabTest is a catalog entry. The catalog is maintained on the client only.
type LabTest struct {
	ID                      string `json:"id"`
	Name                    string `json:"name"`
	Category                string `json:"category,omitempty"`
	NormalRange             string `json:"normalRange,omitempty"`
	Unit                    string `json:"unit,omitempty"`
	Price                   string `json:"price,omitempty"`
	Description             string `json:"description,omitempty"`
	PreparationInstructions string `json:"preparationInstructions,omitempty"`
}

func (t LabTest) Key() string { return t.ID }

func (t LabTest) WithKey(id string) LabTest {
	t.ID = id
	return t
}

// Touched is a no-op; catalog entries carry no timestamps.
func (t LabTest) Touched(time.Time) LabTest { return t }

func (t LabTest) Normalized() LabTest {
	t.ID = shape.ID(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	return t
}

// LabTestPatch is a shallow update of a catalog entry.
type LabTestPatch struct {
	Name        *string
	Category    *string
	NormalRange *string
	Unit        *string
	Price       *string
	Description *string
}

func (tp LabTestPatch) Apply(t LabTest) LabTest {
	setString(&t.Name, tp.Name)
	setString(&t.Category, tp.Category)
	setString(&t.NormalRange, tp.NormalRange)
	setString(&t.Unit, tp.Unit)
	setString(&t.Price, tp.Price)
	setString(&t.Description, tp.Description)
	return t
}

// ResolveTestNames maps order test keys to catalog names. A key matches an
// entry by id, or by name ignoring case; unmatched keys are kept verbatim.
func ResolveTestNames(keys []string, catalog []LabTest) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k
		for _, t := range catalog {
			if t.ID == k || (t.Name != "" && strings.EqualFold(t.Name, k)) {
				if t.Name != "" {
					name = t.Name
				}
				break
			}
		}
		out = append(out, name)
	}
	return out
}

// Pair matches result values to the order's tests by position.
func Pair(r LabResult, order LabOrder, catalog []LabTest) shape.Pairing {
	return shape.PairLists(r.Values, ResolveTestNames(order.TestIDs, catalog))
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setEmpty(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}
