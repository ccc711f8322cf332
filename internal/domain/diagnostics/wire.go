package diagnostics

import (
	"encoding/json"
	"time"

	"github.com/hms/hms/pkg/shape"
)

// orderWire is the backend lab order. tests is stored as text server side
// and comes back as an array, a JSON string or a comma list.
type orderWire struct {
	ID          shape.Text       `json:"id"`
	Patient     shape.Ref        `json:"patient"`
	PatientName shape.Text       `json:"patient_name"`
	Doctor      shape.Ref        `json:"doctor"`
	DoctorName  shape.Text       `json:"doctor_name"`
	Tests       shape.MultiValue `json:"tests"`
	Notes       shape.Text       `json:"notes"`
	Status      shape.Text       `json:"status"`
	Priority    shape.Text       `json:"priority"`
	CreatedAt   shape.Text       `json:"created_at"`
}

func (w orderWire) toModel() LabOrder {
	patient := w.Patient.WithFallbackName(w.PatientName.String())
	doctor := w.Doctor.WithFallbackName(w.DoctorName.String())
	created, _ := shape.ParseTime(w.CreatedAt.String(), time.UTC)
	return LabOrder{
		ID:          w.ID.String(),
		PatientID:   patient.ID,
		PatientName: patient.Name,
		DoctorID:    doctor.ID,
		DoctorName:  doctor.Name,
		TestIDs:     w.Tests.Values(),
		Status:      OrderStatus(w.Status.String()),
		Priority:    Priority(w.Priority.String()),
		Notes:       w.Notes.String(),
		OrderDate:   created,
		CreatedAt:   created,
		UpdatedAt:   created,
	}.Normalized()
}

type orderPayload struct {
	Patient string   `json:"patient"`
	Doctor  *string  `json:"doctor"`
	Tests   []string `json:"tests"`
	Notes   *string  `json:"notes"`
	Status  string   `json:"status"`
}

func newOrderPayload(o LabOrder) orderPayload {
	o = o.Normalized()
	return orderPayload{
		Patient: o.PatientID,
		Doctor:  optional(o.DoctorID),
		Tests:   o.TestIDs,
		Notes:   optional(o.Notes),
		Status:  string(o.Status),
	}
}

// Wire returns the update body holding only the supplied fields.
func (op LabOrderPatch) Wire() map[string]any {
	body := map[string]any{}
	if op.PatientID != nil {
		body["patient"] = shape.ID(*op.PatientID)
	}
	if op.DoctorID != nil {
		body["doctor"] = optional(shape.ID(*op.DoctorID))
	}
	if op.TestIDs != nil {
		body["tests"] = shape.NormalizeToArray(*op.TestIDs)
	}
	if op.Notes != nil {
		body["notes"] = optional(*op.Notes)
	}
	if op.Status != nil {
		body["status"] = string(NormalizeOrderStatus(string(*op.Status)))
	}
	return body
}

// resultWire is the backend lab result. lab_order is the nested order on
// read and a bare id on write; some deployments expose the nested form as
// lab_order_detail instead.
type resultWire struct {
	ID             shape.Text       `json:"id"`
	LabOrder       json.RawMessage  `json:"lab_order"`
	LabOrderDetail json.RawMessage  `json:"lab_order_detail"`
	Result         shape.MultiValue `json:"result"`
	Notes          shape.Text       `json:"notes"`
	CreatedAt      shape.Text       `json:"created_at"`
}

func (w resultWire) toModel() LabResult {
	r := LabResult{
		ID:     w.ID.String(),
		Values: w.Result.Values(),
		Notes:  w.Notes.String(),
	}
	if created, ok := shape.ParseTime(w.CreatedAt.String(), time.UTC); ok {
		r.CompletedAt = created
		r.UpdatedAt = created
	}
	for _, raw := range []json.RawMessage{w.LabOrder, w.LabOrderDetail} {
		if order, ok := nestedOrder(raw); ok {
			r.Order = &order
			r.OrderID = order.ID
			break
		}
	}
	if r.OrderID == "" {
		r.OrderID = shape.ParseRef(w.LabOrder).ID
	}
	return r.Normalized()
}

func nestedOrder(raw json.RawMessage) (LabOrder, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return LabOrder{}, false
	}
	var ow orderWire
	if err := json.Unmarshal(raw, &ow); err != nil {
		return LabOrder{}, false
	}
	return ow.toModel(), true
}

// resultPayload is the write body. The result column is text, so values are
// sent as a JSON encoded array string, which reads back losslessly.
type resultPayload struct {
	LabOrder string `json:"lab_order"`
	Result   string `json:"result"`
}

func encodeValues(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}

func newResultPayload(r LabResult) resultPayload {
	r = r.Normalized()
	return resultPayload{LabOrder: r.OrderID, Result: encodeValues(r.Values)}
}

// Wire returns the update body holding only the supplied fields.
func (rp LabResultPatch) Wire() map[string]any {
	body := map[string]any{}
	if rp.OrderID != nil {
		body["lab_order"] = shape.ID(*rp.OrderID)
	}
	if rp.Values != nil {
		body["result"] = encodeValues(shape.NormalizeToArray(*rp.Values))
	}
	return body
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
