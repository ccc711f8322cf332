package store

import (
	"time"

	"github.com/hms/hms/internal/domain/diagnostics"
	"github.com/hms/hms/internal/domain/medication"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/pkg/shape"
)

// Stats are the dashboard figures computed from the cache. Revenue values
// are exact decimal strings; rates are whole percentages.
type Stats struct {
	TotalPatients          int    `json:"totalPatients"`
	TotalStaff             int    `json:"totalStaff"`
	TodayAppointments      int    `json:"todayAppointments"`
	TotalDiagnoses         int    `json:"totalDiagnoses"`
	PendingLabOrders       int    `json:"pendingLabOrders"`
	LowStockMedicines      int    `json:"lowStockMedicines"`
	TotalPrescriptions     int    `json:"totalPrescriptions"`
	CompletedAppointments  int    `json:"completedAppointments"`
	DispensedPrescriptions int    `json:"dispensedPrescriptions"`
	CompletedLabOrders     int    `json:"completedLabOrders"`
	AppointmentRate        int    `json:"appointmentRate"`
	PrescriptionRate       int    `json:"prescriptionRate"`
	LabCompletionRate      int    `json:"labCompletionRate"`
	TotalRevenue           string `json:"totalRevenue"`
	TodayRevenue           string `json:"todayRevenue"`
}

// Stats computes dashboard figures as of now. Medicines with stock below
// threshold count as low; a non-positive threshold uses the default.
func (s *Store) Stats(now time.Time, threshold int) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		TotalPatients:      len(s.patients.items),
		TotalStaff:         len(s.staff.items),
		TotalDiagnoses:     len(s.diagnoses.items),
		TotalPrescriptions: len(s.prescriptions.items),
	}
	for _, a := range s.appointments.items {
		if a.IsToday(now) {
			st.TodayAppointments++
		}
		if a.Status == scheduling.StatusCompleted {
			st.CompletedAppointments++
		}
	}
	for _, o := range s.labOrders.items {
		switch o.Status {
		case diagnostics.OrderPending:
			st.PendingLabOrders++
		case diagnostics.OrderCompleted:
			st.CompletedLabOrders++
		}
	}
	for _, p := range s.prescriptions.items {
		if p.Dispensed() {
			st.DispensedPrescriptions++
		}
	}
	st.AppointmentRate = percent(st.CompletedAppointments, len(s.appointments.items))
	st.PrescriptionRate = percent(st.DispensedPrescriptions, st.TotalPrescriptions)
	st.LabCompletionRate = percent(st.CompletedLabOrders, len(s.labOrders.items))
	for _, m := range s.medicines.items {
		if m.LowStock(threshold) {
			st.LowStockMedicines++
		}
	}
	today := now.Format(time.DateOnly)
	var all, todays []string
	for _, sale := range s.sales.items {
		all = append(all, sale.TotalAmount)
		if sale.Date == today {
			todays = append(todays, sale.TotalAmount)
		}
	}
	st.TotalRevenue = medication.SumAmounts(all...)
	st.TodayRevenue = medication.SumAmounts(todays...)
	return st
}

// percent is n of total as a whole percentage rounded half up, or 0 when
// total is 0.
func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*n + total) / (2 * total)
}

// LowStock returns the cached medicines below threshold.
func (s *Store) LowStock(threshold int) []medication.Medicine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []medication.Medicine{}
	for _, m := range s.medicines.items {
		if m.LowStock(threshold) {
			out = append(out, m)
		}
	}
	return out
}

// LabResultPairs pairs a cached result's values with its order's tests,
// naming tests through catalog or, when catalog is nil, the cached catalog.
// The cached order is preferred over the snapshot embedded in the result.
// ok is false when the result is unknown or no order can be found.
func (s *Store) LabResultPairs(id string, catalog []diagnostics.LabTest) (shape.Pairing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.labResults.indexLocked(shape.ID(id))
	if i < 0 {
		return shape.Pairing{}, false
	}
	r := s.labResults.items[i]
	order, ok := s.orderLocked(r)
	if !ok {
		return shape.Pairing{}, false
	}
	if catalog == nil {
		catalog = s.labTests.items
	}
	return diagnostics.Pair(r, order, catalog), true
}

func (s *Store) orderLocked(r diagnostics.LabResult) (diagnostics.LabOrder, bool) {
	if j := s.labOrders.indexLocked(r.OrderID); j >= 0 {
		return s.labOrders.items[j], true
	}
	if r.Order != nil {
		return *r.Order, true
	}
	return diagnostics.LabOrder{}, false
}
