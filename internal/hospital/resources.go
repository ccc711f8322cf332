package hospital

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/diagnostics"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/medication"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/store"
	"github.com/hms/hms/pkg/shape"
)

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, p identity.Patient) (identity.Patient, error) {
	return create(ctx, s.logger, s.store.Patients(), p, s.clients.Patients.Create, nil)
}

func (s *Service) UpdatePatient(ctx context.Context, id string, patch identity.PatientPatch) (identity.Patient, error) {
	return update(ctx, s.logger, s.store.Patients(), id, patch, s.clients.Patients.Update, nil)
}

func (s *Service) DeletePatient(ctx context.Context, id string) error {
	return remove(ctx, s.logger, s.store.Patients(), id, s.clients.Patients.Delete)
}

// -- Staff --

// CreateStaff registers an account. The register endpoint returns no user,
// so the staff list is reloaded and the member with the same email is
// confirmed. If the list cannot be read the new member stays pending.
func (s *Service) CreateStaff(ctx context.Context, n identity.NewStaff) (identity.Staff, error) {
	col := s.store.Staff()
	local := col.Add(n.Staff())
	col.MarkPending(local.ID)
	if err := s.clients.Staff.Register(ctx, n); err != nil {
		col.MarkFailed(local.ID, err)
		logFailure(s.logger, col.Name(), "create", local.ID, err)
		return local, err
	}
	list, err := s.clients.Staff.List(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", n.Email).Msg("registered staff member, reload failed")
		return local, nil
	}
	for _, m := range list {
		if strings.EqualFold(strings.TrimSpace(m.Email), strings.TrimSpace(n.Email)) {
			m = m.Normalized()
			col.Replace(local.ID, m)
			col.MarkConfirmed(m.ID)
			return m, nil
		}
	}
	s.logger.Warn().Str("email", n.Email).Msg("registered staff member missing from reloaded list")
	return local, nil
}

func (s *Service) UpdateStaff(ctx context.Context, id string, patch identity.StaffPatch) (identity.Staff, error) {
	return update(ctx, s.logger, s.store.Staff(), id, patch, s.clients.Staff.Update, nil)
}

func (s *Service) DeleteStaff(ctx context.Context, id string) error {
	return remove(ctx, s.logger, s.store.Staff(), id, s.clients.Staff.Delete)
}

// -- Appointments --

func (s *Service) CreateAppointment(ctx context.Context, a scheduling.Appointment) (scheduling.Appointment, error) {
	return create(ctx, s.logger, s.store.Appointments(), s.withNames(a), s.clients.Appointments.Create, keepAppointment)
}

// UpdateAppointment completes a partial date or time change from the cached
// appointment before sending it.
func (s *Service) UpdateAppointment(ctx context.Context, id string, patch scheduling.AppointmentPatch) (scheduling.Appointment, error) {
	if cached, ok := s.store.Appointments().Get(id); ok {
		patch = patch.CompleteSchedule(cached)
	}
	return update(ctx, s.logger, s.store.Appointments(), id, patch, s.clients.Appointments.Update, keepAppointment)
}

func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	return remove(ctx, s.logger, s.store.Appointments(), id, s.clients.Appointments.Delete)
}

func keepAppointment(server, local scheduling.Appointment) scheduling.Appointment {
	return server.KeepLocal(local)
}

// withNames fills display names from the cache for an optimistic copy.
func (s *Service) withNames(a scheduling.Appointment) scheduling.Appointment {
	if a.PatientName == "" {
		if p, ok := s.store.Patients().Get(a.PatientID); ok {
			a.PatientName = p.DisplayName()
		}
	}
	if a.DoctorName == "" {
		if d, ok := s.store.Staff().Get(a.DoctorID); ok {
			a.DoctorName = d.DisplayName()
		}
	}
	return a
}

// -- Diagnoses --

func (s *Service) CreateDiagnosis(ctx context.Context, d clinical.Diagnosis) (clinical.Diagnosis, error) {
	return create(ctx, s.logger, s.store.Diagnoses(), d, s.clients.Diagnoses.Create, keepDiagnosis)
}

func (s *Service) UpdateDiagnosis(ctx context.Context, id string, patch clinical.DiagnosisPatch) (clinical.Diagnosis, error) {
	return update(ctx, s.logger, s.store.Diagnoses(), id, patch, s.clients.Diagnoses.Update, keepDiagnosis)
}

func (s *Service) DeleteDiagnosis(ctx context.Context, id string) error {
	return remove(ctx, s.logger, s.store.Diagnoses(), id, s.clients.Diagnoses.Delete)
}

func keepDiagnosis(server, local clinical.Diagnosis) clinical.Diagnosis {
	return server.KeepLocal(local)
}

// -- Lab orders --

func (s *Service) CreateLabOrder(ctx context.Context, o diagnostics.LabOrder) (diagnostics.LabOrder, error) {
	return create(ctx, s.logger, s.store.LabOrders(), o, s.clients.LabOrders.Create, nil)
}

func (s *Service) UpdateLabOrder(ctx context.Context, id string, patch diagnostics.LabOrderPatch) (diagnostics.LabOrder, error) {
	return update(ctx, s.logger, s.store.LabOrders(), id, patch, s.clients.LabOrders.Update, nil)
}

func (s *Service) DeleteLabOrder(ctx context.Context, id string) error {
	return remove(ctx, s.logger, s.store.LabOrders(), id, s.clients.LabOrders.Delete)
}

// -- Lab results --

func (s *Service) CreateLabResult(ctx context.Context, r diagnostics.LabResult) (diagnostics.LabResult, error) {
	if r.Order == nil {
		if o, ok := s.store.LabOrders().Get(r.OrderID); ok {
			r.Order = &o
		}
	}
	return create(ctx, s.logger, s.store.LabResults(), r, s.clients.LabResults.Create, keepLabResult)
}

func (s *Service) UpdateLabResult(ctx context.Context, id string, patch diagnostics.LabResultPatch) (diagnostics.LabResult, error) {
	return update(ctx, s.logger, s.store.LabResults(), id, patch, s.clients.LabResults.Update, keepLabResult)
}

func (s *Service) DeleteLabResult(ctx context.Context, id string) error {
	return remove(ctx, s.logger, s.store.LabResults(), id, s.clients.LabResults.Delete)
}

func keepLabResult(server, local diagnostics.LabResult) diagnostics.LabResult {
	return server.KeepLocal(local)
}

// LabResultPairs pairs a cached result with its order's tests using the
// cached catalog.
func (s *Service) LabResultPairs(id string) (shape.Pairing, bool) {
	return s.store.LabResultPairs(id, nil)
}

// -- Lab test catalog (local only) --

func (s *Service) AddLabTest(t diagnostics.LabTest) diagnostics.LabTest {
	return s.store.LabTests().Add(t)
}

func (s *Service) UpdateLabTest(id string, patch diagnostics.LabTestPatch) (diagnostics.LabTest, bool) {
	return s.store.LabTests().Update(id, patch)
}

func (s *Service) DeleteLabTest(id string) bool {
	return s.store.LabTests().Delete(id)
}

// -- Prescriptions (local only) --

func (s *Service) AddPrescription(p clinical.Prescription) clinical.Prescription {
	return s.store.Prescriptions().Add(p)
}

func (s *Service) UpdatePrescription(id string, patch clinical.PrescriptionPatch) (clinical.Prescription, bool) {
	return s.store.Prescriptions().Update(id, patch)
}

// DispensePrescription marks a prescription dispensed by the given staff
// member as of the store clock.
func (s *Service) DispensePrescription(id, by string) (clinical.Prescription, bool) {
	status := clinical.PrescriptionDispensed
	date := s.store.Now().Format(time.DateOnly)
	return s.store.Prescriptions().Update(id, clinical.PrescriptionPatch{
		Status:        &status,
		DispensedDate: &date,
		DispensedBy:   &by,
	})
}

func (s *Service) DeletePrescription(id string) bool {
	return s.store.Prescriptions().Delete(id)
}

// -- Medicines --

func (s *Service) CreateMedicine(ctx context.Context, m medication.Medicine) (medication.Medicine, error) {
	return create(ctx, s.logger, s.store.Medicines(), m, s.clients.Medicines.Create, nil)
}

func (s *Service) UpdateMedicine(ctx context.Context, id string, patch medication.MedicinePatch) (medication.Medicine, error) {
	return update(ctx, s.logger, s.store.Medicines(), id, patch, s.clients.Medicines.Update, nil)
}

func (s *Service) DeleteMedicine(ctx context.Context, id string) error {
	return remove(ctx, s.logger, s.store.Medicines(), id, s.clients.Medicines.Delete)
}

// LowStockFromServer asks the backend which medicines are low on stock and
// upserts them into the cache.
func (s *Service) LowStockFromServer(ctx context.Context) ([]medication.Medicine, error) {
	list, err := s.clients.Medicines.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range list {
		s.store.Medicines().Upsert(m)
	}
	return list, nil
}

// -- Sales --

// CreateSale records a sale. The cached medicine's stock is decremented
// immediately and the medicine is reloaded once the backend answers, since
// the backend adjusts stock itself.
func (s *Service) CreateSale(ctx context.Context, sale medication.Sale) (medication.Sale, error) {
	if sale.Quantity <= 0 {
		return medication.Sale{}, fmt.Errorf("create sale: quantity must be greater than zero")
	}
	medID := shape.ID(sale.MedicineID)
	meds := s.store.Medicines()
	if m, ok := meds.Get(medID); ok {
		if sale.MedicineName == "" {
			sale.MedicineName = m.Name
		}
		if sale.TotalAmount == "" {
			sale.TotalAmount = medication.LineTotal(m.Price, sale.Quantity)
		}
		stock := max(m.Stock-sale.Quantity, 0)
		meds.Update(medID, medication.MedicinePatch{Stock: &stock})
		meds.MarkPending(medID)
	}

	created, err := create(ctx, s.logger, s.store.Sales(), sale, s.clients.Sales.Create, nil)
	s.reloadMedicine(ctx, medID)
	return created, err
}

func (s *Service) reloadMedicine(ctx context.Context, id string) {
	if id == "" || store.IsTemp(id) {
		return
	}
	m, err := s.clients.Medicines.Get(ctx, id)
	if err != nil {
		s.store.Medicines().MarkFailed(id, err)
		s.logger.Warn().Err(err).Str("medicine_id", id).Msg("failed to reload medicine after sale")
		return
	}
	s.store.Medicines().Upsert(m)
	s.store.Medicines().MarkConfirmed(m.ID)
}

func (s *Service) UpdateSale(ctx context.Context, id string, patch medication.SalePatch) (medication.Sale, error) {
	return update(ctx, s.logger, s.store.Sales(), id, patch, s.clients.Sales.Update, nil)
}

func (s *Service) DeleteSale(ctx context.Context, id string) error {
	return remove(ctx, s.logger, s.store.Sales(), id, s.clients.Sales.Delete)
}

// -- Stats --

// Stats computes dashboard figures from the cache, preferring the backend's
// revenue aggregates when they can be read.
func (s *Service) Stats(ctx context.Context, threshold int) store.Stats {
	st := s.store.Stats(s.store.Now(), threshold)
	if rev, err := s.clients.Sales.TotalRevenue(ctx, "", ""); err == nil {
		st.TotalRevenue = rev.Total
	} else {
		s.logger.Debug().Err(err).Msg("total revenue unavailable, using cached sales")
	}
	if today, err := s.clients.Sales.TodaySales(ctx); err == nil {
		st.TodayRevenue = today.TotalRevenue
	} else {
		s.logger.Debug().Err(err).Msg("today sales unavailable, using cached sales")
	}
	return st
}

// Revenue reads the backend revenue aggregate between two dates.
func (s *Service) Revenue(ctx context.Context, start, end time.Time) (medication.Revenue, error) {
	var from, to string
	if !start.IsZero() {
		from = start.Format(time.DateOnly)
	}
	if !end.IsZero() {
		to = end.Format(time.DateOnly)
	}
	return s.clients.Sales.TotalRevenue(ctx, from, to)
}
