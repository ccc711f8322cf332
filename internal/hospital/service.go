// Package hospital composes the resource clients with the hospital cache.
// Writes are applied to the cache first and reconciled with the backend's
// answer; reads are served from the cache.
package hospital

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/diagnostics"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/medication"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/apiclient"
	"github.com/hms/hms/internal/store"
)

// Clients holds one repository per server resource.
type Clients struct {
	Patients     identity.PatientRepository
	Staff        identity.StaffRepository
	Appointments scheduling.AppointmentRepository
	Diagnoses    clinical.DiagnosisRepository
	LabOrders    diagnostics.OrderRepository
	LabResults   diagnostics.ResultRepository
	Medicines    medication.MedicineRepository
	Sales        medication.SaleRepository
}

// NewClients builds the backend-backed repositories over c. Appointment
// dates and times are read and written in loc.
func NewClients(c *apiclient.Client, loc *time.Location, logger zerolog.Logger) Clients {
	return Clients{
		Patients:     identity.NewPatientClient(c),
		Staff:        identity.NewStaffClient(c),
		Appointments: scheduling.NewClient(c, loc),
		Diagnoses:    clinical.NewClient(c),
		LabOrders:    diagnostics.NewOrderClient(c),
		LabResults:   diagnostics.NewResultClient(c),
		Medicines:    medication.NewMedicineClient(c),
		Sales:        medication.NewSaleClient(c, logger),
	}
}

// Service is the write path into the hospital cache.
type Service struct {
	store   *store.Store
	clients Clients
	logger  zerolog.Logger
}

func NewService(st *store.Store, clients Clients, logger zerolog.Logger) *Service {
	return &Service{store: st, clients: clients, logger: logger}
}

// Store returns the cache the service writes to.
func (s *Service) Store() *store.Store { return s.store }

// Sync reloads every server resource into the cache.
func (s *Service) Sync(ctx context.Context) store.SyncReport {
	return s.store.SyncFromServer(ctx, s)
}

// Reset empties the cache.
func (s *Service) Reset() { s.store.Reset() }

// -- store.Source --

func (s *Service) ListPatients(ctx context.Context) ([]identity.Patient, error) {
	return s.clients.Patients.List(ctx)
}

func (s *Service) ListStaff(ctx context.Context) ([]identity.Staff, error) {
	return s.clients.Staff.List(ctx)
}

func (s *Service) ListAppointments(ctx context.Context) ([]scheduling.Appointment, error) {
	return s.clients.Appointments.List(ctx)
}

func (s *Service) ListDiagnoses(ctx context.Context) ([]clinical.Diagnosis, error) {
	return s.clients.Diagnoses.List(ctx)
}

func (s *Service) ListLabOrders(ctx context.Context) ([]diagnostics.LabOrder, error) {
	return s.clients.LabOrders.List(ctx)
}

func (s *Service) ListLabResults(ctx context.Context) ([]diagnostics.LabResult, error) {
	return s.clients.LabResults.List(ctx)
}

func (s *Service) ListMedicines(ctx context.Context) ([]medication.Medicine, error) {
	return s.clients.Medicines.List(ctx)
}

func (s *Service) ListSales(ctx context.Context) ([]medication.Sale, error) {
	return s.clients.Sales.List(ctx)
}

// -- Single resource refresh --

func (s *Service) RefreshPatients(ctx context.Context) error {
	return refresh(ctx, s.store.Patients(), s.clients.Patients.List)
}

func (s *Service) RefreshStaff(ctx context.Context) error {
	return refresh(ctx, s.store.Staff(), s.clients.Staff.List)
}

func (s *Service) RefreshAppointments(ctx context.Context) error {
	return refresh(ctx, s.store.Appointments(), s.clients.Appointments.List)
}

func (s *Service) RefreshDiagnoses(ctx context.Context) error {
	return refresh(ctx, s.store.Diagnoses(), s.clients.Diagnoses.List)
}

func (s *Service) RefreshLabOrders(ctx context.Context) error {
	return refresh(ctx, s.store.LabOrders(), s.clients.LabOrders.List)
}

func (s *Service) RefreshLabResults(ctx context.Context) error {
	return refresh(ctx, s.store.LabResults(), s.clients.LabResults.List)
}

func (s *Service) RefreshMedicines(ctx context.Context) error {
	return refresh(ctx, s.store.Medicines(), s.clients.Medicines.List)
}

func (s *Service) RefreshSales(ctx context.Context) error {
	return refresh(ctx, s.store.Sales(), s.clients.Sales.List)
}

// Refresh reloads one collection by name.
func (s *Service) Refresh(ctx context.Context, collection string) error {
	switch collection {
	case store.Patients:
		return s.RefreshPatients(ctx)
	case store.StaffMembers:
		return s.RefreshStaff(ctx)
	case store.Appointments:
		return s.RefreshAppointments(ctx)
	case store.Diagnoses:
		return s.RefreshDiagnoses(ctx)
	case store.LabOrders:
		return s.RefreshLabOrders(ctx)
	case store.LabResults:
		return s.RefreshLabResults(ctx)
	case store.Medicines:
		return s.RefreshMedicines(ctx)
	case store.Sales:
		return s.RefreshSales(ctx)
	}
	return &UnknownCollectionError{Name: collection}
}

// UnknownCollectionError names a collection with no server resource.
type UnknownCollectionError struct {
	Name string
}

func (e *UnknownCollectionError) Error() string {
	return "hospital: no server resource for collection " + e.Name
}
