package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/diagnostics"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/medication"
	"github.com/hms/hms/internal/domain/scheduling"
)

// Source lists every server-backed resource. The lab test catalog and
// prescriptions are local and have no source.
type Source interface {
	ListPatients(ctx context.Context) ([]identity.Patient, error)
	ListStaff(ctx context.Context) ([]identity.Staff, error)
	ListAppointments(ctx context.Context) ([]scheduling.Appointment, error)
	ListDiagnoses(ctx context.Context) ([]clinical.Diagnosis, error)
	ListLabOrders(ctx context.Context) ([]diagnostics.LabOrder, error)
	ListLabResults(ctx context.Context) ([]diagnostics.LabResult, error)
	ListMedicines(ctx context.Context) ([]medication.Medicine, error)
	ListSales(ctx context.Context) ([]medication.Sale, error)
}

// SyncReport summarizes one SyncFromServer run.
type SyncReport struct {
	StartedAt time.Time         `json:"startedAt"`
	Duration  time.Duration     `json:"duration"`
	Counts    map[string]int    `json:"counts"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// OK reports whether every resource loaded.
func (r SyncReport) OK() bool { return len(r.Failures) == 0 }

// SyncFromServer lists every resource in parallel and replaces the cached
// collections in one step. A resource that fails to load is logged and
// cached as empty; it never fails the sync.
func (s *Store) SyncFromServer(ctx context.Context, src Source) SyncReport {
	report := SyncReport{
		StartedAt: s.now(),
		Counts:    map[string]int{},
		Failures:  map[string]string{},
	}
	var (
		mu           sync.Mutex
		patients     []identity.Patient
		staff        []identity.Staff
		appointments []scheduling.Appointment
		diagnoses    []clinical.Diagnosis
		labOrders    []diagnostics.LabOrder
		labResults   []diagnostics.LabResult
		medicines    []medication.Medicine
		sales        []medication.Sale
	)
	record := func(name string, n int, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failures[name] = err.Error()
			s.logger.Warn().Err(err).Str("collection", name).Msg("sync fetch failed, caching empty")
		}
		report.Counts[name] = n
		s.metrics.ObserveSync(name, err == nil)
	}

	var g errgroup.Group
	g.Go(func() error { patients = load(ctx, Patients, src.ListPatients, record); return nil })
	g.Go(func() error { staff = load(ctx, StaffMembers, src.ListStaff, record); return nil })
	g.Go(func() error { appointments = load(ctx, Appointments, src.ListAppointments, record); return nil })
	g.Go(func() error { diagnoses = load(ctx, Diagnoses, src.ListDiagnoses, record); return nil })
	g.Go(func() error { labOrders = load(ctx, LabOrders, src.ListLabOrders, record); return nil })
	g.Go(func() error { labResults = load(ctx, LabResults, src.ListLabResults, record); return nil })
	g.Go(func() error { medicines = load(ctx, Medicines, src.ListMedicines, record); return nil })
	g.Go(func() error { sales = load(ctx, Sales, src.ListSales, record); return nil })
	_ = g.Wait()

	s.mu.Lock()
	s.patients.setLocked(patients)
	s.staff.setLocked(staff)
	s.appointments.setLocked(appointments)
	s.diagnoses.setLocked(diagnoses)
	s.labOrders.setLocked(labOrders)
	s.labResults.setLocked(labResults)
	s.medicines.setLocked(medicines)
	s.sales.setLocked(sales)
	s.enqueue(Event{Op: OpSync})
	s.mu.Unlock()
	s.flush()
	s.recordSizes()

	report.Duration = s.now().Sub(report.StartedAt)
	if len(report.Failures) == 0 {
		report.Failures = nil
	}
	s.logger.Info().
		Int("failed", len(report.Failures)).
		Dur("duration", report.Duration).
		Msg("hospital store synchronized")
	return report
}

func load[T any](ctx context.Context, name string, list func(context.Context) ([]T, error), record func(string, int, error)) []T {
	items, err := list(ctx)
	if err != nil {
		items = nil
	}
	record(name, len(items), err)
	return items
}
