// Package store is the process-wide hospital cache. One Store holds every
// resource collection, notifies subscribers after each mutation and can be
// snapshotted for persistence.
package store

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/diagnostics"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/medication"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/telemetry"
)

// Collection names, shared with the read API routes.
const (
	Patients      = "patients"
	StaffMembers  = "staff"
	Appointments  = "appointments"
	Diagnoses     = "diagnoses"
	LabOrders     = "lab-orders"
	LabResults    = "lab-results"
	Medicines     = "medicines"
	Sales         = "sales"
	LabTests      = "lab-tests"
	Prescriptions = "prescriptions"
)

// Names lists every collection in sync order.
var Names = []string{Patients, StaffMembers, Appointments, Diagnoses, LabOrders, LabResults, Medicines, Sales, LabTests, Prescriptions}

// TempPrefix marks ids assigned locally before the backend confirms a record.
const TempPrefix = "tmp-"

// Op is the kind of mutation an Event reports.
type Op string

const (
	OpSet     Op = "set"
	OpAdd     Op = "add"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
	OpMark    Op = "mark"
	OpSync    Op = "sync"
	OpReset   Op = "reset"
	OpRestore Op = "restore"
)

// Event describes one mutation. ID is empty for whole-collection changes and
// Collection is empty for whole-store changes.
type Event struct {
	Collection string `json:"collection,omitempty"`
	Op         Op     `json:"op"`
	ID         string `json:"id,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides temporary id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Store is the hospital cache. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
	newID   func() string

	patients      *Collection[identity.Patient]
	staff         *Collection[identity.Staff]
	appointments  *Collection[scheduling.Appointment]
	diagnoses     *Collection[clinical.Diagnosis]
	labOrders     *Collection[diagnostics.LabOrder]
	labResults    *Collection[diagnostics.LabResult]
	medicines     *Collection[medication.Medicine]
	sales         *Collection[medication.Sale]
	labTests      *Collection[diagnostics.LabTest]
	prescriptions *Collection[clinical.Prescription]

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	// queue holds events in mutation order until flush delivers them.
	queue    []Event
	notifyMu sync.Mutex
}

func New(opts ...Option) *Store {
	s := &Store{
		logger: zerolog.Nop(),
		now:    time.Now,
		newID:  func() string { return TempPrefix + uuid.NewString() },
		subs:   map[int]func(Event){},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.patients = newCollection[identity.Patient](s, Patients)
	s.staff = newCollection[identity.Staff](s, StaffMembers)
	s.appointments = newCollection[scheduling.Appointment](s, Appointments)
	s.diagnoses = newCollection[clinical.Diagnosis](s, Diagnoses)
	s.labOrders = newCollection[diagnostics.LabOrder](s, LabOrders)
	s.labResults = newCollection[diagnostics.LabResult](s, LabResults)
	s.medicines = newCollection[medication.Medicine](s, Medicines)
	s.sales = newCollection[medication.Sale](s, Sales)
	s.labTests = newLocalCollection[diagnostics.LabTest](s, LabTests)
	s.prescriptions = newLocalCollection[clinical.Prescription](s, Prescriptions)
	return s
}

func (s *Store) Patients() *Collection[identity.Patient]           { return s.patients }
func (s *Store) Staff() *Collection[identity.Staff]                { return s.staff }
func (s *Store) Appointments() *Collection[scheduling.Appointment] { return s.appointments }
func (s *Store) Diagnoses() *Collection[clinical.Diagnosis]        { return s.diagnoses }
func (s *Store) LabOrders() *Collection[diagnostics.LabOrder]      { return s.labOrders }
func (s *Store) LabResults() *Collection[diagnostics.LabResult]    { return s.labResults }
func (s *Store) Medicines() *Collection[medication.Medicine]       { return s.medicines }
func (s *Store) Sales() *Collection[medication.Sale]               { return s.sales }
func (s *Store) LabTests() *Collection[diagnostics.LabTest]        { return s.labTests }
func (s *Store) Prescriptions() *Collection[clinical.Prescription] { return s.prescriptions }

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

// IsTemp reports whether id was assigned locally.
func IsTemp(id string) bool {
	return len(id) > len(TempPrefix) && id[:len(TempPrefix)] == TempPrefix
}

// Sizes returns the member count of every collection.
func (s *Store) Sizes() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sizesLocked()
}

func (s *Store) sizesLocked() map[string]int {
	return map[string]int{
		Patients:      len(s.patients.items),
		StaffMembers:  len(s.staff.items),
		Appointments:  len(s.appointments.items),
		Diagnoses:     len(s.diagnoses.items),
		LabOrders:     len(s.labOrders.items),
		LabResults:    len(s.labResults.items),
		Medicines:     len(s.medicines.items),
		Sales:         len(s.sales.items),
		LabTests:      len(s.labTests.items),
		Prescriptions: len(s.prescriptions.items),
	}
}

// Reset empties every collection.
func (s *Store) Reset() {
	s.mu.Lock()
	s.patients.setLocked(nil)
	s.staff.setLocked(nil)
	s.appointments.setLocked(nil)
	s.diagnoses.setLocked(nil)
	s.labOrders.setLocked(nil)
	s.labResults.setLocked(nil)
	s.medicines.setLocked(nil)
	s.sales.setLocked(nil)
	s.labTests.setLocked(nil)
	s.prescriptions.setLocked(nil)
	s.enqueue(Event{Op: OpReset})
	s.mu.Unlock()
	s.flush()
	s.recordSizes()
}

// Subscribe registers fn for every subsequent event. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// enqueue must be called with mu held.
func (s *Store) enqueue(e Event) {
	s.queue = append(s.queue, e)
}

// flush delivers queued events outside the data lock. Only one goroutine
// delivers at a time so subscribers see events in mutation order; a
// subscriber that mutates the store has its events delivered by the same
// loop after it returns.
func (s *Store) flush() {
	for {
		if !s.notifyMu.TryLock() {
			return
		}
		for {
			s.mu.Lock()
			batch := s.queue
			s.queue = nil
			s.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			subs := s.subscribers()
			for _, e := range batch {
				for _, fn := range subs {
					fn(e)
				}
			}
		}
		s.notifyMu.Unlock()

		s.mu.RLock()
		more := len(s.queue) > 0
		s.mu.RUnlock()
		if !more {
			return
		}
	}
}

func (s *Store) subscribers() []func(Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}

func (s *Store) recordSizes() {
	if s.metrics == nil {
		return
	}
	for name, n := range s.Sizes() {
		s.metrics.SetStoreSize(name, n)
	}
}
