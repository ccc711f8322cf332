package store

import (
	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/diagnostics"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/medication"
	"github.com/hms/hms/internal/domain/scheduling"
)

// Snapshot is the persisted form of the cache. Sync states are not kept;
// a restored cache reports temporary members of backend collections as
// failed and everything else as confirmed until the next change.
type Snapshot struct {
	Patients      []identity.Patient       `json:"patients"`
	Staff         []identity.Staff         `json:"staff"`
	Appointments  []scheduling.Appointment `json:"appointments"`
	Diagnoses     []clinical.Diagnosis     `json:"diagnoses"`
	LabOrders     []diagnostics.LabOrder   `json:"labOrders"`
	LabResults    []diagnostics.LabResult  `json:"labResults"`
	Medicines     []medication.Medicine    `json:"medicines"`
	Sales         []medication.Sale        `json:"sales"`
	LabTests      []diagnostics.LabTest    `json:"labTests"`
	Prescriptions []clinical.Prescription  `json:"prescriptions"`
}

// Snapshot copies every collection under one read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Patients:      s.patients.allLocked(),
		Staff:         s.staff.allLocked(),
		Appointments:  s.appointments.allLocked(),
		Diagnoses:     s.diagnoses.allLocked(),
		LabOrders:     s.labOrders.allLocked(),
		LabResults:    s.labResults.allLocked(),
		Medicines:     s.medicines.allLocked(),
		Sales:         s.sales.allLocked(),
		LabTests:      s.labTests.allLocked(),
		Prescriptions: s.prescriptions.allLocked(),
	}
}

// Restore replaces every collection with snap.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	s.patients.setLocked(snap.Patients)
	s.staff.setLocked(snap.Staff)
	s.appointments.setLocked(snap.Appointments)
	s.diagnoses.setLocked(snap.Diagnoses)
	s.labOrders.setLocked(snap.LabOrders)
	s.labResults.setLocked(snap.LabResults)
	s.medicines.setLocked(snap.Medicines)
	s.sales.setLocked(snap.Sales)
	s.labTests.setLocked(snap.LabTests)
	s.prescriptions.setLocked(snap.Prescriptions)
	s.enqueue(Event{Op: OpRestore})
	s.mu.Unlock()
	s.flush()
	s.recordSizes()
}
