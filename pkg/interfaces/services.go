package interfaces

import (
	"time"

	"github.com/riverclinic/ubscare/pkg/types"
)

// WorkflowService drives the appointment lifecycle: scheduling, the
// role-gated status transitions, and the triage/encounter compound
// operations that attach clinical data to a transition.
type WorkflowService interface {
	Schedule(req *types.ScheduleRequest, actor *types.Actor) (*types.Appointment, error)
	Get(id string) (*types.Appointment, error)

	// ChangeStatus performs a bare status transition (arrival confirmation,
	// cancellation, admin override).
	ChangeStatus(id string, to types.AppointmentStatus, actor *types.Actor) error

	// ChangeType switches the encounter type from the roster.
	ChangeType(id string, newType types.AppointmentType, actor *types.Actor) error

	// SaveTriage attaches the nursing assessment and moves the appointment
	// to "Aguardando Médico" atomically.
	SaveTriage(id string, triage *types.TriageRecord, actor *types.Actor) error

	// BeginEncounter moves the appointment to "Em Atendimento" and persists
	// immediately. Re-opening an appointment already in progress is
	// idempotent.
	BeginEncounter(id string, actor *types.Actor) (*types.Appointment, error)

	// FinalizeEncounter validates evolution and diagnosis before any write,
	// then attaches the clinical record and completes the appointment.
	FinalizeEncounter(id string, enc *types.EncounterRecord, actor *types.Actor) error

	// AvailableTransitions lists the statuses the actor may move the
	// appointment to right now.
	AvailableTransitions(apt *types.Appointment, actor *types.Actor) []types.AppointmentStatus
}

// ScheduleService is the read side: filtered, sorted projections of the
// appointment collection for each role's queue.
type ScheduleService interface {
	ReceptionQueue(filter *types.ReceptionFilter) ([]*types.Appointment, error)
	DoctorDailyRoster(day time.Time, actor *types.Actor) ([]*types.Appointment, error)
	PatientAgenda(actor *types.Actor) ([]*types.Appointment, error)
}

// LabService tracks laboratory test orders in the shared labTests collection.
type LabService interface {
	Request(order *types.LabTestOrder, actor *types.Actor) (*types.LabTestOrder, error)
	AttachResult(id, file string, actor *types.Actor) error
	Complete(id string, actor *types.Actor) error
	MarkUrgent(id string, actor *types.Actor) error
	AddOpinion(id, opinion string, actor *types.Actor) error
	Queue(search string, status types.LabStatus) ([]*types.LabTestOrder, error)
}

// VaccineService manages vaccine stock and applied doses.
type VaccineService interface {
	UpsertStock(item *types.VaccineStockItem, actor *types.Actor) error
	Apply(v *types.Vaccination, actor *types.Actor) (*types.Vaccination, error)
	Stock() ([]*types.VaccineStockItem, error)
	History(patientID string) ([]*types.Vaccination, error)
}

// ExportService assembles a patient's clinical history, sorted descending by
// event date-time, and hands it to the reporting collaborator.
type ExportService interface {
	AssembleHistory(patientID string) (*types.Patient, []types.HistoryEntry, error)
	Export(patientID string, done func(path string, err error))
}

// IdentityService authenticates users and resolves session tokens back to
// the acting identity.
type IdentityService interface {
	Login(username, password string) (*types.Actor, string, error)
	Verify(token string) (*types.Actor, error)
}
