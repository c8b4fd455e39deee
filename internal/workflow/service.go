package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/monitoring"
	"github.com/riverclinic/ubscare/pkg/rbac"
	"github.com/riverclinic/ubscare/pkg/types"
)

// Collection names this engine touches.
const (
	CollectionAppointments = "appointments"
	CollectionPatients     = "patients"
	CollectionUsers        = "users"
)

// Service is the appointment workflow engine: it validates and performs the
// role-gated lifecycle transitions and attaches triage and encounter data.
// All writes go through the persistence facade as partial records, so a
// status update never clobbers fields written by another actor.
type Service struct {
	store   interfaces.Store
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
}

// New creates the workflow engine.
func New(store interfaces.Store, log *logger.Logger, metrics *monitoring.MetricsCollector) *Service {
	return &Service{store: store, logger: log, metrics: metrics}
}

var _ interfaces.WorkflowService = (*Service)(nil)

// Schedule creates a new appointment in "Agendado". Patient, date and time
// are required; the date must be a bare calendar date and the time a
// wall-clock hour-minute pair. Patient and doctor display names are
// denormalized onto the record for display convenience.
func (s *Service) Schedule(req *types.ScheduleRequest, actor *types.Actor) (*types.Appointment, error) {
	if req.PatientID == "" {
		return nil, types.NewValidationError(types.ErrCodeMissingField, "selecione o paciente", nil)
	}
	if req.Date == "" || req.Time == "" {
		return nil, types.NewValidationError(types.ErrCodeMissingField, "informe data e hora do agendamento", nil)
	}
	if !types.ValidDateOnly(req.Date) {
		return nil, types.NewValidationError(types.ErrCodeInvalidDate,
			fmt.Sprintf("data inválida %q, use AAAA-MM-DD", req.Date), nil)
	}

	aptType := req.Type
	if aptType == "" {
		aptType = types.TypeConsultation
	}
	if !aptType.Valid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("tipo de atendimento desconhecido %q", aptType), nil)
	}

	date := fmt.Sprintf("%sT%s", req.Date, req.Time)
	if _, err := types.ParseClinicTime(date); err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidDate,
			fmt.Sprintf("hora inválida %q, use HH:MM", req.Time), nil)
	}

	apt := &types.Appointment{
		ID:          uuid.New().String(),
		PatientID:   req.PatientID,
		PatientName: s.displayName(CollectionPatients, req.PatientID, "Desconhecido"),
		DoctorID:    req.DoctorID,
		DoctorName:  "Não atribuído",
		Date:        date,
		Type:        aptType,
		Reason:      req.Reason,
		Status:      types.StatusScheduled,
		CreatedAt:   types.NowISO(),
	}
	if req.DoctorID != "" {
		apt.DoctorName = s.displayName(CollectionUsers, req.DoctorID, "Não atribuído")
	}

	rec, err := types.ToRecord(apt)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to encode appointment", err)
	}
	if err := s.store.Save(CollectionAppointments, rec); err != nil {
		return nil, err
	}

	s.logger.WithActor(actor.Name, actor.Role).
		WithField("component", "workflow").
		WithField("appointment_id", apt.ID).
		Info("Appointment scheduled")
	return apt, nil
}

// Get loads one appointment by id.
func (s *Service) Get(id string) (*types.Appointment, error) {
	records, err := s.store.Get(CollectionAppointments, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("agendamento %s não encontrado", id))
	}

	var apt types.Appointment
	if err := types.FromRecord(records[0], &apt); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to decode appointment", err)
	}
	return &apt, nil
}

// ChangeStatus performs a bare transition: arrival confirmation,
// cancellation, or an admin override. The write carries only the fields this
// operation owns.
func (s *Service) ChangeStatus(id string, to types.AppointmentStatus, actor *types.Actor) error {
	if !to.Valid() {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("status desconhecido %q", to), nil)
	}

	apt, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.authorize(apt.Status, to, actor); err != nil {
		return err
	}

	return s.commitTransition(id, types.Record{
		"id":         id,
		"status":     string(to),
		"updated_at": types.NowISO(),
	}, apt.Status, to, actor)
}

// ChangeType switches the encounter type from the roster.
func (s *Service) ChangeType(id string, newType types.AppointmentType, actor *types.Actor) error {
	if !newType.Valid() {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("tipo de atendimento desconhecido %q", newType), nil)
	}

	if _, err := s.Get(id); err != nil {
		return err
	}

	return s.store.Save(CollectionAppointments, types.Record{
		"id":         id,
		"type":       string(newType),
		"updated_at": types.NowISO(),
	})
}

// SaveTriage is the nursing compound operation: it validates the payload,
// performs AguardandoAtendimento → AguardandoMédico, and attaches the triage
// record atomically in one merge write.
func (s *Service) SaveTriage(id string, triage *types.TriageRecord, actor *types.Actor) error {
	if triage == nil || strings.TrimSpace(triage.ChiefComplaint) == "" {
		return types.NewValidationError(types.ErrCodeMissingField,
			"queixa principal é obrigatória para salvar a triagem", nil)
	}
	if triage.RiskClassification != "" && !triage.RiskClassification.Valid() {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("classificação de risco desconhecida %q", triage.RiskClassification), nil)
	}

	apt, err := s.Get(id)
	if err != nil {
		return err
	}

	if apt.Status != types.StatusAwaitingCare && actor.Role != rbac.RoleAdmin {
		return types.NewTransitionError(apt.Status, types.StatusAwaitingDoctor, actor.Role)
	}
	if err := s.authorize(apt.Status, types.StatusAwaitingDoctor, actor); err != nil {
		return err
	}

	now := types.NowISO()
	triage.TriagedAt = now
	triageRec, err := types.ToRecord(triage)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to encode triage", err)
	}

	return s.commitTransition(id, types.Record{
		"id":         id,
		"status":     string(types.StatusAwaitingDoctor),
		"triage":     map[string]interface{}(triageRec),
		"triage_by":  actor.Name,
		"triage_at":  now,
		"updated_at": now,
	}, apt.Status, types.StatusAwaitingDoctor, actor)
}

// BeginEncounter moves the appointment to "Em Atendimento" and persists
// immediately, before any clinical data entry. An appointment already in
// progress is re-opened as-is, so a physician can resume after closing
// without saving.
func (s *Service) BeginEncounter(id string, actor *types.Actor) (*types.Appointment, error) {
	apt, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if apt.Status == types.StatusInProgress {
		if err := s.authorize(types.StatusAwaitingDoctor, types.StatusInProgress, actor); err != nil {
			return nil, err
		}
		return apt, nil
	}

	if apt.Status != types.StatusAwaitingDoctor && actor.Role != rbac.RoleAdmin {
		return nil, types.NewTransitionError(apt.Status, types.StatusInProgress, actor.Role)
	}
	if err := s.authorize(apt.Status, types.StatusInProgress, actor); err != nil {
		return nil, err
	}

	now := types.NowISO()
	if err := s.commitTransition(id, types.Record{
		"id":         id,
		"status":     string(types.StatusInProgress),
		"updated_at": now,
	}, apt.Status, types.StatusInProgress, actor); err != nil {
		return nil, err
	}

	apt.Status = types.StatusInProgress
	apt.UpdatedAt = now
	return apt, nil
}

// FinalizeEncounter validates the clinical record before any write, then
// performs EmAtendimento → Realizado attaching evolution, diagnosis and
// prescription with the performer stamp.
func (s *Service) FinalizeEncounter(id string, enc *types.EncounterRecord, actor *types.Actor) error {
	if enc == nil || strings.TrimSpace(enc.Evolution) == "" || strings.TrimSpace(enc.Diagnosis) == "" {
		return types.NewValidationError(types.ErrCodeMissingField,
			"evolução e hipótese diagnóstica são obrigatórias para finalizar o atendimento", nil)
	}

	apt, err := s.Get(id)
	if err != nil {
		return err
	}

	if apt.Status != types.StatusInProgress && actor.Role != rbac.RoleAdmin {
		return types.NewTransitionError(apt.Status, types.StatusCompleted, actor.Role)
	}
	if err := s.authorize(apt.Status, types.StatusCompleted, actor); err != nil {
		return err
	}

	now := types.NowISO()
	return s.commitTransition(id, types.Record{
		"id":           id,
		"status":       string(types.StatusCompleted),
		"description":  enc.Evolution,
		"diagnosis":    enc.Diagnosis,
		"prescription": enc.Prescription,
		"attended_by":  actor.Name,
		"attended_at":  now,
		"updated_at":   now,
	}, apt.Status, types.StatusCompleted, actor)
}

// AvailableTransitions lists the statuses the actor may move the appointment
// to right now, sorted for stable presentation.
func (s *Service) AvailableTransitions(apt *types.Appointment, actor *types.Actor) []types.AppointmentStatus {
	out := AvailableTransitions(actor.Role, apt.Status)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// authorize consults the capability table and records the attempt.
func (s *Service) authorize(from, to types.AppointmentStatus, actor *types.Actor) error {
	allowed := Allowed(actor.Role, from, to)
	if s.metrics != nil {
		s.metrics.RecordTransition(string(from), string(to), actor.Role, allowed)
	}
	if !allowed {
		s.logger.Audit(actor.Name, "status_change", "appointment", false, map[string]interface{}{
			"from": string(from),
			"to":   string(to),
			"role": actor.Role,
		})
		return types.NewTransitionError(from, to, actor.Role)
	}
	return nil
}

// commitTransition writes the partial update and logs the audit trail.
func (s *Service) commitTransition(id string, update types.Record, from, to types.AppointmentStatus, actor *types.Actor) error {
	if err := s.store.Save(CollectionAppointments, update); err != nil {
		return err
	}

	s.logger.Audit(actor.Name, "status_change", "appointment", true, map[string]interface{}{
		"appointment_id": id,
		"from":           string(from),
		"to":             string(to),
	})
	return nil
}

// displayName resolves an id to a display name in the given collection,
// falling back when the reference is dangling.
func (s *Service) displayName(collection, id, fallback string) string {
	records, err := s.store.Get(collection, map[string]interface{}{"id": id})
	if err != nil || len(records) == 0 {
		return fallback
	}
	if name, ok := records[0]["name"].(string); ok && name != "" {
		return name
	}
	return fallback
}
