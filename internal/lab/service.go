package lab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/riverclinic/ubscare/internal/workflow"
	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/rbac"
	"github.com/riverclinic/ubscare/pkg/types"
)

// CollectionLabTests is the lab order collection name.
const CollectionLabTests = "labTests"

// Service tracks laboratory test orders. Orders live outside the
// appointment state machine but share the persistence facade contract, so
// the lab queue refreshes off the same change notifications.
type Service struct {
	store  interfaces.Store
	logger *logger.Logger
}

// New creates the lab order service.
func New(store interfaces.Store, log *logger.Logger) *Service {
	return &Service{store: store, logger: log}
}

var _ interfaces.LabService = (*Service)(nil)

// Request creates a new pending order for a patient.
func (s *Service) Request(order *types.LabTestOrder, actor *types.Actor) (*types.LabTestOrder, error) {
	if !rbac.CanManageLabOrders(actor.Role) {
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden,
			"seu perfil não pode solicitar exames")
	}
	if order.PatientID == "" || strings.TrimSpace(order.TestName) == "" {
		return nil, types.NewValidationError(types.ErrCodeMissingField,
			"paciente e nome do exame são obrigatórios", nil)
	}

	order.ID = uuid.New().String()
	order.Status = types.LabPending
	order.RequestedBy = actor.Name
	order.CreatedAt = types.NowISO()
	order.PatientName = s.patientName(order.PatientID)

	rec, err := types.ToRecord(order)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to encode lab order", err)
	}
	if err := s.store.Save(CollectionLabTests, rec); err != nil {
		return nil, err
	}

	s.logger.Audit(actor.Name, "lab_order_requested", "labTests", true,
		map[string]interface{}{"order_id": order.ID, "test": order.TestName})
	return order, nil
}

// AttachResult stores the result attachment reference on an order.
func (s *Service) AttachResult(id, file string, actor *types.Actor) error {
	if !rbac.CanManageLabOrders(actor.Role) {
		return types.NewAuthorizationError(types.ErrCodeForbidden,
			"seu perfil não pode anexar resultados")
	}
	if file == "" {
		return types.NewValidationError(types.ErrCodeMissingField, "anexe o arquivo de resultado", nil)
	}

	if _, err := s.get(id); err != nil {
		return err
	}

	return s.store.Save(CollectionLabTests, types.Record{
		"id":           id,
		"file":         file,
		"performed_by": actor.Name,
		"updated_at":   types.NowISO(),
	})
}

// Complete marks an order concluded. An order with no result attachment
// cannot be concluded.
func (s *Service) Complete(id string, actor *types.Actor) error {
	if !rbac.CanManageLabOrders(actor.Role) {
		return types.NewAuthorizationError(types.ErrCodeForbidden,
			"seu perfil não pode concluir exames")
	}

	order, err := s.get(id)
	if err != nil {
		return err
	}
	if order.File == "" {
		return types.NewValidationError(types.ErrCodeResultRequired,
			"anexe o arquivo de resultado antes de concluir", nil)
	}

	return s.store.Save(CollectionLabTests, types.Record{
		"id":           id,
		"status":       string(types.LabCompleted),
		"performed_by": actor.Name,
		"updated_at":   types.NowISO(),
	})
}

// MarkUrgent raises an order's priority.
func (s *Service) MarkUrgent(id string, actor *types.Actor) error {
	if !rbac.CanManageLabOrders(actor.Role) {
		return types.NewAuthorizationError(types.ErrCodeForbidden,
			"seu perfil não pode priorizar exames")
	}

	order, err := s.get(id)
	if err != nil {
		return err
	}
	if order.Status == types.LabCompleted {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			"exame concluído não pode ser marcado como urgente", nil)
	}

	return s.store.Save(CollectionLabTests, types.Record{
		"id":         id,
		"status":     string(types.LabUrgent),
		"updated_at": types.NowISO(),
	})
}

// AddOpinion attaches the medical opinion (laudo) to a concluded order.
// Physicians only.
func (s *Service) AddOpinion(id, opinion string, actor *types.Actor) error {
	if actor.Role != rbac.RoleDoctor && actor.Role != rbac.RoleAdmin {
		return types.NewAuthorizationError(types.ErrCodeForbidden,
			"apenas o médico pode registrar o laudo")
	}
	if strings.TrimSpace(opinion) == "" {
		return types.NewValidationError(types.ErrCodeMissingField, "o laudo não pode ser vazio", nil)
	}

	order, err := s.get(id)
	if err != nil {
		return err
	}
	if order.Status != types.LabCompleted {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			"o laudo só pode ser registrado em exame concluído", nil)
	}

	return s.store.Save(CollectionLabTests, types.Record{
		"id":         id,
		"opinion":    opinion,
		"updated_at": types.NowISO(),
	})
}

// Queue returns orders filtered by patient/test-name substring and status,
// newest first.
func (s *Service) Queue(search string, status types.LabStatus) ([]*types.LabTestOrder, error) {
	records, err := s.store.Get(CollectionLabTests, nil)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(search)
	out := make([]*types.LabTestOrder, 0, len(records))
	for _, rec := range records {
		var order types.LabTestOrder
		if err := types.FromRecord(rec, &order); err != nil {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(order.PatientName), needle) &&
			!strings.Contains(strings.ToLower(order.TestName), needle) {
			continue
		}
		out = append(out, &order)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (s *Service) get(id string) (*types.LabTestOrder, error) {
	records, err := s.store.Get(CollectionLabTests, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("exame %s não encontrado", id))
	}

	var order types.LabTestOrder
	if err := types.FromRecord(records[0], &order); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to decode lab order", err)
	}
	return &order, nil
}

func (s *Service) patientName(patientID string) string {
	records, err := s.store.Get(workflow.CollectionPatients, map[string]interface{}{"id": patientID})
	if err != nil || len(records) == 0 {
		return "Desconhecido"
	}
	if name, ok := records[0]["name"].(string); ok && name != "" {
		return name
	}
	return "Desconhecido"
}
