package vaccine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/rbac"
	"github.com/riverclinic/ubscare/pkg/types"
)

// Collection names for vaccine stock and applied doses.
const (
	CollectionStock        = "vaccine_stock"
	CollectionVaccinations = "vaccines"
)

// Service manages vaccine stock batches and dose application. Applying a
// dose consumes one unit from the referenced stock item; the decrement is a
// partial merge write touching only the quantity field.
type Service struct {
	store  interfaces.Store
	logger *logger.Logger
}

// New creates the vaccine service.
func New(store interfaces.Store, log *logger.Logger) *Service {
	return &Service{store: store, logger: log}
}

var _ interfaces.VaccineService = (*Service)(nil)

// UpsertStock creates or updates a stock batch.
func (s *Service) UpsertStock(item *types.VaccineStockItem, actor *types.Actor) error {
	if actor.Role != rbac.RoleAdmin && actor.Role != rbac.RoleNurse {
		return types.NewAuthorizationError(types.ErrCodeForbidden,
			"seu perfil não pode gerenciar o estoque de vacinas")
	}
	if strings.TrimSpace(item.Name) == "" {
		return types.NewValidationError(types.ErrCodeMissingField, "nome da vacina é obrigatório", nil)
	}
	if item.Quantity < 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "quantidade não pode ser negativa", nil)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	rec, err := types.ToRecord(item)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to encode stock item", err)
	}
	return s.store.Save(CollectionStock, rec)
}

// Apply registers one applied dose, rejecting when the referenced batch has
// no units left.
func (s *Service) Apply(v *types.Vaccination, actor *types.Actor) (*types.Vaccination, error) {
	if !rbac.CanApplyVaccine(actor.Role) {
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden,
			"seu perfil não pode registrar vacinação")
	}
	if v.PatientID == "" || v.VaccineStockID == "" {
		return nil, types.NewValidationError(types.ErrCodeMissingField,
			"paciente e vacina são obrigatórios", nil)
	}

	stock, err := s.getStock(v.VaccineStockID)
	if err != nil {
		return nil, err
	}
	if stock.Quantity <= 0 {
		return nil, types.NewValidationError(types.ErrCodeOutOfStock,
			fmt.Sprintf("estoque esgotado para %s (lote %s)", stock.Name, stock.Batch), nil)
	}

	v.ID = uuid.New().String()
	v.VaccineName = stock.Name
	v.AppliedBy = actor.Name
	v.CreatedAt = types.NowISO()
	if v.VaccinationDate == "" {
		v.VaccinationDate = types.DatePart(types.NowISO())
	}

	rec, err := types.ToRecord(v)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to encode vaccination", err)
	}

	// Consume the unit before recording the dose, so a rejected second
	// write leaves the stock short rather than a dose registered against
	// unconsumed stock. Quantity is the only field this write owns.
	if err := s.store.Save(CollectionStock, types.Record{
		"id":       stock.ID,
		"quantity": stock.Quantity - 1,
	}); err != nil {
		return nil, err
	}
	if err := s.store.Save(CollectionVaccinations, rec); err != nil {
		return nil, err
	}

	s.logger.Audit(actor.Name, "vaccination_applied", "vaccines", true, map[string]interface{}{
		"patient_id": v.PatientID,
		"vaccine":    stock.Name,
	})
	return v, nil
}

// Stock lists the stock batches, alphabetically.
func (s *Service) Stock() ([]*types.VaccineStockItem, error) {
	records, err := s.store.Get(CollectionStock, nil)
	if err != nil {
		return nil, err
	}

	out := make([]*types.VaccineStockItem, 0, len(records))
	for _, rec := range records {
		var item types.VaccineStockItem
		if err := types.FromRecord(rec, &item); err != nil {
			continue
		}
		out = append(out, &item)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// History returns the applied doses for a patient, newest first.
func (s *Service) History(patientID string) ([]*types.Vaccination, error) {
	records, err := s.store.Get(CollectionVaccinations, map[string]interface{}{"patient_id": patientID})
	if err != nil {
		return nil, err
	}

	out := make([]*types.Vaccination, 0, len(records))
	for _, rec := range records {
		var v types.Vaccination
		if err := types.FromRecord(rec, &v); err != nil {
			continue
		}
		out = append(out, &v)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].VaccinationDate > out[j].VaccinationDate })
	return out, nil
}

func (s *Service) getStock(id string) (*types.VaccineStockItem, error) {
	records, err := s.store.Get(CollectionStock, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("vacina %s não encontrada no estoque", id))
	}

	var item types.VaccineStockItem
	if err := types.FromRecord(records[0], &item); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to decode stock item", err)
	}
	return &item, nil
}
