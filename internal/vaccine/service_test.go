package vaccine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverclinic/ubscare/internal/store"
	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/rbac"
	"github.com/riverclinic/ubscare/pkg/types"
)

var (
	nurse        = &types.Actor{ID: "u-nur", Name: "Rosa", Role: rbac.RoleNurse}
	receptionist = &types.Actor{ID: "u-rec", Name: "Clara", Role: rbac.RoleReceptionist}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir(), logger.Discard(), nil, nil)
	require.NoError(t, err)
	return New(fs, logger.Discard())
}

func seedStock(t *testing.T, s *Service, name string, quantity int) *types.VaccineStockItem {
	t.Helper()
	item := &types.VaccineStockItem{Name: name, Batch: "L-01", Quantity: quantity}
	require.NoError(t, s.UpsertStock(item, nurse))
	return item
}

func TestUpsertStock(t *testing.T) {
	s := newTestService(t)

	t.Run("reception cannot manage stock", func(t *testing.T) {
		err := s.UpsertStock(&types.VaccineStockItem{Name: "Influenza", Quantity: 10}, receptionist)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization))
	})

	t.Run("name required, quantity non-negative", func(t *testing.T) {
		err := s.UpsertStock(&types.VaccineStockItem{Quantity: 10}, nurse)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeValidation))

		err = s.UpsertStock(&types.VaccineStockItem{Name: "Influenza", Quantity: -1}, nurse)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeValidation))
	})

	t.Run("assigns an id and lists alphabetically", func(t *testing.T) {
		seedStock(t, s, "Tétano", 5)
		seedStock(t, s, "Influenza", 10)

		stock, err := s.Stock()
		require.NoError(t, err)
		require.Len(t, stock, 2)
		assert.Equal(t, "Influenza", stock[0].Name)
		assert.Equal(t, "Tétano", stock[1].Name)
		assert.NotEmpty(t, stock[0].ID)
	})
}

func TestApplyConsumesStock(t *testing.T) {
	s := newTestService(t)
	item := seedStock(t, s, "Influenza", 2)

	applied, err := s.Apply(&types.Vaccination{
		PatientID:      "p-1",
		VaccineStockID: item.ID,
		Dose:           "1ª dose",
	}, nurse)
	require.NoError(t, err)
	assert.Equal(t, "Influenza", applied.VaccineName)
	assert.Equal(t, nurse.Name, applied.AppliedBy)
	assert.NotEmpty(t, applied.VaccinationDate)

	stock, err := s.Stock()
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, 1, stock[0].Quantity)

	// The decrement is a partial write; the batch metadata survives.
	assert.Equal(t, "L-01", stock[0].Batch)
}

// saveOrderStore records the collection order of Save calls.
type saveOrderStore struct {
	interfaces.Store
	saves []string
}

func (r *saveOrderStore) Save(collection string, records ...types.Record) error {
	r.saves = append(r.saves, collection)
	return r.Store.Save(collection, records...)
}

func TestApplyDecrementsBeforeRecordingDose(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir(), logger.Discard(), nil, nil)
	require.NoError(t, err)
	recording := &saveOrderStore{Store: fs}
	s := New(recording, logger.Discard())
	item := seedStock(t, s, "Influenza", 2)

	recording.saves = nil
	_, err = s.Apply(&types.Vaccination{PatientID: "p-1", VaccineStockID: item.ID}, nurse)
	require.NoError(t, err)

	// The stock write must land first: a failure between the two leaves a
	// missing unit, never a dose against unconsumed stock.
	require.Equal(t, []string{CollectionStock, CollectionVaccinations}, recording.saves)
}

func TestApplyOutOfStock(t *testing.T) {
	s := newTestService(t)
	item := seedStock(t, s, "Influenza", 1)

	_, err := s.Apply(&types.Vaccination{PatientID: "p-1", VaccineStockID: item.ID}, nurse)
	require.NoError(t, err)

	_, err = s.Apply(&types.Vaccination{PatientID: "p-2", VaccineStockID: item.ID}, nurse)
	require.True(t, types.IsErrorType(err, types.ErrorTypeValidation))
	var ce *types.ClinicError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.ErrCodeOutOfStock, ce.Code)
}

func TestApplyRejections(t *testing.T) {
	s := newTestService(t)
	item := seedStock(t, s, "Influenza", 5)

	t.Run("reception cannot apply", func(t *testing.T) {
		_, err := s.Apply(&types.Vaccination{PatientID: "p-1", VaccineStockID: item.ID}, receptionist)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization))
	})

	t.Run("patient and stock reference required", func(t *testing.T) {
		_, err := s.Apply(&types.Vaccination{PatientID: "p-1"}, nurse)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeValidation))
	})

	t.Run("unknown batch", func(t *testing.T) {
		_, err := s.Apply(&types.Vaccination{PatientID: "p-1", VaccineStockID: "lote-fantasma"}, nurse)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeNotFound))
	})
}

func TestHistory(t *testing.T) {
	s := newTestService(t)
	item := seedStock(t, s, "Influenza", 5)

	first := &types.Vaccination{PatientID: "p-1", VaccineStockID: item.ID, VaccinationDate: "2025-01-10"}
	second := &types.Vaccination{PatientID: "p-1", VaccineStockID: item.ID, VaccinationDate: "2025-06-10"}
	other := &types.Vaccination{PatientID: "p-2", VaccineStockID: item.ID, VaccinationDate: "2025-03-01"}
	for _, v := range []*types.Vaccination{first, second, other} {
		_, err := s.Apply(v, nurse)
		require.NoError(t, err)
	}

	history, err := s.History("p-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2025-06-10", history[0].VaccinationDate)
	assert.Equal(t, "2025-01-10", history[1].VaccinationDate)
}
