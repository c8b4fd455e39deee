package lab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverclinic/ubscare/internal/store"
	"github.com/riverclinic/ubscare/internal/workflow"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/rbac"
	"github.com/riverclinic/ubscare/pkg/types"
)

var (
	labTech = &types.Actor{ID: "u-lab", Name: "Téc. Silva", Role: rbac.RoleLab}
	doctor  = &types.Actor{ID: "u-doc", Name: "Dr. Lima", Role: rbac.RoleDoctor}
	nurse   = &types.Actor{ID: "u-nur", Name: "Rosa", Role: rbac.RoleNurse}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir(), logger.Discard(), nil, nil)
	require.NoError(t, err)
	s := New(fs, logger.Discard())

	rec, err := types.ToRecord(&types.Patient{ID: "p-1", Name: "Maria da Silva"})
	require.NoError(t, err)
	require.NoError(t, fs.Save(workflow.CollectionPatients, rec))
	return s
}

func requestOrder(t *testing.T, s *Service) *types.LabTestOrder {
	t.Helper()
	order, err := s.Request(&types.LabTestOrder{PatientID: "p-1", TestName: "Hemograma"}, doctor)
	require.NoError(t, err)
	return order
}

func TestRequest(t *testing.T) {
	s := newTestService(t)

	t.Run("creates a pending order with denormalized patient name", func(t *testing.T) {
		order := requestOrder(t, s)
		assert.NotEmpty(t, order.ID)
		assert.Equal(t, types.LabPending, order.Status)
		assert.Equal(t, "Maria da Silva", order.PatientName)
		assert.Equal(t, doctor.Name, order.RequestedBy)
	})

	t.Run("nurse cannot request", func(t *testing.T) {
		_, err := s.Request(&types.LabTestOrder{PatientID: "p-1", TestName: "Glicemia"}, nurse)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization))
	})

	t.Run("test name required", func(t *testing.T) {
		_, err := s.Request(&types.LabTestOrder{PatientID: "p-1", TestName: "  "}, labTech)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeValidation))
	})
}

func TestCompleteRequiresResultFile(t *testing.T) {
	s := newTestService(t)
	order := requestOrder(t, s)

	err := s.Complete(order.ID, labTech)
	require.True(t, types.IsErrorType(err, types.ErrorTypeValidation))
	var ce *types.ClinicError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.ErrCodeResultRequired, ce.Code)

	require.NoError(t, s.AttachResult(order.ID, "resultados/hemograma.pdf", labTech))
	require.NoError(t, s.Complete(order.ID, labTech))

	queue, err := s.Queue("", types.LabCompleted)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "resultados/hemograma.pdf", queue[0].File)
	assert.Equal(t, labTech.Name, queue[0].PerformedBy)
}

func TestMarkUrgent(t *testing.T) {
	s := newTestService(t)
	order := requestOrder(t, s)

	require.NoError(t, s.MarkUrgent(order.ID, labTech))

	queue, err := s.Queue("", types.LabUrgent)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	// Concluded orders cannot be re-prioritized.
	require.NoError(t, s.AttachResult(order.ID, "r.pdf", labTech))
	require.NoError(t, s.Complete(order.ID, labTech))
	err = s.MarkUrgent(order.ID, labTech)
	assert.True(t, types.IsErrorType(err, types.ErrorTypeValidation))
}

func TestAddOpinion(t *testing.T) {
	s := newTestService(t)
	order := requestOrder(t, s)

	t.Run("only on concluded orders", func(t *testing.T) {
		err := s.AddOpinion(order.ID, "sem alterações", doctor)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeValidation))
	})

	require.NoError(t, s.AttachResult(order.ID, "r.pdf", labTech))
	require.NoError(t, s.Complete(order.ID, labTech))

	t.Run("lab technician cannot write the opinion", func(t *testing.T) {
		err := s.AddOpinion(order.ID, "sem alterações", labTech)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization))
	})

	t.Run("physician writes the opinion", func(t *testing.T) {
		require.NoError(t, s.AddOpinion(order.ID, "sem alterações significativas", doctor))

		queue, err := s.Queue("", "")
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, "sem alterações significativas", queue[0].Opinion)
	})
}

func TestQueueFilters(t *testing.T) {
	s := newTestService(t)
	_, err := s.Request(&types.LabTestOrder{PatientID: "p-1", TestName: "Hemograma"}, doctor)
	require.NoError(t, err)
	_, err = s.Request(&types.LabTestOrder{PatientID: "p-2", TestName: "Glicemia"}, doctor)
	require.NoError(t, err)

	t.Run("search matches test name", func(t *testing.T) {
		queue, err := s.Queue("glicemia", "")
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, "Glicemia", queue[0].TestName)
	})

	t.Run("search matches patient name", func(t *testing.T) {
		queue, err := s.Queue("maria", "")
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, "Hemograma", queue[0].TestName)
	})

	t.Run("unknown id", func(t *testing.T) {
		err := s.Complete("exame-inexistente", labTech)
		assert.True(t, types.IsErrorType(err, types.ErrorTypeNotFound))
	})
}
