package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/types"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(dir, logger.Discard(), nil, nil)
	require.NoError(t, err)
	return fs, dir
}

func TestSaveMergesPartialUpdates(t *testing.T) {
	fs, _ := newTestStore(t)

	require.NoError(t, fs.Save("appointments", types.Record{
		"id":           "apt-1",
		"patient_id":   "p-1",
		"status":       "Em Atendimento",
		"triage":       map[string]interface{}{"chief_complaint": "febre"},
		"prescription": "dipirona",
	}))

	// A partial update carries only the fields its writer owns.
	require.NoError(t, fs.Save("appointments", types.Record{
		"id":     "apt-1",
		"status": "Realizado",
	}))

	records, err := fs.Get("appointments", map[string]interface{}{"id": "apt-1"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "Realizado", got["status"])
	assert.Equal(t, "p-1", got["patient_id"])
	assert.Equal(t, "dipirona", got["prescription"])
	assert.Equal(t, "febre", got["triage"].(map[string]interface{})["chief_complaint"])
}

func TestSaveAppendsUnknownID(t *testing.T) {
	fs, _ := newTestStore(t)

	require.NoError(t, fs.Save("patients", types.Record{"id": "p-1", "name": "Maria"}))
	require.NoError(t, fs.Save("patients", types.Record{"id": "p-2", "name": "João"}))

	records, err := fs.Get("patients", nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSaveSkipsRecordWithoutID(t *testing.T) {
	fs, _ := newTestStore(t)

	require.NoError(t, fs.Save("patients", types.Record{"name": "Sem Identidade"}))

	records, err := fs.Get("patients", nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetIsIdempotentAndIsolated(t *testing.T) {
	fs, _ := newTestStore(t)

	require.NoError(t, fs.Save("patients", types.Record{"id": "p-1", "name": "Maria"}))

	first, err := fs.Get("patients", nil)
	require.NoError(t, err)
	second, err := fs.Get("patients", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Mutating a returned record must not leak into the store.
	first[0]["name"] = "Alterado"
	third, err := fs.Get("patients", nil)
	require.NoError(t, err)
	assert.Equal(t, "Maria", third[0]["name"])
}

func TestGetUnknownCollectionReadsEmpty(t *testing.T) {
	fs, _ := newTestStore(t)

	records, err := fs.Get("nunca_escrita", nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetFilters(t *testing.T) {
	fs, _ := newTestStore(t)

	require.NoError(t, fs.Save("appointments",
		types.Record{"id": "apt-1", "patient_id": "p-1", "status": "Realizado"},
		types.Record{"id": "apt-2", "patient_id": "p-1", "status": "Agendado"},
		types.Record{"id": "apt-3", "patient_id": "p-2", "status": "Realizado"},
	))

	records, err := fs.Get("appointments", map[string]interface{}{
		"patient_id": "p-1",
		"status":     "Realizado",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "apt-1", records[0].ID())

	// A filter on an absent key matches nothing.
	records, err = fs.Get("appointments", map[string]interface{}{"doctor_id": "d-1"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetFilterMatchesTypedValues(t *testing.T) {
	fs, _ := newTestStore(t)

	require.NoError(t, fs.Save("vaccine_stock", types.Record{"id": "v-1", "quantity": 3}))

	// After a reload the stored 3 decodes as float64; the filter still matches.
	fs2, err := NewFileStore(fs.dir, logger.Discard(), nil, nil)
	require.NoError(t, err)
	records, err := fs2.Get("vaccine_stock", map[string]interface{}{"quantity": 3})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDelete(t *testing.T) {
	fs, _ := newTestStore(t)

	require.NoError(t, fs.Save("patients",
		types.Record{"id": "p-1", "name": "Maria"},
		types.Record{"id": "p-2", "name": "João"},
	))

	require.NoError(t, fs.Delete("patients", "p-1"))

	records, err := fs.Get("patients", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p-2", records[0].ID())

	// Deleting an absent id is a no-op.
	require.NoError(t, fs.Delete("patients", "p-99"))
}

func TestDeleteAbsentIDPublishesNothing(t *testing.T) {
	dir := t.TempDir()
	bus := NewBus()
	fs, err := NewFileStore(dir, logger.Discard(), bus, nil)
	require.NoError(t, err)
	require.NoError(t, fs.Save("patients", types.Record{"id": "p-1"}))

	events, cancel := bus.Subscribe("patients")
	defer cancel()

	require.NoError(t, fs.Delete("patients", "p-99"))
	select {
	case event := <-events:
		t.Fatalf("no-op delete announced a change to %s", event.Collection)
	default:
	}

	// A matching delete still announces.
	require.NoError(t, fs.Delete("patients", "p-1"))
	select {
	case event := <-events:
		assert.Equal(t, "patients", event.Collection)
	case <-time.After(time.Second):
		t.Fatal("expected a change notification for the matched delete")
	}
}

func TestReopenReadsCommittedState(t *testing.T) {
	fs, dir := newTestStore(t)

	require.NoError(t, fs.Save("appointments", types.Record{"id": "apt-1", "status": "Agendado"}))
	require.NoError(t, fs.Save("appointments", types.Record{"id": "apt-1", "status": "Aguardando Atendimento"}))

	reopened, err := NewFileStore(dir, logger.Discard(), nil, nil)
	require.NoError(t, err)

	records, err := reopened.Get("appointments", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Aguardando Atendimento", records[0]["status"])
}

func TestCorruptCollectionSurfacesStorageError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "patients.json"), []byte("{not json"), 0o644))

	fs, err := NewFileStore(dir, logger.Discard(), nil, nil)
	require.NoError(t, err)

	_, err = fs.Get("patients", nil)
	assert.True(t, types.IsErrorType(err, types.ErrorTypeStorage))
}

func TestSavePublishesChange(t *testing.T) {
	dir := t.TempDir()
	bus := NewBus()
	fs, err := NewFileStore(dir, logger.Discard(), bus, nil)
	require.NoError(t, err)

	events, cancel := bus.Subscribe("appointments")
	defer cancel()

	require.NoError(t, fs.Save("appointments", types.Record{"id": "apt-1"}))
	require.NoError(t, fs.Save("patients", types.Record{"id": "p-1"}))

	select {
	case event := <-events:
		assert.Equal(t, "appointments", event.Collection)
	case <-time.After(time.Second):
		t.Fatal("expected a change notification for appointments")
	}

	// The patients write must not reach an appointments-only subscriber.
	select {
	case event := <-events:
		t.Fatalf("unexpected event for collection %s", event.Collection)
	default:
	}
}
