package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/riverclinic/ubscare/internal/lab"
	"github.com/riverclinic/ubscare/internal/vaccine"
	"github.com/riverclinic/ubscare/internal/workflow"
	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/monitoring"
	"github.com/riverclinic/ubscare/pkg/types"
)

// Renderer turns an assembled (patient, history) pair into a document. The
// document layout is the reporting collaborator's concern; this service only
// guarantees the history arrives sorted descending by event date-time.
type Renderer interface {
	Render(patient *types.Patient, history []types.HistoryEntry) (path string, err error)
}

// Service assembles patient record exports. Export runs fire-and-forget;
// the outcome comes back through the done callback.
type Service struct {
	store    interfaces.Store
	logger   *logger.Logger
	metrics  *monitoring.MetricsCollector
	renderer Renderer
}

// New creates the export service.
func New(store interfaces.Store, log *logger.Logger, metrics *monitoring.MetricsCollector, renderer Renderer) *Service {
	return &Service{store: store, logger: log, metrics: metrics, renderer: renderer}
}

var _ interfaces.ExportService = (*Service)(nil)

// AssembleHistory gathers the patient's completed encounters, lab orders and
// vaccinations, tagged by record type and sorted descending by event
// date-time.
func (s *Service) AssembleHistory(patientID string) (*types.Patient, []types.HistoryEntry, error) {
	patients, err := s.store.Get(workflow.CollectionPatients, map[string]interface{}{"id": patientID})
	if err != nil {
		return nil, nil, err
	}
	if len(patients) == 0 {
		return nil, nil, types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("paciente %s não encontrado", patientID))
	}

	var patient types.Patient
	if err := types.FromRecord(patients[0], &patient); err != nil {
		return nil, nil, types.NewInternalError(types.ErrCodeInternalError, "failed to decode patient", err)
	}

	var history []types.HistoryEntry

	appointments, err := s.store.Get(workflow.CollectionAppointments, map[string]interface{}{
		"patient_id": patientID,
		"status":     string(types.StatusCompleted),
	})
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range appointments {
		when, ok := eventTime(rec, "date")
		if !ok {
			continue
		}
		history = append(history, types.HistoryEntry{
			RecordType: types.HistoryEncounter,
			Date:       when,
			Record:     rec,
		})
	}

	labTests, err := s.store.Get(lab.CollectionLabTests, map[string]interface{}{"patient_id": patientID})
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range labTests {
		when, ok := eventTime(rec, "created_at")
		if !ok {
			continue
		}
		history = append(history, types.HistoryEntry{
			RecordType: types.HistoryLabTest,
			Date:       when,
			Record:     rec,
		})
	}

	vaccinations, err := s.store.Get(vaccine.CollectionVaccinations, map[string]interface{}{"patient_id": patientID})
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range vaccinations {
		when, ok := eventTime(rec, "vaccination_date")
		if !ok {
			continue
		}
		history = append(history, types.HistoryEntry{
			RecordType: types.HistoryVaccination,
			Date:       when,
			Record:     rec,
		})
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[j].Date.Before(history[i].Date)
	})

	return &patient, history, nil
}

// Export assembles and renders the record asynchronously. done is invoked
// exactly once with the rendered document path or the failure.
func (s *Service) Export(patientID string, done func(path string, err error)) {
	go func() {
		patient, history, err := s.AssembleHistory(patientID)
		if err != nil {
			s.finish(patientID, "", err, done)
			return
		}

		path, err := s.renderer.Render(patient, history)
		s.finish(patientID, path, err, done)
	}()
}

func (s *Service) finish(patientID, path string, err error, done func(string, error)) {
	if s.metrics != nil {
		s.metrics.RecordExport(err == nil)
	}
	entry := s.logger.WithComponent("export").WithField("patient_id", patientID)
	if err != nil {
		entry.WithError(err).Warn("Record export failed")
	} else {
		entry.WithField("path", path).Info("Record export completed")
	}
	if done != nil {
		done(path, err)
	}
}

// eventTime extracts the event timestamp from a record field, accepting the
// clinic wall-clock layout, RFC 3339, and bare calendar dates.
func eventTime(rec types.Record, field string) (time.Time, bool) {
	raw, _ := rec[field].(string)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := types.ParseClinicTime(raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(types.ClinicDateLayout, raw, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}
