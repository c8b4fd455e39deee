package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/riverclinic/ubscare/pkg/types"
)

// receptionQueueHandler serves the reception queue projection.
func (s *Server) receptionQueueHandler(w http.ResponseWriter, r *http.Request) {
	filter := &types.ReceptionFilter{
		Search: r.URL.Query().Get("search"),
		Status: types.AppointmentStatus(r.URL.Query().Get("status")),
	}

	queue, err := s.schedule.ReceptionQueue(filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, queue)
}

// dailyRosterHandler serves the physician daily roster. An optional "day"
// query parameter (YYYY-MM-DD) overrides the viewer-local current date.
func (s *Server) dailyRosterHandler(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := time.ParseInLocation(types.ClinicDateLayout, raw, time.Local)
		if err != nil {
			s.writeError(w, types.NewValidationError(types.ErrCodeInvalidDate,
				"data inválida, use AAAA-MM-DD", nil))
			return
		}
		day = parsed
	}

	roster, err := s.schedule.DoctorDailyRoster(day, actorFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, roster)
}

// patientAgendaHandler serves a patient-role viewer's own appointments.
func (s *Server) patientAgendaHandler(w http.ResponseWriter, r *http.Request) {
	agenda, err := s.schedule.PatientAgenda(actorFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, agenda)
}

// exportRecordHandler kicks off a fire-and-forget record export.
func (s *Server) exportRecordHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientId"]

	// Validate the reference up front so a bad id fails the request, not
	// the background render.
	if _, _, err := s.export.AssembleHistory(patientID); err != nil {
		s.writeError(w, err)
		return
	}

	s.export.Export(patientID, nil)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"patient_id": patientID})
}
