package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/riverclinic/ubscare/pkg/types"
)

// loginHandler authenticates and returns the actor plus a session token.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	actor, token, err := s.identity.Login(req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  actor,
		"token": token,
	})
}

// scheduleAppointmentHandler creates a new appointment.
func (s *Server) scheduleAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var req types.ScheduleRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	apt, err := s.workflow.Schedule(&req, actorFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, apt)
}

// getAppointmentHandler returns one appointment.
func (s *Server) getAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	apt, err := s.workflow.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, apt)
}

// changeStatusHandler performs a bare status transition.
func (s *Server) changeStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status types.AppointmentStatus `json:"status"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.workflow.ChangeStatus(mux.Vars(r)["id"], req.Status, actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// changeTypeHandler switches the encounter type.
func (s *Server) changeTypeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type types.AppointmentType `json:"type"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.workflow.ChangeType(mux.Vars(r)["id"], req.Type, actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"type": string(req.Type)})
}

// saveTriageHandler attaches the nursing assessment.
func (s *Server) saveTriageHandler(w http.ResponseWriter, r *http.Request) {
	var triage types.TriageRecord
	if !s.decodeBody(w, r, &triage) {
		return
	}

	if err := s.workflow.SaveTriage(mux.Vars(r)["id"], &triage, actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(types.StatusAwaitingDoctor)})
}

// beginEncounterHandler opens the appointment for attendance.
func (s *Server) beginEncounterHandler(w http.ResponseWriter, r *http.Request) {
	apt, err := s.workflow.BeginEncounter(mux.Vars(r)["id"], actorFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, apt)
}

// finalizeEncounterHandler completes the appointment with the clinical record.
func (s *Server) finalizeEncounterHandler(w http.ResponseWriter, r *http.Request) {
	var enc types.EncounterRecord
	if !s.decodeBody(w, r, &enc) {
		return
	}

	if err := s.workflow.FinalizeEncounter(mux.Vars(r)["id"], &enc, actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(types.StatusCompleted)})
}

// availableTransitionsHandler lists the actor's permitted next statuses.
func (s *Server) availableTransitionsHandler(w http.ResponseWriter, r *http.Request) {
	apt, err := s.workflow.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.workflow.AvailableTransitions(apt, actorFrom(r)))
}
