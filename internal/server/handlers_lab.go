package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/riverclinic/ubscare/pkg/types"
)

// requestLabOrderHandler creates a new lab test order.
func (s *Server) requestLabOrderHandler(w http.ResponseWriter, r *http.Request) {
	var order types.LabTestOrder
	if !s.decodeBody(w, r, &order) {
		return
	}

	created, err := s.lab.Request(&order, actorFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// labQueueHandler serves the lab order queue.
func (s *Server) labQueueHandler(w http.ResponseWriter, r *http.Request) {
	queue, err := s.lab.Queue(
		r.URL.Query().Get("search"),
		types.LabStatus(r.URL.Query().Get("status")),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, queue)
}

// attachResultHandler stores a result attachment reference.
func (s *Server) attachResultHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		File string `json:"file"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.lab.AttachResult(mux.Vars(r)["id"], req.File, actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

// completeLabOrderHandler concludes an order.
func (s *Server) completeLabOrderHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.lab.Complete(mux.Vars(r)["id"], actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(types.LabCompleted)})
}

// markUrgentHandler raises an order's priority.
func (s *Server) markUrgentHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.lab.MarkUrgent(mux.Vars(r)["id"], actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(types.LabUrgent)})
}

// addOpinionHandler attaches the medical opinion to a concluded order.
func (s *Server) addOpinionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Opinion string `json:"opinion"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.lab.AddOpinion(mux.Vars(r)["id"], req.Opinion, actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}
