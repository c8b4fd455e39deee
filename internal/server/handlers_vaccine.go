package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/riverclinic/ubscare/pkg/types"
)

// upsertStockHandler creates or updates a vaccine stock batch.
func (s *Server) upsertStockHandler(w http.ResponseWriter, r *http.Request) {
	var item types.VaccineStockItem
	if !s.decodeBody(w, r, &item) {
		return
	}

	if err := s.vaccine.UpsertStock(&item, actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

// listStockHandler serves the vaccine stock.
func (s *Server) listStockHandler(w http.ResponseWriter, r *http.Request) {
	stock, err := s.vaccine.Stock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stock)
}

// applyVaccineHandler registers one applied dose.
func (s *Server) applyVaccineHandler(w http.ResponseWriter, r *http.Request) {
	var v types.Vaccination
	if !s.decodeBody(w, r, &v) {
		return
	}

	applied, err := s.vaccine.Apply(&v, actorFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, applied)
}

// vaccinationHistoryHandler serves a patient's applied doses.
func (s *Server) vaccinationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := s.vaccine.History(mux.Vars(r)["patientId"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}
