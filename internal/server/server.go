package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/riverclinic/ubscare/pkg/config"
	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/monitoring"
	"github.com/riverclinic/ubscare/pkg/types"
)

// Server exposes the clinic services over HTTP.
type Server struct {
	cfg      *config.ServerConfig
	logger   *logger.Logger
	metrics  *monitoring.MetricsCollector
	identity interfaces.IdentityService
	workflow interfaces.WorkflowService
	schedule interfaces.ScheduleService
	lab      interfaces.LabService
	vaccine  interfaces.VaccineService
	export   interfaces.ExportService
	probes   []monitoring.Prober

	server *http.Server
}

// New wires the HTTP server over the given services.
func New(
	cfg *config.ServerConfig,
	log *logger.Logger,
	metrics *monitoring.MetricsCollector,
	identity interfaces.IdentityService,
	workflow interfaces.WorkflowService,
	schedule interfaces.ScheduleService,
	lab interfaces.LabService,
	vaccine interfaces.VaccineService,
	export interfaces.ExportService,
	probes ...monitoring.Prober,
) *Server {
	return &Server{
		cfg:      cfg,
		logger:   log,
		metrics:  metrics,
		identity: identity,
		workflow: workflow,
		schedule: schedule,
		lab:      lab,
		vaccine:  vaccine,
		export:   export,
		probes:   probes,
	}
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes(router *mux.Router) {
	router.HandleFunc("/health", monitoring.HealthHandler("ubscare", s.probes...)).Methods("GET")
	router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.metrics.HTTPMiddleware)

	api.HandleFunc("/login", s.loginHandler).Methods("POST")

	authed := api.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)

	// Appointment lifecycle
	authed.HandleFunc("/appointments", s.scheduleAppointmentHandler).Methods("POST")
	authed.HandleFunc("/appointments/{id}", s.getAppointmentHandler).Methods("GET")
	authed.HandleFunc("/appointments/{id}/status", s.changeStatusHandler).Methods("PUT")
	authed.HandleFunc("/appointments/{id}/type", s.changeTypeHandler).Methods("PUT")
	authed.HandleFunc("/appointments/{id}/triage", s.saveTriageHandler).Methods("POST")
	authed.HandleFunc("/appointments/{id}/attend", s.beginEncounterHandler).Methods("POST")
	authed.HandleFunc("/appointments/{id}/finalize", s.finalizeEncounterHandler).Methods("POST")
	authed.HandleFunc("/appointments/{id}/transitions", s.availableTransitionsHandler).Methods("GET")

	// Schedule projections
	authed.HandleFunc("/schedule/reception", s.receptionQueueHandler).Methods("GET")
	authed.HandleFunc("/schedule/daily", s.dailyRosterHandler).Methods("GET")
	authed.HandleFunc("/schedule/mine", s.patientAgendaHandler).Methods("GET")

	// Lab orders
	authed.HandleFunc("/lab/orders", s.requestLabOrderHandler).Methods("POST")
	authed.HandleFunc("/lab/orders", s.labQueueHandler).Methods("GET")
	authed.HandleFunc("/lab/orders/{id}/result", s.attachResultHandler).Methods("PUT")
	authed.HandleFunc("/lab/orders/{id}/complete", s.completeLabOrderHandler).Methods("POST")
	authed.HandleFunc("/lab/orders/{id}/urgent", s.markUrgentHandler).Methods("POST")
	authed.HandleFunc("/lab/orders/{id}/opinion", s.addOpinionHandler).Methods("PUT")

	// Vaccines
	authed.HandleFunc("/vaccines/stock", s.upsertStockHandler).Methods("POST")
	authed.HandleFunc("/vaccines/stock", s.listStockHandler).Methods("GET")
	authed.HandleFunc("/vaccines/apply", s.applyVaccineHandler).Methods("POST")
	authed.HandleFunc("/patients/{patientId}/vaccinations", s.vaccinationHistoryHandler).Methods("GET")

	// Record export
	authed.HandleFunc("/patients/{patientId}/export", s.exportRecordHandler).Methods("POST")

	s.logger.WithComponent("server").Info("Routes configured")
}

// Start runs the HTTP server until Stop or a listener error.
func (s *Server) Start() error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeout) * time.Second,
	}

	s.logger.WithComponent("server").WithField("addr", addr).Info("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.WithComponent("server").Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// writeError maps a domain error onto its HTTP status and a structured body.
// Unclassified failures get a generic message; classified ones surface the
// rule that blocked the operation.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ce *types.ClinicError
	if !errors.As(err, &ce) {
		s.logger.WithComponent("server").WithError(err).Error("Unclassified failure")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "algo deu errado, tente novamente",
		})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Type {
	case types.ErrorTypeValidation:
		status = http.StatusBadRequest
	case types.ErrorTypeTransition:
		status = http.StatusConflict
	case types.ErrorTypeAuthorization:
		status = http.StatusForbidden
	case types.ErrorTypeNotFound:
		status = http.StatusNotFound
	case types.ErrorTypeStorage:
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, ce)
}

// decodeBody decodes a JSON request body into v.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "corpo da requisição inválido", nil))
		return false
	}
	return true
}
