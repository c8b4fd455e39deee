package monitoring

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single named probe result.
type HealthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// HealthReport represents the overall health report
type HealthReport struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Service   string        `json:"service"`
	Checks    []HealthCheck `json:"checks,omitempty"`
}

// Prober is a component that can report its own health.
type Prober func() HealthCheck

// HealthHandler serves an aggregate health report over the registered probes.
func HealthHandler(service string, probes ...Prober) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := HealthReport{
			Status:    HealthStatusHealthy,
			Timestamp: time.Now(),
			Service:   service,
		}

		for _, probe := range probes {
			check := probe()
			report.Checks = append(report.Checks, check)
			if check.Status != HealthStatusHealthy {
				report.Status = HealthStatusUnhealthy
			}
		}

		code := http.StatusOK
		if report.Status != HealthStatusHealthy {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(report)
	}
}
