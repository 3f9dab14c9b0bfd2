package handlers

import (
	"net/http"

	"github.com/thushan/warden/internal/core/constants"
	"github.com/thushan/warden/internal/core/domain"
)

var (
	responseHealthy   = []byte(`{"status":"healthy"}`)
	responseUnhealthy = []byte(`{"status":"unhealthy"}`)
)

// healthHandler is the unauthenticated liveness probe. Only an error status
// is unhealthy; a warning still answers 200 so monitors do not flap.
func (a *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")

	if a.aggregator.Status() == domain.HealthError {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write(responseUnhealthy)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(responseHealthy)
}
