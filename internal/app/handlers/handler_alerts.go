package handlers

import (
	"errors"
	"net/http"

	"github.com/thushan/warden/internal/core/domain"
)

type configureAlertRequest struct {
	Enabled   *bool            `json:"enabled" validate:"required"`
	Type      domain.AlertType `json:"type" validate:"required"`
	Threshold float64          `json:"threshold" validate:"gte=0"`
}

func (a *Application) alertRulesHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"rules": a.aggregator.Alerts().Rules(),
	})
}

// configureAlertHandler replaces the threshold and enabled flag of one rule.
// The change applies from the next collection tick.
func (a *Application) configureAlertHandler(w http.ResponseWriter, r *http.Request) {
	var req configureAlertRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "type, threshold and enabled are required")
		return
	}

	rule, err := a.aggregator.Alerts().ConfigureAlert(req.Type, req.Threshold, *req.Enabled)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAlertType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to configure alert")
		return
	}

	a.logger.Info("Alert rule updated",
		"type", rule.Type,
		"threshold", rule.Threshold,
		"enabled", rule.Enabled)
	a.writeJSON(w, http.StatusOK, rule)
}
