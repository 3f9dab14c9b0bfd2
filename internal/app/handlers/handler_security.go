package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/thushan/warden/internal/adapter/sink"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/util"
)

type SecurityStatusResponse struct {
	domain.SecurityStatus
	Counters     ports.SecurityStats `json:"counters"`
	Sink         sink.ForwarderStats `json:"sink"`
	RulesVersion string              `json:"rulesVersion"`
}

type identityRequest struct {
	Identity string `json:"identity" validate:"required,max=256"`
}

type unblockResponse struct {
	Identity  string `json:"identity"`
	Unblocked bool   `json:"unblocked"`
}

func (a *Application) securityStatusHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, SecurityStatusResponse{
		SecurityStatus: a.security.Status(),
		Counters:       a.stats.GetSecurityStats(),
		Sink:           a.sinkStats(),
		RulesVersion:   a.security.RulesVersion(),
	})
}

func (a *Application) blockHandler(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if !a.readIdentity(w, r, &req) {
		return
	}
	a.security.Block(req.Identity, actorFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

func (a *Application) unblockHandler(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if !a.readIdentity(w, r, &req) {
		return
	}
	found := a.security.Unblock(req.Identity, actorFrom(r))
	a.writeJSON(w, http.StatusOK, unblockResponse{Identity: req.Identity, Unblocked: found})
}

func (a *Application) readIdentity(w http.ResponseWriter, r *http.Request, req *identityRequest) bool {
	err := a.decodeAndValidate(r, req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeError(w, http.StatusBadRequest, "identity is required")
	case errors.Is(err, errEmptyBody):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadRequest, "invalid JSON body")
	}
	return false
}

func actorFrom(r *http.Request) string {
	if id, ok := util.IdentityFromContext(r.Context()); ok {
		return id
	}
	return domain.UnknownIdentity
}
