package handlers

import (
	"net/http"

	"github.com/thushan/warden/internal/adapter/security"
	"github.com/thushan/warden/internal/util"
)

// echoHandler stands in for a downstream when no upstream is configured. It
// answers with the sanitised input, which makes the guard easy to poke at.
func (a *Application) echoHandler(w http.ResponseWriter, r *http.Request) {
	input, ok := security.InputFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "request was not inspected")
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"method":    r.Method,
		"path":      r.URL.Path,
		"requestId": util.RequestIDFromContext(r.Context()),
		"input":     input,
	})
}
