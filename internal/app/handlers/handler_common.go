package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/thushan/warden/internal/core/constants"
)

// maxAdminBody bounds admin write payloads, which are a few fields at most
const maxAdminBody = 64 << 10

var errEmptyBody = errors.New("request body is empty")

func (a *Application) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// decodeAndValidate reads a JSON admin payload into v and runs the struct
// validation tags over it
func (a *Application) decodeAndValidate(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxAdminBody))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, v); err != nil {
		return err
	}
	return a.validate.Struct(v)
}
