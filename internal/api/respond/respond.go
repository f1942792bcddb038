// Package respond writes JSON responses and maps failures onto the API's
// error contract: every error body is {"error": string}.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

type errorBody struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes {"error": message} with the given status. Client errors are
// logged at warn, server errors at error; the underlying err never reaches
// the response body.
func Error(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if status >= 500 {
		event = logger.Error()
	}
	event.
		Err(err).
		Int("status", status).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg(message)

	JSON(w, status, errorBody{Error: message})
}

// Internal writes a generic 500 without leaking failure detail.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	Error(w, r, http.StatusInternalServerError, "Internal server error", err)
}
