// internal/component/respond.go
//
// Shared JSON response helpers for component handlers.
//
// Every handler writes through these helpers instead of raw
// http.ResponseWriter calls so error envelopes, content type, and logging
// stay consistent across endpoints.

package component

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the error envelope for every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data with status.  Encoding failures are logged; the status
// line has already gone out by then.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.S().Warnw("json encode failed", "err", err)
	}
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, data) }

// NoContent writes a 204 response with no body.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Error writes an ErrorResponse.  code is a stable machine-readable tag;
// message is shown to the user.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorResponse{Error: message, Code: code})
}

// ErrorDetails is Error with a details payload, e.g. per-field messages.
func ErrorDetails(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

// BadRequest writes a 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "bad_request", message)
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "not_found", message)
}

// InternalError logs err and writes a generic 500.  A nil log falls back to
// zap.S().
func InternalError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	if log == nil {
		log = zap.S()
	}
	log.Errorw("internal error", "err", err)
	Error(w, http.StatusInternalServerError, "internal", "Something went wrong.  Please try again later.")
}

// maxBody caps JSON request bodies.  Forms here are a few hundred bytes.
const maxBody = 64 << 10

// Decode reads a JSON body into dst.  It writes a 400 and returns false on
// failure.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
