// ABOUTME: Maps service failures to HTTP status codes and JSON error bodies
// ABOUTME: The only place apperr kinds meet HTTP

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/2389/taskgate/internal/apperr"
)

// statusFor returns the HTTP status for a failure kind.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidToken, apperr.KindUnauthorized, apperr.KindUnknownPrincipal:
		return http.StatusUnauthorized
	case apperr.KindPermissionDenied:
		return http.StatusForbidden
	case apperr.KindDuplicateTitle, apperr.KindDuplicateUser,
		apperr.KindTargetNotFound, apperr.KindResourceNotFound, apperr.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sendJSONError writes {"error": message} with the given status.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sendError translates err and writes it. Server-side failures are logged
// with their cause; the client only sees the public message.
func sendError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIDFrom(r.Context()),
			"error", err,
		)
	} else {
		logger.Debug("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", kind.String(),
		)
	}
	sendJSONError(w, status, apperr.PublicMessage(err))
}
