// Package middleware holds the HTTP middleware chain and the shared error
// response helpers.
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quancoi2ka3/sportshop/internal/domain"
	"github.com/quancoi2ka3/sportshop/internal/payment"
	"github.com/quancoi2ka3/sportshop/internal/telemetry"
)

type contextKey string

// RespondWithError writes a structured JSON error response and logs it
// with the request-scoped logger. Internal detail never reaches the
// client; domain.ErrorMessage hides it.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := errorCodeToHTTPStatus(code, err)

	logger := GetLogger(r.Context())

	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}
	if reqID := GetRequestID(r.Context()); reqID != "" {
		attrs = append(attrs, "request_id", reqID)
	}

	if status >= 500 {
		logger.Error("request error", attrs...)
		telemetry.CaptureError(r.Context(), err, map[string]interface{}{
			"path":   r.URL.Path,
			"method": r.Method,
		})
	} else {
		logger.Info("request error", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// errorCodeToHTTPStatus maps domain error codes to HTTP status codes.
// Gateway errors carry the provider's own status through when one exists.
func errorCodeToHTTPStatus(code string, err error) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.EGATEWAY:
		var pe *payment.ProviderError
		if errors.As(err, &pe) && pe.HTTPStatus >= 400 {
			return pe.HTTPStatus
		}
		// No provider response to propagate (network failure, SDK error).
		return http.StatusInternalServerError // 500
	case domain.EVERIFY:
		return http.StatusBadGateway // 502
	case domain.ECONFIG, domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// RespondNotFound is a convenience wrapper for 404 errors.
func RespondNotFound(w http.ResponseWriter, r *http.Request) {
	err := domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found")
	RespondWithError(w, r, err)
}

// RespondBadRequest is a convenience wrapper for 400 errors.
func RespondBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	err := domain.Errorf(domain.EINVALID, "", "%s", message)
	RespondWithError(w, r, err)
}
