package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/paydesk/pkg/api"
)

// HTTPStatusFromError maps an APIError type to the corresponding HTTP status
// code.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeForbidden:
		return http.StatusForbidden
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeConflict:
		return http.StatusConflict
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response body failed", "error", err)
	}
}

// WriteErrorResponse writes the failure envelope with an explicit status.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	WriteJSON(w, statusCode, api.NewErrorResponse(apiErr))
}

// WriteAPIError writes an APIError response, deriving the HTTP status code
// from the error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}

// internalError is the only message a client sees for unexpected failures.
const internalError = "Internal server error"

// WriteError writes err to the client. An *api.APIError is reported as is;
// anything else is logged and replaced by a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		WriteAPIError(w, apiErr)
		return
	}
	slog.ErrorContext(r.Context(), "request failed",
		"request_id", RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	WriteAPIError(w, api.NewServerError(internalError))
}

// MaxBodySize caps JSON request bodies.
const MaxBodySize = 1 << 20

// DecodeJSON reads a JSON request body into dst. Unknown fields are
// ignored. The returned error is ready to be written to the client.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) *api.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return api.NewInvalidRequestError("body", "request body too large")
		}
		return api.NewInvalidRequestError("body", "invalid request body")
	}
	return nil
}
