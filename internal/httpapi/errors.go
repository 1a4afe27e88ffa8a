package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"phrased/internal/acquire"
	"phrased/internal/hub"
	"phrased/internal/manager"
	"phrased/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case errors.Is(err, manager.ErrPathNotConfigured), errors.Is(err, manager.ErrEmptyInput),
		errors.Is(err, acquire.ErrInvalidDescriptor):
		return http.StatusBadRequest
	case acquire.IsBusy(err):
		return http.StatusConflict
	case manager.IsDependencyUnavailable(err), errors.Is(err, manager.ErrModelNotLoaded),
		errors.Is(err, manager.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case hub.IsNetworkError(err), errors.Is(err, hub.ErrManifestParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
