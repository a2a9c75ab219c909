package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"harvestbook/internal/core"
	"harvestbook/internal/services"
	"harvestbook/internal/storage"
)

// envelope is the uniform JSON response shape. Exactly one of Data and
// Error is set.
type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= 500 {
		slog.ErrorContext(ctx, "Request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: err.Error()})
}

// validationErrs are the core sentinels that mean the client sent bad
// domain data.
var validationErrs = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidHours,
	core.ErrEmptyName,
	core.ErrEmptyVillage,
	core.ErrMissingFarmer,
	core.ErrMissingMachine,
	core.ErrMissingDealer,
	core.ErrMissingRental,
	core.ErrBadStatus,
	core.ErrBadPaymentType,
	core.ErrBadSource,
	core.ErrBadPayer,
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInUse),
		errors.Is(err, services.ErrReassignment),
		errors.Is(err, services.ErrRateLocked):
		return http.StatusConflict
	}
	var badReq *badRequestError
	if errors.As(err, &badReq) {
		return http.StatusBadRequest
	}
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// badRequestError marks malformed input found before domain validation
// (unreadable JSON, bad path IDs, unparsable decimals).
type badRequestError struct {
	msg   string
	cause error
}

func (e *badRequestError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *badRequestError) Unwrap() error { return e.cause }

func badRequest(msg string, cause error) error {
	return &badRequestError{msg: msg, cause: cause}
}
