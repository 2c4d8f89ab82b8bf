package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mobilewallet/bankd/internal/domain"
	"github.com/mobilewallet/bankd/internal/logging"
)

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, payload APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, message string, data any) {
	RespondJSON(w, status, APIResponse{Success: true, Message: message, Data: data})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError) {
	RespondJSON(w, appErr.Status, APIResponse{Success: false, Message: appErr.Message, Code: appErr.Code})
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondJSON(w, http.StatusBadRequest, APIResponse{
		Success: false,
		Message: "validation failed",
		Code:    "VALIDATION_ERROR",
		Data:    map[string]any{"fields": fields},
	})
}

// RespondDomainError maps domain sentinel errors onto stable API errors.
// Anything unrecognized is logged and reported as an internal error.
func RespondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		RespondAppError(w, ErrAccountNotFound)
	case errors.Is(err, domain.ErrNotFound):
		RespondAppError(w, ErrPaymentNotFound)
	case errors.Is(err, domain.ErrAlreadyProcessed):
		RespondAppError(w, ErrAlreadyProcessed)
	case errors.Is(err, domain.ErrBankNotFound):
		RespondAppError(w, ErrBankNotFound)
	case errors.Is(err, domain.ErrAccountExists):
		RespondAppError(w, ErrAccountExists)
	case errors.Is(err, domain.ErrInvalidAccount):
		RespondAppError(w, ErrInvalidAccount)
	default:
		logging.FromContext(ctx).Error("unhandled error", "error", err)
		RespondAppError(w, ErrInternal)
	}
}
