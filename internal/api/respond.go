package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	"go.uber.org/zap"
)

// RespondJSON writes the standard response envelope.
func RespondJSON(w http.ResponseWriter, statusCode int, body models.ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}

// RespondError maps the error taxonomy onto HTTP statuses:
// validation 400, not found 404, frozen 400 with an errorCode,
// upstream trouble and everything unknown 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		RespondJSON(w, http.StatusBadRequest, models.ApiResponse{
			Status:  "error",
			Message: err.Error(),
		})
	case errors.Is(err, store.ErrNotFound):
		RespondJSON(w, http.StatusNotFound, models.ApiResponse{
			Status:  "error",
			Message: err.Error(),
		})
	case errors.Is(err, store.ErrAccountFrozen):
		RespondJSON(w, http.StatusBadRequest, models.ApiResponse{
			Status:    "error",
			Message:   err.Error(),
			ErrorCode: "ACCOUNT_FROZEN",
		})
	default:
		zap.L().Error("Request failed", zap.Error(err))
		RespondJSON(w, http.StatusInternalServerError, models.ApiResponse{
			Status:  "error",
			Message: "internal error",
		})
	}
}
