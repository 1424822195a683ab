package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hamitcf1/aetherius/pkg/combat"
	"github.com/hamitcf1/aetherius/pkg/delta"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// statusForError maps the engine/combat error taxonomy onto HTTP codes:
// validation 400, state 409, conflict 409, anything else 500.
func statusForError(err error) int {
	var ve *delta.ValidationError
	var se *combat.StateError
	var ce *combat.ConflictError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &se):
		return http.StatusConflict
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.Is(err, combat.ErrLootResolved):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
