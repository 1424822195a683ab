package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hamitcf1/aetherius/internal/events"
	"github.com/hamitcf1/aetherius/pkg/combat"
	"github.com/hamitcf1/aetherius/pkg/delta"
	"github.com/hamitcf1/aetherius/pkg/engine"
)

// ApplyHandler accepts delta envelopes and runs them through the apply
// pipeline. Every source (UI, shop, narrative oracle) is validated
// identically. A combat_start field opens a session with the combat
// manager after the rest of the envelope commits.
type ApplyHandler struct {
	engine      *engine.Engine
	combat      *combat.Manager
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewApplyHandler(eng *engine.Engine, cm *combat.Manager, broadcaster *events.Broadcaster, logger *slog.Logger) *ApplyHandler {
	return &ApplyHandler{engine: eng, combat: cm, broadcaster: broadcaster, logger: logger}
}

// Register mounts the apply route.
func (h *ApplyHandler) Register(r *mux.Router) {
	r.HandleFunc("/characters/{id}/apply", h.Apply).Methods(http.MethodPost)
}

type applyResponse struct {
	*engine.ApplyResult
	CombatSession *combat.Snapshot `json:"combat_session,omitempty"`
}

func (h *ApplyHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid character ID format")
		return
	}

	var env delta.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid envelope body")
		return
	}

	result, err := h.engine.Apply(r.Context(), id, &env)
	if err != nil {
		if strings.Contains(err.Error(), "character not found") {
			writeError(w, h.logger, http.StatusNotFound, "Character not found")
			return
		}
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to apply envelope", "character_id", id, "error", err)
			writeError(w, h.logger, status, "Failed to apply envelope")
			return
		}
		writeError(w, h.logger, status, err.Error())
		return
	}

	resp := applyResponse{ApplyResult: result}

	if result.CombatStart != nil {
		session, err := h.combat.Start(r.Context(), result.Character, result.CombatStart)
		if err != nil {
			// The envelope already committed; report the session
			// failure without pretending the deltas didn't land.
			h.logger.Error("Failed to start combat session", "character_id", id, "error", err)
			writeError(w, h.logger, statusForError(err), err.Error())
			return
		}
		snap := session.Snapshot()
		resp.CombatSession = &snap
		if h.broadcaster != nil {
			h.broadcaster.CombatStarted(r.Context(), id, session.ID)
		}
		// A lethal ambush resolves the session before the first player
		// turn; its defeat must settle like any other terminal outcome.
		settleCombat(r, h.engine, h.combat, h.broadcaster, h.logger, session, session.Outcome())
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}
