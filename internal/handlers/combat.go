package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hamitcf1/aetherius/internal/events"
	"github.com/hamitcf1/aetherius/pkg/combat"
	"github.com/hamitcf1/aetherius/pkg/engine"
)

// CombatHandler serves live combat sessions: turn submission, early
// outs, and the loot phase. Terminal outcomes are routed back through
// the apply pipeline so combat touches the character the same way every
// other source does.
type CombatHandler struct {
	engine      *engine.Engine
	combat      *combat.Manager
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewCombatHandler(eng *engine.Engine, cm *combat.Manager, broadcaster *events.Broadcaster, logger *slog.Logger) *CombatHandler {
	return &CombatHandler{engine: eng, combat: cm, broadcaster: broadcaster, logger: logger}
}

// Register mounts the combat routes.
func (h *CombatHandler) Register(r *mux.Router) {
	r.HandleFunc("/combat", h.List).Methods(http.MethodGet)
	r.HandleFunc("/combat/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/combat/{id}/action", h.Action).Methods(http.MethodPost)
	r.HandleFunc("/combat/{id}/flee", h.Flee).Methods(http.MethodPost)
	r.HandleFunc("/combat/{id}/surrender", h.Surrender).Methods(http.MethodPost)
	r.HandleFunc("/combat/{id}/loot", h.Loot).Methods(http.MethodGet)
	r.HandleFunc("/combat/{id}/loot", h.ClaimLoot).Methods(http.MethodPost)
}

func (h *CombatHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"sessions": h.combat.List()})
}

func (h *CombatHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, session.Snapshot())
}

func (h *CombatHandler) Action(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var action combat.PlayerAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid action body")
		return
	}

	result, err := session.SubmitAction(action)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		writeError(w, h.logger, status, err.Error())
		return
	}

	h.settleIfDone(r, session, result.Outcome)
	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *CombatHandler) Flee(w http.ResponseWriter, r *http.Request) {
	h.earlyOut(w, r, func(s *combat.Session) (*combat.TurnResult, error) { return s.Flee() })
}

func (h *CombatHandler) Surrender(w http.ResponseWriter, r *http.Request) {
	h.earlyOut(w, r, func(s *combat.Session) (*combat.TurnResult, error) { return s.Surrender() })
}

func (h *CombatHandler) earlyOut(w http.ResponseWriter, r *http.Request, out func(*combat.Session) (*combat.TurnResult, error)) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	result, err := out(session)
	if err != nil {
		writeError(w, h.logger, statusForError(err), err.Error())
		return
	}

	h.settleIfDone(r, session, result.Outcome)
	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *CombatHandler) Loot(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	rolled, err := session.Loot()
	if err != nil {
		writeError(w, h.logger, statusForError(err), err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"entries": rolled})
}

func (h *CombatHandler) ClaimLoot(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var sel combat.LootSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid loot selection body")
		return
	}

	env, err := session.ClaimLoot(sel)
	if err != nil {
		writeError(w, h.logger, statusForError(err), err.Error())
		return
	}

	result, err := h.engine.Apply(r.Context(), session.CharacterID, env)
	if err != nil {
		// The loot phase is already final; the reward envelope must land.
		h.logger.Error("Failed to apply combat reward",
			"session_id", session.ID,
			"character_id", session.CharacterID,
			"error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to apply combat reward")
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.CombatResolved(r.Context(), session.CharacterID, session.ID, string(combat.OutcomeVictory))
	}
	h.combat.Remove(session.ID)
	writeJSON(w, h.logger, http.StatusOK, result)
}

// settleIfDone applies the result envelope of a terminal non-victory
// outcome and evicts the session. Victory sessions stay registered for
// the loot phase.
func (h *CombatHandler) settleIfDone(r *http.Request, session *combat.Session, outcome combat.Outcome) {
	settleCombat(r, h.engine, h.combat, h.broadcaster, h.logger, session, outcome)
}

// settleCombat is the single settlement path for terminal non-victory
// outcomes, shared with the apply route: an ambush opening volley can
// resolve a session before the first player turn.
func settleCombat(r *http.Request, eng *engine.Engine, cm *combat.Manager, broadcaster *events.Broadcaster, logger *slog.Logger, session *combat.Session, outcome combat.Outcome) {
	switch outcome {
	case combat.OutcomeDefeat, combat.OutcomeFled, combat.OutcomeSurrendered:
	default:
		return
	}

	env, err := session.ResultEnvelope()
	if err != nil {
		logger.Error("Failed to build combat result envelope",
			"session_id", session.ID, "error", err)
		return
	}
	if !env.IsEmpty() {
		if _, err := eng.Apply(r.Context(), session.CharacterID, env); err != nil {
			logger.Error("Failed to apply combat result",
				"session_id", session.ID,
				"character_id", session.CharacterID,
				"error", err)
		}
	}
	if broadcaster != nil {
		broadcaster.CombatResolved(r.Context(), session.CharacterID, session.ID, string(outcome))
	}
	cm.Remove(session.ID)
}

func (h *CombatHandler) session(w http.ResponseWriter, r *http.Request) (*combat.Session, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return nil, false
	}
	session := h.combat.Get(id)
	if session == nil {
		writeError(w, h.logger, http.StatusNotFound, "Combat session not found")
		return nil, false
	}
	return session, true
}
