package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hamitcf1/aetherius/pkg/engine"
	"github.com/hamitcf1/aetherius/pkg/storage"
)

// CharacterHandler serves character CRUD and the journal listing.
type CharacterHandler struct {
	engine *engine.Engine
	store  storage.Store
	logger *slog.Logger
}

func NewCharacterHandler(eng *engine.Engine, store storage.Store, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{engine: eng, store: store, logger: logger}
}

// Register mounts the character routes on the router.
func (h *CharacterHandler) Register(r *mux.Router) {
	r.HandleFunc("/characters", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/characters/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/characters/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/characters/{id}/journal", h.Journal).Methods(http.MethodGet)
}

type createCharacterRequest struct {
	Name  string `json:"name"`
	Race  string `json:"race,omitempty"`
	Class string `json:"class,omitempty"`
}

func (h *CharacterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Character name is required")
		return
	}

	c, err := h.engine.Create(r.Context(), strings.TrimSpace(req.Name), req.Race, req.Class)
	if err != nil {
		h.logger.Error("Failed to create character", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create character")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, c)
}

func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.characterID(w, r)
	if !ok {
		return
	}

	c, err := h.engine.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load character", "character_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load character")
		return
	}
	if c == nil {
		writeError(w, h.logger, http.StatusNotFound, "Character not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, c)
}

func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.characterID(w, r)
	if !ok {
		return
	}

	if err := h.engine.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete character", "character_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete character")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CharacterHandler) Journal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.characterID(w, r)
	if !ok {
		return
	}

	entries, err := h.store.ListJournal(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list journal", "character_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list journal")
		return
	}

	// Soft-deleted entries stay in storage but are not served.
	visible := entries[:0]
	for _, e := range entries {
		if !e.Deleted {
			visible = append(visible, e)
		}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"entries": visible})
}

func (h *CharacterHandler) characterID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid character ID format")
		return uuid.Nil, false
	}
	return id, true
}
