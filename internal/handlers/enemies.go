package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/hamitcf1/aetherius/pkg/storage"
)

// EnemiesHandler lists the enemy archetype catalog so the UI can browse
// what the bestiary offers.
type EnemiesHandler struct {
	store  storage.Store
	logger *slog.Logger
}

func NewEnemiesHandler(store storage.Store, logger *slog.Logger) *EnemiesHandler {
	return &EnemiesHandler{store: store, logger: logger}
}

// Register mounts the enemy catalog routes.
func (h *EnemiesHandler) Register(r *mux.Router) {
	r.HandleFunc("/enemies", h.List).Methods(http.MethodGet)
	r.HandleFunc("/enemies/{id}", h.Get).Methods(http.MethodGet)
}

func (h *EnemiesHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.ListEnemyTemplates(r.Context())
	if err != nil {
		h.logger.Error("Failed to list enemy templates", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list enemy templates")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"enemies": names})
}

func (h *EnemiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	tpl, err := h.store.GetEnemyTemplate(r.Context(), id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, h.logger, http.StatusNotFound, "Enemy template not found")
			return
		}
		h.logger.Error("Failed to load enemy template", "archetype", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load enemy template")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, tpl)
}
