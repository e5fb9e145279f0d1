package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/wonny/sectrack/internal/entity"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/logger"
)

// StateHandler serves read access to the stored configuration and the live
// entity registry. Every request re-reads the store; nothing is cached.
type StateHandler struct {
	store    *store.Store
	registry *entity.Registry
	logger   *logger.Logger
	entryID  string
}

// NewStateHandler creates a state handler.
func NewStateHandler(st *store.Store, reg *entity.Registry, log *logger.Logger, entryID string) *StateHandler {
	return &StateHandler{
		store:    st,
		registry: reg,
		logger:   log,
		entryID:  entryID,
	}
}

// GetContracts returns all tracked contracts.
// GET /api/contracts
func (h *StateHandler) GetContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.store.Contracts(r.Context(), h.entryID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get contracts")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve contracts")
		return
	}

	respondJSON(w, http.StatusOK, contracts)
}

// GetAliases returns all custom sensor aliases.
// GET /api/aliases
func (h *StateHandler) GetAliases(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.store.Aliases(r.Context(), h.entryID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get aliases")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve aliases")
		return
	}

	respondJSON(w, http.StatusOK, aliases)
}

// GetTopContracts returns the ranked cheapest contracts.
// GET /api/top-contracts
func (h *StateHandler) GetTopContracts(w http.ResponseWriter, r *http.Request) {
	top, err := h.store.TopContracts(r.Context(), h.entryID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get top contracts")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve top contracts")
		return
	}

	respondJSON(w, http.StatusOK, top)
}

// EntityResponse is one live entity with its current state.
type EntityResponse struct {
	EntityID string `json:"entity_id"`
	entity.State
}

// GetEntities returns every live entity and its state.
// GET /api/entities
func (h *StateHandler) GetEntities(w http.ResponseWriter, r *http.Request) {
	ids := h.registry.EntityIDs()
	sort.Strings(ids)

	entities := make([]EntityResponse, 0, len(ids))
	for _, id := range ids {
		state, ok := h.registry.Get(id)
		if !ok {
			continue
		}
		entities = append(entities, EntityResponse{EntityID: id, State: state})
	}

	respondJSON(w, http.StatusOK, entities)
}

// GetEntity returns one entity's state.
// GET /api/entities/{id}
func (h *StateHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	state, ok := h.registry.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Entity not found")
		return
	}

	respondJSON(w, http.StatusOK, EntityResponse{EntityID: id, State: state})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
