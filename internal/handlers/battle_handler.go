package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"mealmax/internal/battle"
	"mealmax/internal/random"
	"mealmax/internal/repository"
	"mealmax/internal/service"
)

// BattleHandler handles battle HTTP requests. The battle model holds
// unsynchronized state, so the handler serializes access with a mutex.
type BattleHandler struct {
	model   *battle.Model
	catalog *service.CatalogService
	log     *slog.Logger
	mu      sync.Mutex
}

// NewBattleHandler creates a new battle handler
func NewBattleHandler(model *battle.Model, catalog *service.CatalogService, log *slog.Logger) *BattleHandler {
	return &BattleHandler{
		model:   model,
		catalog: catalog,
		log:     log,
	}
}

// PrepCombatantRequest names the meal to stage for battle
type PrepCombatantRequest struct {
	Name string `json:"meal"`
}

// PrepCombatant handles POST /api/battle/combatants
func (h *BattleHandler) PrepCombatant(w http.ResponseWriter, r *http.Request) {
	var req PrepCombatantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode prep request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "Meal name is required", h.log)
		return
	}

	meal, err := h.catalog.GetMealByName(r.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMealNotFound):
			WriteError(w, http.StatusNotFound, "Meal not found", h.log)
		case errors.Is(err, repository.ErrMealDeleted):
			WriteError(w, http.StatusGone, "Meal has been deleted", h.log)
		default:
			h.log.Error("failed to look up combatant", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	h.mu.Lock()
	err = h.model.PrepCombatant(meal)
	combatants := h.model.Combatants()
	h.mu.Unlock()

	if err != nil {
		if errors.Is(err, battle.ErrCombatantsFull) {
			WriteError(w, http.StatusBadRequest, "Combatant list is full", h.log)
			return
		}
		h.log.Error("failed to prep combatant", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"combatants": combatants}, h.log)
}

// GetCombatants handles GET /api/battle/combatants
func (h *BattleHandler) GetCombatants(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	combatants := h.model.Combatants()
	h.mu.Unlock()

	WriteJSON(w, http.StatusOK, map[string]interface{}{"combatants": combatants}, h.log)
}

// ClearCombatants handles DELETE /api/battle/combatants
func (h *BattleHandler) ClearCombatants(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.model.Clear()
	h.mu.Unlock()

	WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"}, h.log)
}

// Battle handles POST /api/battle
func (h *BattleHandler) Battle(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	winner, err := h.model.Battle(r.Context())
	h.mu.Unlock()

	if err != nil {
		switch {
		case errors.Is(err, battle.ErrNotEnoughCombatants):
			WriteError(w, http.StatusBadRequest, "Two combatants must be prepped for a battle", h.log)
		case errors.Is(err, random.ErrTimeout):
			h.log.Error("random source timed out", "error", err)
			WriteError(w, http.StatusBadGateway, "Random source timed out", h.log)
		case errors.Is(err, random.ErrRequestFailed), errors.Is(err, random.ErrInvalidResponse):
			h.log.Error("random source failed", "error", err)
			WriteError(w, http.StatusBadGateway, "Random source unavailable", h.log)
		default:
			h.log.Error("battle failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"winner": winner}, h.log)
	h.log.Info("battle completed", "winner", winner)
}
