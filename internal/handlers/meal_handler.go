package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"mealmax/internal/models"
	"mealmax/internal/repository"
	"mealmax/internal/service"

	"github.com/go-chi/chi/v5"
)

// MealHandler handles meal catalog HTTP requests
type MealHandler struct {
	catalog *service.CatalogService
	log     *slog.Logger
}

// NewMealHandler creates a new meal handler
func NewMealHandler(catalog *service.CatalogService, log *slog.Logger) *MealHandler {
	return &MealHandler{
		catalog: catalog,
		log:     log,
	}
}

// CreateMealRequest represents an incoming meal creation request
type CreateMealRequest struct {
	Name       string  `json:"meal"`
	Cuisine    string  `json:"cuisine"`
	Price      float64 `json:"price"`
	Difficulty string  `json:"difficulty"`
}

// CreateMeal handles POST /api/meal
func (h *MealHandler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	var req CreateMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode meal request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	id, err := h.catalog.CreateMeal(r.Context(), req.Name, req.Cuisine, req.Price, models.Difficulty(req.Difficulty))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidPrice):
			WriteError(w, http.StatusBadRequest, "Price must be a positive number", h.log)
		case errors.Is(err, models.ErrInvalidDifficulty):
			WriteError(w, http.StatusBadRequest, "Difficulty must be 'LOW', 'MED', or 'HIGH'", h.log)
		case errors.Is(err, repository.ErrDuplicateName):
			WriteError(w, http.StatusConflict, "Meal name already exists", h.log)
		default:
			h.log.Error("failed to create meal", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{"id": id}, h.log)
	h.log.Info("meal created successfully", "meal", req.Name, "id", id)
}

// DeleteMeal handles DELETE /api/meal/{mealId}
func (h *MealHandler) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mealID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteMeal(r.Context(), id); err != nil {
		h.writeLookupError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, h.log)
}

// GetMealByID handles GET /api/meal/{mealId}
func (h *MealHandler) GetMealByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mealID(w, r)
	if !ok {
		return
	}

	meal, err := h.catalog.GetMealByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, meal, h.log)
}

// GetMealByName handles GET /api/meal/by-name/{name}
func (h *MealHandler) GetMealByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Meal name is required", h.log)
		return
	}

	meal, err := h.catalog.GetMealByName(r.Context(), name)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, meal, h.log)
}

// Leaderboard handles GET /api/leaderboard
// The sort key defaults to wins; win_pct is the other accepted value.
func (h *MealHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = repository.SortByWins
	}

	entries, err := h.catalog.Leaderboard(r.Context(), sortBy)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortKey) {
			WriteError(w, http.StatusBadRequest, "Invalid sort parameter", h.log)
			return
		}
		h.log.Error("failed to get leaderboard", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries}, h.log)
}

// ResetCatalog handles POST /api/db/reset
func (h *MealHandler) ResetCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.ResetCatalog(r.Context()); err != nil {
		h.log.Error("failed to reset catalog", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"}, h.log)
}

// mealID parses the mealId URL parameter, writing a 400 on bad input
func (h *MealHandler) mealID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "mealId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.log.Warn("invalid meal ID format", "mealId", raw, "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.log)
		return 0, false
	}
	return id, true
}

// writeLookupError maps repository lookup failures to HTTP statuses.
// Absence and soft-deletion are distinct signals with distinct statuses.
func (h *MealHandler) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrMealNotFound):
		WriteError(w, http.StatusNotFound, "Meal not found", h.log)
	case errors.Is(err, repository.ErrMealDeleted):
		WriteError(w, http.StatusGone, "Meal has been deleted", h.log)
	default:
		h.log.Error("catalog lookup failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
	}
}
