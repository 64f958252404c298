package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"mealmax/internal/database"
	"mealmax/internal/models"
	"mealmax/internal/repository"
	"mealmax/internal/service"
	"mealmax/pkg/logger"

	"github.com/go-chi/chi/v5"
)

func newCatalogRouter(t *testing.T) (*chi.Mux, *repository.SQLiteMealRepository) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "meals.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.New("error")
	repo := repository.NewSQLiteMealRepository(db.SQL, log)
	handler := NewMealHandler(service.NewCatalogService(repo), log)

	r := chi.NewRouter()
	r.Post("/api/meal", handler.CreateMeal)
	r.Delete("/api/meal/{mealId}", handler.DeleteMeal)
	r.Get("/api/meal/by-name/{name}", handler.GetMealByName)
	r.Get("/api/meal/{mealId}", handler.GetMealByID)
	r.Get("/api/leaderboard", handler.Leaderboard)
	r.Post("/api/db/reset", handler.ResetCatalog)

	return r, repo
}

func createMeal(t *testing.T, r *chi.Mux, name, cuisine string, price float64, difficulty string) int64 {
	t.Helper()

	body, _ := json.Marshal(CreateMealRequest{Name: name, Cuisine: cuisine, Price: price, Difficulty: difficulty})
	req := httptest.NewRequest(http.MethodPost, "/api/meal", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	return resp.ID
}

func TestCreateMeal(t *testing.T) {
	r, _ := newCatalogRouter(t)

	id := createMeal(t, r, "Manti", "Turkish", 12.99, "MED")
	if id == 0 {
		t.Error("expected a non-zero meal id")
	}
}

func TestCreateMealValidation(t *testing.T) {
	r, _ := newCatalogRouter(t)

	tests := []struct {
		name string
		req  CreateMealRequest
	}{
		{"zero price", CreateMealRequest{Name: "Manti", Cuisine: "Turkish", Price: 0, Difficulty: "MED"}},
		{"negative price", CreateMealRequest{Name: "Manti", Cuisine: "Turkish", Price: -1, Difficulty: "MED"}},
		{"bad difficulty", CreateMealRequest{Name: "Manti", Cuisine: "Turkish", Price: 12.99, Difficulty: "EXTREME"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.req)
			req := httptest.NewRequest(http.MethodPost, "/api/meal", bytes.NewReader(body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestCreateMealDuplicate(t *testing.T) {
	r, _ := newCatalogRouter(t)

	createMeal(t, r, "Manti", "Turkish", 12.99, "MED")

	body, _ := json.Marshal(CreateMealRequest{Name: "Manti", Cuisine: "Turkish", Price: 9.99, Difficulty: "LOW"})
	req := httptest.NewRequest(http.MethodPost, "/api/meal", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
}

func TestCreateMealInvalidBody(t *testing.T) {
	r, _ := newCatalogRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/meal", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetMealByID(t *testing.T) {
	r, _ := newCatalogRouter(t)

	id := createMeal(t, r, "Manti", "Turkish", 12.99, "MED")

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/meal/%d", id), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var meal models.Meal
	if err := json.NewDecoder(w.Body).Decode(&meal); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if meal.Name != "Manti" || meal.Cuisine != "Turkish" || meal.Price != 12.99 {
		t.Errorf("unexpected meal: %+v", meal)
	}
}

func TestGetMealByIDNotFound(t *testing.T) {
	r, _ := newCatalogRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/meal/999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestGetMealByIDInvalidID(t *testing.T) {
	r, _ := newCatalogRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/meal/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetMealByName(t *testing.T) {
	r, _ := newCatalogRouter(t)

	createMeal(t, r, "Sushi Roll", "Japanese", 15.99, "HIGH")

	req := httptest.NewRequest(http.MethodGet, "/api/meal/by-name/Sushi%20Roll", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var meal models.Meal
	if err := json.NewDecoder(w.Body).Decode(&meal); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if meal.Name != "Sushi Roll" {
		t.Errorf("expected Sushi Roll, got %s", meal.Name)
	}
}

func TestDeleteMeal(t *testing.T) {
	r, _ := newCatalogRouter(t)

	id := createMeal(t, r, "Manti", "Turkish", 12.99, "MED")

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/meal/%d", id), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	// Deleted meals are gone, not silently filtered
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/meal/%d", id), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusGone {
		t.Errorf("expected status 410 for deleted meal, got %d", w.Code)
	}

	// Second delete reports the deletion, never succeeds silently
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/meal/%d", id), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusGone {
		t.Errorf("expected status 410 for second delete, got %d", w.Code)
	}
}

func TestDeleteMealNotFound(t *testing.T) {
	r, _ := newCatalogRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/meal/999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestLeaderboard(t *testing.T) {
	r, repo := newCatalogRouter(t)
	ctx := context.Background()

	manti := createMeal(t, r, "Manti", "Turkish", 12.99, "MED")
	sushi := createMeal(t, r, "Sushi Roll", "Japanese", 15.99, "HIGH")
	createMeal(t, r, "Pierogi", "Polish", 8.99, "LOW")

	for _, call := range []struct {
		id     int64
		result string
	}{
		{sushi, repository.ResultWin},
		{sushi, repository.ResultWin},
		{manti, repository.ResultWin},
		{manti, repository.ResultLoss},
	} {
		if err := repo.UpdateStats(ctx, call.id, call.result); err != nil {
			t.Fatalf("failed to update stats: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?sort=win_pct", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// Pierogi has no battles and must be excluded
	if len(resp.Leaderboard) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp.Leaderboard))
	}
	if resp.Leaderboard[0].Name != "Sushi Roll" || resp.Leaderboard[0].WinPct != 100.0 {
		t.Errorf("expected Sushi Roll at 100.0 first, got %s at %v",
			resp.Leaderboard[0].Name, resp.Leaderboard[0].WinPct)
	}
	if resp.Leaderboard[1].WinPct != 50.0 {
		t.Errorf("expected Manti at 50.0, got %v", resp.Leaderboard[1].WinPct)
	}
}

func TestLeaderboardInvalidSort(t *testing.T) {
	r, _ := newCatalogRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?sort=losses", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestResetCatalog(t *testing.T) {
	r, _ := newCatalogRouter(t)

	id := createMeal(t, r, "Manti", "Turkish", 12.99, "MED")

	req := httptest.NewRequest(http.MethodPost, "/api/db/reset", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/meal/%d", id), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after reset, got %d", w.Code)
	}
}
