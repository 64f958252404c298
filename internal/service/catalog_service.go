package service

import (
	"context"
	"fmt"

	"mealmax/internal/models"
	"mealmax/internal/repository"
)

// CatalogService handles business logic for the meal catalog
type CatalogService struct {
	repo repository.MealRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repository.MealRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
	}
}

// CreateMeal validates the input and inserts a new meal.
// Validation happens before storage is touched.
func (s *CatalogService) CreateMeal(ctx context.Context, name, cuisine string, price float64, difficulty models.Difficulty) (int64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("invalid price %v: %w", price, models.ErrInvalidPrice)
	}
	if !difficulty.Valid() {
		return 0, fmt.Errorf("invalid difficulty %q: %w", difficulty, models.ErrInvalidDifficulty)
	}

	return s.repo.Create(ctx, name, cuisine, price, difficulty)
}

// DeleteMeal marks a meal as deleted
func (s *CatalogService) DeleteMeal(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// GetMealByID returns a meal by its id
func (s *CatalogService) GetMealByID(ctx context.Context, id int64) (*models.Meal, error) {
	return s.repo.GetByID(ctx, id)
}

// GetMealByName returns a meal by its name
func (s *CatalogService) GetMealByName(ctx context.Context, name string) (*models.Meal, error) {
	return s.repo.GetByName(ctx, name)
}

// Leaderboard returns battle-tested meals ordered by the requested key
func (s *CatalogService) Leaderboard(ctx context.Context, sortBy string) ([]models.LeaderboardEntry, error) {
	return s.repo.Leaderboard(ctx, sortBy)
}

// ResetCatalog drops and recreates the meals table
func (s *CatalogService) ResetCatalog(ctx context.Context) error {
	return s.repo.Reset(ctx)
}
