package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPrice      = errors.New("price must be a positive number")
	ErrInvalidDifficulty = errors.New("difficulty must be 'LOW', 'MED', or 'HIGH'")
)

// Difficulty is the preparation difficulty of a meal
type Difficulty string

const (
	DifficultyLow  Difficulty = "LOW"
	DifficultyMed  Difficulty = "MED"
	DifficultyHigh Difficulty = "HIGH"
)

// Valid reports whether d is one of the three known difficulty levels
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyLow, DifficultyMed, DifficultyHigh:
		return true
	}
	return false
}

// Meal represents a dish stored in the catalog with its battle statistics
type Meal struct {
	ID         int64      `json:"id"`
	Name       string     `json:"meal"`
	Cuisine    string     `json:"cuisine"`
	Price      float64    `json:"price"`
	Difficulty Difficulty `json:"difficulty"`
	Battles    int        `json:"battles"`
	Wins       int        `json:"wins"`
}

// Validate checks the meal attributes that callers control directly.
// Price must be strictly positive and difficulty one of LOW, MED, HIGH.
func (m *Meal) Validate() error {
	if m.Price <= 0 {
		return fmt.Errorf("invalid price %v: %w", m.Price, ErrInvalidPrice)
	}
	if !m.Difficulty.Valid() {
		return fmt.Errorf("invalid difficulty %q: %w", m.Difficulty, ErrInvalidDifficulty)
	}
	return nil
}

// LeaderboardEntry is a meal augmented with its derived win percentage
type LeaderboardEntry struct {
	ID         int64      `json:"id"`
	Name       string     `json:"meal"`
	Cuisine    string     `json:"cuisine"`
	Price      float64    `json:"price"`
	Difficulty Difficulty `json:"difficulty"`
	Battles    int        `json:"battles"`
	Wins       int        `json:"wins"`
	WinPct     float64    `json:"win_pct"`
}
