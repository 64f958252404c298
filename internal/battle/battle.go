package battle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"mealmax/internal/models"
)

var (
	ErrCombatantsFull      = errors.New("combatant list is full")
	ErrNotEnoughCombatants = errors.New("two combatants must be prepped for a battle")
)

// StatsUpdater records battle outcomes for a meal. Implemented by the
// meal repository.
type StatsUpdater interface {
	UpdateStats(ctx context.Context, id int64, result string) error
}

// RandomSource supplies one random fraction in [0,1] per battle
type RandomSource interface {
	Fraction(ctx context.Context) (float64, error)
}

const (
	resultWin  = "win"
	resultLoss = "loss"
)

// deltaScale divides the raw score gap before squashing
const deltaScale = 100.0

// Model holds up to two prepped combatants and resolves battles between
// them. It carries no locking; callers sharing a Model across goroutines
// must serialize prep/battle/clear themselves.
type Model struct {
	combatants [2]*models.Meal
	stats      StatsUpdater
	random     RandomSource
	logger     *slog.Logger
}

// NewModel creates an empty battle model with its collaborators
func NewModel(stats StatsUpdater, random RandomSource, logger *slog.Logger) *Model {
	return &Model{
		stats:  stats,
		random: random,
		logger: logger,
	}
}

// PrepCombatant stages a meal for battle. The same meal may occupy both
// slots; only a full list is rejected.
func (m *Model) PrepCombatant(meal *models.Meal) error {
	for i := range m.combatants {
		if m.combatants[i] == nil {
			m.combatants[i] = meal
			m.logger.Info("combatant prepped", "meal", meal.Name, "slot", i)
			return nil
		}
	}
	m.logger.Error("attempted to add combatant to full list", "meal", meal.Name)
	return ErrCombatantsFull
}

// Combatants returns the currently staged meals in prep order
func (m *Model) Combatants() []models.Meal {
	out := make([]models.Meal, 0, 2)
	for _, c := range m.combatants {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// Clear empties the combatant list unconditionally
func (m *Model) Clear() {
	m.combatants[0] = nil
	m.combatants[1] = nil
	m.logger.Info("combatant list cleared")
}

// Score computes the deterministic battle score for a meal:
// price times the cuisine name length, minus the difficulty modifier
// (HIGH 1, MED 2, LOW 3). Harder, pricier meals with longer cuisine
// names score higher.
func (m *Model) Score(meal *models.Meal) float64 {
	return meal.Price*float64(len(meal.Cuisine)) - difficultyModifier(meal.Difficulty)
}

// Battle resolves a fight between the two prepped combatants. The score
// gap biases the odds toward the higher-scoring meal via one random
// fraction from the external source; both combatants get their stats
// updated, the loser is evicted, and the winner's name is returned.
// If the random source fails no stats are touched.
func (m *Model) Battle(ctx context.Context) (string, error) {
	if m.combatants[0] == nil || m.combatants[1] == nil {
		return "", ErrNotEnoughCombatants
	}

	first, second := m.combatants[0], m.combatants[1]
	scoreFirst := m.Score(first)
	scoreSecond := m.Score(second)

	delta := math.Abs(scoreFirst - scoreSecond)
	normalized := normalizeDelta(delta)

	r, err := m.random.Fraction(ctx)
	if err != nil {
		m.logger.Error("failed to get random fraction", "error", err)
		return "", fmt.Errorf("battle aborted: %w", err)
	}

	// On an exact tie the first combatant takes the higher side, so the
	// comparison below still yields exactly one winner.
	higher, lower := first, second
	if scoreSecond > scoreFirst {
		higher, lower = second, first
	}

	winner, loser := higher, lower
	if r >= normalized {
		winner, loser = lower, higher
	}

	m.logger.Info("battle resolved",
		"winner", winner.Name,
		"loser", loser.Name,
		"delta", delta,
		"normalized_delta", normalized,
		"random", r,
	)

	errWin := m.stats.UpdateStats(ctx, winner.ID, resultWin)
	errLoss := m.stats.UpdateStats(ctx, loser.ID, resultLoss)
	if err := errors.Join(errWin, errLoss); err != nil {
		return "", err
	}

	m.combatants[0] = winner
	m.combatants[1] = nil

	return winner.Name, nil
}

// normalizeDelta squashes the raw score gap into [0,1]. The logistic of
// delta/deltaScale maps a zero gap to exactly 0.5 and grows monotonically
// toward 1 as the gap widens.
func normalizeDelta(delta float64) float64 {
	v := 1.0 / (1.0 + math.Exp(-delta/deltaScale))
	return math.Min(1.0, math.Max(0.0, v))
}

func difficultyModifier(d models.Difficulty) float64 {
	switch d {
	case models.DifficultyHigh:
		return 1
	case models.DifficultyMed:
		return 2
	default:
		return 3
	}
}
