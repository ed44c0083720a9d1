package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habithouse/internal/constants"
	apperrors "github.com/julianstephens/habithouse/internal/errors"
)

// Habit is a named practice worth a fixed number of points per completion.
// Bonus habits can only be claimed by one user per period.
type Habit struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Periodicity     constants.Periodicity `json:"periodicity"`
	Points          int                   `json:"points"`
	IsBonus         bool                  `json:"is_bonus"`
	CreatedAt       time.Time             `json:"created_at"`
	LastCompletedAt *time.Time            `json:"last_completed_at,omitempty"`
}

// NewHabit validates the definition and returns a habit stamped with a fresh ID.
func NewHabit(name string, periodicity constants.Periodicity, points int, bonus bool, now time.Time) (Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Habit{}, fmt.Errorf("%w: name cannot be empty", apperrors.ErrInvalidHabit)
	}
	if err := ValidatePeriodicity(periodicity); err != nil {
		return Habit{}, err
	}
	if points < 0 {
		return Habit{}, fmt.Errorf("%w: points must be non-negative, got %d", apperrors.ErrInvalidHabit, points)
	}

	return Habit{
		ID:          uuid.New().String(),
		Name:        name,
		Periodicity: periodicity,
		Points:      points,
		IsBonus:     bonus,
		CreatedAt:   now,
	}, nil
}

// ValidatePeriodicity rejects anything other than daily or weekly.
func ValidatePeriodicity(p constants.Periodicity) error {
	switch p {
	case constants.PeriodicityDaily, constants.PeriodicityWeekly:
		return nil
	default:
		return fmt.Errorf("%w: periodicity must be %q or %q, got %q",
			apperrors.ErrInvalidHabit, constants.PeriodicityDaily, constants.PeriodicityWeekly, p)
	}
}
