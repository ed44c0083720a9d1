package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habithouse/internal/models"
)

// NewCompleteForm asks who completed which habit.
func NewCompleteForm(fm *CompleteFormModel, usernames []string, habits []models.Habit) *huh.Form {
	habitOptions := make([]huh.Option[string], 0, len(habits))
	for _, h := range habits {
		label := fmt.Sprintf("%s (%s, %d pts)", h.Name, h.Periodicity, h.Points)
		if h.IsBonus {
			label += " bonus"
		}
		habitOptions = append(habitOptions, huh.NewOption(label, h.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("User").
				Options(huh.NewOptions(usernames...)...).
				Value(&fm.Username),
			huh.NewSelect[string]().
				Title("Habit").
				Options(habitOptions...).
				Value(&fm.Habit),
		),
	)
}

// submit records the form's completion. Bonus habits are claimed for the
// current period instead of completed.
func (m *Model) submit(username, habitName string) (string, error) {
	habit, err := m.tracker.Habit(habitName)
	if err != nil {
		return "", err
	}

	if habit.IsBonus {
		c, err := m.tracker.ClaimBonus(username, habitName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✓ %s claimed '%s' for %s. +%d points (total %d)", c.Username, c.Habit, c.Period, c.Points, c.Total), nil
	}

	c, err := m.tracker.Complete(username, habitName)
	if err != nil {
		return "", err
	}
	msg := fmt.Sprintf("✓ %s completed '%s'. +%d points", c.Username, c.Habit, c.Points)
	if c.StreakBonus > 0 {
		msg += fmt.Sprintf(", +%d streak bonus", c.StreakBonus)
	}
	return msg + fmt.Sprintf(" (streak %d, total %d)", c.Streak, c.Total), nil
}
