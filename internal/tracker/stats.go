package tracker

import (
	"fmt"
	"sort"

	"github.com/julianstephens/habithouse/internal/constants"
	apperrors "github.com/julianstephens/habithouse/internal/errors"
	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/utils"
)

// StreakRecord is a best streak reached by a user on a habit.
type StreakRecord struct {
	Username string
	Habit    string
	Length   int
}

// HabitStreak summarizes one user's progress on one habit.
type HabitStreak struct {
	Habit string
	// Current is zero once the streak can no longer be continued.
	Current     int
	Longest     int
	LastDone    string
	Completions []string
}

// LongestStreak returns the greatest streak any user has reached. ok is false
// when nothing has been completed yet. Ties go to the alphabetically first
// user, then habit.
func (t *Tracker) LongestStreak() (StreakRecord, bool, error) {
	var best StreakRecord
	found := false
	err := t.view(func(doc *models.Document) error {
		best, found = longest(doc, func(string) bool { return true })
		return nil
	})
	return best, found, err
}

// LongestStreakForHabit returns the best streak reached on one habit.
func (t *Tracker) LongestStreakForHabit(habit string) (StreakRecord, bool, error) {
	var best StreakRecord
	found := false
	err := t.view(func(doc *models.Document) error {
		if _, ok := doc.FindAnyHabit(habit); !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, habit)
		}
		best, found = longest(doc, func(h string) bool { return h == habit })
		return nil
	})
	return best, found, err
}

func longest(doc *models.Document, include func(habit string) bool) (StreakRecord, bool) {
	var candidates []StreakRecord
	for user, habits := range doc.LongestStreaks {
		for habit, length := range habits {
			if length > 0 && include(habit) {
				candidates = append(candidates, StreakRecord{Username: user, Habit: habit, Length: length})
			}
		}
	}
	if len(candidates) == 0 {
		return StreakRecord{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Length != b.Length {
			return a.Length > b.Length
		}
		if a.Username != b.Username {
			return a.Username < b.Username
		}
		return a.Habit < b.Habit
	})
	return candidates[0], true
}

// UserStreaks reports every habit username has a history with, sorted by name.
func (t *Tracker) UserStreaks(username string) ([]HabitStreak, error) {
	var streaks []HabitStreak
	err := t.view(func(doc *models.Document) error {
		household, ok := doc.HouseholdOf(username)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrUserNotFound, username)
		}
		user := doc.EnsureUser(username, household, t.clock())
		today := utils.DayKey(t.clock())

		names := make(map[string]bool)
		for habit := range user.Completions {
			names[habit] = true
		}
		for habit := range doc.Streaks[username] {
			names[habit] = true
		}

		for habit := range names {
			s := HabitStreak{
				Habit:       habit,
				Longest:     doc.LongestStreaks[username][habit],
				Completions: append([]string(nil), user.Completions[habit]...),
			}
			if last, ok := user.LastCompletion(habit); ok {
				s.LastDone = last
				s.Current = doc.Streaks[username][habit]
				if def, ok := doc.FindHabit(habit); ok {
					if gap, err := utils.DaysBetween(last, today); err != nil || gap > utils.ResetThresholdDays(def.Periodicity) {
						s.Current = 0
					}
				}
			}
			streaks = append(streaks, s)
		}

		sort.Slice(streaks, func(i, j int) bool {
			return streaks[i].Habit < streaks[j].Habit
		})
		return nil
	})
	return streaks, err
}

// HabitsByPeriodicity filters both catalogs by cadence.
func (t *Tracker) HabitsByPeriodicity(p constants.Periodicity) ([]models.Habit, error) {
	if err := models.ValidatePeriodicity(p); err != nil {
		return nil, err
	}

	var habits []models.Habit
	err := t.view(func(doc *models.Document) error {
		habits = []models.Habit{}
		for _, h := range doc.AllHabits() {
			if h.Periodicity == p {
				habits = append(habits, h)
			}
		}
		return nil
	})
	return habits, err
}
