package tracker

import (
	"fmt"

	apperrors "github.com/julianstephens/habithouse/internal/errors"
	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/utils"
)

// Completion is the outcome of completing a regular habit.
type Completion struct {
	Username  string
	Household string
	Habit     string
	// Points is the habit's base value; StreakBonus is reported separately.
	Points      int
	StreakBonus int
	Streak      int
	// Total is the user's monthly household total after the completion.
	Total int
}

// Complete records username completing the regular habit habitName today.
func (t *Tracker) Complete(username, habitName string) (Completion, error) {
	var result Completion

	err := t.transact(func(doc *models.Document) error {
		now := t.clock()
		today := utils.DayKey(now)

		habit, ok := doc.FindHabit(habitName)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, habitName)
		}

		household, ok := doc.HouseholdOf(username)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrUserNotFound, username)
		}
		user := doc.EnsureUser(username, household, now)

		last, hasLast := user.LastCompletion(habit.Name)
		if hasLast && last == today {
			return fmt.Errorf("%w: %s already completed %s on %s", apperrors.ErrAlreadyCompletedToday, username, habit.Name, today)
		}

		streak := t.nextStreak(doc, username, habit, last, hasLast, today)

		bonus := 0
		if streak%t.milestone == 0 {
			bonus = t.bonus
		}
		earned := habit.Points + bonus

		h := doc.Households[household]
		h.Points[username] += earned
		doc.Households[household] = h

		user.Points += earned
		user.Completions[habit.Name] = append(user.Completions[habit.Name], today)
		doc.Users[username] = user

		setStreak(doc, username, habit.Name, streak)
		stamp := now
		habit.LastCompletedAt = &stamp

		refreshStanding(doc, household, username)

		result = Completion{
			Username:    username,
			Household:   household,
			Habit:       habit.Name,
			Points:      habit.Points,
			StreakBonus: bonus,
			Streak:      streak,
			Total:       h.Points[username],
		}
		return nil
	})
	if err != nil {
		return Completion{}, err
	}

	logger.Info("Habit completed",
		"user", result.Username, "household", result.Household, "habit", result.Habit,
		"points", result.Points, "streak", result.Streak, "streak_bonus", result.StreakBonus)
	return result, nil
}

// nextStreak continues the stored streak when the gap since the last
// completion is within the periodicity threshold, and starts over otherwise.
func (t *Tracker) nextStreak(doc *models.Document, username string, habit *models.Habit, last string, hasLast bool, today string) int {
	if !hasLast {
		return 1
	}

	gap, err := utils.DaysBetween(last, today)
	if err != nil {
		logger.Warn("Unreadable completion date, resetting streak", "user", username, "habit", habit.Name, "date", last, "error", err)
		return 1
	}
	// A negative gap means the clock moved backwards; treat it as a break
	if gap < 1 || gap > utils.ResetThresholdDays(habit.Periodicity) {
		return 1
	}
	return doc.Streaks[username][habit.Name] + 1
}

func setStreak(doc *models.Document, username, habit string, streak int) {
	if doc.Streaks[username] == nil {
		doc.Streaks[username] = make(map[string]int)
	}
	doc.Streaks[username][habit] = streak

	if doc.LongestStreaks[username] == nil {
		doc.LongestStreaks[username] = make(map[string]int)
	}
	if streak > doc.LongestStreaks[username][habit] {
		doc.LongestStreaks[username][habit] = streak
	}
}
