package tracker

import (
	"fmt"

	apperrors "github.com/julianstephens/habithouse/internal/errors"
	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/utils"
)

// Claim is the outcome of a successful bonus claim.
type Claim struct {
	Username  string
	Household string
	Habit     string
	Period    string
	Points    int
	Total     int
}

// ClaimBonus awards the bonus habit to username if nobody has claimed it in
// the current day (daily) or ISO week (weekly).
func (t *Tracker) ClaimBonus(username, habitName string) (Claim, error) {
	var result Claim

	err := t.transact(func(doc *models.Document) error {
		now := t.clock()

		habit, ok := doc.FindBonusHabit(habitName)
		if !ok || !habit.IsBonus {
			return fmt.Errorf("%w: %s", apperrors.ErrNotBonusHabit, habitName)
		}

		household, ok := doc.HouseholdOf(username)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrUserNotFound, username)
		}

		period, err := utils.PeriodKey(habit.Periodicity, now)
		if err != nil {
			return err
		}

		if winner, claimed := doc.CompletedHabits[period][habit.Name]; claimed {
			return fmt.Errorf("%w: %s was claimed by %s for %s", apperrors.ErrAlreadyClaimedThisPeriod, habit.Name, winner, period)
		}

		if doc.CompletedHabits[period] == nil {
			doc.CompletedHabits[period] = make(map[string]string)
		}
		doc.CompletedHabits[period][habit.Name] = username

		h := doc.Households[household]
		h.Points[username] += habit.Points
		doc.Households[household] = h

		user := doc.EnsureUser(username, household, now)
		user.Points += habit.Points
		user.BonusClaimed[habit.Name] = period
		user.Completions[habit.Name] = append(user.Completions[habit.Name], utils.DayKey(now))
		doc.Users[username] = user

		stamp := now
		habit.LastCompletedAt = &stamp

		refreshStanding(doc, household, username)

		result = Claim{
			Username:  username,
			Household: household,
			Habit:     habit.Name,
			Period:    period,
			Points:    habit.Points,
			Total:     h.Points[username],
		}
		return nil
	})
	if err != nil {
		return Claim{}, err
	}

	logger.Info("Bonus claimed",
		"user", result.Username, "household", result.Household, "habit", result.Habit,
		"period", result.Period, "points", result.Points)
	return result, nil
}
