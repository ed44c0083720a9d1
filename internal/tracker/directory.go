package tracker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/habithouse/internal/constants"
	apperrors "github.com/julianstephens/habithouse/internal/errors"
	"github.com/julianstephens/habithouse/internal/leaderboard"
	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/models"
)

// CreateHousehold adds an empty household.
func (t *Tracker) CreateHousehold(name string) (models.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Household{}, fmt.Errorf("household name cannot be empty")
	}

	var created models.Household
	err := t.transact(func(doc *models.Document) error {
		if _, exists := doc.Households[name]; exists {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateHouseholdName, name)
		}
		created = models.NewHousehold(name, t.clock())
		doc.Households[name] = created
		return nil
	})
	if err != nil {
		return models.Household{}, err
	}

	logger.Info("Household created", "household", name)
	return created, nil
}

// AddUser creates username as a member of household with zero points.
// Usernames are unique across all households.
func (t *Tracker) AddUser(username, household string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, fmt.Errorf("username cannot be empty")
	}

	var created models.User
	err := t.transact(func(doc *models.Document) error {
		h, ok := doc.Households[household]
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrHouseholdNotFound, household)
		}
		if existing, ok := doc.HouseholdOf(username); ok {
			return fmt.Errorf("%w: %s already belongs to %s", apperrors.ErrDuplicateMembership, username, existing)
		}

		h.Members = append(h.Members, username)
		h.Points[username] = 0
		doc.Households[household] = h

		created = models.NewUser(username, household, t.clock())
		doc.Users[username] = created
		if doc.Streaks[username] == nil {
			doc.Streaks[username] = make(map[string]int)
		}

		refreshStanding(doc, household, username)
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	logger.Info("User added", "user", username, "household", household)
	return created, nil
}

// DefineHabit adds a habit to the regular or bonus catalog. Names are unique
// across both catalogs.
func (t *Tracker) DefineHabit(name string, periodicity constants.Periodicity, points int, bonus bool) (models.Habit, error) {
	var created models.Habit
	err := t.transact(func(doc *models.Document) error {
		habit, err := models.NewHabit(name, periodicity, points, bonus, t.clock())
		if err != nil {
			return err
		}
		if _, exists := doc.FindAnyHabit(habit.Name); exists {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateHabitName, habit.Name)
		}

		if bonus {
			doc.BonusHabits = append(doc.BonusHabits, habit)
		} else {
			doc.Habits = append(doc.Habits, habit)
		}
		created = habit
		return nil
	})
	if err != nil {
		return models.Habit{}, err
	}

	logger.Info("Habit defined", "habit", created.Name, "periodicity", created.Periodicity, "points", created.Points, "bonus", created.IsBonus)
	return created, nil
}

// Habit looks a habit up in either catalog.
func (t *Tracker) Habit(name string) (models.Habit, error) {
	var found models.Habit
	err := t.view(func(doc *models.Document) error {
		h, ok := doc.FindAnyHabit(name)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, name)
		}
		found = *h
		return nil
	})
	return found, err
}

// Habits returns regular habits followed by bonus habits, in definition order.
func (t *Tracker) Habits() ([]models.Habit, error) {
	var habits []models.Habit
	err := t.view(func(doc *models.Document) error {
		habits = doc.AllHabits()
		return nil
	})
	return habits, err
}

// Households returns every household sorted by name.
func (t *Tracker) Households() ([]models.Household, error) {
	var households []models.Household
	err := t.view(func(doc *models.Document) error {
		households = make([]models.Household, 0, len(doc.Households))
		for _, h := range doc.Households {
			households = append(households, h)
		}
		sort.Slice(households, func(i, j int) bool {
			return households[i].Name < households[j].Name
		})
		return nil
	})
	return households, err
}

func (t *Tracker) Household(name string) (models.Household, error) {
	var found models.Household
	err := t.view(func(doc *models.Document) error {
		h, ok := doc.Households[name]
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrHouseholdNotFound, name)
		}
		found = h
		return nil
	})
	return found, err
}

// Usernames returns every known username sorted, for suggestions.
func (t *Tracker) Usernames() ([]string, error) {
	var names []string
	err := t.view(func(doc *models.Document) error {
		seen := make(map[string]bool)
		for name := range doc.Users {
			seen[name] = true
		}
		for _, h := range doc.Households {
			for _, m := range h.Members {
				seen[m] = true
			}
		}
		for name := range seen {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil
	})
	return names, err
}

// ClearAll backs the store up and replaces it with an empty document.
func (t *Tracker) ClearAll() error {
	err := t.transactBackedUp(func(doc *models.Document) error {
		revision := doc.Revision
		*doc = *models.NewDocument()
		doc.Revision = revision
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("All data cleared")
	return nil
}

// ResetHabitMarkers clears the last-completed marker on every habit and
// returns how many were set. Completion history and streaks are untouched.
func (t *Tracker) ResetHabitMarkers() (int, error) {
	cleared := 0
	err := t.transact(func(doc *models.Document) error {
		for _, catalog := range [][]models.Habit{doc.Habits, doc.BonusHabits} {
			for i := range catalog {
				if catalog[i].LastCompletedAt != nil {
					catalog[i].LastCompletedAt = nil
					cleared++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Habit markers reset", "count", cleared)
	return cleared, nil
}

// ResetMonthly archives the current rankings and zeroes every household's
// monthly totals. Users' lifetime points are kept.
func (t *Tracker) ResetMonthly() (models.Archive, error) {
	var archive models.Archive
	err := t.transactBackedUp(func(doc *models.Document) error {
		archive = leaderboard.New(&doc.Leaderboard).ResetMonthly(t.clock())
		for name, h := range doc.Households {
			for member := range h.Points {
				h.Points[member] = 0
			}
			doc.Households[name] = h
		}
		return nil
	})
	if err != nil {
		return models.Archive{}, err
	}

	logger.Info("Monthly leaderboard reset", "month", archive.Month, "households", len(archive.Rankings))
	return archive, nil
}

// Leaderboard returns the household's ranking, highest first.
func (t *Tracker) Leaderboard(household string) ([]models.Standing, error) {
	var standings []models.Standing
	err := t.view(func(doc *models.Document) error {
		if _, ok := doc.Households[household]; !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrHouseholdNotFound, household)
		}
		standings = leaderboard.New(&doc.Leaderboard).SortedRankings(household)
		return nil
	})
	return standings, err
}

// Rankings returns every household's current ranking.
func (t *Tracker) Rankings() (map[string][]models.Standing, error) {
	rankings := make(map[string][]models.Standing)
	err := t.view(func(doc *models.Document) error {
		board := leaderboard.New(&doc.Leaderboard)
		for name := range doc.Households {
			rankings[name] = board.SortedRankings(name)
		}
		return nil
	})
	return rankings, err
}

// TopPerformers returns archived months that recorded a top user, oldest first.
func (t *Tracker) TopPerformers() ([]models.Archive, error) {
	var archives []models.Archive
	err := t.view(func(doc *models.Document) error {
		archives = leaderboard.New(&doc.Leaderboard).TopPerformers()
		return nil
	})
	return archives, err
}

// PastRankings returns every monthly archive, oldest first.
func (t *Tracker) PastRankings() ([]models.Archive, error) {
	var archives []models.Archive
	err := t.view(func(doc *models.Document) error {
		archives = leaderboard.New(&doc.Leaderboard).PastRankings()
		return nil
	})
	return archives, err
}
