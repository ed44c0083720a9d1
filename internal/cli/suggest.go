package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	apperrors "github.com/julianstephens/habithouse/internal/errors"
)

const maxSuggestions = 3

// Names are the lookups a command performed, used to pick the candidate
// set when a lookup fails.
type Names struct {
	User      string
	Habit     string
	Household string
}

// Explain decorates a not-found error with the closest known names.
// Other errors are returned unchanged.
func (c *Context) Explain(err error, names Names) error {
	if err == nil || !apperrors.IsNotFound(err) || c.Tracker == nil {
		return err
	}

	var query string
	var candidates []string
	switch {
	case errors.Is(err, apperrors.ErrNotBonusHabit):
		query = names.Habit
		candidates = c.habitNames(true)
	case errors.Is(err, apperrors.ErrHabitNotFound):
		query = names.Habit
		candidates = c.habitNames(false)
	case errors.Is(err, apperrors.ErrUserNotFound):
		query = names.User
		candidates, _ = c.Tracker.Usernames()
	case errors.Is(err, apperrors.ErrHouseholdNotFound):
		query = names.Household
		households, _ := c.Tracker.Households()
		for _, h := range households {
			candidates = append(candidates, h.Name)
		}
	}

	matches := Suggest(query, candidates)
	if len(matches) == 0 {
		return err
	}
	return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(matches, ", "))
}

func (c *Context) habitNames(bonusOnly bool) []string {
	habits, err := c.Tracker.Habits()
	if err != nil {
		return nil
	}
	var names []string
	for _, h := range habits {
		if bonusOnly && !h.IsBonus {
			continue
		}
		names = append(names, h.Name)
	}
	return names
}

// Suggest returns up to three candidates that fuzzy-match query, best first.
func Suggest(query string, candidates []string) []string {
	query = strings.TrimSpace(query)
	if query == "" || len(candidates) == 0 {
		return nil
	}

	var out []string
	for _, m := range fuzzy.Find(query, candidates) {
		out = append(out, m.Str)
		if len(out) == maxSuggestions {
			return out
		}
	}
	if len(out) > 0 {
		return out
	}

	// No subsequence match; fall back to a shared case-insensitive prefix
	lower := strings.ToLower(query)
	for _, name := range candidates {
		n := strings.ToLower(name)
		if commonPrefix(n, lower) >= min(3, len(lower)) {
			out = append(out, name)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
