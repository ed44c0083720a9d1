// Package validation checks a loaded document for inconsistencies that the
// engines never produce themselves but hand edits, partial restores or older
// versions can leave behind.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/leaderboard"
	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingUser         ConflictType = "missing_user"
	ConflictHouseholdMismatch   ConflictType = "household_mismatch"
	ConflictDuplicateMembership ConflictType = "duplicate_membership"
	ConflictDuplicateHabitName  ConflictType = "duplicate_habit_name"
	ConflictCatalogMismatch     ConflictType = "catalog_mismatch"
	ConflictRankingDrift        ConflictType = "ranking_drift"
	ConflictInvalidPeriodKey    ConflictType = "invalid_period_key"
	ConflictUnknownClaimHabit   ConflictType = "unknown_claim_habit"
	ConflictInvalidDate         ConflictType = "invalid_date"
	ConflictStreakMismatch      ConflictType = "streak_mismatch"
)

// Conflict represents one detected inconsistency
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // names involved
	Fixable     bool
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		b.WriteString("- " + c.Description)
		if c.Fixable {
			b.WriteString(" (fixable)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Validator validates documents for conflicts
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateDocument runs every check. Conflicts are reported in a stable order.
func (v *Validator) ValidateDocument(doc *models.Document) ValidationResult {
	var result ValidationResult
	add := func(c Conflict) { result.Conflicts = append(result.Conflicts, c) }

	v.checkMembership(doc, add)
	v.checkCatalogs(doc, add)
	v.checkRankings(doc, add)
	v.checkClaims(doc, add)
	v.checkHistory(doc, add)
	return result
}

func (v *Validator) checkMembership(doc *models.Document, add func(Conflict)) {
	memberOf := make(map[string][]string)
	for _, name := range sortedKeys(doc.Households) {
		for _, member := range doc.Households[name].Members {
			memberOf[member] = append(memberOf[member], name)
		}
	}

	for _, member := range sortedKeys(memberOf) {
		households := memberOf[member]
		if len(households) > 1 {
			add(Conflict{
				Type:        ConflictDuplicateMembership,
				Description: fmt.Sprintf("user %s is a member of %d households: %s", member, len(households), strings.Join(households, ", ")),
				Items:       append([]string{member}, households...),
			})
		}
		if _, ok := doc.Users[member]; !ok {
			add(Conflict{
				Type:        ConflictMissingUser,
				Description: fmt.Sprintf("member %s of %s has no user record", member, households[0]),
				Items:       []string{member, households[0]},
				Fixable:     true,
			})
		}
	}

	for _, username := range sortedKeys(doc.Users) {
		u := doc.Users[username]
		h, ok := doc.Households[u.Household]
		if !ok || !h.HasMember(username) {
			add(Conflict{
				Type:        ConflictHouseholdMismatch,
				Description: fmt.Sprintf("user %s points at household %q which does not list them", username, u.Household),
				Items:       []string{username, u.Household},
				Fixable:     len(memberOf[username]) == 1,
			})
		}
	}
}

func (v *Validator) checkCatalogs(doc *models.Document, add func(Conflict)) {
	seen := make(map[string]int)
	for _, h := range doc.AllHabits() {
		seen[h.Name]++
	}
	for _, name := range sortedKeys(seen) {
		if seen[name] > 1 {
			add(Conflict{
				Type:        ConflictDuplicateHabitName,
				Description: fmt.Sprintf("habit %s is defined %d times", name, seen[name]),
				Items:       []string{name},
			})
		}
	}

	for _, h := range doc.Habits {
		if h.IsBonus {
			add(Conflict{
				Type:        ConflictCatalogMismatch,
				Description: fmt.Sprintf("habit %s is flagged bonus but listed with regular habits", h.Name),
				Items:       []string{h.Name},
				Fixable:     true,
			})
		}
	}
	for _, h := range doc.BonusHabits {
		if !h.IsBonus {
			add(Conflict{
				Type:        ConflictCatalogMismatch,
				Description: fmt.Sprintf("habit %s is listed with bonus habits but not flagged bonus", h.Name),
				Items:       []string{h.Name},
				Fixable:     true,
			})
		}
	}
}

func (v *Validator) checkRankings(doc *models.Document, add func(Conflict)) {
	for _, name := range sortedKeys(doc.Households) {
		h := doc.Households[name]
		ranked := make(map[string]int)
		for _, s := range doc.Leaderboard.Rankings[name] {
			ranked[s.Username] = s.Points
		}

		var drift []string
		for _, member := range h.Members {
			// Unranked members at zero are normal after a monthly reset
			p, ok := ranked[member]
			if (!ok && h.Points[member] != 0) || (ok && p != h.Points[member]) {
				drift = append(drift, member)
			}
		}
		for _, username := range sortedKeys(ranked) {
			if !h.HasMember(username) {
				drift = append(drift, username)
			}
		}
		if len(drift) > 0 {
			add(Conflict{
				Type:        ConflictRankingDrift,
				Description: fmt.Sprintf("leaderboard for %s disagrees with household totals for %s", name, strings.Join(drift, ", ")),
				Items:       append([]string{name}, drift...),
				Fixable:     true,
			})
		}
	}

	for _, name := range sortedKeys(doc.Leaderboard.Rankings) {
		if _, ok := doc.Households[name]; !ok {
			add(Conflict{
				Type:        ConflictRankingDrift,
				Description: fmt.Sprintf("leaderboard has rankings for unknown household %s", name),
				Items:       []string{name},
				Fixable:     true,
			})
		}
	}
}

func (v *Validator) checkClaims(doc *models.Document, add func(Conflict)) {
	for _, period := range sortedKeys(doc.CompletedHabits) {
		if !utils.ValidateDateFormat(period) && !ValidWeekKey(period) {
			add(Conflict{
				Type:        ConflictInvalidPeriodKey,
				Description: fmt.Sprintf("claim period %q is neither a date nor an ISO week", period),
				Items:       []string{period},
			})
		}
		for _, habit := range sortedKeys(doc.CompletedHabits[period]) {
			if _, ok := doc.FindBonusHabit(habit); !ok {
				add(Conflict{
					Type:        ConflictUnknownClaimHabit,
					Description: fmt.Sprintf("claim for %s in %s references no bonus habit", habit, period),
					Items:       []string{period, habit},
				})
			}
		}
	}
}

func (v *Validator) checkHistory(doc *models.Document, add func(Conflict)) {
	for _, username := range sortedKeys(doc.Users) {
		u := doc.Users[username]
		for _, habit := range sortedKeys(u.Completions) {
			for _, day := range u.Completions[habit] {
				if !utils.ValidateDateFormat(day) {
					add(Conflict{
						Type:        ConflictInvalidDate,
						Description: fmt.Sprintf("completion of %s by %s has invalid date %q", habit, username, day),
						Items:       []string{username, habit, day},
					})
				}
			}
		}
	}

	for _, username := range sortedKeys(doc.Streaks) {
		for _, habit := range sortedKeys(doc.Streaks[username]) {
			current := doc.Streaks[username][habit]
			if best := doc.LongestStreaks[username][habit]; current > best {
				add(Conflict{
					Type:        ConflictStreakMismatch,
					Description: fmt.Sprintf("current streak %d of %s on %s exceeds longest %d", current, username, habit, best),
					Items:       []string{username, habit},
					Fixable:     true,
				})
			}
		}
	}
}

// ValidWeekKey reports whether key is an ISO week key such as 2024-W07.
func ValidWeekKey(key string) bool {
	var year, week int
	if n, err := fmt.Sscanf(key, constants.WeekKeyFormat, &year, &week); err != nil || n != 2 {
		return false
	}
	return fmt.Sprintf(constants.WeekKeyFormat, year, week) == key && week >= 1 && week <= 53
}

// Fix repairs the fixable conflicts in place and reports what it did.
// Conflicts that need a human decision are left alone.
func (v *Validator) Fix(doc *models.Document, result ValidationResult) []FixAction {
	var actions []FixAction
	board := leaderboard.New(&doc.Leaderboard)

	for _, c := range result.Conflicts {
		if !c.Fixable {
			continue
		}
		var action string
		switch c.Type {
		case ConflictMissingUser:
			username, household := c.Items[0], c.Items[1]
			doc.Users[username] = models.NewUser(username, household, doc.Households[household].CreatedAt)
			action = fmt.Sprintf("created user record for %s in %s", username, household)

		case ConflictHouseholdMismatch:
			username := c.Items[0]
			household, ok := doc.HouseholdOf(username)
			if !ok {
				continue
			}
			u := doc.Users[username]
			u.Household = household
			doc.Users[username] = u
			action = fmt.Sprintf("moved user %s to household %s", username, household)

		case ConflictCatalogMismatch:
			action = fixCatalog(doc, c.Items[0])

		case ConflictRankingDrift:
			household := c.Items[0]
			h, ok := doc.Households[household]
			if !ok {
				delete(doc.Leaderboard.Rankings, household)
				action = fmt.Sprintf("dropped rankings for unknown household %s", household)
				break
			}
			ranked := make(map[string]bool)
			for _, s := range board.SortedRankings(household) {
				ranked[s.Username] = true
				if !h.HasMember(s.Username) {
					board.Remove(household, s.Username)
				}
			}
			for _, member := range h.Members {
				if ranked[member] || h.Points[member] != 0 {
					board.Update(household, member, h.Points[member])
				}
			}
			action = fmt.Sprintf("rebuilt leaderboard for %s from household totals", household)

		case ConflictStreakMismatch:
			username, habit := c.Items[0], c.Items[1]
			if doc.LongestStreaks[username] == nil {
				doc.LongestStreaks[username] = make(map[string]int)
			}
			doc.LongestStreaks[username][habit] = doc.Streaks[username][habit]
			action = fmt.Sprintf("raised longest streak of %s on %s to %d", username, habit, doc.Streaks[username][habit])
		}

		if action != "" {
			actions = append(actions, FixAction{Action: action, SourceConflict: c})
		}
	}
	return actions
}

// fixCatalog moves a habit into the catalog matching its bonus flag.
func fixCatalog(doc *models.Document, name string) string {
	for i, h := range doc.Habits {
		if h.Name == name && h.IsBonus {
			doc.Habits = append(doc.Habits[:i], doc.Habits[i+1:]...)
			doc.BonusHabits = append(doc.BonusHabits, h)
			return fmt.Sprintf("moved %s to bonus habits", name)
		}
	}
	for i, h := range doc.BonusHabits {
		if h.Name == name && !h.IsBonus {
			h.IsBonus = true
			doc.BonusHabits[i] = h
			return fmt.Sprintf("flagged %s as a bonus habit", name)
		}
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
