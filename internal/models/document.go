package models

import (
	"time"

	"github.com/julianstephens/habithouse/internal/constants"
)

// Document is the aggregate state persisted by every storage backend.
// Engines load it, mutate it and save it back as a whole.
type Document struct {
	Version  int `json:"version"`
	Revision int `json:"revision"`

	Households  map[string]Household `json:"households"`
	Users       map[string]User      `json:"users"`
	Habits      []Habit              `json:"habits"`
	BonusHabits []Habit              `json:"bonus_habits"`

	Streaks        map[string]map[string]int `json:"streaks"`         // user -> habit -> current streak
	LongestStreaks map[string]map[string]int `json:"longest_streaks"` // user -> habit -> best streak

	// CompletedHabits records bonus claims: period key -> bonus habit -> username
	CompletedHabits map[string]map[string]string `json:"completed_habits"`

	Leaderboard Leaderboard `json:"leaderboard"`
}

// NewDocument returns the empty-shaped default document.
func NewDocument() *Document {
	return &Document{
		Version:         constants.DocumentVersion,
		Households:      make(map[string]Household),
		Users:           make(map[string]User),
		Habits:          []Habit{},
		BonusHabits:     []Habit{},
		Streaks:         make(map[string]map[string]int),
		LongestStreaks:  make(map[string]map[string]int),
		CompletedHabits: make(map[string]map[string]string),
		Leaderboard:     NewLeaderboard(),
	}
}

// Normalize fills in any collections missing from an older or hand-edited
// document so engines can write into them without nil checks.
func (d *Document) Normalize() {
	if d.Version == 0 {
		d.Version = constants.DocumentVersion
	}
	if d.Households == nil {
		d.Households = make(map[string]Household)
	}
	for name, h := range d.Households {
		changed := false
		if h.Name == "" {
			h.Name = name
			changed = true
		}
		if h.Members == nil {
			h.Members = []string{}
			changed = true
		}
		if h.Points == nil {
			h.Points = make(map[string]int)
			changed = true
		}
		for _, member := range h.Members {
			if _, ok := h.Points[member]; !ok {
				h.Points[member] = 0
			}
		}
		if changed {
			d.Households[name] = h
		}
	}
	if d.Users == nil {
		d.Users = make(map[string]User)
	}
	for name, u := range d.Users {
		if u.Completions == nil || u.BonusClaimed == nil {
			if u.Completions == nil {
				u.Completions = make(map[string][]string)
			}
			if u.BonusClaimed == nil {
				u.BonusClaimed = make(map[string]string)
			}
			d.Users[name] = u
		}
	}
	if d.Habits == nil {
		d.Habits = []Habit{}
	}
	if d.BonusHabits == nil {
		d.BonusHabits = []Habit{}
	}
	if d.Streaks == nil {
		d.Streaks = make(map[string]map[string]int)
	}
	if d.LongestStreaks == nil {
		d.LongestStreaks = make(map[string]map[string]int)
	}
	if d.CompletedHabits == nil {
		d.CompletedHabits = make(map[string]map[string]string)
	}
	if d.Leaderboard.Rankings == nil {
		d.Leaderboard.Rankings = make(map[string][]Standing)
	}
	if d.Leaderboard.PastRankings == nil {
		d.Leaderboard.PastRankings = []Archive{}
	}
}

// FindHabit looks a habit up by name in the regular catalog.
func (d *Document) FindHabit(name string) (*Habit, bool) {
	for i := range d.Habits {
		if d.Habits[i].Name == name {
			return &d.Habits[i], true
		}
	}
	return nil, false
}

// FindBonusHabit looks a habit up by name in the bonus catalog.
func (d *Document) FindBonusHabit(name string) (*Habit, bool) {
	for i := range d.BonusHabits {
		if d.BonusHabits[i].Name == name {
			return &d.BonusHabits[i], true
		}
	}
	return nil, false
}

// FindAnyHabit searches the regular catalog, then the bonus catalog.
func (d *Document) FindAnyHabit(name string) (*Habit, bool) {
	if h, ok := d.FindHabit(name); ok {
		return h, true
	}
	return d.FindBonusHabit(name)
}

// AllHabits returns regular habits followed by bonus habits.
func (d *Document) AllHabits() []Habit {
	all := make([]Habit, 0, len(d.Habits)+len(d.BonusHabits))
	all = append(all, d.Habits...)
	return append(all, d.BonusHabits...)
}

// HouseholdOf returns the name of the household username belongs to.
func (d *Document) HouseholdOf(username string) (string, bool) {
	if u, ok := d.Users[username]; ok {
		if h, ok := d.Households[u.Household]; ok && h.HasMember(username) {
			return h.Name, true
		}
	}
	// Documents written before the users map existed only carry membership lists
	for name, h := range d.Households {
		if h.HasMember(username) {
			return name, true
		}
	}
	return "", false
}

// EnsureUser returns the user record for username, creating one if the
// document only knows the user from a household membership list.
func (d *Document) EnsureUser(username, household string, now time.Time) User {
	if u, ok := d.Users[username]; ok {
		return u
	}
	u := NewUser(username, household, now)
	d.Users[username] = u
	return u
}
