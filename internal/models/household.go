package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Household groups users who compete on the same leaderboard.
// Points holds the current monthly total for every member.
type Household struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Members   []string       `json:"members"`
	Points    map[string]int `json:"points"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewHousehold(name string, now time.Time) Household {
	return Household{
		ID:        uuid.New().String(),
		Name:      name,
		Members:   []string{},
		Points:    make(map[string]int),
		CreatedAt: now,
	}
}

// HasMember reports whether username belongs to the household
func (h Household) HasMember(username string) bool {
	return slices.Contains(h.Members, username)
}

// User is a household member and their lifetime history.
type User struct {
	Username  string `json:"username"`
	Household string `json:"household"`
	// Points is the lifetime ledger; it survives monthly resets.
	Points       int                 `json:"points"`
	Completions  map[string][]string `json:"completions"`   // habit -> YYYY-MM-DD dates, append-only
	BonusClaimed map[string]string   `json:"bonus_claimed"` // bonus habit -> last claimed period key
	JoinedAt     time.Time           `json:"joined_at"`
}

func NewUser(username, household string, now time.Time) User {
	return User{
		Username:     username,
		Household:    household,
		Completions:  make(map[string][]string),
		BonusClaimed: make(map[string]string),
		JoinedAt:     now,
	}
}

// LastCompletion returns the most recent completion date for habit.
func (u User) LastCompletion(habit string) (string, bool) {
	dates := u.Completions[habit]
	if len(dates) == 0 {
		return "", false
	}
	return dates[len(dates)-1], true
}

// HasCompletedOn reports whether the last completion of habit was on day.
func (u User) HasCompletedOn(habit, day string) bool {
	last, ok := u.LastCompletion(habit)
	return ok && last == day
}
