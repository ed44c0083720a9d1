package models

import "time"

// Standing is one user's position on a household leaderboard
type Standing struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// TopPerformer is the highest scorer across all households for a month
type TopPerformer struct {
	Username  string `json:"username"`
	Household string `json:"household"`
	Points    int    `json:"points"`
}

// Archive is a monthly snapshot written by a leaderboard reset
type Archive struct {
	Month      string                `json:"month"` // YYYY-MM
	ArchivedAt time.Time             `json:"archived_at"`
	Rankings   map[string][]Standing `json:"rankings"`
	TopUser    *TopPerformer         `json:"top_user,omitempty"`
}

// Leaderboard holds the live rankings (sorted per household) and the archive log
type Leaderboard struct {
	Rankings     map[string][]Standing `json:"rankings"`
	PastRankings []Archive             `json:"past_rankings"`
}

func NewLeaderboard() Leaderboard {
	return Leaderboard{
		Rankings:     make(map[string][]Standing),
		PastRankings: []Archive{},
	}
}
