// Package leaderboard maintains per-household point rankings and the
// monthly archive of past rankings.
package leaderboard

import (
	"sort"
	"time"

	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/utils"
)

// Board operates on the leaderboard section of a loaded document.
// It performs no I/O; callers persist the document afterwards.
type Board struct {
	lb *models.Leaderboard
}

func New(lb *models.Leaderboard) *Board {
	if lb.Rankings == nil {
		lb.Rankings = make(map[string][]models.Standing)
	}
	if lb.PastRankings == nil {
		lb.PastRankings = []models.Archive{}
	}
	return &Board{lb: lb}
}

// Update upserts the user's point total and re-sorts the household ranking.
func (b *Board) Update(household, username string, points int) {
	standings := b.lb.Rankings[household]

	found := false
	for i := range standings {
		if standings[i].Username == username {
			standings[i].Points = points
			found = true
			break
		}
	}
	if !found {
		standings = append(standings, models.Standing{Username: username, Points: points})
	}

	sortStandings(standings)
	b.lb.Rankings[household] = standings
}

// Remove drops a user from a household ranking.
func (b *Board) Remove(household, username string) {
	standings := b.lb.Rankings[household]
	for i := range standings {
		if standings[i].Username == username {
			b.lb.Rankings[household] = append(standings[:i], standings[i+1:]...)
			return
		}
	}
}

// SortedRankings returns a copy of the household ranking, highest points
// first. Unknown households yield an empty slice.
func (b *Board) SortedRankings(household string) []models.Standing {
	standings := b.lb.Rankings[household]
	out := make([]models.Standing, len(standings))
	copy(out, standings)
	sortStandings(out)
	return out
}

// Households returns the names of households that currently have rankings.
func (b *Board) Households() []string {
	names := make([]string, 0, len(b.lb.Rankings))
	for name := range b.lb.Rankings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResetMonthly archives a deep copy of every household ranking under the
// month containing now, records the top scorer across households and clears
// the live rankings. Each call appends exactly one archive entry.
func (b *Board) ResetMonthly(now time.Time) models.Archive {
	archive := models.Archive{
		Month:      utils.MonthLabel(now),
		ArchivedAt: now,
		Rankings:   b.snapshot(),
		TopUser:    b.topPerformer(),
	}

	b.lb.PastRankings = append(b.lb.PastRankings, archive)
	b.lb.Rankings = make(map[string][]models.Standing)
	return archive
}

// TopPerformers returns archived months that had a top scorer, oldest first.
func (b *Board) TopPerformers() []models.Archive {
	var out []models.Archive
	for _, a := range b.lb.PastRankings {
		if a.TopUser != nil {
			out = append(out, a)
		}
	}
	return out
}

// PastRankings returns every archive entry in the order it was written.
func (b *Board) PastRankings() []models.Archive {
	out := make([]models.Archive, len(b.lb.PastRankings))
	copy(out, b.lb.PastRankings)
	return out
}

func (b *Board) snapshot() map[string][]models.Standing {
	snap := make(map[string][]models.Standing, len(b.lb.Rankings))
	for household, standings := range b.lb.Rankings {
		cp := make([]models.Standing, len(standings))
		copy(cp, standings)
		sortStandings(cp)
		snap[household] = cp
	}
	return snap
}

func (b *Board) topPerformer() *models.TopPerformer {
	var top *models.TopPerformer
	for _, household := range b.Households() {
		for _, s := range b.lb.Rankings[household] {
			if top == nil || ranksAbove(s, models.Standing{Username: top.Username, Points: top.Points}) {
				top = &models.TopPerformer{Username: s.Username, Household: household, Points: s.Points}
			}
		}
	}
	return top
}

// ranksAbove orders by points descending, then username ascending.
func ranksAbove(a, b models.Standing) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	return a.Username < b.Username
}

func sortStandings(s []models.Standing) {
	sort.SliceStable(s, func(i, j int) bool {
		return ranksAbove(s[i], s[j])
	})
}
