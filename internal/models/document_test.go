package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/julianstephens/habithouse/internal/constants"
)

func TestNormalize(t *testing.T) {
	raw := `{
		"households": {"Smiths": {"members": ["alice", "bob"], "points": {"alice": 4}}},
		"habits": [{"name": "Run", "periodicity": "daily", "points": 3}],
		"leaderboard": {"rankings": {}}
	}`

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	doc.Normalize()

	if doc.Version != constants.DocumentVersion {
		t.Errorf("Version = %d, want %d", doc.Version, constants.DocumentVersion)
	}
	if doc.BonusHabits == nil || doc.Streaks == nil || doc.CompletedHabits == nil || doc.Users == nil {
		t.Fatal("Normalize() left collections nil")
	}
	if doc.Leaderboard.PastRankings == nil {
		t.Error("Normalize() left past rankings nil")
	}

	h := doc.Households["Smiths"]
	if h.Name != "Smiths" {
		t.Errorf("household name = %q, want Smiths", h.Name)
	}
	if pts, ok := h.Points["bob"]; !ok || pts != 0 {
		t.Errorf("bob points = %d (present %v), want 0 entry for every member", pts, ok)
	}
	if h.Points["alice"] != 4 {
		t.Errorf("alice points = %d, want 4", h.Points["alice"])
	}
}

func TestHouseholdOf(t *testing.T) {
	now := time.Now()
	doc := NewDocument()

	smiths := NewHousehold("Smiths", now)
	smiths.Members = append(smiths.Members, "alice", "carol")
	doc.Households["Smiths"] = smiths
	doc.Users["alice"] = NewUser("alice", "Smiths", now)

	if got, ok := doc.HouseholdOf("alice"); !ok || got != "Smiths" {
		t.Errorf("HouseholdOf(alice) = %q, %v", got, ok)
	}
	// carol only appears in the membership list
	if got, ok := doc.HouseholdOf("carol"); !ok || got != "Smiths" {
		t.Errorf("HouseholdOf(carol) = %q, %v", got, ok)
	}
	if _, ok := doc.HouseholdOf("mallory"); ok {
		t.Error("HouseholdOf(mallory) found a household")
	}
}

func TestFindHabitCatalogs(t *testing.T) {
	doc := NewDocument()
	doc.Habits = append(doc.Habits, Habit{Name: "Run", Periodicity: constants.PeriodicityDaily, Points: 3})
	doc.BonusHabits = append(doc.BonusHabits, Habit{Name: "ExtraChores", Periodicity: constants.PeriodicityWeekly, Points: 10, IsBonus: true})

	if _, ok := doc.FindHabit("ExtraChores"); ok {
		t.Error("FindHabit() should not search the bonus catalog")
	}
	if _, ok := doc.FindBonusHabit("Run"); ok {
		t.Error("FindBonusHabit() should not search the regular catalog")
	}
	if h, ok := doc.FindAnyHabit("ExtraChores"); !ok || !h.IsBonus {
		t.Error("FindAnyHabit() did not find the bonus habit")
	}

	h, _ := doc.FindHabit("Run")
	stamp := time.Now()
	h.LastCompletedAt = &stamp
	if doc.Habits[0].LastCompletedAt == nil {
		t.Error("FindHabit() should return a pointer into the catalog")
	}

	if got := len(doc.AllHabits()); got != 2 {
		t.Errorf("AllHabits() returned %d habits, want 2", got)
	}
}

func TestUserCompletions(t *testing.T) {
	u := NewUser("alice", "Smiths", time.Now())
	if _, ok := u.LastCompletion("Run"); ok {
		t.Error("LastCompletion() on empty history returned ok")
	}

	u.Completions["Run"] = []string{"2026-10-12", "2026-10-13"}
	if last, _ := u.LastCompletion("Run"); last != "2026-10-13" {
		t.Errorf("LastCompletion() = %q, want 2026-10-13", last)
	}
	if !u.HasCompletedOn("Run", "2026-10-13") {
		t.Error("HasCompletedOn(2026-10-13) = false")
	}
	if u.HasCompletedOn("Run", "2026-10-12") {
		t.Error("HasCompletedOn() should only consider the latest completion")
	}
}
