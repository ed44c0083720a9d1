package tracker

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/habithouse/internal/constants"
	apperrors "github.com/julianstephens/habithouse/internal/errors"
	"github.com/julianstephens/habithouse/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AddDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

type testEnv struct {
	tracker *Tracker
	store   *storage.JSONStore
	clock   *fakeClock
	backups int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: storage.NewJSONStore(filepath.Join(t.TempDir(), "data.json")),
		// A Monday, so a week of daily completions stays inside one ISO week
		clock: &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
	}
	tr, err := New(env.store, Options{
		Timezone: "UTC",
		Now:      env.clock.Now,
		Backup: func() error {
			env.backups++
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	env.tracker = tr
	return env
}

// seed creates household Smiths with alice and bob, daily habit Run (3) and
// weekly bonus habit ExtraChores (10).
func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	if _, err := e.tracker.CreateHousehold("Smiths"); err != nil {
		t.Fatalf("CreateHousehold() error = %v", err)
	}
	for _, u := range []string{"alice", "bob"} {
		if _, err := e.tracker.AddUser(u, "Smiths"); err != nil {
			t.Fatalf("AddUser(%s) error = %v", u, err)
		}
	}
	if _, err := e.tracker.DefineHabit("Run", constants.PeriodicityDaily, 3, false); err != nil {
		t.Fatalf("DefineHabit(Run) error = %v", err)
	}
	if _, err := e.tracker.DefineHabit("ExtraChores", constants.PeriodicityWeekly, 10, true); err != nil {
		t.Fatalf("DefineHabit(ExtraChores) error = %v", err)
	}
}

func TestCompleteFirstTimeAndSameDay(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	got, err := env.tracker.Complete("alice", "Run")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Points != 3 || got.Streak != 1 || got.StreakBonus != 0 || got.Total != 3 {
		t.Errorf("Complete() = %+v, want points 3, streak 1, total 3", got)
	}

	h, err := env.tracker.Household("Smiths")
	if err != nil {
		t.Fatal(err)
	}
	if h.Points["alice"] != 3 {
		t.Errorf("household points[alice] = %d, want 3", h.Points["alice"])
	}

	_, err = env.tracker.Complete("alice", "Run")
	if !errors.Is(err, apperrors.ErrAlreadyCompletedToday) {
		t.Fatalf("second Complete() error = %v, want ErrAlreadyCompletedToday", err)
	}

	doc, _ := env.store.Load()
	if doc.Households["Smiths"].Points["alice"] != 3 || doc.Streaks["alice"]["Run"] != 1 {
		t.Errorf("rejected completion changed state: points %d, streak %d",
			doc.Households["Smiths"].Points["alice"], doc.Streaks["alice"]["Run"])
	}
	if len(doc.Users["alice"].Completions["Run"]) != 1 {
		t.Errorf("completion history = %v, want one entry", doc.Users["alice"].Completions["Run"])
	}
}

func TestCompleteConsecutiveDaysIncrementStreak(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	for day := 1; day <= 5; day++ {
		got, err := env.tracker.Complete("alice", "Run")
		if err != nil {
			t.Fatalf("day %d: Complete() error = %v", day, err)
		}
		if got.Streak != day {
			t.Errorf("day %d: streak = %d, want %d", day, got.Streak, day)
		}
		env.clock.AddDays(1)
	}
}

func TestCompleteGapResetsStreak(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	for i := 0; i < 3; i++ {
		if _, err := env.tracker.Complete("alice", "Run"); err != nil {
			t.Fatal(err)
		}
		env.clock.AddDays(1)
	}

	// Skip a day: the gap is 2 calendar days
	env.clock.AddDays(1)
	got, err := env.tracker.Complete("alice", "Run")
	if err != nil {
		t.Fatal(err)
	}
	if got.Streak != 1 {
		t.Errorf("streak after gap = %d, want 1", got.Streak)
	}

	record, ok, err := env.tracker.LongestStreakForHabit("Run")
	if err != nil || !ok {
		t.Fatalf("LongestStreakForHabit() = %v, %v", ok, err)
	}
	if record.Length != 3 || record.Username != "alice" {
		t.Errorf("longest streak = %+v, want alice/3", record)
	}
}

func TestCompleteStreakBoundaryUsesCalendarDays(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	// Late one evening, then early the next morning: under 24h but a new day
	env.clock.now = time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC)
	if _, err := env.tracker.Complete("alice", "Run"); err != nil {
		t.Fatal(err)
	}
	env.clock.now = time.Date(2024, 3, 5, 0, 15, 0, 0, time.UTC)
	got, err := env.tracker.Complete("alice", "Run")
	if err != nil {
		t.Fatalf("Complete() after midnight error = %v", err)
	}
	if got.Streak != 2 {
		t.Errorf("streak = %d, want 2", got.Streak)
	}
}

func TestStreakBonusAtMilestone(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	bonuses := 0
	total := 0
	for day := 1; day <= 15; day++ {
		got, err := env.tracker.Complete("alice", "Run")
		if err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
		wantBonus := 0
		if day == 7 || day == 14 {
			wantBonus = 5
		}
		if got.StreakBonus != wantBonus {
			t.Errorf("day %d: StreakBonus = %d, want %d", day, got.StreakBonus, wantBonus)
		}
		if got.Points != 3 {
			t.Errorf("day %d: Points = %d, want base 3", day, got.Points)
		}
		bonuses += got.StreakBonus
		total = got.Total
		env.clock.AddDays(1)
	}

	if bonuses != 10 {
		t.Errorf("total bonus = %d, want 10", bonuses)
	}
	if want := 15*3 + 10; total != want {
		t.Errorf("household total = %d, want %d", total, want)
	}

	doc, _ := env.store.Load()
	if doc.Users["alice"].Points != total {
		t.Errorf("lifetime points = %d, want %d", doc.Users["alice"].Points, total)
	}
}

func TestStreakBonusNotRepeatedAfterReset(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	for day := 1; day <= 7; day++ {
		if _, err := env.tracker.Complete("alice", "Run"); err != nil {
			t.Fatal(err)
		}
		env.clock.AddDays(1)
	}
	env.clock.AddDays(3)

	// Streak restarts at 1; only reaching 7 again earns another bonus
	for day := 1; day <= 6; day++ {
		got, err := env.tracker.Complete("alice", "Run")
		if err != nil {
			t.Fatal(err)
		}
		if got.StreakBonus != 0 {
			t.Errorf("restart day %d: unexpected bonus %d", day, got.StreakBonus)
		}
		env.clock.AddDays(1)
	}
}

func TestWeeklyHabitThreshold(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	if _, err := env.tracker.DefineHabit("Laundry", constants.PeriodicityWeekly, 4, false); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		advance    int
		wantStreak int
	}{
		{0, 1},
		{7, 2},
		{3, 3},
		{8, 1},
	}

	for i, s := range steps {
		env.clock.AddDays(s.advance)
		got, err := env.tracker.Complete("alice", "Laundry")
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.Streak != s.wantStreak {
			t.Errorf("step %d (+%d days): streak = %d, want %d", i, s.advance, got.Streak, s.wantStreak)
		}
	}
}

func TestCompleteErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	tests := []struct {
		name    string
		user    string
		habit   string
		wantErr error
	}{
		{"unknown habit", "alice", "Swim", apperrors.ErrHabitNotFound},
		{"bonus habit", "alice", "ExtraChores", apperrors.ErrHabitNotFound},
		{"unknown user", "mallory", "Run", apperrors.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.tracker.Complete(tt.user, tt.habit); !errors.Is(err, tt.wantErr) {
				t.Errorf("Complete(%s, %s) error = %v, want %v", tt.user, tt.habit, err, tt.wantErr)
			}
		})
	}
}

func TestFailedOperationDoesNotSave(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	before, _ := env.store.Load()
	if _, err := env.tracker.Complete("alice", "Swim"); err == nil {
		t.Fatal("expected error")
	}
	after, _ := env.store.Load()
	if after.Revision != before.Revision {
		t.Errorf("revision moved from %d to %d on a failed operation", before.Revision, after.Revision)
	}
}

func TestClaimBonusSingleWinnerPerWeek(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	got, err := env.tracker.ClaimBonus("alice", "ExtraChores")
	if err != nil {
		t.Fatalf("ClaimBonus(alice) error = %v", err)
	}
	if got.Points != 10 || got.Period != "2024-W10" {
		t.Errorf("ClaimBonus() = %+v, want 10 points for 2024-W10", got)
	}

	if _, err := env.tracker.ClaimBonus("bob", "ExtraChores"); !errors.Is(err, apperrors.ErrAlreadyClaimedThisPeriod) {
		t.Errorf("ClaimBonus(bob) error = %v, want ErrAlreadyClaimedThisPeriod", err)
	}

	// Later the same ISO week, nobody including the winner can claim again
	env.clock.AddDays(4)
	if _, err := env.tracker.ClaimBonus("alice", "ExtraChores"); !errors.Is(err, apperrors.ErrAlreadyClaimedThisPeriod) {
		t.Errorf("ClaimBonus(alice) again error = %v, want ErrAlreadyClaimedThisPeriod", err)
	}

	env.clock.AddDays(3)
	if _, err := env.tracker.ClaimBonus("bob", "ExtraChores"); err != nil {
		t.Errorf("ClaimBonus(bob) next week error = %v", err)
	}

	doc, _ := env.store.Load()
	if doc.CompletedHabits["2024-W10"]["ExtraChores"] != "alice" || doc.CompletedHabits["2024-W11"]["ExtraChores"] != "bob" {
		t.Errorf("claim records = %v", doc.CompletedHabits)
	}
	if doc.Households["Smiths"].Points["alice"] != 10 || doc.Households["Smiths"].Points["bob"] != 10 {
		t.Errorf("household points = %v", doc.Households["Smiths"].Points)
	}
	if doc.Users["alice"].BonusClaimed["ExtraChores"] != "2024-W10" {
		t.Errorf("alice bonus record = %v", doc.Users["alice"].BonusClaimed)
	}
}

func TestClaimBonusDailyPeriod(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	if _, err := env.tracker.DefineHabit("Dishes", constants.PeriodicityDaily, 2, true); err != nil {
		t.Fatal(err)
	}

	got, err := env.tracker.ClaimBonus("bob", "Dishes")
	if err != nil {
		t.Fatal(err)
	}
	if got.Period != "2024-03-04" {
		t.Errorf("Period = %q, want 2024-03-04", got.Period)
	}

	env.clock.AddDays(1)
	if _, err := env.tracker.ClaimBonus("alice", "Dishes"); err != nil {
		t.Errorf("ClaimBonus next day error = %v", err)
	}
}

func TestClaimBonusErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	tests := []struct {
		name    string
		user    string
		habit   string
		wantErr error
	}{
		{"regular habit", "alice", "Run", apperrors.ErrNotBonusHabit},
		{"unknown habit", "alice", "Nope", apperrors.ErrNotBonusHabit},
		{"unknown user", "mallory", "ExtraChores", apperrors.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.tracker.ClaimBonus(tt.user, tt.habit); !errors.Is(err, tt.wantErr) {
				t.Errorf("ClaimBonus(%s, %s) error = %v, want %v", tt.user, tt.habit, err, tt.wantErr)
			}
		})
	}
}

func TestConcurrentClaimsAcrossTrackers(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	// A second tracker on the same file stands in for a second process
	other, err := New(env.store, Options{Timezone: "UTC", Now: env.clock.Now})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, tr := range []*Tracker{env.tracker, other} {
		wg.Add(1)
		go func(i int, tr *Tracker, user string) {
			defer wg.Done()
			_, results[i] = tr.ClaimBonus(user, "ExtraChores")
		}(i, tr, []string{"alice", "bob"}[i])
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, apperrors.ErrAlreadyClaimedThisPeriod):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
}

func TestConcurrentCompletionsKeepAllPoints(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	for _, name := range []string{"Read", "Stretch", "Walk", "Water"} {
		if _, err := env.tracker.DefineHabit(name, constants.PeriodicityDaily, 1, false); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	for _, habit := range []string{"Run", "Read", "Stretch", "Walk", "Water"} {
		wg.Add(1)
		go func(habit string) {
			defer wg.Done()
			if _, err := env.tracker.Complete("alice", habit); err != nil {
				t.Errorf("Complete(%s) error = %v", habit, err)
			}
		}(habit)
	}
	wg.Wait()

	standings, err := env.tracker.Leaderboard("Smiths")
	if err != nil {
		t.Fatal(err)
	}
	if standings[0].Username != "alice" || standings[0].Points != 3+4 {
		t.Errorf("standings = %+v, want alice with 7", standings)
	}
}
