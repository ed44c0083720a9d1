// Package tracker implements the habithouse engines: habit completion with
// streaks and streak bonuses, single-winner bonus claims, the household
// directory and the monthly leaderboard reset.
//
// Every mutating operation is one load-modify-save cycle against the store,
// serialized within the process by a mutex and across processes by a
// lockfile (file-backed stores) or revision check (SQL stores).
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/leaderboard"
	"github.com/julianstephens/habithouse/internal/lock"
	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/storage"
	"github.com/julianstephens/habithouse/internal/utils"
)

// Options configures a Tracker. Zero values select the defaults.
type Options struct {
	Timezone        string
	StreakMilestone int
	StreakBonus     int
	// Backup runs before destructive operations (clear, monthly reset).
	Backup      func() error
	LockTimeout time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type Tracker struct {
	mu sync.Mutex

	store       storage.Provider
	loc         *time.Location
	milestone   int
	bonus       int
	backup      func() error
	lockTimeout time.Duration
	now         func() time.Time
}

func New(store storage.Provider, opts Options) (*Tracker, error) {
	loc, err := utils.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		store:       store,
		loc:         loc,
		milestone:   opts.StreakMilestone,
		bonus:       opts.StreakBonus,
		backup:      opts.Backup,
		lockTimeout: opts.LockTimeout,
		now:         opts.Now,
	}
	if t.milestone <= 0 {
		t.milestone = constants.DefaultStreakMilestone
	}
	if t.bonus < 0 {
		t.bonus = constants.DefaultStreakBonus
	}
	if t.lockTimeout <= 0 {
		t.lockTimeout = constants.LockTimeout
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t, nil
}

// clock returns the current time in the configured timezone.
func (t *Tracker) clock() time.Time {
	return t.now().In(t.loc)
}

// transact runs fn against a freshly loaded document and saves the result.
// The document is not saved when fn returns an error.
func (t *Tracker) transact(fn func(doc *models.Document) error) error {
	return t.commit(false, fn)
}

// transactBackedUp is transact with the backup hook run under the data lock
// and before the load, so the backup holds exactly the state fn replaces.
// The hook must not take the lock itself.
func (t *Tracker) transactBackedUp(fn func(doc *models.Document) error) error {
	return t.commit(true, fn)
}

func (t *Tracker) commit(backup bool, fn func(doc *models.Document) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if l, ok := t.store.(storage.Locker); ok {
		held, err := lock.Acquire(l.LockPath(), t.lockTimeout)
		if err != nil {
			return err
		}
		defer func() {
			if err := held.Release(); err != nil {
				logger.Warn("Failed to release data lock", "error", err)
			}
		}()
	}

	if backup {
		if err := t.runBackup(); err != nil {
			return err
		}
	}

	doc, err := t.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	if err := fn(doc); err != nil {
		return err
	}

	if err := t.store.Save(doc); err != nil {
		return fmt.Errorf("failed to save data: %w", err)
	}
	return nil
}

// view runs fn against a freshly loaded document without saving.
func (t *Tracker) view(fn func(doc *models.Document) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc, err := t.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	return fn(doc)
}

func (t *Tracker) runBackup() error {
	if t.backup == nil {
		return nil
	}
	if err := t.backup(); err != nil {
		return fmt.Errorf("automatic backup failed: %w", err)
	}
	return nil
}

// refreshStanding pushes the user's current monthly total to the leaderboard.
func refreshStanding(doc *models.Document, household, username string) {
	leaderboard.New(&doc.Leaderboard).Update(household, username, doc.Households[household].Points[username])
}
