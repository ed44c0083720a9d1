package system

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habithouse/internal/cli"
	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/keyring"
	"github.com/julianstephens/habithouse/internal/lock"
	"github.com/julianstephens/habithouse/internal/storage"
	"github.com/julianstephens/habithouse/internal/utils"
)

// errWarning marks a check whose failure should not fail the run.
type errWarning struct{ msg string }

func (e errWarning) Error() string { return e.msg }

func warn(format string, args ...interface{}) error {
	return errWarning{msg: fmt.Sprintf(format, args...)}
}

type check struct {
	name      string
	needStore bool
	run       func(ctx *cli.Context) error
}

var checks = []check{
	{"Schema version", true, checkSchemaVersion},
	{"Data validation", true, checkValidation},
	{"Archive index", true, checkArchiveIndex},
	{"Backups present", false, checkBackupsPresent},
	{"Data lock", false, checkLock},
	{"Clock/timezone", false, checkClockTimezone},
	{"Keyring", false, checkKeyring},
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	reachable := true

	if err := checkStoreReachable(ctx); err != nil {
		ctx.Printf("❌ Store reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		reachable = false
	} else {
		ctx.Printf("✓ Store reachable: OK\n")
	}

	for _, c := range checks {
		if c.needStore && !reachable {
			ctx.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}

		err := c.run(ctx)
		var w errWarning
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case errors.As(err, &w):
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", w.msg)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if _, err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		// JSON store doesn't have a schema
		return nil
	}

	current, latest, err := m.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run '%s migrate')", current, latest, constants.AppName)
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	result, err := ctx.Tracker.Validate()
	if err != nil {
		return err
	}
	if result.HasConflicts() {
		return fmt.Errorf("%d conflict(s) found (run '%s validate' for details)", len(result.Conflicts), constants.AppName)
	}
	return nil
}

// checkArchiveIndex compares the SQL archive table with the months archived
// in the document. Any save rebuilds the table.
func checkArchiveIndex(ctx *cli.Context) error {
	idx, ok := ctx.Store.(storage.ArchiveIndexer)
	if !ok {
		return nil
	}
	indexed, err := idx.ArchiveMonths()
	if err != nil {
		return err
	}
	doc, err := ctx.Store.Load()
	if err != nil {
		return err
	}

	// The table holds one row per month even when a month was reset twice
	seen := make(map[string]bool)
	var archived []string
	for _, a := range doc.Leaderboard.PastRankings {
		if !seen[a.Month] {
			seen[a.Month] = true
			archived = append(archived, a.Month)
		}
	}
	sort.Strings(archived)
	if strings.Join(indexed, ",") != strings.Join(archived, ",") {
		return warn("archive index %v does not match archived months %v; it is rebuilt on the next save", indexed, archived)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if ctx.Backups == nil {
		return warn("backups are not configured")
	}
	backups, err := ctx.Backups.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return warn("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkLock(ctx *cli.Context) error {
	l, ok := ctx.Store.(storage.Locker)
	if !ok {
		return nil
	}
	held, stale, reason := lock.Inspect(l.LockPath())
	switch {
	case !held:
		return nil
	case stale:
		return warn("stale lockfile %s (%s); it will be reclaimed on the next write", l.LockPath(), reason)
	default:
		pid, _ := lock.Owner(l.LockPath())
		return warn("lockfile %s is held by process %d", l.LockPath(), pid)
	}
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, err := utils.LoadLocation(ctx.Config.Timezone); err != nil {
		return err
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if ctx.Config.Storage.Backend != constants.BackendPostgres {
		return nil
	}
	if !keyring.IsAvailable() {
		return warn("OS keyring is not available; use --db or %s instead", constants.EnvConnectionString)
	}
	return nil
}
