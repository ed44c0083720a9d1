// Package lock provides a PID lockfile used to serialize load-modify-save
// cycles between habithouse processes sharing one data file.
package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/logger"
)

// ErrLockTimeout is returned when another live process holds the lock
var ErrLockTimeout = errors.New("timed out waiting for data lock")

// Variables for dependency injection in tests
var (
	findProcessFunc = ps.FindProcess
	currentPID      = os.Getpid
)

// Lock is a held lockfile. Release it when the critical section ends.
type Lock struct {
	path string
}

// PathFor returns the lockfile path guarding dataPath
func PathFor(dataPath string) string {
	return dataPath + constants.LockfileSuffix
}

// Acquire creates the lockfile at path, waiting up to timeout while another
// live process holds it. Lockfiles left behind by dead processes are reclaimed.
func Acquire(path string, timeout time.Duration) (*Lock, error) {
	deadline := time.Now().Add(timeout)

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", currentPID())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		if stale, _ := isStale(path); stale {
			reclaimed, err := reclaim(path)
			if err != nil {
				return nil, err
			}
			if reclaimed {
				continue
			}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}
		time.Sleep(constants.LockPollInterval)
	}
}

func guardPath(path string) string {
	return path + ".reclaim"
}

// reclaim removes a stale lockfile while holding a guard file, re-checking
// staleness under the guard. Without it two waiters could both judge the
// same lock stale, and the later one would delete the lock the earlier one
// had just taken. It reports whether the lockfile was removed.
func reclaim(path string) (bool, error) {
	guard := guardPath(path)
	g, err := os.OpenFile(guard, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if !os.IsExist(err) {
			return false, fmt.Errorf("failed to create reclaim guard: %w", err)
		}
		// A guard outlives its holder only if that process died mid-reclaim
		if info, statErr := os.Stat(guard); statErr == nil && time.Since(info.ModTime()) > constants.LockTimeout {
			_ = os.Remove(guard)
		}
		return false, nil
	}
	g.Close()
	defer os.Remove(guard)

	stale, reason := isStale(path)
	if !stale {
		return false, nil
	}
	logger.Warn("Reclaiming stale lockfile", "path", path, "reason", reason)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to remove stale lockfile: %w", err)
	}
	return true, nil
}

// Release removes the lockfile. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release lockfile: %w", err)
	}
	return nil
}

// Owner returns the PID recorded in the lockfile at path.
func Owner(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, errors.New("invalid process ID in lockfile")
	}
	return pid, nil
}

func isStale(path string) (bool, string) {
	pid, err := Owner(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Removed between our create attempt and the read; just retry
			return false, ""
		}
		info, statErr := os.Stat(path)
		// A half-written lockfile from a live writer is young; only reclaim old garbage
		if statErr == nil && time.Since(info.ModTime()) > constants.LockTimeout {
			return true, "malformed"
		}
		return false, ""
	}

	if pid == currentPID() {
		return false, ""
	}

	proc, err := findProcessFunc(pid)
	if err != nil {
		return false, ""
	}
	if proc == nil {
		return true, fmt.Sprintf("process %d not running", pid)
	}
	return false, ""
}

// Inspect reports whether a lockfile exists at path and, if so, whether it
// would be reclaimed as stale by the next Acquire.
func Inspect(path string) (held bool, stale bool, reason string) {
	if _, err := os.Stat(path); err != nil {
		return false, false, ""
	}
	stale, reason = isStale(path)
	return true, stale, reason
}
