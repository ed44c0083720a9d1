package errors

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habithouse/internal/logger"
)

// Domain errors returned by the tracker. Callers match them with errors.Is;
// the tracker wraps them with the offending name for display.
var (
	ErrHabitNotFound            = errors.New("habit not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrHouseholdNotFound        = errors.New("household not found")
	ErrAlreadyCompletedToday    = errors.New("habit already completed today")
	ErrAlreadyClaimedThisPeriod = errors.New("bonus habit already claimed this period")
	ErrNotBonusHabit            = errors.New("not a bonus habit")
	ErrDuplicateHabitName       = errors.New("habit name already exists")
	ErrDuplicateHouseholdName   = errors.New("household already exists")
	ErrDuplicateMembership      = errors.New("user is already a household member")
	ErrInvalidHabit             = errors.New("invalid habit definition")
)

var notFound = []error{ErrHabitNotFound, ErrUserNotFound, ErrHouseholdNotFound, ErrNotBonusHabit}

var rejected = []error{
	ErrAlreadyCompletedToday,
	ErrAlreadyClaimedThisPeriod,
	ErrDuplicateHabitName,
	ErrDuplicateHouseholdName,
	ErrDuplicateMembership,
	ErrInvalidHabit,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is one of the lookup failures.
func IsNotFound(err error) bool { return isAny(err, notFound) }

// IsRejected reports whether the tracker refused the operation on a rule,
// such as a second completion on the same day.
func IsRejected(err error) bool { return isAny(err, rejected) }

// Exit codes. Scripts can tell a refused operation apart from a broken store.
const (
	ExitFailure  = 1
	ExitNotFound = 2
	ExitRejected = 3
)

func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsNotFound(err):
		return ExitNotFound
	case IsRejected(err):
		return ExitRejected
	default:
		return ExitFailure
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// report writes err to w and returns its exit code.
func report(w io.Writer, err error) int {
	code := ExitCode(err)
	if code == ExitFailure {
		logger.Error("Command execution failed", "error", err)
	} else {
		logger.Info("Command refused", "error", err)
	}
	fmt.Fprintln(w, Format(err))
	return code
}

// Fatal prints err and exits with its exit code. A nil err is a no-op.
func Fatal(err error) {
	if err != nil {
		os.Exit(report(os.Stderr, err))
	}
}
