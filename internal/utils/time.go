package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habithouse/internal/constants"
)

// LoadLocation resolves an IANA zone name. "" and "Local" mean the system
// zone, which is what a fresh config carries.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// ParseDay parses a day key back into midnight of that date in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateFormat, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", day, err)
	}
	return t, nil
}

// ValidateDateFormat reports whether s is a well-formed day key. Stored
// completion dates are checked with it during validation.
func ValidateDateFormat(s string) bool {
	_, err := ParseDay(s, time.UTC)
	return err == nil
}
