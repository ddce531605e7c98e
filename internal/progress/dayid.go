// Package progress computes habit progress: calendar-day normalization, completion streaks,
// completion toggles with their coin reward, and pet hunger. Every function here is pure; the
// callers own persistence and apply the results.
package progress

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitpal/internal/constants"
)

// ErrInvalidDay is returned when a string is not a YYYY-MM-DD calendar day.
var ErrInvalidDay = errors.New("invalid day")

// ErrInvalidZone is returned when a zone policy string cannot be parsed.
var ErrInvalidZone = errors.New("invalid zone")

// DayID identifies a calendar day as YYYY-MM-DD. Lexicographic order matches chronological order.
type DayID string

// ParseDayID validates s and returns it as a DayID.
func ParseDayID(s string) (DayID, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil || t.Format(constants.DateFormat) != s {
		return "", fmt.Errorf("%w: %q (expected YYYY-MM-DD)", ErrInvalidDay, s)
	}
	return DayID(s), nil
}

// Valid reports whether d is a well-formed calendar day.
func (d DayID) Valid() bool {
	_, ok := d.date()
	return ok
}

func (d DayID) String() string { return string(d) }

// date returns midnight UTC of d.
func (d DayID) date() (time.Time, bool) {
	t, err := time.Parse(constants.DateFormat, string(d))
	if err != nil || t.Format(constants.DateFormat) != string(d) {
		return time.Time{}, false
	}
	return t, true
}

// AddDays returns the day n days after d (n may be negative). An invalid d is returned unchanged.
func (d DayID) AddDays(n int) DayID {
	t, ok := d.date()
	if !ok {
		return d
	}
	return DayID(t.AddDate(0, 0, n).Format(constants.DateFormat))
}

// Weekday returns the weekday of d. The second result is false when d is invalid.
func (d DayID) Weekday() (time.Weekday, bool) {
	t, ok := d.date()
	if !ok {
		return 0, false
	}
	return t.Weekday(), true
}

// ZonePolicy decides which calendar day a timestamp falls on. The zero value is UTC.
type ZonePolicy struct {
	loc  *time.Location
	name string
}

// UTC returns the UTC zone policy.
func UTC() ZonePolicy {
	return ZonePolicy{loc: time.UTC, name: "UTC"}
}

// FixedOffset returns a zone policy with a constant offset from UTC, in minutes east of UTC.
func FixedOffset(minutes int) ZonePolicy {
	if minutes == 0 {
		return UTC()
	}
	name := formatOffset(minutes)
	return ZonePolicy{loc: time.FixedZone(name, minutes*60), name: name}
}

// ParseZone parses "UTC", a fixed offset such as "+05:30" or "-08:00", or an IANA zone name.
// The host's local zone is never accepted so that day boundaries do not depend on where the
// process runs.
func ParseZone(s string) (ZonePolicy, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || strings.EqualFold(s, "UTC") || s == "Z":
		return UTC(), nil
	case strings.EqualFold(s, "Local"):
		return ZonePolicy{}, fmt.Errorf("%w: the local system zone is not allowed, use an offset like +02:00", ErrInvalidZone)
	case s[0] == '+' || s[0] == '-':
		minutes, err := parseOffset(s)
		if err != nil {
			return ZonePolicy{}, err
		}
		return FixedOffset(minutes), nil
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		return ZonePolicy{}, fmt.Errorf("%w: %q: %v", ErrInvalidZone, s, err)
	}
	return ZonePolicy{loc: loc, name: s}, nil
}

func parseOffset(s string) (int, error) {
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	body := s[1:]
	var hh, mm string
	if i := strings.IndexByte(body, ':'); i >= 0 {
		hh, mm = body[:i], body[i+1:]
	} else if len(body) == 4 {
		hh, mm = body[:2], body[2:]
	} else {
		hh, mm = body, "0"
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 14 {
		return 0, fmt.Errorf("%w: bad hour in offset %q", ErrInvalidZone, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: bad minutes in offset %q", ErrInvalidZone, s)
	}
	return sign * (h*60 + m), nil
}

func formatOffset(minutes int) string {
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d:%02d", sign, minutes/60, minutes%60)
}

// Location returns the time.Location of the policy.
func (z ZonePolicy) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

func (z ZonePolicy) String() string {
	if z.name == "" {
		return "UTC"
	}
	return z.name
}

// ToDayID returns the calendar day t falls on under zone.
func ToDayID(t time.Time, zone ZonePolicy) DayID {
	return DayID(t.In(zone.Location()).Format(constants.DateFormat))
}
