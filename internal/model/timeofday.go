package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a clock time without a date, stored as whole minutes
// since midnight. Sessions recur daily, so their start and end times
// carry no date component; a full time.Time would smuggle one in.
// Valid values lie in [0, 1440).
type TimeOfDay int

// ParseTimeOfDay parses "15:04" or "15:04:05" into a TimeOfDay.
// Seconds, when present, are dropped. MySQL TIME columns scan as
// "15:04:05" strings, so repositories funnel through this too.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MinutesOfDay truncates a wall-clock instant to its minute of the
// day. Truncation keeps the in-slot interval half-open: an arrival at
// exactly an end time is already outside the slot.
func MinutesOfDay(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// Hour returns the hour component (0–23).
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component (0–59).
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders "15:04", the format used in API payloads.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// SQL renders "15:04:00" for MySQL TIME columns.
func (t TimeOfDay) SQL() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute())
}

// MarshalJSON encodes the value as its "15:04" string form.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON accepts the same forms as ParseTimeOfDay.
func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
