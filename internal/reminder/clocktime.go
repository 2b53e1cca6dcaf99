package reminder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/meditrack/meditrack/internal/errors"
)

// ClockTime is a wall-clock time of day in 12-hour notation, e.g. "8:00 AM".
// The hour carries no leading zero.
type ClockTime struct {
	Hour   int // 1-12
	Minute int // 0-59
	PM     bool
}

// ParseClockTime parses "H:MM AM" / "H:MM PM". The meridiem is case
// insensitive; the hour must be in [1,12] and the minute in [0,59].
func ParseClockTime(s string) (ClockTime, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return ClockTime{}, apperrors.Wrap(fmt.Errorf("%q", s), "VAL_004", "time must be in H:MM AM/PM format")
	}

	var pm bool
	switch strings.ToUpper(fields[1]) {
	case "AM":
		pm = false
	case "PM":
		pm = true
	default:
		return ClockTime{}, apperrors.Wrap(fmt.Errorf("bad meridiem %q", fields[1]), "VAL_004", "time must be in H:MM AM/PM format")
	}

	hh, mm, ok := strings.Cut(fields[0], ":")
	if !ok {
		return ClockTime{}, apperrors.Wrap(fmt.Errorf("%q", s), "VAL_004", "time must be in H:MM AM/PM format")
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 1 || hour > 12 {
		return ClockTime{}, apperrors.Wrap(fmt.Errorf("bad hour %q", hh), "VAL_004", "time must be in H:MM AM/PM format")
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || minute < 0 || minute > 59 {
		return ClockTime{}, apperrors.Wrap(fmt.Errorf("bad minute %q", mm), "VAL_004", "time must be in H:MM AM/PM format")
	}

	return ClockTime{Hour: hour, Minute: minute, PM: pm}, nil
}

// MustClockTime is a test and fixture helper; it panics on a malformed value.
func MustClockTime(s string) ClockTime {
	ct, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return ct
}

func (c ClockTime) String() string {
	meridiem := "AM"
	if c.PM {
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", c.Hour, c.Minute, meridiem)
}

// Hour24 converts to a 24-hour clock hour: 12 AM is 0, 12 PM stays 12,
// other PM hours gain 12.
func (c ClockTime) Hour24() int {
	hour := c.Hour
	if c.PM && hour != 12 {
		hour += 12
	}
	if !c.PM && hour == 12 {
		hour = 0
	}
	return hour
}

// At returns the instant this clock time falls on for the calendar day of
// ref, in ref's location.
func (c ClockTime) At(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), c.Hour24(), c.Minute, 0, 0, ref.Location())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ct, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = ct
	return nil
}
