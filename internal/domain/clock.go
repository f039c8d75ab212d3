package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	minutesPerDay = 24 * 60

	clockLayout = "03:04 PM"
)

// ClockTime is a local wall-clock time with minute resolution.
// It carries no date; arithmetic wraps at midnight.
type ClockTime struct {
	minutes int
}

// NewClockTime builds a ClockTime from a 24-hour hour and minute.
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("clock time %02d:%02d out of range", hour, minute)
	}
	return ClockTime{minutes: hour*60 + minute}, nil
}

// MustClockTime parses s and panics on failure. Intended for constants and tests.
func MustClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClockTime accepts "09:00 AM", "9:00 am" and 24-hour "14:30".
func ParseClockTime(s string) (ClockTime, error) {
	v := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if v == "" {
		return ClockTime{}, fmt.Errorf("parse clock time: empty value")
	}

	for _, layout := range []string{"03:04 PM", "3:04 PM", "03:04PM", "3:04PM", "15:04"} {
		t, err := time.Parse(layout, v)
		if err == nil {
			return ClockTime{minutes: t.Hour()*60 + t.Minute()}, nil
		}
	}

	return ClockTime{}, fmt.Errorf("parse clock time %q: unrecognized format", s)
}

func (c ClockTime) Hour() int   { return c.minutes / 60 }
func (c ClockTime) Minute() int { return c.minutes % 60 }

// AddSeconds returns the clock time reached after the given number of seconds.
// Partial minutes are truncated.
func (c ClockTime) AddSeconds(seconds float64) ClockTime {
	total := int(math.Floor((float64(c.minutes)*60 + seconds) / 60))
	total %= minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return ClockTime{minutes: total}
}

func (c ClockTime) Before(o ClockTime) bool { return c.minutes < o.minutes }

// String formats as a zero-padded 12-hour clock, e.g. "09:05 AM".
func (c ClockTime) String() string {
	return time.Date(2000, 1, 1, c.Hour(), c.Minute(), 0, 0, time.UTC).Format(clockLayout)
}

func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
