// Package schedule holds the per-chat recurrence model: a set of weekdays
// plus a time of day, repeated weekly until the user cancels.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTimeFormat = errors.New("invalid time format, expected H:MM or HH:MM")
	ErrInvalidMask       = errors.New("invalid weekday mask")
)

// Weekdays is an ordered set of 7 flags, Monday first. A chat receives a
// compliment on every flagged day. The all-false set is legal and simply
// never fires.
type Weekdays [7]bool

// DayNames follows the Weekdays index order (Monday first).
var DayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// EveryDay returns the default selection with all seven days enabled.
func EveryDay() Weekdays {
	return Weekdays{true, true, true, true, true, true, true}
}

// None reports whether no day is selected.
func (w Weekdays) None() bool {
	for _, d := range w {
		if d {
			return false
		}
	}
	return true
}

// Count returns the number of selected days.
func (w Weekdays) Count() int {
	n := 0
	for _, d := range w {
		if d {
			n++
		}
	}
	return n
}

// Mask encodes the set as a 7-character '0'/'1' string, Monday first.
// This is the storage representation.
func (w Weekdays) Mask() string {
	var b strings.Builder
	b.Grow(7)
	for _, d := range w {
		if d {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// ParseMask decodes a 7-character '0'/'1' mask.
func ParseMask(s string) (Weekdays, error) {
	var w Weekdays
	if len(s) != 7 {
		return w, fmt.Errorf("%w: %q", ErrInvalidMask, s)
	}
	for i := 0; i < 7; i++ {
		switch s[i] {
		case '1':
			w[i] = true
		case '0':
		default:
			return Weekdays{}, fmt.Errorf("%w: %q", ErrInvalidMask, s)
		}
	}
	return w, nil
}

// TimeOfDay is a wall-clock delivery time, evaluated in the process's
// local time zone.
type TimeOfDay struct {
	Hour   int // 0..23
	Minute int // 0..59
}

var timeRe = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// ParseTimeOfDay validates user input of the form "H:MM" or "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if !timeRe.MatchString(s) {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	parts := strings.SplitN(s, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	if h > 23 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// String returns the zero-padded "HH:MM" form used for storage and display.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Schedule is the persisted per-chat record: one schedule per chat id.
type Schedule struct {
	ChatID int64
	Days   Weekdays
	At     TimeOfDay
}

// CronSpec renders the schedule as a standard 5-field cron expression with
// a day-of-week list, e.g. {Mon,Wed,Fri} at 08:30 -> "30 8 * * 1,3,5".
// Cron weekday numbering is Sunday=0, ours is Monday=0.
// An empty weekday set yields "" (a dormant schedule, nothing to register).
func (s Schedule) CronSpec() string {
	if s.Days.None() {
		return ""
	}
	dows := make([]string, 0, 7)
	for i, on := range s.Days {
		if on {
			dows = append(dows, strconv.Itoa((i+1)%7))
		}
	}
	return fmt.Sprintf("%d %d * * %s", s.At.Minute, s.At.Hour, strings.Join(dows, ","))
}

// Describe renders the schedule for the user, e.g.
// "Monday, Wednesday at 08:30". An empty set describes itself as such.
func (s Schedule) Describe() string {
	if s.Days.None() {
		return "no days selected"
	}
	names := make([]string, 0, 7)
	for i, on := range s.Days {
		if on {
			names = append(names, DayNames[i])
		}
	}
	return strings.Join(names, ", ") + " at " + s.At.String()
}

// Matches reports whether t falls on a flagged weekday at the scheduled
// hour and minute.
func (s Schedule) Matches(t time.Time) bool {
	// time.Weekday is Sunday=0; shift to Monday=0.
	idx := (int(t.Weekday()) + 6) % 7
	return s.Days[idx] && t.Hour() == s.At.Hour && t.Minute() == s.At.Minute
}
