package schedule

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser matches the parser the scheduler runs with: standard 5-field
// specs plus descriptors. Kept here so next-fire projection and the live
// runner agree on spec semantics.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextFires projects the next n fire instants strictly after from, in from's
// location. Missed instants are never returned; projection is forward-only.
// A dormant schedule (no days) yields nil.
func (s Schedule) NextFires(from time.Time, n int) []time.Time {
	spec := s.CronSpec()
	if spec == "" || n <= 0 {
		return nil
	}
	sched, err := cronParser.Parse(spec)
	if err != nil {
		// CronSpec output is always parseable; a failure here means the
		// schedule itself is malformed, so there is nothing to project.
		return nil
	}
	out := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out
}

// Greeting buckets for the delivery message, by local hour.
// Boundaries follow first-match-wins order: night, morning, afternoon,
// evening.
const (
	GreetingNight     = "Good night"
	GreetingMorning   = "Good morning"
	GreetingAfternoon = "Good afternoon"
	GreetingEvening   = "Good evening"
)

// GreetingFor picks the greeting for a local hour: night before 04:00 and
// after 22:00, morning before 12:00, afternoon before 17:00, else evening.
func GreetingFor(hour int) string {
	switch {
	case hour < 4 || hour > 22:
		return GreetingNight
	case hour < 12:
		return GreetingMorning
	case hour < 17:
		return GreetingAfternoon
	default:
		return GreetingEvening
	}
}
