// Package session tracks in-progress schedule setup per chat: a two-stage
// form (pick weekdays, then type a time). Sessions live only in memory; a
// restart loses in-flight setups but never committed schedules.
package session

import (
	"errors"
	"sync"

	"github.com/RedBullDogE/compliment-bot/internal/schedule"
)

var (
	ErrNoSession  = errors.New("no setup session for chat")
	ErrWrongStage = errors.New("setup session is in a different stage")
	ErrBadDay     = errors.New("day index out of range")
)

// Stage is the setup step a session is currently in.
type Stage int

const (
	StageCollectingDays Stage = iota
	StageCollectingTime
)

type state struct {
	days  schedule.Weekdays
	stage Stage
}

// Registry holds all active setup sessions keyed by chat id.
// Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*state
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*state)}
}

// Start opens a fresh session for chatID with every day preselected,
// discarding any previous in-flight session for the same chat.
func (r *Registry) Start(chatID int64) {
	r.mu.Lock()
	r.sessions[chatID] = &state{days: schedule.EveryDay(), stage: StageCollectingDays}
	r.mu.Unlock()
}

// ToggleDay flips one day's flag and returns its new value.
func (r *Registry) ToggleDay(chatID int64, day int) (bool, error) {
	if day < 0 || day > 6 {
		return false, ErrBadDay
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	if !ok {
		return false, ErrNoSession
	}
	if s.stage != StageCollectingDays {
		return false, ErrWrongStage
	}
	s.days[day] = !s.days[day]
	return s.days[day], nil
}

// Days returns a snapshot of the current selection.
func (r *Registry) Days(chatID int64) (schedule.Weekdays, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	if !ok {
		return schedule.Weekdays{}, ErrNoSession
	}
	return s.days, nil
}

// AdvanceToTime moves the session to the time stage and returns the selected
// days.
func (r *Registry) AdvanceToTime(chatID int64) (schedule.Weekdays, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	if !ok {
		return schedule.Weekdays{}, ErrNoSession
	}
	if s.stage != StageCollectingDays {
		return schedule.Weekdays{}, ErrWrongStage
	}
	s.stage = StageCollectingTime
	return s.days, nil
}

// AwaitingTime reports whether chatID has a session waiting for time input.
// The router uses it to decide whether a plain text message is a time entry.
func (r *Registry) AwaitingTime(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	return ok && s.stage == StageCollectingTime
}

// SubmitTime validates the typed time and, on success, consumes the session
// and returns the completed schedule. On ErrInvalidTimeFormat the session
// stays in the time stage so the user can retry.
func (r *Registry) SubmitTime(chatID int64, text string) (schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	if !ok {
		return schedule.Schedule{}, ErrNoSession
	}
	if s.stage != StageCollectingTime {
		return schedule.Schedule{}, ErrWrongStage
	}
	at, err := schedule.ParseTimeOfDay(text)
	if err != nil {
		return schedule.Schedule{}, err
	}
	delete(r.sessions, chatID)
	return schedule.Schedule{ChatID: chatID, Days: s.days, At: at}, nil
}

// Cancel drops any session for chatID. Idempotent.
func (r *Registry) Cancel(chatID int64) {
	r.mu.Lock()
	delete(r.sessions, chatID)
	r.mu.Unlock()
}
