// Package store persists one compliment schedule per chat id.
//
// Every operation is a single scoped statement against SQLite; no connection
// is held across unrelated work. Callers must check the returned bool before
// assuming a write took effect.
package store

import (
	"context"
	"errors"

	"github.com/RedBullDogE/compliment-bot/internal/schedule"
)

// ErrStorage wraps any connectivity or write failure so callers can treat
// persistence problems uniformly ("try again" to the user).
var ErrStorage = errors.New("storage error")

// Store is the schedule persistence API.
type Store interface {
	// Get returns the schedule for chatID, or nil if none is saved.
	Get(ctx context.Context, chatID int64) (*schedule.Schedule, error)

	// GetAll returns every saved schedule; used for boot-time re-arming.
	GetAll(ctx context.Context) ([]schedule.Schedule, error)

	// Upsert inserts the schedule or fully replaces an existing one.
	// It reports whether the write took effect.
	Upsert(ctx context.Context, s schedule.Schedule) (bool, error)

	// Delete removes the schedule for chatID. It reports false (not an
	// error) when nothing was saved.
	Delete(ctx context.Context, chatID int64) (bool, error)

	Close() error
}
