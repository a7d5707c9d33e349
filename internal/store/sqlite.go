package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/RedBullDogE/compliment-bot/internal/schedule"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means driver default
}

type sqliteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the SQLite database at cfg.Path, applies pragmas
// and migrations, and returns the store.
func Open(cfg Config, log zerolog.Logger) (Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Get(ctx context.Context, chatID int64) (*schedule.Schedule, error) {
	var (
		mask string
		at   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT days, time FROM schedules WHERE chat_id = ?`, chatID,
	).Scan(&mask, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get chat %d: %v", ErrStorage, chatID, err)
	}
	sched, err := rowToSchedule(chatID, mask, at)
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

func (s *sqliteStore) GetAll(ctx context.Context) ([]schedule.Schedule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, days, time FROM schedules ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: get all: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []schedule.Schedule
	for rows.Next() {
		var (
			chatID int64
			mask   string
			at     string
		)
		if err := rows.Scan(&chatID, &mask, &at); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStorage, err)
		}
		sched, err := rowToSchedule(chatID, mask, at)
		if err != nil {
			// A corrupt row should not block re-arming every other chat.
			s.log.Warn().Int64("chat_id", chatID).Err(err).Msg("skipping unreadable schedule row")
			continue
		}
		out = append(out, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: get all: %v", ErrStorage, err)
	}
	return out, nil
}

func (s *sqliteStore) Upsert(ctx context.Context, sc schedule.Schedule) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (chat_id, days, time, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			days       = excluded.days,
			time       = excluded.time,
			updated_at = excluded.updated_at`,
		sc.ChatID, sc.Days.Mask(), sc.At.String(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("%w: upsert chat %d: %v", ErrStorage, sc.ChatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: upsert chat %d: %v", ErrStorage, sc.ChatID, err)
	}
	return n > 0, nil
}

func (s *sqliteStore) Delete(ctx context.Context, chatID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE chat_id = ?`, chatID)
	if err != nil {
		return false, fmt.Errorf("%w: delete chat %d: %v", ErrStorage, chatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: delete chat %d: %v", ErrStorage, chatID, err)
	}
	return n > 0, nil
}

func rowToSchedule(chatID int64, mask, at string) (schedule.Schedule, error) {
	days, err := schedule.ParseMask(mask)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("chat %d: %w", chatID, err)
	}
	tod, err := schedule.ParseTimeOfDay(at)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("chat %d: %w", chatID, err)
	}
	return schedule.Schedule{ChatID: chatID, Days: days, At: tod}, nil
}
