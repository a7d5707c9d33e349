// Package scheduler owns the armed recurring jobs: at most one per chat id,
// replaced atomically on re-arm, surviving any single delivery failure.
package scheduler

import (
	"context"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/RedBullDogE/compliment-bot/internal/schedule"
)

// FireFunc is invoked at every matching instant for an armed chat. Errors
// are the callee's business: the scheduler logs nothing extra and keeps the
// job armed regardless of the outcome.
type FireFunc func(ctx context.Context, chatID int64) error

// ActiveJob describes one armed job for introspection ("show my schedule").
type ActiveJob struct {
	ChatID   int64
	Schedule schedule.Schedule
	Spec     string
	Next     time.Time // zero for dormant jobs
}

type armedJob struct {
	sched schedule.Schedule
	entry cron.EntryID // 0 when dormant (empty weekday set)
	gen   uint64
}

// Core arms and disarms per-chat recurring jobs on a single cron runner.
//
// All mutation goes through the registry mutex, so "retire old, install new"
// is atomic: a fire instant dispatched for a retired generation notices and
// bails before calling back.
type Core struct {
	log  zerolog.Logger
	fire FireFunc

	fireTimeout time.Duration

	mu      sync.Mutex
	c       *cron.Cron
	jobs    map[int64]*armedJob
	nextGen uint64
	baseCtx context.Context
}

// Option tweaks Core construction.
type Option func(*Core)

// WithFireTimeout bounds each on-fire callback. Default 30s.
func WithFireTimeout(d time.Duration) Option {
	return func(c *Core) {
		if d > 0 {
			c.fireTimeout = d
		}
	}
}

// New builds a Core running in the process's local time zone, matching how
// schedule times are entered and displayed.
func New(log zerolog.Logger, fire FireFunc, opts ...Option) *Core {
	core := &Core{
		log:         log,
		fire:        fire,
		fireTimeout: 30 * time.Second,
		c:           cron.New(cron.WithLocation(time.Local)),
		jobs:        make(map[int64]*armedJob),
		baseCtx:     context.Background(),
	}
	for _, o := range opts {
		o(core)
	}
	return core
}

// Start begins dispatching fire instants. Jobs armed before Start are
// honored, which is how boot-time re-arming runs before update polling.
func (c *Core) Start(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	n := len(c.jobs)
	c.mu.Unlock()
	c.c.Start()
	c.log.Info().Int("armed", n).Msg("scheduler started")
}

// Stop halts dispatch and waits for in-flight fires to finish, up to ctx.
func (c *Core) Stop(ctx context.Context) {
	done := c.c.Stop().Done()
	select {
	case <-done:
		c.log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		c.log.Warn().Msg("scheduler stop timed out; fires continue in background")
	}
}

// Arm installs (or replaces) the recurring job for sched.ChatID. The previous
// job, if any, is retired in the same critical section: once Arm returns, the
// old trigger can never fire again. An empty weekday set arms a dormant job
// that never fires but still shows up in ListActive.
func (c *Core) Arm(sched schedule.Schedule) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.retireLocked(sched.ChatID)

	c.nextGen++
	job := &armedJob{sched: sched, gen: c.nextGen}

	if spec := sched.CronSpec(); spec != "" {
		chatID := sched.ChatID
		gen := job.gen
		entry, err := c.c.AddFunc(spec, func() { c.dispatch(chatID, gen) })
		if err != nil {
			return err
		}
		job.entry = entry
	}
	c.jobs[sched.ChatID] = job

	c.log.Info().
		Int64("chat_id", sched.ChatID).
		Str("days", sched.Days.Mask()).
		Str("at", sched.At.String()).
		Msg("job armed")
	return nil
}

// Disarm retires the job for chatID. It reports whether a job existed;
// disarming an unarmed chat is a no-op.
func (c *Core) Disarm(chatID int64) bool {
	c.mu.Lock()
	ok := c.retireLocked(chatID)
	c.mu.Unlock()
	if ok {
		c.log.Info().Int64("chat_id", chatID).Msg("job disarmed")
	}
	return ok
}

// ListActive returns all armed jobs ordered by chat id.
func (c *Core) ListActive() []ActiveJob {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ActiveJob, 0, len(c.jobs))
	for chatID, job := range c.jobs {
		a := ActiveJob{
			ChatID:   chatID,
			Schedule: job.sched,
			Spec:     job.sched.CronSpec(),
		}
		if job.entry != 0 {
			a.Next = c.c.Entry(job.entry).Next
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

// retireLocked removes chatID's job and its cron entry. Call with c.mu held.
func (c *Core) retireLocked(chatID int64) bool {
	job, ok := c.jobs[chatID]
	if !ok {
		return false
	}
	if job.entry != 0 {
		c.c.Remove(job.entry)
	}
	delete(c.jobs, chatID)
	return true
}

// dispatch runs at a fire instant. It re-checks the generation under the
// lock so a fire raced against Disarm/Arm for the same chat is dropped
// instead of delivering a stale notification.
func (c *Core) dispatch(chatID int64, gen uint64) {
	c.mu.Lock()
	job, ok := c.jobs[chatID]
	base := c.baseCtx
	c.mu.Unlock()
	if !ok || job.gen != gen {
		c.log.Debug().Int64("chat_id", chatID).Msg("stale fire dropped")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error().
				Int64("chat_id", chatID).
				Any("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("panic in fire callback")
		}
	}()

	ctx, cancel := context.WithTimeout(base, c.fireTimeout)
	defer cancel()

	start := time.Now()
	if err := c.fire(ctx, chatID); err != nil {
		// Skip this instant only; the job stays armed for the next one.
		c.log.Warn().
			Int64("chat_id", chatID).
			Err(err).
			Dur("took", time.Since(start)).
			Msg("fire failed; job remains armed")
		return
	}
	c.log.Debug().
		Int64("chat_id", chatID).
		Dur("took", time.Since(start)).
		Msg("fired")
}
