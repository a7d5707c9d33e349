// Package notifier is the async delivery pipeline for scheduled compliments:
// a bounded queue drained by workers through a token-bucket rate limit, with
// bounded retry. A failed delivery is logged and dropped; it never bubbles
// back into the scheduler.
package notifier

import (
	"context"
	"errors"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	ErrQueueFull = errors.New("notifier queue full")
	ErrStopped   = errors.New("notifier stopped")
)

// Sender delivers text to a chat. The telegram adapter implements it.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Config controls the pipeline. Zero values take defaults.
type Config struct {
	Workers       int           // default 2
	QueueSize     int           // default 256
	RatePerSec    int           // default 3 (Telegram is unhappy above ~30/s globally)
	RetryMax      int           // attempts beyond the first; default 2
	RetryBase     time.Duration // default 500ms
	RetryMaxDelay time.Duration // default 10s
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 3
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	} else if c.RetryMax == 0 {
		c.RetryMax = 2
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
	return c
}

type item struct {
	chatID int64
	text   string
}

// Service is safe for concurrent use.
type Service struct {
	cfg     Config
	log     zerolog.Logger
	sender  Sender
	limiter *rate.Limiter

	mu        sync.Mutex
	queue     chan item
	accepting bool
	runCtx    context.Context
	runCancel context.CancelFunc
	workerWG  sync.WaitGroup
}

func New(cfg Config, sender Sender, log zerolog.Logger) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		cfg:    cfg,
		log:    log,
		sender: sender,
		// Burst equals the per-second rate so short spikes don't stall.
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// Start launches the worker pool. Calling Start on a running service is a
// no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.queue != nil {
		s.mu.Unlock()
		return
	}
	s.queue = make(chan item, s.cfg.QueueSize)
	s.accepting = true
	s.runCtx, s.runCancel = context.WithCancel(ctx)
	queue := s.queue
	runCtx := s.runCtx
	workers := s.cfg.Workers
	s.mu.Unlock()

	for i := 0; i < workers; i++ {
		i := i
		s.workerWG.Add(1)
		go func() {
			defer s.workerWG.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Int("worker", i).Any("panic", r).
						Str("stack", string(debug.Stack())).Msg("panic in notifier worker")
				}
			}()
			s.workerLoop(runCtx, queue)
		}()
	}
	s.log.Info().Int("workers", workers).Int("queue", s.cfg.QueueSize).
		Int("rate_per_sec", s.cfg.RatePerSec).Msg("notifier started")
}

// Stop drains nothing: queued items not yet picked up are abandoned, which is
// acceptable for best-effort notifications. It waits for in-flight sends up
// to ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.queue == nil {
		s.mu.Unlock()
		return
	}
	s.accepting = false
	cancel := s.runCancel
	s.queue = nil
	s.runCancel = nil
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.workerWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info().Msg("notifier stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("notifier stop timed out")
	}
}

// Deliver enqueues one message. It fails fast when the queue is full or the
// service is stopped; it never blocks the caller on network I/O.
func (s *Service) Deliver(chatID int64, text string) error {
	s.mu.Lock()
	queue := s.queue
	accepting := s.accepting
	s.mu.Unlock()
	if queue == nil || !accepting {
		return ErrStopped
	}
	select {
	case queue <- item{chatID: chatID, text: text}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Service) workerLoop(ctx context.Context, queue chan item) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-queue:
			s.process(ctx, it)
		}
	}
}

func (s *Service) process(ctx context.Context, it item) {
	if err := s.limiter.Wait(ctx); err != nil {
		return // shutting down
	}

	var err error
	for attempt := 0; attempt <= s.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			if !sleepCtx(ctx, s.backoff(attempt)) {
				return
			}
		}
		err = s.sender.Send(ctx, it.chatID, it.text)
		if err == nil {
			s.log.Debug().Int64("chat_id", it.chatID).Int("attempt", attempt+1).Msg("delivered")
			return
		}
	}
	s.log.Warn().Int64("chat_id", it.chatID).Err(err).
		Int("attempts", s.cfg.RetryMax+1).Msg("delivery failed; dropping")
}

// backoff is exponential with 20% jitter, capped at RetryMaxDelay.
func (s *Service) backoff(attempt int) time.Duration {
	d := s.cfg.RetryBase << (attempt - 1)
	if d > s.cfg.RetryMaxDelay {
		d = s.cfg.RetryMaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	return d + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
