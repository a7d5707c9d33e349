// Package app wires the services together: store, content provider,
// scheduler, notifier and the telegram transport.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"github.com/RedBullDogE/compliment-bot/internal/config"
	"github.com/RedBullDogE/compliment-bot/internal/content"
	"github.com/RedBullDogE/compliment-bot/internal/notifier"
	"github.com/RedBullDogE/compliment-bot/internal/schedule"
	"github.com/RedBullDogE/compliment-bot/internal/scheduler"
	"github.com/RedBullDogE/compliment-bot/internal/session"
	"github.com/RedBullDogE/compliment-bot/internal/store"
	"github.com/RedBullDogE/compliment-bot/internal/telegram"
	"github.com/RedBullDogE/compliment-bot/pkg/logx"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg *config.Config
	log zerolog.Logger

	store    store.Store
	provider *content.Provider
	core     *scheduler.Core
	notif    *notifier.Service
	adapter  *telegram.Adapter
	sessions *session.Registry

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	st, err := store.Open(store.Config{
		Path:        cfg.StoragePath(),
		BusyTimeout: cfg.BusyTimeout(),
	}, log.With().Str("component", "store").Logger())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	adapter, err := telegram.NewAdapter(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.PollTimeout(),
	}, log.With().Str("component", "telegram").Logger())
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("telegram: %w", err)
	}

	a := &App{
		cfg:   cfg,
		log:   log,
		store: st,
		provider: content.New(content.Config{
			URL:          cfg.ContentURL(),
			FetchTimeout: cfg.FetchTimeout(),
			CacheTTL:     cfg.CacheTTL(),
		}, log.With().Str("component", "content").Logger()),
		adapter:  adapter,
		sessions: session.NewRegistry(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	a.notif = notifier.New(notifier.Config{
		Workers:       cfg.Notifier.Workers,
		QueueSize:     cfg.Notifier.QueueSize,
		RatePerSec:    cfg.Notifier.RatePerSec,
		RetryMax:      cfg.Notifier.RetryMax,
		RetryBase:     cfg.RetryBase(),
		RetryMaxDelay: cfg.RetryMaxDelay(),
	}, adapter, log.With().Str("component", "notifier").Logger())

	a.core = scheduler.New(
		log.With().Str("component", "scheduler").Logger(),
		a.fire,
		scheduler.WithFireTimeout(cfg.FireTimeout()),
	)

	return a, nil
}

// Run starts everything and blocks until ctx is canceled. Persisted
// schedules are re-armed before update polling begins, so a restart never
// loses a committed schedule and never processes a user event against an
// un-armed state.
func (a *App) Run(ctx context.Context, cfgPath string) error {
	if err := a.rearmAll(ctx); err != nil {
		return err
	}

	a.notif.Start(ctx)
	a.core.Start(ctx)

	telegram.NewRouter(a.adapter, a.sessions, a.store, a.core,
		a.log.With().Str("component", "router").Logger()).Register()

	// Config hot reload: only the log level is applied at runtime; everything
	// else needs a restart.
	go func() {
		if err := config.Watch(ctx, cfgPath, a.log.With().Str("component", "config").Logger(), func(fresh *config.Config) {
			logx.SetLevel(fresh.Log.Level)
		}); err != nil {
			a.log.Warn().Err(err).Msg("config watcher unavailable")
		}
	}()

	go a.adapter.Start()
	a.log.Info().Msg("bot is up")

	// No-op outside a systemd unit with Type=notify.
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.shutdown()
	return nil
}

func (a *App) rearmAll(ctx context.Context) error {
	scheds, err := a.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("boot reload: %w", err)
	}
	for _, s := range scheds {
		if err := a.core.Arm(s); err != nil {
			// One bad record must not keep every other chat dark.
			a.log.Error().Int64("chat_id", s.ChatID).Err(err).Msg("boot re-arm failed")
		}
	}
	a.log.Info().Int("schedules", len(scheds)).Msg("persisted schedules re-armed")
	return nil
}

func (a *App) shutdown() {
	a.log.Info().Msg("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.adapter.Stop()
	a.core.Stop(shCtx)
	a.notif.Stop(shCtx)
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("store close failed")
	}
}

// fire is the scheduler callback: compose a compliment and hand it to the
// delivery pipeline. Any error here skips this instant only.
func (a *App) fire(ctx context.Context, chatID int64) error {
	cat, err := a.provider.Fetch(ctx)
	if err != nil {
		return err
	}
	a.rngMu.Lock()
	topic, compliment := content.Pick(cat, a.rng)
	a.rngMu.Unlock()

	greeting := schedule.GreetingFor(time.Now().Hour())
	text := fmt.Sprintf("%s!\n\n<b>%s</b>\n%s", greeting, topic, compliment)
	return a.notif.Deliver(chatID, text)
}
