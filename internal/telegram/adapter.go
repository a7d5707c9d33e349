// Package telegram is the chat transport: a telebot.v4 adapter plus the
// command/callback router that drives schedule setup.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"
)

// Adapter wraps the telebot instance. It implements notifier.Sender for
// scheduled deliveries and exposes the bot to the Router for interactive
// replies.
type Adapter struct {
	bot *tele.Bot
	log zerolog.Logger
}

// Config for the adapter.
type Config struct {
	Token       string
	PollTimeout time.Duration
}

func NewAdapter(cfg Config, log zerolog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{bot: b, log: log}, nil
}

// Bot exposes the underlying telebot instance for handler registration.
func (a *Adapter) Bot() *tele.Bot { return a.bot }

// Start begins long polling. It blocks until Stop is called.
func (a *Adapter) Start() {
	a.log.Info().Msg("telegram polling started")
	a.bot.Start()
}

// Stop halts the poller.
func (a *Adapter) Stop() {
	a.bot.Stop()
	a.log.Info().Msg("telegram polling stopped")
}

// Send delivers HTML-formatted text to a chat. telebot has no context
// plumbing, so cancellation is checked up front and the request itself is
// bounded by the bot client's own timeout.
func (a *Adapter) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Send(tele.ChatID(chatID), text, tele.ModeHTML)
	return err
}
