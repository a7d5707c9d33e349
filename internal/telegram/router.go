package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"github.com/RedBullDogE/compliment-bot/internal/schedule"
	"github.com/RedBullDogE/compliment-bot/internal/scheduler"
	"github.com/RedBullDogE/compliment-bot/internal/session"
	"github.com/RedBullDogE/compliment-bot/internal/store"
)

// storeTimeout bounds each persistence call made from a handler.
const storeTimeout = 5 * time.Second

// Router wires bot commands and callbacks to the schedule services.
type Router struct {
	adapter  *Adapter
	sessions *session.Registry
	store    store.Store
	core     *scheduler.Core
	log      zerolog.Logger
}

func NewRouter(adapter *Adapter, sessions *session.Registry, st store.Store, core *scheduler.Core, log zerolog.Logger) *Router {
	return &Router{adapter: adapter, sessions: sessions, store: st, core: core, log: log}
}

// Register attaches all handlers to the bot. Call once before polling
// starts.
func (r *Router) Register() {
	b := r.adapter.Bot()

	b.Handle("/start", r.handleStart)
	b.Handle("/setup", r.handleSetup)
	b.Handle("/list", r.handleList)
	b.Handle("/stop", r.handleStop)
	b.Handle("/help", r.handleHelp)
	b.Handle("/contacts", r.handleContacts)

	b.Handle(tele.OnCallback, r.handleCallback)
	b.Handle(tele.OnText, r.handleText)
}

func (r *Router) handleStart(c tele.Context) error {
	return c.Send(msgMenu, menuKeyboard())
}

func (r *Router) handleSetup(c tele.Context) error {
	chatID := c.Chat().ID
	r.sessions.Start(chatID)
	r.log.Debug().Int64("chat_id", chatID).Msg("setup session started")
	return c.Send(msgChooseDays, dayKeyboard(schedule.EveryDay()))
}

func (r *Router) handleList(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	s, err := r.store.Get(ctx, c.Chat().ID)
	if err != nil {
		r.log.Error().Int64("chat_id", c.Chat().ID).Err(err).Msg("list: store get failed")
		return c.Send(msgStorageFailed)
	}
	if s == nil {
		return c.Send(msgEmptyList)
	}
	if s.Days.None() {
		return c.Send(msgNoDays)
	}

	text := formatSchedule(*s)
	if next := s.NextFires(time.Now(), 1); len(next) == 1 {
		text += fmt.Sprintf("\nNext one: %s.", next[0].Format("Monday 15:04, Jan 2"))
	}
	return c.Send(text, tele.ModeHTML)
}

func (r *Router) handleStop(c tele.Context) error {
	chatID := c.Chat().ID
	r.sessions.Cancel(chatID)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	deleted, err := r.store.Delete(ctx, chatID)
	if err != nil {
		r.log.Error().Int64("chat_id", chatID).Err(err).Msg("stop: store delete failed")
		return c.Send(msgStorageFailed)
	}
	disarmed := r.core.Disarm(chatID)
	r.log.Info().Int64("chat_id", chatID).Bool("deleted", deleted).Bool("disarmed", disarmed).Msg("schedule stopped")

	if !deleted && !disarmed {
		return c.Send(msgNothingToStop)
	}
	return c.Send(msgStopped)
}

func (r *Router) handleHelp(c tele.Context) error {
	return c.Send(msgHelp)
}

func (r *Router) handleContacts(c tele.Context) error {
	return c.Send(msgContacts)
}

// handleCallback serves the day-selection keyboard: toggles flip one flag
// and redraw the markup in place; Next moves the session to time input.
func (r *Router) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	action, ok := parseCallback(cb.Data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{})
	}
	chatID := c.Chat().ID

	if action == cbNext {
		days, err := r.sessions.AdvanceToTime(chatID)
		if err != nil {
			// Stale keyboard (e.g. after a restart): ask to start over.
			return c.Respond(&tele.CallbackResponse{Text: "Please run /setup again."})
		}
		r.log.Debug().Int64("chat_id", chatID).Str("days", days.Mask()).Msg("days selected")
		if err := c.Edit(msgChooseTime, tele.ModeHTML); err != nil {
			return err
		}
		return c.Respond(&tele.CallbackResponse{})
	}

	idx, ok := dayIndexFromAction(action)
	if !ok {
		return c.Respond(&tele.CallbackResponse{})
	}
	if _, err := r.sessions.ToggleDay(chatID, idx); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Please run /setup again."})
	}
	days, err := r.sessions.Days(chatID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Please run /setup again."})
	}
	if err := c.Edit(dayKeyboard(days)); err != nil {
		return err
	}
	return c.Respond(&tele.CallbackResponse{})
}

// handleText routes menu button presses and, when a setup session awaits a
// time, treats the message as the time entry.
func (r *Router) handleText(c tele.Context) error {
	chatID := c.Chat().ID

	switch c.Text() {
	case btnSetup:
		return r.handleSetup(c)
	case btnList:
		return r.handleList(c)
	case btnStop:
		return r.handleStop(c)
	case btnHelp:
		return r.handleHelp(c)
	case btnContacts:
		return r.handleContacts(c)
	}

	if r.sessions.AwaitingTime(chatID) {
		return r.handleTimeInput(c)
	}
	// Unrelated chatter: stay quiet rather than spamming usage hints.
	return nil
}

func (r *Router) handleTimeInput(c tele.Context) error {
	chatID := c.Chat().ID

	s, err := r.sessions.SubmitTime(chatID, c.Text())
	if errors.Is(err, schedule.ErrInvalidTimeFormat) {
		// Session stays in the time stage; just re-prompt.
		return c.Send(msgBadTime, tele.ModeHTML)
	}
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	// Persist first: nothing is armed unless the schedule survived a write.
	ok, err := r.store.Upsert(ctx, s)
	if err != nil || !ok {
		r.log.Error().Int64("chat_id", chatID).Err(err).Msg("setup: store upsert failed")
		return c.Send(msgStorageFailed)
	}
	if err := r.core.Arm(s); err != nil {
		r.log.Error().Int64("chat_id", chatID).Err(err).Msg("setup: arm failed")
		return c.Send(msgStorageFailed)
	}
	r.log.Info().Int64("chat_id", chatID).Str("days", s.Days.Mask()).Str("at", s.At.String()).Msg("schedule saved")

	if s.Days.None() {
		return c.Send(msgNoDays)
	}
	return c.Send(formatSchedule(s), tele.ModeHTML)
}

func formatSchedule(s schedule.Schedule) string {
	names := make([]string, 0, 7)
	for i, on := range s.Days {
		if on {
			names = append(names, schedule.DayNames[i])
		}
	}
	return fmt.Sprintf("Well! You'll receive compliments on <b>%s</b> at exactly <b>%s</b> c;",
		joinNames(names), s.At.String())
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}
