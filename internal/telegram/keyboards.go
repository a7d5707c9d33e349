package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/RedBullDogE/compliment-bot/internal/schedule"
)

// Callback data layout: "day:<index>" toggles one weekday, "day:next"
// advances to time input.
const (
	cbPrefix = "day"
	cbNext   = "next"
)

func dayToggleData(idx int) string { return fmt.Sprintf("%s:%d", cbPrefix, idx) }

// parseCallback splits callback data into (action, ok). Telebot prefixes
// callback data with "\f"; strip it before matching.
func parseCallback(data string) (string, bool) {
	data = strings.TrimPrefix(strings.TrimSpace(data), "\f")
	rest, ok := strings.CutPrefix(data, cbPrefix+":")
	if !ok {
		return "", false
	}
	return rest, true
}

// dayKeyboard renders the seven toggle buttons plus Next, one per row,
// reflecting the current selection.
func dayKeyboard(days schedule.Weekdays) *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, 8)
	for i, on := range days {
		mark := markOff
		if on {
			mark = markOn
		}
		btn := tele.Btn{Text: dayLabels[i] + " " + mark, Data: dayToggleData(i)}
		rows = append(rows, rm.Row(btn))
	}
	rows = append(rows, rm.Row(tele.Btn{Text: btnNext, Data: cbPrefix + ":" + cbNext}))
	rm.Inline(rows...)
	return rm
}

// menuKeyboard is the persistent reply keyboard shown on /start.
func menuKeyboard() *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{ResizeKeyboard: true}
	rm.Reply(
		rm.Row(tele.Btn{Text: btnSetup}, tele.Btn{Text: btnList}),
		rm.Row(tele.Btn{Text: btnStop}, tele.Btn{Text: btnHelp}),
		rm.Row(tele.Btn{Text: btnContacts}),
	)
	return rm
}

// dayIndexFromAction parses a toggle action into a weekday index.
func dayIndexFromAction(action string) (int, bool) {
	idx, err := strconv.Atoi(action)
	if err != nil || idx < 0 || idx > 6 {
		return 0, false
	}
	return idx, true
}
