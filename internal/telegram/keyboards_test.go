package telegram

import (
	"testing"

	"github.com/RedBullDogE/compliment-bot/internal/schedule"
)

func TestParseCallback(t *testing.T) {
	t.Parallel()
	tests := []struct {
		data   string
		action string
		ok     bool
	}{
		{"day:0", "0", true},
		{"day:6", "6", true},
		{"day:next", "next", true},
		{"\fday:3", "3", true}, // telebot-prefixed
		{"other:1", "", false},
		{"day", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		action, ok := parseCallback(tt.data)
		if ok != tt.ok || action != tt.action {
			t.Errorf("parseCallback(%q) = (%q, %v), want (%q, %v)", tt.data, action, ok, tt.action, tt.ok)
		}
	}
}

func TestDayIndexFromAction(t *testing.T) {
	t.Parallel()
	if idx, ok := dayIndexFromAction("4"); !ok || idx != 4 {
		t.Fatalf("dayIndexFromAction(4) = (%d, %v)", idx, ok)
	}
	for _, bad := range []string{"7", "-1", "next", "x"} {
		if _, ok := dayIndexFromAction(bad); ok {
			t.Errorf("dayIndexFromAction(%q) accepted", bad)
		}
	}
}

func TestDayKeyboardReflectsSelection(t *testing.T) {
	t.Parallel()
	days := schedule.Weekdays{true, false, true, false, true, false, false}
	rm := dayKeyboard(days)

	rows := rm.InlineKeyboard
	if len(rows) != 8 {
		t.Fatalf("got %d rows, want 7 days + next", len(rows))
	}
	for i := 0; i < 7; i++ {
		if len(rows[i]) != 1 {
			t.Fatalf("row %d has %d buttons", i, len(rows[i]))
		}
		btn := rows[i][0]
		wantMark := markOff
		if days[i] {
			wantMark = markOn
		}
		if want := dayLabels[i] + " " + wantMark; btn.Text != want {
			t.Errorf("row %d text = %q, want %q", i, btn.Text, want)
		}
		if want := dayToggleData(i); btn.Data != want {
			t.Errorf("row %d data = %q, want %q", i, btn.Data, want)
		}
	}
	if rows[7][0].Text != btnNext {
		t.Errorf("last row text = %q, want %q", rows[7][0].Text, btnNext)
	}
}

func TestFormatSchedule(t *testing.T) {
	t.Parallel()
	s := schedule.Schedule{
		Days: schedule.Weekdays{true, false, true, false, true, false, false},
		At:   schedule.TimeOfDay{Hour: 8, Minute: 30},
	}
	got := formatSchedule(s)
	want := "Well! You'll receive compliments on <b>Monday, Wednesday, Friday</b> at exactly <b>08:30</b> c;"
	if got != want {
		t.Fatalf("formatSchedule = %q, want %q", got, want)
	}
}
