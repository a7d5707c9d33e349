package schedule

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "9:05", want: TimeOfDay{Hour: 9, Minute: 5}},
		{in: "09:05", want: TimeOfDay{Hour: 9, Minute: 5}},
		{in: "23:59", want: TimeOfDay{Hour: 23, Minute: 59}},
		{in: "0:00", want: TimeOfDay{}},
		{in: "24:00", wantErr: true},
		{in: "9:60", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "9:5", wantErr: true},
		{in: "", wantErr: true},
		{in: "12:30:00", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimeOfDay(%q): expected error, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWeekdaysMaskRoundTrip(t *testing.T) {
	t.Parallel()
	w := Weekdays{true, false, true, false, true, false, false}
	mask := w.Mask()
	if mask != "1010100" {
		t.Fatalf("Mask() = %q, want 1010100", mask)
	}
	back, err := ParseMask(mask)
	if err != nil {
		t.Fatalf("ParseMask error: %v", err)
	}
	if back != w {
		t.Fatalf("round trip mismatch: %v != %v", back, w)
	}

	if _, err := ParseMask("101010"); err == nil {
		t.Fatal("expected error for short mask")
	}
	if _, err := ParseMask("10201xx"); err == nil {
		t.Fatal("expected error for bad characters")
	}
}

func TestCronSpec(t *testing.T) {
	t.Parallel()
	s := Schedule{
		Days: Weekdays{true, false, true, false, true, false, false}, // Mon, Wed, Fri
		At:   TimeOfDay{Hour: 8, Minute: 30},
	}
	if got := s.CronSpec(); got != "30 8 * * 1,3,5" {
		t.Fatalf("CronSpec() = %q", got)
	}

	sun := Schedule{Days: Weekdays{6: true}, At: TimeOfDay{Hour: 22, Minute: 50}}
	if got := sun.CronSpec(); got != "50 22 * * 0" {
		t.Fatalf("CronSpec() = %q, want Sunday as 0", got)
	}

	if got := (Schedule{}).CronSpec(); got != "" {
		t.Fatalf("empty selection should yield empty spec, got %q", got)
	}
}

func TestNextFiresOnlyOnFlaggedDays(t *testing.T) {
	t.Parallel()
	s := Schedule{
		Days: Weekdays{true, false, true, false, true, false, false},
		At:   TimeOfDay{Hour: 8, Minute: 30},
	}

	// Thursday 2024-01-04 10:00 local.
	from := time.Date(2024, 1, 4, 10, 0, 0, 0, time.Local)
	fires := s.NextFires(from, 6)
	if len(fires) != 6 {
		t.Fatalf("expected 6 projected fires, got %d", len(fires))
	}
	for _, f := range fires {
		if !s.Matches(f) {
			t.Fatalf("fire %v does not match schedule", f)
		}
		if !f.After(from) {
			t.Fatalf("fire %v is not in the future of %v", f, from)
		}
	}
	// First upcoming fire after Thursday is Friday 08:30.
	if fires[0].Weekday() != time.Friday {
		t.Fatalf("first fire on %v, want Friday", fires[0].Weekday())
	}
	if fires[0].Hour() != 8 || fires[0].Minute() != 30 {
		t.Fatalf("first fire at %02d:%02d, want 08:30", fires[0].Hour(), fires[0].Minute())
	}
	// Consecutive fires stay strictly increasing.
	for i := 1; i < len(fires); i++ {
		if !fires[i].After(fires[i-1]) {
			t.Fatalf("fires not strictly increasing at %d: %v then %v", i, fires[i-1], fires[i])
		}
	}
}

func TestNextFiresDormant(t *testing.T) {
	t.Parallel()
	s := Schedule{At: TimeOfDay{Hour: 9}}
	if fires := s.NextFires(time.Now(), 5); fires != nil {
		t.Fatalf("dormant schedule projected fires: %v", fires)
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()
	s := Schedule{
		Days: Weekdays{true, false, false, false, false, false, false}, // Monday only
		At:   TimeOfDay{Hour: 8, Minute: 30},
	}
	mon := time.Date(2024, 1, 1, 8, 30, 0, 0, time.Local) // a Monday
	if !s.Matches(mon) {
		t.Fatalf("expected match on %v", mon)
	}
	tue := mon.Add(24 * time.Hour)
	if s.Matches(tue) {
		t.Fatalf("unexpected match on %v", tue)
	}
	if s.Matches(mon.Add(time.Minute)) {
		t.Fatal("unexpected match one minute later")
	}
}

func TestGreetingFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		hour int
		want string
	}{
		{0, GreetingNight},
		{3, GreetingNight},
		{4, GreetingMorning},
		{11, GreetingMorning},
		{12, GreetingAfternoon},
		{16, GreetingAfternoon},
		{17, GreetingEvening},
		{22, GreetingEvening},
		{23, GreetingNight},
	}
	for _, tt := range tests {
		if got := GreetingFor(tt.hour); got != tt.want {
			t.Errorf("GreetingFor(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	s := Schedule{
		Days: Weekdays{true, false, true, false, false, false, false},
		At:   TimeOfDay{Hour: 8, Minute: 5},
	}
	if got := s.Describe(); got != "Monday, Wednesday at 08:05" {
		t.Fatalf("Describe() = %q", got)
	}
	if got := (Schedule{}).Describe(); got != "no days selected" {
		t.Fatalf("Describe() on empty = %q", got)
	}
}
