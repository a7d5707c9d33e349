package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/RedBullDogE/compliment-bot/internal/schedule"
	"github.com/RedBullDogE/compliment-bot/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestUpsertThenGet(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	want := schedule.Schedule{
		ChatID: 42,
		Days:   schedule.Weekdays{true, false, true, false, true, false, false},
		At:     schedule.TimeOfDay{Hour: 8, Minute: 30},
	}
	ok, err := st.Upsert(ctx, want)
	if err != nil || !ok {
		t.Fatalf("Upsert = (%v, %v)", ok, err)
	}

	got, err := st.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || *got != want {
		t.Fatalf("Get = %+v, want %+v", got, want)
	}
}

func TestUpsertReplacesFully(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	first := schedule.Schedule{
		ChatID: 7,
		Days:   schedule.EveryDay(),
		At:     schedule.TimeOfDay{Hour: 9},
	}
	if ok, err := st.Upsert(ctx, first); err != nil || !ok {
		t.Fatalf("first Upsert = (%v, %v)", ok, err)
	}

	second := schedule.Schedule{
		ChatID: 7,
		Days:   schedule.Weekdays{6: true},
		At:     schedule.TimeOfDay{Hour: 22, Minute: 50},
	}
	if ok, err := st.Upsert(ctx, second); err != nil || !ok {
		t.Fatalf("second Upsert = (%v, %v)", ok, err)
	}

	got, err := st.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || *got != second {
		t.Fatalf("Get = %+v, want replaced record %+v", got, second)
	}
}

func TestGetMissing(t *testing.T) {
	st := openTestStore(t)
	got, err := st.Get(context.Background(), 999)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("Get on missing chat = %+v, want nil", got)
	}
}

func TestDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	s := schedule.Schedule{ChatID: 1, Days: schedule.EveryDay(), At: schedule.TimeOfDay{Hour: 10}}
	if ok, err := st.Upsert(ctx, s); err != nil || !ok {
		t.Fatalf("Upsert = (%v, %v)", ok, err)
	}

	ok, err := st.Delete(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("Delete = (%v, %v)", ok, err)
	}
	got, err := st.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("Get after delete = %+v, want nil", got)
	}

	// Deleting again is a no-op, not an error.
	ok, err = st.Delete(ctx, 1)
	if err != nil {
		t.Fatalf("second Delete errored: %v", err)
	}
	if ok {
		t.Fatal("second Delete reported success")
	}
}

func TestGetAll(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	scheds := []schedule.Schedule{
		{ChatID: 10, Days: schedule.EveryDay(), At: schedule.TimeOfDay{Hour: 8}},
		{ChatID: 20, Days: schedule.Weekdays{0: true}, At: schedule.TimeOfDay{Hour: 9, Minute: 15}},
		{ChatID: 30, Days: schedule.Weekdays{}, At: schedule.TimeOfDay{Hour: 12}},
	}
	for _, s := range scheds {
		if ok, err := st.Upsert(ctx, s); err != nil || !ok {
			t.Fatalf("Upsert %d = (%v, %v)", s.ChatID, ok, err)
		}
	}

	all, err := st.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != len(scheds) {
		t.Fatalf("GetAll returned %d records, want %d", len(all), len(scheds))
	}
	for i, s := range scheds {
		if all[i] != s {
			t.Fatalf("GetAll[%d] = %+v, want %+v", i, all[i], s)
		}
	}
}
