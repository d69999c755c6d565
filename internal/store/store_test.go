package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-userfields/internal/database"
	"github.com/goliatone/go-userfields/internal/store"
	fieldstore "github.com/goliatone/go-userfields/pkg/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.New(db)
}

func TestOptionsUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, found, err := s.Option(ctx, "codobookings_user_fields"); err != nil || found {
		t.Fatalf("missing option: found=%v err=%v", found, err)
	}
	for _, v := range []string{`[]`, `[{"label":"Phone"}]`} {
		if err := s.SetOption(ctx, "codobookings_user_fields", v); err != nil {
			t.Fatalf("set option: %v", err)
		}
	}
	got, found, err := s.Option(ctx, "codobookings_user_fields")
	if err != nil || !found || got != `[{"label":"Phone"}]` {
		t.Fatalf("option = %q found=%v err=%v", got, found, err)
	}
}

func TestMetaIsScopedByEntityAndKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mustDo(t, s.SetMeta(ctx, 1, "_a", "one"))
	mustDo(t, s.SetMeta(ctx, 2, "_a", "two"))
	mustDo(t, s.SetMeta(ctx, 1, "_b", "three"))
	mustDo(t, s.SetMeta(ctx, 1, "_a", "four"))

	cases := []struct {
		id    int64
		key   string
		want  string
		found bool
	}{
		{1, "_a", "four", true},
		{2, "_a", "two", true},
		{1, "_b", "three", true},
		{2, "_b", "", false},
	}
	for _, tc := range cases {
		got, found, err := s.Meta(ctx, tc.id, tc.key)
		if err != nil {
			t.Fatalf("meta %d/%s: %v", tc.id, tc.key, err)
		}
		if got != tc.want || found != tc.found {
			t.Errorf("meta %d/%s = %q,%v; want %q,%v", tc.id, tc.key, got, found, tc.want, tc.found)
		}
	}
}

func TestCalendarsAndBookingsShareIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cal, err := s.CreateCalendar(ctx, "Studio")
	if err != nil {
		t.Fatalf("create calendar: %v", err)
	}
	id, err := s.InsertBooking(ctx, cal.ID, map[string]any{"codobuf_phone": "555"})
	if err != nil {
		t.Fatalf("insert booking: %v", err)
	}
	if id == cal.ID {
		t.Fatalf("booking reused calendar id %d", id)
	}

	booking, err := s.Booking(ctx, id)
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	want := &store.Booking{ID: id, CalendarID: cal.ID, Payload: map[string]any{"codobuf_phone": "555"}}
	if diff := cmp.Diff(want, booking, cmpopts.IgnoreFields(store.Booking{}, "CreatedAt")); diff != "" {
		t.Fatalf("booking (-want +got):\n%s", diff)
	}

	if _, err := s.Booking(ctx, cal.ID); !errors.Is(err, fieldstore.ErrNotFound) {
		t.Fatalf("calendar id read as booking: %v", err)
	}
	if _, err := s.Calendar(ctx, id); !errors.Is(err, fieldstore.ErrNotFound) {
		t.Fatalf("booking id read as calendar: %v", err)
	}

	calendars, err := s.Calendars(ctx)
	if err != nil {
		t.Fatalf("calendars: %v", err)
	}
	if len(calendars) != 1 || calendars[0].Title != "Studio" {
		t.Fatalf("calendars = %+v", calendars)
	}
}

func TestInsertBookingRejectsUnknownCalendar(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertBooking(context.Background(), 404, nil); err == nil {
		t.Fatalf("expected foreign key error")
	}
}

func TestBookingWithoutCalendar(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.InsertBooking(ctx, 0, nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	b, err := s.Booking(ctx, id)
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if b.CalendarID != 0 || len(b.Payload) != 0 {
		t.Fatalf("booking = %+v", b)
	}
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
