// Package host models the booking engine's extension points: the two render
// injection points around the calendar widget, the pre-insert filter and the
// post-creation action. Subscribers register on a Hooks value that the host
// fires at the matching moments.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-userfields/pkg/hooks"
	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/render"
)

// RenderEvent is fired before and after the calendar widget. Subscribers
// write their markup to Out. Options carries values and errors from a
// rejected submission when the page is shown again.
type RenderEvent struct {
	EntityID int64
	Out      io.Writer
	Options  render.RenderOptions
}

// BookingData is the record a booking is created from. Values holds the
// booking payload; Sources are further request inputs (posted form, query)
// consulted in order when a key is absent from Values.
type BookingData struct {
	CalendarID     int64
	Values         map[string]any
	Sources        []render.Source
	UserFieldsData model.Submission
}

// Lookup implements render.Source over Values.
func (d BookingData) Lookup(key string) (any, bool) {
	return render.MapSource(d.Values).Lookup(key)
}

// InputSources returns the booking payload followed by the request sources.
func (d BookingData) InputSources() []render.Source {
	out := make([]render.Source, 0, len(d.Sources)+1)
	out = append(out, d)
	return append(out, d.Sources...)
}

// BookingCreated is fired once the booking has been persisted.
type BookingCreated struct {
	BookingID int64
	Data      BookingData
}

// Hooks groups the extension points. The zero value is ready to use.
type Hooks struct {
	BeforeCalendar      hooks.Actions[RenderEvent]
	AfterCalendar       hooks.Actions[RenderEvent]
	BeforeBookingInsert hooks.Filters[BookingData]
	AfterBookingCreated hooks.Actions[BookingCreated]
}

// New returns an empty set of hooks.
func New() *Hooks {
	return &Hooks{}
}

// RenderCalendar fires BeforeCalendar, writes the widget and fires
// AfterCalendar, all to out.
func (h *Hooks) RenderCalendar(ctx context.Context, entityID int64, out io.Writer, opts render.RenderOptions, widget func(io.Writer) error) error {
	event := RenderEvent{EntityID: entityID, Out: out, Options: opts}
	if err := h.BeforeCalendar.Do(ctx, event); err != nil {
		return fmt.Errorf("host: before calendar: %w", err)
	}
	if widget != nil {
		if err := widget(out); err != nil {
			return fmt.Errorf("host: render calendar: %w", err)
		}
	}
	if err := h.AfterCalendar.Do(ctx, event); err != nil {
		return fmt.Errorf("host: after calendar: %w", err)
	}
	return nil
}

// Inserter persists a booking and returns its id.
type Inserter func(ctx context.Context, data BookingData) (int64, error)

// ErrNoInserter is returned by CreateBooking without an Inserter.
var ErrNoInserter = errors.New("host: booking inserter is required")

// CreateBooking runs the pre-insert filter, persists the result and fires
// AfterBookingCreated. A filter error blocks the booking and is returned
// unwrapped so callers can inspect it (for example *render.RequiredFieldError).
func (h *Hooks) CreateBooking(ctx context.Context, data BookingData, insert Inserter) (int64, BookingData, error) {
	if insert == nil {
		return 0, data, ErrNoInserter
	}
	filtered, err := h.BeforeBookingInsert.Apply(ctx, data)
	if err != nil {
		return 0, data, err
	}

	id, err := insert(ctx, filtered)
	if err != nil {
		return 0, filtered, fmt.Errorf("host: insert booking: %w", err)
	}

	if err := h.AfterBookingCreated.Do(ctx, BookingCreated{BookingID: id, Data: filtered}); err != nil {
		return id, filtered, fmt.Errorf("host: after booking created: %w", err)
	}
	return id, filtered, nil
}
