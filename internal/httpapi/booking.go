package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-userfields/internal/store"
	"github.com/goliatone/go-userfields/pkg/host"
	"github.com/goliatone/go-userfields/pkg/render"
	fieldstore "github.com/goliatone/go-userfields/pkg/store"
)

const maxBookingBody = 1 << 20

func (s *Server) loadCalendar(w http.ResponseWriter, r *http.Request) (*store.Calendar, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	calendar, err := s.bookings.Calendar(r.Context(), id)
	if errors.Is(err, fieldstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Calendar %d not found.", id))
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, "load calendar", err)
		return nil, false
	}
	return calendar, true
}

// handleCalendarPage renders the booking widget with the user fields
// injected before or after it.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	calendar, ok := s.loadCalendar(w, r)
	if !ok {
		return
	}
	s.renderCalendar(w, r, http.StatusOK, calendar, render.RenderOptions{}, "")
}

// renderCalendar writes the calendar page. opts refills the fields after a
// rejected submission and notice is shown above the form.
func (s *Server) renderCalendar(w http.ResponseWriter, r *http.Request, status int, calendar *store.Calendar, opts render.RenderOptions, notice string) {
	list, err := s.svc.FieldsFor(r.Context(), calendar.ID)
	if err != nil {
		s.serverError(w, r, "load calendar fields", err)
		return
	}

	var out strings.Builder
	err = s.hooks.RenderCalendar(r.Context(), calendar.ID, &out, opts, func(widget io.Writer) error {
		_, err := s.pages.RenderTemplate("templates/widget.tmpl", map[string]any{
			"calendar_id": strconv.FormatInt(calendar.ID, 10),
			"title":       calendar.Title,
		}, widget)
		return err
	})
	if err != nil {
		s.serverError(w, r, "render calendar", err)
		return
	}

	p := page{Title: calendar.Title, BodyClass: "codo-calendar"}
	if notice != "" {
		p.Notice, p.NoticeKind = notice, "error"
	}
	styles, scripts := s.svc.HTMLRenderer().Assets(list)
	for _, href := range styles {
		p.Styles = append(p.Styles, assetURL(href))
	}
	for _, sc := range scripts {
		if sc.Src == "" {
			continue
		}
		p.Scripts = append(p.Scripts, script{Src: assetURL(sc.Src), Defer: sc.Defer})
	}

	s.renderPage(w, r, status, p, "templates/calendar.tmpl", map[string]any{
		"action": fmt.Sprintf("/calendars/%d/bookings", calendar.ID),
		"page":   out.String(),
	})
}

// rejectForm shows the calendar page again with the posted values and the
// blocking error attached to its field.
func (s *Server) rejectForm(w http.ResponseWriter, r *http.Request, calendar *store.Calendar, data host.BookingData, err *render.RequiredFieldError) {
	list, lerr := s.svc.FieldsFor(r.Context(), calendar.ID)
	if lerr != nil {
		s.serverError(w, r, "load calendar fields", lerr)
		return
	}
	mapping := render.MapErrorPayload(list, render.RequiredErrorPayload(err))
	notice := strings.Join(render.MergeFormErrors(mapping.Form, err.Message), " ")
	s.renderCalendar(w, r, http.StatusUnprocessableEntity, calendar, render.RenderOptions{
		Values: render.ParseSubmission(list, data.InputSources()...),
		Errors: mapping.Fields,
	}, notice)
}

type bookingCreated struct {
	Status         string         `json:"status"`
	BookingID      int64          `json:"booking_id"`
	UserFieldsData map[string]any `json:"user_fields_data,omitempty"`
}

// handleCreateBooking accepts a JSON booking payload or a posted form. JSON
// payload keys win over the query string; for forms the posted body wins over
// the query string. A form missing a required field gets the calendar page
// back with its values and the error filled in.
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	calendar, ok := s.loadCalendar(w, r)
	if !ok {
		return
	}

	data := host.BookingData{CalendarID: calendar.ID}
	var payload map[string]any
	form := !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	if form {
		r.Body = http.MaxBytesReader(w, r.Body, maxBookingBody)
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "Malformed form body.")
			return
		}
		payload = flattenForm(r.PostForm)
		data.Sources = []render.Source{render.ValuesSource(r.PostForm), render.ValuesSource(r.Form)}
	} else {
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBookingBody))
		if err := dec.Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "Booking payload must be a JSON object.")
			return
		}
		data.Values = payload
		data.Sources = []render.Source{render.ValuesSource(r.URL.Query())}
	}

	id, created, err := s.hooks.CreateBooking(r.Context(), data, func(ctx context.Context, d host.BookingData) (int64, error) {
		return s.bookings.InsertBooking(ctx, d.CalendarID, payload)
	})
	var required *render.RequiredFieldError
	switch {
	case errors.As(err, &required) && form && !wantsJSON(r):
		s.rejectForm(w, r, calendar, data, required)
		return
	case errors.As(err, &required):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Status: "error", Message: required.Message})
		return
	case err != nil && id > 0:
		// The booking exists; only a post-create subscriber failed.
		s.logger.Error("post-create hook failed", zap.Int64("booking_id", id), zap.Error(err))
	case err != nil:
		s.serverError(w, r, "create booking", err)
		return
	}

	writeJSON(w, http.StatusCreated, bookingCreated{
		Status:         "ok",
		BookingID:      id,
		UserFieldsData: created.UserFieldsData,
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	calendar, ok := s.loadCalendar(w, r)
	if !ok {
		return
	}
	doc, err := s.svc.SchemaDocument(r.Context(), calendar.ID, fmt.Sprintf("/calendars/%d/bookings", calendar.ID))
	if err != nil {
		s.serverError(w, r, "build schema", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func flattenForm(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			out[key] = vals[0]
			continue
		}
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = v
		}
		out[key] = list
	}
	return out
}
