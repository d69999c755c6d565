package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	userfields "github.com/goliatone/go-userfields"
	"github.com/goliatone/go-userfields/pkg/editor"
	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/render"
	"github.com/goliatone/go-userfields/pkg/resolve"
	"github.com/goliatone/go-userfields/pkg/sanitize"
	fieldstore "github.com/goliatone/go-userfields/pkg/store"
)

const (
	overrideInput  = "codobuf_calendar_custom_fields"
	overrideEditor = "codobuf-calendar-fields-wrapper"
	modeInput      = "codobuf_fields_mode"
	positionInput  = "codobuf_fields_position"
)

var adminPage = page{
	BodyClass: "codobuf-admin",
	Styles:    []string{editorCSS},
	Scripts:   []script{{Src: editorJS}},
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.GlobalFields(r.Context())
	if err != nil {
		s.serverError(w, r, "load global fields", err)
		return
	}
	markup, err := s.markup.Render(editor.New(list), editor.Target{InputName: s.svc.Config().OptionName})
	if err != nil {
		s.serverError(w, r, "render editor", err)
		return
	}
	token, err := s.nonces.Issue(actionSaveFields)
	if err != nil {
		s.serverError(w, r, "issue nonce", err)
		return
	}

	p := adminPage
	p.Title = "User Fields"
	switch r.URL.Query().Get("updated") {
	case "1":
		p.Notice, p.NoticeKind = "Settings saved.", "success"
	case "0":
		p.Notice, p.NoticeKind = "The field list could not be read; the previous fields were kept.", "warning"
	}
	s.renderPage(w, r, http.StatusOK, p, "templates/settings.tmpl", map[string]any{
		"action":        "/admin/fields",
		"hidden_fields": nonceFields(token),
		"editor":        markup,
	})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed form body.")
		return
	}
	if err := s.nonces.Verify(r.PostForm.Get(nonceField), actionSaveFields); err != nil {
		s.forbidden(w, r, err)
		return
	}

	list, ok, err := s.svc.SaveGlobal(r.Context(), r.PostForm.Get(s.svc.Config().OptionName))
	if err != nil {
		s.serverError(w, r, "save global fields", err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "saved": ok, "fields": list})
		return
	}
	http.Redirect(w, r, "/admin/fields?updated="+boolFlag(ok), http.StatusSeeOther)
}

type calendarRow struct {
	Title     string `json:"title"`
	FieldsURL string `json:"fields_url"`
	PageURL   string `json:"page_url"`
}

func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := s.bookings.Calendars(r.Context())
	if err != nil {
		s.serverError(w, r, "list calendars", err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, calendars)
		return
	}
	rows := make([]calendarRow, 0, len(calendars))
	for _, c := range calendars {
		id := strconv.FormatInt(c.ID, 10)
		rows = append(rows, calendarRow{
			Title:     c.Title,
			FieldsURL: "/admin/calendars/" + id + "/fields",
			PageURL:   "/calendars/" + id,
		})
	}
	token, err := s.nonces.Issue(actionCreateCalendar)
	if err != nil {
		s.serverError(w, r, "issue nonce", err)
		return
	}
	p := adminPage
	p.Title = "Calendars"
	s.renderPage(w, r, http.StatusOK, p, "templates/calendars.tmpl", map[string]any{
		"calendars":     rows,
		"action":        "/admin/calendars",
		"hidden_fields": nonceFields(token),
	})
}

func (s *Server) handleCreateCalendar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed form body.")
		return
	}
	if err := s.nonces.Verify(r.PostForm.Get(nonceField), actionCreateCalendar); err != nil {
		s.forbidden(w, r, err)
		return
	}
	title := sanitize.Text(r.PostForm.Get("title"))
	if title == "" {
		title = "Calendar"
	}
	c, err := s.bookings.CreateCalendar(r.Context(), title)
	if err != nil {
		s.serverError(w, r, "create calendar", err)
		return
	}
	s.logger.Info("calendar created", zap.Int64("calendar_id", c.ID))
	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, c)
		return
	}
	http.Redirect(w, r, "/admin/calendars", http.StatusSeeOther)
}

type choiceView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	calendar, ok := s.loadCalendar(w, r)
	if !ok {
		return
	}
	form, err := s.svc.OverrideForm(r.Context(), calendar.ID)
	if err != nil {
		s.serverError(w, r, "load override", err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, form)
		return
	}

	markup, err := s.markup.Render(editor.New(sanitize.Parse(form.CustomFields)), editor.Target{
		WrapperID: overrideEditor,
		InputID:   overrideInput,
	})
	if err != nil {
		s.serverError(w, r, "render editor", err)
		return
	}
	token, err := s.nonces.Issue(actionSaveOverride(calendar.ID))
	if err != nil {
		s.serverError(w, r, "issue nonce", err)
		return
	}

	modes := []choiceView{
		{Value: string(model.ModeGlobal), Label: "Use Global User Fields (from plugin settings)"},
		{Value: string(model.ModeNone), Label: "No User Fields"},
		{Value: string(model.ModeCustom), Label: "Custom for this calendar"},
	}
	for i := range modes {
		modes[i].Selected = modes[i].Value == string(form.Mode)
	}
	positions := []choiceView{
		{Value: string(model.PositionBefore), Label: "Before the Calendar"},
		{Value: string(model.PositionAfter), Label: "After the Calendar"},
	}
	for i := range positions {
		positions[i].Selected = positions[i].Value == string(form.Position)
	}

	p := adminPage
	p.Title = "User Fields (Calendar)"
	if r.URL.Query().Get("updated") == "1" {
		p.Notice, p.NoticeKind = "Calendar updated.", "success"
	}
	s.renderPage(w, r, http.StatusOK, p, "templates/override.tmpl", map[string]any{
		"calendar_title": calendar.Title,
		"action":         fmt.Sprintf("/admin/calendars/%d/fields", calendar.ID),
		"hidden_fields":  nonceFields(token),
		"modes":          modes,
		"positions":      positions,
		"editor":         markup,
	})
}

func (s *Server) handleSaveOverride(w http.ResponseWriter, r *http.Request) {
	calendar, ok := s.loadCalendar(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed form body.")
		return
	}
	if err := s.nonces.Verify(r.PostForm.Get(nonceField), actionSaveOverride(calendar.ID)); err != nil {
		s.forbidden(w, r, err)
		return
	}

	record, err := s.svc.SaveOverride(r.Context(), calendar.ID, resolve.OverrideInput{
		Mode:         r.PostForm.Get(modeInput),
		Position:     r.PostForm.Get(positionInput),
		CustomFields: r.PostForm.Get(overrideInput),
	})
	if err != nil {
		s.serverError(w, r, "save override", err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, record)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/admin/calendars/%d/fields?updated=1", calendar.ID), http.StatusSeeOther)
}

type bookingView struct {
	BookingID  int64                      `json:"booking_id"`
	CalendarID int64                      `json:"calendar_id"`
	UserFields []userfields.SubmissionRow `json:"user_fields"`
}

func (s *Server) handleBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	booking, err := s.bookings.Booking(r.Context(), id)
	if errors.Is(err, fieldstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Booking %d not found.", id))
		return
	}
	if err != nil {
		s.serverError(w, r, "load booking", err)
		return
	}
	rows, _, err := s.svc.Submission(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "load submission", err)
		return
	}

	if rows == nil {
		rows = []userfields.SubmissionRow{}
	}
	view := bookingView{BookingID: booking.ID, CalendarID: booking.CalendarID, UserFields: rows}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}

	calendarID := ""
	if booking.CalendarID > 0 {
		calendarID = strconv.FormatInt(booking.CalendarID, 10)
	}
	p := adminPage
	p.Title = "User Fields Data"
	p.Styles, p.Scripts = nil, nil
	s.renderPage(w, r, http.StatusOK, p, "templates/booking.tmpl", map[string]any{
		"booking_id":  strconv.FormatInt(booking.ID, 10),
		"calendar_id": calendarID,
		"rows":        view.UserFields,
	})
}

// nonceFields carries the admin nonce as the form's hidden inputs.
func nonceFields(token string) []render.HiddenField {
	return []render.HiddenField{render.NonceField(nonceField, token)}
}

func boolFlag(ok bool) string {
	if ok {
		return "1"
	}
	return "0"
}
