package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	userfields "github.com/goliatone/go-userfields"
	"github.com/goliatone/go-userfields/internal/database"
	"github.com/goliatone/go-userfields/internal/nonce"
	"github.com/goliatone/go-userfields/internal/store"
	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/resolve"
)

type fixture struct {
	server  *Server
	handler http.Handler
	store   *store.Store
	svc     *userfields.Service
	nonces  *nonce.Manager
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.New(db)

	logger := zaptest.NewLogger(t)
	svc, err := userfields.New(st, userfields.Config{Logger: logger})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	nonces, err := nonce.New("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("nonces: %v", err)
	}
	server, err := New(Deps{
		Service:   svc,
		Bookings:  st,
		Nonces:    nonces,
		Logger:    logger,
		AuthToken: token,
	})
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	return &fixture{server: server, handler: server.Handler(), store: st, svc: svc, nonces: nonces}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) issue(t *testing.T, action string) string {
	t.Helper()
	token, err := f.nonces.Issue(action)
	if err != nil {
		t.Fatalf("issue nonce: %v", err)
	}
	return token
}

func (f *fixture) calendar(t *testing.T, title string) int64 {
	t.Helper()
	c, err := f.store.CreateCalendar(context.Background(), title)
	if err != nil {
		t.Fatalf("create calendar: %v", err)
	}
	return c.ID
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestSettingsPageRendersEditor(t *testing.T) {
	f := newFixture(t, "")
	if _, _, err := f.svc.SaveGlobal(context.Background(), `[{"label":"Phone","required":true}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/admin/fields?updated=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		`<strong class="codobuf-field-preview">Phone</strong>`,
		`name="codobookings_user_fields"`,
		`name="_nonce" value="`,
		`<script src="/assets/fields-editor.js"></script>`,
		"Settings saved.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("settings page missing %q", want)
		}
	}
}

func TestSaveSettingsRequiresNonce(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	rec := f.do(t, postForm("/admin/fields", url.Values{
		"_nonce":                   {"forged"},
		"codobookings_user_fields": {`[{"label":"Phone"}]`},
	}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("forged nonce status = %d", rec.Code)
	}
	if _, found, _ := f.store.Option(ctx, resolve.DefaultOptionName); found {
		t.Fatalf("rejected save wrote the option")
	}

	// A nonce issued for another action is rejected as well.
	rec = f.do(t, postForm("/admin/fields", url.Values{
		"_nonce":                   {f.issue(t, actionCreateCalendar)},
		"codobookings_user_fields": {`[{"label":"Phone"}]`},
	}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-action nonce status = %d", rec.Code)
	}

	rec = f.do(t, postForm("/admin/fields", url.Values{
		"_nonce":                   {f.issue(t, actionSaveFields)},
		"codobookings_user_fields": {`[{"label":"Phone","type":"text","required":1}]`},
	}))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/fields?updated=1" {
		t.Fatalf("save status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
	list, err := f.svc.GlobalFields(ctx)
	if err != nil {
		t.Fatalf("global fields: %v", err)
	}
	want := model.List{{Label: "Phone", Name: "phone", Type: model.FieldTypeText, Required: true}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("saved list (-want +got):\n%s", diff)
	}

	rec = f.do(t, postForm("/admin/fields", url.Values{
		"_nonce":                   {f.issue(t, actionSaveFields)},
		"codobookings_user_fields": {`not json`},
	}))
	if rec.Header().Get("Location") != "/admin/fields?updated=0" {
		t.Fatalf("unreadable save location = %q", rec.Header().Get("Location"))
	}
	if list, _ := f.svc.GlobalFields(ctx); len(list) != 1 {
		t.Fatalf("unreadable save replaced the list: %+v", list)
	}
}

func TestBookingFlow(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	calID := f.calendar(t, "Studio")
	if _, _, err := f.svc.SaveGlobal(ctx, `[{"label":"Phone","required":true},{"label":"Guests","type":"number"}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	base := "/calendars/" + itoa(calID)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("page status = %d body=%s", rec.Code, rec.Body.String())
	}
	page := rec.Body.String()
	phone := strings.Index(page, `name="codobuf_phone"`)
	widget := strings.Index(page, `class="codo-calendar-wrapper"`)
	if phone < 0 || widget < 0 || phone > widget {
		t.Fatalf("fields should precede the widget:\n%s", page)
	}
	for _, want := range []string{
		`<link rel="stylesheet" href="/assets/userfields.css">`,
		`<script src="/assets/userfields-frontend.js" defer></script>`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("calendar page missing %q", want)
		}
	}

	rec = f.do(t, postJSON(base+"/bookings", `{"codobuf_phone":"   "}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing phone status = %d", rec.Code)
	}
	if diff := cmp.Diff(map[string]any{"status": "error", "message": "Phone is required."}, decode(t, rec)); diff != "" {
		t.Fatalf("422 body (-want +got):\n%s", diff)
	}

	rec = f.do(t, postJSON(base+"/bookings", `{"codobuf_phone":"555-1234","codobuf_guests":"2"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	created := decode(t, rec)
	wantData := map[string]any{"phone": "555-1234", "guests": float64(2)}
	if diff := cmp.Diff(wantData, created["user_fields_data"]); diff != "" {
		t.Fatalf("user_fields_data (-want +got):\n%s", diff)
	}
	bookingID := int64(created["booking_id"].(float64))

	stored, ok, err := f.store.Meta(ctx, bookingID, userfields.DefaultSubmissionKey)
	if err != nil || !ok || stored != `{"guests":2,"phone":"555-1234"}` {
		t.Fatalf("stored record = %q ok=%v err=%v", stored, ok, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/bookings/"+itoa(bookingID), nil)
	req.Header.Set("Accept", "application/json")
	rec = f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("booking view status = %d", rec.Code)
	}
	var view bookingView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	wantView := bookingView{
		BookingID:  bookingID,
		CalendarID: calID,
		UserFields: []userfields.SubmissionRow{
			{Name: "guests", Label: "Guests", Value: "2"},
			{Name: "phone", Label: "Phone", Value: "555-1234"},
		},
	}
	if diff := cmp.Diff(wantView, view); diff != "" {
		t.Fatalf("booking view (-want +got):\n%s", diff)
	}

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/admin/bookings/"+itoa(bookingID), nil))
	if !strings.Contains(rec.Body.String(), `<th style="width:200px;">Phone</th><td>555-1234</td>`) {
		t.Fatalf("booking html view:\n%s", rec.Body.String())
	}
}

func TestBookingFormPostReadsPostedValues(t *testing.T) {
	f := newFixture(t, "")
	calID := f.calendar(t, "Studio")
	if _, _, err := f.svc.SaveGlobal(context.Background(), `[{"label":"Newsletter","type":"checkbox"},{"label":"Size","type":"radio","options":"S,M"}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := postForm("/calendars/"+itoa(calID)+"/bookings?codobuf_size=S", url.Values{"codobuf_size": {"M"}, "codobuf_newsletter": {"1"}})
	rec := f.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	want := map[string]any{"newsletter": float64(1), "size": "M"}
	if diff := cmp.Diff(want, decode(t, rec)["user_fields_data"]); diff != "" {
		t.Fatalf("user_fields_data (-want +got):\n%s", diff)
	}
}

func TestBookingFormMissingRequiredRendersPage(t *testing.T) {
	f := newFixture(t, "")
	calID := f.calendar(t, "Studio")
	if _, _, err := f.svc.SaveGlobal(context.Background(), `[{"label":"Phone","required":true},{"label":"Seat","type":"select","options":"Window,Aisle"}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := f.do(t, postForm("/calendars/"+itoa(calID)+"/bookings", url.Values{
		"codobuf_phone": {"  "},
		"codobuf_seat":  {"Aisle"},
	}))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	page := rec.Body.String()
	for _, want := range []string{
		`<div class="notice notice-error"><p>Phone is required.</p></div>`,
		`<span class="codobuf-field-error" role="alert">Phone is required.</span>`,
		`<option value="Aisle" selected>Aisle</option>`,
		`<link rel="stylesheet" href="/assets/userfields.css">`,
		`<script src="/assets/userfields-frontend.js" defer></script>`,
		`action="/calendars/` + itoa(calID) + `/bookings"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("rejected page missing %q", want)
		}
	}

	// Clients asking for JSON keep the JSON error.
	req := postForm("/calendars/"+itoa(calID)+"/bookings", url.Values{"codobuf_phone": {""}})
	req.Header.Set("Accept", "application/json")
	rec = f.do(t, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("json status = %d", rec.Code)
	}
	if diff := cmp.Diff(map[string]any{"status": "error", "message": "Phone is required."}, decode(t, rec)); diff != "" {
		t.Fatalf("422 body (-want +got):\n%s", diff)
	}
}

func TestBookingWithoutFieldsStoresNothing(t *testing.T) {
	f := newFixture(t, "")
	calID := f.calendar(t, "Empty")

	rec := f.do(t, postJSON("/calendars/"+itoa(calID)+"/bookings", `{"date":"2024-03-01"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	created := decode(t, rec)
	if _, ok := created["user_fields_data"]; ok {
		t.Fatalf("unexpected user_fields_data: %v", created)
	}
	id := int64(created["booking_id"].(float64))
	if _, ok, _ := f.store.Meta(context.Background(), id, userfields.DefaultSubmissionKey); ok {
		t.Fatalf("empty submission was stored")
	}
}

func TestOverrideFormAndSave(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	calID := f.calendar(t, "Studio")
	path := "/admin/calendars/" + itoa(calID) + "/fields"

	rec := f.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("form status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `name="codobuf_fields_mode" value="none" checked`) {
		t.Fatalf("form should default to mode none:\n%s", rec.Body.String())
	}

	rec = f.do(t, postForm(path, url.Values{
		"_nonce":                         {f.issue(t, actionSaveOverride(calID+1))},
		"codobuf_fields_mode":            {"custom"},
		"codobuf_calendar_custom_fields": {`[{"label":"Seat"}]`},
	}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("nonce for another calendar accepted: %d", rec.Code)
	}
	if _, found, _ := f.store.Meta(ctx, calID, resolve.DefaultOverrideKey); found {
		t.Fatalf("rejected override was stored")
	}

	rec = f.do(t, postForm(path, url.Values{
		"_nonce":                         {f.issue(t, actionSaveOverride(calID))},
		"codobuf_fields_mode":            {"custom"},
		"codobuf_fields_position":        {"after"},
		"codobuf_calendar_custom_fields": {`[{"label":"Seat","type":"select","options":"A,B"}]`},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("save status = %d body=%s", rec.Code, rec.Body.String())
	}

	fields, err := f.svc.FieldsFor(ctx, calID)
	if err != nil {
		t.Fatalf("fields for: %v", err)
	}
	if diff := cmp.Diff([]string{"seat"}, fields.Names()); diff != "" {
		t.Fatalf("resolved names (-want +got):\n%s", diff)
	}

	page := f.do(t, httptest.NewRequest(http.MethodGet, "/calendars/"+itoa(calID), nil)).Body.String()
	if strings.Index(page, `name="codobuf_seat"`) < strings.Index(page, `class="codo-calendar-wrapper"`) {
		t.Fatalf("custom fields should follow the widget:\n%s", page)
	}
}

func TestCalendarsAdmin(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, postForm("/admin/calendars", url.Values{
		"_nonce": {f.issue(t, actionCreateCalendar)},
		"title":  {"<b>Yoga</b> room"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d", rec.Code)
	}
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/admin/calendars", nil))
	if !strings.Contains(rec.Body.String(), "<td>Yoga room</td>") {
		t.Fatalf("calendar list:\n%s", rec.Body.String())
	}
}

func TestAdminFormsCarryUsableNonce(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/admin/calendars", nil))
	match := regexp.MustCompile(`<input type="hidden" name="_nonce" value="([^"]+)">`).FindStringSubmatch(rec.Body.String())
	if match == nil {
		t.Fatalf("nonce input missing:\n%s", rec.Body.String())
	}

	rec = f.do(t, postForm("/admin/calendars", url.Values{"_nonce": {match[1]}, "title": {"Pool"}}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create with page nonce status = %d", rec.Code)
	}
}

func TestUnknownCalendarAndBooking(t *testing.T) {
	f := newFixture(t, "")
	for _, path := range []string{"/calendars/42", "/calendars/42/schema", "/admin/bookings/42"} {
		if rec := f.do(t, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
	if rec := f.do(t, httptest.NewRequest(http.MethodGet, "/calendars/abc", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	f := newFixture(t, "")
	calID := f.calendar(t, "Studio")
	if _, _, err := f.svc.SaveGlobal(context.Background(), `[{"label":"Phone","required":true}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/calendars/"+itoa(calID)+"/schema", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := decode(t, rec)
	if doc["openapi"] != "3.0.3" {
		t.Fatalf("openapi = %v", doc["openapi"])
	}
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/calendars/"+itoa(calID)+"/bookings"]; !ok {
		t.Fatalf("paths = %v", paths)
	}
}

func TestAdminAuth(t *testing.T) {
	f := newFixture(t, "s3cret")

	if rec := f.do(t, httptest.NewRequest(http.MethodGet, "/admin/fields", nil)); rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous admin status = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/fields", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	if rec := f.do(t, req); rec.Code != http.StatusOK {
		t.Fatalf("authorised admin status = %d", rec.Code)
	}

	calID := f.calendar(t, "Public")
	if rec := f.do(t, httptest.NewRequest(http.MethodGet, "/calendars/"+itoa(calID), nil)); rec.Code != http.StatusOK {
		t.Fatalf("public page status = %d", rec.Code)
	}
}

func TestAssetsAndRequestID(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/assets/userfields-frontend.js", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("asset status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}
	if rec := f.do(t, httptest.NewRequest(http.MethodGet, "/assets/fields-editor.css", nil)); rec.Code != http.StatusOK {
		t.Fatalf("editor asset status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	rec = f.do(t, req)
	if rec.Code != http.StatusNotFound || rec.Header().Get(RequestIDHeader) != "fixed-id" {
		t.Fatalf("status=%d request id=%q", rec.Code, rec.Header().Get(RequestIDHeader))
	}
}

func TestRecovery(t *testing.T) {
	handler := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recovery(zaptest.NewLogger(t)), WithRequestID())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `"status":"error"`) {
		t.Fatalf("body = %s", body)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, httptest.NewRequest(http.MethodDelete, "/admin/fields", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"error"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
