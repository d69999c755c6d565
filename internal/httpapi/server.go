// Package httpapi serves the admin screens, the booking page and the booking
// endpoints around a userfields.Service.
package httpapi

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	userfields "github.com/goliatone/go-userfields"
	"github.com/goliatone/go-userfields/internal/nonce"
	"github.com/goliatone/go-userfields/internal/store"
	"github.com/goliatone/go-userfields/pkg/editor"
	"github.com/goliatone/go-userfields/pkg/host"
	gotemplate "github.com/goliatone/go-userfields/pkg/render/template/gotemplate"
)

//go:embed templates/*.tmpl
var pageTemplates embed.FS

const (
	AdminPrefix = "/admin/"
	AssetPrefix = "/assets/"

	nonceField = "_nonce"

	actionSaveFields     = "save_user_fields"
	actionCreateCalendar = "create_calendar"
)

func actionSaveOverride(calendarID int64) string {
	return "save_calendar_fields:" + strconv.FormatInt(calendarID, 10)
}

// Bookings is the calendar and booking persistence the handlers need.
type Bookings interface {
	CreateCalendar(ctx context.Context, title string) (*store.Calendar, error)
	Calendar(ctx context.Context, id int64) (*store.Calendar, error)
	Calendars(ctx context.Context) ([]*store.Calendar, error)
	InsertBooking(ctx context.Context, calendarID int64, payload map[string]any) (int64, error)
	Booking(ctx context.Context, id int64) (*store.Booking, error)
}

// Deps are the collaborators a Server is built from. Service, Bookings and
// Nonces are required.
type Deps struct {
	Service  *userfields.Service
	Bookings Bookings
	Nonces   *nonce.Manager
	Hooks    *host.Hooks
	Logger   *zap.Logger
	// AuthToken guards AdminPrefix when set.
	AuthToken string
}

// Server owns the mux and page templates.
type Server struct {
	svc      *userfields.Service
	bookings Bookings
	nonces   *nonce.Manager
	hooks    *host.Hooks
	logger   *zap.Logger
	token    string

	pages  *gotemplate.Engine
	markup *editor.Markup
	router *mux.Router
}

// New validates deps and registers the routes. When Hooks is nil a fresh set
// is created and the service attached to it.
func New(deps Deps) (*Server, error) {
	if deps.Service == nil {
		return nil, errors.New("httpapi: service is required")
	}
	if deps.Bookings == nil {
		return nil, errors.New("httpapi: booking store is required")
	}
	if deps.Nonces == nil {
		return nil, errors.New("httpapi: nonce manager is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Hooks == nil {
		deps.Hooks = host.New()
		deps.Service.Attach(deps.Hooks)
	}

	pages, err := gotemplate.New(gotemplate.WithFS(pageTemplates), gotemplate.WithExtension(".tmpl"))
	if err != nil {
		return nil, fmt.Errorf("httpapi: page templates: %w", err)
	}
	markup, err := editor.NewMarkup()
	if err != nil {
		return nil, fmt.Errorf("httpapi: editor markup: %w", err)
	}

	s := &Server{
		svc:      deps.Service,
		bookings: deps.Bookings,
		nonces:   deps.Nonces,
		hooks:    deps.Hooks,
		logger:   deps.Logger,
		token:    deps.AuthToken,
		pages:    pages,
		markup:   markup,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	admin := s.router.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/fields", s.handleSettings).Methods(http.MethodGet)
	admin.HandleFunc("/fields", s.handleSaveSettings).Methods(http.MethodPost)
	admin.HandleFunc("/calendars", s.handleCalendars).Methods(http.MethodGet)
	admin.HandleFunc("/calendars", s.handleCreateCalendar).Methods(http.MethodPost)
	admin.HandleFunc("/calendars/{id:[0-9]+}/fields", s.handleOverride).Methods(http.MethodGet)
	admin.HandleFunc("/calendars/{id:[0-9]+}/fields", s.handleSaveOverride).Methods(http.MethodPost)
	admin.HandleFunc("/bookings/{id}", s.handleBooking).Methods(http.MethodGet)

	s.router.HandleFunc("/calendars/{id}", s.handleCalendarPage).Methods(http.MethodGet)
	s.router.HandleFunc("/calendars/{id}/bookings", s.handleCreateBooking).Methods(http.MethodPost)
	s.router.HandleFunc("/calendars/{id}/schema", s.handleSchema).Methods(http.MethodGet)

	s.router.PathPrefix(AssetPrefix).Handler(
		http.StripPrefix(AssetPrefix, http.FileServerFS(userfields.AssetsFS())),
	).Methods(http.MethodGet, http.MethodHead)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No route found for %s %s", r.Method, r.URL.Path))
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("%s is not supported for %s", r.Method, r.URL.Path))
	})
}

// Handler returns the mux wrapped in the standard middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(s.router,
		Recovery(s.logger),
		WithRequestID(),
		Logging(s.logger),
		AdminAuth(AdminPrefix, s.token),
	)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
