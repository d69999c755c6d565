// Package userfields wires the field model, sanitizer, resolution policy,
// form renderer and submission parser into one Service that a booking host
// attaches to its extension points.
package userfields

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-userfields/pkg/host"
	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/render"
	"github.com/goliatone/go-userfields/pkg/renderers/vanilla"
	"github.com/goliatone/go-userfields/pkg/resolve"
	"github.com/goliatone/go-userfields/pkg/sanitize"
	"github.com/goliatone/go-userfields/pkg/store"
	"github.com/goliatone/go-userfields/pkg/validation"
)

// DefaultSubmissionKey is the booking meta key holding the Submission Record.
const DefaultSubmissionKey = "_codobuf_user_fields"

// Config is the explicit configuration handed to every component.
type Config struct {
	// OptionName stores the global list. Defaults to resolve.DefaultOptionName.
	OptionName string
	// OverrideKey stores per-calendar overrides. Defaults to
	// resolve.DefaultOverrideKey.
	OverrideKey string
	// SubmissionKey stores a booking's collected values.
	SubmissionKey string
	// Defaults is the global list used until one has been saved.
	Defaults model.List
	// Renderer names the registered renderer used for booking forms.
	Renderer string
	// Locale and Translator localise labels and messages.
	Locale     string
	Translator render.Translator
	Logger     *zap.Logger
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.OptionName) == "" {
		c.OptionName = resolve.DefaultOptionName
	}
	if strings.TrimSpace(c.OverrideKey) == "" {
		c.OverrideKey = resolve.DefaultOverrideKey
	}
	if strings.TrimSpace(c.SubmissionKey) == "" {
		c.SubmissionKey = DefaultSubmissionKey
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Option customises a Service.
type Option func(*Service)

// WithRenderer registers an additional renderer. Set Config.Renderer to its
// name to make it the one used for booking forms.
func WithRenderer(r render.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.extraRenderers = append(s.extraRenderers, r)
		}
	}
}

// WithVanillaOptions passes options to the built-in HTML renderer, for
// example vanilla.WithFieldOverride or vanilla.WithTheme.
func WithVanillaOptions(options ...vanilla.Option) Option {
	return func(s *Service) {
		s.vanillaOptions = append(s.vanillaOptions, options...)
	}
}

// WithNormalizerOptions adds filters or observers to the save-path sanitizer.
func WithNormalizerOptions(options ...sanitize.Option) Option {
	return func(s *Service) {
		s.normalizerOptions = append(s.normalizerOptions, options...)
	}
}

// Service is safe for concurrent use once built; state lives in the store.
type Service struct {
	cfg        Config
	store      store.Store
	normalizer *sanitize.Normalizer
	policy     *resolve.Policy
	renderers  *render.Registry
	vanilla    *vanilla.Renderer
	logger     *zap.Logger

	extraRenderers    []render.Renderer
	vanillaOptions    []vanilla.Option
	normalizerOptions []sanitize.Option
}

// New builds a Service backed by st.
func New(st store.Store, cfg Config, options ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("userfields: store is required")
	}
	cfg = cfg.withDefaults()
	s := &Service{cfg: cfg, store: st, logger: cfg.Logger}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	normalizerOptions := append([]sanitize.Option{sanitize.WithLogger(cfg.Logger)}, s.normalizerOptions...)
	s.normalizer = sanitize.New(normalizerOptions...)
	s.policy = resolve.New(st,
		resolve.WithOptionName(cfg.OptionName),
		resolve.WithOverrideKey(cfg.OverrideKey),
		resolve.WithDefaults(cfg.Defaults),
		resolve.WithNormalizer(s.normalizer),
		resolve.WithLogger(cfg.Logger),
	)

	vanillaOptions := append([]vanilla.Option{
		vanilla.WithTranslator(cfg.Translator),
		vanilla.WithLogger(cfg.Logger),
	}, s.vanillaOptions...)
	html, err := vanilla.New(vanillaOptions...)
	if err != nil {
		return nil, fmt.Errorf("userfields: build renderer: %w", err)
	}
	s.vanilla = html

	s.renderers = render.NewRegistry()
	if err := s.renderers.Register(html); err != nil {
		return nil, fmt.Errorf("userfields: register renderer: %w", err)
	}
	for _, r := range s.extraRenderers {
		if err := s.renderers.Register(r); err != nil {
			return nil, fmt.Errorf("userfields: register renderer: %w", err)
		}
	}
	if cfg.Renderer != "" {
		if err := s.renderers.SetDefault(cfg.Renderer); err != nil {
			return nil, fmt.Errorf("userfields: select renderer: %w", err)
		}
	}
	return s, nil
}

func (s *Service) Config() Config { return s.cfg }

// Policy exposes the resolution policy, e.g. its OptionNameFilters and
// DefaultsFilters extension points.
func (s *Service) Policy() *resolve.Policy { return s.policy }

// HTMLRenderer returns the built-in renderer, e.g. for its Assets.
func (s *Service) HTMLRenderer() *vanilla.Renderer { return s.vanilla }

// Messages returns the localised message set for blocking errors.
func (s *Service) Messages() render.Messages {
	return render.Messages{Locale: s.cfg.Locale, Translator: s.cfg.Translator}
}

// GlobalFields returns the clean global list.
func (s *Service) GlobalFields(ctx context.Context) (model.List, error) {
	return s.policy.GlobalFields(ctx)
}

// FieldsFor resolves the list for a calendar.
func (s *Service) FieldsFor(ctx context.Context, calendarID int64) (model.List, error) {
	return s.policy.FieldsFor(ctx, calendarID)
}

// SaveGlobal normalises the editor transport value and stores it. ok is false
// when raw was unreadable and the stored list was kept.
func (s *Service) SaveGlobal(ctx context.Context, raw any) (model.List, bool, error) {
	return s.policy.SaveGlobal(ctx, raw)
}

// SaveOverride stores a calendar's override record.
func (s *Service) SaveOverride(ctx context.Context, calendarID int64, input resolve.OverrideInput) (model.Override, error) {
	return s.policy.SaveOverride(ctx, calendarID, input)
}

// OverrideForm returns the record an admin override form is pre-filled with.
// Without a stored record the form starts at mode none with the defaults as
// the custom list, while resolution keeps treating the calendar as global.
func (s *Service) OverrideForm(ctx context.Context, calendarID int64) (model.Override, error) {
	record, ok, err := s.policy.Override(ctx, calendarID)
	if err != nil {
		return model.Override{}, err
	}
	if ok {
		if strings.TrimSpace(record.CustomFields) == "" {
			record.CustomFields = "[]"
		}
		return record, nil
	}
	return model.Override{
		Mode:         model.ModeNone,
		Position:     model.PositionBefore,
		CustomFields: sanitize.Encode(sanitize.Clean(s.cfg.Defaults)),
	}, nil
}

// RenderFields renders the resolved list for a calendar. An empty list
// renders nothing.
func (s *Service) RenderFields(ctx context.Context, calendarID int64, opts render.RenderOptions) ([]byte, error) {
	list, err := s.FieldsFor(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	if opts.Locale == "" {
		opts.Locale = s.cfg.Locale
	}
	if opts.Translator == nil {
		opts.Translator = s.cfg.Translator
	}
	r, err := s.renderers.Get("")
	if err != nil {
		return nil, fmt.Errorf("userfields: renderer: %w", err)
	}
	out, err := r.Render(ctx, list, opts)
	if err != nil {
		return nil, fmt.Errorf("userfields: render calendar %d: %w", calendarID, err)
	}
	return out, nil
}

// RenderAt writes the calendar's fields to out when point is the calendar's
// configured position.
func (s *Service) RenderAt(ctx context.Context, calendarID int64, point resolve.Point, out io.Writer, opts render.RenderOptions) error {
	ok, err := s.policy.ShouldRender(ctx, calendarID, point)
	if err != nil || !ok {
		return err
	}
	markup, err := s.RenderFields(ctx, calendarID, opts)
	if err != nil {
		return err
	}
	if len(markup) == 0 {
		return nil
	}
	_, err = out.Write(markup)
	return err
}

// Capture is the pre-insert step: it blocks with *render.RequiredFieldError
// when a required field is unmet and otherwise attaches the parsed
// Submission Record to data. Bookings without a calendar pass through.
func (s *Service) Capture(ctx context.Context, data host.BookingData) (host.BookingData, error) {
	if data.CalendarID <= 0 {
		return data, nil
	}
	list, err := s.FieldsFor(ctx, data.CalendarID)
	if err != nil {
		return data, err
	}
	if len(list) == 0 {
		return data, nil
	}

	sources := data.InputSources()
	if err := render.CheckRequired(list, s.Messages(), sources...); err != nil {
		s.logger.Info("booking blocked by required user field",
			zap.Int64("calendar_id", data.CalendarID),
			zap.Error(err))
		return data, err
	}

	submission := render.ParseSubmission(list, sources...)
	if result := validation.ValidateSubmission(list, submission); !result.Valid {
		for _, issue := range result.Issues {
			s.logger.Warn("user field value outside schema",
				zap.Int64("calendar_id", data.CalendarID),
				zap.String("field", issue.Field),
				zap.String("reason", issue.Message))
		}
	}
	data.UserFieldsData = submission
	return data, nil
}

// StoreSubmission persists a non-empty Submission Record on the booking.
func (s *Service) StoreSubmission(ctx context.Context, bookingID int64, submission model.Submission) error {
	if len(submission) == 0 {
		return nil
	}
	payload, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("userfields: encode submission: %w", err)
	}
	if err := s.store.SetMeta(ctx, bookingID, s.cfg.SubmissionKey, string(payload)); err != nil {
		return fmt.Errorf("userfields: store submission for booking %d: %w", bookingID, err)
	}
	s.logger.Info("user fields captured",
		zap.Int64("booking_id", bookingID),
		zap.Int("fields", len(submission)))
	return nil
}

// SubmissionRow is one line of the admin booking view.
type SubmissionRow struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Submission returns a booking's stored values in the order they were
// captured. ok is false when nothing was stored.
func (s *Service) Submission(ctx context.Context, bookingID int64) ([]SubmissionRow, bool, error) {
	raw, ok, err := s.store.Meta(ctx, bookingID, s.cfg.SubmissionKey)
	if err != nil {
		return nil, false, fmt.Errorf("userfields: read submission for booking %d: %w", bookingID, err)
	}
	if !ok {
		return nil, false, nil
	}
	rows, err := decodeRows(raw)
	if err != nil {
		s.logger.Warn("stored submission unreadable", zap.Int64("booking_id", bookingID), zap.Error(err))
		return nil, false, nil
	}
	return rows, len(rows) > 0, nil
}

func decodeRows(raw string) ([]SubmissionRow, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("userfields: submission is not an object")
	}

	var rows []SubmissionRow
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := keyTok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		rows = append(rows, SubmissionRow{
			Name:  name,
			Label: model.DefaultLabeler(name),
			Value: sanitize.Scalar(value),
		})
	}
	return rows, nil
}

// SchemaDocument describes the booking endpoint for a calendar's list.
func (s *Service) SchemaDocument(ctx context.Context, calendarID int64, path string) (*openapi3.T, error) {
	list, err := s.FieldsFor(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	return validation.Document("User fields", path, list), nil
}

// Attach subscribes the service to the host's extension points.
func (s *Service) Attach(h *host.Hooks) {
	if h == nil {
		return
	}
	h.BeforeCalendar.Add(func(ctx context.Context, e host.RenderEvent) error {
		return s.RenderAt(ctx, e.EntityID, resolve.PointBefore, e.Out, e.Options)
	})
	h.AfterCalendar.Add(func(ctx context.Context, e host.RenderEvent) error {
		return s.RenderAt(ctx, e.EntityID, resolve.PointAfter, e.Out, e.Options)
	})
	h.BeforeBookingInsert.Add(s.Capture)
	h.AfterBookingCreated.Add(func(ctx context.Context, c host.BookingCreated) error {
		return s.StoreSubmission(ctx, c.BookingID, c.Data.UserFieldsData)
	})
}
