// Package resolve decides which field list applies to an entity and where the
// rendered fields are injected relative to the host widget.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-userfields/pkg/hooks"
	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/sanitize"
	"github.com/goliatone/go-userfields/pkg/store"
)

const (
	// DefaultOptionName stores the global list.
	DefaultOptionName = "codobookings_user_fields"
	// DefaultOverrideKey stores the per-entity override record.
	DefaultOverrideKey = "_codobookings_user_fields"
)

// Point identifies one of the two host injection points.
type Point string

const (
	PointBefore Point = "before"
	PointAfter  Point = "after"
)

// Option customises a Policy.
type Option func(*Policy)

// WithOptionName changes the option the global list is stored under.
func WithOptionName(name string) Option {
	return func(p *Policy) {
		if name = strings.TrimSpace(name); name != "" {
			p.optionName = name
		}
	}
}

// WithOverrideKey changes the meta key used for override records.
func WithOverrideKey(key string) Option {
	return func(p *Policy) {
		if key = strings.TrimSpace(key); key != "" {
			p.overrideKey = key
		}
	}
}

// WithDefaults sets the list returned when no global list has been saved.
func WithDefaults(defaults model.List) Option {
	return func(p *Policy) {
		p.defaults = sanitize.Clean(defaults)
	}
}

// WithNormalizer sets the Normalizer used on save paths.
func WithNormalizer(n *sanitize.Normalizer) Option {
	return func(p *Policy) {
		if n != nil {
			p.normalizer = n
		}
	}
}

// WithLogger sets the policy logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Policy resolves field lists on every call; nothing is cached so the store
// stays the source of truth.
type Policy struct {
	store       store.Store
	normalizer  *sanitize.Normalizer
	logger      *zap.Logger
	optionName  string
	overrideKey string
	defaults    model.List

	optionNameFilters hooks.Filters[string]
	defaultsFilters   hooks.Filters[model.List]
}

// New builds a Policy backed by s.
func New(s store.Store, options ...Option) *Policy {
	p := &Policy{
		store:       s,
		logger:      zap.NewNop(),
		optionName:  DefaultOptionName,
		overrideKey: DefaultOverrideKey,
		defaults:    model.List{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.normalizer == nil {
		p.normalizer = sanitize.New(sanitize.WithLogger(p.logger))
	}
	return p
}

// OptionNameFilters lets extensions rename the global option per request.
func (p *Policy) OptionNameFilters() *hooks.Filters[string] {
	return &p.optionNameFilters
}

// DefaultsFilters lets extensions supply the default global list.
func (p *Policy) DefaultsFilters() *hooks.Filters[model.List] {
	return &p.defaultsFilters
}

// OptionName resolves the option name through the registered filters.
func (p *Policy) OptionName(ctx context.Context) string {
	name, err := p.optionNameFilters.Apply(ctx, p.optionName)
	if err != nil || strings.TrimSpace(name) == "" {
		return p.optionName
	}
	return name
}

// GlobalFields returns the clean global list, falling back to the defaults
// when nothing has been stored.
func (p *Policy) GlobalFields(ctx context.Context) (model.List, error) {
	raw, found, err := p.store.Option(ctx, p.OptionName(ctx))
	if err != nil {
		return nil, fmt.Errorf("resolve: read global fields: %w", err)
	}
	if !found {
		return p.defaultFields(ctx), nil
	}
	return sanitize.Parse(raw), nil
}

func (p *Policy) defaultFields(ctx context.Context) model.List {
	defaults, err := p.defaultsFilters.Apply(ctx, p.defaults.Clone())
	if err != nil {
		p.logger.Warn("default fields filter failed", zap.Error(err))
	}
	if defaults == nil {
		return model.List{}
	}
	return sanitize.Clean(defaults)
}

// Override returns the entity's stored override record. found is false when no
// record exists or the stored text is not a JSON object.
func (p *Policy) Override(ctx context.Context, entityID int64) (model.Override, bool, error) {
	raw, found, err := p.store.Meta(ctx, entityID, p.overrideKey)
	if err != nil {
		return model.Override{}, false, fmt.Errorf("resolve: read override %d: %w", entityID, err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return model.Override{}, false, nil
	}

	var record model.Override
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		p.logger.Warn("override record unreadable, treating as missing",
			zap.Int64("entity_id", entityID), zap.Error(err))
		return model.Override{}, false, nil
	}
	return record.Normalized(), true, nil
}

// FieldsFor returns the list that applies to entityID.
func (p *Policy) FieldsFor(ctx context.Context, entityID int64) (model.List, error) {
	record, found, err := p.Override(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !found {
		return p.GlobalFields(ctx)
	}

	switch record.Mode {
	case model.ModeNone:
		return model.List{}, nil
	case model.ModeCustom:
		return sanitize.Parse(record.CustomFields), nil
	default:
		return p.GlobalFields(ctx)
	}
}

// PositionFor returns where fields render for entityID, defaulting to before.
func (p *Policy) PositionFor(ctx context.Context, entityID int64) (model.Position, error) {
	record, found, err := p.Override(ctx, entityID)
	if err != nil {
		return model.PositionBefore, err
	}
	if !found {
		return model.PositionBefore, nil
	}
	return record.Position, nil
}

// ShouldRender reports whether fields render at point for entityID. For any
// entity exactly one of PointBefore and PointAfter returns true.
func (p *Policy) ShouldRender(ctx context.Context, entityID int64, point Point) (bool, error) {
	position, err := p.PositionFor(ctx, entityID)
	if err != nil {
		return false, err
	}
	if point == PointAfter {
		return position == model.PositionAfter, nil
	}
	return position != model.PositionAfter, nil
}

// SaveGlobal normalises raw and stores it as the global list. When raw cannot
// be read the stored list is left untouched and ok is false.
func (p *Policy) SaveGlobal(ctx context.Context, raw any) (model.List, bool, error) {
	previous, err := p.GlobalFields(ctx)
	if err != nil {
		return nil, false, err
	}

	clean, ok := p.normalizer.Normalize(ctx, raw, previous)
	if !ok {
		return previous, false, nil
	}

	if err := p.store.SetOption(ctx, p.OptionName(ctx), sanitize.Encode(clean)); err != nil {
		return previous, false, fmt.Errorf("resolve: save global fields: %w", err)
	}
	p.logger.Info("global user fields saved", zap.Int("fields", len(clean)))
	return clean, true, nil
}

// OverrideInput is the unsanitised payload of an override save.
type OverrideInput struct {
	Mode         string
	Position     string
	CustomFields any
}

// SaveOverride stores the override record for entityID. An unreadable custom
// list keeps the previously stored custom list.
func (p *Policy) SaveOverride(ctx context.Context, entityID int64, input OverrideInput) (model.Override, error) {
	previous, _, err := p.Override(ctx, entityID)
	if err != nil {
		return model.Override{}, err
	}

	record := model.Override{
		Mode:         model.ParseMode(sanitize.Key(input.Mode)),
		Position:     model.ParsePosition(sanitize.Key(input.Position)),
		CustomFields: previous.CustomFields,
	}
	if record.CustomFields == "" {
		record.CustomFields = "[]"
	}

	if input.CustomFields != nil {
		clean, ok := p.normalizer.Normalize(ctx, input.CustomFields, sanitize.Parse(previous.CustomFields))
		if ok {
			record.CustomFields = sanitize.Encode(clean)
		}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return model.Override{}, fmt.Errorf("resolve: encode override: %w", err)
	}
	if err := p.store.SetMeta(ctx, entityID, p.overrideKey, string(payload)); err != nil {
		return model.Override{}, fmt.Errorf("resolve: save override %d: %w", entityID, err)
	}

	p.logger.Info("user fields override saved",
		zap.Int64("entity_id", entityID),
		zap.String("mode", string(record.Mode)),
		zap.String("position", string(record.Position)))
	return record, nil
}
