// Package sanitize turns untrusted field lists (decoded JSON, form payloads or
// raw JSON text) into clean model.List values that satisfy the naming, type
// and options invariants.
package sanitize

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-userfields/pkg/hooks"
	"github.com/goliatone/go-userfields/pkg/model"
)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithFilter appends a filter applied to every successfully normalised list
// before observers are notified. A failing filter is logged and skipped.
func WithFilter(fn hooks.FilterFunc[model.List]) Option {
	return func(n *Normalizer) {
		n.filters.Add(fn)
	}
}

// WithObserver registers a callback notified with the clean list after a
// successful Normalize. Observer errors are logged and never change the result.
func WithObserver(fn hooks.ActionFunc[model.List]) Option {
	return func(n *Normalizer) {
		n.observers.Add(fn)
	}
}

// WithLogger sets the logger used for fail-soft diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Normalizer cleans field lists. The zero value is not usable; call New.
type Normalizer struct {
	filters   hooks.Filters[model.List]
	observers hooks.Actions[model.List]
	logger    *zap.Logger
}

// New constructs a Normalizer.
func New(options ...Option) *Normalizer {
	n := &Normalizer{logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Filters exposes the post-normalisation filter chain so collaborators can
// register after construction.
func (n *Normalizer) Filters() *hooks.Filters[model.List] {
	return &n.filters
}

// Observers exposes the saved-list observers.
func (n *Normalizer) Observers() *hooks.Actions[model.List] {
	return &n.observers
}

// Normalize cleans raw and runs the filter and observer hooks. raw may be
// structured ([]any, []map[string]any, model.List, []model.Field) or text
// (string, []byte, json.RawMessage). When raw cannot be read as a list the
// previous value is returned untouched with ok=false and no hooks fire.
func (n *Normalizer) Normalize(ctx context.Context, raw any, previous model.List) (clean model.List, ok bool) {
	items, ok := decodeItems(raw)
	if !ok {
		n.logger.Warn("user fields payload rejected, keeping previous list",
			zap.String("payload_type", fmt.Sprintf("%T", raw)),
			zap.Int("previous_fields", len(previous)))
		return previous, false
	}

	clean = cleanItems(items)

	filtered, err := n.filters.Apply(ctx, clean)
	if err != nil {
		n.logger.Warn("user fields filter failed", zap.Error(err))
	}
	// Filters may reintroduce duplicates or bad types; re-clean their output.
	clean = Clean(filtered)

	if err := n.observers.Do(ctx, clean.Clone()); err != nil {
		n.logger.Warn("user fields observer failed", zap.Error(err))
	}
	return clean, true
}

// Parse decodes stored text into a clean list without running hooks. Text
// that is not a JSON array yields an empty list.
func (n *Normalizer) Parse(text string) model.List {
	return Parse(text)
}

// Parse decodes stored JSON text into a clean list. Malformed text yields an
// empty, non-nil list.
func Parse(text string) model.List {
	items, ok := decodeItems(text)
	if !ok {
		return model.List{}
	}
	return cleanItems(items)
}

// Clean re-applies every invariant to an already typed list.
func Clean(list model.List) model.List {
	items := make([]any, 0, len(list))
	for _, field := range list {
		items = append(items, fieldToMap(field))
	}
	return cleanItems(items)
}

// Encode serialises a list as the canonical JSON array text.
func Encode(list model.List) string {
	if list == nil {
		list = model.List{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(payload)
}

func decodeItems(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []map[string]any:
		items := make([]any, 0, len(v))
		for _, item := range v {
			items = append(items, item)
		}
		return items, true
	case model.List:
		return decodeItems([]model.Field(v))
	case []model.Field:
		items := make([]any, 0, len(v))
		for _, field := range v {
			items = append(items, fieldToMap(field))
		}
		return items, true
	case string:
		return decodeText([]byte(v))
	case []byte:
		return decodeText(v)
	case json.RawMessage:
		return decodeText(v)
	default:
		return nil, false
	}
}

func decodeText(data []byte) ([]any, bool) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, false
	}
	if items == nil {
		return nil, false
	}
	return items, true
}

func cleanItems(items []any) model.List {
	clean := make(model.List, 0, len(items))
	taken := make(map[string]struct{}, len(items))

	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		field := cleanItem(item)
		field.Name = model.UniqueName(field.Name, func(name string) bool {
			_, exists := taken[name]
			return exists
		})
		taken[field.Name] = struct{}{}
		clean = append(clean, field)
	}
	return clean
}

func cleanItem(item map[string]any) model.Field {
	field := model.DefaultField()

	field.Label = Text(Scalar(item["label"]))

	name := Text(Scalar(item["name"]))
	if name == "" {
		name = field.Label
	}
	field.Name = model.CleanName(name)

	if rawType, ok := item["type"]; ok {
		field.Type = model.ParseType(Key(Scalar(rawType)))
	}

	field.Required = Truthy(item["required"])
	field.Hint = Text(Scalar(item["hint"]))

	if model.IsOptionBearing(field.Type) {
		field.Options = cleanOptions(item["options"])
	}
	return field
}

func cleanOptions(raw any) string {
	var parts []string
	switch v := raw.(type) {
	case []any:
		for _, entry := range v {
			parts = append(parts, model.SplitOptions(Scalar(entry))...)
		}
	case []string:
		for _, entry := range v {
			parts = append(parts, model.SplitOptions(entry)...)
		}
	default:
		parts = model.SplitOptions(Scalar(raw))
	}

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		// Text collapses whitespace but commas survive it, so split again.
		out = append(out, model.SplitOptions(Text(part))...)
	}
	return model.JoinOptions(out)
}

// Truthy coerces loosely typed flags: booleans as-is, non-zero numbers, and
// strings other than "", "0", "false", "off" and "no".
func Truthy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "off", "no":
			return false
		default:
			return true
		}
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// Scalar renders loosely typed scalars as text: numbers without exponent
// padding, true as "1" and everything non-scalar as "".
func Scalar(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case model.FieldType:
		return string(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	default:
		return ""
	}
}

func fieldToMap(field model.Field) map[string]any {
	return map[string]any{
		"label":    field.Label,
		"name":     field.Name,
		"type":     string(field.Type),
		"required": field.Required,
		"hint":     field.Hint,
		"options":  field.Options,
	}
}
