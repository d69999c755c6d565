package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-userfields/pkg/model"
)

// Translator resolves a message key for a locale. Hosts plug their catalogue
// in through this interface; nothing in the module ships translations.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

func (fn TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return fn(locale, key, args...)
}

// MissingTranslationHandler picks the string used when a key cannot be
// translated. args carries the caller's arguments; a trailing
// map[string]any{"default": fallback} is appended when a fallback exists.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// ErrMissingTranslator reports a lookup without a configured Translator.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Message keys used by the built-in components.
const (
	KeyRequired        = "userfields.required"
	KeyRequiredUnnamed = "userfields.required_unnamed"
	KeyUntitled        = "userfields.untitled"
	KeyFieldLabel      = "userfields.field.%s.label"
	KeyFieldHint       = "userfields.field.%s.hint"
)

// Default English strings for the keys above.
const (
	DefaultRequiredFormat = "%s is required."
	DefaultRequiredLabel  = "A required field"
	DefaultUntitled       = "Untitled"
)

// Messages resolves user visible strings through an optional Translator.
type Messages struct {
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}

// MessagesFrom extracts the translation settings of opts.
func MessagesFrom(opts RenderOptions) Messages {
	return Messages{Locale: opts.Locale, Translator: opts.Translator, OnMissing: opts.OnMissing}
}

// Required returns the blocking message for a missing required field.
func (m Messages) Required(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		label = m.text(KeyRequiredUnnamed, DefaultRequiredLabel)
	}
	return m.text(KeyRequired, fmt.Sprintf(DefaultRequiredFormat, label), label)
}

// Untitled is the placeholder shown for blank labels.
func (m Messages) Untitled() string {
	return m.text(KeyUntitled, DefaultUntitled)
}

func (m Messages) text(key, fallback string, args ...any) string {
	return translate(m.Locale, key, fallback, m.Translator, m.OnMissing, args...)
}

// LocalizeFields returns a copy of list with labels and hints translated
// through the per-field keys (userfields.field.<name>.label and .hint).
// Untranslated entries keep their stored text.
func LocalizeFields(list model.List, opts RenderOptions) model.List {
	out := list.Clone()
	if opts.Translator == nil {
		return out
	}
	for i := range out {
		name := out[i].Name
		out[i].Label = translate(opts.Locale, fmt.Sprintf(KeyFieldLabel, name), out[i].Label, opts.Translator, nil)
		if out[i].Hint != "" {
			out[i].Hint = translate(opts.Locale, fmt.Sprintf(KeyFieldHint, name), out[i].Hint, opts.Translator, nil)
		}
	}
	return out
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler, args ...any) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	if t == nil {
		return onMissing(locale, key, withDefault(args, fallback), ErrMissingTranslator)
	}

	result, err := t.Translate(locale, key, args...)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, withDefault(args, fallback), err)
}

func withDefault(args []any, fallback string) []any {
	if fallback == "" {
		return args
	}
	out := make([]any, 0, len(args)+1)
	out = append(out, args...)
	return append(out, map[string]any{"default": fallback})
}

// missingTranslationDefault returns the supplied default, or the key.
func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for i := len(args) - 1; i >= 0; i-- {
		if m, ok := args[i].(map[string]any); ok {
			if def, ok := m["default"].(string); ok && strings.TrimSpace(def) != "" {
				return def
			}
		}
	}
	return key
}

