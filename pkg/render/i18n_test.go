package render_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/render"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if value, ok := t[key]; ok {
		return value, nil
	}
	return "", errors.New("missing")
}

func TestMessagesFallBackToEnglish(t *testing.T) {
	m := render.Messages{}
	if got := m.Required("Phone"); got != "Phone is required." {
		t.Fatalf("Required = %q", got)
	}
	if got := m.Untitled(); got != "Untitled" {
		t.Fatalf("Untitled = %q", got)
	}
}

func TestMessagesUseTranslator(t *testing.T) {
	m := render.Messages{
		Locale: "es",
		Translator: render.TranslatorFunc(func(locale, key string, args ...any) (string, error) {
			if key == render.KeyRequired && len(args) == 1 {
				return args[0].(string) + " es obligatorio.", nil
			}
			return "", errors.New("missing")
		}),
	}
	if got := m.Required("Teléfono"); got != "Teléfono es obligatorio." {
		t.Fatalf("Required = %q", got)
	}
	if got := m.Untitled(); got != "Untitled" {
		t.Fatalf("Untitled should fall back, got %q", got)
	}
}

func TestMessagesOnMissingHandler(t *testing.T) {
	m := render.Messages{OnMissing: func(_ string, key string, _ []any, _ error) string {
		return "[" + key + "]"
	}}
	if got := m.Untitled(); got != "["+render.KeyUntitled+"]" {
		t.Fatalf("Untitled = %q", got)
	}
}

func TestLocalizeFields(t *testing.T) {
	list := model.List{
		{Label: "Phone", Name: "phone", Hint: "Mobile"},
		{Label: "Notes", Name: "notes"},
	}
	got := render.LocalizeFields(list, render.RenderOptions{
		Translator: stubTranslator{
			"userfields.field.phone.label": "Teléfono",
			"userfields.field.phone.hint":  "Móvil",
		},
	})
	want := model.List{
		{Label: "Teléfono", Name: "phone", Hint: "Móvil"},
		{Label: "Notes", Name: "notes"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("localized list mismatch (-want +got):\n%s", diff)
	}
	if list[0].Label != "Phone" {
		t.Fatalf("input list mutated")
	}
}

func TestTemplateI18nFuncs(t *testing.T) {
	funcs := render.TemplateI18nFuncs(stubTranslator{"greeting": "Hola"}, render.TemplateI18nConfig{})
	translate := funcs["translate"].(func(any, string, ...string) string)
	if got := translate(map[string]any{"locale": "es"}, "greeting"); got != "Hola" {
		t.Fatalf("translate = %q", got)
	}
	if got := translate("es", "missing", "Fallback"); got != "Fallback" {
		t.Fatalf("translate fallback = %q", got)
	}
	locale := funcs["current_locale"].(func(any) string)
	if got := locale(map[string]string{"locale": "fr"}); got != "fr" {
		t.Fatalf("current_locale = %q", got)
	}
}
