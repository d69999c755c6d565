package render_test

import (
	"errors"
	"math"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/render"
)

func sampleList() model.List {
	return model.List{
		{Label: "Name", Name: "name", Type: model.FieldTypeText, Required: true},
		{Label: "Guests", Name: "guests", Type: model.FieldTypeNumber},
		{Label: "Notes", Name: "notes", Type: model.FieldTypeTextarea},
		{Label: "Seat", Name: "seat", Type: model.FieldTypeSelect, Options: "A,B"},
		{Label: "Meal", Name: "meal", Type: model.FieldTypeRadio, Options: "Veg,Fish"},
		{Label: "Terms", Name: "terms", Type: model.FieldTypeCheckbox, Required: true},
		{Label: "Newsletter", Name: "newsletter", Type: model.FieldTypeCheckbox},
	}
}

func TestParseSubmissionPrecedenceAndTypes(t *testing.T) {
	payload := render.MapSource{
		"codobuf_name":   "  <b>Ada</b>  Lovelace ",
		"codobuf_guests": 3,
	}
	form := render.ValuesSource(url.Values{
		"codobuf_name":   {"ignored, payload wins"},
		"codobuf_guests": {"99"},
		"codobuf_notes":  {"line one\nline two"},
		"codobuf_terms":  {"on"},
	})
	query := render.ValuesSource(url.Values{
		"codobuf_seat":  {"B"},
		"codobuf_notes": {"ignored, form wins"},
	})

	got := render.ParseSubmission(sampleList(), payload, form, query)
	want := model.Submission{
		"name":       "Ada Lovelace",
		"guests":     float64(3),
		"notes":      "line one line two",
		"seat":       "B",
		"terms":      1,
		"newsletter": 0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"12.5":  12.5,
		" 7 ":   7,
		"abc":   0,
		"":      0,
		"NaN":   0,
		"+Inf":  0,
		"1e3":   1000,
		"-0.25": -0.25,
	}
	for raw, want := range cases {
		if got := render.ParseNumber(raw); got != want {
			t.Errorf("ParseNumber(%q) = %v, want %v", raw, got, want)
		}
	}
	if got := render.ParseNumber(math.Inf(1)); got != 0 {
		t.Fatalf("ParseNumber(+Inf) = %v", got)
	}
}

func TestCheckboxChecked(t *testing.T) {
	for _, v := range []any{"1", "on", "TRUE", "yes", true, 1, 2.0} {
		if !render.CheckboxChecked(v) {
			t.Errorf("expected %#v to tick the checkbox", v)
		}
	}
	for _, v := range []any{"0", "", "off", "no", "maybe", false, 0, nil} {
		if render.CheckboxChecked(v) {
			t.Errorf("expected %#v to leave the checkbox unticked", v)
		}
	}
}

func TestCheckRequiredReportsFirstMissingField(t *testing.T) {
	list := sampleList()

	err := render.CheckRequired(list, render.Messages{}, render.ValuesSource(url.Values{
		"codobuf_name": {"   "},
	}))
	var required *render.RequiredFieldError
	if !errors.As(err, &required) {
		t.Fatalf("expected RequiredFieldError, got %v", err)
	}
	if required.Field.Name != "name" || required.Message != "Name is required." {
		t.Fatalf("unexpected error %+v", required)
	}

	err = render.CheckRequired(list, render.Messages{}, render.ValuesSource(url.Values{
		"codobuf_name":  {"Ada"},
		"codobuf_terms": {"0"},
	}))
	if !errors.As(err, &required) || required.Field.Name != "terms" {
		t.Fatalf("expected unticked checkbox to fail, got %v", err)
	}

	err = render.CheckRequired(list, render.Messages{}, render.ValuesSource(url.Values{
		"codobuf_name":  {"Ada"},
		"codobuf_terms": {"1"},
	}))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestCheckRequiredFallbackLabel(t *testing.T) {
	list := model.List{{Name: "f_", Type: model.FieldTypeText, Required: true}}
	err := render.CheckRequired(list, render.Messages{})
	if err == nil || err.Error() != "A required field is required." {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNonceFieldTrimsName(t *testing.T) {
	got := render.NonceField(" _nonce ", "token123")
	if diff := cmp.Diff(render.HiddenField{Name: "_nonce", Value: "token123"}, got); diff != "" {
		t.Fatalf("nonce field (-want +got):\n%s", diff)
	}
}
