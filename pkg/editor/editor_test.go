package editor_test

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-userfields/pkg/editor"
	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/sanitize"
)

func TestTransportShape(t *testing.T) {
	e := editor.New(model.List{
		{Label: "Phone", Name: "phone", Type: model.FieldTypeText, Required: true},
		{Label: "Size", Name: "size", Type: model.FieldTypeSelect, Options: "S,M"},
	})

	want := `[{"label":"Phone","name":"phone","type":"text","required":1,"hint":"","options":""},` +
		`{"label":"Size","name":"size","type":"select","required":0,"hint":"","options":"S,M"}]`
	if got := e.Transport(); got != want {
		t.Fatalf("transport mismatch\nwant: %s\n got: %s", want, got)
	}

	if got := editor.New(nil).Transport(); got != "[]" {
		t.Fatalf("empty editor transport = %q", got)
	}
}

func TestAddOpensUntitledItem(t *testing.T) {
	e := editor.New(model.List{{Label: "Phone", Name: "phone", Type: model.FieldTypeText}})

	idx := e.Add()
	if idx != 1 {
		t.Fatalf("Add index = %d", idx)
	}
	item, err := e.Item(idx)
	if err != nil {
		t.Fatalf("item: %v", err)
	}
	want := editor.Item{Field: model.Field{Label: "Untitled", Type: model.FieldTypeText}, Open: true}
	if diff := cmp.Diff(want, item); diff != "" {
		t.Fatalf("added item mismatch (-want +got):\n%s", diff)
	}
	if first, _ := e.Item(0); first.Open {
		t.Fatalf("existing items must start collapsed")
	}
	if !strings.Contains(e.Transport(), `{"label":"Untitled","name":"","type":"text","required":0,"hint":"","options":""}`) {
		t.Fatalf("transport missing new item: %s", e.Transport())
	}
}

func TestSetLabelDerivesUniqueNameUntilTouched(t *testing.T) {
	e := editor.New(model.List{{Label: "Phone", Name: "phone", Type: model.FieldTypeText}})
	idx := e.Add()

	mustDo(t, e.SetLabel(idx, "Phone"))
	if got := e.List()[idx].Name; got != "phone_1" {
		t.Fatalf("derived name = %q, want phone_1", got)
	}

	// The item's own current name never counts as a collision.
	mustDo(t, e.SetLabel(0, "Phone"))
	if got := e.List()[0].Name; got != "phone" {
		t.Fatalf("self collision renamed item to %q", got)
	}

	mustDo(t, e.SetLabel(idx, "1st Choice"))
	if got := e.List()[idx].Name; got != "f_1st_choice" {
		t.Fatalf("derived name = %q, want f_1st_choice", got)
	}

	mustDo(t, e.SetName(idx, "custom_key"))
	mustDo(t, e.SetLabel(idx, "Something Else"))
	if got := e.List()[idx].Name; got != "custom_key" {
		t.Fatalf("touched name was overwritten: %q", got)
	}
	if got := e.Preview(idx); got != "Something Else" {
		t.Fatalf("preview = %q", got)
	}

	mustDo(t, e.SetLabel(idx, "   "))
	if got := e.Preview(idx); got != "Untitled" {
		t.Fatalf("blank label preview = %q", got)
	}
}

func TestOptionsVisibilityFollowsType(t *testing.T) {
	e := editor.New(nil)
	idx := e.Add()

	cases := []struct {
		typ     model.FieldType
		visible bool
	}{
		{model.FieldTypeSelect, true},
		{model.FieldTypeRadio, true},
		{model.FieldTypeCheckbox, false},
		{model.FieldTypeNumber, false},
		{"file", false},
	}
	for _, tc := range cases {
		mustDo(t, e.SetType(idx, tc.typ))
		if got := e.OptionsVisible(idx); got != tc.visible {
			t.Errorf("type %s: OptionsVisible = %v, want %v", tc.typ, got, tc.visible)
		}
	}
	if got := e.List()[idx].Type; got != model.FieldTypeText {
		t.Fatalf("unknown type should clamp to text, got %q", got)
	}
}

func TestSetOptionsNormalisesTransport(t *testing.T) {
	e := editor.New(nil)
	idx := e.Add()
	mustDo(t, e.SetType(idx, model.FieldTypeRadio))
	mustDo(t, e.SetOptions(idx, "a, b ,,c\r\nd"))

	if got := e.List()[idx].Options; got != "a,b,c,d" {
		t.Fatalf("options = %q", got)
	}
	if got := editor.OptionsText("a,b,c,d"); got != "a\nb\nc\nd" {
		t.Fatalf("OptionsText = %q", got)
	}
}

func TestRemoveIsGatedByConfirmer(t *testing.T) {
	answer := false
	var asked []string
	e := editor.New(
		model.List{{Label: "A", Name: "a"}, {Label: "B", Name: "b"}},
		editor.WithConfirmer(func(message string) bool {
			asked = append(asked, message)
			return answer
		}),
		editor.WithMessages(editor.Messages{RemoveConfirm: "Really?"}),
	)

	removed, err := e.Remove(0)
	if err != nil || removed {
		t.Fatalf("declined removal: removed=%v err=%v", removed, err)
	}
	if e.Len() != 2 {
		t.Fatalf("declined removal changed the list")
	}

	answer = true
	removed, err = e.Remove(0)
	if err != nil || !removed {
		t.Fatalf("confirmed removal: removed=%v err=%v", removed, err)
	}
	if diff := cmp.Diff([]string{"b"}, e.List().Names()); diff != "" {
		t.Fatalf("names after removal (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Really?", "Really?"}, asked); diff != "" {
		t.Fatalf("confirm prompts (-want +got):\n%s", diff)
	}

	if _, err := e.Remove(5); !errors.Is(err, editor.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestMoveReorders(t *testing.T) {
	e := editor.New(model.List{{Name: "a"}, {Name: "b"}, {Name: "c"}})

	mustDo(t, e.Move(0, 2))
	if diff := cmp.Diff([]string{"b", "c", "a"}, e.List().Names()); diff != "" {
		t.Fatalf("move forward (-want +got):\n%s", diff)
	}
	mustDo(t, e.Move(2, 0))
	if diff := cmp.Diff([]string{"a", "b", "c"}, e.List().Names()); diff != "" {
		t.Fatalf("move back (-want +got):\n%s", diff)
	}
	if err := e.Move(0, 3); !errors.Is(err, editor.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestEveryMutatorReserialises(t *testing.T) {
	var seen []string
	e := editor.New(nil, editor.WithChangeHandler(func(transport string) {
		seen = append(seen, transport)
	}))

	idx := e.Add()
	mustDo(t, e.SetLabel(idx, "Notes"))
	mustDo(t, e.SetType(idx, model.FieldTypeTextarea))
	mustDo(t, e.SetRequired(idx, true))
	mustDo(t, e.SetHint(idx, "Anything else?"))
	mustDo(t, e.Toggle(idx))

	if len(seen) != 6 {
		t.Fatalf("expected 6 change notifications, got %d", len(seen))
	}
	if seen[len(seen)-1] != e.Transport() {
		t.Fatalf("last notification differs from Transport()")
	}
	want := `[{"label":"Notes","name":"notes","type":"textarea","required":1,"hint":"Anything else?","options":""}]`
	if e.Transport() != want {
		t.Fatalf("transport = %s", e.Transport())
	}
}

func TestTransportFeedsNormalizer(t *testing.T) {
	e := editor.New(nil)
	a := e.Add()
	b := e.Add()
	mustDo(t, e.SetType(b, model.FieldTypeCheckbox))
	mustDo(t, e.SetOptions(b, "ignored"))
	mustDo(t, e.SetRequired(a, true))

	got, ok := sanitize.New().Normalize(context.Background(), e.Transport(), nil)
	if !ok {
		t.Fatalf("transport rejected: %s", e.Transport())
	}
	want := model.List{
		{Label: "Untitled", Name: "untitled", Type: model.FieldTypeText, Required: true},
		{Label: "Untitled", Name: "untitled_1", Type: model.FieldTypeCheckbox},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalized transport (-want +got):\n%s", diff)
	}
}

func TestMarkupRender(t *testing.T) {
	e := editor.New(model.List{
		{Label: "Phone", Name: "phone", Type: model.FieldTypeText, Required: true},
		{Label: "Size", Name: "size", Type: model.FieldTypeSelect, Options: "S,M"},
	})
	e.Add()

	markup, err := editor.NewMarkup()
	if err != nil {
		t.Fatalf("new markup: %v", err)
	}
	out, err := markup.Render(e, editor.Target{InputName: "codobookings_user_fields"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		`<div id="codobuf-fields-editor" class="codobuf-editor" data-target-input="codobuf-fields-json"`,
		`<input type="hidden" id="codobuf-fields-json" name="codobookings_user_fields" value="[{&quot;label&quot;:&quot;Phone&quot;`,
		`<strong class="codobuf-field-preview">Phone</strong>`,
		`<small class="codobuf-field-type-label">[select]</small>`,
		`<option value="select" selected>Select</option>`,
		`<input type="checkbox" class="codobuf-field-required" checked>`,
		"<textarea class=\"codobuf-field-options\" rows=\"3\">S\nM</textarea>",
		`<div class="codobuf-field-settings open">`,
		`<div class="codobuf-field-settings collapsed">`,
		`<tr class="codobuf-options-row" style="display:none;">`,
		`data-untitled="Untitled"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markup missing %q\n%s", want, out)
		}
	}
	if got := strings.Count(out, `<li class="codobuf-field-item"`); got != 3 {
		t.Fatalf("expected 3 items, got %d", got)
	}
}

func TestAssetsFS(t *testing.T) {
	for _, name := range []string{"fields-editor.js", "fields-editor.css"} {
		if _, err := fs.Stat(editor.AssetsFS(), name); err != nil {
			t.Errorf("asset %s: %v", name, err)
		}
	}
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
