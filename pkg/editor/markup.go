package editor

import (
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/goliatone/go-userfields/pkg/model"
	rendertemplate "github.com/goliatone/go-userfields/pkg/render/template"
	gotemplate "github.com/goliatone/go-userfields/pkg/render/template/gotemplate"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

//go:embed assets/*
var embeddedAssets embed.FS

const (
	editorTemplate = "templates/editor.tmpl"
	itemTemplate   = "templates/item.tmpl"

	DefaultWrapperID = "codobuf-fields-editor"
	DefaultInputID   = "codobuf-fields-json"
)

// AssetsFS exposes the browser editor script and stylesheet.
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}

// Labels are the chrome captions of the admin markup.
type Labels struct {
	Edit        string
	Remove      string
	RemoveAria  string
	Add         string
	Label       string
	Name        string
	NameHelp    string
	Type        string
	Required    string
	Yes         string
	Options     string
	Hint        string
	Description string
}

// DefaultLabels returns the English captions.
func DefaultLabels() Labels {
	return Labels{
		Edit:        "Edit",
		Remove:      "Remove",
		RemoveAria:  "Remove field",
		Add:         "Add Field",
		Label:       "Label",
		Name:        "Name (unique)",
		NameHelp:    "Only lowercase letters, numbers and underscores. Auto-generated from label.",
		Type:        "Type",
		Required:    "Required",
		Yes:         "Yes",
		Options:     "Options (comma or newline separated)",
		Hint:        "Hint / placeholder",
		Description: "Use the editor to add, edit, reorder or remove fields.",
	}
}

// Target names the DOM elements an editor writes to. InputName is the form
// key the save handler reads the transport value from.
type Target struct {
	WrapperID string
	InputID   string
	InputName string
}

func (t Target) withDefaults() Target {
	if strings.TrimSpace(t.WrapperID) == "" {
		t.WrapperID = DefaultWrapperID
	}
	if strings.TrimSpace(t.InputID) == "" {
		t.InputID = DefaultInputID
	}
	if strings.TrimSpace(t.InputName) == "" {
		t.InputName = t.InputID
	}
	return t
}

type MarkupOption func(*markupConfig)

type markupConfig struct {
	templates rendertemplate.TemplateRenderer
	files     fs.FS
	labels    Labels
}

// WithMarkupTemplates swaps the template renderer.
func WithMarkupTemplates(renderer rendertemplate.TemplateRenderer) MarkupOption {
	return func(cfg *markupConfig) {
		if renderer != nil {
			cfg.templates = renderer
		}
	}
}

// WithMarkupFS loads editor templates from files instead of the embedded set.
func WithMarkupFS(files fs.FS) MarkupOption {
	return func(cfg *markupConfig) {
		if files != nil {
			cfg.files = files
		}
	}
}

// WithLabels replaces the chrome captions.
func WithLabels(labels Labels) MarkupOption {
	return func(cfg *markupConfig) {
		cfg.labels = labels
	}
}

// Markup renders an editor session as admin HTML.
type Markup struct {
	templates rendertemplate.TemplateRenderer
	labels    Labels
}

// NewMarkup builds the admin markup renderer.
func NewMarkup(options ...MarkupOption) (*Markup, error) {
	cfg := markupConfig{files: embeddedTemplates, labels: DefaultLabels()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templates == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.files), gotemplate.WithExtension(".tmpl"))
		if err != nil {
			return nil, fmt.Errorf("editor: configure templates: %w", err)
		}
		cfg.templates = engine
	}
	return &Markup{templates: cfg.templates, labels: cfg.labels}, nil
}

type typeView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type itemView struct {
	Index          string     `json:"index"`
	Label          string     `json:"label"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	Required       bool       `json:"required"`
	Hint           string     `json:"hint"`
	OptionsText    string     `json:"options_text"`
	Preview        string     `json:"preview"`
	Open           bool       `json:"open"`
	OptionsVisible bool       `json:"options_visible"`
	Types          []typeView `json:"types"`
}

// Render produces the wrapper, one list item per field, the add button and
// the hidden transport input.
func (m *Markup) Render(e *Editor, target Target) (string, error) {
	target = target.withDefaults()
	labels := m.labelMap()

	rendered := make([]string, 0, e.Len())
	for i, item := range e.Items() {
		out, err := m.templates.RenderTemplate(itemTemplate, map[string]any{
			"item":   m.itemView(e, i, item),
			"labels": labels,
		})
		if err != nil {
			return "", fmt.Errorf("editor: render item %d: %w", i, err)
		}
		rendered = append(rendered, strings.TrimSpace(out))
	}

	messages := e.Messages()
	out, err := m.templates.RenderTemplate(editorTemplate, map[string]any{
		"items":          rendered,
		"labels":         labels,
		"wrapper_id":     target.WrapperID,
		"input_id":       target.InputID,
		"input_name":     target.InputName,
		"transport":      e.Transport(),
		"untitled":       messages.Untitled,
		"remove_confirm": messages.RemoveConfirm,
	})
	if err != nil {
		return "", fmt.Errorf("editor: render list: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (m *Markup) itemView(e *Editor, i int, item Item) itemView {
	types := make([]typeView, 0, len(model.AllowedTypes()))
	for _, t := range model.AllowedTypes() {
		types = append(types, typeView{
			Value:    string(t),
			Label:    model.DefaultLabeler(string(t)),
			Selected: t == item.Field.Type,
		})
	}
	return itemView{
		Index:          strconv.Itoa(i),
		Label:          item.Field.Label,
		Name:           item.Field.Name,
		Type:           string(item.Field.Type),
		Required:       item.Field.Required,
		Hint:           item.Field.Hint,
		OptionsText:    OptionsText(normalizeOptions(item.Field.Options)),
		Preview:        e.Preview(i),
		Open:           item.Open,
		OptionsVisible: e.OptionsVisible(i),
		Types:          types,
	}
}

func (m *Markup) labelMap() map[string]string {
	l := m.labels
	return map[string]string{
		"edit":        l.Edit,
		"remove":      l.Remove,
		"remove_aria": l.RemoveAria,
		"add":         l.Add,
		"label":       l.Label,
		"name":        l.Name,
		"name_help":   l.NameHelp,
		"type":        l.Type,
		"required":    l.Required,
		"yes":         l.Yes,
		"options":     l.Options,
		"hint":        l.Hint,
		"description": l.Description,
	}
}
