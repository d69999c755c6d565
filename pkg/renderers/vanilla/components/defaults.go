package components

import (
	"bytes"
	"fmt"
	"strings"
)

const templatePrefix = "templates/fields/"

// Asset names shared by every built-in component.
const (
	StylesheetName     = "userfields.css"
	FrontendScriptName = "userfields-frontend.js"
)

// NewDefaultRegistry constructs a registry pre-populated with one template
// component per field type.
func NewDefaultRegistry() *Registry {
	registry := New()
	for _, name := range []string{NameText, NameNumber, NameTextarea, NameSelect, NameRadio, NameCheckbox} {
		registry.MustRegister(name, Descriptor{
			Renderer:    TemplateRenderer(PartialKey(name), templatePrefix+name+".tmpl"),
			Stylesheets: []string{StylesheetName},
			Scripts:     []Script{{Src: FrontendScriptName, Defer: true}},
		})
	}
	return registry
}

// TemplateRenderer renders templateName, or the theme partial registered
// under partialKey when present.
func TemplateRenderer(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, view View, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}

		resolved := templateName
		if candidate := strings.TrimSpace(data.Partials[partialKey]); candidate != "" {
			resolved = candidate
		}

		rendered, err := data.Template.RenderTemplate(resolved, map[string]any{"field": view})
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", resolved, err)
		}
		buf.WriteString(strings.TrimSpace(rendered))
		return nil
	}
}
