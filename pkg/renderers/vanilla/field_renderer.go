package vanilla

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/render"
	"github.com/goliatone/go-userfields/pkg/renderers/vanilla/components"
)

func (r *Renderer) renderField(ctx context.Context, field model.Field, value any, errs []string) (string, error) {
	if field.Type == "" {
		field.Type = model.FieldTypeText
	}

	for _, override := range r.overrides {
		if markup, ok := override(ctx, field, value); ok {
			r.logger.Debug("field markup overridden", zap.String("field", field.Name))
			return markup, nil
		}
	}

	componentName := string(field.Type)
	descriptor, ok := r.registry.Descriptor(componentName)
	if !ok {
		return "", fmt.Errorf("vanilla renderer: component %q not registered for field %q", componentName, field.Name)
	}

	view := buildView(field, value, errs)
	var control bytes.Buffer
	if err := descriptor.Renderer(&control, view, components.ComponentData{
		Template: r.templates,
		Partials: r.theme.Partials,
	}); err != nil {
		return "", fmt.Errorf("vanilla renderer: render component %q for field %q: %w", componentName, field.Name, err)
	}

	out, err := r.templates.RenderTemplate(r.partial(partialField, fieldTemplate), map[string]any{
		"field":   view,
		"control": control.String(),
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render field %q: %w", field.Name, err)
	}
	return strings.TrimSpace(out), nil
}

func buildView(field model.Field, value any, errs []string) components.View {
	inputName := render.InputName(field.Name)
	view := components.View{
		ID:       inputName,
		Name:     inputName,
		Type:     string(field.Type),
		Label:    field.Label,
		Hint:     field.Hint,
		Required: field.Required,
		Errors:   errs,
	}

	switch field.Type {
	case model.FieldTypeCheckbox:
		view.Value = "1"
		view.Checked = value != nil && render.CheckboxChecked(value)
	case model.FieldTypeSelect, model.FieldTypeRadio:
		current := valueText(value)
		for _, option := range field.OptionValues() {
			view.Options = append(view.Options, components.OptionView{
				ID:       optionID(field.Name, option),
				Value:    option,
				Selected: value != nil && current == option,
			})
		}
		view.Value = current
	default:
		view.Value = valueText(value)
	}
	return view
}
