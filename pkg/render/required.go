package render

import (
	"strings"

	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/sanitize"
)

// RequiredFieldError blocks a booking when a required field is missing.
type RequiredFieldError struct {
	Field   model.Field
	Message string
}

func (e *RequiredFieldError) Error() string {
	return e.Message
}

// CheckRequired walks list in order and returns a *RequiredFieldError for the
// first required field whose submitted value is blank (or unchecked, for a
// checkbox). It returns nil when every required field is satisfied.
func CheckRequired(list model.List, messages Messages, sources ...Source) error {
	for _, field := range list {
		if !field.Required {
			continue
		}
		raw, ok := lookup(InputName(field.Name), sources)
		if ok && satisfied(field, raw) {
			continue
		}
		return &RequiredFieldError{
			Field:   field,
			Message: messages.Required(field.Label),
		}
	}
	return nil
}

func satisfied(field model.Field, raw any) bool {
	if field.Type == model.FieldTypeCheckbox {
		return CheckboxChecked(raw)
	}
	switch raw.(type) {
	case float64, int, int64:
		return true
	}
	return strings.TrimSpace(sanitize.Text(sanitize.Scalar(raw))) != ""
}
