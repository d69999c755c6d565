package components

import "github.com/goliatone/go-userfields/pkg/model"

// Canonical component names. Field components share the field type name so
// dispatch is a direct lookup on model.Field.Type.
const (
	NameText     = string(model.FieldTypeText)
	NameNumber   = string(model.FieldTypeNumber)
	NameTextarea = string(model.FieldTypeTextarea)
	NameSelect   = string(model.FieldTypeSelect)
	NameRadio    = string(model.FieldTypeRadio)
	NameCheckbox = string(model.FieldTypeCheckbox)
)

// PartialKey is the theme partial that replaces the built-in template for a
// component, e.g. "userfields.select".
func PartialKey(name string) string {
	return "userfields." + normalize(name)
}
