package model

import "strings"

// FieldType enumerates the controls a user field can render as.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"

	// FieldTypeFile is accepted by older editors but has no storage path. The
	// sanitizer downgrades it to FieldTypeText.
	FieldTypeFile FieldType = "file"
)

var allowedTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeTextarea,
	FieldTypeSelect,
	FieldTypeRadio,
	FieldTypeCheckbox,
}

// AllowedTypes returns the field types the canonical sanitizer keeps, in the
// order editors present them.
func AllowedTypes() []FieldType {
	out := make([]FieldType, len(allowedTypes))
	copy(out, allowedTypes)
	return out
}

// Valid reports whether t is one of the allowed types.
func (t FieldType) Valid() bool {
	for _, allowed := range allowedTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

// ParseType clamps raw to an allowed type, defaulting to text.
func ParseType(raw string) FieldType {
	t := FieldType(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t
	}
	return FieldTypeText
}

// IsOptionBearing reports whether fields of type t carry an options list.
// Checkbox is a single boolean toggle and never has options.
func IsOptionBearing(t FieldType) bool {
	return t == FieldTypeSelect || t == FieldTypeRadio
}

// Field describes one user-authored form field. JSON and YAML keys match the
// persisted layout so stored blobs decode directly.
type Field struct {
	Label    string    `json:"label" yaml:"label"`
	Name     string    `json:"name" yaml:"name"`
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required" yaml:"required"`
	Hint     string    `json:"hint" yaml:"hint"`
	Options  string    `json:"options" yaml:"options"`
}

// DefaultField returns a field with every attribute at its documented default.
func DefaultField() Field {
	return Field{Type: FieldTypeText}
}

// OptionValues splits the stored options string. Fields whose type does not
// bear options always return nil.
func (f Field) OptionValues() []string {
	if !IsOptionBearing(f.Type) {
		return nil
	}
	return SplitOptions(f.Options)
}

// DisplayLabel returns the label, or fallback when the label is blank.
func (f Field) DisplayLabel(fallback string) string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return fallback
}

// List is an ordered collection of fields. Order is both display order and
// collection order.
type List []Field

// Clone returns a copy of the list that can be mutated independently.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Names returns the machine names in list order.
func (l List) Names() []string {
	names := make([]string, 0, len(l))
	for _, field := range l {
		names = append(names, field.Name)
	}
	return names
}

// Lookup finds a field by machine name.
func (l List) Lookup(name string) (Field, bool) {
	for _, field := range l {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Has reports whether a field with the given name exists.
func (l List) Has(name string) bool {
	_, ok := l.Lookup(name)
	return ok
}

// Mode selects which list an entity uses.
type Mode string

const (
	ModeGlobal Mode = "global"
	ModeNone   Mode = "none"
	ModeCustom Mode = "custom"
)

// ParseMode clamps raw to a known mode, defaulting to global.
func ParseMode(raw string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeGlobal, ModeNone, ModeCustom:
		return m
	default:
		return ModeGlobal
	}
}

// Position controls where fields render relative to the host widget.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
)

// ParsePosition clamps raw to a known position, defaulting to before.
func ParsePosition(raw string) Position {
	switch p := Position(strings.ToLower(strings.TrimSpace(raw))); p {
	case PositionBefore, PositionAfter:
		return p
	default:
		return PositionBefore
	}
}

// Override is the per-entity record stored alongside a calendar. CustomFields
// holds the JSON text of the entity's own list.
type Override struct {
	Mode         Mode     `json:"mode"`
	Position     Position `json:"position"`
	CustomFields string   `json:"custom_fields"`
}

// Normalized returns a copy with mode and position clamped to known values.
func (o Override) Normalized() Override {
	o.Mode = ParseMode(string(o.Mode))
	o.Position = ParsePosition(string(o.Position))
	return o
}

// Submission maps field names to collected values: float64 for number fields,
// int 0/1 for checkboxes and string for everything else.
type Submission map[string]any
