package vanilla

// ChromeClass is a typed identifier for the CSS classes emitted around
// fields. Front-end scripts and host stylesheets target these names.
type ChromeClass string

const (
	ClassWrapper      ChromeClass = "codobuf-user-fields-wrapper"
	ClassField        ChromeClass = "codobuf-field"
	ClassRequiredStar ChromeClass = "codobuf-required-star"
	ClassFieldError   ChromeClass = "codobuf-field-error"
	ClassInvalid      ChromeClass = "codobuf-field-invalid"
)

// FieldClass returns the per-type modifier class, e.g. "codobuf-field-select".
func FieldClass(fieldType string) string {
	return string(ClassField) + "-" + fieldType
}
