package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the stored field list.
type RenderOptions struct {
	// Values pre-populates rendered controls keyed by field machine name.
	Values map[string]any
	// Errors surfaces server-side validation feedback keyed by field name. Use
	// MapErrorPayload to convert JSON pointer paths into names.
	Errors map[string][]string
	// Locale is passed to Translator when labels, hints and messages carry
	// translation keys.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}

// Value returns the pre-populated value for name, or nil.
func (o RenderOptions) Value(name string) any {
	if o.Values == nil {
		return nil
	}
	return o.Values[name]
}
