package vanilla

import (
	"strings"

	"github.com/goliatone/go-userfields/pkg/render"
	"github.com/goliatone/go-userfields/pkg/sanitize"
)

// optionID builds the id of one radio input: the field input name, an
// underscore and the option slug.
func optionID(fieldName, option string) string {
	return render.InputName(fieldName) + "_" + slug(option)
}

// slug lower-cases s and collapses every run of characters outside [a-z0-9]
// into a single hyphen.
func slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// valueText formats a current value for an input's value attribute.
func valueText(value any) string {
	return sanitize.Scalar(value)
}

func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}
