package sanitize

import (
	"html"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// maxStripPasses bounds the markup passes; stripping can expose a new tag
// (as in "<<b>i>") so Text repeats until the output is stable.
const maxStripPasses = 4

// Text reduces untrusted input to a single line of plain text: markup is
// stripped (script and style bodies included), control characters and invalid
// UTF-8 are removed and whitespace runs collapse to a single space. Entities
// already present in raw are kept as written, so Text(Text(s)) == Text(s).
func Text(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "")
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	cleaned = stripMarkup(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

func stripMarkup(s string) string {
	for i := 0; i < maxStripPasses && strings.Contains(s, "<"); i++ {
		// Escaping "&" first makes the tokenizer hand literal entities back
		// untouched once the sanitizer output is unescaped.
		next := html.UnescapeString(textSanitizer().Sanitize(strings.ReplaceAll(s, "&", "&amp;")))
		if next == s {
			break
		}
		s = next
	}
	return s
}

// Key lower-cases raw and keeps only [a-z0-9_-], the shape used for type,
// mode and position identifiers.
func Key(raw string) string {
	raw = strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
