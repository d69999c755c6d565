package model

import (
	"regexp"
	"strings"
)

var splitWordsPattern = regexp.MustCompile(`[_\-\s]+`)

// DefaultLabeler turns a machine name back into a readable caption for places
// that only have the stored name, such as a booking's submission record.
// "phone_number" becomes "Phone Number" and "f_1st_choice" becomes
// "F 1st Choice".
func DefaultLabeler(name string) string {
	if name == "" {
		return ""
	}

	words := splitWordsPattern.Split(name, -1)
	var segments []string
	for _, word := range words {
		if word == "" {
			continue
		}
		segments = append(segments, titleCase(word))
	}
	return strings.TrimSpace(strings.Join(segments, " "))
}

// LabelFor prefers the label of the matching field in list and falls back to
// DefaultLabeler.
func LabelFor(list List, name string) string {
	if field, ok := list.Lookup(name); ok {
		if label := strings.TrimSpace(field.Label); label != "" {
			return label
		}
	}
	return DefaultLabeler(name)
}

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	lower := strings.ToLower(word)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
