package model

import (
	"regexp"
	"strconv"
	"strings"
)

// NamePrefix is prepended to derived names that do not start with a letter.
const NamePrefix = "f_"

var (
	validNamePattern   = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	invalidNameRunes   = regexp.MustCompile(`[^a-z0-9_]+`)
	optionSplitPattern = regexp.MustCompile(`\r\n|[\r\n]|,`)
)

// DeriveName converts a label into a machine name: lower-case, runs of
// characters outside [a-z0-9_] collapse to "_", surrounding underscores are
// stripped and NamePrefix is added when the result does not start with a
// letter. The result always matches ^[a-z][a-z0-9_]*$.
func DeriveName(label string) string {
	name := strings.ToLower(strings.TrimSpace(label))
	name = invalidNameRunes.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" || !isLowerLetter(name[0]) {
		name = NamePrefix + name
	}
	return name
}

// ValidName reports whether name is a well-formed machine name.
func ValidName(name string) bool {
	return validNamePattern.MatchString(name)
}

// CleanName keeps names that are already valid and derives the rest. Valid
// names pass through untouched so cleaning is idempotent.
func CleanName(raw string) string {
	if ValidName(raw) {
		return raw
	}
	return DeriveName(raw)
}

// UniqueName appends _1, _2, ... to candidate until taken reports false.
func UniqueName(candidate string, taken func(string) bool) string {
	if taken == nil || !taken(candidate) {
		return candidate
	}
	for counter := 1; ; counter++ {
		next := candidate + "_" + strconv.Itoa(counter)
		if !taken(next) {
			return next
		}
	}
}

// SplitOptions splits raw options on commas and line breaks, trimming each
// entry and dropping empties while preserving order.
func SplitOptions(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := optionSplitPattern.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// JoinOptions is the inverse of SplitOptions for already-clean entries.
func JoinOptions(options []string) string {
	return strings.Join(options, ",")
}

func isLowerLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}
