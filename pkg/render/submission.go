package render

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/sanitize"
)

// InputPrefix namespaces rendered inputs so they never collide with the host
// booking form.
const InputPrefix = "codobuf_"

// InputName returns the submission key for a field name.
func InputName(name string) string {
	return InputPrefix + name
}

// Source exposes one set of inbound values. Sources are consulted in the order
// they are passed; the first one holding a key wins.
type Source interface {
	Lookup(key string) (any, bool)
}

// MapSource wraps a pre-extracted payload such as decoded booking JSON.
type MapSource map[string]any

func (s MapSource) Lookup(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	value, ok := s[key]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// ValuesSource wraps url.Values (request form or query). Only the first value
// of a key is used.
type ValuesSource url.Values

func (s ValuesSource) Lookup(key string) (any, bool) {
	values, ok := s[key]
	if !ok || len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

func lookup(key string, sources []Source) (any, bool) {
	for _, source := range sources {
		if source == nil {
			continue
		}
		if value, ok := source.Lookup(key); ok {
			return value, true
		}
	}
	return nil, false
}

// ParseSubmission collects one typed value per field. Absent checkboxes record
// 0; other absent fields are omitted. Numbers parse as float64 (0 when the text
// is not a finite number), checkboxes as 1 or 0, everything else as plain
// text. The result is keyed by field name.
func ParseSubmission(list model.List, sources ...Source) model.Submission {
	out := make(model.Submission, len(list))
	for _, field := range list {
		raw, ok := lookup(InputName(field.Name), sources)
		if !ok {
			if field.Type == model.FieldTypeCheckbox {
				out[field.Name] = 0
			}
			continue
		}

		switch field.Type {
		case model.FieldTypeNumber:
			out[field.Name] = ParseNumber(raw)
		case model.FieldTypeCheckbox:
			if CheckboxChecked(raw) {
				out[field.Name] = 1
			} else {
				out[field.Name] = 0
			}
		default:
			out[field.Name] = sanitize.Text(sanitize.Scalar(raw))
		}
	}
	return out
}

// ParseNumber converts raw into a finite float64, returning 0 on failure.
func ParseNumber(raw any) float64 {
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	default:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(sanitize.Scalar(raw)), 64)
		if err != nil {
			return 0
		}
		value = parsed
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// CheckboxChecked reports whether a submitted checkbox value counts as ticked:
// bool true, non-zero numbers and the strings 1, on, true and yes.
func CheckboxChecked(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	switch strings.ToLower(strings.TrimSpace(sanitize.Scalar(raw))) {
	case "1", "on", "true", "yes":
		return true
	default:
		return false
	}
}

// HiddenField is a hidden input emitted next to a form's visible controls,
// such as an admin save nonce.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NonceField builds the hidden field carrying a save nonce.
func NonceField(name, token string) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: token}
}
