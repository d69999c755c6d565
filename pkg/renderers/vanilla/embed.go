package vanilla

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl templates/fields/*.tmpl
var embeddedTemplates embed.FS

//go:embed assets/*
var embeddedAssets embed.FS

const (
	listTemplate  = "templates/list.tmpl"
	fieldTemplate = "templates/field.tmpl"

	// Theme partial keys for the wrapper chrome.
	partialList  = "userfields.list"
	partialField = "userfields.field"
)

// TemplatesFS exposes the embedded template bundle so hosts can layer theme
// templates on top of it.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

// AssetsFS exposes the embedded stylesheet so callers can serve it over HTTP.
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
