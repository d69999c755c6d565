package userfields

import (
	"errors"
	"io/fs"

	"github.com/goliatone/go-userfields/pkg/editor"
	"github.com/goliatone/go-userfields/pkg/renderers/vanilla"
)

// AssetsFS exposes every browser asset the module ships: the booking form
// stylesheet and script plus the admin editor script and stylesheet.
//
// Typical mount:
//
//	mux.Handle("/userfields/assets/",
//	  http.StripPrefix("/userfields/assets/",
//	    http.FileServerFS(userfields.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return unionFS{vanilla.AssetsFS(), editor.AssetsFS()}
}

// EmbeddedTemplates exposes the built-in form templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// unionFS opens a name from the first layer that has it.
type unionFS []fs.FS

func (u unionFS) Open(name string) (fs.File, error) {
	var firstErr error
	for _, layer := range u {
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil || !errors.Is(err, fs.ErrNotExist) {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return nil, firstErr
}
