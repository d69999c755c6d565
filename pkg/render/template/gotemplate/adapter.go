// Package gotemplate renders pongo2 templates loaded from an fs.FS. Data is
// passed through its JSON encoding, so templates address struct fields by
// their JSON keys and output is autoescaped.
package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-userfields/pkg/render/template"
)

const defaultExtension = ".tmpl"

// Option configures an Engine.
type Option func(*Engine)

// WithFS sets the template bundle. It is required.
func WithFS(files fs.FS) Option {
	return func(e *Engine) {
		e.files = files
	}
}

// WithExtension sets the suffix appended to template names that lack it.
func WithExtension(ext string) Option {
	return func(e *Engine) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.ext = ext
	}
}

// Engine is a template.TemplateRenderer backed by a pongo2 template set.
// Parsed templates are cached by path.
type Engine struct {
	files fs.FS
	ext   string

	mu    sync.RWMutex
	set   *pongo2.TemplateSet
	cache map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine over the WithFS bundle.
func New(options ...Option) (*Engine, error) {
	e := &Engine{ext: defaultExtension, cache: make(map[string]*pongo2.Template)}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.files == nil {
		return nil, errors.New("gotemplate: template fs is required")
	}
	e.set = pongo2.NewSet("userfields", pongo2.NewFSLoader(e.files))
	e.set.Globals = pongo2.Context{}
	return e, nil
}

// RenderTemplate executes the named template and returns the output, also
// copying it to every writer in out.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("gotemplate: engine is nil")
	}
	path := name
	if !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	tmpl, err := e.load(path)
	if err != nil {
		return "", err
	}
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: convert data for %q: %w", path, err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(ctx, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %q: %w", path, err)
	}

	for _, w := range out {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// GlobalContext merges data into the values every template sees. Functions
// are kept callable, everything else goes through the JSON conversion.
func (e *Engine) GlobalContext(data map[string]any) error {
	if e == nil || e.set == nil {
		return errors.New("gotemplate: engine is nil")
	}
	ctx, err := toContext(data)
	if err != nil {
		return fmt.Errorf("gotemplate: convert globals: %w", err)
	}
	e.mu.Lock()
	e.set.Globals.Update(ctx)
	e.mu.Unlock()
	return nil
}

func (e *Engine) load(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.cache[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %q: %w", path, err)
	}
	e.cache[path] = tmpl
	return tmpl, nil
}

// toContext converts each top-level value to plain maps, slices and scalars.
func toContext(data any) (pongo2.Context, error) {
	var values map[string]any
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case map[string]any:
		values = v
	case pongo2.Context:
		values = v
	default:
		if err := roundTrip(v, &values); err != nil {
			return nil, err
		}
	}

	ctx := make(pongo2.Context, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
			ctx[key] = value
			continue
		}
		var plain any
		if err := roundTrip(value, &plain); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		ctx[key] = plain
	}
	return ctx, nil
}

func roundTrip(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
