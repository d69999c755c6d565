// Package vanilla renders user fields as server-side HTML using the pongo2
// template bundle embedded in this package.
package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/render"
	rendertemplate "github.com/goliatone/go-userfields/pkg/render/template"
	gotemplate "github.com/goliatone/go-userfields/pkg/render/template/gotemplate"
	"github.com/goliatone/go-userfields/pkg/renderers/vanilla/components"
)

// FieldOverride may supply the complete markup for a field. Returning ok=true
// discards the built-in output for that field.
type FieldOverride func(ctx context.Context, field model.Field, value any) (markup string, ok bool)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	theme            *theme.RendererConfig
	overrides        []FieldOverride
	translator       render.Translator
	logger           *zap.Logger
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithRegistry replaces the default component registry.
func WithRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithTheme applies a go-theme renderer config: Partials keyed
// "userfields.<type>", "userfields.field" and "userfields.list" swap
// templates, CSSVars become the wrapper's inline style and AssetURL resolves
// component asset names.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithFieldOverride registers a full-override hook. Hooks run in registration
// order and the first one that answers wins.
func WithFieldOverride(fn FieldOverride) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.overrides = append(cfg.overrides, fn)
		}
	}
}

// WithTranslator exposes a translate() helper to templates.
func WithTranslator(t render.Translator) Option {
	return func(cfg *config) {
		cfg.translator = t
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer renders fields to HTML. It is safe for concurrent use once built.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	registry  *components.Registry
	theme     rendererTheme
	overrides []FieldOverride
	logger    *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.registry == nil {
		cfg.registry = components.NewDefaultRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS), gotemplate.WithExtension(".tmpl"))
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		if err := engine.GlobalContext(render.TemplateI18nFuncs(cfg.translator, render.TemplateI18nConfig{})); err != nil {
			return nil, fmt.Errorf("vanilla renderer: template helpers: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates: renderer,
		registry:  cfg.registry,
		theme:     buildThemeContext(cfg.theme),
		overrides: cfg.overrides,
		logger:    cfg.logger,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer. Labels and hints are localised through
// options.Translator; values and errors come from options.
func (r *Renderer) Render(ctx context.Context, fields model.List, options render.RenderOptions) ([]byte, error) {
	fields = render.LocalizeFields(fields, options)
	out, err := r.renderList(ctx, fields, options.Values, options.Errors)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// RenderField renders one field with its current value.
func (r *Renderer) RenderField(ctx context.Context, field model.Field, value any) (string, error) {
	return r.renderField(ctx, field, value, nil)
}

// RenderList renders every field inside the wrapper element. An empty list
// renders nothing at all.
func (r *Renderer) RenderList(ctx context.Context, fields model.List, values map[string]any) (string, error) {
	return r.renderList(ctx, fields, values, nil)
}

// Assets returns the stylesheet and script URLs the components used by fields
// depend on, resolved through the theme AssetURL when configured.
func (r *Renderer) Assets(fields model.List) (stylesheets []string, scripts []components.Script) {
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, string(field.Type))
	}
	stylesheets, scripts = r.registry.Assets(names)
	for i := range stylesheets {
		stylesheets[i] = r.theme.assetURL(stylesheets[i])
	}
	for i := range scripts {
		if scripts[i].Src != "" {
			scripts[i].Src = r.theme.assetURL(scripts[i].Src)
		}
	}
	return stylesheets, scripts
}

func (r *Renderer) renderList(ctx context.Context, fields model.List, values map[string]any, errs map[string][]string) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}

	rendered := make([]string, 0, len(fields))
	for _, field := range fields {
		markup, err := r.renderField(ctx, field, values[field.Name], errs[field.Name])
		if err != nil {
			return "", err
		}
		rendered = append(rendered, markup)
	}

	payload := map[string]any{
		"fields": rendered,
		"style":  r.theme.CSSVarsStyle,
		"theme":  r.theme.Name,
	}
	out, err := r.templates.RenderTemplate(r.partial(partialList, listTemplate), payload)
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render list: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Renderer) partial(key, fallback string) string {
	if candidate := strings.TrimSpace(r.theme.Partials[key]); candidate != "" {
		return candidate
	}
	return fallback
}
