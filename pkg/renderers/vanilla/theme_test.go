package vanilla_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-userfields/pkg/renderers/vanilla"
)

func acmeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens:  map[string]string{"brand": "#123456"},
		Templates: map[string]string{
			"userfields.text": "themes/acme/text.tmpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files:  map[string]string{"userfields.css": "theme.css"},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens:    map[string]string{"brand": "#654321"},
				Templates: map[string]string{"userfields.checkbox": "themes/acme/dark/checkbox.tmpl"},
				Assets: theme.Assets{
					Files: map[string]string{"userfields-frontend.js": "frontend.dark.js"},
				},
			},
		},
	}
}

func TestThemeConfigFromSelectionMergesVariant(t *testing.T) {
	cfg := vanilla.ThemeConfigFromSelection(&theme.Selection{Theme: "acme", Variant: "dark", Manifest: acmeManifest()})

	wantPartials := map[string]string{
		"userfields.text":     "themes/acme/text.tmpl",
		"userfields.checkbox": "themes/acme/dark/checkbox.tmpl",
	}
	if diff := cmp.Diff(wantPartials, cfg.Partials); diff != "" {
		t.Fatalf("partials mismatch (-want +got):\n%s", diff)
	}
	if cfg.CSSVars["--brand"] != "#654321" {
		t.Fatalf("css vars not derived from variant tokens: %v", cfg.CSSVars)
	}
	if got := cfg.AssetURL("userfields.css"); got != "/assets/themes/acme/theme.css" {
		t.Fatalf("stylesheet url = %q", got)
	}
	if got := cfg.AssetURL("userfields-frontend.js"); got != "/assets/themes/acme/frontend.dark.js" {
		t.Fatalf("script url = %q", got)
	}
	if got := cfg.AssetURL("unknown"); got != "" {
		t.Fatalf("unknown asset url = %q", got)
	}
}

type stubSelector struct {
	selection *theme.Selection
	err       error
}

func (s stubSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.selection, nil
}

func TestSelectTheme(t *testing.T) {
	cfg, err := vanilla.SelectTheme(stubSelector{selection: &theme.Selection{Theme: "acme", Manifest: acmeManifest()}}, "acme", "")
	if err != nil {
		t.Fatalf("select theme: %v", err)
	}
	if cfg.Theme != "acme" || cfg.CSSVars["--brand"] != "#123456" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := vanilla.SelectTheme(stubSelector{err: errors.New("nope")}, "acme", ""); err == nil {
		t.Fatalf("expected selector error to propagate")
	}
}
