package render

import (
	"context"

	"github.com/goliatone/go-userfields/pkg/model"
)

// Renderer converts a field list into a byte representation (HTML fragment,
// admin markup, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, fields model.List, options RenderOptions) ([]byte, error)
}
