package render

import (
	"context"

	"github.com/goliatone/go-fmschema/pkg/pipeline"
)

// Renderer turns a processed document into bytes (JSON, YAML, HTML, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, result pipeline.Result, options RenderOptions) ([]byte, error)
}
