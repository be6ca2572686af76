package template

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/pipeline"
	"github.com/goliatone/go-fmschema/pkg/render"
)

// TemplateRenderer is the engine seam the Renderer relies on.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

// Name is the registry name of Renderer.
const Name = "template"

// Option configures a Renderer.
type Option func(*Renderer)

// WithSanitizer overrides the HTML sanitizer. Passing nil disables
// sanitizing.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Renderer) {
		r.sanitizer = s
	}
}

// Renderer renders the template named by the template directive. When an
// item template is attached, every element of the active partition is rendered
// with it first and the fragments are exposed to the page template as
// "rendered". HTML fragments pass through the sanitizer before they reach the
// page.
type Renderer struct {
	engine    TemplateRenderer
	sanitizer Sanitizer
}

var _ render.Renderer = (*Renderer)(nil)

// NewRenderer wraps engine.
func NewRenderer(engine TemplateRenderer, opts ...Option) (*Renderer, error) {
	if engine == nil {
		return nil, fmt.Errorf("template: engine is required")
	}
	r := &Renderer{engine: engine, sanitizer: UGCSanitizer()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

func (r *Renderer) Name() string { return Name }

func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, result pipeline.Result, options render.RenderOptions) ([]byte, error) {
	if strings.TrimSpace(result.Render.Template) == "" {
		return nil, render.ErrMissingTemplate
	}
	format := options.ResolveFormat(result, directive.FormatHTML)
	view := render.View(result, options)

	rendered := []any{}
	if item := result.Render.ItemTemplate; item != "" {
		items, _ := view["items"].([]any)
		for idx, value := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			fragment, err := r.engine.Render(item, map[string]any{
				"item":    value,
				"index":   idx,
				"source":  view["source"],
				"data":    view["data"],
				"globals": view["globals"],
			})
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", idx, err)
			}
			if format == directive.FormatHTML && r.sanitizer != nil {
				fragment = r.sanitizer.Sanitize(fragment)
			}
			rendered = append(rendered, fragment)
		}
	}
	view["rendered"] = rendered

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := r.engine.Render(result.Render.Template, view)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
