package render

import (
	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/pipeline"
)

// RenderOptions describe per-call data renderers can use without touching the
// processed record.
type RenderOptions struct {
	// Format overrides the format attached by the template-format directive.
	Format directive.Format
	// Globals are exposed to templates next to the document view under the
	// "globals" key.
	Globals map[string]any
}

// ResolveFormat returns the format a renderer should produce: the override,
// then the directive value, then fallback.
func (o RenderOptions) ResolveFormat(result pipeline.Result, fallback directive.Format) directive.Format {
	if o.Format != "" {
		return o.Format
	}
	if result.Render.Format != "" {
		return result.Render.Format
	}
	return fallback
}
