// Package fmschema processes front matter documents with the directives a
// JSON Schema (or OpenAPI component) declares through x- extensions, and
// renders the results.
package fmschema

import (
	"context"

	"github.com/goliatone/go-fmschema/pkg/document"
	"github.com/goliatone/go-fmschema/pkg/orchestrator"
	"github.com/goliatone/go-fmschema/pkg/render"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

// RenderOptions describes per-request render overrides.
type RenderOptions = render.RenderOptions

// Request describes one run.
type Request = orchestrator.Request

// Output collects the rendered results and failures of a run.
type Output = orchestrator.Output

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Generate loads the schema at source, processes records as one batch and
// renders every result with the default renderer selection.
func Generate(ctx context.Context, source schema.Source, records []document.Record, options ...orchestrator.Option) (Output, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source:    source,
		Documents: records,
	})
}

// GenerateFromDocument is Generate for a schema that is already in memory.
func GenerateFromDocument(ctx context.Context, doc schema.Document, records []document.Record, options ...orchestrator.Option) (Output, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		SchemaDocument: &doc,
		Documents:      records,
	})
}
