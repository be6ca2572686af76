package schema

import (
	"context"
	"errors"
)

// NormalizeOptions carries per-request adapter hints.
type NormalizeOptions struct {
	// Component selects one named schema out of a document that holds many
	// (OpenAPI components.schemas).
	Component string
}

// FormatAdapter turns a schema document of one format into the resolved tree
// Scan consumes.
type FormatAdapter interface {
	Name() string
	Detect(src Source, raw []byte) bool
	Normalize(ctx context.Context, doc Document, opts NormalizeOptions) (map[string]any, error)
}

// JSONSchemaAdapterName is the registry name of the JSON Schema adapter.
const JSONSchemaAdapterName = "jsonschema"

// JSONSchemaAdapter resolves JSON Schema documents (JSON or YAML).
type JSONSchemaAdapter struct {
	resolver *Resolver
}

var _ FormatAdapter = (*JSONSchemaAdapter)(nil)

// NewJSONSchemaAdapter constructs the adapter on top of resolver.
func NewJSONSchemaAdapter(resolver *Resolver) *JSONSchemaAdapter {
	return &JSONSchemaAdapter{resolver: resolver}
}

func (a *JSONSchemaAdapter) Name() string { return JSONSchemaAdapterName }

// Detect accepts any object payload that does not announce itself as OpenAPI
// or Swagger.
func (a *JSONSchemaAdapter) Detect(_ Source, raw []byte) bool {
	payload, err := Parse(raw)
	if err != nil {
		return false
	}
	return !IsOpenAPI(payload)
}

// Normalize resolves every $ref of doc. The component hint is ignored.
func (a *JSONSchemaAdapter) Normalize(ctx context.Context, doc Document, _ NormalizeOptions) (map[string]any, error) {
	if a == nil || a.resolver == nil {
		return nil, errors.New("jsonschema adapter: resolver is nil")
	}
	return a.resolver.Resolve(ctx, doc)
}

// IsOpenAPI reports whether a parsed payload is an OpenAPI or Swagger document.
func IsOpenAPI(payload map[string]any) bool {
	if _, ok := payload["openapi"]; ok {
		return true
	}
	_, ok := payload["swagger"]
	return ok
}
