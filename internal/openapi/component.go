// Package openapi reads directive schemas out of OpenAPI 3 documents.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-fmschema/pkg/document"
)

// ComponentNames lists the components.schemas entries of an OpenAPI document
// in lexical order.
func ComponentNames(ctx context.Context, raw []byte) ([]string, error) {
	doc, err := load(ctx, raw)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ComponentSchema converts components.schemas[name] into a JSON-like schema
// tree with every $ref inlined, ready for schema.Scan. Vendor extensions are
// kept; extensions of allOf members are merged into the parent.
func ComponentSchema(ctx context.Context, raw []byte, name string) (map[string]any, error) {
	doc, err := load(ctx, raw)
	if err != nil {
		return nil, err
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref == nil {
		names := make([]string, 0, len(doc.Components.Schemas))
		for candidate := range doc.Components.Schemas {
			names = append(names, candidate)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("openapi: component %q not found (have %s)", name, strings.Join(names, ", "))
	}
	return convert(ref, make(map[*openapi3.Schema]bool))
}

func load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, errors.New("openapi: document has no component schemas")
	}
	return doc, nil
}

func convert(ref *openapi3.SchemaRef, visiting map[*openapi3.Schema]bool) (map[string]any, error) {
	if ref == nil || ref.Value == nil {
		return map[string]any{}, nil
	}
	src := ref.Value
	if visiting[src] {
		return nil, fmt.Errorf("openapi: recursive schema at %q", ref.Ref)
	}
	visiting[src] = true
	defer delete(visiting, src)

	out := make(map[string]any)
	if src.Type != nil {
		if types := src.Type.Slice(); len(types) == 1 {
			out["type"] = types[0]
		} else if len(types) > 1 {
			list := make([]any, len(types))
			for idx, value := range types {
				list[idx] = value
			}
			out["type"] = list
		}
	}
	setString(out, "title", src.Title)
	setString(out, "description", src.Description)
	setString(out, "format", src.Format)
	if src.Default != nil {
		out["default"] = document.Normalize(src.Default)
	}
	if len(src.Enum) > 0 {
		out["enum"] = document.Normalize(src.Enum)
	}
	if len(src.Required) > 0 {
		required := make([]any, len(src.Required))
		for idx, value := range src.Required {
			required[idx] = value
		}
		out["required"] = required
	}

	properties := make(map[string]any, len(src.Properties))
	for name, prop := range src.Properties {
		converted, err := convert(prop, visiting)
		if err != nil {
			return nil, err
		}
		properties[name] = converted
	}
	for _, member := range src.AllOf {
		converted, err := convert(member, visiting)
		if err != nil {
			return nil, err
		}
		if nested, ok := converted["properties"].(map[string]any); ok {
			for name, value := range nested {
				if _, exists := properties[name]; !exists {
					properties[name] = value
				}
			}
		}
		for key, value := range converted {
			if isExtension(key) {
				if _, exists := out[key]; !exists {
					out[key] = value
				}
			}
		}
	}
	if len(properties) > 0 {
		out["properties"] = properties
	}

	if src.Items != nil {
		items, err := convert(src.Items, visiting)
		if err != nil {
			return nil, err
		}
		out["items"] = items
	}

	for key, value := range src.Extensions {
		if isExtension(key) {
			out[key] = document.Normalize(value)
		}
	}
	return out, nil
}

func setString(out map[string]any, key, value string) {
	if value != "" {
		out[key] = value
	}
}

func isExtension(key string) bool {
	return strings.HasPrefix(strings.ToLower(key), "x-")
}
