package orchestrator_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/pkg/orchestrator"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

type prefixAdapter struct {
	name   string
	prefix string
}

func (a prefixAdapter) Name() string { return a.name }

func (a prefixAdapter) Detect(_ schema.Source, raw []byte) bool {
	return bytes.HasPrefix(raw, []byte(a.prefix))
}

func (a prefixAdapter) Normalize(context.Context, schema.Document, schema.NormalizeOptions) (map[string]any, error) {
	return map[string]any{"format": a.name}, nil
}

func TestAdapterRegistry_SelectProbesInRegistrationOrder(t *testing.T) {
	registry := orchestrator.NewAdapterRegistry()
	registry.MustRegister(prefixAdapter{name: "OpenAPI", prefix: `{"openapi"`}, "oas")
	registry.MustRegister(prefixAdapter{name: "jsonschema", prefix: `{`})

	if diff := cmp.Diff([]string{"openapi", "jsonschema"}, registry.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	doc := schema.MustNewDocument(schema.SourceFromFS("api.json"), []byte(`{"openapi":"3.0.3"}`))
	adapter, err := registry.Select("", doc, "")
	if err != nil || adapter.Name() != "OpenAPI" {
		t.Fatalf("expected openapi, got %v (err %v)", adapter, err)
	}

	doc = schema.MustNewDocument(schema.SourceFromFS("post.json"), []byte(`{"type":"object"}`))
	adapter, err = registry.Select("", doc, "")
	if err != nil || adapter.Name() != "jsonschema" {
		t.Fatalf("expected jsonschema, got %v (err %v)", adapter, err)
	}

	adapter, err = registry.Select(" OAS ", doc, "")
	if err != nil || adapter.Name() != "OpenAPI" {
		t.Fatalf("explicit alias should win over detection, got %v (err %v)", adapter, err)
	}
}

func TestAdapterRegistry_Fallback(t *testing.T) {
	registry := orchestrator.NewAdapterRegistry()
	registry.MustRegister(prefixAdapter{name: "openapi", prefix: `{"openapi"`})
	doc := schema.MustNewDocument(schema.SourceFromFS("post.yaml"), []byte("type: object\n"))

	if _, err := registry.Select("", doc, ""); err == nil || !strings.Contains(err.Error(), "post.yaml") {
		t.Fatalf("expected detection error naming the schema, got %v", err)
	}
	adapter, err := registry.Select("", doc, "openapi")
	if err != nil || adapter.Name() != "openapi" {
		t.Fatalf("expected fallback adapter, got %v (err %v)", adapter, err)
	}
	if _, err := registry.Select("xml", doc, ""); err == nil || !strings.Contains(err.Error(), "known: openapi") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestAdapterRegistry_RegisterConflicts(t *testing.T) {
	registry := orchestrator.NewAdapterRegistry()
	registry.MustRegister(prefixAdapter{name: "openapi"}, "oas")

	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil adapter error")
	}
	if err := registry.Register(prefixAdapter{name: " "}); err == nil {
		t.Fatalf("expected empty name error")
	}
	if err := registry.Register(prefixAdapter{name: "swagger"}, "OAS"); err == nil {
		t.Fatalf("expected alias conflict")
	}
	if _, err := registry.Get("swagger"); err == nil {
		t.Fatalf("a rejected registration must not leave the adapter behind")
	}
}
