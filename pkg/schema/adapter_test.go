package schema_test

import (
	"context"
	"os"
	"testing"

	"github.com/goliatone/go-fmschema/internal/loader"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

func TestJSONSchemaAdapter(t *testing.T) {
	l := loader.New(schema.NewLoaderOptions(schema.WithFileSystem(os.DirFS("testdata"))))
	adapter := schema.NewJSONSchemaAdapter(schema.NewResolver(l, schema.ResolveOptions{}))

	if adapter.Name() != schema.JSONSchemaAdapterName {
		t.Fatalf("unexpected name %q", adapter.Name())
	}
	src := schema.SourceFromFS("index.schema.yaml")
	if adapter.Detect(src, []byte(`openapi: 3.0.3`)) {
		t.Fatalf("OpenAPI payload must not be detected as JSON Schema")
	}
	if adapter.Detect(src, []byte(`[1, 2]`)) {
		t.Fatalf("array payload must not be detected")
	}

	raw, err := os.ReadFile("testdata/index.schema.yaml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !adapter.Detect(src, raw) {
		t.Fatalf("expected JSON Schema to be detected")
	}
	resolved, err := adapter.Normalize(context.Background(), schema.MustNewDocument(src, raw), schema.NormalizeOptions{Component: "ignored"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, err := schema.Scan(resolved, schema.ScanOptions{}); err != nil {
		t.Fatalf("scan: %v", err)
	}

	var nilAdapter *schema.JSONSchemaAdapter
	if _, err := nilAdapter.Normalize(context.Background(), schema.MustNewDocument(src, raw), schema.NormalizeOptions{}); err == nil {
		t.Fatalf("expected error from nil adapter")
	}
}
