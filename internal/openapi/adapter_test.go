package openapi

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-fmschema/pkg/schema"
)

func TestAdapter_Detect(t *testing.T) {
	adapter := NewAdapter()
	src := schema.SourceFromFile("doc.yaml")
	if !adapter.Detect(src, []byte(postsDocument)) {
		t.Fatalf("expected OpenAPI document to be detected")
	}
	if adapter.Detect(src, []byte(`{"type":"object"}`)) {
		t.Fatalf("plain JSON Schema must not be detected")
	}
	if adapter.Detect(src, []byte("{")) {
		t.Fatalf("invalid payload must not be detected")
	}
}

func TestAdapter_Normalize(t *testing.T) {
	adapter := NewAdapter()
	doc := schema.MustNewDocument(schema.SourceFromFile("posts.yaml"), []byte(postsDocument))

	resolved, err := adapter.Normalize(context.Background(), doc, schema.NormalizeOptions{Component: "Post"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	set, err := schema.Scan(resolved, schema.ScanOptions{Strict: true})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(set.Instances()) != 1 {
		t.Fatalf("expected one directive, got %d", len(set.Instances()))
	}

	_, err = adapter.Normalize(context.Background(), doc, schema.NormalizeOptions{})
	if err == nil || !strings.Contains(err.Error(), "component is required") {
		t.Fatalf("expected component required error, got %v", err)
	}
}

func TestAdapter_NormalizeSingleComponent(t *testing.T) {
	raw := `
openapi: 3.0.3
info: {title: One, version: 1.0.0}
paths: {}
components:
  schemas:
    Only:
      type: object
      properties:
        tags:
          type: array
          x-flatten-arrays: true
`
	doc := schema.MustNewDocument(schema.SourceFromFile("one.yaml"), []byte(raw))
	resolved, err := NewAdapter().Normalize(context.Background(), doc, schema.NormalizeOptions{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	props, _ := resolved["properties"].(map[string]any)
	if _, ok := props["tags"]; !ok {
		t.Fatalf("expected tags property, got %v", resolved)
	}
}
