package schema_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/internal/loader"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

func resolveFS(t *testing.T, name string, opts schema.ResolveOptions) (map[string]any, error) {
	t.Helper()
	files := os.DirFS("testdata")
	raw, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	l := loader.New(schema.NewLoaderOptions(schema.WithFileSystem(files)))
	resolver := schema.NewResolver(l, opts)
	return resolver.Resolve(context.Background(), schema.MustNewDocument(schema.SourceFromFS(name), raw))
}

func TestResolver_InlinesRelativeRefsAndKeepsSiblingDirectives(t *testing.T) {
	resolved, err := resolveFS(t, "index.schema.yaml", schema.ResolveOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	props := resolved["properties"].(map[string]any)

	want := map[string]any{
		"type":           "object",
		"properties":     map[string]any{"name": map[string]any{"type": "string"}},
		"x-extract-from": "meta.author",
	}
	if diff := cmp.Diff(want, props["author"]); diff != "" {
		t.Fatalf("author mismatch (-want +got):\n%s", diff)
	}

	entry := props["entries"].(map[string]any)["items"].(map[string]any)
	slug := entry["properties"].(map[string]any)["slug"]
	if diff := cmp.Diff(map[string]any{"type": "string", "x-derived-from": []any{"slug", "title"}}, slug); diff != "" {
		t.Fatalf("slug mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_DetectsCycles(t *testing.T) {
	_, err := resolveFS(t, "cycle.schema.json", schema.ResolveOptions{})
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestResolver_Guardrails(t *testing.T) {
	files := fstest.MapFS{
		"root/main.json":   {Data: []byte(`{"properties":{"a":{"$ref":"../outside.json"}}}`)},
		"outside.json":     {Data: []byte(`{"type":"string"}`)},
		"root/remote.json": {Data: []byte(`{"properties":{"a":{"$ref":"https://example.com/a.json"}}}`)},
		"root/big.json":    {Data: []byte(`{"properties":{"a":{"$ref":"other.json"}}}`)},
		"root/other.json":  {Data: []byte(`{"type":"string","description":"` + strings.Repeat("x", 64) + `"}`)},
	}
	l := loader.New(schema.NewLoaderOptions(schema.WithFileSystem(files)))
	resolve := func(name string, opts schema.ResolveOptions) error {
		raw, err := files.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		_, err = schema.NewResolver(l, opts).Resolve(context.Background(), schema.MustNewDocument(schema.SourceFromFS(name), raw))
		return err
	}

	if err := resolve("root/main.json", schema.ResolveOptions{}); err == nil || !strings.Contains(err.Error(), "escapes root") {
		t.Fatalf("expected traversal error, got %v", err)
	}
	if err := resolve("root/main.json", schema.ResolveOptions{AllowPathTraversal: true}); err != nil {
		t.Fatalf("traversal allowed: %v", err)
	}
	if err := resolve("root/remote.json", schema.ResolveOptions{}); err == nil || !strings.Contains(err.Error(), "http refs disabled") {
		t.Fatalf("expected http refs error, got %v", err)
	}
	if err := resolve("root/big.json", schema.ResolveOptions{MaxDocumentBytes: 60}); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestResolver_LocalPointerAndAnchor(t *testing.T) {
	raw := []byte(`{
  "$defs": {
    "name": {"$anchor": "name", "type": "string"}
  },
  "properties": {
    "byPointer": {"$ref": "#/$defs/name", "title": "Pointer"},
    "byAnchor": {"$ref": "#name"}
  }
}`)
	resolved, err := schema.NewResolver(nil, schema.ResolveOptions{}).Resolve(context.Background(), schema.MustNewDocument(schema.SourceFromFS("inline.json"), raw))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	props := resolved["properties"].(map[string]any)
	if diff := cmp.Diff(map[string]any{"$anchor": "name", "type": "string", "title": "Pointer"}, props["byPointer"]); diff != "" {
		t.Fatalf("pointer mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"$anchor": "name", "type": "string"}, props["byAnchor"]); diff != "" {
		t.Fatalf("anchor mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_RejectsUnsupportedSiblings(t *testing.T) {
	raw := []byte(`{"$defs":{"a":{"type":"string"}},"properties":{"a":{"$ref":"#/$defs/a","minLength":3}}}`)
	_, err := schema.NewResolver(nil, schema.ResolveOptions{}).Resolve(context.Background(), schema.MustNewDocument(schema.SourceFromFS("inline.json"), raw))
	if err == nil || !strings.Contains(err.Error(), "minLength") {
		t.Fatalf("expected sibling error, got %v", err)
	}
}
