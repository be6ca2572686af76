package fmschema

import (
	"context"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/pkg/document"
	"github.com/goliatone/go-fmschema/pkg/orchestrator"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

const listSchema = `{
  "type": "object",
  "x-template": "list.html",
  "x-template-items": "item.html",
  "properties": {
    "posts": {
      "type": "array",
      "x-frontmatter-part": true,
      "items": {
        "properties": {
          "title": {"type": "string", "x-derived-from": ["headline", "title"]}
        }
      }
    }
  }
}`

func TestEmbeddedTemplates(t *testing.T) {
	for _, name := range []string{"list.html", "item.html"} {
		if _, err := fs.ReadFile(EmbeddedTemplates(), name); err != nil {
			t.Fatalf("expected %s to be readable: %v", name, err)
		}
	}
}

func TestGenerateFromDocument_EmbeddedTemplates(t *testing.T) {
	doc, err := schema.NewDocument(schema.SourceFromFile("list.schema.json"), []byte(listSchema))
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	record := document.New("notes.md", map[string]any{
		"title": "Notes",
		"posts": []any{
			map[string]any{"headline": "One", "title": "first"},
			map[string]any{"title": "Two"},
		},
	})

	out, err := GenerateFromDocument(context.Background(), doc, []document.Record{record},
		orchestrator.WithTemplates(EmbeddedTemplates()),
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := out.Err(); err != nil {
		t.Fatalf("failures: %v", err)
	}
	if len(out.Rendered) != 1 {
		t.Fatalf("expected one rendered result, got %d", len(out.Rendered))
	}
	want := "<article>\n<h1>Notes</h1>\n<ul><li>One</li><li>Two</li></ul>\n</article>\n"
	if diff := cmp.Diff(want, string(out.Rendered[0].Body)); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_MissingSchema(t *testing.T) {
	_, err := Generate(context.Background(), schema.SourceFromFile("testdata/missing.json"), nil)
	if err == nil {
		t.Fatalf("expected error for missing schema")
	}
}
