package frontmatter_test

import (
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/pkg/frontmatter"
)

func TestExtract_YAML(t *testing.T) {
	raw, err := os.ReadFile("testdata/posts/01-hello.md")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	record, body, err := frontmatter.Extract("01-hello.md", raw)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := map[string]any{
		"title": "Hello",
		"draft": false,
		"tags":  []any{"go", []any{"yaml", "parsing"}},
	}
	if diff := cmp.Diff(want, record.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if got := string(body); got != "# Hello\n\nBody text.\n" {
		t.Fatalf("unexpected body %q", got)
	}
	if record.Source() != "01-hello.md" {
		t.Fatalf("unexpected source %q", record.Source())
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		data   map[string]any
		body   string
		format frontmatter.Format
	}{
		{
			name:   "json fence",
			raw:    ";;;\n{\"weight\": 2}\n;;;\nbody\n",
			data:   map[string]any{"weight": float64(2)},
			body:   "body\n",
			format: frontmatter.FormatJSON,
		},
		{
			name:   "no front matter",
			raw:    "just text\n",
			data:   map[string]any{},
			body:   "just text\n",
			format: frontmatter.FormatNone,
		},
		{
			name:   "empty header",
			raw:    "---\n---\nbody",
			data:   map[string]any{},
			body:   "body",
			format: frontmatter.FormatYAML,
		},
		{
			name:   "crlf fences",
			raw:    "---\r\ntitle: x\r\n---\r\nbody",
			data:   map[string]any{"title": "x"},
			body:   "body",
			format: frontmatter.FormatYAML,
		},
		{
			name:   "byte order mark",
			raw:    "\xef\xbb\xbf---\ntitle: y\n---\n",
			data:   map[string]any{"title": "y"},
			body:   "",
			format: frontmatter.FormatYAML,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, body, format, err := frontmatter.Split([]byte(tt.raw))
			if err != nil {
				t.Fatalf("split: %v", err)
			}
			if diff := cmp.Diff(tt.data, data); diff != "" {
				t.Fatalf("data mismatch (-want +got):\n%s", diff)
			}
			if string(body) != tt.body {
				t.Fatalf("body: want %q, got %q", tt.body, body)
			}
			if format != tt.format {
				t.Fatalf("format: want %q, got %q", tt.format, format)
			}
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	if _, _, err := frontmatter.Extract("open.md", []byte("---\ntitle: x\n")); !errors.Is(err, frontmatter.ErrUnterminated) {
		t.Fatalf("expected ErrUnterminated, got %v", err)
	}
	if _, _, err := frontmatter.Extract("bad.md", []byte("---\n: [\n---\n")); err == nil {
		t.Fatalf("expected yaml decode error")
	}
	if _, _, err := frontmatter.Extract("list.md", []byte(";;;\n[1,2]\n;;;\n")); err == nil {
		t.Fatalf("expected error for non-object json front matter")
	}
}

func TestExtractFS_PathOrder(t *testing.T) {
	records, err := frontmatter.ExtractFS(os.DirFS("testdata"), "posts/*.md")
	if err != nil {
		t.Fatalf("extract fs: %v", err)
	}
	var sources []string
	for _, record := range records {
		sources = append(sources, record.Source())
	}
	want := []string{"posts/01-hello.md", "posts/02-json.md", "posts/03-plain.md"}
	if diff := cmp.Diff(want, sources); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
	if len(records[2].Data()) != 0 {
		t.Fatalf("expected empty record for plain document, got %v", records[2].Data())
	}
	if got := records[1].Data()["weight"]; got != float64(3) {
		t.Fatalf("expected weight 3, got %v", got)
	}
}
