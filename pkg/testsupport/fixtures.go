package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/internal/loader"
	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
	"github.com/goliatone/go-fmschema/pkg/frontmatter"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

// MustLoadSet resolves the schema at name inside dir and scans its
// directives.
func MustLoadSet(t *testing.T, dir, name string) directive.Set {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	l := loader.New(schema.NewLoaderOptions(schema.WithFileSystem(os.DirFS(dir))))
	resolved, err := schema.NewResolver(l, schema.ResolveOptions{}).Resolve(Context(), schema.MustNewDocument(schema.SourceFromFS(name), raw))
	if err != nil {
		t.Fatalf("resolve schema: %v", err)
	}
	set, err := schema.Scan(resolved, schema.ScanOptions{})
	if err != nil {
		t.Fatalf("scan schema: %v", err)
	}
	return set
}

// MustExtract reads every document of dir matching pattern.
func MustExtract(t *testing.T, dir, pattern string) []document.Record {
	t.Helper()

	records, err := frontmatter.ExtractFS(os.DirFS(dir), pattern)
	if err != nil {
		t.Fatalf("extract documents: %v", err)
	}
	return records
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an
// io.Writer, returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
