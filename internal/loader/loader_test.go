package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-fmschema/pkg/schema"
)

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "post.schema.json")
	if err := os.WriteFile(file, []byte(`{"type":"object"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := New(schema.LoaderOptions{}).Load(context.Background(), schema.SourceFromFile(file))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != `{"type":"object"}` {
		t.Fatalf("unexpected payload %q", doc.Raw())
	}
}

func TestLoader_FS(t *testing.T) {
	files := fstest.MapFS{"schemas/post.yaml": {Data: []byte("type: object\n")}}
	l := New(schema.NewLoaderOptions(schema.WithFileSystem(files)))
	doc, err := l.Load(context.Background(), schema.SourceFromFS("schemas/post.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Encoding() != schema.EncodingYAML {
		t.Fatalf("encoding = %q", doc.Encoding())
	}

	if _, err := New(schema.LoaderOptions{}).Load(context.Background(), schema.SourceFromFS("schemas/post.yaml")); err == nil {
		t.Fatalf("expected error without a configured fs")
	}
}

func TestLoader_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"type":"object"}`))
	}))
	defer server.Close()

	if _, err := New(schema.LoaderOptions{}).Load(context.Background(), schema.SourceFromURL(server.URL+"/a.json")); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}

	l := New(schema.NewLoaderOptions(schema.WithHTTPClient(server.Client())))
	if _, err := l.Load(context.Background(), schema.SourceFromURL(server.URL+"/a.json")); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := l.Load(context.Background(), schema.SourceFromURL(server.URL+"/missing.json"))
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(schema.LoaderOptions{}).Load(ctx, schema.SourceFromFile("whatever.json")); err == nil {
		t.Fatalf("expected context error")
	}
}
