package template_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
	"github.com/goliatone/go-fmschema/pkg/pipeline"
	"github.com/goliatone/go-fmschema/pkg/render"
	"github.com/goliatone/go-fmschema/pkg/render/template"
	"github.com/goliatone/go-fmschema/pkg/render/template/pongo"
	"github.com/goliatone/go-fmschema/pkg/testsupport"
)

func newRenderer(t *testing.T, opts ...template.Option) *template.Renderer {
	t.Helper()
	engine, err := pongo.New(pongo.WithBaseDir(filepath.Join("testdata", "templates")))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	renderer, err := template.NewRenderer(engine, opts...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return renderer
}

func listResult(body string) pipeline.Result {
	record := document.New("posts.md", map[string]any{
		"title": "Posts",
		"posts": []any{
			map[string]any{"title": "First", "body": body},
			map[string]any{"title": "Second"},
		},
	}).WithPart(document.Part{Path: "posts", Present: true})
	return pipeline.Result{
		Record: record,
		Render: pipeline.RenderMeta{Template: "index.html", ItemTemplate: "entry.html", Format: directive.FormatHTML},
	}
}

func TestRenderer_RendersItemsIntoPage(t *testing.T) {
	out, err := newRenderer(t).Render(context.Background(), listResult("<em>ok</em>"), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	golden := filepath.Join("testdata", "index.golden")
	if testsupport.WriteMaybeGolden(t, golden, out) {
		return
	}
	if diff := testsupport.CompareGolden(testsupport.MustReadGoldenString(t, golden), string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_SanitizesHTMLItems(t *testing.T) {
	out, err := newRenderer(t).Render(context.Background(), listResult(`<script>alert(1)</script><b onclick="x()">bold</b>`), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(out)
	if strings.Contains(body, "<script>") || strings.Contains(body, "onclick") {
		t.Fatalf("expected item html to be sanitized, got %s", body)
	}
	if !strings.Contains(body, "<b>bold</b>") {
		t.Fatalf("expected safe markup to survive, got %s", body)
	}
}

func TestRenderer_MarkdownKeepsRawFragments(t *testing.T) {
	result := listResult("<script>x</script>")
	result.Render.Format = directive.FormatMarkdown
	out, err := newRenderer(t).Render(context.Background(), result, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "<script>x</script>") {
		t.Fatalf("expected non-html output to skip sanitizing, got %s", out)
	}
}

func TestRenderer_WithoutSanitizer(t *testing.T) {
	out, err := newRenderer(t, template.WithSanitizer(nil)).Render(context.Background(), listResult("<script>x</script>"), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "<script>x</script>") {
		t.Fatalf("expected raw fragment, got %s", out)
	}
}

func TestRenderer_InlineTemplateAndGlobals(t *testing.T) {
	engine, err := pongo.New(pongo.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	renderer, err := template.NewRenderer(engine)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	result := pipeline.Result{
		Record: document.New("a.md", map[string]any{"title": "A", "tags": []any{"x", "y"}}),
		Render: pipeline.RenderMeta{Template: "{{ globals.site }}/{{ data.title }} {{ data.tags|tojson }} {{ source }}", Format: directive.FormatText},
	}
	out, err := renderer.Render(context.Background(), result, render.RenderOptions{Globals: map[string]any{"site": "docs"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got, want := string(out), `docs/A ["x","y"] a.md`; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestRenderer_Errors(t *testing.T) {
	renderer := newRenderer(t)

	_, err := renderer.Render(context.Background(), pipeline.Result{Record: document.New("a.md", nil)}, render.RenderOptions{})
	if !errors.Is(err, render.ErrMissingTemplate) {
		t.Fatalf("expected ErrMissingTemplate, got %v", err)
	}

	missing := listResult("")
	missing.Render.ItemTemplate = "absent.html"
	if _, err := renderer.Render(context.Background(), missing, render.RenderOptions{}); err == nil || !strings.Contains(err.Error(), "item 0") {
		t.Fatalf("expected item template error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := renderer.Render(ctx, listResult(""), render.RenderOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if _, err := template.NewRenderer(nil); err == nil {
		t.Fatalf("expected error for nil engine")
	}
}
