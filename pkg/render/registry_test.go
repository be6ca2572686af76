package render_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/pkg/pipeline"
	"github.com/goliatone/go-fmschema/pkg/render"
)

type stubRenderer struct {
	name string
	err  error
}

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(_ context.Context, result pipeline.Result, _ render.RenderOptions) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.name + ":" + result.Record.Source()), nil
}

func TestRegistry(t *testing.T) {
	registry, err := render.NewRegistry(stubRenderer{name: "Beta"}, render.FormatRenderer{})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := registry.Register(stubRenderer{name: "beta"}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := registry.Register(stubRenderer{name: " "}); err == nil {
		t.Fatalf("expected missing name error")
	}
	if diff := cmp.Diff([]string{"beta", "data"}, registry.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if !registry.Has("BETA") {
		t.Fatalf("expected lookup to ignore case")
	}

	_, err = registry.Get("missing")
	if err == nil || !strings.Contains(err.Error(), "beta, data") {
		t.Fatalf("expected not found error listing names, got %v", err)
	}

	out, err := registry.Render(context.Background(), "beta", sampleResult(""), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "Beta:post.md" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRegistry_RenderWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	registry, err := render.NewRegistry(stubRenderer{name: "broken", err: boom})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	_, err = registry.Render(context.Background(), "broken", sampleResult(""), render.RenderOptions{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
