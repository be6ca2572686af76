package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
	"github.com/goliatone/go-fmschema/pkg/pipeline"
	"github.com/goliatone/go-fmschema/pkg/render"
)

func sampleResult(format directive.Format) pipeline.Result {
	record := document.New("post.md", map[string]any{
		"title": "Hello",
		"tags":  []any{"go", "yaml"},
		"meta":  map[string]any{"draft": false, "notes": nil},
	})
	return pipeline.Result{Record: record, Render: pipeline.RenderMeta{Format: format}}
}

func TestFormatRenderer(t *testing.T) {
	tests := []struct {
		name    string
		format  directive.Format
		options render.RenderOptions
		want    string
	}{
		{
			name:   "json default",
			format: "",
			want:   `{
  "meta": {
    "draft": false,
    "notes": null
  },
  "tags": [
    "go",
    "yaml"
  ],
  "title": "Hello"
}
`,
		},
		{
			name:   "yaml",
			format: directive.FormatYAML,
			want:   `meta:
  draft: false
  notes: null
tags:
  - go
  - yaml
title: Hello
`,
		},
		{
			name:   "text",
			format: directive.FormatText,
			want:   `meta.draft = false
meta.notes = null
tags[0] = go
tags[1] = yaml
title = Hello
`,
		},
		{
			name:    "override wins",
			format:  directive.FormatJSON,
			options: render.RenderOptions{Format: directive.FormatText},
			want:    `meta.draft = false
meta.notes = null
tags[0] = go
tags[1] = yaml
title = Hello
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := render.FormatRenderer{}.Render(context.Background(), sampleResult(tt.format), tt.options)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(out)); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatRenderer_RejectsTemplateFormats(t *testing.T) {
	_, err := render.FormatRenderer{}.Render(context.Background(), sampleResult(directive.FormatHTML), render.RenderOptions{})
	if !errors.Is(err, render.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestView(t *testing.T) {
	record := document.New("list.md", map[string]any{
		"posts": []any{map[string]any{"title": "a"}, map[string]any{"title": "b"}},
	}).WithPart(document.Part{Path: "posts", Present: true})
	result := pipeline.Result{Record: record, Render: pipeline.RenderMeta{Format: directive.FormatHTML}}

	view := render.View(result, render.RenderOptions{Globals: map[string]any{"site": "docs"}})
	want := map[string]any{
		"source":  "list.md",
		"data":    record.Data(),
		"items":   []any{map[string]any{"title": "a"}, map[string]any{"title": "b"}},
		"part":    "posts",
		"format":  "html",
		"globals": map[string]any{"site": "docs"},
	}
	if diff := cmp.Diff(want, view); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}

	empty := render.View(pipeline.Result{Record: document.New("x.md", nil)}, render.RenderOptions{})
	if diff := cmp.Diff([]any{}, empty["items"]); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}
