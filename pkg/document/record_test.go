package document_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
)

func TestNew_NormalisesAndCopies(t *testing.T) {
	input := map[string]any{
		"tags": []string{"a", "b"},
		"meta": map[any]any{"year": 2024, 1: "one"},
	}
	record := document.New("post.md", input)
	input["tags"].([]string)[0] = "mutated"

	want := map[string]any{
		"tags": []any{"a", "b"},
		"meta": map[string]any{"year": 2024, "1": "one"},
	}
	if diff := cmp.Diff(want, record.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if record.Source() != "post.md" {
		t.Fatalf("source = %q", record.Source())
	}
}

func TestNew_NilData(t *testing.T) {
	record := document.New("empty.md", nil)
	if diff := cmp.Diff(map[string]any{}, record.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_WithIsCopyOnWrite(t *testing.T) {
	base := document.New("a.md", map[string]any{
		"meta": map[string]any{"title": "Hello"},
		"tags": []any{"x"},
	})

	updated, err := base.With(directive.MustParsePath("meta.author.name"), "Ada")
	if err != nil {
		t.Fatalf("with: %v", err)
	}

	wantBase := map[string]any{
		"meta": map[string]any{"title": "Hello"},
		"tags": []any{"x"},
	}
	if diff := cmp.Diff(wantBase, base.Data()); diff != "" {
		t.Fatalf("base changed (-want +got):\n%s", diff)
	}
	wantUpdated := map[string]any{
		"meta": map[string]any{"title": "Hello", "author": map[string]any{"name": "Ada"}},
		"tags": []any{"x"},
	}
	if diff := cmp.Diff(wantUpdated, updated.Data()); diff != "" {
		t.Fatalf("updated mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_WithRejectsScalarIntermediate(t *testing.T) {
	base := document.New("a.md", map[string]any{"meta": "flat"})
	_, err := base.With(directive.MustParsePath("meta.title"), "x")
	if !errors.Is(err, document.ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
	if _, err := base.With(directive.MustParsePath("items[].id"), 1); err == nil {
		t.Fatalf("expected broadcast write to fail")
	}
}

func TestRecord_DataReturnsCopy(t *testing.T) {
	record := document.New("a.md", map[string]any{"tags": []any{"x"}})
	data := record.Data()
	data["tags"].([]any)[0] = "mutated"
	value, _ := record.Get(directive.MustParsePath("tags"))
	if diff := cmp.Diff([]any{"x"}, value); diff != "" {
		t.Fatalf("record leaked storage (-want +got):\n%s", diff)
	}
}

func TestRecord_Without(t *testing.T) {
	record := document.New("a.md", map[string]any{
		"meta": map[string]any{"title": "Hello", "draft": true},
	})
	trimmed := record.Without(directive.MustParsePath("meta.draft"))
	if _, ok := trimmed.Get(directive.MustParsePath("meta.draft")); ok {
		t.Fatalf("expected meta.draft to be removed")
	}
	if _, ok := record.Get(directive.MustParsePath("meta.draft")); !ok {
		t.Fatalf("original record must keep meta.draft")
	}
	if !trimmed.Without(directive.MustParsePath("missing.key")).Equal(trimmed) {
		t.Fatalf("removing a missing path should be a no-op")
	}
}

func TestRecord_Equal(t *testing.T) {
	a := document.New("a.md", map[string]any{"n": 1})
	b := document.New("a.md", map[string]any{"n": 1})
	if !a.Equal(b) {
		t.Fatalf("expected equal records")
	}
	if a.Equal(b.WithPart(document.Part{Path: "items", Present: true})) {
		t.Fatalf("part should take part in equality")
	}
	if a.Equal(b.WithSource("b.md")) {
		t.Fatalf("source should take part in equality")
	}
}

func TestBroadcast(t *testing.T) {
	data := document.New("a.md", map[string]any{
		"items": []any{
			map[string]any{"id": 1},
			map[string]any{"name": "no id"},
			map[string]any{"id": 3},
			"scalar",
		},
		"flat": "value",
	}).Data()

	got, ok, err := document.Broadcast(data, directive.MustParsePath("items[].id"))
	if err != nil || !ok {
		t.Fatalf("broadcast: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]any{1, 3}, got); diff != "" {
		t.Fatalf("projection mismatch (-want +got):\n%s", diff)
	}

	_, ok, err = document.Broadcast(data, directive.MustParsePath("missing[].id"))
	if err != nil || ok {
		t.Fatalf("missing array should report ok=false without error, got ok=%v err=%v", ok, err)
	}

	_, _, err = document.Broadcast(data, directive.MustParsePath("flat[].id"))
	var pathErr *directive.ExtractionPathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected ExtractionPathError, got %v", err)
	}
	if pathErr.Found != "string" || pathErr.Segment != "flat[]" {
		t.Fatalf("unexpected error detail: %+v", pathErr)
	}
}

func TestIsEmpty(t *testing.T) {
	for _, value := range []any{nil, "", []any{}, map[string]any{}, []string{}} {
		if !document.IsEmpty(value) {
			t.Fatalf("IsEmpty(%#v) = false", value)
		}
	}
	for _, value := range []any{0, false, " ", []any{nil}, map[string]any{"k": nil}} {
		if document.IsEmpty(value) {
			t.Fatalf("IsEmpty(%#v) = true", value)
		}
	}
}
