package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/pkg/document"
)

type stubDriver struct {
	selected int
	multi    []int
	err      error
	last     SelectConfig
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.last = cfg
	return s.selected, s.err
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.last = cfg
	return s.multi, s.err
}

func records(t *testing.T, sources ...string) []document.Record {
	t.Helper()
	out := make([]document.Record, len(sources))
	for idx, source := range sources {
		out[idx] = document.New(source, map[string]any{"title": source})
	}
	return out
}

func TestDocuments_ReturnsPickedRecordsInOrder(t *testing.T) {
	driver := &stubDriver{multi: []int{0, 2}}
	picked, err := Documents(context.Background(), driver, records(t, "a.md", "b.md", "c.md"))
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	got := make([]string, len(picked))
	for idx, record := range picked {
		got[idx] = record.Source()
	}
	if diff := cmp.Diff([]string{"a.md", "c.md"}, got); diff != "" {
		t.Fatalf("picked mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, driver.last.Defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDocuments_PropagatesAbort(t *testing.T) {
	driver := &stubDriver{err: ErrAborted}
	if _, err := Documents(context.Background(), driver, records(t, "a.md")); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRenderer(t *testing.T) {
	driver := &stubDriver{selected: 1}
	name, err := Renderer(context.Background(), driver, []string{"data", "template"}, "template")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	if name != "template" {
		t.Fatalf("expected template, got %q", name)
	}
	if driver.last.DefaultIndex != 1 {
		t.Fatalf("expected current renderer preselected, got %d", driver.last.DefaultIndex)
	}

	single, err := Renderer(context.Background(), &stubDriver{err: errors.New("not asked")}, []string{"data"}, "")
	if err != nil || single != "data" {
		t.Fatalf("expected single renderer without prompting, got %q %v", single, err)
	}
	if _, err := Renderer(context.Background(), driver, nil, ""); err == nil {
		t.Fatalf("expected error without renderers")
	}
}
