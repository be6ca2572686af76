package pipeline_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-fmschema/pkg/pipeline"
	"github.com/goliatone/go-fmschema/pkg/testsupport"
)

func TestProcessBatch_CatalogFixture(t *testing.T) {
	set := testsupport.MustLoadSet(t, "testdata", "catalog.schema.yaml")
	records := testsupport.MustExtract(t, filepath.Join("testdata", "docs"), "*.md")

	p, err := pipeline.New(set, pipeline.WithWorkers(2))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	batch := p.ProcessBatch(testsupport.Context(), records)
	if err := batch.Err(); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !batch.Merged || len(batch.Results) != 1 {
		t.Fatalf("expected one merged result, got merged=%v results=%d", batch.Merged, len(batch.Results))
	}

	got, err := json.MarshalIndent(batch.Results[0].Record.Data(), "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got = append(got, '\n')

	goldenPath := filepath.Join("testdata", "catalog.golden")
	if testsupport.WriteMaybeGolden(t, goldenPath, got) {
		return
	}
	want := testsupport.MustReadGoldenString(t, goldenPath)
	if diff := testsupport.CompareGolden(want, string(got)); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
}
