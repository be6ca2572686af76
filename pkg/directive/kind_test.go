package directive_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmschema/pkg/directive"
)

func TestAllKinds_DeclarationOrder(t *testing.T) {
	var names []string
	for _, kind := range directive.AllKinds() {
		names = append(names, kind.String())
	}
	want := []string{
		"frontmatter-part",
		"extract-from",
		"flatten-arrays",
		"jmespath-filter",
		"merge-arrays",
		"derived-from",
		"derived-unique",
		"template",
		"template-items",
		"template-format",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestAllKinds_ReturnsCopy(t *testing.T) {
	kinds := directive.AllKinds()
	kinds[0] = directive.KindFormat
	if directive.AllKinds()[0] != directive.KindPartition {
		t.Fatalf("AllKinds exposed internal storage")
	}
}

func TestKind_StageDerivedFromDependencies(t *testing.T) {
	for _, kind := range directive.AllKinds() {
		want := 1
		for _, dep := range kind.Dependencies() {
			if s := dep.Stage() + 1; s > want {
				want = s
			}
		}
		if got := kind.Stage(); got != want {
			t.Fatalf("%s: stage %d, want %d", kind, got, want)
		}
	}
}

func TestKind_Stages(t *testing.T) {
	want := map[directive.Kind]int{
		directive.KindPartition:    1,
		directive.KindExtraction:   2,
		directive.KindFlatten:      3,
		directive.KindFilter:       4,
		directive.KindMerge:        5,
		directive.KindDerivation:   6,
		directive.KindUnique:       7,
		directive.KindTemplate:     8,
		directive.KindItemTemplate: 8,
		directive.KindFormat:       8,
	}
	got := make(map[directive.Kind]int)
	for _, kind := range directive.AllKinds() {
		got[kind] = kind.Stage()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stage mismatch (-want +got):\n%s", diff)
	}
}

func TestKindByName(t *testing.T) {
	tests := []struct {
		name string
		want directive.Kind
	}{
		{"frontmatter-part", directive.KindPartition},
		{" extract-from ", directive.KindExtraction},
		{"x-derived-unique", directive.KindUnique},
		{"template-format", directive.KindFormat},
	}
	for _, tt := range tests {
		got, err := directive.KindByName(tt.name)
		if err != nil {
			t.Fatalf("KindByName(%q): %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("KindByName(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestKindByName_UnknownIsConfigurationError(t *testing.T) {
	for _, name := range []string{"x-does-not-exist", "", "x-", "Template", "x-x-template"} {
		kind, err := directive.KindByName(name)
		if err == nil {
			t.Fatalf("KindByName(%q) expected error, got %s", name, kind)
		}
		var cfgErr *directive.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("KindByName(%q) error type %T", name, err)
		}
		if cfgErr.Code != directive.CodeUnsupportedDirective {
			t.Fatalf("KindByName(%q) code %q", name, cfgErr.Code)
		}
		if cfgErr.Name != name {
			t.Fatalf("KindByName(%q) carried name %q", name, cfgErr.Name)
		}
		if !errors.Is(err, &directive.ConfigurationError{Code: directive.CodeUnsupportedDirective}) {
			t.Fatalf("errors.Is did not match code")
		}
	}
}

func TestKind_DependenciesDefensiveCopy(t *testing.T) {
	deps := directive.KindExtraction.Dependencies()
	if diff := cmp.Diff([]directive.Kind{directive.KindPartition}, deps); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
	deps[0] = directive.KindFormat
	if directive.KindExtraction.Dependencies()[0] != directive.KindPartition {
		t.Fatalf("dependencies exposed internal storage")
	}
	if directive.KindPartition.Dependencies() != nil {
		t.Fatalf("partition should have no dependencies")
	}
}

func TestKind_DependsOnIsTransitive(t *testing.T) {
	if !directive.KindTemplate.DependsOn(directive.KindPartition) {
		t.Fatalf("template should transitively depend on frontmatter-part")
	}
	if !directive.KindUnique.DependsOn(directive.KindDerivation) {
		t.Fatalf("derived-unique should depend on derived-from")
	}
	if directive.KindPartition.DependsOn(directive.KindTemplate) {
		t.Fatalf("frontmatter-part must not depend on template")
	}
	if directive.KindTemplate.DependsOn(directive.KindFormat) {
		t.Fatalf("same-stage kinds must not depend on each other")
	}
	if directive.KindTemplate.DependsOn(directive.KindTemplate) {
		t.Fatalf("kind must not depend on itself")
	}
}

func TestKind_InvalidValues(t *testing.T) {
	var zero directive.Kind
	if zero.Valid() {
		t.Fatalf("zero kind should be invalid")
	}
	if zero.Stage() != 0 || zero.Dependencies() != nil {
		t.Fatalf("invalid kind should have no stage or dependencies")
	}
	if got := directive.Kind(200).String(); got != "directive(200)" {
		t.Fatalf("unexpected string for invalid kind: %q", got)
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	text, err := directive.KindFlatten.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var kind directive.Kind
	if err := kind.UnmarshalText(text); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if kind != directive.KindFlatten {
		t.Fatalf("round trip produced %s", kind)
	}
	if err := kind.UnmarshalText([]byte("nope")); err == nil {
		t.Fatalf("expected error for unknown name")
	}
}

func TestKind_ExtensionKey(t *testing.T) {
	if got := directive.KindFilter.ExtensionKey(); got != "x-jmespath-filter" {
		t.Fatalf("extension key = %q", got)
	}
}
