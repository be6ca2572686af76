package directive

import (
	"fmt"
	"strings"
)

// Kind enumerates the supported directive kinds. The set is closed: values
// outside the declared constants are invalid and the zero value is reserved.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPartition
	KindExtraction
	KindFlatten
	KindFilter
	KindMerge
	KindDerivation
	KindUnique
	KindTemplate
	KindItemTemplate
	KindFormat

	kindCount
)

// ExtensionPrefix is prepended to a kind name to form its schema extension key.
const ExtensionPrefix = "x-"

type kindSpec struct {
	name    string
	deps    []Kind
	stage   int
	order   int
	closure uint32
}

// declarations lists the catalog in declaration order. Dependencies must refer
// to kinds declared earlier so stages can be derived in a single pass.
var declarations = [...]struct {
	kind Kind
	name string
	deps []Kind
}{
	{KindPartition, "frontmatter-part", nil},
	{KindExtraction, "extract-from", []Kind{KindPartition}},
	{KindFlatten, "flatten-arrays", []Kind{KindExtraction}},
	{KindFilter, "jmespath-filter", []Kind{KindFlatten}},
	{KindMerge, "merge-arrays", []Kind{KindFilter}},
	{KindDerivation, "derived-from", []Kind{KindMerge}},
	{KindUnique, "derived-unique", []Kind{KindDerivation}},
	{KindTemplate, "template", []Kind{KindUnique}},
	{KindItemTemplate, "template-items", []Kind{KindUnique}},
	{KindFormat, "template-format", []Kind{KindUnique}},
}

var (
	catalog [kindCount]kindSpec
	byName  map[string]Kind
	ordered []Kind
)

func init() {
	if err := buildCatalog(); err != nil {
		panic(err)
	}
}

func buildCatalog() error {
	byName = make(map[string]Kind, len(declarations))
	ordered = make([]Kind, 0, len(declarations))
	seen := make(map[Kind]bool, len(declarations))

	for _, decl := range declarations {
		if decl.kind <= KindInvalid || decl.kind >= kindCount {
			return fmt.Errorf("directive: catalog entry %q has out of range kind %d", decl.name, decl.kind)
		}
		if seen[decl.kind] {
			return fmt.Errorf("directive: catalog declares kind %q twice", decl.name)
		}
		if _, dup := byName[decl.name]; dup {
			return fmt.Errorf("directive: catalog declares name %q twice", decl.name)
		}

		stage := 1
		var closure uint32
		for _, dep := range decl.deps {
			if !seen[dep] {
				return &DependencyViolation{Kind: decl.kind, Dependency: dep}
			}
			if s := catalog[dep].stage + 1; s > stage {
				stage = s
			}
			closure |= bit(dep) | catalog[dep].closure
		}
		if closure&bit(decl.kind) != 0 {
			return &DependencyViolation{Kind: decl.kind, Dependency: decl.kind}
		}

		catalog[decl.kind] = kindSpec{
			name:    decl.name,
			deps:    append([]Kind(nil), decl.deps...),
			stage:   stage,
			order:   len(ordered),
			closure: closure,
		}
		byName[decl.name] = decl.kind
		ordered = append(ordered, decl.kind)
		seen[decl.kind] = true
	}

	if len(ordered) != int(kindCount)-1 {
		return fmt.Errorf("directive: catalog declares %d kinds, want %d", len(ordered), int(kindCount)-1)
	}
	return nil
}

func bit(k Kind) uint32 {
	return 1 << uint(k)
}

// AllKinds returns every supported kind in catalog declaration order.
func AllKinds() []Kind {
	return append([]Kind(nil), ordered...)
}

// KindByName resolves a kind from its catalog name. The `x-` prefixed
// extension key form is accepted too. Unknown names yield a
// ConfigurationError with CodeUnsupportedDirective.
func KindByName(name string) (Kind, error) {
	trimmed := strings.TrimSpace(name)
	if kind, ok := byName[trimmed]; ok {
		return kind, nil
	}
	if kind, ok := byName[strings.TrimPrefix(trimmed, ExtensionPrefix)]; ok && strings.HasPrefix(trimmed, ExtensionPrefix) {
		return kind, nil
	}
	return KindInvalid, &ConfigurationError{
		Code:    CodeUnsupportedDirective,
		Name:    name,
		Message: "directive is not part of the catalog",
	}
}

// Valid reports whether k is a member of the catalog.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < kindCount
}

// String returns the catalog name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("directive(%d)", uint8(k))
	}
	return catalog[k].name
}

// ExtensionKey returns the schema extension key that declares the kind.
func (k Kind) ExtensionKey() string {
	return ExtensionPrefix + k.String()
}

// Stage returns the intrinsic stage number of the kind, or 0 for invalid kinds.
func (k Kind) Stage() int {
	if !k.Valid() {
		return 0
	}
	return catalog[k].stage
}

// Dependencies returns a copy of the kind's direct dependencies.
func (k Kind) Dependencies() []Kind {
	if !k.Valid() {
		return nil
	}
	return append([]Kind(nil), catalog[k].deps...)
}

// DependsOn reports whether k transitively depends on other.
func (k Kind) DependsOn(other Kind) bool {
	if !k.Valid() || !other.Valid() {
		return false
	}
	return catalog[k].closure&bit(other) != 0
}

// Terminal reports whether the kind only attaches render metadata.
func (k Kind) Terminal() bool {
	switch k {
	case KindTemplate, KindItemTemplate, KindFormat:
		return true
	default:
		return false
	}
}

// MarshalText encodes the kind as its catalog name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("directive: cannot marshal invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a catalog name.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := KindByName(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func declarationIndex(k Kind) int {
	if !k.Valid() {
		return len(ordered)
	}
	return catalog[k].order
}
