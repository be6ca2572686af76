package directive

import (
	"fmt"
	"strings"
)

// Scope tells the pipeline which subtree an instance's paths are relative to.
type Scope uint8

const (
	// ScopeDocument resolves paths against the document root.
	ScopeDocument Scope = iota
	// ScopePart resolves paths against the active partition subtree, once per
	// element when the partition holds an array.
	ScopePart
)

func (s Scope) String() string {
	switch s {
	case ScopeDocument:
		return "document"
	case ScopePart:
		return "part"
	default:
		return fmt.Sprintf("scope(%d)", uint8(s))
	}
}

// Format is the output format attached by the template-format directive.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
)

// Formats lists the accepted output formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatHTML, FormatText}
}

// ParseFormat normalises and validates a format tag.
func ParseFormat(raw string) (Format, error) {
	value := Format(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case FormatJSON, FormatYAML, FormatMarkdown, FormatHTML, FormatText:
		return value, nil
	case "yml":
		return FormatYAML, nil
	case "md":
		return FormatMarkdown, nil
	case "txt":
		return FormatText, nil
	}
	return "", invalidPayload(KindFormat, "", "unsupported format %q (want one of %v)", raw, Formats())
}

// Instance is one validated occurrence of a directive kind attached to a
// schema location. Instances are immutable values; accessors return copies.
type Instance struct {
	kind       Kind
	scope      Scope
	target     Path
	sources    []Path
	expression string
	exprs      []string
	template   string
	format     Format
}

// NewPartition marks the value at path as the active subtree.
func NewPartition(path string) (Instance, error) {
	target, err := plainPath(KindPartition, path)
	if err != nil {
		return Instance{}, err
	}
	return Instance{kind: KindPartition, target: target}, nil
}

// NewExtraction copies the value at source into target. The source may use one
// broadcast segment (`items[].id`).
func NewExtraction(target, source string) (Instance, error) {
	dst, err := plainPath(KindExtraction, target)
	if err != nil {
		return Instance{}, err
	}
	src, err := ParsePath(source)
	if err != nil {
		return Instance{}, invalidPayload(KindExtraction, target, "source: %v", err)
	}
	return Instance{kind: KindExtraction, target: dst, sources: []Path{src}}, nil
}

// NewFlatten flattens the nested arrays stored at target.
func NewFlatten(target string) (Instance, error) {
	dst, err := plainPath(KindFlatten, target)
	if err != nil {
		return Instance{}, err
	}
	return Instance{kind: KindFlatten, target: dst}, nil
}

// NewFilter replaces the value at target with the evaluator's result for
// expression.
func NewFilter(target, expression string) (Instance, error) {
	dst, err := plainPath(KindFilter, target)
	if err != nil {
		return Instance{}, err
	}
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return Instance{}, invalidPayload(KindFilter, target, "expression is empty")
	}
	return Instance{kind: KindFilter, target: dst, expression: expr}, nil
}

// NewMerge concatenates the arrays stored at target across a document set.
func NewMerge(target string) (Instance, error) {
	dst, err := plainPath(KindMerge, target)
	if err != nil {
		return Instance{}, err
	}
	return Instance{kind: KindMerge, target: dst}, nil
}

// NewDerivation sets target to the first source expression that yields a
// non-empty value.
func NewDerivation(target string, sources ...string) (Instance, error) {
	dst, err := plainPath(KindDerivation, target)
	if err != nil {
		return Instance{}, err
	}
	exprs := make([]string, 0, len(sources))
	for idx, source := range sources {
		expr := strings.TrimSpace(source)
		if expr == "" {
			return Instance{}, invalidPayload(KindDerivation, target, "source expression %d is empty", idx)
		}
		exprs = append(exprs, expr)
	}
	if len(exprs) == 0 {
		return Instance{}, invalidPayload(KindDerivation, target, "at least one source expression is required")
	}
	return Instance{kind: KindDerivation, target: dst, exprs: exprs}, nil
}

// NewUnique deduplicates the array stored at target.
func NewUnique(target string) (Instance, error) {
	dst, err := plainPath(KindUnique, target)
	if err != nil {
		return Instance{}, err
	}
	return Instance{kind: KindUnique, target: dst}, nil
}

// NewTemplate selects the document template.
func NewTemplate(id string) (Instance, error) {
	return newTemplateInstance(KindTemplate, id)
}

// NewItemTemplate selects the template applied to each partition item.
func NewItemTemplate(id string) (Instance, error) {
	return newTemplateInstance(KindItemTemplate, id)
}

// NewFormat selects the output format.
func NewFormat(format string) (Instance, error) {
	value, err := ParseFormat(format)
	if err != nil {
		return Instance{}, err
	}
	return Instance{kind: KindFormat, format: value}, nil
}

func newTemplateInstance(kind Kind, id string) (Instance, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return Instance{}, invalidPayload(kind, "", "template identifier is empty")
	}
	return Instance{kind: kind, template: trimmed}, nil
}

func plainPath(kind Kind, raw string) (Path, error) {
	path, err := ParsePath(raw)
	if err != nil {
		return Path{}, invalidPayload(kind, raw, "target: %v", err)
	}
	if path.HasBroadcast() {
		return Path{}, invalidPayload(kind, raw, "target must not use broadcast notation")
	}
	return path, nil
}

// WithScope returns a copy of the instance bound to scope. Terminal, partition
// and merge instances always stay document scoped.
func (i Instance) WithScope(scope Scope) Instance {
	out := i.clone()
	if i.kind.Terminal() || i.kind == KindPartition || i.kind == KindMerge {
		return out
	}
	out.scope = scope
	return out
}

// Kind returns the directive kind.
func (i Instance) Kind() Kind { return i.kind }

// Scope returns the instance scope.
func (i Instance) Scope() Scope { return i.scope }

// Target returns the data-tree location written by the instance. Terminal
// instances have no target.
func (i Instance) Target() Path { return i.target }

// Location returns a human readable location used in diagnostics.
func (i Instance) Location() string {
	if i.target.IsZero() {
		return "$"
	}
	if i.scope == ScopePart {
		return "part:" + i.target.String()
	}
	return i.target.String()
}

// Sources returns the extraction source paths.
func (i Instance) Sources() []Path { return append([]Path(nil), i.sources...) }

// Source returns the first source path when present.
func (i Instance) Source() (Path, bool) {
	if len(i.sources) == 0 {
		return Path{}, false
	}
	return i.sources[0], true
}

// Expression returns the filter expression.
func (i Instance) Expression() string { return i.expression }

// Expressions returns the ordered derivation expressions.
func (i Instance) Expressions() []string { return append([]string(nil), i.exprs...) }

// Template returns the template identifier for template kinds.
func (i Instance) Template() string { return i.template }

// Format returns the output format for the template-format kind.
func (i Instance) Format() Format { return i.format }

// IsZero reports whether the instance was never constructed.
func (i Instance) IsZero() bool { return !i.kind.Valid() }

// WritesData reports whether applying the instance changes document data.
func (i Instance) WritesData() bool {
	return i.kind.Valid() && !i.kind.Terminal() && i.kind != KindPartition
}

func (i Instance) String() string {
	switch i.kind {
	case KindTemplate, KindItemTemplate:
		return fmt.Sprintf("%s(%s)", i.kind, i.template)
	case KindFormat:
		return fmt.Sprintf("%s(%s)", i.kind, i.format)
	default:
		return fmt.Sprintf("%s@%s", i.kind, i.Location())
	}
}

func (i Instance) clone() Instance {
	out := i
	out.sources = append([]Path(nil), i.sources...)
	out.exprs = append([]string(nil), i.exprs...)
	return out
}

// Set is a validated collection of instances for one schema.
type Set struct {
	instances []Instance
}

// NewSet validates and collects instances. It rejects a second partition, a
// second template of any terminal kind and duplicate (kind, scope, target)
// triples.
func NewSet(instances ...Instance) (Set, error) {
	out := Set{instances: make([]Instance, 0, len(instances))}
	seenTerminal := make(map[Kind]bool)
	seenTarget := make(map[string]bool)
	hasPartition := false

	for _, inst := range instances {
		if inst.IsZero() {
			return Set{}, &ConfigurationError{Code: CodeInvalidPayload, Message: "instance was not constructed"}
		}
		switch {
		case inst.kind == KindPartition:
			if hasPartition {
				return Set{}, &ConfigurationError{
					Code:     CodeDuplicateDirective,
					Kind:     inst.kind,
					Location: inst.Location(),
					Message:  "only one partition is allowed per schema",
				}
			}
			hasPartition = true
		case inst.kind.Terminal():
			if seenTerminal[inst.kind] {
				return Set{}, &ConfigurationError{
					Code:    CodeDuplicateDirective,
					Kind:    inst.kind,
					Message: "declared more than once",
				}
			}
			seenTerminal[inst.kind] = true
		default:
			key := fmt.Sprintf("%s|%s", inst.kind, inst.Location())
			if seenTarget[key] {
				return Set{}, &ConfigurationError{
					Code:     CodeDuplicateDirective,
					Kind:     inst.kind,
					Location: inst.Location(),
					Message:  "declared more than once for the same target",
				}
			}
			seenTarget[key] = true
		}
		out.instances = append(out.instances, inst.clone())
	}

	for _, inst := range out.instances {
		if inst.scope == ScopePart && !hasPartition {
			return Set{}, &ConfigurationError{
				Code:     CodeInvalidPayload,
				Kind:     inst.kind,
				Location: inst.Location(),
				Message:  "part scoped directive requires a frontmatter-part declaration",
			}
		}
	}
	return out, nil
}

// MustNewSet panics when the instances do not form a valid set.
func MustNewSet(instances ...Instance) Set {
	set, err := NewSet(instances...)
	if err != nil {
		panic(err)
	}
	return set
}

// Instances returns the instances in declaration order.
func (s Set) Instances() []Instance {
	out := make([]Instance, len(s.instances))
	for idx, inst := range s.instances {
		out[idx] = inst.clone()
	}
	return out
}

// Len returns the number of instances.
func (s Set) Len() int { return len(s.instances) }

// Kinds returns the distinct kinds present, in catalog order.
func (s Set) Kinds() []Kind {
	var set uint32
	for _, inst := range s.instances {
		set |= bit(inst.kind)
	}
	var kinds []Kind
	for _, kind := range ordered {
		if set&bit(kind) != 0 {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// ByKind returns the instances of kind in declaration order.
func (s Set) ByKind(kind Kind) []Instance {
	var out []Instance
	for _, inst := range s.instances {
		if inst.kind == kind {
			out = append(out, inst.clone())
		}
	}
	return out
}

// Partition returns the partition instance when declared.
func (s Set) Partition() (Instance, bool) {
	for _, inst := range s.instances {
		if inst.kind == KindPartition {
			return inst.clone(), true
		}
	}
	return Instance{}, false
}
