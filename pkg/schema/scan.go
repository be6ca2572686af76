package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
)

// ScanOptions configures Scan.
type ScanOptions struct {
	// Strict rejects x- keys that do not name a catalog directive.
	Strict bool
	// Ignore lists extension keys that are never directives, even when Strict
	// is set (for example x-go-type).
	Ignore []string
}

// Scan walks a resolved schema and builds the directive set it declares.
//
// Directives are vendor extensions named after the catalog (x-flatten-arrays,
// x-extract-from, ...) attached to properties; the property path becomes the
// directive target. Template directives live at the schema root. Properties
// under the items of the x-frontmatter-part array produce part scoped
// directives with paths relative to each item.
func Scan(resolved map[string]any, opts ScanOptions) (directive.Set, error) {
	if resolved == nil {
		return directive.Set{}, fmt.Errorf("schema: scan: schema is nil")
	}
	s := newScanner(opts, false)
	if err := s.root(resolved); err != nil {
		return directive.Set{}, err
	}
	set, err := directive.NewSet(s.instances...)
	if err != nil {
		return directive.Set{}, fmt.Errorf("schema: scan: %w", err)
	}
	return set, nil
}

// Lint scans like Scan but keeps going after a problem and returns every
// configuration error found, including set level conflicts. A nil result
// means Scan would succeed.
func Lint(resolved map[string]any, opts ScanOptions) []error {
	if resolved == nil {
		return []error{fmt.Errorf("schema: scan: schema is nil")}
	}
	s := newScanner(opts, true)
	if err := s.root(resolved); err != nil {
		s.problems = append(s.problems, err)
	}
	if len(s.problems) > 0 {
		return s.problems
	}
	if _, err := directive.NewSet(s.instances...); err != nil {
		return []error{err}
	}
	return nil
}

type scanner struct {
	opts      ScanOptions
	ignore    map[string]bool
	instances []directive.Instance
	collect   bool
	problems  []error
}

func newScanner(opts ScanOptions, collect bool) *scanner {
	s := &scanner{opts: opts, ignore: make(map[string]bool, len(opts.Ignore)), collect: collect}
	for _, key := range opts.Ignore {
		s.ignore[strings.ToLower(strings.TrimSpace(key))] = true
	}
	return s
}

// fail records err when collecting and returns it otherwise.
func (s *scanner) fail(err error) error {
	if s.collect && err != nil {
		s.problems = append(s.problems, err)
		return nil
	}
	return err
}

func (s *scanner) root(node map[string]any) error {
	for _, key := range document.SortedKeys(node) {
		kind, ok, err := s.kind(key, "$")
		if err != nil {
			if err = s.fail(err); err != nil {
				return err
			}
			continue
		}
		if !ok {
			continue
		}
		if !kind.Terminal() {
			if err := s.fail(&directive.ConfigurationError{
				Code:     directive.CodeInvalidPayload,
				Kind:     kind,
				Location: "$",
				Message:  "declare the directive on a property, not the schema root",
			}); err != nil {
				return err
			}
			continue
		}
		if err := s.fail(s.add(kind, "", directive.ScopeDocument, node[key])); err != nil {
			return err
		}
	}
	return s.properties(node, "", directive.ScopeDocument)
}

func (s *scanner) properties(node map[string]any, base string, scope directive.Scope) error {
	props, _ := node["properties"].(map[string]any)
	for _, name := range document.SortedKeys(props) {
		child, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		target := name
		if base != "" {
			target = base + "." + name
		}
		if err := s.property(child, target, scope); err != nil {
			return err
		}
	}
	return nil
}

func (s *scanner) property(node map[string]any, target string, scope directive.Scope) error {
	location := target
	if scope == directive.ScopePart {
		location = "part:" + target
	}

	partition := false
	for _, key := range document.SortedKeys(node) {
		kind, ok, err := s.kind(key, location)
		if err != nil {
			if err = s.fail(err); err != nil {
				return err
			}
			continue
		}
		if !ok {
			continue
		}
		if kind.Terminal() {
			if err := s.fail(&directive.ConfigurationError{
				Code:     directive.CodeInvalidPayload,
				Kind:     kind,
				Location: location,
				Message:  "template directives must be declared at the schema root",
			}); err != nil {
				return err
			}
			continue
		}
		if kind == directive.KindPartition {
			if scope == directive.ScopePart {
				if err := s.fail(&directive.ConfigurationError{
					Code:     directive.CodeInvalidPayload,
					Kind:     kind,
					Location: location,
					Message:  "partitions cannot be nested inside another partition",
				}); err != nil {
					return err
				}
				continue
			}
			enabled, err := flag(kind, location, node[key])
			if err != nil {
				if err = s.fail(err); err != nil {
					return err
				}
				continue
			}
			partition = enabled
		}
		if err := s.fail(s.add(kind, target, scope, node[key])); err != nil {
			return err
		}
	}

	if err := s.properties(node, target, scope); err != nil {
		return err
	}

	items, ok := node["items"].(map[string]any)
	if !ok {
		return nil
	}
	if partition {
		return s.properties(items, "", directive.ScopePart)
	}
	if hasDirectives(items) {
		return s.fail(&directive.ConfigurationError{
			Code:     directive.CodeInvalidPayload,
			Location: location,
			Message:  "directives inside array items require x-frontmatter-part on the array",
		})
	}
	return nil
}

// kind maps an object key to a directive kind. ok is false for ordinary keys
// and for tolerated unknown extensions.
func (s *scanner) kind(key, location string) (directive.Kind, bool, error) {
	if !isExtension(key) {
		return directive.KindInvalid, false, nil
	}
	kind, err := directive.KindByName(key)
	if err == nil {
		return kind, true, nil
	}
	if !s.opts.Strict || s.ignore[strings.ToLower(strings.TrimSpace(key))] {
		return directive.KindInvalid, false, nil
	}
	var cfgErr *directive.ConfigurationError
	if errors.As(err, &cfgErr) {
		cfgErr.Location = location
		return directive.KindInvalid, false, cfgErr
	}
	return directive.KindInvalid, false, err
}

func (s *scanner) add(kind directive.Kind, target string, scope directive.Scope, payload any) error {
	location := target
	if location == "" {
		location = "$"
	}
	var (
		inst directive.Instance
		err  error
	)
	switch kind {
	case directive.KindPartition, directive.KindFlatten, directive.KindMerge, directive.KindUnique:
		enabled, ferr := flag(kind, location, payload)
		if ferr != nil || !enabled {
			return ferr
		}
		switch kind {
		case directive.KindPartition:
			inst, err = directive.NewPartition(target)
		case directive.KindFlatten:
			inst, err = directive.NewFlatten(target)
		case directive.KindMerge:
			inst, err = directive.NewMerge(target)
		default:
			inst, err = directive.NewUnique(target)
		}
	case directive.KindExtraction:
		var source string
		if source, err = text(kind, location, payload); err == nil {
			inst, err = directive.NewExtraction(target, source)
		}
	case directive.KindFilter:
		var expression string
		if expression, err = text(kind, location, payload); err == nil {
			inst, err = directive.NewFilter(target, expression)
		}
	case directive.KindDerivation:
		var sources []string
		if sources, err = texts(kind, location, payload); err == nil {
			inst, err = directive.NewDerivation(target, sources...)
		}
	case directive.KindTemplate, directive.KindItemTemplate, directive.KindFormat:
		var value string
		if value, err = text(kind, location, payload); err == nil {
			switch kind {
			case directive.KindTemplate:
				inst, err = directive.NewTemplate(value)
			case directive.KindItemTemplate:
				inst, err = directive.NewItemTemplate(value)
			default:
				inst, err = directive.NewFormat(value)
			}
		}
	default:
		err = fmt.Errorf("schema: scan: unhandled directive kind %s", kind)
	}
	if err != nil {
		var cfgErr *directive.ConfigurationError
		if errors.As(err, &cfgErr) && cfgErr.Location == "" {
			cfgErr.Location = location
		}
		return err
	}
	s.instances = append(s.instances, inst.WithScope(scope))
	return nil
}

func flag(kind directive.Kind, location string, payload any) (bool, error) {
	value, ok := payload.(bool)
	if !ok {
		return false, payloadError(kind, location, "expects a boolean, got %s", document.TypeName(payload))
	}
	return value, nil
}

func text(kind directive.Kind, location string, payload any) (string, error) {
	value, ok := payload.(string)
	if !ok {
		return "", payloadError(kind, location, "expects a string, got %s", document.TypeName(payload))
	}
	return value, nil
}

func texts(kind directive.Kind, location string, payload any) ([]string, error) {
	switch typed := payload.(type) {
	case string:
		return []string{typed}, nil
	case []any:
		out := make([]string, 0, len(typed))
		for idx, entry := range typed {
			value, ok := entry.(string)
			if !ok {
				return nil, payloadError(kind, location, "entry %d expects a string, got %s", idx, document.TypeName(entry))
			}
			out = append(out, value)
		}
		return out, nil
	}
	return nil, payloadError(kind, location, "expects a string or a list of strings, got %s", document.TypeName(payload))
}

func payloadError(kind directive.Kind, location, format string, args ...any) error {
	return &directive.ConfigurationError{
		Code:     directive.CodeInvalidPayload,
		Kind:     kind,
		Location: location,
		Message:  fmt.Sprintf(format, args...),
	}
}

func hasDirectives(node any) bool {
	switch typed := node.(type) {
	case map[string]any:
		for key, value := range typed {
			if isExtension(key) {
				if _, err := directive.KindByName(key); err == nil {
					return true
				}
				continue
			}
			if hasDirectives(value) {
				return true
			}
		}
	case []any:
		for _, value := range typed {
			if hasDirectives(value) {
				return true
			}
		}
	}
	return false
}
