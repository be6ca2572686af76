package directive

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationCode classifies configuration failures.
type ConfigurationCode string

const (
	// CodeUnsupportedDirective marks a directive name outside the catalog.
	CodeUnsupportedDirective ConfigurationCode = "unsupported_directive"
	// CodeInvalidPayload marks an empty or malformed directive payload.
	CodeInvalidPayload ConfigurationCode = "invalid_payload"
	// CodeDuplicateDirective marks a directive declared more than once where
	// only one occurrence is allowed.
	CodeDuplicateDirective ConfigurationCode = "duplicate_directive"
	// CodeConflictingTargets marks two same-stage instances writing overlapping
	// locations.
	CodeConflictingTargets ConfigurationCode = "conflicting_targets"
)

// ConfigurationError reports an unknown directive kind or a malformed payload
// detected while constructing instances.
type ConfigurationError struct {
	Code     ConfigurationCode
	Name     string
	Kind     Kind
	Location string
	Message  string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("directive: ")
	b.WriteString(string(e.Code))
	switch {
	case e.Name != "":
		fmt.Fprintf(&b, " %q", e.Name)
	case e.Kind.Valid():
		fmt.Fprintf(&b, " %s", e.Kind)
	}
	if e.Location != "" {
		fmt.Fprintf(&b, " at %s", e.Location)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is matches other configuration errors carrying the same code, so callers can
// test with errors.Is(err, &ConfigurationError{Code: CodeUnsupportedDirective}).
func (e *ConfigurationError) Is(target error) bool {
	other, ok := target.(*ConfigurationError)
	if !ok {
		return false
	}
	return other.Code == "" || other.Code == e.Code
}

// DependencyViolation reports a dependency whose stage is not strictly lower
// than its dependent. It indicates a broken catalog and is not recoverable.
type DependencyViolation struct {
	Kind            Kind
	Dependency      Kind
	KindStage       int
	DependencyStage int
}

func (e *DependencyViolation) Error() string {
	if e.KindStage == 0 && e.DependencyStage == 0 {
		return fmt.Sprintf("directive: dependency violation: %s depends on %s which is not declared before it", e.Kind, e.Dependency)
	}
	return fmt.Sprintf("directive: dependency violation: %s (stage %d) depends on %s (stage %d)",
		e.Kind, e.KindStage, e.Dependency, e.DependencyStage)
}

// ExtractionPathError reports a source path whose shape does not support the
// requested extraction, such as broadcast notation applied to a non-array.
type ExtractionPathError struct {
	Path    string
	Segment string
	Found   string
}

func (e *ExtractionPathError) Error() string {
	return fmt.Sprintf("directive: extraction path %q: segment %q expects an array, found %s", e.Path, e.Segment, e.Found)
}

// FilterEvaluationError wraps a failure reported by the expression evaluator.
type FilterEvaluationError struct {
	Expression string
	Err        error
}

func (e *FilterEvaluationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("directive: filter %q failed", e.Expression)
	}
	return fmt.Sprintf("directive: filter %q failed: %v", e.Expression, e.Err)
}

func (e *FilterEvaluationError) Unwrap() error {
	return e.Err
}

// IsConfiguration reports whether err carries a ConfigurationError with the
// supplied code. An empty code matches any configuration error.
func IsConfiguration(err error, code ConfigurationCode) bool {
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		return false
	}
	return code == "" || cfgErr.Code == code
}

func invalidPayload(kind Kind, location, format string, args ...any) error {
	return &ConfigurationError{
		Code:     CodeInvalidPayload,
		Kind:     kind,
		Location: location,
		Message:  fmt.Sprintf(format, args...),
	}
}
