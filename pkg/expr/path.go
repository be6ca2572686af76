package expr

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
)

// Path evaluates plain dotted paths (`meta.title`, `items[].id`). `@` returns
// the input unchanged. Missing values evaluate to nil without error.
type Path struct{}

// NewPath constructs a dotted-path evaluator.
func NewPath() Path {
	return Path{}
}

// Evaluate implements Evaluator.
func (Path) Evaluate(ctx context.Context, expression string, data any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil, ErrEmptyExpression
	}
	if trimmed == "@" {
		return document.Clone(document.Normalize(data)), nil
	}
	path, err := directive.ParsePath(trimmed)
	if err != nil {
		return nil, fmt.Errorf("expr: path: %w", err)
	}
	obj, ok := document.Normalize(data).(map[string]any)
	if !ok {
		return nil, nil
	}
	if path.HasBroadcast() {
		values, found, err := document.Broadcast(obj, path)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return values, nil
	}
	value, found := document.Lookup(obj, path.Keys())
	if !found {
		return nil, nil
	}
	return document.Clone(value), nil
}
