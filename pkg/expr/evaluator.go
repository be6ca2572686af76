// Package expr adapts query languages to the opaque expression evaluator used
// by the jmespath-filter and derived-from directives.
package expr

import (
	"context"
	"errors"
)

// ErrEmptyExpression is returned when an evaluator receives a blank expression.
var ErrEmptyExpression = errors.New("expr: expression is empty")

// Evaluator evaluates expression against data and returns the result. A
// result of nil means the expression matched nothing.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, data any) (any, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, expression string, data any) (any, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, expression string, data any) (any, error) {
	return f(ctx, expression, data)
}
