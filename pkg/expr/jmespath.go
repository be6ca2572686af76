package expr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmespath/go-jmespath"

	"github.com/goliatone/go-fmschema/pkg/document"
)

// JMESPath evaluates JMESPath expressions. Compiled expressions are cached and
// the evaluator is safe for concurrent use.
type JMESPath struct {
	compiled sync.Map // string -> *jmespath.JMESPath
}

// NewJMESPath constructs a JMESPath evaluator.
func NewJMESPath() *JMESPath {
	return &JMESPath{}
}

// Evaluate implements Evaluator.
func (j *JMESPath) Evaluate(ctx context.Context, expression string, data any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query, err := j.compile(expression)
	if err != nil {
		return nil, err
	}
	result, err := query.Search(jsonNumbers(document.Normalize(data)))
	if err != nil {
		return nil, fmt.Errorf("expr: jmespath search %q: %w", expression, err)
	}
	return result, nil
}

// Compile validates expression and stores it in the cache.
func (j *JMESPath) Compile(expression string) error {
	_, err := j.compile(expression)
	return err
}

func (j *JMESPath) compile(expression string) (*jmespath.JMESPath, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil, ErrEmptyExpression
	}
	if cached, ok := j.compiled.Load(trimmed); ok {
		return cached.(*jmespath.JMESPath), nil
	}
	query, err := jmespath.Compile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("expr: jmespath compile %q: %w", trimmed, err)
	}
	actual, _ := j.compiled.LoadOrStore(trimmed, query)
	return actual.(*jmespath.JMESPath), nil
}

// jsonNumbers converts Go integer types to float64 in place so comparisons
// against JMESPath number literals behave as they do on decoded JSON.
func jsonNumbers(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			typed[key] = jsonNumbers(child)
		}
		return typed
	case []any:
		for idx, child := range typed {
			typed[idx] = jsonNumbers(child)
		}
		return typed
	case int:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint:
		return float64(typed)
	case uint32:
		return float64(typed)
	case uint64:
		return float64(typed)
	case float32:
		return float64(typed)
	default:
		return value
	}
}
