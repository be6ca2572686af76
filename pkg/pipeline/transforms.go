package pipeline

import (
	"context"
	"fmt"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
)

// outcome is what a data-writing instance decided for one object: either
// nothing, or a value to store at its target.
type outcome struct {
	value any
	set   bool
}

// compute evaluates a data-writing instance against data, which must be
// treated as read only because bucket siblings share it.
func (p *Pipeline) compute(ctx context.Context, inst directive.Instance, data map[string]any) (outcome, error) {
	target := inst.Target()

	switch inst.Kind() {
	case directive.KindExtraction:
		return extract(inst, data)

	case directive.KindFlatten:
		value, ok := document.Lookup(data, target.Keys())
		if !ok || value == nil {
			return outcome{value: []any{}, set: true}, nil
		}
		return outcome{value: flatten(value), set: true}, nil

	case directive.KindFilter:
		value, ok := document.Lookup(data, target.Keys())
		if !ok {
			return outcome{}, nil
		}
		result, err := p.evaluator.Evaluate(ctx, inst.Expression(), document.Clone(value))
		if err != nil {
			return outcome{}, &directive.FilterEvaluationError{Expression: inst.Expression(), Err: err}
		}
		return outcome{value: result, set: true}, nil

	case directive.KindMerge:
		// Single documents merge with nothing; batches merge in ProcessBatch.
		return outcome{}, nil

	case directive.KindDerivation:
		for _, expression := range inst.Expressions() {
			value, err := p.evaluator.Evaluate(ctx, expression, document.CloneMap(data))
			if err != nil || document.IsEmpty(value) {
				continue
			}
			return outcome{value: value, set: true}, nil
		}
		return outcome{value: nil, set: true}, nil

	case directive.KindUnique:
		value, ok := document.Lookup(data, target.Keys())
		if !ok {
			return outcome{}, nil
		}
		items, ok := value.([]any)
		if !ok {
			return outcome{}, nil
		}
		deduped, err := unique(items)
		if err != nil {
			return outcome{}, err
		}
		return outcome{value: deduped, set: true}, nil

	case directive.KindInvalid, directive.KindPartition,
		directive.KindTemplate, directive.KindItemTemplate, directive.KindFormat:
		return outcome{}, fmt.Errorf("pipeline: %s does not write data", inst.Kind())
	}
	return outcome{}, fmt.Errorf("pipeline: unhandled directive kind %s", inst.Kind())
}

func extract(inst directive.Instance, data map[string]any) (outcome, error) {
	source, ok := inst.Source()
	if !ok {
		return outcome{}, fmt.Errorf("pipeline: %s has no source path", inst)
	}
	if source.HasBroadcast() {
		values, found, err := document.Broadcast(data, source)
		if err != nil {
			return outcome{}, err
		}
		if !found {
			return outcome{}, nil
		}
		return outcome{value: values, set: true}, nil
	}
	value, found := document.Lookup(data, source.Keys())
	if !found {
		return outcome{}, nil
	}
	return outcome{value: document.Clone(value), set: true}, nil
}

// flatten turns nested arrays into a single array in depth-first order.
// Objects and scalars are leaves.
func flatten(value any) []any {
	items, ok := value.([]any)
	if !ok {
		return []any{document.Clone(value)}
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		if nested, ok := item.([]any); ok {
			out = append(out, flatten(nested)...)
			continue
		}
		out = append(out, document.Clone(item))
	}
	return out
}
