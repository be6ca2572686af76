package pipeline

import (
	"context"
	"fmt"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
)

// effect is the deferred change produced by one instance. Effects are only
// applied once every sibling in the bucket has succeeded.
type effect struct {
	inst   directive.Instance
	part   *document.Part
	render RenderMeta
	writes []write
}

// write stores value at the instance target. element is the index inside a
// part array, or -1 for the document root or an object part.
type write struct {
	element int
	value   any
}

func (p *Pipeline) evaluate(ctx context.Context, inst directive.Instance, record document.Record, data map[string]any) (effect, error) {
	eff := effect{inst: inst}

	switch inst.Kind() {
	case directive.KindPartition:
		value, ok := document.Lookup(data, inst.Target().Keys())
		eff.part = &document.Part{Path: inst.Target().String(), Present: ok && !document.IsEmpty(value)}
		return eff, nil
	case directive.KindTemplate:
		eff.render.Template = inst.Template()
		return eff, nil
	case directive.KindItemTemplate:
		eff.render.ItemTemplate = inst.Template()
		return eff, nil
	case directive.KindFormat:
		eff.render.Format = inst.Format()
		return eff, nil
	}

	if inst.Scope() != directive.ScopePart {
		out, err := p.compute(ctx, inst, data)
		if err != nil {
			return effect{}, err
		}
		if out.set {
			eff.writes = append(eff.writes, write{element: -1, value: out.value})
		}
		return eff, nil
	}

	if !record.Part().Present {
		return eff, nil
	}
	container, ok := document.Lookup(data, p.partPath.Keys())
	if !ok {
		return eff, nil
	}
	switch typed := container.(type) {
	case []any:
		for idx, item := range typed {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out, err := p.compute(ctx, inst, obj)
			if err != nil {
				return effect{}, fmt.Errorf("item %d: %w", idx, err)
			}
			if out.set {
				eff.writes = append(eff.writes, write{element: idx, value: out.value})
			}
		}
	case map[string]any:
		out, err := p.compute(ctx, inst, typed)
		if err != nil {
			return effect{}, err
		}
		if out.set {
			eff.writes = append(eff.writes, write{element: -1, value: out.value})
		}
	}
	return eff, nil
}

func (e effect) apply(current Result, partPath directive.Path) (Result, error) {
	next := current
	if e.part != nil {
		next.Record = next.Record.WithPart(*e.part)
	}
	if e.render.Template != "" {
		next.Render.Template = e.render.Template
	}
	if e.render.ItemTemplate != "" {
		next.Render.ItemTemplate = e.render.ItemTemplate
	}
	if e.render.Format != "" {
		next.Render.Format = e.render.Format
	}
	if len(e.writes) == 0 {
		return next, nil
	}

	target := e.inst.Target()
	if e.inst.Scope() != directive.ScopePart {
		record, err := next.Record.With(target, e.writes[0].value)
		if err != nil {
			return Result{}, err
		}
		next.Record = record
		return next, nil
	}

	container, _ := next.Record.Get(partPath)
	switch typed := container.(type) {
	case []any:
		for _, w := range e.writes {
			if w.element < 0 || w.element >= len(typed) {
				return Result{}, fmt.Errorf("item %d is out of range", w.element)
			}
			obj, _ := typed[w.element].(map[string]any)
			updated, err := document.New("", obj).With(target, w.value)
			if err != nil {
				return Result{}, fmt.Errorf("item %d: %w", w.element, err)
			}
			typed[w.element] = updated.Data()
		}
		container = typed
	case map[string]any:
		updated, err := document.New("", typed).With(target, e.writes[0].value)
		if err != nil {
			return Result{}, err
		}
		container = updated.Data()
	default:
		return Result{}, fmt.Errorf("part %s is %s", partPath, document.TypeName(container))
	}

	record, err := next.Record.With(partPath, container)
	if err != nil {
		return Result{}, err
	}
	next.Record = record
	return next, nil
}
