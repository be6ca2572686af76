package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
	"github.com/goliatone/go-fmschema/pkg/expr"
)

// Pipeline applies one directive set to records. It is immutable after New and
// safe for concurrent use.
type Pipeline struct {
	set         directive.Set
	order       directive.ProcessingOrder
	buckets     []stageBucket
	merges      []directive.Instance
	partPath    directive.Path
	evaluator   expr.Evaluator
	logger      *slog.Logger
	workers     int
	parallelism int
	orders      *directive.OrderCache
}

type stageBucket struct {
	stage     int
	kinds     []directive.Kind
	instances []directive.Instance
}

func (b stageBucket) label() string {
	names := make([]string, len(b.kinds))
	for idx, kind := range b.kinds {
		names[idx] = kind.String()
	}
	return strings.Join(names, ",")
}

// New builds a pipeline for set. It fails when the catalog ordering is
// violated or when two data-writing instances of one stage target
// overlapping locations.
func New(set directive.Set, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{set: set}
	defaults(p)
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	kinds := set.Kinds()
	if err := directive.VerifyAcyclic(kinds...); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	order, err := p.orders.Order(kinds...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	p.order = order

	if partition, ok := set.Partition(); ok {
		p.partPath = partition.Target()
	}
	for _, bucket := range order.Buckets() {
		sb := stageBucket{stage: bucket.Stage, kinds: bucket.Kinds}
		for _, kind := range bucket.Kinds {
			sb.instances = append(sb.instances, set.ByKind(kind)...)
		}
		if err := p.checkTargets(sb); err != nil {
			return nil, err
		}
		p.buckets = append(p.buckets, sb)
	}
	p.merges = set.ByKind(directive.KindMerge)
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// Order returns the processing order computed for the set.
func (p *Pipeline) Order() directive.ProcessingOrder {
	return p.order
}

func (p *Pipeline) absoluteTarget(inst directive.Instance) directive.Path {
	if inst.Scope() == directive.ScopePart {
		return p.partPath.Join(inst.Target())
	}
	return inst.Target()
}

func (p *Pipeline) checkTargets(b stageBucket) error {
	for i, a := range b.instances {
		if !a.WritesData() {
			continue
		}
		for _, other := range b.instances[i+1:] {
			if !other.WritesData() {
				continue
			}
			if p.absoluteTarget(a).Overlaps(p.absoluteTarget(other)) {
				return &directive.ConfigurationError{
					Code:     directive.CodeConflictingTargets,
					Kind:     other.Kind(),
					Location: other.Location(),
					Message:  fmt.Sprintf("target overlaps %s in stage %d", a, b.stage),
				}
			}
		}
	}
	return nil
}

// Process runs every stage on record. The context is checked before the
// document starts; once started, a document runs to completion or failure.
// On failure no result is returned and the error wraps one or more
// *StageError values.
func (p *Pipeline) Process(ctx context.Context, record document.Record) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("pipeline: %s: %w", record.Source(), err)
	}
	return p.run(ctx, p.logger, record, p.buckets)
}

// ProcessBatch processes records with a bounded worker pool. Failing documents
// are reported in Failures without affecting the others. When the set
// declares merge-arrays, the surviving documents are merged after the stages
// below the merge stage and the remaining stages run once on the merged
// record.
func (p *Pipeline) ProcessBatch(ctx context.Context, records []document.Record) BatchResult {
	batch := BatchResult{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", batch.RunID)

	before, after := p.buckets, []stageBucket(nil)
	if len(p.merges) > 0 {
		before, after = splitAt(p.buckets, directive.KindMerge.Stage())
	}

	results := make([]Result, len(records))
	errs := make([]error, len(records))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for idx, record := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[idx] = fmt.Errorf("pipeline: %s: %w", record.Source(), err)
				return nil
			}
			results[idx], errs[idx] = p.run(ctx, logger, record, before)
			return nil
		})
	}
	_ = g.Wait()

	survivors := make([]Result, 0, len(records))
	for idx, record := range records {
		if errs[idx] != nil {
			batch.Failures = append(batch.Failures, Failure{Index: idx, Source: record.Source(), Err: errs[idx]})
			continue
		}
		survivors = append(survivors, results[idx])
	}

	if len(p.merges) == 0 {
		batch.Results = survivors
		logger.Info("batch processed", "documents", len(records), "failed", len(batch.Failures))
		return batch
	}
	if len(survivors) == 0 {
		logger.Warn("batch has no documents left to merge", "documents", len(records))
		return batch
	}

	merged, err := p.merge(survivors)
	if err != nil {
		batch.Failures = append(batch.Failures, Failure{Index: -1, Source: survivors[0].Record.Source(), Err: err})
		return batch
	}
	capitan.Emit(ctx, BatchMerged,
		KeyRunID.Field(batch.RunID),
		KeyDocuments.Field(len(survivors)),
	)
	logger.Debug("batch merged", "documents", len(survivors))

	if err := ctx.Err(); err != nil {
		batch.Failures = append(batch.Failures, Failure{Index: -1, Source: merged.Source(), Err: fmt.Errorf("pipeline: %s: %w", merged.Source(), err)})
		return batch
	}
	result, err := p.run(ctx, logger, merged, after)
	if err != nil {
		batch.Failures = append(batch.Failures, Failure{Index: -1, Source: merged.Source(), Err: err})
		return batch
	}
	batch.Results = []Result{result}
	batch.Merged = true
	logger.Info("batch processed", "documents", len(records), "failed", len(batch.Failures), "merged", true)
	return batch
}

func splitAt(buckets []stageBucket, stage int) ([]stageBucket, []stageBucket) {
	for idx, bucket := range buckets {
		if bucket.stage >= stage {
			return buckets[:idx], buckets[idx:]
		}
	}
	return buckets, nil
}

// merge concatenates every merge target across results onto a copy of the
// first record. Arrays are spread, other values append as one element and
// absent values are skipped. The part marker is recomputed on the merged data.
func (p *Pipeline) merge(results []Result) (document.Record, error) {
	merged := results[0].Record
	for _, inst := range p.merges {
		target := inst.Target()
		var combined []any
		found := false
		for _, result := range results {
			value, ok := result.Record.Get(target)
			if !ok {
				continue
			}
			found = true
			if items, ok := value.([]any); ok {
				combined = append(combined, items...)
				continue
			}
			combined = append(combined, value)
		}
		if !found {
			continue
		}
		if combined == nil {
			combined = []any{}
		}
		next, err := merged.With(target, combined)
		if err != nil {
			return document.Record{}, &StageError{
				Kind:     inst.Kind(),
				Target:   inst.Location(),
				Stage:    inst.Kind().Stage(),
				Document: merged.Source(),
				Err:      err,
			}
		}
		merged = next
	}
	if !p.partPath.IsZero() {
		value, ok := merged.Get(p.partPath)
		merged = merged.WithPart(document.Part{Path: p.partPath.String(), Present: ok && !document.IsEmpty(value)})
	}
	return merged, nil
}

// run applies buckets to record. Callers check ctx before starting; a started
// document ignores cancellation so evaluators never see a cancelled context
// halfway through.
func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, record document.Record, buckets []stageBucket) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	source := record.Source()
	capitan.Emit(ctx, DocumentStarted, KeyDocument.Field(source))

	current := Result{Record: record}
	for _, bucket := range buckets {
		next, err := p.runBucket(ctx, bucket, current)
		if err != nil {
			logger.Debug("stage failed", "document", source, "stage", bucket.stage, "kinds", bucket.label())
			capitan.Emit(ctx, DocumentFailed,
				KeyDocument.Field(source),
				KeyStage.Field(bucket.stage),
				KeyError.Field(err.Error()),
			)
			return Result{}, err
		}
		current = next
		logger.Debug("stage applied", "document", source, "stage", bucket.stage, "kinds", bucket.label())
		capitan.Emit(ctx, StageCompleted,
			KeyDocument.Field(source),
			KeyStage.Field(bucket.stage),
			KeyKinds.Field(bucket.label()),
		)
	}

	capitan.Emit(ctx, DocumentCompleted,
		KeyDocument.Field(source),
		KeyDuration.Field(time.Since(started)),
	)
	return current, nil
}

func (p *Pipeline) runBucket(ctx context.Context, bucket stageBucket, current Result) (Result, error) {
	data := current.Record.Data()
	effects := make([]effect, len(bucket.instances))
	errs := make([]error, len(bucket.instances))

	if len(bucket.instances) == 1 || p.parallelism == 1 {
		for idx, inst := range bucket.instances {
			effects[idx], errs[idx] = p.evaluate(ctx, inst, current.Record, data)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(p.parallelism)
		for idx, inst := range bucket.instances {
			g.Go(func() error {
				effects[idx], errs[idx] = p.evaluate(ctx, inst, current.Record, data)
				return nil
			})
		}
		_ = g.Wait()
	}

	var failures []error
	for idx, err := range errs {
		if err != nil {
			failures = append(failures, p.stageError(bucket, bucket.instances[idx], current.Record, err))
		}
	}
	if len(failures) > 0 {
		return Result{}, errors.Join(failures...)
	}

	next := current
	for idx, eff := range effects {
		var err error
		next, err = eff.apply(next, p.partPath)
		if err != nil {
			return Result{}, p.stageError(bucket, bucket.instances[idx], current.Record, err)
		}
	}
	return next, nil
}

func (p *Pipeline) stageError(bucket stageBucket, inst directive.Instance, record document.Record, err error) *StageError {
	return &StageError{
		Kind:     inst.Kind(),
		Target:   inst.Location(),
		Stage:    bucket.stage,
		Document: record.Source(),
		Err:      err,
	}
}
