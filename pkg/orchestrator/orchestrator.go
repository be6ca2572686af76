package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/goliatone/go-fmschema/internal/loader"
	"github.com/goliatone/go-fmschema/internal/openapi"
	"github.com/goliatone/go-fmschema/pkg/document"
	"github.com/goliatone/go-fmschema/pkg/pipeline"
	"github.com/goliatone/go-fmschema/pkg/render"
	"github.com/goliatone/go-fmschema/pkg/render/template"
	"github.com/goliatone/go-fmschema/pkg/render/template/pongo"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects the schema loader used for Request.Source.
func WithLoader(l schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = l
	}
}

// WithAdapterRegistry replaces the schema format adapters.
func WithAdapterRegistry(registry *AdapterRegistry) Option {
	return func(o *Orchestrator) {
		o.adapters = registry
	}
}

// WithDefaultAdapter names the adapter used when detection finds none.
func WithDefaultAdapter(name string) Option {
	return func(o *Orchestrator) {
		o.defaultAdapter = name
	}
}

// WithResolveOptions configures the $ref resolver of the default JSON Schema
// adapter.
func WithResolveOptions(opts schema.ResolveOptions) Option {
	return func(o *Orchestrator) {
		o.resolveOpts = opts
	}
}

// WithScanOptions configures directive scanning.
func WithScanOptions(opts schema.ScanOptions) Option {
	return func(o *Orchestrator) {
		o.scanOpts = opts
	}
}

// WithPipelineOptions forwards options to every pipeline the orchestrator
// builds.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *Orchestrator) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithTemplates registers the template renderer over fsys in the default
// registry.
func WithTemplates(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.templates = fsys
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits one.
// Without it, results carrying a template use the template renderer and the
// rest use the data renderer.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformers registers record transformers that run, in order, before
// the pipeline.
func WithTransformers(transformers ...Transformer) Option {
	return func(o *Orchestrator) {
		for _, t := range transformers {
			if t != nil {
				o.transformers = append(o.transformers, t)
			}
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates schema loading, directive scanning, batch
// processing and rendering. Missing dependencies fall back to the built-in
// implementations.
type Orchestrator struct {
	loader          schema.Loader
	adapters        *AdapterRegistry
	defaultAdapter  string
	resolveOpts     schema.ResolveOptions
	scanOpts        schema.ScanOptions
	pipelineOpts    []pipeline.Option
	registry        *render.Registry
	templates       fs.FS
	defaultRenderer string
	transformers    []Transformer
	logger          *slog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultAdapter: schema.JSONSchemaAdapterName,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	o.applyDefaults()
	return o
}

// Request describes one run: a schema and the documents to process.
type Request struct {
	// Source identifies where the schema lives. Optional when SchemaDocument
	// is supplied.
	Source schema.Source
	// SchemaDocument bypasses the loader.
	SchemaDocument *schema.Document
	// Format names the schema adapter. Empty means detect.
	Format string
	// Component selects a named schema inside an OpenAPI document.
	Component string
	// Documents are the records to process.
	Documents []document.Record
	// Renderer names the renderer. Empty uses the default selection.
	Renderer string
	// RenderOptions are passed to the renderer unchanged.
	RenderOptions render.RenderOptions
}

// Rendered is the output of one result.
type Rendered struct {
	Source      string
	Renderer    string
	ContentType string
	Body        []byte
	Result      pipeline.Result
}

// Output collects a run. Failures holds documents that failed a transformer,
// the pipeline or the renderer; the other documents are still rendered.
type Output struct {
	RunID    string
	Rendered []Rendered
	Failures []pipeline.Failure
	Merged   bool
}

// Err joins every failure, or returns nil.
func (o Output) Err() error {
	return pipeline.BatchResult{Failures: o.Failures}.Err()
}

// Compile loads the schema named by req, scans its directives and builds the
// pipeline.
func (o *Orchestrator) Compile(ctx context.Context, req Request) (*pipeline.Pipeline, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.initialiseErr != nil {
		return nil, o.initialiseErr
	}

	doc, err := o.resolveSchemaDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	adapter, err := o.resolveAdapter(req, doc)
	if err != nil {
		return nil, err
	}
	resolved, err := adapter.Normalize(ctx, doc, schema.NormalizeOptions{Component: req.Component})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: normalize schema: %w", err)
	}
	set, err := schema.Scan(resolved, o.scanOpts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: scan directives: %w", err)
	}
	p, err := pipeline.New(set, o.pipelineOpts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build pipeline: %w", err)
	}
	o.logger.Debug("schema compiled", "schema", doc.Location(), "adapter", adapter.Name(), "directives", len(set.Instances()))
	return p, nil
}

// Generate compiles the schema, processes req.Documents as one batch and
// renders every result. Configuration problems return an error; document
// level problems are reported in Output.Failures.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Output, error) {
	p, err := o.Compile(ctx, req)
	if err != nil {
		return Output{}, err
	}
	return o.Run(ctx, p, req)
}

// Run processes and renders req.Documents with an already compiled pipeline.
// The schema fields of req are ignored.
func (o *Orchestrator) Run(ctx context.Context, p *pipeline.Pipeline, req Request) (Output, error) {
	if p == nil {
		return Output{}, errors.New("orchestrator: pipeline is nil")
	}
	var out Output

	records := make([]document.Record, 0, len(req.Documents))
	for idx, record := range req.Documents {
		transformed, err := o.transform(ctx, record)
		if err != nil {
			out.Failures = append(out.Failures, pipeline.Failure{Index: idx, Source: record.Source(), Err: err})
			continue
		}
		records = append(records, transformed)
	}

	batch := p.ProcessBatch(ctx, records)
	out.RunID = batch.RunID
	out.Merged = batch.Merged
	out.Failures = append(out.Failures, batch.Failures...)

	for _, result := range batch.Results {
		renderer, err := o.rendererFor(req.Renderer, result)
		if err != nil {
			return out, err
		}
		body, err := renderer.Render(ctx, result, req.RenderOptions)
		if err != nil {
			out.Failures = append(out.Failures, pipeline.Failure{
				Index:  -1,
				Source: result.Record.Source(),
				Err:    fmt.Errorf("orchestrator: render %s with %s: %w", result.Record.Source(), renderer.Name(), err),
			})
			continue
		}
		out.Rendered = append(out.Rendered, Rendered{
			Source:      result.Record.Source(),
			Renderer:    renderer.Name(),
			ContentType: renderer.ContentType(),
			Body:        body,
			Result:      result,
		})
	}
	o.logger.Info("run finished", "run_id", out.RunID, "rendered", len(out.Rendered), "failed", len(out.Failures))
	return out, nil
}

// Renderers lists the registered renderer names.
func (o *Orchestrator) Renderers() []string {
	if o.registry == nil {
		return nil
	}
	return o.registry.List()
}

func (o *Orchestrator) transform(ctx context.Context, record document.Record) (document.Record, error) {
	for _, t := range o.transformers {
		next, err := t.Transform(ctx, record)
		if err != nil {
			return document.Record{}, fmt.Errorf("orchestrator: transform %s: %w", record.Source(), err)
		}
		record = next
	}
	return record, nil
}

func (o *Orchestrator) rendererFor(name string, result pipeline.Result) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}
	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	if target == "" {
		target = render.FormatName
		if result.Render.Template != "" && o.registry.Has(template.Name) {
			target = template.Name
		}
	}
	renderer, err := o.registry.Get(target)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = loader.New(schema.NewLoaderOptions())
	}
	if o.adapters == nil {
		o.adapters = NewAdapterRegistry()
		o.adapters.MustRegister(openapi.NewAdapter(), "oas")
		o.adapters.MustRegister(schema.NewJSONSchemaAdapter(schema.NewResolver(o.loader, o.resolveOpts)), "json-schema")
	}
	if o.registry == nil {
		registry, err := defaultRegistry(o.templates)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderers: %w", err)
			return
		}
		o.registry = registry
	}
}

func defaultRegistry(templates fs.FS) (*render.Registry, error) {
	registry, err := render.NewRegistry(render.FormatRenderer{})
	if err != nil {
		return nil, err
	}
	if templates == nil {
		return registry, nil
	}
	engine, err := pongo.New(pongo.WithFS(templates))
	if err != nil {
		return nil, err
	}
	renderer, err := template.NewRenderer(engine)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(renderer); err != nil {
		return nil, err
	}
	return registry, nil
}
