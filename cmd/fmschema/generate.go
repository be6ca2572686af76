package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-fmschema/internal/config"
	"github.com/goliatone/go-fmschema/internal/loader"
	fmlog "github.com/goliatone/go-fmschema/internal/log"
	"github.com/goliatone/go-fmschema/internal/prompt"
	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
	"github.com/goliatone/go-fmschema/pkg/frontmatter"
	"github.com/goliatone/go-fmschema/pkg/orchestrator"
	"github.com/goliatone/go-fmschema/pkg/pipeline"
	"github.com/goliatone/go-fmschema/pkg/render"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

const httpTimeout = 30 * time.Second

type generator struct {
	cfg         *config.Config
	logger      *slog.Logger
	stdout      io.Writer
	driver      prompt.Driver
	interactive bool
}

// generate runs one full pass: build, collect, process, write. Document
// failures are logged and reported as a single error after every output is
// written.
func (g *generator) generate(ctx context.Context) error {
	orch, err := g.orchestrator()
	if err != nil {
		return err
	}

	src, err := schema.SourceFromArg(g.cfg.Schema)
	if err != nil {
		return err
	}
	outFormat, err := g.outputFormat()
	if err != nil {
		return err
	}

	records, err := collect(g.cfg.Documents)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no documents match %s", strings.Join(g.cfg.Documents, ", "))
	}

	rendererName := g.cfg.Renderer
	if g.interactive && g.driver != nil {
		if records, err = prompt.Documents(ctx, g.driver, records); err != nil {
			return err
		}
		if rendererName == "" {
			if rendererName, err = prompt.Renderer(ctx, g.driver, orch.Renderers(), ""); err != nil {
				return err
			}
		}
	}

	out, err := orch.Generate(ctx, orchestrator.Request{
		Source:    src,
		Format:    g.cfg.Format,
		Component: g.cfg.Component,
		Documents: records,
		Renderer:  rendererName,
		RenderOptions: render.RenderOptions{
			Format:  outFormat,
			Globals: g.cfg.Globals,
		},
	})
	if err != nil {
		return err
	}

	for _, rendered := range out.Rendered {
		if err := g.write(rendered, out.Merged, outFormat); err != nil {
			return err
		}
	}
	for _, failure := range out.Failures {
		g.logger.Error("document failed", "run_id", out.RunID, "document", failure.Source, "error", failure.Err)
	}
	if len(out.Failures) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(out.Failures), len(records))
	}
	return nil
}

func (g *generator) orchestrator() (*orchestrator.Orchestrator, error) {
	loaderOpts := schema.NewLoaderOptions()
	if g.cfg.Resolve.AllowHTTP {
		loaderOpts = schema.NewLoaderOptions(schema.WithHTTPFallback(httpTimeout))
	}

	options := []orchestrator.Option{
		orchestrator.WithLogger(fmlog.WithComponent(g.logger, "orchestrator")),
		orchestrator.WithLoader(loader.New(loaderOpts)),
		orchestrator.WithResolveOptions(schema.ResolveOptions{
			AllowHTTPRefs: g.cfg.Resolve.AllowHTTP,
			MaxDocuments:  g.cfg.Resolve.MaxDocuments,
			MaxRefDepth:   g.cfg.Resolve.MaxRefDepth,
		}),
		orchestrator.WithScanOptions(schema.ScanOptions{
			Strict: g.cfg.Scan.Strict,
			Ignore: g.cfg.Scan.Ignore,
		}),
		orchestrator.WithPipelineOptions(
			pipeline.WithWorkers(g.cfg.Pipeline.Workers),
			pipeline.WithBucketParallelism(g.cfg.Pipeline.Parallelism),
		),
	}
	if g.cfg.Templates != "" {
		options = append(options, orchestrator.WithTemplates(os.DirFS(g.cfg.Templates)))
	}
	if g.cfg.Defaults != "" {
		raw, err := os.ReadFile(g.cfg.Defaults)
		if err != nil {
			return nil, fmt.Errorf("read defaults: %w", err)
		}
		defaults, err := orchestrator.NewDefaultsTransformer(raw)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformers(defaults))
	}
	return orchestrator.New(options...), nil
}

func (g *generator) outputFormat() (directive.Format, error) {
	if g.cfg.Output.Format == "" {
		return "", nil
	}
	return directive.ParseFormat(g.cfg.Output.Format)
}

func (g *generator) write(rendered orchestrator.Rendered, merged bool, override directive.Format) error {
	if g.cfg.Output.Dir == "" {
		_, err := g.stdout.Write(rendered.Body)
		return err
	}
	format := render.RenderOptions{Format: override}.ResolveFormat(rendered.Result, fallbackFormat(rendered.Renderer))
	name := outputName(rendered.Source, merged, format)
	target := filepath.Join(g.cfg.Output.Dir, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(target, rendered.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	g.logger.Info("output written", "document", rendered.Source, "renderer", rendered.Renderer, "path", target)
	return nil
}

// watchPaths lists the inputs whose change invalidates a run. Globs are
// watched through their directory.
func (g *generator) watchPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		if _, err := os.Stat(p); err != nil {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}
	if !strings.HasPrefix(g.cfg.Schema, "http://") && !strings.HasPrefix(g.cfg.Schema, "https://") {
		add(g.cfg.Schema)
		add(filepath.Dir(g.cfg.Schema))
	}
	add(g.cfg.Defaults)
	add(g.cfg.Templates)
	for _, pattern := range g.cfg.Documents {
		root, _ := splitGlob(pattern)
		add(root)
	}
	sort.Strings(paths)
	return paths
}

// collect extracts the documents matching patterns in pattern order, each
// pattern sorted by path. Duplicates keep their first position.
func collect(patterns []string) ([]document.Record, error) {
	seen := make(map[string]bool)
	var records []document.Record
	for _, pattern := range patterns {
		root, rest := splitGlob(pattern)
		found, err := frontmatter.ExtractFS(os.DirFS(root), rest)
		if err != nil {
			return nil, err
		}
		for _, record := range found {
			full := filepath.Join(root, filepath.FromSlash(record.Source()))
			if seen[full] {
				continue
			}
			seen[full] = true
			records = append(records, record.WithSource(full))
		}
	}
	return records, nil
}

// splitGlob splits pattern into the directory before its first wildcard
// segment and the remaining slash separated pattern.
func splitGlob(pattern string) (string, string) {
	clean := filepath.ToSlash(filepath.Clean(pattern))
	segments := strings.Split(clean, "/")
	for idx, segment := range segments {
		if strings.ContainsAny(segment, "*?[\\") {
			root := strings.Join(segments[:idx], "/")
			if root == "" && strings.HasPrefix(clean, "/") {
				root = "/"
			} else if root == "" {
				root = "."
			}
			return filepath.FromSlash(root), path.Join(segments[idx:]...)
		}
	}
	return filepath.Dir(pattern), filepath.Base(pattern)
}

func fallbackFormat(renderer string) directive.Format {
	if renderer == render.FormatName {
		return directive.FormatJSON
	}
	return directive.FormatHTML
}

var extensions = map[directive.Format]string{
	directive.FormatJSON:     ".json",
	directive.FormatYAML:     ".yaml",
	directive.FormatText:     ".txt",
	directive.FormatHTML:     ".html",
	directive.FormatMarkdown: ".md",
}

func outputName(source string, merged bool, format directive.Format) string {
	stem := "index"
	if !merged {
		base := filepath.Base(source)
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	ext, ok := extensions[format]
	if !ok {
		ext = ".out"
	}
	return stem + ext
}
