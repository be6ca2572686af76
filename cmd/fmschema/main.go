package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zoobzio/capitan"

	"github.com/goliatone/go-fmschema/internal/config"
	fmlog "github.com/goliatone/go-fmschema/internal/log"
	"github.com/goliatone/go-fmschema/internal/prompt"
	"github.com/goliatone/go-fmschema/internal/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, prompt.NewSurveyDriver(), fmlog.HookPipeline)
	stop()
	capitan.Shutdown()
	os.Exit(code)
}

type options struct {
	configPath  string
	watch       bool
	interactive bool
}

// run parses args, applies them over the config file and generates once, or
// on every change when -watch is set. hook receives the command logger.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, driver prompt.Driver, hook func(*slog.Logger)) int {
	cfg, opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "fmschema: %v\n", err)
		return 2
	}

	logger := fmlog.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if hook != nil {
		hook(logger)
	}

	app := &generator{
		cfg:         cfg,
		logger:      logger,
		stdout:      stdout,
		driver:      driver,
		interactive: opts.interactive,
	}

	if err := app.generate(ctx); err != nil {
		logger.Error("generate failed", "error", err)
		if !opts.watch {
			return 1
		}
	}
	if !opts.watch {
		return 0
	}

	if err := app.watch(ctx); err != nil {
		logger.Error("watch failed", "error", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*config.Config, options, error) {
	fs := flag.NewFlagSet("fmschema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: fmschema [flags] [documents...]\n\n")
		fmt.Fprintf(fs.Output(), "Process front matter documents with the directives declared in a schema.\n\n")
		fs.PrintDefaults()
	}

	var (
		opts        options
		docs        []string
		ignore      []string
		schemaPath  = fs.String("schema", "", "schema file path or URL")
		format      = fs.String("format", "", "schema adapter (jsonschema, openapi); detected when empty")
		component   = fs.String("component", "", "OpenAPI component holding the directives")
		defaults    = fs.String("defaults", "", "YAML file with default front matter values")
		templates   = fs.String("templates", "", "template directory for the template renderer")
		renderer    = fs.String("renderer", "", "renderer name (data, template)")
		out         = fs.String("out", "", "output directory (stdout if empty)")
		outFormat   = fs.String("output-format", "", "override the template-format directive")
		strict      = fs.Bool("strict", false, "reject unknown x- extensions")
		allowHTTP   = fs.Bool("allow-http", false, "allow http(s) schemas and $refs")
		workers     = fs.Int("workers", 0, "documents processed at once (0 = GOMAXPROCS)")
		parallelism = fs.Int("parallelism", 0, "directives of one stage run at once (0 = GOMAXPROCS)")
		logLevel    = fs.String("log-level", "", "log level (debug, info, warn, error)")
		logFormat   = fs.String("log-format", "", "log format (text, json)")
	)
	fs.StringVar(&opts.configPath, "config", "", "config file (YAML)")
	fs.BoolVar(&opts.watch, "watch", false, "regenerate when inputs change")
	fs.BoolVar(&opts.interactive, "interactive", false, "pick documents and renderer interactively")
	fs.Func("docs", "document glob (repeatable)", func(value string) error {
		docs = append(docs, value)
		return nil
	})
	fs.Func("ignore", "extension key never treated as a directive (repeatable)", func(value string) error {
		ignore = append(ignore, value)
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return nil, opts, err
	}
	docs = append(docs, fs.Args()...)

	cfg := config.Defaults()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, opts, err
		}
		cfg = loaded
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	overrideString(set, "schema", &cfg.Schema, *schemaPath)
	overrideString(set, "format", &cfg.Format, *format)
	overrideString(set, "component", &cfg.Component, *component)
	overrideString(set, "defaults", &cfg.Defaults, *defaults)
	overrideString(set, "templates", &cfg.Templates, *templates)
	overrideString(set, "renderer", &cfg.Renderer, *renderer)
	overrideString(set, "out", &cfg.Output.Dir, *out)
	overrideString(set, "output-format", &cfg.Output.Format, *outFormat)
	overrideString(set, "log-level", &cfg.Log.Level, *logLevel)
	overrideString(set, "log-format", &cfg.Log.Format, *logFormat)
	if set["strict"] {
		cfg.Scan.Strict = *strict
	}
	if set["allow-http"] {
		cfg.Resolve.AllowHTTP = *allowHTTP
	}
	if set["workers"] {
		cfg.Pipeline.Workers = *workers
	}
	if set["parallelism"] {
		cfg.Pipeline.Parallelism = *parallelism
	}
	if len(docs) > 0 {
		cfg.Documents = docs
	}
	cfg.Scan.Ignore = append(cfg.Scan.Ignore, ignore...)

	if strings.TrimSpace(cfg.Schema) == "" {
		return nil, opts, errors.New("a schema is required (-schema or config)")
	}
	if err := cfg.Validate(); err != nil {
		return nil, opts, err
	}
	return cfg, opts, nil
}

func overrideString(set map[string]bool, name string, dst *string, value string) {
	if set[name] {
		*dst = value
	}
}

func (g *generator) watch(ctx context.Context) error {
	paths := g.watchPaths()
	changes, err := watch.New(watch.DefaultDebounce, paths...).Watch(ctx)
	if err != nil {
		return err
	}
	g.logger.Info("watching for changes", "paths", len(paths))
	for changed := range changes {
		g.logger.Info("inputs changed", "files", changed)
		if err := g.generate(ctx); err != nil {
			g.logger.Error("generate failed", "error", err)
		}
	}
	return nil
}
