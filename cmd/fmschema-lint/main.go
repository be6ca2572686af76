package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-fmschema/internal/loader"
	"github.com/goliatone/go-fmschema/internal/openapi"
	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fmschema-lint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] schema...\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(fs.Output(), "\nLint JSON Schema and OpenAPI documents for invalid front matter directives.\n\n")
		fs.PrintDefaults()
	}
	var ignore []string
	lenient := fs.Bool("lenient", false, "tolerate unknown x- extensions")
	fs.Func("ignore", "extension key never treated as a directive (repeatable)", func(value string) error {
		ignore = append(ignore, value)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	paths := fs.Args()
	if len(paths) == 0 {
		fs.Usage()
		return 2
	}

	opts := schema.ScanOptions{Strict: !*lenient, Ignore: ignore}
	l := loader.New(schema.NewLoaderOptions())

	var violations []violation
	for _, path := range paths {
		linted, err := lintFile(ctx, l, path, opts)
		if err != nil {
			fmt.Fprintf(stderr, "lint %s: %v\n", path, err)
			return 1
		}
		violations = append(violations, linted...)
	}

	if len(violations) == 0 {
		fmt.Fprintf(stdout, "%d schema(s) ok\n", len(paths))
		return 0
	}
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].file != violations[j].file {
			return violations[i].file < violations[j].file
		}
		return violations[i].location < violations[j].location
	})
	for _, v := range violations {
		fmt.Fprintf(stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
	}
	return 1
}

func lintFile(ctx context.Context, l schema.Loader, path string, opts schema.ScanOptions) ([]violation, error) {
	doc, err := l.Load(ctx, schema.SourceFromFile(path))
	if err != nil {
		return nil, err
	}

	adapter := openapi.NewAdapter()
	if !adapter.Detect(doc.Source(), doc.Raw()) {
		resolved, err := schema.NewResolver(l, schema.ResolveOptions{}).Resolve(ctx, doc)
		if err != nil {
			return nil, err
		}
		return toViolations(path, "", schema.Lint(resolved, opts)), nil
	}

	names, err := openapi.ComponentNames(ctx, doc.Raw())
	if err != nil {
		return nil, err
	}
	var out []violation
	for _, name := range names {
		resolved, err := adapter.Normalize(ctx, doc, schema.NormalizeOptions{Component: name})
		if err != nil {
			return nil, err
		}
		out = append(out, toViolations(path, "components.schemas."+name, schema.Lint(resolved, opts))...)
	}
	return out, nil
}

func toViolations(file, prefix string, problems []error) []violation {
	out := make([]violation, 0, len(problems))
	for _, problem := range problems {
		location := "$"
		message := problem.Error()
		var cfgErr *directive.ConfigurationError
		if errors.As(problem, &cfgErr) {
			if cfgErr.Location != "" {
				location = cfgErr.Location
			}
			message = string(cfgErr.Code)
			switch {
			case cfgErr.Name != "":
				message += " " + cfgErr.Name
			case cfgErr.Kind.Valid():
				message += " " + cfgErr.Kind.String()
			}
			if cfgErr.Message != "" {
				message += ": " + cfgErr.Message
			}
		}
		if prefix != "" {
			location = prefix + " > " + location
		}
		out = append(out, violation{file: file, location: location, message: message})
	}
	return out
}
