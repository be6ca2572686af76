package fmschema

import (
	"github.com/goliatone/go-fmschema/internal/loader"
	"github.com/goliatone/go-fmschema/pkg/schema"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	cfg := schema.NewLoaderOptions(options...)
	return loader.New(cfg)
}

// NewResolver constructs a $ref resolver backed by NewLoader.
func NewResolver(opts schema.ResolveOptions, options ...schema.LoaderOption) *schema.Resolver {
	return schema.NewResolver(NewLoader(options...), opts)
}
