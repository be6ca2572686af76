package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fmschema/pkg/document"
)

// Transformer rewrites a record before the directive pipeline sees it.
// Implementations return a new record; records are immutable.
type Transformer interface {
	Transform(ctx context.Context, record document.Record) (document.Record, error)
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, record document.Record) (document.Record, error)

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, record document.Record) (document.Record, error) {
	if fn == nil {
		return record, nil
	}
	return fn(ctx, record)
}

// DefaultsTransformer fills front matter keys a document leaves out from a
// declarative defaults document (YAML or JSON):
//
//	author:
//	  name: Site Team
//	draft: false
//
// Objects are merged key by key; any other value present in the record wins.
type DefaultsTransformer struct {
	defaults map[string]any
}

// NewDefaultsTransformer constructs a transformer from raw YAML or JSON bytes.
func NewDefaultsTransformer(data []byte) (*DefaultsTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("defaults transformer: document is empty")
	}
	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("defaults transformer: parse document: %w", err)
	}
	normalized, _ := document.Normalize(payload).(map[string]any)
	if normalized == nil {
		return nil, errors.New("defaults transformer: document is not an object")
	}
	return &DefaultsTransformer{defaults: normalized}, nil
}

// NewDefaultsTransformerFromFS loads a defaults document from fsys.
func NewDefaultsTransformerFromFS(fsys fs.FS, path string) (*DefaultsTransformer, error) {
	if fsys == nil {
		return nil, errors.New("defaults transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("defaults transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("defaults transformer: read %s: %w", path, err)
	}
	return NewDefaultsTransformer(data)
}

// Transform returns record with the missing defaults filled in.
func (t *DefaultsTransformer) Transform(ctx context.Context, record document.Record) (document.Record, error) {
	if err := ctx.Err(); err != nil {
		return document.Record{}, err
	}
	merged := fillDefaults(record.Data(), t.defaults)
	return document.New(record.Source(), merged).WithPart(record.Part()), nil
}

func fillDefaults(dst, defaults map[string]any) map[string]any {
	for key, value := range defaults {
		current, exists := dst[key]
		if !exists {
			dst[key] = document.Clone(value)
			continue
		}
		nestedDst, okDst := current.(map[string]any)
		nestedDefaults, okDefaults := value.(map[string]any)
		if okDst && okDefaults {
			dst[key] = fillDefaults(nestedDst, nestedDefaults)
		}
	}
	return dst
}
