package openapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-fmschema/pkg/schema"
)

// AdapterName is the registry name of Adapter.
const AdapterName = "openapi"

// Adapter reads directive schemas from OpenAPI component schemas.
type Adapter struct{}

var _ schema.FormatAdapter = Adapter{}

// NewAdapter constructs the OpenAPI adapter.
func NewAdapter() Adapter { return Adapter{} }

func (Adapter) Name() string { return AdapterName }

// Detect reports whether raw carries an openapi or swagger version key.
func (Adapter) Detect(_ schema.Source, raw []byte) bool {
	payload, err := schema.Parse(raw)
	if err != nil {
		return false
	}
	return schema.IsOpenAPI(payload)
}

// Normalize converts the component named by opts.Component. When the document
// declares a single component it is used without a name.
func (Adapter) Normalize(ctx context.Context, doc schema.Document, opts schema.NormalizeOptions) (map[string]any, error) {
	raw := doc.Raw()
	name := strings.TrimSpace(opts.Component)
	if name == "" {
		names, err := ComponentNames(ctx, raw)
		if err != nil {
			return nil, err
		}
		if len(names) != 1 {
			return nil, fmt.Errorf("openapi: %s: component is required (have %s)", doc.Location(), strings.Join(names, ", "))
		}
		name = names[0]
	}
	return ComponentSchema(ctx, raw, name)
}
