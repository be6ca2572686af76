package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-fmschema/pkg/schema"
)

func (o *Orchestrator) resolveAdapter(req Request, doc schema.Document) (schema.FormatAdapter, error) {
	return o.adapters.Select(req.Format, doc, o.defaultAdapter)
}

func (o *Orchestrator) resolveSchemaDocument(ctx context.Context, req Request) (schema.Document, error) {
	if req.SchemaDocument != nil {
		return *req.SchemaDocument, nil
	}
	if req.Source == nil {
		return schema.Document{}, errors.New("orchestrator: schema source or document is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return schema.Document{}, fmt.Errorf("orchestrator: load schema: %w", err)
	}
	return doc, nil
}
