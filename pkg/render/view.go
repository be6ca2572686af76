package render

import (
	"github.com/goliatone/go-fmschema/pkg/pipeline"
)

// View builds the context handed to templates:
//
//	source   document label
//	data     the processed front matter
//	items    elements of the active partition (empty when absent)
//	part     partition path, "" when none
//	format   resolved output format
//	globals  RenderOptions.Globals
func View(result pipeline.Result, options RenderOptions) map[string]any {
	items := result.Items()
	if items == nil {
		items = []any{}
	}
	globals := options.Globals
	if globals == nil {
		globals = map[string]any{}
	}
	return map[string]any{
		"source":  result.Record.Source(),
		"data":    result.Record.Data(),
		"items":   items,
		"part":    result.Record.Part().Path,
		"format":  string(options.ResolveFormat(result, "")),
		"globals": globals,
	}
}
