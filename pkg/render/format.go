package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
	"github.com/goliatone/go-fmschema/pkg/pipeline"
)

// FormatName is the registry name of FormatRenderer.
const FormatName = "data"

// FormatRenderer serialises the processed record as JSON, YAML or flattened
// text. Results without a format default to JSON.
type FormatRenderer struct {
	// Indent is used for JSON output; empty means two spaces.
	Indent string
}

var _ Renderer = FormatRenderer{}

func (FormatRenderer) Name() string { return FormatName }

func (FormatRenderer) ContentType() string { return "application/json" }

// Render implements Renderer.
func (f FormatRenderer) Render(ctx context.Context, result pipeline.Result, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := result.Record.Data()
	switch format := options.ResolveFormat(result, directive.FormatJSON); format {
	case directive.FormatJSON:
		indent := f.Indent
		if indent == "" {
			indent = "  "
		}
		out, err := json.MarshalIndent(data, "", indent)
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(out, '\n'), nil
	case directive.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case directive.FormatText:
		var buf bytes.Buffer
		writeText(&buf, "", data)
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s needs a template renderer", ErrUnsupportedFormat, format)
	}
}

// writeText prints one "path = value" line per leaf in key order.
func writeText(buf *bytes.Buffer, prefix string, value any) {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 && prefix != "" {
			fmt.Fprintf(buf, "%s = {}\n", prefix)
		}
		for _, key := range document.SortedKeys(typed) {
			writeText(buf, joinKey(prefix, key), typed[key])
		}
	case []any:
		if len(typed) == 0 {
			fmt.Fprintf(buf, "%s = []\n", prefix)
		}
		for idx, item := range typed {
			writeText(buf, fmt.Sprintf("%s[%d]", prefix, idx), item)
		}
	case nil:
		fmt.Fprintf(buf, "%s = null\n", prefix)
	case string:
		fmt.Fprintf(buf, "%s = %s\n", prefix, strings.ReplaceAll(typed, "\n", `\n`))
	default:
		fmt.Fprintf(buf, "%s = %v\n", prefix, typed)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
