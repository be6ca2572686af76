package pongo

import (
	"encoding/json"
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-fmschema/pkg/document"
)

// filterJSON encodes the input as compact JSON, marked safe so HTML escaping
// does not mangle the quotes.
func filterJSON(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	raw, err := json.Marshal(document.Normalize(in.Interface()))
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:tojson", OrigError: err}
	}
	return pongo2.AsSafeValue(string(raw)), nil
}

func jsonObject(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("pongo: encode context: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("pongo: context must be an object: %w", err)
	}
	return out, nil
}
