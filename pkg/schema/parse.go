package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fmschema/pkg/document"
)

// Parse decodes a JSON or YAML schema payload into a JSON-like tree.
func Parse(raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("schema: raw schema is empty")
	}
	return decode(trimmed, sniff(trimmed))
}

// ParseDocument decodes doc using its detected encoding.
func ParseDocument(doc Document) (map[string]any, error) {
	raw := bytes.TrimSpace(doc.raw)
	if len(raw) == 0 {
		return nil, errors.New("schema: raw schema is empty")
	}
	payload, err := decode(raw, doc.Encoding())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Location(), err)
	}
	return payload, nil
}

func decode(raw []byte, encoding Encoding) (map[string]any, error) {
	var payload any
	switch encoding {
	case EncodingJSON:
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("schema: parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("schema: parse yaml: %w", err)
		}
	}
	out, ok := document.Normalize(payload).(map[string]any)
	if !ok || out == nil {
		return nil, errors.New("schema: root is not an object")
	}
	return out, nil
}
