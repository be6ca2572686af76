package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// unique drops structurally equal elements, keeping the first occurrence.
// Elements are compared by their canonical JSON encoding, which sorts object
// keys, so numbers compare by value regardless of Go type.
func unique(items []any) ([]any, error) {
	seen := make(map[[32]byte][][]byte, len(items))
	out := make([]any, 0, len(items))
	for idx, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("pipeline: unique: element %d: %w", idx, err)
		}
		sum := blake3.Sum256(encoded)
		duplicate := false
		for _, prior := range seen[sum] {
			if bytes.Equal(prior, encoded) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		seen[sum] = append(seen[sum], encoded)
		out = append(out, item)
	}
	return out, nil
}
