package document

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-fmschema/pkg/directive"
)

// ErrNotObject is returned when a write has to descend through a value that is
// not an object.
var ErrNotObject = errors.New("document: value is not an object")

// Part marks the active subtree selected by the frontmatter-part directive.
// Present is false when the partition path was declared but held no data.
type Part struct {
	Path    string
	Present bool
}

// IsZero reports whether no partition was recorded.
func (p Part) IsZero() bool {
	return p.Path == "" && !p.Present
}

// Record is the immutable working tree of one source document.
type Record struct {
	source string
	data   map[string]any
	part   Part
}

// New builds a record from decoded front matter. The data is normalised and
// deep-copied, so later changes to the input do not leak into the record.
func New(source string, data map[string]any) Record {
	normalized, _ := Normalize(data).(map[string]any)
	if normalized == nil {
		normalized = map[string]any{}
	}
	return Record{source: source, data: normalized}
}

// Source identifies the document the record was built from.
func (r Record) Source() string { return r.source }

// Data returns a deep copy of the data tree.
func (r Record) Data() map[string]any { return CloneMap(r.data) }

// Part returns the active partition marker.
func (r Record) Part() Part { return r.part }

// WithPart returns a copy of the record carrying part.
func (r Record) WithPart(part Part) Record {
	r.part = part
	return r
}

// WithSource returns a copy of the record with a different source label.
func (r Record) WithSource(source string) Record {
	r.source = source
	return r
}

// Get returns the value stored at path. Broadcast paths are projected with
// Broadcast; shape errors on those report as missing.
func (r Record) Get(path directive.Path) (any, bool) {
	if path.HasBroadcast() {
		values, ok, err := Broadcast(r.data, path)
		if err != nil || !ok {
			return nil, false
		}
		return values, true
	}
	value, ok := Lookup(r.data, path.Keys())
	if !ok {
		return nil, false
	}
	return Clone(value), true
}

// With returns a copy of the record with value stored at path. Missing
// intermediate objects are created. Unchanged subtrees are shared with the
// receiver, which is safe because records never mutate their data.
func (r Record) With(path directive.Path, value any) (Record, error) {
	if path.IsZero() {
		return Record{}, errors.New("document: set: path is empty")
	}
	if path.HasBroadcast() {
		return Record{}, fmt.Errorf("document: set %s: broadcast paths are read only", path)
	}
	data, err := setIn(r.data, path.Keys(), Normalize(value))
	if err != nil {
		return Record{}, fmt.Errorf("document: set %s: %w", path, err)
	}
	r.data = data
	return r, nil
}

// Without returns a copy of the record with path removed. Removing a missing
// path is a no-op.
func (r Record) Without(path directive.Path) Record {
	if path.IsZero() || path.HasBroadcast() {
		return r
	}
	if _, ok := Lookup(r.data, path.Keys()); !ok {
		return r
	}
	r.data = deleteIn(r.data, path.Keys())
	return r
}

// Equal reports whether both records carry the same source, data and part.
func (r Record) Equal(other Record) bool {
	if r.source != other.source || r.part != other.part {
		return false
	}
	if len(r.data) == 0 && len(other.data) == 0 {
		return true
	}
	return reflect.DeepEqual(r.data, other.data)
}

// Lookup walks keys through nested objects.
func Lookup(data map[string]any, keys []string) (any, bool) {
	var current any = data
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Broadcast projects a path with one `[]` segment over the array found at that
// segment. Elements missing the remaining keys are skipped. It returns
// ok=false when the array itself is absent, and *directive.ExtractionPathError
// when the broadcast segment holds something other than an array. Paths
// without a broadcast segment return the single value wrapped in a slice.
func Broadcast(data map[string]any, path directive.Path) ([]any, bool, error) {
	segments := path.Segments()
	split := -1
	for idx, segment := range segments {
		if segment.Broadcast {
			split = idx
			break
		}
	}
	keys := path.Keys()
	if split < 0 {
		value, ok := Lookup(data, keys)
		if !ok {
			return nil, false, nil
		}
		return []any{Clone(value)}, true, nil
	}

	container, ok := Lookup(data, keys[:split+1])
	if !ok || container == nil {
		return nil, false, nil
	}
	items, ok := container.([]any)
	if !ok {
		return nil, false, &directive.ExtractionPathError{
			Path:    path.String(),
			Segment: segments[split].String(),
			Found:   TypeName(container),
		}
	}

	rest := keys[split+1:]
	out := make([]any, 0, len(items))
	for _, item := range items {
		if len(rest) == 0 {
			out = append(out, Clone(item))
			continue
		}
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		value, ok := Lookup(obj, rest)
		if !ok {
			continue
		}
		out = append(out, Clone(value))
	}
	return out, true, nil
}

func setIn(data map[string]any, keys []string, value any) (map[string]any, error) {
	out := make(map[string]any, len(data)+1)
	for key, child := range data {
		out[key] = child
	}
	if len(keys) == 1 {
		out[keys[0]] = value
		return out, nil
	}

	var child map[string]any
	switch existing := data[keys[0]].(type) {
	case nil:
		child = nil
	case map[string]any:
		child = existing
	default:
		return nil, fmt.Errorf("segment %q holds %s: %w", keys[0], TypeName(existing), ErrNotObject)
	}
	next, err := setIn(child, keys[1:], value)
	if err != nil {
		return nil, err
	}
	out[keys[0]] = next
	return out, nil
}

func deleteIn(data map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(data))
	for key, child := range data {
		out[key] = child
	}
	if len(keys) == 1 {
		delete(out, keys[0])
		return out
	}
	child, ok := data[keys[0]].(map[string]any)
	if !ok {
		return out
	}
	out[keys[0]] = deleteIn(child, keys[1:])
	return out
}
