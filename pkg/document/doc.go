// Package document holds the working data tree for one source document.
//
// A Record is immutable: every update returns a new Record that shares no
// mutable state with its predecessor, so a failed stage can never leave a
// half-applied tree behind. Trees are JSON-like: map[string]any, []any and
// scalars. Values coming from YAML decoders or Go callers are normalised into
// that shape when a Record is built.
package document
