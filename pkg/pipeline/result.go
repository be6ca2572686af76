package pipeline

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/document"
)

// RenderMeta carries the values attached by the terminal directives.
type RenderMeta struct {
	Template     string
	ItemTemplate string
	Format       directive.Format
}

// IsZero reports whether no terminal directive ran.
func (m RenderMeta) IsZero() bool {
	return m == RenderMeta{}
}

// Result is a fully processed document.
type Result struct {
	Record document.Record
	Render RenderMeta
}

// Items returns the elements of the active partition. Object partitions are
// returned as a single item; an absent partition yields nil.
func (r Result) Items() []any {
	part := r.Record.Part()
	if !part.Present {
		return nil
	}
	path, err := directive.ParsePath(part.Path)
	if err != nil {
		return nil
	}
	value, ok := r.Record.Get(path)
	if !ok {
		return nil
	}
	if items, ok := value.([]any); ok {
		return items
	}
	return []any{value}
}

// StageError reports an instance that failed while processing a document.
type StageError struct {
	Kind     directive.Kind
	Target   string
	Stage    int
	Document string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s: stage %d %s at %s: %v", e.Document, e.Stage, e.Kind, e.Target, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Failure records a document that produced no result in a batch. Index is -1
// when the failure happened after documents were merged.
type Failure struct {
	Index  int
	Source string
	Err    error
}

// BatchResult is the outcome of ProcessBatch.
type BatchResult struct {
	RunID    string
	Results  []Result
	Failures []Failure
	Merged   bool
}

// Err joins every failure, or returns nil when the batch fully succeeded.
func (b BatchResult) Err() error {
	if len(b.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(b.Failures))
	for idx, failure := range b.Failures {
		errs[idx] = failure.Err
	}
	return errors.Join(errs...)
}
