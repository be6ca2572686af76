package render

import "errors"

var (
	// ErrUnsupportedFormat is returned when a renderer cannot produce the
	// requested format.
	ErrUnsupportedFormat = errors.New("render: unsupported format")
	// ErrMissingTemplate is returned when a template renderer receives a result
	// without a template.
	ErrMissingTemplate = errors.New("render: result has no template")
)
