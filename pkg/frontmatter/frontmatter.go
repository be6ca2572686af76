package frontmatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fmschema/pkg/document"
)

// Format identifies the front matter encoding.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var (
	yamlFence = []byte("---")
	jsonFence = []byte(";;;")
)

// ErrUnterminated is returned when an opening fence has no closing fence.
var ErrUnterminated = errors.New("frontmatter: missing closing fence")

// Extract decodes the front matter of raw into a record labelled source and
// returns the remaining body. A document without front matter yields an empty
// record and the full input as body.
func Extract(source string, raw []byte) (document.Record, []byte, error) {
	data, body, _, err := Split(raw)
	if err != nil {
		return document.Record{}, nil, fmt.Errorf("frontmatter: %s: %w", source, err)
	}
	return document.New(source, data), body, nil
}

// Split separates raw into decoded front matter, body and the detected format.
func Split(raw []byte) (map[string]any, []byte, Format, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	first, rest, _ := cutLine(raw)
	first = bytes.TrimRight(first, " \t\r")

	var format Format
	switch {
	case bytes.Equal(first, yamlFence):
		format = FormatYAML
	case bytes.Equal(first, jsonFence):
		format = FormatJSON
	default:
		return map[string]any{}, raw, FormatNone, nil
	}

	fence := first
	var header []byte
	remaining := rest
	for {
		if len(remaining) == 0 {
			return nil, nil, format, ErrUnterminated
		}
		line, next, _ := cutLine(remaining)
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), fence) {
			header = rest[:len(rest)-len(remaining)]
			remaining = next
			break
		}
		remaining = next
	}

	data, err := decode(format, header)
	if err != nil {
		return nil, nil, format, err
	}
	return data, remaining, format, nil
}

func decode(format Format, header []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(header)) == 0 {
		return map[string]any{}, nil
	}
	var data map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(header, &data); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(header, &data); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

func cutLine(b []byte) (line, rest []byte, found bool) {
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return b, nil, false
	}
	return b[:idx], b[idx+1:], true
}

// ExtractFS extracts every file of fsys matching pattern (fs.Glob syntax) in
// lexical path order. Records are labelled with their path.
func ExtractFS(fsys fs.FS, pattern string) ([]document.Record, error) {
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: glob %q: %w", pattern, err)
	}
	sort.Strings(matches)

	records := make([]document.Record, 0, len(matches))
	for _, name := range matches {
		info, err := fs.Stat(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("frontmatter: stat %s: %w", name, err)
		}
		if info.IsDir() {
			continue
		}
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("frontmatter: read %s: %w", name, err)
		}
		record, _, err := Extract(name, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
