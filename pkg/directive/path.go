package directive

import (
	"errors"
	"fmt"
	"strings"
)

const broadcastSuffix = "[]"

// Segment is one dot-separated step of a Path.
type Segment struct {
	Name      string
	Broadcast bool
}

func (s Segment) String() string {
	if s.Broadcast {
		return s.Name + broadcastSuffix
	}
	return s.Name
}

// Path is a parsed data-tree location such as `meta.tags` or `items[].id`.
type Path struct {
	raw      string
	segments []Segment
}

// ParsePath parses a dot-separated path. A segment may end with `[]` to
// broadcast over an array; at most one broadcast segment is accepted.
func ParsePath(raw string) (Path, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Path{}, errors.New("path is empty")
	}

	parts := strings.Split(trimmed, ".")
	segments := make([]Segment, 0, len(parts))
	broadcasts := 0
	for idx, part := range parts {
		name := strings.TrimSpace(part)
		segment := Segment{Name: name}
		if strings.HasSuffix(name, broadcastSuffix) {
			segment.Name = strings.TrimSuffix(name, broadcastSuffix)
			segment.Broadcast = true
			broadcasts++
		}
		if segment.Name == "" {
			return Path{}, fmt.Errorf("path %q has an empty segment at position %d", trimmed, idx)
		}
		if strings.ContainsAny(segment.Name, "[]") {
			return Path{}, fmt.Errorf("path %q has a malformed segment %q", trimmed, name)
		}
		segments = append(segments, segment)
	}
	if broadcasts > 1 {
		return Path{}, fmt.Errorf("path %q uses more than one broadcast segment", trimmed)
	}

	return Path{raw: joinSegments(segments), segments: segments}, nil
}

// MustParsePath panics when raw does not parse. Useful for tests.
func MustParsePath(raw string) Path {
	path, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return path
}

// String returns the normalised textual form of the path.
func (p Path) String() string {
	return p.raw
}

// IsZero reports whether the path is unset.
func (p Path) IsZero() bool {
	return len(p.segments) == 0
}

// Segments returns a copy of the parsed segments.
func (p Path) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// HasBroadcast reports whether any segment broadcasts over an array.
func (p Path) HasBroadcast() bool {
	for _, segment := range p.segments {
		if segment.Broadcast {
			return true
		}
	}
	return false
}

// Keys returns the segment names without broadcast markers.
func (p Path) Keys() []string {
	keys := make([]string, len(p.segments))
	for idx, segment := range p.segments {
		keys[idx] = segment.Name
	}
	return keys
}

// Overlaps reports whether one path is equal to or a prefix of the other.
func (p Path) Overlaps(other Path) bool {
	n := len(p.segments)
	if len(other.segments) < n {
		n = len(other.segments)
	}
	if n == 0 {
		return false
	}
	for idx := 0; idx < n; idx++ {
		if p.segments[idx].Name != other.segments[idx].Name {
			return false
		}
	}
	return true
}

// Join appends child to the path.
func (p Path) Join(child Path) Path {
	segments := make([]Segment, 0, len(p.segments)+len(child.segments))
	segments = append(segments, p.segments...)
	segments = append(segments, child.segments...)
	return Path{raw: joinSegments(segments), segments: segments}
}

func joinSegments(segments []Segment) string {
	parts := make([]string, len(segments))
	for idx, segment := range segments {
		parts[idx] = segment.String()
	}
	return strings.Join(parts, ".")
}
