package schema

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-fmschema/pkg/document"
)

const (
	defaultMaxDocumentBytes = int64(5 << 20)
	defaultMaxDocuments     = 128
	defaultMaxRefDepth      = 64
)

// ResolveOptions configures $ref resolution guardrails.
type ResolveOptions struct {
	// AllowHTTPRefs permits refs to http(s) documents.
	AllowHTTPRefs bool
	// AllowPathTraversal permits relative refs to leave the root directory.
	AllowPathTraversal bool
	// MaxDocumentBytes caps the size of any single document.
	MaxDocumentBytes int64
	// MaxDocuments caps the number of distinct documents loaded.
	MaxDocuments int
	// MaxRefDepth caps the length of a $ref chain.
	MaxRefDepth int
}

// Resolver inlines $ref references so directive scanning sees one tree.
// Vendor extensions are copied verbatim and never searched for refs.
type Resolver struct {
	loader Loader
	opts   ResolveOptions
}

// NewResolver constructs a resolver. Zero limits fall back to defaults.
func NewResolver(loader Loader, opts ResolveOptions) *Resolver {
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = defaultMaxDocuments
	}
	if opts.MaxRefDepth <= 0 {
		opts.MaxRefDepth = defaultMaxRefDepth
	}
	return &Resolver{loader: loader, opts: opts}
}

type loadedDocument struct {
	key      string
	kind     SourceKind
	location string
	baseDir  string
	data     map[string]any
	anchors  map[string]string
}

type resolveSession struct {
	loader  Loader
	opts    ResolveOptions
	cache   map[string]*loadedDocument
	rootDir string
	chain   []string
}

// Resolve parses doc and returns its tree with every $ref replaced by the
// referenced schema. Sibling keys of a $ref override the target's keys.
func (r *Resolver) Resolve(ctx context.Context, doc Document) (map[string]any, error) {
	if r == nil {
		return nil, errors.New("schema resolver: resolver is nil")
	}
	if doc.Source() == nil {
		return nil, errors.New("schema resolver: source is nil")
	}
	if int64(doc.Size()) > r.opts.MaxDocumentBytes {
		return nil, fmt.Errorf("schema resolver: document too large (%d bytes)", doc.Size())
	}
	payload, err := ParseDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("schema resolver: %w", err)
	}

	session := &resolveSession{
		loader: r.loader,
		opts:   r.opts,
		cache:  make(map[string]*loadedDocument),
	}
	root, err := session.register(doc.Source(), payload)
	if err != nil {
		return nil, err
	}
	session.rootDir = root.baseDir

	resolved, err := session.walk(ctx, root, root.data)
	if err != nil {
		return nil, err
	}
	out, ok := resolved.(map[string]any)
	if !ok {
		return nil, errors.New("schema resolver: resolved root is not an object")
	}
	return out, nil
}

func (s *resolveSession) register(src Source, payload map[string]any) (*loadedDocument, error) {
	key, location, baseDir, err := canonicalLocation(src)
	if err != nil {
		return nil, err
	}
	anchors := make(map[string]string)
	if err := indexAnchors(payload, "", anchors); err != nil {
		return nil, err
	}
	loaded := &loadedDocument{
		key:      key,
		kind:     src.Kind(),
		location: location,
		baseDir:  baseDir,
		data:     payload,
		anchors:  anchors,
	}
	s.cache[key] = loaded
	return loaded, nil
}

func (s *resolveSession) walk(ctx context.Context, doc *loadedDocument, node any) (any, error) {
	switch typed := node.(type) {
	case map[string]any:
		if ref, ok := typed["$ref"].(string); ok && strings.TrimSpace(ref) != "" {
			return s.follow(ctx, doc, strings.TrimSpace(ref), typed)
		}
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			if isExtension(key) {
				out[key] = document.Clone(value)
				continue
			}
			resolved, err := s.walk(ctx, doc, value)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for idx, value := range typed {
			resolved, err := s.walk(ctx, doc, value)
			if err != nil {
				return nil, err
			}
			out[idx] = resolved
		}
		return out, nil
	default:
		return node, nil
	}
}

func (s *resolveSession) follow(ctx context.Context, doc *loadedDocument, ref string, node map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, fragment, err := s.targetDocument(ctx, doc, ref)
	if err != nil {
		return nil, err
	}
	key := target.key + "#" + fragment
	for _, seen := range s.chain {
		if seen == key {
			return nil, fmt.Errorf("schema resolver: ref cycle detected at %s", ref)
		}
	}
	if len(s.chain) >= s.opts.MaxRefDepth {
		return nil, fmt.Errorf("schema resolver: ref depth exceeds %d", s.opts.MaxRefDepth)
	}

	value, err := target.fragment(fragment)
	if err != nil {
		return nil, err
	}
	merged, err := overlaySiblings(value, node)
	if err != nil {
		return nil, err
	}

	s.chain = append(s.chain, key)
	resolved, err := s.walk(ctx, target, merged)
	s.chain = s.chain[:len(s.chain)-1]
	return resolved, err
}

func (s *resolveSession) targetDocument(ctx context.Context, doc *loadedDocument, ref string) (*loadedDocument, string, error) {
	refPath, fragment, _ := strings.Cut(ref, "#")
	if refPath == "" {
		return doc, fragment, nil
	}
	parsed, err := url.Parse(refPath)
	if err != nil {
		return nil, "", fmt.Errorf("schema resolver: invalid ref %q", ref)
	}

	var src Source
	switch parsed.Scheme {
	case "http", "https":
		if !s.opts.AllowHTTPRefs {
			return nil, "", fmt.Errorf("schema resolver: http refs disabled (%s)", ref)
		}
		src, err = ParseURLSource(parsed.String())
	case "file":
		src = SourceFromFile(parsed.Path)
	case "":
		src, err = s.relativeSource(doc, parsed.Path)
	default:
		return nil, "", fmt.Errorf("schema resolver: unsupported ref scheme %q", parsed.Scheme)
	}
	if err != nil {
		return nil, "", err
	}
	target, err := s.load(ctx, src)
	if err != nil {
		return nil, "", err
	}
	return target, fragment, nil
}

func (s *resolveSession) load(ctx context.Context, src Source) (*loadedDocument, error) {
	key, _, _, err := canonicalLocation(src)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache[key]; ok {
		return cached, nil
	}
	if len(s.cache) >= s.opts.MaxDocuments {
		return nil, fmt.Errorf("schema resolver: exceeded max documents (%d)", s.opts.MaxDocuments)
	}
	if s.loader == nil {
		return nil, fmt.Errorf("schema resolver: no loader for %s", src.Location())
	}
	doc, err := s.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("schema resolver: load %s: %w", src.Location(), err)
	}
	if int64(doc.Size()) > s.opts.MaxDocumentBytes {
		return nil, fmt.Errorf("schema resolver: document too large (%d bytes)", doc.Size())
	}
	payload, err := ParseDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("schema resolver: %w", err)
	}
	return s.register(src, payload)
}

func (s *resolveSession) relativeSource(doc *loadedDocument, refPath string) (Source, error) {
	switch doc.kind {
	case SourceKindFile:
		candidate := refPath
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(doc.baseDir, refPath)
		}
		candidate = filepath.Clean(candidate)
		if !s.opts.AllowPathTraversal {
			rel, err := filepath.Rel(s.rootDir, candidate)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return nil, fmt.Errorf("schema resolver: ref path escapes root (%s)", refPath)
			}
		}
		return SourceFromFile(candidate), nil
	case SourceKindFS:
		candidate := strings.TrimPrefix(path.Clean(path.Join(doc.baseDir, refPath)), "/")
		if !s.opts.AllowPathTraversal {
			root := strings.TrimPrefix(path.Clean(s.rootDir), "/")
			escapes := candidate == ".." || strings.HasPrefix(candidate, "../")
			if root != "." && root != "" && candidate != root && !strings.HasPrefix(candidate, root+"/") {
				escapes = true
			}
			if escapes {
				return nil, fmt.Errorf("schema resolver: ref path escapes root (%s)", refPath)
			}
		}
		return SourceFromFS(candidate), nil
	case SourceKindURL:
		if !s.opts.AllowHTTPRefs {
			return nil, fmt.Errorf("schema resolver: http refs disabled (%s)", refPath)
		}
		base, err := url.Parse(doc.location)
		if err != nil {
			return nil, err
		}
		rel, err := url.Parse(refPath)
		if err != nil {
			return nil, err
		}
		return ParseURLSource(base.ResolveReference(rel).String())
	default:
		return nil, errors.New("schema resolver: unsupported source kind")
	}
}

func canonicalLocation(src Source) (key, location, baseDir string, err error) {
	if src == nil {
		return "", "", "", errors.New("schema resolver: source is nil")
	}
	location = src.Location()
	switch src.Kind() {
	case SourceKindFile:
		abs, err := filepath.Abs(location)
		if err != nil {
			return "", "", "", err
		}
		return "file:" + abs, abs, filepath.Dir(abs), nil
	case SourceKindFS:
		cleaned := path.Clean(strings.TrimPrefix(location, "/"))
		return "fs:" + cleaned, cleaned, path.Dir(cleaned), nil
	case SourceKindURL:
		return "url:" + location, location, path.Dir(location), nil
	default:
		return "", "", "", errors.New("schema resolver: unsupported source kind")
	}
}

func (d *loadedDocument) fragment(fragment string) (any, error) {
	switch {
	case fragment == "":
		return document.Clone(d.data), nil
	case strings.HasPrefix(fragment, "/"):
		return resolvePointer(d.data, fragment)
	}
	pointer, ok := d.anchors[fragment]
	if !ok {
		return nil, fmt.Errorf("schema resolver: anchor %q not found in %s", fragment, d.location)
	}
	if pointer == "" {
		return document.Clone(d.data), nil
	}
	return resolvePointer(d.data, pointer)
}

func resolvePointer(root any, pointer string) (any, error) {
	current := root
	for _, part := range strings.Split(pointer, "/")[1:] {
		decoded, err := url.PathUnescape(part)
		if err != nil {
			return nil, err
		}
		decoded = strings.ReplaceAll(decoded, "~1", "/")
		decoded = strings.ReplaceAll(decoded, "~0", "~")

		switch typed := current.(type) {
		case map[string]any:
			value, ok := typed[decoded]
			if !ok {
				return nil, fmt.Errorf("schema resolver: pointer %q not found", pointer)
			}
			current = value
		case []any:
			idx, err := strconv.Atoi(decoded)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil, fmt.Errorf("schema resolver: pointer %q out of range", pointer)
			}
			current = typed[idx]
		default:
			return nil, fmt.Errorf("schema resolver: pointer %q invalid", pointer)
		}
	}
	return document.Clone(current), nil
}

func indexAnchors(node any, pointer string, anchors map[string]string) error {
	switch typed := node.(type) {
	case map[string]any:
		if name, ok := typed["$anchor"].(string); ok && strings.TrimSpace(name) != "" {
			name = strings.TrimSpace(name)
			if _, exists := anchors[name]; exists {
				return fmt.Errorf("schema resolver: duplicate anchor %q", name)
			}
			anchors[name] = pointer
		}
		for key, value := range typed {
			if isExtension(key) {
				continue
			}
			if err := indexAnchors(value, pointer+"/"+escapePointer(key), anchors); err != nil {
				return err
			}
		}
	case []any:
		for idx, value := range typed {
			if err := indexAnchors(value, pointer+"/"+strconv.Itoa(idx), anchors); err != nil {
				return err
			}
		}
	}
	return nil
}

// overlaySiblings applies the keys written next to a $ref on top of the
// referenced schema. Only annotations and vendor extensions may sit there.
func overlaySiblings(target any, node map[string]any) (any, error) {
	obj, ok := target.(map[string]any)
	if !ok {
		for key := range node {
			if key != "$ref" {
				return nil, errors.New("schema resolver: $ref target is not an object")
			}
		}
		return target, nil
	}
	for key, value := range node {
		switch {
		case key == "$ref":
		case key == "title", key == "description", key == "default", isExtension(key):
			obj[key] = document.Clone(value)
		default:
			return nil, fmt.Errorf("schema resolver: unsupported $ref sibling %q", key)
		}
	}
	return obj, nil
}

func escapePointer(value string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(value)
}

func isExtension(key string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "x-")
}
