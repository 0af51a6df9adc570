package statement

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Record is one transaction as read from a statement, before any coercion.
type Record struct {
	Posted     time.Time
	Amount     string // decimal text as found in the file, e.g. "-45.90"
	Memo       string
	ExternalID string
}

// Parser converts a statement document into Records.
type Parser interface {
	Parse(r io.Reader) ([]Record, error)
	Format() string
	Extensions() []string
}

// ParseError reports a statement that is not a well-formed document.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing statement %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Source is a named statement document, either on disk or uploaded.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads the statement at path.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource serves an in-memory statement, e.g. an uploaded file.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
	byExt   map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser), byExt: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format or extension.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
	for _, ext := range p.Extensions() {
		ext = strings.ToLower(ext)
		if _, ok := r.byExt[ext]; ok {
			panic("duplicate parser extension: " + ext)
		}
		r.byExt[ext] = p
	}
}

// ForName returns the parser handling the file name's extension, or nil.
func (r *Registry) ForName(name string) Parser {
	return r.byExt[strings.ToLower(filepath.Ext(name))]
}

// Extensions lists every extension the registry handles, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load parses src with the parser matching its extension. Every failure,
// including an unsupported extension, is a *ParseError.
func (r *Registry) Load(src Source) ([]Record, error) {
	p := r.ForName(src.Name)
	if p == nil {
		return nil, &ParseError{Source: src.Name, Err: fmt.Errorf("unsupported file type %q", filepath.Ext(src.Name))}
	}

	rc, err := src.Open()
	if err != nil {
		return nil, &ParseError{Source: src.Name, Err: err}
	}
	defer rc.Close()

	recs, err := p.Parse(rc)
	if err != nil {
		return nil, &ParseError{Source: src.Name, Err: err}
	}
	return recs, nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&OFXParser{})
	return r
}

// FileInfo describes a statement file in the input directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns the files in dir the registry can parse, sorted by name.
func (r *Registry) Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading statement dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || r.ForName(e.Name()) == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}
