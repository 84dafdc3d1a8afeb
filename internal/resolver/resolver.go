// Package resolver loads the stylesheet module graph of a compile: it
// resolves every @use, @forward and @import URL to a canonical module,
// parses each module once and rejects import cycles.
package resolver

import (
	"errors"
	"path/filepath"
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/log"
	"bennypowers.dev/scssc/internal/parser/scss"
	"bennypowers.dev/scssc/internal/position"
	"bennypowers.dev/scssc/internal/uriutil"
)

// Syntax is the source syntax of a module
type Syntax int

const (
	SyntaxSCSS Syntax = iota
	SyntaxCSS
)

func (s Syntax) String() string {
	if s == SyntaxCSS {
		return "css"
	}
	return "scss"
}

// SyntaxForPath picks the syntax from a file extension
func SyntaxForPath(path string) Syntax {
	if strings.EqualFold(filepath.Ext(path), ".css") {
		return SyntaxCSS
	}
	return SyntaxSCSS
}

// BuiltinScheme prefixes the URLs of built-in modules such as sass:math
const BuiltinScheme = "sass:"

// IsBuiltin reports whether url names a built-in module
func IsBuiltin(url string) bool {
	return strings.HasPrefix(url, BuiltinScheme)
}

// Module is one parsed stylesheet in the graph
type Module struct {
	// URL is the canonical URL, a file:// URI for files on disk
	URL  string
	Path string
	// Syntax is scss or plain css
	Syntax     Syntax
	File       *position.File
	Stylesheet *ast.Stylesheet
	// Deps holds the canonical URLs this module loads, in source order
	Deps []string
	// Imports maps each URL as written in this module to its canonical URL
	Imports map[string]string
	// FromLoadPath is set for modules reached through a load path or an
	// importer, directly or transitively. @warn output from these is
	// silenced by QuietDeps.
	FromLoadPath bool
	// Importer is the importer that loaded the module, nil for files
	Importer Importer
}

// Graph is the resolved module graph of one compile
type Graph struct {
	Entry   *Module
	Modules map[string]*Module
	// Order lists canonical URLs with dependencies before dependents
	Order []string
}

// Module returns the module at a canonical URL
func (g *Graph) Module(canonical string) *Module {
	return g.Modules[canonical]
}

// Lookup returns the module that raw, as written in from, resolved to
func (g *Graph) Lookup(from *Module, raw string) (*Module, bool) {
	canonical, ok := from.Imports[raw]
	if !ok {
		return nil, false
	}
	m, ok := g.Modules[canonical]
	return m, ok
}

// Options configures resolution
type Options struct {
	LoadPaths     []string
	Importers     []Importer
	FileImporters []FileImporter
	// Loader reads files; OSLoader when nil
	Loader Loader
}

// Resolve loads the graph rooted at the stylesheet file at path
func Resolve(path string, opts Options) (*Graph, error) {
	s := newSession(opts)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, ok, err := s.read(abs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, diagnostics.NewNotFoundError(path)
	}
	entry, err := s.load(uriutil.FileURL(abs), abs, data, SyntaxForPath(abs), false, nil)
	if err != nil {
		return nil, err
	}
	return s.finish(entry)
}

// Source is an in-memory entry stylesheet
type Source struct {
	Contents string
	// URL is the canonical URL; a file URI for Path or "stdin" when empty
	URL string
	// Path, when set, anchors relative URLs on disk
	Path   string
	Syntax Syntax
	// Importer, when set, resolves relative URLs before anything else
	Importer Importer
}

// ResolveSource loads the graph rooted at an in-memory stylesheet
func ResolveSource(src Source, opts Options) (*Graph, error) {
	s := newSession(opts)
	canonical, path := src.URL, src.Path
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		path = abs
		if canonical == "" {
			canonical = uriutil.FileURL(abs)
		}
	}
	if canonical == "" {
		canonical = "stdin"
	}
	entry, err := s.load(canonical, path, []byte(src.Contents), src.Syntax, false, src.Importer)
	if err != nil {
		return nil, err
	}
	return s.finish(entry)
}

type edge struct {
	from, to string
}

// session holds the state of one resolution: every file is read at most
// once and every module parsed at most once.
type session struct {
	opts     Options
	modules  map[string]*Module
	graph    *DependencyGraph
	edges    map[edge]ast.Span
	contents map[string][]byte
	missing  map[string]bool
}

func newSession(opts Options) *session {
	if opts.Loader == nil {
		opts.Loader = OSLoader{}
	}
	return &session{
		opts:     opts,
		modules:  make(map[string]*Module),
		graph:    NewDependencyGraph(),
		edges:    make(map[edge]ast.Span),
		contents: make(map[string][]byte),
		missing:  make(map[string]bool),
	}
}

// read returns ok=false for files that do not exist
func (s *session) read(path string) ([]byte, bool, error) {
	if data, ok := s.contents[path]; ok {
		return data, true, nil
	}
	if s.missing[path] {
		return nil, false, nil
	}
	data, err := s.opts.Loader.ReadFile(path)
	if err != nil {
		if errors.Is(err, diagnostics.ErrNotFound) {
			s.missing[path] = true
			return nil, false, nil
		}
		return nil, false, err
	}
	s.contents[path] = data
	return data, true, nil
}

func (s *session) exists(path string) (bool, error) {
	_, ok, err := s.read(path)
	return ok, err
}

func (s *session) load(canonical, path string, data []byte, syntax Syntax, fromLoadPath bool, importer Importer) (*Module, error) {
	if m, ok := s.modules[canonical]; ok {
		return m, nil
	}

	file := position.NewFile(canonical, path, string(data))
	var (
		sheet *ast.Stylesheet
		err   error
	)
	if syntax == SyntaxCSS {
		sheet, err = scss.ParseCSS(file)
	} else {
		sheet, err = scss.Parse(file)
	}
	if err != nil {
		return nil, err
	}

	m := &Module{
		URL:          canonical,
		Path:         path,
		Syntax:       syntax,
		File:         file,
		Stylesheet:   sheet,
		Imports:      make(map[string]string),
		FromLoadPath: fromLoadPath,
		Importer:     importer,
	}
	s.modules[canonical] = m
	s.graph.AddNode(canonical)
	log.Debug("Loaded module %s", file.Name())

	for _, ref := range collectReferences(sheet) {
		if IsBuiltin(ref.url) {
			continue
		}
		dep, err := s.resolve(m, ref.url, ref.fromImport, ref.span)
		if err != nil {
			return nil, err
		}
		m.Imports[ref.url] = dep.URL
		e := edge{m.URL, dep.URL}
		if _, seen := s.edges[e]; !seen {
			s.edges[e] = ref.span
			m.Deps = append(m.Deps, dep.URL)
		}
		s.graph.AddEdge(m.URL, dep.URL)
	}
	return m, nil
}

// resolve finds the module a URL refers to. Order: relative to the
// importing module, through the importer that loaded it or next to its
// file, then each importer, then each file importer, then each load path.
func (s *session) resolve(from *Module, rawURL string, fromImport bool, span ast.Span) (*Module, error) {
	if from.Importer != nil {
		rel, ok := uriutil.Resolve(from.URL, rawURL)
		if !ok {
			rel = rawURL
		}
		m, found, err := s.tryImporter(from.Importer, rel, fromImport, from.FromLoadPath)
		if err != nil || found {
			return m, diagnostics.Locate(err, span)
		}
	}

	if from.Path != "" {
		p, err := s.findFile(filepath.Dir(from.Path), rawURL, span)
		if err != nil {
			return nil, err
		}
		if p != "" {
			return s.loadFile(p, from.FromLoadPath)
		}
	}

	for _, imp := range s.opts.Importers {
		m, found, err := s.tryImporter(imp, rawURL, fromImport, true)
		if err != nil {
			return nil, diagnostics.Locate(err, span)
		}
		if found {
			return m, nil
		}
	}

	for _, imp := range s.opts.FileImporters {
		p, err := s.tryFileImporter(imp, rawURL, fromImport, span)
		if err != nil {
			return nil, err
		}
		if p != "" {
			return s.loadFile(p, true)
		}
	}

	for _, dir := range s.opts.LoadPaths {
		p, err := s.findFile(dir, rawURL, span)
		if err != nil {
			return nil, err
		}
		if p != "" {
			return s.loadFile(p, true)
		}
	}

	return nil, diagnostics.NewResolutionError(span.Location(), rawURL, nil)
}

func (s *session) loadFile(path string, fromLoadPath bool) (*Module, error) {
	canonical := uriutil.FileURL(path)
	if m, ok := s.modules[canonical]; ok {
		return m, nil
	}
	data, _, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.load(canonical, path, data, SyntaxForPath(path), fromLoadPath, nil)
}

func (s *session) tryImporter(imp Importer, rawURL string, fromImport, fromLoadPath bool) (*Module, bool, error) {
	canonical, ok, err := imp.Canonicalize(rawURL, fromImport)
	if err != nil || !ok {
		return nil, false, err
	}
	if m, ok := s.modules[canonical]; ok {
		return m, true, nil
	}
	result, err := imp.Load(canonical)
	if err != nil {
		return nil, false, err
	}
	m, err := s.load(canonical, "", []byte(result.Contents), result.Syntax, fromLoadPath, imp)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// tryFileImporter asks imp for a file: URL and finds the stylesheet it
// names with the usual partial, extension and index rules
func (s *session) tryFileImporter(imp FileImporter, rawURL string, fromImport bool, span ast.Span) (string, error) {
	fileURL, ok, err := imp.FindFileURL(rawURL, fromImport)
	if err != nil {
		return "", diagnostics.Locate(err, span)
	}
	if !ok {
		return "", nil
	}
	path, isFile := uriutil.FilePath(fileURL)
	if !isFile {
		return "", diagnostics.NewResolutionErrorf(span.Location(), rawURL, "file importer returned %q, which is not a file: URL", fileURL)
	}
	return s.findPath(path, rawURL, span)
}

// findFile searches dir for rawURL: the file itself or its partial, then
// an index file in the directory of that name. Sass files are preferred
// over CSS files. Two matches of the same kind are ambiguous.
func (s *session) findFile(dir, rawURL string, span ast.Span) (string, error) {
	return s.findPath(filepath.Join(dir, filepath.FromSlash(rawURL)), rawURL, span)
}

func (s *session) findPath(base, rawURL string, span ast.Span) (string, error) {
	for _, group := range candidateGroups(base) {
		var found []string
		for _, candidate := range group {
			ok, err := s.exists(candidate)
			if err != nil {
				return "", err
			}
			if ok {
				found = append(found, candidate)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			return "", diagnostics.NewResolutionError(span.Location(), rawURL, found)
		}
	}
	return "", nil
}

func candidateGroups(base string) [][]string {
	dir, name := filepath.Split(base)
	partial := func(file string) string { return filepath.Join(dir, "_"+file) }

	switch strings.ToLower(filepath.Ext(base)) {
	case ".scss", ".css":
		return [][]string{{base, partial(name)}}
	}
	return [][]string{
		{base + ".scss", partial(name + ".scss")},
		{base + ".css", partial(name + ".css")},
		{filepath.Join(base, "_index.scss"), filepath.Join(base, "index.scss")},
		{filepath.Join(base, "_index.css"), filepath.Join(base, "index.css")},
	}
}

func (s *session) finish(entry *Module) (*Graph, error) {
	if cycle := s.graph.FindCycle(); cycle != nil {
		span := s.edges[edge{cycle[len(cycle)-2], cycle[len(cycle)-1]}]
		names := make([]string, len(cycle))
		for i, canonical := range cycle {
			names[i] = s.modules[canonical].File.Name()
		}
		return nil, diagnostics.NewCyclicImportError(span.Location(), names)
	}

	order, err := s.graph.TopologicalSort()
	if err != nil {
		return nil, err
	}
	return &Graph{Entry: entry, Modules: s.modules, Order: order}, nil
}

type moduleRef struct {
	url        string
	fromImport bool
	span       ast.Span
}

// collectReferences lists every loadable URL in source order, including
// @import rules nested in style rules, mixins and control flow
func collectReferences(sheet *ast.Stylesheet) []moduleRef {
	var refs []moduleRef
	ast.Walk(sheet.Children, func(stmt ast.Statement) bool {
		switch n := stmt.(type) {
		case *ast.UseRule:
			refs = append(refs, moduleRef{url: n.URL, span: n.Span})
		case *ast.ForwardRule:
			refs = append(refs, moduleRef{url: n.URL, span: n.Span})
		case *ast.ImportRule:
			for _, imp := range n.Imports {
				if !imp.Plain {
					refs = append(refs, moduleRef{url: imp.URL, fromImport: true, span: imp.Span})
				}
			}
		}
		return true
	})
	return refs
}
