// Package compiler is the public entry point of scssc. It resolves the
// module graph of a stylesheet, evaluates it and serializes the result to
// CSS with an optional source map.
//
//	res, err := compiler.Compile("styles/main.scss", compiler.Options{
//		Style:     compiler.Compressed,
//		LoadPaths: []string{"node_modules"},
//	})
package compiler

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"bennypowers.dev/scssc/internal/cache"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/emitter"
	"bennypowers.dev/scssc/internal/evaluator"
	"bennypowers.dev/scssc/internal/log"
	"bennypowers.dev/scssc/internal/parser/css"
	"bennypowers.dev/scssc/internal/resolver"
	"bennypowers.dev/scssc/internal/uriutil"
)

// Style selects expanded or compressed output
type Style = emitter.Style

const (
	Expanded   = emitter.Expanded
	Compressed = emitter.Compressed
)

// ParseStyle reads "expanded" or "compressed"
func ParseStyle(name string) (Style, error) {
	return emitter.ParseStyle(name)
}

// Syntax is the syntax of an in-memory stylesheet
type Syntax = resolver.Syntax

const (
	SCSS = resolver.SyntaxSCSS
	CSS  = resolver.SyntaxCSS
)

type (
	// Logger receives the output of @warn and @debug
	Logger = evaluator.Logger
	// WarnOptions describes where a @warn was raised
	WarnOptions = evaluator.WarnOptions
	// DebugOptions describes where a @debug was raised
	DebugOptions = evaluator.DebugOptions
	// Importer resolves URLs that are not files on disk
	Importer = resolver.Importer
	// FileImporter redirects URLs to files on disk
	FileImporter = resolver.FileImporter
	// ImporterResult is the stylesheet an Importer loads
	ImporterResult = resolver.ImporterResult
	// Loader reads files; the only file system access the compiler makes
	Loader = resolver.Loader
	// Cache is a file cache shared by concurrent compiles
	Cache = cache.FileCache
	// TokensFile is a design token file exposed as a Sass module
	TokensFile = resolver.TokensFile
)

// NewCache creates a cache in front of loader with an initial capacity
// of size files
func NewCache(loader Loader, size int) (*Cache, error) {
	return cache.New(loader, size)
}

// NewTokensImporter exposes design token files as modules under the
// "tokens:" scheme
func NewTokensImporter(loader Loader, files ...TokensFile) Importer {
	return resolver.NewTokensImporter(loader, files...)
}

// Options configures a compile
type Options struct {
	Style Style
	// SourceMap generates a source map in Result.SourceMap
	SourceMap bool
	// SourceMapIncludeSources embeds every source in the map
	SourceMapIncludeSources bool
	// LoadPaths are searched, in order, for URLs that are not relative
	// to the importing file
	LoadPaths []string
	// Importers are consulted after relative URLs and before load paths
	Importers []Importer
	// FileImporters are consulted after Importers and before load paths
	FileImporters []FileImporter
	// Logger receives @warn and @debug; the internal log when nil
	Logger Logger
	// QuietDeps silences @warn in stylesheets reached through a load
	// path or an importer
	QuietDeps bool
	// OmitCharset leaves out @charset and the byte-order mark
	OmitCharset bool
	// MaxCallDepth limits mixin and function nesting
	MaxCallDepth int
	// Loader reads files; the OS file system when nil
	Loader Loader
	// Cache, when set, is used instead of Loader so compiles can share reads
	Cache *Cache
	// Verify re-parses the output and logs any syntax issues
	Verify bool
}

// StringOptions configures CompileString
type StringOptions struct {
	Options
	// URL is the canonical URL of the source. A file: URL also anchors
	// relative @use and @import URLs.
	URL    string
	Syntax Syntax
	// Importer, when set, resolves URLs relative to URL before any other
	// importer or load path
	Importer Importer
}

// Result is the output of one compile
type Result struct {
	CSS string
	// SourceMap is the JSON source map, empty unless Options.SourceMap is set
	SourceMap string
	// LoadedURLs lists the canonical URL of every stylesheet loaded,
	// dependencies first, the entry last
	LoadedURLs []string
}

func (o Options) loader() Loader {
	if o.Cache != nil {
		return o.Cache
	}
	if o.Loader != nil {
		return o.Loader
	}
	return resolver.OSLoader{}
}

func (o Options) resolverOptions() resolver.Options {
	return resolver.Options{
		LoadPaths:     o.LoadPaths,
		Importers:     o.Importers,
		FileImporters: o.FileImporters,
		Loader:        o.loader(),
	}
}

// Compile compiles the stylesheet file at path
func Compile(path string, opts Options) (*Result, error) {
	start := time.Now()
	log.Debug("Compiling %s", path)
	graph, err := resolver.Resolve(path, opts.resolverOptions())
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".css"
	res, err := finish(graph, opts, base)
	if err != nil {
		return nil, err
	}
	log.Debug("Compiled %s (%d modules) in %s", path, len(res.LoadedURLs), time.Since(start))
	return res, nil
}

// CompileString compiles an in-memory stylesheet
func CompileString(source string, opts StringOptions) (*Result, error) {
	path, _ := uriutil.FilePath(opts.URL)
	graph, err := resolver.ResolveSource(resolver.Source{
		Contents: source,
		URL:      opts.URL,
		Path:     path,
		Syntax:   opts.Syntax,
		Importer: opts.Importer,
	}, opts.resolverOptions())
	if err != nil {
		return nil, err
	}
	file := ""
	if path != "" {
		file = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".css"
	}
	return finish(graph, opts.Options, file)
}

func finish(graph *resolver.Graph, opts Options, file string) (*Result, error) {
	sheet, err := evaluator.Evaluate(graph, evaluator.Options{
		Logger:       opts.Logger,
		QuietDeps:    opts.QuietDeps,
		MaxCallDepth: opts.MaxCallDepth,
	})
	if err != nil {
		return nil, err
	}

	out, sourceMap, err := emitter.Emit(sheet, emitter.Options{
		Style:          opts.Style,
		SourceMap:      opts.SourceMap,
		IncludeSources: opts.SourceMapIncludeSources,
		Charset:        !opts.OmitCharset,
		File:           file,
	})
	if err != nil {
		return nil, err
	}

	// verify only reports through warnings
	if opts.Verify && log.Enabled(log.LevelWarn) {
		verify(graph.Entry.URL, out)
	}

	res := &Result{CSS: out, SourceMap: string(sourceMap)}
	for _, url := range graph.Order {
		if !resolver.IsBuiltin(url) {
			res.LoadedURLs = append(res.LoadedURLs, url)
		}
	}
	return res, nil
}

// verify logs syntax issues tree-sitter finds in the output. It never
// fails the compile.
func verify(url, out string) {
	issues, err := css.Validate(out)
	if err != nil {
		log.Warn("Could not verify output of %s: %v", url, err)
		return
	}
	for _, issue := range issues {
		log.Warn("Output of %s has a syntax issue: %s", url, issue)
	}
	if len(issues) == 0 {
		log.Debug("Verified output of %s", url)
	}
}

// Describe renders err with a pointer into the source that raised it,
// reading the source through the loader configured in opts
func Describe(err error, opts Options) string {
	loc, ok := diagnostics.LocationOf(err)
	if !ok || loc.Path == "" {
		return err.Error()
	}
	data, readErr := opts.loader().ReadFile(loc.Path)
	if readErr != nil {
		return err.Error()
	}
	return diagnostics.Render(err, string(data))
}

// FileError is the failure of one entry in CompileAll
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if _, ok := diagnostics.LocationOf(e.Err); ok {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
