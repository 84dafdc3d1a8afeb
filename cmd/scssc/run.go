package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bennypowers.dev/scssc/compiler"
	"bennypowers.dev/scssc/internal/config"
	"bennypowers.dev/scssc/internal/log"
	"bennypowers.dev/scssc/internal/uriutil"
	"bennypowers.dev/scssc/internal/version"
)

// Exit codes
const (
	exitOK      = 0
	exitCompile = 1
	exitUsage   = 2
)

// stdinEntry reads the stylesheet from standard input
const stdinEntry = "-"

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type flags struct {
	style        string
	sourceMap    bool
	embedSources bool
	loadPaths    stringList
	outDir       string
	quietDeps    bool
	verify       bool
	logLevel     string
	version      bool
	stdout       bool
	set          map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, []string, error) {
	f := &flags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("scssc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: scssc [flags] [entries...]\n\n")
		fmt.Fprintf(fs.Output(), "Entries are files or doublestar globs; - reads standard input.\n\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&f.style, "style", "expanded", "output style: expanded or compressed")
	fs.BoolVar(&f.sourceMap, "source-map", false, "write a source map next to each output")
	fs.BoolVar(&f.embedSources, "embed-sources", false, "embed sources in the source map")
	fs.Var(&f.loadPaths, "load-path", "directory searched for imports (repeatable)")
	fs.StringVar(&f.outDir, "out-dir", "", "directory receiving the compiled CSS")
	fs.BoolVar(&f.quietDeps, "quiet-deps", false, "silence warnings from dependencies")
	fs.BoolVar(&f.verify, "verify", false, "re-parse the output and report syntax issues")
	fs.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")
	fs.BoolVar(&f.stdout, "stdout", false, "print CSS to standard output instead of writing files")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, fs.Args(), nil
}

// apply overrides configuration values with the flags given on the
// command line
func (f *flags) apply(cfg *config.Config, root string) {
	if f.set["style"] {
		cfg.Style = f.style
	}
	if f.set["source-map"] {
		cfg.SourceMap = f.sourceMap
	}
	if f.set["embed-sources"] {
		cfg.SourceMapIncludeSources = f.embedSources
		if f.embedSources {
			cfg.SourceMap = true
		}
	}
	if f.set["out-dir"] {
		cfg.OutDir = f.outDir
		if !filepath.IsAbs(cfg.OutDir) {
			cfg.OutDir = filepath.Join(root, cfg.OutDir)
		}
	}
	if f.set["quiet-deps"] {
		cfg.QuietDeps = f.quietDeps
	}
	for _, p := range f.loadPaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		cfg.LoadPaths = append(cfg.LoadPaths, p)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	f, entries, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK, nil
	}
	if err != nil {
		return exitUsage, nil
	}
	if f.version {
		fmt.Fprintf(stdout, "scssc %s\n", version.Get())
		return exitOK, nil
	}

	level, err := log.ParseLevel(f.logLevel)
	if err != nil {
		return exitUsage, err
	}
	log.SetLevel(level)

	root, err := os.Getwd()
	if err != nil {
		return exitUsage, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return exitUsage, err
	}
	if cfg.Source != "" {
		log.Debug("Using configuration from %s", cfg.Source)
	}
	f.apply(cfg, root)

	opts, err := compilerOptions(cfg, f.verify)
	if err != nil {
		return exitUsage, err
	}

	if len(entries) == 1 && entries[0] == stdinEntry {
		return compileStdin(stdin, stdout, stderr, root, opts)
	}
	if len(entries) == 0 {
		entries = cfg.Entries
	}
	paths, err := config.ExpandEntries(root, entries)
	if err != nil {
		return exitUsage, err
	}
	if len(paths) == 0 {
		return exitUsage, fmt.Errorf("no stylesheets match %s", strings.Join(entries, ", "))
	}

	results, err := compiler.CompileAll(ctx, paths, opts)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return exitCompile, ctxErr
	}

	var writeErrs []error
	written := 0
	for i, res := range results {
		if res == nil {
			continue
		}
		if f.stdout {
			if err := writeStdout(stdout, res); err != nil {
				return exitCompile, err
			}
			continue
		}
		out := config.OutputPath(root, cfg.OutDir, paths[i])
		if err := writeOutput(out, res); err != nil {
			writeErrs = append(writeErrs, err)
			continue
		}
		written++
		log.Info("Compiled %s to %s", relative(root, paths[i]), relative(root, out))
	}

	failures := compiler.FileErrors(err)
	for _, fe := range failures {
		fmt.Fprintln(stderr, compiler.Describe(fe.Err, opts))
	}
	if len(writeErrs) > 0 {
		return exitCompile, errors.Join(writeErrs...)
	}
	if len(failures) > 0 {
		return exitCompile, fmt.Errorf("%d of %d stylesheets failed to compile", len(failures), len(paths))
	}
	if !f.stdout {
		log.Debug("Wrote %d stylesheets", written)
	}
	return exitOK, nil
}

func compilerOptions(cfg *config.Config, verify bool) (compiler.Options, error) {
	style, err := compiler.ParseStyle(cfg.Style)
	if err != nil {
		return compiler.Options{}, err
	}
	c, err := compiler.NewCache(nil, 0)
	if err != nil {
		return compiler.Options{}, err
	}
	opts := compiler.Options{
		Style:                   style,
		SourceMap:               cfg.SourceMap,
		SourceMapIncludeSources: cfg.SourceMapIncludeSources,
		LoadPaths:               cfg.LoadPaths,
		QuietDeps:               cfg.QuietDeps,
		Cache:                   c,
		Verify:                  verify,
	}
	if len(cfg.Tokens) > 0 {
		files := make([]compiler.TokensFile, 0, len(cfg.Tokens))
		for _, t := range cfg.Tokens {
			files = append(files, compiler.TokensFile{
				Name:         t.Name,
				Path:         t.Path,
				Prefix:       t.Prefix,
				GroupMarkers: t.GroupMarkers,
			})
		}
		opts.Importers = append(opts.Importers, compiler.NewTokensImporter(c, files...))
	}
	return opts, nil
}

// compileStdin compiles standard input relative to the working directory
// and prints the result. Source maps are inlined.
func compileStdin(stdin io.Reader, stdout, stderr io.Writer, root string, opts compiler.Options) (int, error) {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return exitUsage, fmt.Errorf("failed to read standard input: %w", err)
	}
	res, err := compiler.CompileString(string(data), compiler.StringOptions{
		Options: opts,
		URL:     uriutil.FileURL(filepath.Join(root, "stdin.scss")),
	})
	if err != nil {
		fmt.Fprintln(stderr, compiler.Describe(err, opts))
		return exitCompile, nil
	}
	return exitOK, writeStdout(stdout, res)
}

func writeStdout(w io.Writer, res *compiler.Result) error {
	out := res.CSS
	if res.SourceMap != "" {
		out += "\n\n/*# sourceMappingURL=data:application/json;charset=utf-8;base64," +
			base64.StdEncoding.EncodeToString([]byte(res.SourceMap)) + " */"
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// writeOutput writes out and, when present, out.map linked from the CSS
func writeOutput(out string, res *compiler.Result) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(out), err)
	}
	css := res.CSS
	if res.SourceMap != "" {
		mapPath := out + ".map"
		if err := os.WriteFile(mapPath, []byte(res.SourceMap), 0o644); err != nil { //nolint:gosec // G306: build output
			return fmt.Errorf("failed to write %s: %w", mapPath, err)
		}
		css += "\n\n/*# sourceMappingURL=" + filepath.Base(mapPath) + " */"
	}
	if err := os.WriteFile(out, []byte(css+"\n"), 0o644); err != nil { //nolint:gosec // G306: build output
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}

func relative(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
