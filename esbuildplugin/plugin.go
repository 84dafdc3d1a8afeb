// Package esbuildplugin compiles .scss imports inside an esbuild build.
//
//	api.Build(api.BuildOptions{
//		EntryPoints: []string{"src/app.js"},
//		Bundle:      true,
//		Plugins:     []api.Plugin{esbuildplugin.Plugin(compiler.Options{})},
//	})
package esbuildplugin

import (
	"encoding/base64"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/scssc/compiler"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/log"
	"bennypowers.dev/scssc/internal/uriutil"
)

// Name is reported by esbuild next to messages from this plugin
const Name = "scssc"

// Plugin returns an esbuild plugin that loads .scss files as CSS. Loads
// share one file cache for the lifetime of the build context, and every
// file a stylesheet pulls in is watched in watch mode.
func Plugin(opts compiler.Options) api.Plugin {
	return api.Plugin{
		Name: Name,
		Setup: func(build api.PluginBuild) {
			if opts.Cache == nil {
				c, err := compiler.NewCache(opts.Loader, 0)
				if err != nil {
					log.Warn("Failed to create file cache: %v", err)
				} else {
					opts.Cache = c
				}
			}
			build.OnStart(func() (api.OnStartResult, error) {
				// rebuilds must see edited files
				if opts.Cache != nil {
					opts.Cache.Purge()
				}
				return api.OnStartResult{}, nil
			})
			build.OnLoad(api.OnLoadOptions{
				Filter: `\.scss$`,
			}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				return load(args.Path, opts), nil
			})
		},
	}
}

// load compiles path and converts the outcome to an esbuild result.
// Compile failures are reported as messages, not as a plugin error, so
// esbuild can show their location.
func load(path string, opts compiler.Options) api.OnLoadResult {
	logger := &messageLogger{}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	// the bundle is not a standalone stylesheet
	opts.OmitCharset = true

	r := api.OnLoadResult{ResolveDir: filepath.Dir(path)}
	res, err := compiler.Compile(path, opts)
	r.Warnings = logger.messages
	if err != nil {
		r.Errors = []api.Message{errorMessage(err, opts)}
		r.WatchFiles = []string{path}
		return r
	}

	contents := res.CSS
	if res.SourceMap != "" {
		// esbuild chains inline input maps into its own output map
		contents += "\n/*# sourceMappingURL=data:application/json;base64," +
			base64.StdEncoding.EncodeToString([]byte(res.SourceMap)) + " */"
	}
	r.Contents = &contents
	r.Loader = api.LoaderCSS
	r.WatchFiles = watchFiles(res.LoadedURLs)
	return r
}

func watchFiles(urls []string) []string {
	files := make([]string, 0, len(urls))
	for _, u := range urls {
		if path, ok := uriutil.FilePath(u); ok {
			files = append(files, path)
		}
	}
	return files
}

func errorMessage(err error, opts compiler.Options) api.Message {
	msg := api.Message{PluginName: Name, Text: err.Error()}
	loc, ok := diagnostics.LocationOf(err)
	if !ok || loc.Path == "" {
		return msg
	}
	msg.Text = strings.TrimPrefix(msg.Text, loc.String()+": ")
	msg.Location = location(loc, opts)
	return msg
}

// location converts a 0-based diagnostic location to esbuild's 1-based
// lines, reading the offending line for the excerpt
func location(loc diagnostics.Location, opts compiler.Options) *api.Location {
	l := &api.Location{
		File:   loc.Path,
		Line:   loc.Line + 1,
		Column: loc.Column,
	}
	if loc.End > loc.Offset {
		l.Length = loc.End - loc.Offset
	}
	loader := opts.Loader
	if opts.Cache != nil {
		loader = opts.Cache
	}
	if loader == nil {
		return l
	}
	data, err := loader.ReadFile(loc.Path)
	if err != nil {
		return l
	}
	lines := strings.Split(string(data), "\n")
	if loc.Line < len(lines) {
		l.LineText = strings.TrimSuffix(lines[loc.Line], "\r")
		if l.Column+l.Length > len(l.LineText) {
			l.Length = max(len(l.LineText)-l.Column, 0)
		}
	}
	return l
}

// messageLogger collects @warn output as esbuild warnings
type messageLogger struct {
	messages []api.Message
}

func (l *messageLogger) Warn(message string, opts compiler.WarnOptions) {
	msg := api.Message{PluginName: Name, Text: message}
	if opts.Location.Path != "" {
		msg.Location = &api.Location{
			File:   opts.Location.Path,
			Line:   opts.Location.Line + 1,
			Column: opts.Location.Column,
		}
	}
	if opts.Stack != "" {
		msg.Notes = []api.Note{{Text: opts.Stack}}
	}
	l.messages = append(l.messages, msg)
}

func (l *messageLogger) Debug(message string, opts compiler.DebugOptions) {
	log.Debug("%s: %s", opts.Location, message)
}
