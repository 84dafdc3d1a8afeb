package resolver

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	asimonimParser "bennypowers.dev/asimonim/parser"
	"bennypowers.dev/asimonim/schema"
	"bennypowers.dev/asimonim/validator"
	"bennypowers.dev/scssc/internal/log"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// TokensScheme prefixes the URLs the TokensImporter serves: @use "tokens:brand"
const TokensScheme = "tokens:"

// TokensFile is a DTCG design token file exposed as a Sass module
type TokensFile struct {
	// Name is the part of the URL after "tokens:". Defaults to the file
	// name without extension.
	Name string
	Path string
	// Prefix is prepended to every variable name
	Prefix       string
	GroupMarkers []string
}

// TokensImporter exposes design token files as Sass modules. Each token
// becomes a !default variable and the module also defines $tokens, a map
// from token name to value. Aliases become variable references.
type TokensImporter struct {
	files  map[string]TokensFile
	loader Loader
}

// NewTokensImporter creates an importer over the given token files
func NewTokensImporter(loader Loader, files ...TokensFile) *TokensImporter {
	if loader == nil {
		loader = OSLoader{}
	}
	t := &TokensImporter{files: make(map[string]TokensFile, len(files)), loader: loader}
	for _, f := range files {
		if f.Name == "" {
			f.Name = strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
		}
		t.files[f.Name] = f
	}
	return t
}

// Names returns the configured module names, sorted
func (t *TokensImporter) Names() []string {
	names := make([]string, 0, len(t.files))
	for name := range t.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *TokensImporter) Canonicalize(url string, _ bool) (string, bool, error) {
	name, ok := strings.CutPrefix(url, TokensScheme)
	if !ok {
		return "", false, nil
	}
	if _, ok := t.files[name]; !ok {
		return "", false, nil
	}
	return TokensScheme + name, true, nil
}

func (t *TokensImporter) Load(canonical string) (*ImporterResult, error) {
	name := strings.TrimPrefix(canonical, TokensScheme)
	file, ok := t.files[name]
	if !ok {
		return nil, fmt.Errorf("unknown token module %q", canonical)
	}

	data, err := t.loader.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file %s: %w", file.Path, err)
	}
	data, err = tokensJSON(file.Path, data)
	if err != nil {
		return nil, err
	}

	parser := asimonimParser.NewJSONParser()
	parsed, err := parser.Parse(data, asimonimParser.Options{
		GroupMarkers: file.GroupMarkers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse tokens from %s: %w", file.Path, err)
	}

	version := schema.Draft
	for _, tok := range parsed {
		if tok.SchemaVersion != schema.Unknown {
			version = tok.SchemaVersion
			break
		}
	}
	if validationErrors := validator.ValidateConsistencyWithPath(data, version, file.Path); len(validationErrors) > 0 {
		for _, ve := range validationErrors {
			log.Warn("Schema validation: %s", ve.Error())
		}
	}

	tokens := make([]designToken, 0, len(parsed))
	for _, tok := range parsed {
		tokens = append(tokens, designToken{Name: tok.Name, Value: tok.Value, Type: tok.Type})
	}

	contents, err := tokensStylesheet(tokens, file.Prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	log.Debug("Loaded %d tokens from %s", len(tokens), file.Path)
	return &ImporterResult{Contents: contents, Syntax: SyntaxSCSS}, nil
}

// tokensJSON normalizes a token file to plain JSON: comments are stripped
// from JSON and YAML is converted.
func tokensJSON(path string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s to JSON: %w", path, err)
		}
		return out, nil
	case ".json", ".jsonc":
		return jsonc.ToJSON(data), nil
	}
	return nil, fmt.Errorf("unsupported token file type %s: %s", filepath.Ext(path), path)
}
