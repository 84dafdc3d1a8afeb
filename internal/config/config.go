// Package config reads scssc project configuration.
//
// Configuration is looked up in this order, the first hit wins:
//
//   - the "scssc" key of package.json (JSON with comments allowed)
//   - .config/scssc.yaml, .config/scssc.yml or .config/scssc.json
//
// When neither lists design token files, the asimonim configuration in
// .config/design-tokens.{yaml,json} supplies them.
package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TokenFile is a design token file exposed to stylesheets as
// `@use "tokens:<name>"`
type TokenFile struct {
	// Path to the token file (required)
	Path string `json:"path" yaml:"path"`

	// Name is the module name after "tokens:"; the file name by default
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Prefix is prepended to every generated variable name (optional)
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// GroupMarkers are token names that can also be groups (optional)
	GroupMarkers []string `json:"groupMarkers,omitempty" yaml:"groupMarkers,omitempty"`
}

// UnmarshalJSON accepts either a path string or an object
func (t *TokenFile) UnmarshalJSON(data []byte) error {
	var path string
	if err := json.Unmarshal(data, &path); err == nil {
		*t = TokenFile{Path: path}
		return nil
	}
	type plain TokenFile
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("token file must be a path or an object: %w", err)
	}
	*t = TokenFile(p)
	return nil
}

// UnmarshalYAML accepts either a path string or a mapping
func (t *TokenFile) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*t = TokenFile{Path: node.Value}
		return nil
	}
	type plain TokenFile
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("token file must be a path or a mapping: %w", err)
	}
	*t = TokenFile(p)
	return nil
}

// Config is the project configuration
type Config struct {
	// Entries are doublestar globs of the stylesheets to compile.
	// Partials (files starting with "_") are never entries.
	Entries []string `json:"entries" yaml:"entries"`

	// OutDir receives the compiled CSS; next to each source when empty
	OutDir string `json:"outDir" yaml:"outDir"`

	// Style is "expanded" or "compressed"
	Style string `json:"style" yaml:"style"`

	SourceMap               bool `json:"sourceMap" yaml:"sourceMap"`
	SourceMapIncludeSources bool `json:"sourceMapIncludeSources" yaml:"sourceMapIncludeSources"`

	// LoadPaths are searched for URLs not relative to the importing file
	LoadPaths []string `json:"loadPaths" yaml:"loadPaths"`

	// QuietDeps silences @warn from load path and importer stylesheets
	QuietDeps bool `json:"quietDeps" yaml:"quietDeps"`

	// Tokens lists design token files. Can be:
	//  - strings (paths): ["./tokens.json"]
	//  - objects: [{"path": "./tokens.json", "prefix": "ds"}]
	Tokens []TokenFile `json:"tokens" yaml:"tokens"`

	// Source names where the configuration was read from
	Source string `json:"-" yaml:"-"`
}

// DefaultEntries are the globs compiled when no entries are configured
var DefaultEntries = []string{
	"**/*.scss",
}

// DefaultConfig returns the configuration used when no file provides one
func DefaultConfig() *Config {
	return &Config{
		Entries:   append([]string(nil), DefaultEntries...),
		Style:     "expanded",
		LoadPaths: []string{},
		Tokens:    []TokenFile{},
	}
}
