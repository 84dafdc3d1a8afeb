package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	asimonimConfig "bennypowers.dev/asimonim/config"
	"bennypowers.dev/asimonim/fs"
	"bennypowers.dev/scssc/internal/log"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// packageJSONKey is the package.json field holding scssc configuration
const packageJSONKey = "scssc"

// configFiles are tried in order under .config/ when package.json has no
// configuration
var configFiles = []string{"scssc.yaml", "scssc.yml", "scssc.json"}

// Load reads the configuration for the project at root. Missing files are
// not an error: DefaultConfig is returned. Relative paths in the result
// are resolved against root, except entries which stay globs.
func Load(root string) (*Config, error) {
	cfg, err := load(root)
	if err != nil {
		return nil, err
	}
	if len(cfg.Tokens) == 0 {
		cfg.Tokens = readAsimonimTokens(root)
	}
	cfg.resolve(root)
	return cfg, nil
}

func load(root string) (*Config, error) {
	cfg, err := readPackageJSON(root)
	if err != nil || cfg != nil {
		return cfg, err
	}
	for _, name := range configFiles {
		path := filepath.Join(root, ".config", name)
		data, err := os.ReadFile(path) //nolint:gosec // G304: project configuration chosen by the user
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		cfg := DefaultConfig()
		if filepath.Ext(name) == ".json" {
			err = json.Unmarshal(jsonc.ToJSON(data), cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.Source = path
		log.Debug("Read configuration from %s", path)
		return cfg, nil
	}
	return DefaultConfig(), nil
}

// readPackageJSON reads the scssc key of package.json. Returns nil if the
// file or the key doesn't exist (not an error).
func readPackageJSON(root string) (*Config, error) {
	path := filepath.Join(root, "package.json")
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading workspace package.json
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	// Parse as JSONC (allows comments)
	var pkg map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	raw, ok := pkg[packageJSONKey]
	if !ok {
		return nil, nil
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%s in package.json must be an object: %w", packageJSONKey, err)
	}
	cfg.Source = path
	log.Debug("Read configuration from %s", path)
	return cfg, nil
}

// readAsimonimTokens reads token files from .config/design-tokens.{yaml,json}
func readAsimonimTokens(root string) []TokenFile {
	filesystem := fs.NewOSFileSystem()
	cfg, err := asimonimConfig.Load(filesystem, root)
	if err != nil {
		log.Warn("Failed to read design tokens configuration: %v", err)
		return nil
	}
	if cfg == nil {
		return nil
	}

	// Expand glob patterns in file paths
	paths, err := cfg.ExpandFiles(filesystem, root)
	if err != nil {
		log.Warn("Failed to expand token file globs: %v", err)
		var tokens []TokenFile
		for _, spec := range cfg.Files {
			prefix := spec.Prefix
			if prefix == "" {
				prefix = cfg.Prefix
			}
			markers := spec.GroupMarkers
			if len(markers) == 0 {
				markers = cfg.GroupMarkers
			}
			tokens = append(tokens, TokenFile{Path: spec.Path, Prefix: prefix, GroupMarkers: markers})
		}
		return tokens
	}

	tokens := make([]TokenFile, 0, len(paths))
	for _, path := range paths {
		tokens = append(tokens, TokenFile{Path: path, Prefix: cfg.Prefix, GroupMarkers: cfg.GroupMarkers})
	}
	return tokens
}

func (c *Config) resolve(root string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	c.OutDir = abs(c.OutDir)
	for i, p := range c.LoadPaths {
		c.LoadPaths[i] = abs(p)
	}
	for i := range c.Tokens {
		c.Tokens[i].Path = abs(c.Tokens[i].Path)
	}
	if len(c.Entries) == 0 {
		c.Entries = append([]string(nil), DefaultEntries...)
	}
}
