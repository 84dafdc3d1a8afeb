package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skipDirs are never searched for entries
var skipDirs = []string{"node_modules", "dist", "build"}

// shouldSkipDirectory reports whether a directory is excluded from entry
// discovery: hidden directories and common build/dependency directories
func shouldSkipDirectory(info os.FileInfo) bool {
	if !info.IsDir() {
		return false
	}
	if strings.HasPrefix(info.Name(), ".") {
		return true
	}
	return slices.Contains(skipDirs, info.Name())
}

// IsPartial reports whether path names a partial, which is only ever
// loaded by other stylesheets
func IsPartial(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "_")
}

// matchGlobPattern matches a glob pattern against a path using doublestar.
// Paths are normalized to forward slashes first.
func matchGlobPattern(pattern, path string) (bool, error) {
	return doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(path))
}

// ExpandEntries resolves entry arguments under root. An argument naming an
// existing file is taken as is, even when it is a partial; anything else is
// a doublestar glob matched against paths relative to root. The result is
// sorted and free of duplicates.
func ExpandEntries(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	var globs []string
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return nil, fmt.Errorf("invalid entry pattern %q", p)
		}
		path := p
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, p)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			add(path)
			continue
		}
		globs = append(globs, p)
	}

	if len(globs) > 0 {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // Skip errors, continue walking
			}
			if path != root && shouldSkipDirectory(info) {
				return filepath.SkipDir
			}
			if info.IsDir() || IsPartial(path) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			for _, pattern := range globs {
				if ok, err := matchGlobPattern(pattern, rel); err == nil && ok {
					add(path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	sort.Strings(out)
	return out, nil
}

// OutputPath returns where the CSS compiled from entry is written. With no
// outDir the file lands next to its source; otherwise the entry's path
// relative to root is mirrored under outDir.
func OutputPath(root, outDir, entry string) string {
	name := strings.TrimSuffix(entry, filepath.Ext(entry)) + ".css"
	if outDir == "" {
		return name
	}
	rel, err := filepath.Rel(root, name)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(name)
	}
	return filepath.Join(outDir, rel)
}
