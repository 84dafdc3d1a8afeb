// Package uriutil converts between file system paths and the canonical
// URLs stylesheets are keyed by. Files on disk are file: URLs; importers
// may use any other scheme.
package uriutil

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

const fileScheme = "file:"

// IsFile reports whether u is a file: URL
func IsFile(u string) bool {
	return len(u) >= len(fileScheme) && strings.EqualFold(u[:len(fileScheme)], fileScheme)
}

// FileURL returns the canonical file: URL of path. Relative paths are made
// absolute first; every segment is percent-encoded.
//
//	/home/u/a b.scss   -> file:///home/u/a%20b.scss
//	C:\proj\a.scss     -> file:///C:/proj/a.scss
//	\\server\share\a   -> file://server/share/a
func FileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	host := ""
	if runtime.GOOS == "windows" && strings.HasPrefix(path, `\\`) {
		rest := filepath.ToSlash(path[2:])
		host, path, _ = strings.Cut(rest, "/")
		path = "/" + path
	}

	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "file://" + url.PathEscape(host) + strings.Join(segments, "/")
}

// FilePath returns the file system path of a file: URL. It reports false
// for URLs of any other scheme.
func FilePath(u string) (string, bool) {
	if !IsFile(u) {
		return "", false
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return lenientPath(u), true
	}

	if parsed.Host != "" && parsed.Host != "localhost" {
		if runtime.GOOS == "windows" {
			return `\\` + parsed.Host + filepath.FromSlash(parsed.Path), true
		}
		return parsed.Host + parsed.Path, true
	}
	return localPath(parsed.Path), true
}

// lenientPath strips the scheme from a URL url.Parse rejected
func lenientPath(u string) string {
	path := u[len(fileScheme):]
	path = strings.TrimPrefix(path, "//")
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	return localPath(path)
}

// localPath turns /C:/proj into C:/proj and uses OS separators
func localPath(path string) string {
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// Resolve resolves ref against a hierarchical base URL such as a file: URL.
// It reports false when base is opaque or ref carries its own scheme.
func Resolve(base, ref string) (string, bool) {
	b, err := url.Parse(base)
	if err != nil || b.Opaque != "" || b.Scheme == "" {
		return "", false
	}
	r, err := url.Parse(ref)
	if err != nil || r.Scheme != "" {
		return "", false
	}
	return b.ResolveReference(r).String(), true
}
