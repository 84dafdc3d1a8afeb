package uriutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileURL(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}
	tests := []struct {
		name string
		path string
		want string
	}{
		{"absolute", "/home/user/main.scss", "file:///home/user/main.scss"},
		{"root", "/", "file:///"},
		{"spaces", "/home/user/my styles/a.scss", "file:///home/user/my%20styles/a.scss"},
		{"unicode", "/tmp/café.scss", "file:///tmp/caf%C3%A9.scss"},
		{"cleaned", "/a/b/../c.scss", "file:///a/c.scss"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileURL(tt.path))
		})
	}
}

func TestFileURLRelative(t *testing.T) {
	abs, err := filepath.Abs("x.scss")
	require.NoError(t, err)
	assert.Equal(t, FileURL(abs), FileURL("x.scss"))
}

func TestFilePath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"plain", "file:///home/user/a.scss", "/home/user/a.scss", true},
		{"escaped", "file:///home/user/my%20styles/a.scss", "/home/user/my styles/a.scss", true},
		{"localhost", "file://localhost/etc/a.scss", "/etc/a.scss", true},
		{"upper case scheme", "FILE:///a.scss", "/a.scss", true},
		{"invalid escape", "file:///a%zz.scss", "/a%zz.scss", true},
		{"importer scheme", "tokens:brand", "", false},
		{"stdin", "stdin", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FilePath(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, path := range []string{"/a/b.scss", "/with space/_c.scss", "/odd#name?.scss"} {
		t.Run(path, func(t *testing.T) {
			if runtime.GOOS == "windows" {
				t.Skip("POSIX paths")
			}
			got, ok := FilePath(FileURL(path))
			require.True(t, ok)
			assert.Equal(t, path, got)
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
		ok   bool
	}{
		{"sibling", "file:///src/main.scss", "theme", "file:///src/theme", true},
		{"parent", "file:///src/a/main.scss", "../lib/x", "file:///src/lib/x", true},
		{"absolute ref", "file:///src/main.scss", "/abs/y", "file:///abs/y", true},
		{"opaque base", "tokens:brand", "x", "", false},
		{"no scheme", "stdin", "x", "", false},
		{"ref with scheme", "file:///src/main.scss", "mem:x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.base, tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
