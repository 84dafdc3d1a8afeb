package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuildVars(t *testing.T, version, tag, commit, dirty string) {
	t.Helper()
	orig := [...]string{Version, GitTag, GitCommit, GitDirty}
	t.Cleanup(func() {
		Version, GitTag, GitCommit, GitDirty = orig[0], orig[1], orig[2], orig[3]
	})
	Version, GitTag, GitCommit, GitDirty = version, tag, commit, dirty
}

func TestResolveVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		tag     string
		commit  string
		dirty   string
		want    string
	}{
		{"defaults", "dev", "unknown", "unknown", "", "dev"},
		{"ldflags", "v1.2.3", "unknown", "unknown", "", "v1.2.3"},
		{"tag and commit", "dev", "v0.3.0", "abcdef0123456", "", "v0.3.0-abcdef0"},
		{"short commit", "dev", "v0.3.0", "abc", "", "v0.3.0-abc"},
		{"tag contains commit", "dev", "v0.3.0-abcdef0", "abcdef0123", "", "v0.3.0-abcdef0"},
		{"dirty", "dev", "v0.3.0", "abcdef0123", "dirty", "v0.3.0-abcdef0-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildVars(t, tt.version, tt.tag, tt.commit, tt.dirty)
			assert.Equal(t, tt.want, resolveVersion())
		})
	}
}

func TestInfoString(t *testing.T) {
	i := Info{Version: "v1.0.0", Commit: "abc123", GoVersion: "go1.25.5"}
	assert.Equal(t, "v1.0.0 (commit: abc123) go1.25.5", i.String())

	i = Info{Version: "dev", Commit: "unknown"}
	assert.Equal(t, "dev", i.String())
}

func TestGet(t *testing.T) {
	withBuildVars(t, "v9.9.9", "unknown", "deadbeef", "")
	info := Get()
	assert.Equal(t, "v9.9.9", info.Version)
	assert.Equal(t, "deadbeef", info.Commit)
	assert.True(t, strings.HasPrefix(info.String(), "v9.9.9 (commit: deadbeef)"))
}
