package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bennypowers.dev/scssc/internal/log"
	"bennypowers.dev/scssc/internal/sourcemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	prev := log.GetLevel()
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(prev)
	})
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code, err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String(), err
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

var project = map[string]string{
	"styles/main.scss":   "@use \"theme\";\n.a { color: theme.$c; }\n",
	"styles/_theme.scss": "$c: red;\n",
	"styles/other.scss":  ".o { top: 0; }\n",
}

func TestRunWritesNextToSources(t *testing.T) {
	dir := fixture(t, project)

	code, _, stderr, err := runCLI(t, "")
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
	assert.Empty(t, stderr)

	assert.Equal(t, ".a {\n  color: red;\n}\n", read(t, filepath.Join(dir, "styles", "main.css")))
	assert.Equal(t, ".o {\n  top: 0;\n}\n", read(t, filepath.Join(dir, "styles", "other.css")))
	assert.NoFileExists(t, filepath.Join(dir, "styles", "_theme.css"))
}

func TestRunOutDirAndSourceMap(t *testing.T) {
	dir := fixture(t, project)

	code, _, _, err := runCLI(t, "", "-out-dir", "dist", "-source-map", "-style", "compressed", "styles/main.scss")
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)

	css := read(t, filepath.Join(dir, "dist", "styles", "main.css"))
	assert.Equal(t, ".a{color:red}\n\n/*# sourceMappingURL=main.css.map */\n", css)

	var m sourcemap.Map
	require.NoError(t, json.Unmarshal([]byte(read(t, filepath.Join(dir, "dist", "styles", "main.css.map"))), &m))
	assert.Equal(t, "main.css", m.File)
	assert.Empty(t, m.SourcesContent)
	assert.NoFileExists(t, filepath.Join(dir, "dist", "styles", "other.css"))
}

func TestRunEmbedSourcesImpliesSourceMap(t *testing.T) {
	dir := fixture(t, project)

	code, _, _, err := runCLI(t, "", "-embed-sources", "styles/other.scss")
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)

	var m sourcemap.Map
	require.NoError(t, json.Unmarshal([]byte(read(t, filepath.Join(dir, "styles", "other.css.map"))), &m))
	require.Len(t, m.SourcesContent, 1)
	require.NotNil(t, m.SourcesContent[0])
	assert.Equal(t, project["styles/other.scss"], *m.SourcesContent[0])
}

func TestRunStdout(t *testing.T) {
	fixture(t, project)

	code, stdout, _, err := runCLI(t, "", "-stdout", "-style=compressed", "styles/*.scss")
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, ".a{color:red}\n.o{top:0}\n", stdout)
}

func TestRunStdin(t *testing.T) {
	fixture(t, project)

	code, stdout, _, err := runCLI(t, `@use "styles/theme"; .s { color: theme.$c; }`, "-style", "compressed", "-")
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, ".s{color:red}\n", stdout)
}

func TestRunLoadPathFromConfig(t *testing.T) {
	dir := fixture(t, map[string]string{
		"package.json":            `{"scssc": {"loadPaths": ["vendor"], "style": "compressed", "outDir": "out"}}`,
		"src/app.scss":            `@use "kit/button"; .app { margin: 0; }`,
		"vendor/kit/_button.scss": `.btn { padding: 1px; }`,
	})

	code, _, _, err := runCLI(t, "", "src/app.scss")
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, ".btn{padding:1px}.app{margin:0}\n", read(t, filepath.Join(dir, "out", "src", "app.css")))
}

func TestRunReportsCompileErrors(t *testing.T) {
	dir := fixture(t, map[string]string{
		"ok.scss":     `.ok { a: b; }`,
		"broken.scss": `.x { color: $missing; }`,
	})

	code, _, stderr, err := runCLI(t, "")
	require.Error(t, err)
	assert.Equal(t, exitCompile, code)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, stderr, "$missing")
	assert.Contains(t, stderr, "  | .x { color: $missing; }")
	assert.FileExists(t, filepath.Join(dir, "ok.css"))
	assert.NoFileExists(t, filepath.Join(dir, "broken.css"))
}

func TestRunUsage(t *testing.T) {
	fixture(t, project)

	t.Run("unknown flag", func(t *testing.T) {
		code, _, stderr, _ := runCLI(t, "", "-nope")
		assert.Equal(t, exitUsage, code)
		assert.Contains(t, stderr, "Usage: scssc")
	})

	t.Run("bad style", func(t *testing.T) {
		code, _, _, err := runCLI(t, "", "-style", "nested")
		assert.Equal(t, exitUsage, code)
		assert.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		code, _, _, err := runCLI(t, "", "-log-level", "loud")
		assert.Equal(t, exitUsage, code)
		assert.Error(t, err)
	})

	t.Run("no matches", func(t *testing.T) {
		code, _, _, err := runCLI(t, "", "**/*.sass")
		assert.Equal(t, exitUsage, code)
		assert.ErrorContains(t, err, "no stylesheets match")
	})

	t.Run("version", func(t *testing.T) {
		code, stdout, _, err := runCLI(t, "", "-version")
		require.NoError(t, err)
		assert.Equal(t, exitOK, code)
		assert.True(t, strings.HasPrefix(stdout, "scssc "))
	})
}
