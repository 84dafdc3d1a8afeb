package resolver

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"bennypowers.dev/scssc/internal/diagnostics"
)

// Loader reads stylesheet files. A missing file must be reported as a
// diagnostics.NotFoundError so resolution can try the next candidate.
type Loader interface {
	ReadFile(path string) ([]byte, error)
}

// OSLoader reads from the local file system
type OSLoader struct{}

func (OSLoader) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, diagnostics.NewNotFoundError(path)
		}
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			return nil, diagnostics.NewNotFoundError(path)
		}
		return nil, err
	}
	return data, nil
}

// MapLoader serves files from memory, keyed by cleaned path
type MapLoader struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMapLoader creates a loader over path -> content pairs
func NewMapLoader(files map[string]string) *MapLoader {
	l := &MapLoader{files: make(map[string][]byte, len(files))}
	for path, content := range files {
		l.files[filepath.Clean(path)] = []byte(content)
	}
	return l
}

// Set adds or replaces a file
func (l *MapLoader) Set(path, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files[filepath.Clean(path)] = []byte(content)
}

func (l *MapLoader) ReadFile(path string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	data, ok := l.files[filepath.Clean(path)]
	if !ok {
		return nil, diagnostics.NewNotFoundError(path)
	}
	return data, nil
}
