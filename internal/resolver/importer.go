package resolver

// ImporterResult is the stylesheet an Importer loaded
type ImporterResult struct {
	Contents string
	Syntax   Syntax
}

// Importer resolves URLs that are not files on a load path, such as
// design-token bundles or stylesheets generated in memory. Importers are
// consulted after relative URLs and before load paths, in order.
type Importer interface {
	// Canonicalize maps url to a canonical URL. ok is false when the
	// importer does not handle url. fromImport is true for @import.
	Canonicalize(url string, fromImport bool) (canonical string, ok bool, err error)
	// Load returns the contents of a canonical URL this importer produced
	Load(canonical string) (*ImporterResult, error)
}

// MapImporter serves stylesheets from memory under a URL scheme, e.g.
// "mem:theme"
type MapImporter struct {
	Scheme string
	Files  map[string]string
}

func (m *MapImporter) Canonicalize(url string, _ bool) (string, bool, error) {
	prefix := m.Scheme + ":"
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return "", false, nil
	}
	if _, ok := m.Files[url[len(prefix):]]; !ok {
		return "", false, nil
	}
	return url, true, nil
}

func (m *MapImporter) Load(canonical string) (*ImporterResult, error) {
	contents := m.Files[canonical[len(m.Scheme)+1:]]
	return &ImporterResult{Contents: contents, Syntax: SyntaxSCSS}, nil
}

// FileImporter redirects URLs to files on disk. The file: URL it returns
// is resolved like a relative URL: partials, extensions and index files
// are all tried. File importers are consulted after importers and before
// load paths.
type FileImporter interface {
	// FindFileURL maps url to a file: URL. ok is false when the importer
	// does not handle url.
	FindFileURL(url string, fromImport bool) (fileURL string, ok bool, err error)
}
