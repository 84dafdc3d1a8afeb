// Package diagnostics defines the compiler's error taxonomy. Every kind has a
// sentinel error for errors.Is checks and a typed error carrying the source
// location that triggered it.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for error type checking
var (
	// ErrSyntax indicates the lexer rejected the source text
	ErrSyntax = errors.New("syntax error")

	// ErrParse indicates the token stream does not match the grammar
	ErrParse = errors.New("parse error")

	// ErrResolution indicates an import URL matched no file, or matched several
	ErrResolution = errors.New("resolution error")

	// ErrCyclicImport indicates a stylesheet imports itself directly or transitively
	ErrCyclicImport = errors.New("cyclic import")

	// ErrUndefinedReference indicates an unknown variable, mixin or function
	ErrUndefinedReference = errors.New("undefined reference")

	// ErrUnit indicates arithmetic on incompatible units
	ErrUnit = errors.New("incompatible units")

	// ErrNotFound indicates the file-read collaborator found no such file
	ErrNotFound = errors.New("file not found")

	// ErrRecursionLimit indicates mixin or function calls nested too deeply
	ErrRecursionLimit = errors.New("recursion limit exceeded")

	// ErrArgument indicates a bad argument passed to a mixin or function
	ErrArgument = errors.New("invalid argument")

	// ErrUser indicates an @error rule was evaluated
	ErrUser = errors.New("stylesheet error")
)

// Location identifies a range in a source file.
// Line and Column are 0-based; String renders them 1-based.
type Location struct {
	URL    string
	Path   string
	Line   int
	Column int
	Offset int
	End    int
}

// IsZero reports whether no location was attached
func (l Location) IsZero() bool {
	return l.URL == "" && l.Path == "" && l.Offset == 0 && l.End == 0 && l.Line == 0 && l.Column == 0
}

// String formats the location as path:line:col
func (l Location) String() string {
	name := l.Path
	if name == "" {
		name = l.URL
	}
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("%s:%d:%d", name, l.Line+1, l.Column+1)
}

// Locator converts a source span into a Location.
type Locator interface {
	Location() Location
}

// Diagnostic is implemented by every typed error in this package.
type Diagnostic interface {
	error
	Where() Location
	setLocation(Location)
}

type located struct {
	Loc Location
}

func (l *located) Where() Location { return l.Loc }

func (l *located) setLocation(loc Location) {
	if l.Loc.IsZero() {
		l.Loc = loc
	}
}

func (l *located) prefix() string {
	if l.Loc.IsZero() {
		return ""
	}
	return l.Loc.String() + ": "
}

// Locate attaches the location of at to err if err is a Diagnostic that has
// no location yet. Errors raised by pure value operations carry no position
// until the evaluator attaches the span of the expression being evaluated.
func Locate(err error, at Locator) error {
	if err == nil || at == nil {
		return err
	}
	var d Diagnostic
	if errors.As(err, &d) && d.Where().IsZero() {
		d.setLocation(at.Location())
	}
	return err
}

// LocationOf returns the location attached to err, if any.
func LocationOf(err error) (Location, bool) {
	var d Diagnostic
	if errors.As(err, &d) && !d.Where().IsZero() {
		return d.Where(), true
	}
	return Location{}, false
}

// SyntaxError represents a lexical error
type SyntaxError struct {
	located
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s%s", e.prefix(), e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(loc Location, message string) error {
	return &SyntaxError{located: located{loc}, Message: message}
}

// ParseError represents a grammar error with the expected and found tokens
type ParseError struct {
	located
	Expected string
	Found    string
	Message  string
}

func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s%s", e.prefix(), e.Message)
	}
	return fmt.Sprintf("%sexpected %s, found %s", e.prefix(), e.Expected, e.Found)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// NewParseError creates a new parse error
func NewParseError(loc Location, expected, found string) error {
	return &ParseError{located: located{loc}, Expected: expected, Found: found}
}

// NewParseErrorf creates a parse error with a free-form message
func NewParseErrorf(loc Location, format string, args ...any) error {
	return &ParseError{located: located{loc}, Message: fmt.Sprintf(format, args...)}
}

// ResolutionError represents an import that could not be resolved
type ResolutionError struct {
	located
	URL        string
	Candidates []string
	// Reason replaces the default message when set
	Reason string
}

func (e *ResolutionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%scannot resolve %q: %s", e.prefix(), e.URL, e.Reason)
	}
	if len(e.Candidates) > 1 {
		return fmt.Sprintf("%scannot resolve %q: it's not clear which file to import, found %s\nSuggestion: Remove or rename one of the files",
			e.prefix(), e.URL, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("%scannot find stylesheet to import: %q", e.prefix(), e.URL)
}

func (e *ResolutionError) Unwrap() error {
	return ErrResolution
}

// NewResolutionError creates a new resolution error. More than one candidate
// means the URL was ambiguous.
func NewResolutionError(loc Location, url string, candidates []string) error {
	return &ResolutionError{located: located{loc}, URL: url, Candidates: candidates}
}

// NewResolutionErrorf creates a resolution error with a custom reason
func NewResolutionErrorf(loc Location, url, format string, args ...any) error {
	return &ResolutionError{located: located{loc}, URL: url, Reason: fmt.Sprintf(format, args...)}
}

// CyclicImportError represents an import cycle
type CyclicImportError struct {
	located
	Chain []string
}

func (e *CyclicImportError) Error() string {
	return fmt.Sprintf("%smodule loop: %s\nSuggestion: Break the circular import chain",
		e.prefix(), strings.Join(e.Chain, " → "))
}

func (e *CyclicImportError) Unwrap() error {
	return ErrCyclicImport
}

// NewCyclicImportError creates a new cyclic import error
func NewCyclicImportError(loc Location, chain []string) error {
	return &CyclicImportError{located: located{loc}, Chain: chain}
}

// UndefinedReferenceError represents a reference to an unknown member
type UndefinedReferenceError struct {
	located
	// Kind is "variable", "mixin", "function" or "module"
	Kind string
	Name string
	// Scope names where the lookup happened (a namespace or "global")
	Scope string
}

func (e *UndefinedReferenceError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%sundefined %s %s in %s", e.prefix(), e.Kind, e.Name, e.Scope)
	}
	return fmt.Sprintf("%sundefined %s %s", e.prefix(), e.Kind, e.Name)
}

func (e *UndefinedReferenceError) Unwrap() error {
	return ErrUndefinedReference
}

// NewUndefinedReferenceError creates a new undefined reference error
func NewUndefinedReferenceError(loc Location, kind, name, scope string) error {
	return &UndefinedReferenceError{located: located{loc}, Kind: kind, Name: name, Scope: scope}
}

// UnitError represents arithmetic or comparison on incompatible units
type UnitError struct {
	located
	Message string
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s%s", e.prefix(), e.Message)
}

func (e *UnitError) Unwrap() error {
	return ErrUnit
}

// NewUnitError creates a new unit error
func NewUnitError(format string, args ...any) error {
	return &UnitError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned by file loaders when a path does not exist
type NotFoundError struct {
	located
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s%s: no such file", e.prefix(), e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(path string) error {
	return &NotFoundError{Path: path}
}

// RecursionLimitError represents mixin/function calls nested too deeply
type RecursionLimitError struct {
	located
	Name  string
	Limit int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("%smaximum call depth of %d exceeded calling %s\nSuggestion: Check for unbounded recursion",
		e.prefix(), e.Limit, e.Name)
}

func (e *RecursionLimitError) Unwrap() error {
	return ErrRecursionLimit
}

// NewRecursionLimitError creates a new recursion limit error
func NewRecursionLimitError(name string, limit int) error {
	return &RecursionLimitError{Name: name, Limit: limit}
}

// ArgumentError represents a bad argument passed to a callable
type ArgumentError struct {
	located
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s%s", e.prefix(), e.Message)
}

func (e *ArgumentError) Unwrap() error {
	return ErrArgument
}

// NewArgumentError creates a new argument error
func NewArgumentError(format string, args ...any) error {
	return &ArgumentError{Message: fmt.Sprintf(format, args...)}
}

// UserError is raised by the @error rule
type UserError struct {
	located
	Message string
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s%s", e.prefix(), e.Message)
}

func (e *UserError) Unwrap() error {
	return ErrUser
}

// NewUserError creates a new user error
func NewUserError(loc Location, message string) error {
	return &UserError{located: located{loc}, Message: message}
}
