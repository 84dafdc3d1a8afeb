package diagnostics_test

import (
	"errors"
	"fmt"
	"testing"

	"bennypowers.dev/scssc/internal/diagnostics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedLocator diagnostics.Location

func (f fixedLocator) Location() diagnostics.Location { return diagnostics.Location(f) }

func TestErrorsUnwrapToSentinels(t *testing.T) {
	loc := diagnostics.Location{Path: "a.scss", Line: 1, Column: 4}
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"syntax", diagnostics.NewSyntaxError(loc, "unterminated string"), diagnostics.ErrSyntax, "a.scss:2:5: unterminated string"},
		{"parse", diagnostics.NewParseError(loc, `"{"`, `";"`), diagnostics.ErrParse, `expected "{", found ";"`},
		{"resolution", diagnostics.NewResolutionError(loc, "missing", nil), diagnostics.ErrResolution, `cannot find stylesheet to import: "missing"`},
		{"ambiguous", diagnostics.NewResolutionError(loc, "x", []string{"x.scss", "_x.scss"}), diagnostics.ErrResolution, "not clear which file"},
		{"cycle", diagnostics.NewCyclicImportError(loc, []string{"a", "b", "a"}), diagnostics.ErrCyclicImport, "a → b → a"},
		{"undefined", diagnostics.NewUndefinedReferenceError(loc, "variable", "$x", "global"), diagnostics.ErrUndefinedReference, "undefined variable $x in global"},
		{"unit", diagnostics.NewUnitError("%s and %s are incompatible", "1px", "1deg"), diagnostics.ErrUnit, "1px and 1deg are incompatible"},
		{"not found", diagnostics.NewNotFoundError("/x/_a.scss"), diagnostics.ErrNotFound, "/x/_a.scss: no such file"},
		{"recursion", diagnostics.NewRecursionLimitError("loop", 100), diagnostics.ErrRecursionLimit, "maximum call depth of 100"},
		{"argument", diagnostics.NewArgumentError("$color: 1 is not a color"), diagnostics.ErrArgument, "is not a color"},
		{"user", diagnostics.NewUserError(loc, "boom"), diagnostics.ErrUser, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Contains(t, tt.err.Error(), tt.contains)

			wrapped := fmt.Errorf("compile failed: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestLocateOnlyFillsMissingLocations(t *testing.T) {
	err := diagnostics.NewUnitError("1px + 1deg")
	_, ok := diagnostics.LocationOf(err)
	assert.False(t, ok)

	first := fixedLocator{Path: "a.scss", Line: 2, Column: 3}
	err = diagnostics.Locate(err, first)
	loc, ok := diagnostics.LocationOf(err)
	require.True(t, ok)
	assert.Equal(t, 2, loc.Line)

	second := fixedLocator{Path: "b.scss", Line: 9}
	err = diagnostics.Locate(err, second)
	loc, _ = diagnostics.LocationOf(err)
	assert.Equal(t, "a.scss", loc.Path, "an existing location must not be overwritten")

	var unitErr *diagnostics.UnitError
	require.True(t, errors.As(err, &unitErr))
	assert.Equal(t, "a.scss:3:4: 1px + 1deg", unitErr.Error())
}

func TestLocateIgnoresForeignErrors(t *testing.T) {
	plain := errors.New("plain")
	assert.Equal(t, plain, diagnostics.Locate(plain, fixedLocator{Path: "a"}))
	assert.Nil(t, diagnostics.Locate(nil, fixedLocator{Path: "a"}))
}

func TestRender(t *testing.T) {
	source := "a {\n  color: $x;\n}"
	err := diagnostics.NewUndefinedReferenceError(diagnostics.Location{
		Path: "a.scss", Line: 1, Column: 9, Offset: 13, End: 15,
	}, "variable", "$x", "")

	out := diagnostics.Render(err, source)
	assert.Equal(t, "a.scss:2:10: undefined variable $x\n  |   color: $x;\n  |          ^^", out)

	t.Run("without location", func(t *testing.T) {
		assert.Equal(t, "plain", diagnostics.Render(errors.New("plain"), source))
	})
}
