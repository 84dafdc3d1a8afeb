package collections_test

import (
	"sort"
	"testing"

	"bennypowers.dev/scssc/internal/collections"
	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	t.Run("deduplicates", func(t *testing.T) {
		s := collections.NewSet("a", "b", "a")
		assert.Len(t, s, 2)
		assert.True(t, s.Has("a"))
		assert.False(t, s.Has("c"))
	})

	t.Run("empty set is usable", func(t *testing.T) {
		s := collections.NewSet[int]()
		s.Add(1)
		assert.True(t, s.Has(1))
	})

	t.Run("delete", func(t *testing.T) {
		s := collections.NewSet("a", "b", "c")
		s.Delete("b", "missing")
		assert.False(t, s.Has("b"))
		assert.Len(t, s, 2)
	})

	t.Run("has all", func(t *testing.T) {
		s := collections.NewSet(".a", ".b", ":hover")
		assert.True(t, s.HasAll(".a", ":hover"))
		assert.True(t, s.HasAll())
		assert.False(t, s.HasAll(".a", ".c"))
	})

	t.Run("clone is independent", func(t *testing.T) {
		s := collections.NewSet("x")
		c := s.Clone()
		c.Add("y")
		assert.False(t, s.Has("y"))
		assert.True(t, c.Has("x"))
	})

	t.Run("members", func(t *testing.T) {
		got := collections.NewSet("b", "a", "c").Members()
		sort.Strings(got)
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("pointer members", func(t *testing.T) {
		type ext struct{ target string }
		a, b := &ext{"a"}, &ext{"a"}
		s := collections.NewSet(a)
		assert.True(t, s.Has(a))
		assert.False(t, s.Has(b), "identity, not equality")
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "[only]", collections.NewSet("only").String())
	})
}
