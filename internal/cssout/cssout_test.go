package cssout_test

import (
	"testing"

	"bennypowers.dev/scssc/internal/cssout"
	"bennypowers.dev/scssc/internal/value"
	"github.com/stretchr/testify/assert"
)

func decl(name string) *cssout.Declaration {
	return &cssout.Declaration{Name: name, Value: value.NewNumber(0, "")}
}

func TestIsInvisible(t *testing.T) {
	tests := []struct {
		name string
		node cssout.Node
		want bool
	}{
		{"empty rule", &cssout.StyleRule{Selectors: []string{".a"}}, true},
		{"rule with declaration", &cssout.StyleRule{Selectors: []string{".a"}, Children: []cssout.Node{decl("top")}}, false},
		{"rule without selectors", &cssout.StyleRule{Children: []cssout.Node{decl("top")}}, true},
		{"rule with comment", &cssout.StyleRule{Selectors: []string{".a"}, Children: []cssout.Node{&cssout.Comment{Text: "/* x */"}}}, false},
		{"media of empty rules", &cssout.AtRule{Name: "media", Params: "print", HasBlock: true, Children: []cssout.Node{
			&cssout.StyleRule{Selectors: []string{".a"}},
		}}, true},
		{"empty media", &cssout.AtRule{Name: "media", Params: "print", HasBlock: true}, true},
		{"media with content", &cssout.AtRule{Name: "supports", Params: "(display: grid)", HasBlock: true, Children: []cssout.Node{
			&cssout.StyleRule{Selectors: []string{".a"}, Children: []cssout.Node{decl("display")}},
		}}, false},
		{"empty font-face", &cssout.AtRule{Name: "font-face", HasBlock: true}, false},
		{"blockless at-rule", &cssout.AtRule{Name: "media", Params: "x"}, false},
		{"import", &cssout.Import{URL: `"a.css"`}, false},
		{"comment", &cssout.Comment{Text: "/* x */"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cssout.IsInvisible(tt.node))
		})
	}
}

func TestCommentPreserved(t *testing.T) {
	assert.True(t, (&cssout.Comment{Text: "/*! license */"}).Preserved())
	assert.False(t, (&cssout.Comment{Text: "/* note */"}).Preserved())
	assert.False(t, (&cssout.Comment{Text: "/*"}).Preserved())
}

func TestWalk(t *testing.T) {
	inner := &cssout.StyleRule{Selectors: []string{".b"}, Children: []cssout.Node{decl("color")}}
	media := &cssout.AtRule{Name: "media", Params: "print", HasBlock: true, Children: []cssout.Node{inner}}
	sheet := &cssout.Stylesheet{}
	sheet.AddChild(&cssout.Comment{Text: "/* top */"})
	sheet.AddChild(media)

	var seen []string
	cssout.Walk(sheet.Children, func(n cssout.Node) bool {
		switch n := n.(type) {
		case *cssout.Comment:
			seen = append(seen, "comment")
		case *cssout.AtRule:
			seen = append(seen, "@"+n.Name)
		case *cssout.StyleRule:
			seen = append(seen, n.Selectors[0])
		case *cssout.Declaration:
			seen = append(seen, n.Name)
		}
		return true
	})
	assert.Equal(t, []string{"comment", "@media", ".b", "color"}, seen)

	seen = nil
	cssout.Walk(sheet.Children, func(n cssout.Node) bool {
		if r, ok := n.(*cssout.AtRule); ok {
			seen = append(seen, r.Name)
			return false
		}
		return true
	})
	assert.Equal(t, []string{"media"}, seen)
}
