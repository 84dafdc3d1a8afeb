// Package css reads plain CSS with tree-sitter. The compiler uses it to
// check its own output: every rule, declaration and var() call is reported
// with its range, along with any syntax errors the grammar recovered from.
package css

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"bennypowers.dev/scssc/internal/position"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
)

// Parser handles parsing CSS with tree-sitter
type Parser struct {
	parser *sitter.Parser
}

var cssLang = sitter.NewLanguage(tree_sitter_css.Language())

// parserPool is a pool of reusable CSS parsers
var parserPool = sync.Pool{
	New: func() any {
		return NewParser()
	},
}

// NewParser creates a new CSS parser outside the pool
func NewParser() *Parser {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(cssLang); err != nil {
		panic(fmt.Sprintf("failed to set CSS language: %v", err))
	}
	return &Parser{parser: parser}
}

// AcquireParser gets a parser from the pool
func AcquireParser() *Parser {
	p := parserPool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Close closes the parser and releases its resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// Validate parses source with a pooled parser and returns its syntax issues
func Validate(source string) ([]Issue, error) {
	p := AcquireParser()
	defer ReleaseParser(p)
	result, err := p.Parse(source)
	if err != nil {
		return nil, err
	}
	return result.Issues, nil
}

// walker carries the state of one Parse call
type walker struct {
	source  []byte
	file    *position.File
	result  *ParseResult
	atRules []string
}

// Parse parses CSS code and extracts rules, custom properties, var() calls
// and syntax issues
func (p *Parser) Parse(source string) (*ParseResult, error) {
	src := []byte(source)
	tree := p.parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse CSS")
	}
	defer tree.Close()

	w := &walker{
		source: src,
		file:   position.NewFile("", "", source),
		result: &ParseResult{
			Rules:     []*Rule{},
			Variables: []*Variable{},
			VarCalls:  []*VarCall{},
		},
	}
	w.walk(tree.RootNode())
	return w.result, nil
}

func (w *walker) text(node *sitter.Node) string {
	return string(w.source[node.StartByte():node.EndByte()])
}

// position converts a byte offset to a line and UTF-16 column
func (w *walker) position(offset uint) Position {
	line, col := w.file.UTF16Position(int(offset))
	return Position{Line: uint32(line), Character: uint32(col)}
}

func (w *walker) rangeOf(node *sitter.Node) Range {
	return Range{Start: w.position(node.StartByte()), End: w.position(node.EndByte())}
}

// walk recursively visits the tree
func (w *walker) walk(node *sitter.Node) {
	if node == nil {
		return
	}

	kind := node.Kind()
	switch {
	case node.IsMissing():
		w.result.Issues = append(w.result.Issues, Issue{Missing: true, Text: kind, Range: w.rangeOf(node)})
		return
	case node.IsError():
		w.result.Issues = append(w.result.Issues, Issue{Text: w.text(node), Range: w.rangeOf(node)})
		return
	case kind == "rule_set" || kind == "keyframe_block":
		w.handleRule(node)
	case kind == "declaration":
		w.handleDeclaration(node)
	case kind == "call_expression":
		w.handleCallExpression(node)
	case kind == "at_rule" || strings.HasSuffix(kind, "_statement"):
		if node.ChildCount() > 0 {
			w.atRules = append(w.atRules, w.text(node.Child(0)))
			defer func() { w.atRules = w.atRules[:len(w.atRules)-1] }()
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

// handleRule records a rule set or keyframe block. Declarations are added
// to it as the walk reaches them.
func (w *walker) handleRule(node *sitter.Node) {
	rule := &Rule{
		Declarations: []*Declaration{},
		Range:        w.rangeOf(node),
		AtRules:      append([]string(nil), w.atRules...),
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "selectors":
			for j := uint(0); j < child.ChildCount(); j++ {
				sel := child.Child(j)
				if sel.Kind() == "," {
					continue
				}
				rule.Selectors = append(rule.Selectors, strings.TrimSpace(w.text(sel)))
			}
		case "from", "to", "integer_value", "float_value":
			rule.Selectors = append(rule.Selectors, w.text(child))
		}
	}
	w.result.Rules = append(w.result.Rules, rule)
}

// handleDeclaration processes a CSS declaration node
func (w *walker) handleDeclaration(node *sitter.Node) {
	var propertyNode *sitter.Node
	valueStart := node.EndByte()
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "property_name":
			propertyNode = child
		case ":":
			valueStart = child.EndByte()
		}
	}
	if propertyNode == nil {
		return
	}

	property := w.text(propertyNode)
	value := string(w.source[valueStart:node.EndByte()])
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), ";"))

	decl := &Declaration{Property: property, Value: value, Range: w.rangeOf(node)}
	if n := len(w.result.Rules); n > 0 && contains(w.result.Rules[n-1].Range, decl.Range) {
		w.result.Rules[n-1].Declarations = append(w.result.Rules[n-1].Declarations, decl)
	}

	// Only custom properties (starting with --) are variables
	if strings.HasPrefix(property, "--") {
		w.result.Variables = append(w.result.Variables, &Variable{
			Name:  property,
			Value: value,
			Type:  VariableDeclaration,
			Range: decl.Range,
		})
	}
}

// handleCallExpression processes a function call expression (looking for var())
func (w *walker) handleCallExpression(node *sitter.Node) {
	var functionNameNode, argumentsNode *sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "function_name":
			functionNameNode = child
		case "arguments":
			argumentsNode = child
		}
	}
	if functionNameNode == nil || argumentsNode == nil || w.text(functionNameNode) != "var" {
		return
	}

	// The first argument is the property name; everything after the first
	// comma is the fallback
	var name string
	var fallback *string
	for i := uint(0); i < argumentsNode.ChildCount(); i++ {
		child := argumentsNode.Child(i)
		switch child.Kind() {
		case "(", ")":
			continue
		case ",":
			if fallback == nil {
				end := argumentsNode.EndByte() - 1
				fb := strings.TrimSpace(string(w.source[child.EndByte():end]))
				fallback = &fb
			}
			continue
		}
		if name == "" {
			name = strings.TrimSpace(w.text(child))
		}
	}
	if name == "" {
		return
	}

	w.result.VarCalls = append(w.result.VarCalls, &VarCall{
		Name:     name,
		Fallback: fallback,
		Type:     VarReference,
		Range:    w.rangeOf(node),
	})
}

func contains(outer, inner Range) bool {
	return !before(inner.Start, outer.Start) && !before(outer.End, inner.End)
}

func before(a, b Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}

func formatPosition(p Position) string {
	return strconv.Itoa(int(p.Line)+1) + ":" + strconv.Itoa(int(p.Character)+1)
}

func quoteIssue(text string) string {
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return strconv.Quote(text)
}
