package css

// VariableType represents the type of CSS variable construct
type VariableType int

const (
	// VariableDeclaration represents a CSS custom property declaration (--var-name: value)
	VariableDeclaration VariableType = iota
	// VarReference represents a var() function call
	VarReference
)

// Position is a 0-based line and UTF-16 column in the parsed text
type Position struct {
	Line      uint32
	Character uint32
}

// Range represents a range in a text document
type Range struct {
	Start Position
	End   Position
}

// Declaration is one property: value pair
type Declaration struct {
	Property string
	Value    string
	Range    Range
}

// Rule is a qualified rule: a selector list and its declarations
type Rule struct {
	Selectors    []string
	Declarations []*Declaration
	Range        Range
	// AtRules lists the enclosing at-rule keywords, outermost first
	AtRules []string
}

// Variable represents a CSS custom property declaration
type Variable struct {
	Name  string
	Value string
	Type  VariableType
	Range Range
}

// VarCall represents a var() function call
type VarCall struct {
	Name     string
	Fallback *string // Optional fallback value
	Type     VariableType
	Range    Range
}

// Issue is a syntax problem tree-sitter recovered from
type Issue struct {
	// Missing is set when the parser inserted a token that was absent
	Missing bool
	Text    string
	Range   Range
}

func (i Issue) String() string {
	kind := "unexpected"
	if i.Missing {
		kind = "missing"
	}
	return kind + " " + quoteIssue(i.Text) + " at " + formatPosition(i.Range.Start)
}

// ParseResult contains the results of parsing CSS
type ParseResult struct {
	Rules     []*Rule
	Variables []*Variable
	VarCalls  []*VarCall
	Issues    []Issue
}
