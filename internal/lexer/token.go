package lexer

import "fmt"

// Kind identifies the type of a lexical token
type Kind int

const (
	EOF Kind = iota
	Whitespace
	LineComment
	BlockComment

	Ident       // color, -webkit-box, --custom
	Variable    // $name
	Number      // 12, 1.5em, 50%
	String      // "a" or 'a', Text includes the quotes
	Hash        // #fff, #main
	AtKeyword   // @media
	Placeholder // %name
	URL         // url(unquoted)
	Bang        // !important, !default, !global, !optional

	InterpStart // #{
	InterpEnd   // } closing an interpolation
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket

	Semicolon
	Colon
	Comma
	Dot
	Ellipsis
	Amp
	Plus
	Minus
	Star
	Slash
	Percent
	Eq     // ==
	NotEq  // !=
	Lt     // <
	LtEq   // <=
	Gt     // >
	GtEq   // >=
	Assign // =
	Tilde
	Pipe
	Caret
	Delim // any other single character allowed in selectors
)

var kindNames = [...]string{
	EOF:          "end of file",
	Whitespace:   "whitespace",
	LineComment:  "comment",
	BlockComment: "comment",
	Ident:        "identifier",
	Variable:     "variable",
	Number:       "number",
	String:       "string",
	Hash:         "hash",
	AtKeyword:    "at-rule",
	Placeholder:  "placeholder",
	URL:          "url",
	Bang:         "flag",
	InterpStart:  `"#{"`,
	InterpEnd:    `"}"`,
	LBrace:       `"{"`,
	RBrace:       `"}"`,
	LParen:       `"("`,
	RParen:       `")"`,
	LBracket:     `"["`,
	RBracket:     `"]"`,
	Semicolon:    `";"`,
	Colon:        `":"`,
	Comma:        `","`,
	Dot:          `"."`,
	Ellipsis:     `"..."`,
	Amp:          `"&"`,
	Plus:         `"+"`,
	Minus:        `"-"`,
	Star:         `"*"`,
	Slash:        `"/"`,
	Percent:      `"%"`,
	Eq:           `"=="`,
	NotEq:        `"!="`,
	Lt:           `"<"`,
	LtEq:         `"<="`,
	Gt:           `">"`,
	GtEq:         `">="`,
	Assign:       `"="`,
	Tilde:        `"~"`,
	Pipe:         `"|"`,
	Caret:        `"^"`,
	Delim:        "delimiter",
}

// String returns a human readable name for the kind, used in parse errors
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a lexical token. Offset is the byte offset of Text in the file.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
}

// End returns the byte offset just past the token
func (t Token) End() int {
	return t.Offset + len(t.Text)
}

// IsTrivia reports whether the token is whitespace or a comment
func (t Token) IsTrivia() bool {
	return t.Kind == Whitespace || t.Kind == LineComment || t.Kind == BlockComment
}

// Describe renders the token for error messages
func (t Token) Describe() string {
	switch t.Kind {
	case EOF, Whitespace:
		return t.Kind.String()
	case Ident, Variable, Number, String, Hash, AtKeyword, Placeholder, Bang, Delim:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
	return t.Kind.String()
}
