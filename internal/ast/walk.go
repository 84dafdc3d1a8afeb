package ast

// Children returns the nested statements of a statement, if any. Content
// blocks and every clause of an @if rule are included.
func Children(stmt Statement) []Statement {
	switch n := stmt.(type) {
	case *Stylesheet:
		return n.Children
	case *StyleRule:
		return n.Children
	case *Declaration:
		return n.Children
	case *MixinDef:
		return n.Body
	case *FunctionDef:
		return n.Body
	case *IncludeRule:
		if n.Content != nil {
			return n.Content.Body
		}
	case *IfRule:
		var out []Statement
		for _, c := range n.Clauses {
			out = append(out, c.Body...)
		}
		return out
	case *EachRule:
		return n.Body
	case *ForRule:
		return n.Body
	case *WhileRule:
		return n.Body
	case *AtRootRule:
		return n.Body
	case *MediaRule:
		return n.Body
	case *SupportsRule:
		return n.Body
	case *AtRule:
		return n.Body
	}
	return nil
}

// Walk visits statements depth-first in source order. Children of a
// statement are visited only when fn returns true for it.
func Walk(stmts []Statement, fn func(Statement) bool) {
	for _, s := range stmts {
		if fn(s) {
			Walk(Children(s), fn)
		}
	}
}
