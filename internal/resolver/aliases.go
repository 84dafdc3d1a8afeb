package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"bennypowers.dev/scssc/internal/value"
)

// designToken is the part of a parsed design token the importer needs
type designToken struct {
	Name  string
	Value string
	Type  string
}

// curlyBraceReference matches {group.token} alias references
var curlyBraceReference = regexp.MustCompile(`\{([^{}]+)\}`)

// extractDependencies returns the names of the tokens a value refers to,
// either through {a.b} aliases or a #/a/b JSON pointer
func extractDependencies(v string) []string {
	var deps []string
	if strings.HasPrefix(v, "#/") {
		return []string{strings.ReplaceAll(strings.TrimPrefix(v, "#/"), "/", "-")}
	}
	for _, match := range curlyBraceReference.FindAllStringSubmatch(v, -1) {
		deps = append(deps, strings.ReplaceAll(match[1], ".", "-"))
	}
	return deps
}

// variableName is the Sass variable a token is exposed as
func variableName(prefix, name string) string {
	name = strings.ReplaceAll(name, ".", "-")
	if prefix != "" {
		return prefix + "-" + name
	}
	return name
}

// tokenExpression rewrites a token value as SassScript, turning aliases
// into variable references
func tokenExpression(prefix, v string) string {
	if strings.HasPrefix(v, "#/") {
		return "$" + variableName(prefix, extractDependencies(v)[0])
	}
	v = curlyBraceReference.ReplaceAllStringFunc(v, func(ref string) string {
		return "$" + variableName(prefix, ref[1:len(ref)-1])
	})
	if v == "" || strings.ContainsAny(v, ";{}\n") {
		return value.QuoteString(v)
	}
	return v
}

// tokensStylesheet renders tokens as SCSS variable declarations in alias
// dependency order, followed by a $tokens map of every token.
func tokensStylesheet(tokens []designToken, prefix string) (string, error) {
	graph := NewDependencyGraph()
	byName := make(map[string]designToken, len(tokens))
	for _, tok := range tokens {
		graph.AddNode(tok.Name)
		byName[tok.Name] = tok
	}
	for _, tok := range tokens {
		for _, dep := range extractDependencies(tok.Value) {
			graph.AddEdge(tok.Name, dep)
		}
	}

	sorted, err := graph.TopologicalSort()
	if err != nil {
		if cycle, ok := err.(*ErrCycle); ok {
			return "", fmt.Errorf("circular token reference: %s", strings.Join(cycle.Cycle, " → "))
		}
		return "", err
	}

	var b strings.Builder
	for _, name := range sorted {
		tok, ok := byName[name]
		if !ok {
			return "", fmt.Errorf("reference to non-existent token: %s (used by %s)",
				name, strings.Join(graph.GetDependents(name), ", "))
		}
		variable := variableName(prefix, tok.Name)
		expr := tokenExpression(prefix, tok.Value)
		if tok.Type == "string" && len(extractDependencies(tok.Value)) == 0 {
			expr = value.QuoteString(tok.Value)
		}
		fmt.Fprintf(&b, "$%s: %s !default;\n", variable, expr)
	}

	b.WriteString("$tokens: (")
	for i, tok := range tokens {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "\n  %s: $%s", value.QuoteString(tok.Name), variableName(prefix, tok.Name))
	}
	if len(tokens) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(");\n")
	return b.String(), nil
}
