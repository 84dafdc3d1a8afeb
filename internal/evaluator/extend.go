package evaluator

import (
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/collections"
	"bennypowers.dev/scssc/internal/cssout"
	"bennypowers.dev/scssc/internal/diagnostics"
)

// extension is one `@extend target` recorded while evaluating a style rule
// with the selectors in extenders
type extension struct {
	target    []string
	extenders []string
	// media is the @media block the @extend appeared in. Extensions only
	// apply to rules in the same block.
	media    *cssout.AtRule
	optional bool
	span     ast.Span
	matched  bool
}

func (x *extension) targetText() string {
	return strings.Join(x.target, "")
}

func (e *evaluator) execExtend(rule *ast.ExtendRule) error {
	if e.styleRule == nil || e.selectors == nil {
		return errorf(rule, "@extend may only be used within style rules.")
	}
	text, err := e.interpolate(rule.Selector)
	if err != nil {
		return err
	}
	for _, target := range splitSelectorList(text) {
		if len(splitComplex(target)) != 1 {
			return errorf(rule, "complex selectors may not be extended.")
		}
		e.extends = append(e.extends, &extension{
			target:    splitCompound(target),
			extenders: e.selectors,
			media:     e.mediaNode,
			optional:  rule.Optional,
			span:      rule.Span,
		})
	}
	return nil
}

// applyExtends rewrites every style rule's selector list with the
// selectors produced by recorded extensions, then drops placeholder
// selectors. Selectors derived through an extension are never extended by
// it again, so the rewrite always terminates.
func (e *evaluator) applyExtends() error {
	if len(e.extends) > 0 {
		e.extendNodes(e.root.Children, nil)
		for _, x := range e.extends {
			if !x.matched && !x.optional {
				return diagnostics.NewUndefinedReferenceError(x.span.Location(), "selector", x.targetText(), "")
			}
		}
	}
	cssout.Walk(e.root.Children, func(n cssout.Node) bool {
		if r, ok := n.(*cssout.StyleRule); ok {
			kept := r.Selectors[:0]
			for _, sel := range r.Selectors {
				if !isPlaceholder(sel) {
					kept = append(kept, sel)
				}
			}
			r.Selectors = kept
		}
		return true
	})
	return nil
}

func (e *evaluator) extendNodes(nodes []cssout.Node, media *cssout.AtRule) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *cssout.StyleRule:
			n.Selectors = e.extendSelectors(n.Selectors, media)
		case *cssout.AtRule:
			if isKeyframes(n.Name) {
				continue
			}
			inner := media
			if n.Name == "media" {
				inner = n
			}
			e.extendNodes(n.Children, inner)
		}
	}
}

type derived struct {
	sel  string
	used collections.Set[*extension]
}

func (e *evaluator) extendSelectors(selectors []string, media *cssout.AtRule) []string {
	seen := collections.NewSet[string]()
	out := make([]string, 0, len(selectors))
	var work []derived
	for _, sel := range selectors {
		if seen.Has(sel) {
			continue
		}
		seen.Add(sel)
		out = append(out, sel)
		work = append(work, derived{sel: sel, used: collections.NewSet[*extension]()})
	}
	for len(work) > 0 {
		d := work[0]
		work = work[1:]
		for _, x := range e.extends {
			if d.used.Has(x) || (x.media != nil && x.media != media) {
				continue
			}
			for _, ext := range x.extenders {
				sel, ok := extendComplex(d.sel, x.target, ext)
				if !ok {
					continue
				}
				x.matched = true
				if seen.Has(sel) {
					continue
				}
				seen.Add(sel)
				out = append(out, sel)
				used := d.used.Clone()
				used.Add(x)
				work = append(work, derived{sel: sel, used: used})
			}
		}
	}
	return out
}

// extendComplex replaces the first compound of sel containing every simple
// selector of target with the extender. The extender's leading compounds
// are placed before the matched compound.
func extendComplex(sel string, target []string, extender string) (string, bool) {
	parts := splitComplex(sel)
	for i, compound := range parts {
		if isCombinatorPart(compound) {
			continue
		}
		rest, ok := removeSimples(splitCompound(compound), target)
		if !ok {
			continue
		}
		extParts := splitComplex(extender)
		last := extParts[len(extParts)-1]
		unified, ok := unifyCompound(splitCompound(last), rest)
		if !ok {
			return "", false
		}
		out := make([]string, 0, len(parts)+len(extParts))
		out = append(out, parts[:i]...)
		out = append(out, extParts[:len(extParts)-1]...)
		out = append(out, unified)
		out = append(out, parts[i+1:]...)
		return strings.Join(out, " "), true
	}
	return "", false
}

func isCombinatorPart(part string) bool {
	return len(part) == 1 && isCombinator(part[0])
}

// removeSimples returns compound without the target simples, or false if
// compound does not contain all of them
func removeSimples(compound, target []string) ([]string, bool) {
	if !collections.NewSet(compound...).HasAll(target...) {
		return nil, false
	}
	drop := collections.NewSet(target...)
	var rest []string
	for _, s := range compound {
		if !drop.Has(s) {
			rest = append(rest, s)
		}
	}
	return rest, true
}

// unifyCompound merges the extender's simple selectors into what remains
// of the matched compound. A type selector goes first and pseudo selectors
// last; two different type selectors cannot be unified.
func unifyCompound(extender, rest []string) (string, bool) {
	var typ string
	var simples, pseudos []string
	seen := collections.NewSet[string]()
	for _, s := range append(append([]string(nil), rest...), extender...) {
		if seen.Has(s) {
			continue
		}
		seen.Add(s)
		switch {
		case isTypeSelector(s):
			switch {
			case typ == "" || typ == "*":
				typ = s
			case s != "*" && !strings.EqualFold(s, typ):
				return "", false
			}
		case strings.HasPrefix(s, ":"):
			pseudos = append(pseudos, s)
		default:
			simples = append(simples, s)
		}
	}
	// pseudo-elements must come after pseudo-classes
	var classes, elements []string
	for _, p := range pseudos {
		if isPseudoElement(p) {
			elements = append(elements, p)
		} else {
			classes = append(classes, p)
		}
	}
	if typ == "*" && len(simples)+len(pseudos) > 0 {
		typ = ""
	}
	return typ + strings.Join(simples, "") + strings.Join(classes, "") + strings.Join(elements, ""), true
}
