package evaluator

import (
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/cssout"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/value"
)

// exec runs statements in order. A non-nil value is the result of a
// @return and stops execution.
func (e *evaluator) exec(stmts []ast.Statement) (value.Value, error) {
	for _, stmt := range stmts {
		ret, err := e.execStatement(stmt)
		if err != nil || ret != nil {
			return ret, err
		}
	}
	return nil, nil
}

func (e *evaluator) execStatement(stmt ast.Statement) (value.Value, error) {
	switch n := stmt.(type) {
	case *ast.StyleRule:
		return nil, e.execStyleRule(n)
	case *ast.Declaration:
		return nil, e.execDeclaration(n)
	case *ast.VariableDecl:
		return nil, e.execVariableDecl(n)
	case *ast.MixinDef:
		e.scope.defineMixin(&callable{
			name:       n.Name,
			params:     n.Params,
			body:       n.Body,
			closure:    e.scope,
			env:        e.env,
			hasContent: n.HasContent,
			mixin:      true,
		})
		return nil, nil
	case *ast.FunctionDef:
		e.scope.defineFunction(&callable{
			name:    n.Name,
			params:  n.Params,
			body:    n.Body,
			closure: e.scope,
			env:     e.env,
		})
		return nil, nil
	case *ast.ReturnRule:
		if !e.inFunction {
			return nil, errorf(n, "@return may only be used within a function.")
		}
		v, err := e.eval(n.Value)
		if err != nil {
			return nil, err
		}
		return value.WithoutSlash(v), nil
	case *ast.IncludeRule:
		return nil, e.execInclude(n)
	case *ast.ContentRule:
		return nil, e.execContent(n)
	case *ast.IfRule:
		return e.execIf(n)
	case *ast.EachRule:
		return e.execEach(n)
	case *ast.ForRule:
		return e.execFor(n)
	case *ast.WhileRule:
		return e.execWhile(n)
	case *ast.ImportRule:
		return nil, e.execImport(n)
	case *ast.UseRule:
		return nil, e.execUse(n)
	case *ast.ForwardRule:
		return nil, e.execForward(n)
	case *ast.ExtendRule:
		return nil, e.execExtend(n)
	case *ast.AtRootRule:
		return nil, e.execAtRoot(n)
	case *ast.MediaRule:
		return nil, e.execMedia(n)
	case *ast.SupportsRule:
		return nil, e.execSupports(n)
	case *ast.AtRule:
		return nil, e.execAtRule(n)
	case *ast.MessageRule:
		return nil, e.execMessage(n)
	case *ast.Comment:
		e.execComment(n)
		return nil, nil
	case *ast.Stylesheet:
		return e.exec(n.Children)
	}
	return nil, errorf(stmt, "unexpected statement %T", stmt)
}

func (e *evaluator) execStyleRule(rule *ast.StyleRule) error {
	if e.inFunction {
		return errorf(rule, "Style rules may not be used within functions.")
	}
	text, err := e.interpolate(rule.Selector)
	if err != nil {
		return err
	}

	var selectors []string
	if e.inKeyframes {
		selectors = splitSelectorList(text)
	} else {
		selectors, err = nestSelectors(e.selectors, splitSelectorList(text))
		if err != nil {
			return e.located(err, rule.Selector)
		}
	}

	out := &cssout.StyleRule{Selectors: selectors, Span: rule.Span}
	e.container.AddChild(out)

	saved := e.saveOutput()
	scope := e.scope
	e.styleRule, e.selectors, e.declPrefix = out, selectors, ""
	e.scope = e.scope.Child()
	_, err = e.exec(rule.Children)
	e.scope = scope
	e.restoreOutput(saved)
	return err
}

func (e *evaluator) execDeclaration(decl *ast.Declaration) error {
	name, err := e.interpolate(decl.Name)
	if err != nil {
		return err
	}
	if e.declPrefix != "" {
		name = e.declPrefix + "-" + name
	}
	target, ok := e.declTarget()
	if !ok {
		return errorf(decl, "Declarations may only be used within style rules.")
	}

	if decl.Value != nil {
		v, err := e.eval(decl.Value)
		if err != nil {
			return err
		}
		if decl.Custom {
			v = value.Unquoted(strings.TrimSpace(value.Text(v)))
		}
		text, err := v.CSS(false)
		if err != nil {
			return e.located(err, decl.Value)
		}
		if text != "" || decl.Custom {
			target.AddChild(&cssout.Declaration{Name: name, Value: v, Custom: decl.Custom, Span: decl.Span})
		}
	}

	if len(decl.Children) > 0 {
		prefix, scope := e.declPrefix, e.scope
		e.declPrefix = name
		e.scope = e.scope.Child()
		_, err := e.exec(decl.Children)
		e.declPrefix, e.scope = prefix, scope
		return err
	}
	return nil
}

func (e *evaluator) execVariableDecl(decl *ast.VariableDecl) error {
	if decl.Namespace != "" {
		m, err := e.env.namespace(decl.Namespace, decl)
		if err != nil {
			return err
		}
		s, ok := m.variableScope(decl.Name)
		if !ok {
			return diagnostics.NewUndefinedReferenceError(decl.Span.Location(), "variable", "$"+decl.Name, "module "+decl.Namespace)
		}
		if decl.Default && !value.IsNull(s.vars[normalizeName(decl.Name)]) {
			return nil
		}
		v, err := e.eval(decl.Value)
		if err != nil {
			return err
		}
		s.Declare(decl.Name, value.WithoutSlash(v))
		return nil
	}

	if decl.Default {
		if config := e.env.inst.config; config != nil && (e.scope.IsGlobal() || decl.Global) {
			if cv, ok := config.values[normalizeName(decl.Name)]; ok {
				cv.used = true
				e.scope.Assign(decl.Name, cv.value, decl.Global)
				return nil
			}
		}
		if existing, ok := e.scope.Resolve(decl.Name, decl.Global); ok && !value.IsNull(existing) {
			return nil
		}
	}

	v, err := e.eval(decl.Value)
	if err != nil {
		return err
	}
	v = value.WithoutSlash(v)

	// assigning a variable of a module used `as *` writes the module
	if !decl.Global && e.scope.IsGlobal() {
		if _, local := e.scope.vars[normalizeName(decl.Name)]; !local {
			for _, f := range e.env.starUses {
				if inner, ok := f.member(normalizeName(decl.Name), true); ok {
					if s, ok := f.mod.variableScope(inner); ok {
						s.Declare(inner, v)
						return nil
					}
				}
			}
		}
	}
	e.scope.Assign(decl.Name, v, decl.Global)
	return nil
}

func (e *evaluator) execIf(rule *ast.IfRule) (value.Value, error) {
	for _, clause := range rule.Clauses {
		if clause.Condition != nil {
			cond, err := e.eval(clause.Condition)
			if err != nil {
				return nil, err
			}
			if !cond.Truthy() {
				continue
			}
		}
		return e.execFlow(clause.Body)
	}
	return nil, nil
}

// execFlow runs a flow-control body in a fresh flow-control scope
func (e *evaluator) execFlow(body []ast.Statement) (value.Value, error) {
	scope := e.scope
	e.scope = scope.FlowChild()
	defer func() { e.scope = scope }()
	return e.exec(body)
}

func (e *evaluator) execEach(rule *ast.EachRule) (value.Value, error) {
	list, err := e.eval(rule.List)
	if err != nil {
		return nil, err
	}
	for _, item := range value.Items(list) {
		scope := e.scope
		e.scope = scope.FlowChild()
		if len(rule.Variables) == 1 {
			e.scope.Declare(rule.Variables[0], item)
		} else {
			parts := value.Items(item)
			for i, name := range rule.Variables {
				if i < len(parts) {
					e.scope.Declare(name, parts[i])
				} else {
					e.scope.Declare(name, value.Null)
				}
			}
		}
		ret, err := e.exec(rule.Body)
		e.scope = scope
		if err != nil || ret != nil {
			return ret, err
		}
	}
	return nil, nil
}

func (e *evaluator) execFor(rule *ast.ForRule) (value.Value, error) {
	from, err := e.evalInt(rule.From)
	if err != nil {
		return nil, err
	}
	toValue, err := e.eval(rule.To)
	if err != nil {
		return nil, err
	}
	toNum, ok := toValue.(value.Number)
	if !ok {
		return nil, errorf(rule.To, "%s is not a number.", toValue.Inspect())
	}
	if !from.num.Unitless() && !toNum.Unitless() {
		converted, err := toNum.ConvertTo(from.num.Numer, from.num.Denom)
		if err != nil {
			return nil, e.located(err, rule.To)
		}
		toNum = converted
	}
	to, ok := toNum.Int()
	if !ok {
		return nil, errorf(rule.To, "%s is not an int.", toNum.Inspect())
	}

	step := 1
	if from.n > to {
		step = -1
	}
	end := to
	if rule.Inclusive {
		end += step
	}
	for i := from.n; i != end; i += step {
		scope := e.scope
		e.scope = scope.FlowChild()
		e.scope.Declare(rule.Variable, from.num.WithValue(float64(i)))
		ret, err := e.exec(rule.Body)
		e.scope = scope
		if err != nil || ret != nil {
			return ret, err
		}
	}
	return nil, nil
}

type intValue struct {
	n   int
	num value.Number
}

func (e *evaluator) evalInt(expr ast.Expression) (intValue, error) {
	v, err := e.eval(expr)
	if err != nil {
		return intValue{}, err
	}
	num, ok := v.(value.Number)
	if !ok {
		return intValue{}, errorf(expr, "%s is not a number.", v.Inspect())
	}
	n, ok := num.Int()
	if !ok {
		return intValue{}, errorf(expr, "%s is not an int.", num.Inspect())
	}
	return intValue{n: n, num: num.WithoutSlash()}, nil
}

func (e *evaluator) execWhile(rule *ast.WhileRule) (value.Value, error) {
	for {
		cond, err := e.eval(rule.Condition)
		if err != nil {
			return nil, err
		}
		if !cond.Truthy() {
			return nil, nil
		}
		ret, err := e.execFlow(rule.Body)
		if err != nil || ret != nil {
			return ret, err
		}
	}
}

func (e *evaluator) execAtRoot(rule *ast.AtRootRule) error {
	saved := e.saveOutput()
	defer e.restoreOutput(saved)
	parents := e.selectors
	e.styleRule, e.selectors, e.declPrefix = nil, nil, ""

	if rule.Selector == nil {
		_, err := e.exec(rule.Body)
		return err
	}

	text, err := e.interpolate(rule.Selector)
	if err != nil {
		return err
	}
	children := splitSelectorList(text)
	var selectors []string
	if anyParentRef(children) {
		selectors, err = nestSelectors(parents, children)
	} else {
		selectors, err = nestSelectors(nil, children)
	}
	if err != nil {
		return e.located(err, rule.Selector)
	}

	out := &cssout.StyleRule{Selectors: selectors, Span: rule.Span}
	e.container.AddChild(out)
	e.styleRule, e.selectors = out, selectors
	scope := e.scope
	e.scope = scope.Child()
	_, err = e.exec(rule.Body)
	e.scope = scope
	return err
}

// enterBlock makes node the container for nested output. Inside a style
// rule a copy of the rule is opened in node so declarations keep their
// selector.
func (e *evaluator) enterBlock(node *cssout.AtRule, span ast.Span) {
	e.container = node
	if e.selectors != nil && !e.inKeyframes {
		inner := &cssout.StyleRule{Selectors: e.selectors, Span: span}
		node.AddChild(inner)
		e.styleRule = inner
	} else {
		e.styleRule = nil
	}
}

func (e *evaluator) execMedia(rule *ast.MediaRule) error {
	text, err := e.interpolate(rule.Query)
	if err != nil {
		return err
	}
	queries := splitMediaQueries(text)
	parent := e.container
	if e.media != nil {
		queries = mergeMediaQueries(e.media, queries)
		if len(queries) == 0 {
			return nil
		}
		parent = e.mediaParent
	}

	node := &cssout.AtRule{Name: "media", Params: strings.Join(queries, ", "), HasBlock: true, Span: rule.Span}
	parent.AddChild(node)

	saved := e.saveOutput()
	defer e.restoreOutput(saved)
	if e.media == nil {
		e.mediaParent = e.container
	}
	e.media, e.mediaNode = queries, node
	e.enterBlock(node, rule.Span)
	_, err = e.exec(rule.Body)
	return err
}

func (e *evaluator) execSupports(rule *ast.SupportsRule) error {
	text, err := e.interpolate(rule.Condition)
	if err != nil {
		return err
	}
	node := &cssout.AtRule{Name: "supports", Params: collapseSpace(text), HasBlock: true, Span: rule.Span}
	e.container.AddChild(node)

	saved := e.saveOutput()
	defer e.restoreOutput(saved)
	e.enterBlock(node, rule.Span)
	_, err = e.exec(rule.Body)
	return err
}

func (e *evaluator) execAtRule(rule *ast.AtRule) error {
	params, err := e.interpolate(rule.Params)
	if err != nil {
		return err
	}
	node := &cssout.AtRule{Name: rule.Name, Params: collapseSpace(params), Span: rule.Span}
	if rule.Body == nil {
		if target, ok := e.declTarget(); ok {
			target.AddChild(node)
		} else {
			e.container.AddChild(node)
		}
		return nil
	}

	node.HasBlock = true
	e.container.AddChild(node)
	saved := e.saveOutput()
	defer e.restoreOutput(saved)
	if isKeyframes(rule.Name) {
		e.container = node
		e.inKeyframes = true
		e.styleRule, e.selectors = nil, nil
	} else {
		e.enterBlock(node, rule.Span)
	}
	_, err = e.exec(rule.Body)
	return err
}

func isKeyframes(name string) bool {
	name = strings.ToLower(name)
	if strings.HasPrefix(name, "-") {
		if i := strings.IndexByte(name[1:], '-'); i >= 0 {
			name = name[i+2:]
		}
	}
	return name == "keyframes"
}

func (e *evaluator) execMessage(rule *ast.MessageRule) error {
	v, err := e.eval(rule.Value)
	if err != nil {
		return err
	}
	text := v.Inspect()
	if s, ok := v.(value.String); ok {
		text = s.Text
	}

	switch rule.Kind {
	case ast.MessageDebug:
		e.opts.Logger.Debug(text, DebugOptions{Location: rule.Span.Location()})
	case ast.MessageWarn:
		if e.opts.QuietDeps && e.env.src.FromLoadPath {
			return nil
		}
		e.opts.Logger.Warn(text, WarnOptions{Location: rule.Span.Location(), Stack: e.stackTrace()})
	case ast.MessageError:
		return diagnostics.NewUserError(rule.Span.Location(), text)
	}
	return nil
}

func (e *evaluator) execComment(c *ast.Comment) {
	if e.inFunction {
		return
	}
	node := &cssout.Comment{Text: c.Text, Span: c.Span}
	if e.styleRule != nil {
		e.styleRule.AddChild(node)
		return
	}
	e.container.AddChild(node)
}
