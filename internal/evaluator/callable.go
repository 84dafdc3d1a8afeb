package evaluator

import (
	"sort"
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/value"
)

// callable is a user-defined mixin or function, or a built-in function
type callable struct {
	name   string
	params *ast.ParameterList
	body   []ast.Statement
	// closure is the scope the callable was defined in
	closure    *Scope
	env        *fileEnv
	hasContent bool
	mixin      bool
	builtin    *builtinFunc
}

// callArgs are evaluated call-site arguments
type callArgs struct {
	positional []value.Value
	names      []string
	named      map[string]value.Value
	// sep is the separator of a spread list, used for the rest parameter
	sep value.Separator
}

func (a *callArgs) setNamed(name string, v value.Value) {
	name = normalizeName(name)
	if a.named == nil {
		a.named = make(map[string]value.Value)
	}
	if _, ok := a.named[name]; !ok {
		a.names = append(a.names, name)
	}
	a.named[name] = v
}

func (a *callArgs) take(name string) (value.Value, bool) {
	v, ok := a.named[name]
	if ok {
		delete(a.named, name)
	}
	return v, ok
}

// remainingNamed returns the named arguments not yet bound, in call order
func (a *callArgs) remainingNamed() *value.Map {
	m := value.NewMap()
	for _, name := range a.names {
		if v, ok := a.named[name]; ok {
			m = m.Set(value.Unquoted(name), v)
		}
	}
	return m
}

func (e *evaluator) evalArgs(list *ast.ArgumentList) (*callArgs, error) {
	args := &callArgs{sep: value.SepUndecided}
	if list == nil {
		return args, nil
	}
	for _, arg := range list.Args {
		v, err := e.eval(arg.Value)
		if err != nil {
			return nil, err
		}
		switch {
		case arg.Rest:
			if err := spread(args, v, arg.Value); err != nil {
				return nil, err
			}
		case arg.Name != "":
			args.setNamed(arg.Name, v)
		default:
			args.positional = append(args.positional, v)
		}
	}
	return args, nil
}

// spread expands `$args...`: maps become keyword arguments, lists become
// positional arguments and argument lists contribute both
func spread(args *callArgs, v value.Value, at ast.Node) error {
	switch l := v.(type) {
	case *value.Map:
		return spreadMap(args, l, at)
	case value.ArgList:
		args.positional = append(args.positional, l.Items...)
		args.sep = l.Sep
		if l.Keywords != nil {
			return spreadMap(args, l.Keywords, at)
		}
	case value.List:
		args.positional = append(args.positional, l.Items...)
		args.sep = l.Sep
	default:
		args.positional = append(args.positional, v)
	}
	return nil
}

func spreadMap(args *callArgs, m *value.Map, at ast.Node) error {
	vals := m.Values()
	for i, k := range m.Keys() {
		s, ok := k.(value.String)
		if !ok {
			return errorf(at, "Variable keyword argument map must have string keys.\n%s is not a string in %s.", k.Inspect(), m.Inspect())
		}
		args.setNamed(s.Text, vals[i])
	}
	return nil
}

// bindParams binds args into scope following params. Defaults are
// evaluated lazily in scope so they can refer to earlier parameters.
func (e *evaluator) bindParams(params *ast.ParameterList, args *callArgs, at ast.Node) error {
	var list []*ast.Parameter
	if params != nil {
		list = params.Params
	}
	pos := args.positional
	for i, p := range list {
		pname := normalizeName(p.Name)
		if p.Rest {
			var rest []value.Value
			if i < len(pos) {
				rest = pos[i:]
			}
			sep := args.sep
			if sep == value.SepUndecided {
				sep = value.SepComma
			}
			e.scope.Declare(pname, value.ArgList{
				List:     value.List{Items: rest, Sep: sep},
				Keywords: args.remainingNamed(),
			})
			args.named = nil
			pos = nil
			break
		}
		if i < len(pos) {
			if _, both := args.named[pname]; both {
				return errorf(at, "Argument $%s was passed both by position and by name.", p.Name)
			}
			e.scope.Declare(pname, value.WithoutSlash(pos[i]))
			continue
		}
		if v, ok := args.take(pname); ok {
			e.scope.Declare(pname, value.WithoutSlash(v))
			continue
		}
		if p.Default == nil {
			return errorf(at, "Missing argument $%s.", p.Name)
		}
		v, err := e.eval(p.Default)
		if err != nil {
			return err
		}
		e.scope.Declare(pname, value.WithoutSlash(v))
	}
	if len(pos) > len(list) && (len(list) == 0 || !list[len(list)-1].Rest) {
		return errorf(at, "Only %d argument%s allowed, but %d %s passed.",
			len(list), plural(len(list)), len(pos), wasWere(len(pos)))
	}
	if len(args.named) > 0 {
		names := make([]string, 0, len(args.named))
		for n := range args.named {
			names = append(names, "$"+n)
		}
		sort.Strings(names)
		return errorf(at, "No argument%s named %s.", plural(len(names)), strings.Join(names, ", "))
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func wasWere(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}

// callFunction invokes a function with evaluated arguments
func (e *evaluator) callFunction(fn *callable, args *callArgs, at ast.Node) (value.Value, error) {
	if fn.builtin != nil {
		vals, err := fn.builtin.bind(args, at)
		if err != nil {
			return nil, err
		}
		site := e.callSite
		e.callSite = at
		v, err := fn.builtin.fn(e, vals)
		e.callSite = site
		if err != nil {
			return nil, e.located(err, at)
		}
		return v, nil
	}

	if err := e.push(fn.name, at.GetSpan()); err != nil {
		return nil, err
	}
	defer e.pop()
	x := e.saveExec()
	defer e.restoreExec(x)
	e.scope = fn.closure.Child()
	e.env = fn.env
	e.content = nil
	e.inFunction = true

	if err := e.bindParams(fn.params, args, at); err != nil {
		return nil, err
	}
	ret, err := e.exec(fn.body)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, errorf(at, "Function %s finished without @return.", fn.name)
	}
	return ret, nil
}

func (e *evaluator) lookupVariable(ref *ast.VarRef) (value.Value, error) {
	if ref.Namespace != "" {
		m, err := e.env.namespace(ref.Namespace, ref)
		if err != nil {
			return nil, err
		}
		v, ok := m.variable(ref.Name)
		if !ok {
			return nil, diagnostics.NewUndefinedReferenceError(ref.Span.Location(), "variable", "$"+ref.Name, "module "+ref.Namespace)
		}
		return v, nil
	}
	if v, ok := e.scope.Lookup(ref.Name); ok {
		return v, nil
	}
	for _, f := range e.env.starUses {
		if inner, ok := f.member(normalizeName(ref.Name), true); ok {
			if v, ok := f.mod.variable(inner); ok {
				return v, nil
			}
		}
	}
	return nil, diagnostics.NewUndefinedReferenceError(ref.Span.Location(), "variable", "$"+ref.Name, e.scopeName())
}

// lookupFunction finds a user or built-in function. ok is false for an
// unknown function without a namespace, which is plain CSS.
func (e *evaluator) lookupFunction(ns, name string, at ast.Node) (*callable, bool, error) {
	if ns != "" {
		m, err := e.env.namespace(ns, at)
		if err != nil {
			return nil, false, err
		}
		fn, ok := m.function(name)
		if !ok {
			return nil, false, diagnostics.NewUndefinedReferenceError(at.GetSpan().Location(), "function", name, "module "+ns)
		}
		return fn, true, nil
	}
	if fn, ok := e.scope.lookupFunction(name); ok {
		return fn, true, nil
	}
	for _, f := range e.env.starUses {
		if inner, ok := f.member(normalizeName(name), false); ok {
			if fn, ok := f.mod.function(inner); ok {
				return fn, true, nil
			}
		}
	}
	if b, ok := globalFunctions[normalizeName(name)]; ok {
		return &callable{name: name, builtin: b}, true, nil
	}
	return nil, false, nil
}

func (e *evaluator) lookupMixin(ns, name string, at ast.Node) (*callable, error) {
	if ns != "" {
		m, err := e.env.namespace(ns, at)
		if err != nil {
			return nil, err
		}
		mx, ok := m.mixin(name)
		if !ok {
			return nil, diagnostics.NewUndefinedReferenceError(at.GetSpan().Location(), "mixin", name, "module "+ns)
		}
		return mx, nil
	}
	if mx, ok := e.scope.lookupMixin(name); ok {
		return mx, nil
	}
	for _, f := range e.env.starUses {
		if inner, ok := f.member(normalizeName(name), false); ok {
			if mx, ok := f.mod.mixin(inner); ok {
				return mx, nil
			}
		}
	}
	return nil, diagnostics.NewUndefinedReferenceError(at.GetSpan().Location(), "mixin", name, e.scopeName())
}

func (e *evaluator) execInclude(rule *ast.IncludeRule) error {
	mx, err := e.lookupMixin(rule.Namespace, rule.Name, rule)
	if err != nil {
		return err
	}
	args, err := e.evalArgs(rule.Args)
	if err != nil {
		return err
	}
	var content *contentBlock
	if rule.Content != nil {
		if !mx.hasContent {
			return errorf(rule, "Mixin %s doesn't accept a content block.", mx.name)
		}
		content = &contentBlock{block: rule.Content, scope: e.scope, env: e.env, outer: e.content}
	}

	if err := e.push(mx.name, rule.Span); err != nil {
		return err
	}
	defer e.pop()
	x := e.saveExec()
	defer e.restoreExec(x)
	e.scope = mx.closure.Child()
	e.env = mx.env
	e.content = content
	e.inMixin = true

	if err := e.bindParams(mx.params, args, rule); err != nil {
		return err
	}
	_, err = e.exec(mx.body)
	return err
}

func (e *evaluator) execContent(rule *ast.ContentRule) error {
	c := e.content
	if c == nil {
		return nil
	}
	args, err := e.evalArgs(rule.Args)
	if err != nil {
		return err
	}
	x := e.saveExec()
	defer e.restoreExec(x)
	e.scope = c.scope.Child()
	e.env = c.env
	e.content = c.outer

	if err := e.bindParams(c.block.Params, args, rule); err != nil {
		return err
	}
	_, err = e.exec(c.block.Body)
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
