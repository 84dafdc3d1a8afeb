package evaluator

import (
	"bennypowers.dev/scssc/internal/value"
)

// features are the names meta.feature-exists reports as supported
var features = map[string]bool{
	"global-variable-shadowing":   true,
	"extend-selector-pseudoclass": true,
	"units-level-3":               true,
	"at-error":                    true,
	"custom-property":             true,
}

// moduleArg resolves the optional $module argument of the meta functions
// to a module in the current file, or nil when it is null
func (e *evaluator) moduleArg(v value.Value) (*module, error) {
	if value.IsNull(v) {
		return nil, nil
	}
	s, err := stringArg(v, "module")
	if err != nil {
		return nil, err
	}
	return e.env.namespace(s.Text, e.callSite)
}

func (e *evaluator) variableExists(name string) bool {
	if _, ok := e.scope.Lookup(name); ok {
		return true
	}
	for _, f := range e.env.starUses {
		if inner, ok := f.member(normalizeName(name), true); ok {
			if _, ok := f.mod.variable(inner); ok {
				return true
			}
		}
	}
	return false
}

func metaFunctions() map[string]*builtinFunc {
	return named(map[string]*builtinFunc{
		"type-of": declare("$value", func(_ *evaluator, args []value.Value) (value.Value, error) {
			return value.Unquoted(args[0].Kind()), nil
		}),
		"inspect": declare("$value", func(_ *evaluator, args []value.Value) (value.Value, error) {
			return value.Unquoted(args[0].Inspect()), nil
		}),
		"variable-exists": declare("$name", func(e *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "name")
			if err != nil {
				return nil, err
			}
			return value.BoolOf(e.variableExists(s.Text)), nil
		}),
		"global-variable-exists": declare("$name, $module: null", func(e *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "name")
			if err != nil {
				return nil, err
			}
			m, err := e.moduleArg(args[1])
			if err != nil {
				return nil, err
			}
			if m != nil {
				_, ok := m.variable(s.Text)
				return value.BoolOf(ok), nil
			}
			if _, ok := e.scope.Global().vars[normalizeName(s.Text)]; ok {
				return value.True, nil
			}
			for _, f := range e.env.starUses {
				if inner, ok := f.member(normalizeName(s.Text), true); ok {
					if _, ok := f.mod.variable(inner); ok {
						return value.True, nil
					}
				}
			}
			return value.False, nil
		}),
		"function-exists": declare("$name, $module: null", func(e *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "name")
			if err != nil {
				return nil, err
			}
			m, err := e.moduleArg(args[1])
			if err != nil {
				return nil, err
			}
			if m != nil {
				_, ok := m.function(s.Text)
				return value.BoolOf(ok), nil
			}
			_, ok, err := e.lookupFunction("", s.Text, e.callSite)
			return value.BoolOf(ok), err
		}),
		"mixin-exists": declare("$name, $module: null", func(e *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "name")
			if err != nil {
				return nil, err
			}
			m, err := e.moduleArg(args[1])
			if err != nil {
				return nil, err
			}
			if m != nil {
				_, ok := m.mixin(s.Text)
				return value.BoolOf(ok), nil
			}
			_, err = e.lookupMixin("", s.Text, e.callSite)
			return value.BoolOf(err == nil), nil
		}),
		"get-function": declare("$name, $css: false, $module: null", func(e *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "name")
			if err != nil {
				return nil, err
			}
			if args[1].Truthy() {
				return value.Function{Name: s.Text}, nil
			}
			ns := ""
			if !value.IsNull(args[2]) {
				m, err := stringArg(args[2], "module")
				if err != nil {
					return nil, err
				}
				ns = m.Text
			}
			fn, ok, err := e.lookupFunction(ns, s.Text, e.callSite)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, argError("name", "Function not found: %s", s.Inspect())
			}
			return value.Function{Name: s.Text, Callable: fn}, nil
		}),
		"call": declare("$function, $args...", func(e *evaluator, args []value.Value) (value.Value, error) {
			rest := args[1].(value.ArgList)
			call := &callArgs{positional: rest.Items, sep: rest.Sep}
			keys, vals := rest.Keywords.Keys(), rest.Keywords.Values()
			for i, k := range keys {
				call.setNamed(value.Text(k), vals[i])
			}
			site := e.callSite
			switch f := args[0].(type) {
			case value.Function:
				fn, ok := f.Callable.(*callable)
				if !ok {
					return e.plainFunction(f.Name, call, site)
				}
				return e.callFunction(fn, call, site)
			case value.String:
				fn, ok, err := e.lookupFunction("", f.Text, site)
				if err != nil {
					return nil, err
				}
				if !ok {
					return e.plainFunction(f.Text, call, site)
				}
				return e.callFunction(fn, call, site)
			}
			return nil, argError("function", "%s is not a function reference.", args[0].Inspect())
		}),
		"keywords": declare("$args", func(_ *evaluator, args []value.Value) (value.Value, error) {
			a, ok := args[0].(value.ArgList)
			if !ok {
				return nil, argError("args", "%s is not an argument list.", args[0].Inspect())
			}
			return a.Keywords, nil
		}),
		"content-exists": declare("", func(e *evaluator, _ []value.Value) (value.Value, error) {
			if !e.inMixin {
				return nil, argError("content", "content-exists() may only be called within a mixin.")
			}
			return value.BoolOf(e.content != nil), nil
		}),
		"feature-exists": declare("$feature", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "feature")
			if err != nil {
				return nil, err
			}
			return value.BoolOf(features[s.Text]), nil
		}),
		"module-variables": declare("$module", func(e *evaluator, args []value.Value) (value.Value, error) {
			m, err := e.moduleArg(args[0])
			if err != nil {
				return nil, err
			}
			if m == nil {
				return nil, argError("module", "null is not a string.")
			}
			out := value.NewMap()
			for _, name := range m.members(true) {
				v, _ := m.variable(name)
				out = out.Set(value.Quoted(name), v)
			}
			return out, nil
		}),
		"module-functions": declare("$module", func(e *evaluator, args []value.Value) (value.Value, error) {
			m, err := e.moduleArg(args[0])
			if err != nil {
				return nil, err
			}
			if m == nil {
				return nil, argError("module", "null is not a string.")
			}
			out := value.NewMap()
			for _, name := range m.members(false) {
				fn, _ := m.function(name)
				out = out.Set(value.Quoted(name), value.Function{Name: name, Callable: fn})
			}
			return out, nil
		}),
	})
}
