package evaluator

import (
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/collections"
	"bennypowers.dev/scssc/internal/cssout"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/log"
	"bennypowers.dev/scssc/internal/parser/scss"
	"bennypowers.dev/scssc/internal/resolver"
	"bennypowers.dev/scssc/internal/value"
)

// module is an evaluated module: its global scope and what it forwards
type module struct {
	url  string
	src  *resolver.Module
	name string
	// scope is the module's global scope
	scope    *Scope
	forwards []*forward
	// config holds the `with` values the module was loaded with
	config  *configuration
	builtin bool
}

// forward exposes another module's members, optionally prefixed and
// filtered. A `@use ... as *` is a forward with no prefix or filter.
type forward struct {
	mod    *module
	prefix string
	// show and hide hold prefixed member names; variables keep their $
	show collections.Set[string]
	hide collections.Set[string]
}

// member maps a name as seen through the forward to the name inside the
// forwarded module
func (f *forward) member(name string, variable bool) (string, bool) {
	key := name
	if variable {
		key = "$" + name
	}
	if f.show != nil && !f.show.Has(key) {
		return "", false
	}
	if f.hide != nil && f.hide.Has(key) {
		return "", false
	}
	if f.prefix == "" {
		return name, true
	}
	inner, ok := strings.CutPrefix(name, f.prefix)
	return inner, ok
}

func isPrivate(name string) bool {
	return strings.HasPrefix(name, "-")
}

// variableScope returns the scope holding a public variable of m,
// following forwards
func (m *module) variableScope(name string) (*Scope, bool) {
	name = normalizeName(name)
	if isPrivate(name) {
		return nil, false
	}
	if _, ok := m.scope.vars[name]; ok {
		return m.scope, true
	}
	for _, f := range m.forwards {
		if inner, ok := f.member(name, true); ok {
			if s, ok := f.mod.variableScope(inner); ok {
				return s, true
			}
		}
	}
	return nil, false
}

func (m *module) variable(name string) (value.Value, bool) {
	s, ok := m.variableScope(name)
	if !ok {
		return nil, false
	}
	return s.vars[normalizeName(name)], true
}

func (m *module) function(name string) (*callable, bool) {
	name = normalizeName(name)
	if isPrivate(name) {
		return nil, false
	}
	if c, ok := m.scope.functions[name]; ok {
		return c, true
	}
	for _, f := range m.forwards {
		if inner, ok := f.member(name, false); ok {
			if c, ok := f.mod.function(inner); ok {
				return c, true
			}
		}
	}
	return nil, false
}

func (m *module) mixin(name string) (*callable, bool) {
	name = normalizeName(name)
	if isPrivate(name) {
		return nil, false
	}
	if c, ok := m.scope.mixins[name]; ok {
		return c, true
	}
	for _, f := range m.forwards {
		if inner, ok := f.member(name, false); ok {
			if c, ok := f.mod.mixin(inner); ok {
				return c, true
			}
		}
	}
	return nil, false
}

// members lists the public variables or functions of m, including
// forwarded ones, for meta.module-variables and meta.module-functions
func (m *module) members(variables bool) []string {
	var names []string
	seen := collections.NewSet[string]()
	add := func(name string) {
		if !isPrivate(name) && !seen.Has(name) {
			seen.Add(name)
			names = append(names, name)
		}
	}
	if variables {
		for _, name := range sortedKeys(m.scope.vars) {
			add(name)
		}
	} else {
		for _, name := range sortedKeys(m.scope.functions) {
			add(name)
		}
	}
	for _, f := range m.forwards {
		for _, inner := range f.mod.members(variables) {
			name := f.prefix + inner
			if _, ok := f.member(name, variables); ok {
				add(name)
			}
		}
	}
	return names
}

// fileEnv is what a source file sees besides its scope chain: the
// namespaces and star imports of its @use rules. Callables and content
// blocks capture the fileEnv they were defined in.
type fileEnv struct {
	src *resolver.Module
	// inst is the module whose global scope the file writes. For a file
	// evaluated by @import this is the importing module.
	inst       *module
	namespaces map[string]*module
	starUses   []*forward
}

func newFileEnv(src *resolver.Module, inst *module) *fileEnv {
	return &fileEnv{src: src, inst: inst, namespaces: make(map[string]*module)}
}

func (env *fileEnv) namespace(ns string, at ast.Node) (*module, error) {
	m, ok := env.namespaces[ns]
	if !ok {
		return nil, diagnostics.NewUndefinedReferenceError(at.GetSpan().Location(), "module", ns, "")
	}
	return m, nil
}

// configuredValue is one `with` entry. Entries are shared between a
// configuration and those derived from it by @forward so use is tracked
// once.
type configuredValue struct {
	value value.Value
	span  ast.Span
	used  bool
}

type configuration struct {
	values map[string]*configuredValue
}

func (c *configuration) empty() bool {
	return c == nil || len(c.values) == 0
}

// throughForward derives the configuration a forwarded module sees:
// prefixed names are unprefixed and hidden names dropped
func (c *configuration) throughForward(f *forward) *configuration {
	out := &configuration{values: make(map[string]*configuredValue)}
	for name, cv := range c.values {
		if inner, ok := f.member(name, true); ok {
			out.values[inner] = cv
		}
	}
	return out
}

func (e *evaluator) evalConfiguration(vars []*ast.ConfiguredVariable, base *configuration) (*configuration, []*configuredValue, error) {
	if len(vars) == 0 {
		return base, nil, nil
	}
	out := &configuration{values: make(map[string]*configuredValue)}
	if base != nil {
		for name, cv := range base.values {
			out.values[name] = cv
		}
	}
	var own []*configuredValue
	for _, cv := range vars {
		name := normalizeName(cv.Name)
		if _, ok := out.values[name]; ok && cv.Default {
			continue
		}
		v, err := e.eval(cv.Value)
		if err != nil {
			return nil, nil, err
		}
		entry := &configuredValue{value: value.WithoutSlash(v), span: cv.Span}
		out.values[name] = entry
		own = append(own, entry)
	}
	return out, own, nil
}

// loadModule evaluates src once per compile. Its CSS is added at the top
// level of the output, in the position of the first rule that loads it.
// explicit is set when config comes from the loading rule's own `with`.
func (e *evaluator) loadModule(src *resolver.Module, config *configuration, explicit bool) (*module, error) {
	if m, ok := e.modules[src.URL]; ok {
		if explicit && !config.empty() {
			return nil, diagnostics.NewArgumentError("%s was already loaded, so it can't be configured using \"with\".", src.File.Name())
		}
		return m, nil
	}

	m := &module{
		url:    src.URL,
		src:    src,
		name:   src.File.Name(),
		scope:  NewScope(),
		config: config,
	}
	e.modules[src.URL] = m
	log.Debug("Evaluating module %s", m.name)

	out := e.saveOutput()
	x := e.saveExec()
	stack := e.stack
	e.restoreOutput(outputContext{container: e.root})
	e.scope = m.scope
	e.env = newFileEnv(src, m)
	e.content = nil
	e.inFunction, e.inMixin = false, false
	e.stack = nil

	_, err := e.exec(src.Stylesheet.Children)

	e.restoreOutput(out)
	e.restoreExec(x)
	e.stack = stack
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (e *evaluator) builtinModule(url string, at ast.Node) (*module, error) {
	if m, ok := e.modules[url]; ok {
		return m, nil
	}
	name := strings.TrimPrefix(url, resolver.BuiltinScheme)
	fns, ok := builtinModules[name]
	if !ok {
		return nil, diagnostics.NewResolutionError(at.GetSpan().Location(), url, nil)
	}
	m := &module{url: url, name: url, scope: NewScope(), builtin: true}
	for fnName, fn := range fns {
		m.scope.functions[fnName] = &callable{name: fnName, builtin: fn}
	}
	for varName, v := range builtinVariables[name] {
		m.scope.vars[varName] = v
	}
	e.modules[url] = m
	return m, nil
}

// resolveModule loads the module a rule in the current file refers to
func (e *evaluator) resolveModule(url string, config *configuration, explicit bool, at ast.Node) (*module, error) {
	if resolver.IsBuiltin(url) {
		if explicit && !config.empty() {
			return nil, errorf(at, "Built-in modules can't be configured.")
		}
		return e.builtinModule(url, at)
	}
	src, ok := e.graph.Lookup(e.env.src, url)
	if !ok {
		return nil, diagnostics.NewResolutionError(at.GetSpan().Location(), url, nil)
	}
	m, err := e.loadModule(src, config, explicit)
	if err != nil {
		return nil, e.located(err, at)
	}
	return m, nil
}

func (e *evaluator) checkConfigUsed(config []*configuredValue, names map[*configuredValue]string) error {
	for _, cv := range config {
		if !cv.used {
			return diagnostics.Locate(diagnostics.NewArgumentError(
				"$%s was not declared with !default in the @used module.", names[cv]), cv.span)
		}
	}
	return nil
}

func (e *evaluator) execUse(rule *ast.UseRule) error {
	config, own, err := e.evalConfiguration(rule.Config, nil)
	if err != nil {
		return err
	}
	m, err := e.resolveModule(rule.URL, config, len(own) > 0, rule)
	if err != nil {
		return err
	}
	if err := e.checkConfigUsed(own, configNames(config)); err != nil {
		return err
	}

	ns := rule.Namespace
	if ns == "" {
		ns = scss.DefaultNamespace(rule.URL)
	}
	if ns == "*" {
		e.env.starUses = append(e.env.starUses, &forward{mod: m})
		return nil
	}
	if _, exists := e.env.namespaces[ns]; exists {
		return errorf(rule, "There's already a module with namespace %q.", ns)
	}
	e.env.namespaces[ns] = m
	return nil
}

func (e *evaluator) execForward(rule *ast.ForwardRule) error {
	f := &forward{prefix: normalizeName(rule.Prefix)}
	if len(rule.Show) > 0 {
		f.show = memberSet(rule.Show)
	}
	if len(rule.Hide) > 0 {
		f.hide = memberSet(rule.Hide)
	}

	var inherited *configuration
	if e.env.inst.config != nil {
		inherited = e.env.inst.config.throughForward(f)
	}
	config, own, err := e.evalConfiguration(rule.Config, inherited)
	if err != nil {
		return err
	}
	m, err := e.resolveModule(rule.URL, config, len(own) > 0, rule)
	if err != nil {
		return err
	}
	if err := e.checkConfigUsed(own, configNames(config)); err != nil {
		return err
	}
	f.mod = m
	e.env.inst.forwards = append(e.env.inst.forwards, f)
	return nil
}

func memberSet(names []string) collections.Set[string] {
	s := collections.NewSet[string]()
	for _, n := range names {
		s.Add(normalizeName(n))
	}
	return s
}

func configNames(c *configuration) map[*configuredValue]string {
	names := make(map[*configuredValue]string)
	if c == nil {
		return names
	}
	for name, cv := range c.values {
		names[cv] = name
	}
	return names
}

// execImport evaluates @import. Sass imports run the imported file in the
// current scope and output position; plain CSS imports are hoisted to the
// top of the output.
func (e *evaluator) execImport(rule *ast.ImportRule) error {
	for _, imp := range rule.Imports {
		if imp.Plain {
			if err := e.hoistImport(imp); err != nil {
				return err
			}
			continue
		}

		src, ok := e.graph.Lookup(e.env.src, imp.URL)
		if !ok {
			return diagnostics.NewResolutionError(imp.Span.Location(), imp.URL, nil)
		}
		outer := e.env
		e.env = newFileEnv(src, outer.inst)
		forwards := len(outer.inst.forwards)
		_, err := e.exec(src.Stylesheet.Children)
		e.env = outer
		if err != nil {
			return err
		}
		// members the imported file forwarded are visible to the importer
		outer.starUses = append(outer.starUses, outer.inst.forwards[forwards:]...)
	}
	return nil
}

func (e *evaluator) hoistImport(imp *ast.Import) error {
	text, err := e.interpolate(imp.Raw)
	if err != nil {
		return err
	}
	url, modifiers := splitImport(text)
	node := &cssout.Import{URL: url, Modifiers: modifiers, Span: imp.Span}
	children := e.root.Children
	children = append(children, nil)
	copy(children[e.imports+1:], children[e.imports:])
	children[e.imports] = node
	e.root.Children = children
	e.imports++
	return nil
}

// splitImport separates the URL of a plain import from its media or
// supports modifiers
func splitImport(text string) (string, string) {
	text = strings.TrimSpace(text)
	end := 0
	switch {
	case strings.HasPrefix(text, `"`), strings.HasPrefix(text, `'`):
		quote := text[0]
		end = 1
		for end < len(text) && text[end] != quote {
			if text[end] == '\\' {
				end++
			}
			end++
		}
		end++
	case strings.HasPrefix(strings.ToLower(text), "url("):
		end = strings.IndexByte(text, ')') + 1
	default:
		end = strings.IndexAny(text, " \t\n")
		if end < 0 {
			end = len(text)
		}
	}
	if end <= 0 || end > len(text) {
		return text, ""
	}
	return text[:end], strings.TrimSpace(text[end:])
}
