// Package evaluator executes a resolved module graph: it evaluates
// SassScript, expands control flow and callables, resolves selector
// nesting and produces the flattened CSS tree the emitter serializes.
//
// Evaluation is single threaded and strictly top down. Each module loaded
// with @use is evaluated once per compile; @import evaluates the imported
// file again in place every time.
package evaluator

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/cssout"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/log"
	"bennypowers.dev/scssc/internal/resolver"
)

// DefaultMaxCallDepth bounds nested mixin and function calls
const DefaultMaxCallDepth = 100

// WarnOptions describes where a @warn was raised
type WarnOptions struct {
	Location diagnostics.Location
	// Stack is the mixin and function call stack, innermost first
	Stack string
}

// DebugOptions describes where a @debug was raised
type DebugOptions struct {
	Location diagnostics.Location
}

// Logger receives the output of @warn and @debug
type Logger interface {
	Warn(message string, opts WarnOptions)
	Debug(message string, opts DebugOptions)
}

// DefaultLogger writes to the internal leveled log
type DefaultLogger struct{}

func (DefaultLogger) Warn(message string, opts WarnOptions) {
	if opts.Stack != "" {
		log.Warn("%s\n    %s\n%s", message, opts.Location, opts.Stack)
		return
	}
	log.Warn("%s\n    %s", message, opts.Location)
}

func (DefaultLogger) Debug(message string, opts DebugOptions) {
	log.Debug("%s: %s", opts.Location, message)
}

// Options configures evaluation
type Options struct {
	// Logger receives @warn and @debug; DefaultLogger when nil
	Logger Logger
	// QuietDeps silences @warn in modules loaded through a load path or
	// an importer
	QuietDeps bool
	// MaxCallDepth defaults to DefaultMaxCallDepth
	MaxCallDepth int
}

type frame struct {
	name string
	span ast.Span
}

// contentBlock is the block passed to a mixin, closed over the scope of
// the @include that passed it
type contentBlock struct {
	block *ast.ContentBlock
	scope *Scope
	env   *fileEnv
	// outer is the content block active at the @include
	outer *contentBlock
}

type evaluator struct {
	graph   *resolver.Graph
	opts    Options
	modules map[string]*module
	root    *cssout.Stylesheet
	// imports counts the plain CSS imports hoisted to the top of root
	imports int

	// output context
	container   cssout.Parent
	styleRule   *cssout.StyleRule
	selectors   []string
	media       []string
	mediaNode   *cssout.AtRule
	mediaParent cssout.Parent
	inKeyframes bool
	declPrefix  string

	// execution context
	scope      *Scope
	env        *fileEnv
	content    *contentBlock
	inFunction bool
	inMixin    bool
	stack      []frame

	// callSite is the expression calling the running built-in function
	callSite ast.Node
	extends  []*extension
	uniqueID int
	rand     *rand.Rand
}

// Evaluate runs the module graph from its entry module and returns the
// output tree. Nothing is returned on error.
func Evaluate(graph *resolver.Graph, opts Options) (*cssout.Stylesheet, error) {
	if opts.Logger == nil {
		opts.Logger = DefaultLogger{}
	}
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	root := &cssout.Stylesheet{}
	e := &evaluator{
		graph:     graph,
		opts:      opts,
		modules:   make(map[string]*module),
		root:      root,
		container: root,
		rand:      rand.New(rand.NewPCG(1, 2)),
	}
	if _, err := e.loadModule(graph.Entry, nil, false); err != nil {
		return nil, err
	}
	if err := e.applyExtends(); err != nil {
		return nil, err
	}
	log.Debug("Evaluated %d modules into %d top-level nodes", len(e.modules), len(root.Children))
	return root, nil
}

// outputContext is the part of the evaluator state that says where output
// goes
type outputContext struct {
	container   cssout.Parent
	styleRule   *cssout.StyleRule
	selectors   []string
	media       []string
	mediaNode   *cssout.AtRule
	mediaParent cssout.Parent
	inKeyframes bool
	declPrefix  string
}

func (e *evaluator) saveOutput() outputContext {
	return outputContext{
		container:   e.container,
		styleRule:   e.styleRule,
		selectors:   e.selectors,
		media:       e.media,
		mediaNode:   e.mediaNode,
		mediaParent: e.mediaParent,
		inKeyframes: e.inKeyframes,
		declPrefix:  e.declPrefix,
	}
}

func (e *evaluator) restoreOutput(o outputContext) {
	e.container = o.container
	e.styleRule = o.styleRule
	e.selectors = o.selectors
	e.media = o.media
	e.mediaNode = o.mediaNode
	e.mediaParent = o.mediaParent
	e.inKeyframes = o.inKeyframes
	e.declPrefix = o.declPrefix
}

// execContext is the part of the evaluator state that says how names
// resolve
type execContext struct {
	scope      *Scope
	env        *fileEnv
	content    *contentBlock
	inFunction bool
	inMixin    bool
}

func (e *evaluator) saveExec() execContext {
	return execContext{e.scope, e.env, e.content, e.inFunction, e.inMixin}
}

func (e *evaluator) restoreExec(x execContext) {
	e.scope = x.scope
	e.env = x.env
	e.content = x.content
	e.inFunction = x.inFunction
	e.inMixin = x.inMixin
}

// push enters a mixin or function call, enforcing the depth limit
func (e *evaluator) push(name string, span ast.Span) error {
	if len(e.stack) >= e.opts.MaxCallDepth {
		return diagnostics.Locate(diagnostics.NewRecursionLimitError(name, e.opts.MaxCallDepth), span)
	}
	e.stack = append(e.stack, frame{name: name, span: span})
	return nil
}

func (e *evaluator) pop() {
	e.stack = e.stack[:len(e.stack)-1]
}

// stackTrace renders the call stack, innermost first
func (e *evaluator) stackTrace() string {
	var b strings.Builder
	for i := len(e.stack) - 1; i >= 0; i-- {
		f := e.stack[i]
		fmt.Fprintf(&b, "    %s  %s()\n", f.span.Location(), f.name)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (e *evaluator) scopeName() string {
	if e.scope.IsGlobal() {
		return "global scope"
	}
	return "local scope"
}

// declTarget is the node declarations are added to: the current style
// rule, or an at-rule such as @font-face that takes declarations directly
func (e *evaluator) declTarget() (cssout.Parent, bool) {
	if e.styleRule != nil {
		return e.styleRule, true
	}
	if r, ok := e.container.(*cssout.AtRule); ok && r.Name != "media" && r.Name != "supports" {
		return r, true
	}
	return nil, false
}

func (e *evaluator) located(err error, at ast.Node) error {
	if at == nil {
		return err
	}
	return diagnostics.Locate(err, at.GetSpan())
}

func errorf(at ast.Node, format string, args ...any) error {
	return diagnostics.Locate(diagnostics.NewArgumentError(format, args...), at.GetSpan())
}
