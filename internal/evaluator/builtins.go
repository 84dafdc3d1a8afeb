package evaluator

import (
	"sort"
	"strconv"
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/value"
)

type param struct {
	name       string
	def        value.Value
	hasDefault bool
	rest       bool
}

// builtinFunc is a function implemented in Go. args holds one value per
// declared parameter; a rest parameter receives a value.ArgList.
type builtinFunc struct {
	name   string
	params []param
	fn     func(e *evaluator, args []value.Value) (value.Value, error)
}

// builtinModules maps a sass: module name to its functions
var builtinModules = map[string]map[string]*builtinFunc{}

// builtinVariables maps a sass: module name to its variables
var builtinVariables = map[string]map[string]value.Value{}

// globalFunctions are the built-in functions available without @use
var globalFunctions = map[string]*builtinFunc{}

func init() {
	builtinModules["math"] = mathFunctions()
	builtinModules["string"] = stringFunctions()
	builtinModules["list"] = listFunctions()
	builtinModules["map"] = mapFunctions()
	builtinModules["color"] = colorFunctions()
	builtinModules["meta"] = metaFunctions()
	builtinModules["selector"] = selectorFunctions()
	builtinVariables["math"] = mathVariables()

	for global, member := range globalAliases {
		mod, name, _ := strings.Cut(member, ".")
		globalFunctions[global] = builtinModules[mod][name]
	}
}

// globalAliases names the module member each global function refers to
var globalAliases = map[string]string{
	"percentage":             "math.percentage",
	"round":                  "math.round",
	"ceil":                   "math.ceil",
	"floor":                  "math.floor",
	"abs":                    "math.abs",
	"min":                    "math.min",
	"max":                    "math.max",
	"random":                 "math.random",
	"unit":                   "math.unit",
	"unitless":               "math.is-unitless",
	"comparable":             "math.compatible",
	"quote":                  "string.quote",
	"unquote":                "string.unquote",
	"str-length":             "string.length",
	"str-insert":             "string.insert",
	"str-index":              "string.index",
	"str-slice":              "string.slice",
	"to-upper-case":          "string.to-upper-case",
	"to-lower-case":          "string.to-lower-case",
	"unique-id":              "string.unique-id",
	"length":                 "list.length",
	"nth":                    "list.nth",
	"set-nth":                "list.set-nth",
	"join":                   "list.join",
	"append":                 "list.append",
	"zip":                    "list.zip",
	"index":                  "list.index",
	"list-separator":         "list.separator",
	"is-bracketed":           "list.is-bracketed",
	"map-get":                "map.get",
	"map-merge":              "map.merge",
	"map-remove":             "map.remove",
	"map-keys":               "map.keys",
	"map-values":             "map.values",
	"map-has-key":            "map.has-key",
	"red":                    "color.red",
	"green":                  "color.green",
	"blue":                   "color.blue",
	"hue":                    "color.hue",
	"saturation":             "color.saturation",
	"lightness":              "color.lightness",
	"alpha":                  "color.alpha",
	"opacity":                "color.opacity",
	"rgb":                    "color.rgb",
	"rgba":                   "color.rgba",
	"hsl":                    "color.hsl",
	"hsla":                   "color.hsla",
	"mix":                    "color.mix",
	"invert":                 "color.invert",
	"grayscale":              "color.grayscale",
	"complement":             "color.complement",
	"lighten":                "color.lighten",
	"darken":                 "color.darken",
	"saturate":               "color.saturate",
	"desaturate":             "color.desaturate",
	"adjust-hue":             "color.adjust-hue",
	"opacify":                "color.opacify",
	"fade-in":                "color.opacify",
	"transparentize":         "color.transparentize",
	"fade-out":               "color.transparentize",
	"adjust-color":           "color.adjust",
	"scale-color":            "color.scale",
	"change-color":           "color.change",
	"ie-hex-str":             "color.ie-hex-str",
	"type-of":                "meta.type-of",
	"inspect":                "meta.inspect",
	"variable-exists":        "meta.variable-exists",
	"global-variable-exists": "meta.global-variable-exists",
	"function-exists":        "meta.function-exists",
	"mixin-exists":           "meta.mixin-exists",
	"get-function":           "meta.get-function",
	"call":                   "meta.call",
	"keywords":               "meta.keywords",
	"content-exists":         "meta.content-exists",
	"feature-exists":         "meta.feature-exists",
	"selector-nest":          "selector.nest",
	"selector-append":        "selector.append",
	"selector-parse":         "selector.parse",
}

// declare builds a built-in from a parameter signature such as
// "$color, $amount: 10%, $args..."
func declare(sig string, impl func(e *evaluator, args []value.Value) (value.Value, error)) *builtinFunc {
	b := &builtinFunc{fn: impl}
	for _, part := range strings.Split(sig, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var p param
		name, def, hasDefault := strings.Cut(part, ":")
		name = strings.TrimPrefix(strings.TrimSpace(name), "$")
		if rest, ok := strings.CutSuffix(name, "..."); ok {
			name, p.rest = rest, true
		}
		p.name = name
		if hasDefault {
			p.def, p.hasDefault = parseDefault(strings.TrimSpace(def)), true
		}
		b.params = append(b.params, p)
	}
	return b
}

// parseDefault reads the literal default of a built-in parameter
func parseDefault(text string) value.Value {
	switch text {
	case "null":
		return value.Null
	case "true":
		return value.True
	case "false":
		return value.False
	}
	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'') {
		return value.Quoted(text[1 : len(text)-1])
	}
	end := 0
	for end < len(text) && (text[end] == '-' || text[end] == '.' || (text[end] >= '0' && text[end] <= '9')) {
		end++
	}
	if end > 0 {
		if f, err := strconv.ParseFloat(text[:end], 64); err == nil {
			return value.NewNumber(f, text[end:])
		}
	}
	return value.Unquoted(text)
}

// named registers built-ins under their names
func named(fns map[string]*builtinFunc) map[string]*builtinFunc {
	for name, f := range fns {
		f.name = name
	}
	return fns
}

func (b *builtinFunc) bind(args *callArgs, at ast.Node) ([]value.Value, error) {
	out := make([]value.Value, len(b.params))
	pos := args.positional
	for i, p := range b.params {
		if p.rest {
			var rest []value.Value
			if i < len(pos) {
				rest = pos[i:]
			}
			sep := args.sep
			if sep == value.SepUndecided {
				sep = value.SepComma
			}
			out[i] = value.ArgList{List: value.List{Items: rest, Sep: sep}, Keywords: args.remainingNamed()}
			return out, nil
		}
		if i < len(pos) {
			if _, both := args.named[p.name]; both {
				return nil, errorf(at, "Argument $%s was passed both by position and by name.", p.name)
			}
			out[i] = value.WithoutSlash(pos[i])
			continue
		}
		if v, ok := args.take(p.name); ok {
			out[i] = value.WithoutSlash(v)
			continue
		}
		if !p.hasDefault {
			return nil, errorf(at, "Missing argument $%s.", p.name)
		}
		out[i] = p.def
	}
	if len(pos) > len(b.params) {
		return nil, errorf(at, "Only %d argument%s allowed, but %d %s passed.",
			len(b.params), plural(len(b.params)), len(pos), wasWere(len(pos)))
	}
	if len(args.named) > 0 {
		unknown := make([]string, 0, len(args.named))
		for name := range args.named {
			unknown = append(unknown, "$"+name)
		}
		sort.Strings(unknown)
		return nil, errorf(at, "No argument%s named %s.", plural(len(unknown)), strings.Join(unknown, ", "))
	}
	return out, nil
}

func argError(name, format string, args ...any) error {
	return diagnostics.NewArgumentError("$"+name+": "+format, args...)
}

func numberArg(v value.Value, name string) (value.Number, error) {
	n, ok := v.(value.Number)
	if !ok {
		return value.Number{}, argError(name, "%s is not a number.", v.Inspect())
	}
	return n, nil
}

func intArg(v value.Value, name string) (int, error) {
	n, err := numberArg(v, name)
	if err != nil {
		return 0, err
	}
	i, ok := n.Int()
	if !ok {
		return 0, argError(name, "%s is not an int.", n.Inspect())
	}
	return i, nil
}

func stringArg(v value.Value, name string) (value.String, error) {
	s, ok := v.(value.String)
	if !ok {
		return value.String{}, argError(name, "%s is not a string.", v.Inspect())
	}
	return s, nil
}

func colorArg(v value.Value, name string) (value.Color, error) {
	c, ok := v.(value.Color)
	if !ok {
		return value.Color{}, argError(name, "%s is not a color.", v.Inspect())
	}
	return c, nil
}

func mapArg(v value.Value, name string) (*value.Map, error) {
	switch m := v.(type) {
	case *value.Map:
		return m, nil
	case value.List:
		if len(m.Items) == 0 {
			return value.NewMap(), nil
		}
	case value.ArgList:
		if len(m.Items) == 0 {
			return value.NewMap(), nil
		}
	}
	return nil, argError(name, "%s is not a map.", v.Inspect())
}

// percentArg reads a number in [0, 100], with or without a % unit
func percentArg(v value.Value, name string) (float64, error) {
	n, err := numberArg(v, name)
	if err != nil {
		return 0, err
	}
	if n.Value < 0 || n.Value > 100 {
		return 0, argError(name, "Expected %s to be within 0%% and 100%%.", n.Inspect())
	}
	return n.Value, nil
}

// listIndex converts a 1-based, possibly negative Sass index into a Go
// index into a list of length n
func listIndex(v value.Value, n int, name string) (int, error) {
	i, err := intArg(v, name)
	if err != nil {
		return 0, err
	}
	if i == 0 {
		return 0, argError(name, "List index may not be 0.")
	}
	if i > n || -i > n {
		return 0, argError(name, "Invalid index %d for a list with %d elements.", i, n)
	}
	if i < 0 {
		return n + i, nil
	}
	return i - 1, nil
}
