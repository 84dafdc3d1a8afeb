package evaluator

import (
	"bennypowers.dev/scssc/internal/value"
)

// selectorArg reads a selector given as a string or as a list of strings
func selectorArg(v value.Value, name string) ([]string, error) {
	var text string
	switch s := v.(type) {
	case value.String:
		text = s.Text
	case value.List, value.ArgList:
		text = value.MustCSS(v)
	default:
		return nil, argError(name, "%s is not a valid selector: it must be a string,\na list of strings, or a list of lists of strings.", v.Inspect())
	}
	sels := splitSelectorList(text)
	if len(sels) == 0 {
		return nil, argError(name, "expected selector.")
	}
	return sels, nil
}

// selectorValue converts selectors into a comma list of unquoted strings
func selectorValue(sels []string) value.Value {
	items := make([]value.Value, len(sels))
	for i, s := range sels {
		items[i] = value.Unquoted(s)
	}
	return value.NewList(value.SepComma, items...)
}

func selectorFunctions() map[string]*builtinFunc {
	return named(map[string]*builtinFunc{
		"nest": declare("$selectors...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			items := value.Items(args[0])
			if len(items) == 0 {
				return nil, argError("selectors", "At least one selector must be passed.")
			}
			var out []string
			for i, item := range items {
				sels, err := selectorArg(item, "selectors")
				if err != nil {
					return nil, err
				}
				if i == 0 {
					out, err = nestSelectors(nil, sels)
				} else {
					out, err = nestSelectors(out, sels)
				}
				if err != nil {
					return nil, err
				}
			}
			return selectorValue(out), nil
		}),
		"append": declare("$selectors...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			items := value.Items(args[0])
			if len(items) == 0 {
				return nil, argError("selectors", "At least one selector must be passed.")
			}
			var out []string
			for i, item := range items {
				sels, err := selectorArg(item, "selectors")
				if err != nil {
					return nil, err
				}
				if i == 0 {
					out = sels
					continue
				}
				next := make([]string, 0, len(out)*len(sels))
				for _, parent := range out {
					for _, child := range sels {
						if len(splitComplex(child)) > 1 || isCombinatorPart(child[:1]) {
							return nil, argError("selectors", "Can't append %s to %s.", child, parent)
						}
						next = append(next, parent+child)
					}
				}
				out = next
			}
			return selectorValue(out), nil
		}),
		"parse": declare("$selector", func(_ *evaluator, args []value.Value) (value.Value, error) {
			sels, err := selectorArg(args[0], "selector")
			if err != nil {
				return nil, err
			}
			return selectorValue(sels), nil
		}),
	})
}
