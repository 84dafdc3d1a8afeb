package evaluator

import (
	"bennypowers.dev/scssc/internal/value"
)

// separatorArg reads a list separator name; "auto" yields SepUndecided
func separatorArg(v value.Value, name string) (value.Separator, error) {
	s, err := stringArg(v, name)
	if err != nil {
		return 0, err
	}
	switch s.Text {
	case "auto":
		return value.SepUndecided, nil
	case "space":
		return value.SepSpace, nil
	case "comma":
		return value.SepComma, nil
	case "slash":
		return value.SepSlash, nil
	}
	return 0, argError(name, "Must be \"space\", \"comma\", \"slash\", or \"auto\".")
}

func isBracketed(v value.Value) bool {
	switch l := v.(type) {
	case value.List:
		return l.Bracketed
	case value.ArgList:
		return l.Bracketed
	}
	return false
}

// listSep is the separator of v, or def when v has none yet
func listSep(v value.Value, def value.Separator) value.Separator {
	items := value.Items(v)
	sep := value.SeparatorOf(v)
	if len(items) < 2 {
		if l, ok := v.(value.List); ok && l.Sep != value.SepUndecided {
			return l.Sep
		}
		return def
	}
	return sep
}

func listFunctions() map[string]*builtinFunc {
	return named(map[string]*builtinFunc{
		"length": declare("$list", func(_ *evaluator, args []value.Value) (value.Value, error) {
			return value.NewNumber(float64(len(value.Items(args[0]))), ""), nil
		}),
		"nth": declare("$list, $n", func(_ *evaluator, args []value.Value) (value.Value, error) {
			items := value.Items(args[0])
			i, err := listIndex(args[1], len(items), "n")
			if err != nil {
				return nil, err
			}
			return items[i], nil
		}),
		"set-nth": declare("$list, $n, $value", func(_ *evaluator, args []value.Value) (value.Value, error) {
			items := value.Items(args[0])
			i, err := listIndex(args[1], len(items), "n")
			if err != nil {
				return nil, err
			}
			out := append([]value.Value(nil), items...)
			out[i] = args[2]
			return value.List{Items: out, Sep: value.SeparatorOf(args[0]), Bracketed: isBracketed(args[0])}, nil
		}),
		"join": declare("$list1, $list2, $separator: auto, $bracketed: auto", func(_ *evaluator, args []value.Value) (value.Value, error) {
			sep, err := separatorArg(args[2], "separator")
			if err != nil {
				return nil, err
			}
			if sep == value.SepUndecided {
				sep = listSep(args[0], listSep(args[1], value.SepSpace))
			}
			bracketed := isBracketed(args[0])
			if s, ok := args[3].(value.String); !ok || s.Text != "auto" {
				bracketed = args[3].Truthy()
			}
			items := append(append([]value.Value(nil), value.Items(args[0])...), value.Items(args[1])...)
			return value.List{Items: items, Sep: sep, Bracketed: bracketed}, nil
		}),
		"append": declare("$list, $val, $separator: auto", func(_ *evaluator, args []value.Value) (value.Value, error) {
			sep, err := separatorArg(args[2], "separator")
			if err != nil {
				return nil, err
			}
			if sep == value.SepUndecided {
				sep = listSep(args[0], value.SepSpace)
			}
			items := append(append([]value.Value(nil), value.Items(args[0])...), args[1])
			return value.List{Items: items, Sep: sep, Bracketed: isBracketed(args[0])}, nil
		}),
		"zip": declare("$lists...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			lists := value.Items(args[0])
			if len(lists) == 0 {
				return value.NewList(value.SepComma), nil
			}
			shortest := -1
			for _, l := range lists {
				if n := len(value.Items(l)); shortest < 0 || n < shortest {
					shortest = n
				}
			}
			out := make([]value.Value, shortest)
			for i := range out {
				row := make([]value.Value, len(lists))
				for j, l := range lists {
					row[j] = value.Items(l)[i]
				}
				out[i] = value.NewList(value.SepSpace, row...)
			}
			return value.NewList(value.SepComma, out...), nil
		}),
		"index": declare("$list, $value", func(_ *evaluator, args []value.Value) (value.Value, error) {
			for i, item := range value.Items(args[0]) {
				if item.Equal(args[1]) {
					return value.NewNumber(float64(i+1), ""), nil
				}
			}
			return value.Null, nil
		}),
		"separator": declare("$list", func(_ *evaluator, args []value.Value) (value.Value, error) {
			return value.Unquoted(listSep(args[0], value.SepSpace).Name()), nil
		}),
		"is-bracketed": declare("$list", func(_ *evaluator, args []value.Value) (value.Value, error) {
			return value.BoolOf(isBracketed(args[0])), nil
		}),
		"slash": declare("$elements...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			items := value.Items(args[0])
			if len(items) < 2 {
				return nil, argError("elements", "At least two elements are required.")
			}
			return value.NewList(value.SepSlash, items...), nil
		}),
	})
}
