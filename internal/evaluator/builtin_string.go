package evaluator

import (
	"strconv"
	"strings"

	"bennypowers.dev/scssc/internal/value"
)

// stringIndex converts a 1-based, possibly negative index into a rune
// offset clamped to [0, n]
func stringIndex(i, n int) int {
	switch {
	case i == 0:
		return 0
	case i > 0:
		return min(i-1, n)
	case -i > n:
		return 0
	}
	return n + i
}

func stringFunctions() map[string]*builtinFunc {
	return named(map[string]*builtinFunc{
		"quote": declare("$string", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "string")
			if err != nil {
				return nil, err
			}
			return value.Quoted(s.Text), nil
		}),
		"unquote": declare("$string", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "string")
			if err != nil {
				return nil, err
			}
			return value.Unquoted(s.Text), nil
		}),
		"length": declare("$string", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "string")
			if err != nil {
				return nil, err
			}
			return value.NewNumber(float64(len([]rune(s.Text))), ""), nil
		}),
		"index": declare("$string, $substring", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "string")
			if err != nil {
				return nil, err
			}
			sub, err := stringArg(args[1], "substring")
			if err != nil {
				return nil, err
			}
			i := strings.Index(s.Text, sub.Text)
			if i < 0 {
				return value.Null, nil
			}
			return value.NewNumber(float64(len([]rune(s.Text[:i]))+1), ""), nil
		}),
		"insert": declare("$string, $insert, $index", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "string")
			if err != nil {
				return nil, err
			}
			ins, err := stringArg(args[1], "insert")
			if err != nil {
				return nil, err
			}
			idx, err := intArg(args[2], "index")
			if err != nil {
				return nil, err
			}
			runes := []rune(s.Text)
			var at int
			if idx < 0 {
				// -1 inserts after the last character
				at = max(len(runes)+idx+1, 0)
			} else {
				at = stringIndex(idx, len(runes))
			}
			out := string(runes[:at]) + ins.Text + string(runes[at:])
			return value.String{Text: out, Quoted: s.Quoted}, nil
		}),
		"slice": declare("$string, $start-at, $end-at: -1", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "string")
			if err != nil {
				return nil, err
			}
			start, err := intArg(args[1], "start-at")
			if err != nil {
				return nil, err
			}
			end, err := intArg(args[2], "end-at")
			if err != nil {
				return nil, err
			}
			runes := []rune(s.Text)
			from := stringIndex(start, len(runes))
			var to int
			switch {
			case end == 0:
				to = 0
			case end > 0:
				to = min(end, len(runes))
			default:
				to = max(len(runes)+end+1, 0)
			}
			if from >= to {
				return value.String{Quoted: s.Quoted}, nil
			}
			return value.String{Text: string(runes[from:to]), Quoted: s.Quoted}, nil
		}),
		"to-upper-case": declare("$string", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "string")
			if err != nil {
				return nil, err
			}
			return value.String{Text: asciiCase(s.Text, true), Quoted: s.Quoted}, nil
		}),
		"to-lower-case": declare("$string", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "string")
			if err != nil {
				return nil, err
			}
			return value.String{Text: asciiCase(s.Text, false), Quoted: s.Quoted}, nil
		}),
		"unique-id": declare("", func(e *evaluator, _ []value.Value) (value.Value, error) {
			e.uniqueID++
			return value.Unquoted("u" + strconv.FormatInt(int64(e.uniqueID)*7919+int64(e.rand.IntN(1000)), 36)), nil
		}),
		"split": declare("$string, $separator, $limit: null", func(_ *evaluator, args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0], "string")
			if err != nil {
				return nil, err
			}
			sep, err := stringArg(args[1], "separator")
			if err != nil {
				return nil, err
			}
			limit := -1
			if !value.IsNull(args[2]) {
				n, err := intArg(args[2], "limit")
				if err != nil {
					return nil, err
				}
				if n < 1 {
					return nil, argError("limit", "Must be 1 or greater, was %d.", n)
				}
				limit = n + 1
			}
			parts := strings.SplitN(s.Text, sep.Text, limit)
			items := make([]value.Value, len(parts))
			for i, p := range parts {
				items[i] = value.String{Text: p, Quoted: s.Quoted}
			}
			return value.List{Items: items, Sep: value.SepComma, Bracketed: true}, nil
		}),
	})
}

// asciiCase changes the case of ASCII letters only
func asciiCase(s string, upper bool) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case upper && c >= 'a' && c <= 'z':
			b[i] = c - 32
		case !upper && c >= 'A' && c <= 'Z':
			b[i] = c + 32
		}
	}
	return string(b)
}
