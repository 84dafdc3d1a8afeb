package evaluator

import (
	"bennypowers.dev/scssc/internal/value"
)

// mapPath follows keys through nested maps, returning the innermost map
// and whether every key led to a map
func mapPath(m *value.Map, keys []value.Value) (*value.Map, bool) {
	for _, k := range keys {
		v, ok := m.Get(k)
		if !ok {
			return nil, false
		}
		inner, ok := v.(*value.Map)
		if !ok {
			return nil, false
		}
		m = inner
	}
	return m, true
}

// setPath returns a copy of m with v set at the nested key path
func setPath(m *value.Map, keys []value.Value, v value.Value) *value.Map {
	if len(keys) == 1 {
		return m.Set(keys[0], v)
	}
	inner := value.NewMap()
	if existing, ok := m.Get(keys[0]); ok {
		if em, ok := existing.(*value.Map); ok {
			inner = em
		}
	}
	return m.Set(keys[0], setPath(inner, keys[1:], v))
}

func deepMerge(a, b *value.Map) *value.Map {
	out := a
	keys, vals := b.Keys(), b.Values()
	for i, k := range keys {
		if existing, ok := out.Get(k); ok {
			em, ok1 := existing.(*value.Map)
			nm, ok2 := vals[i].(*value.Map)
			if ok1 && ok2 {
				out = out.Set(k, deepMerge(em, nm))
				continue
			}
		}
		out = out.Set(k, vals[i])
	}
	return out
}

func mapFunctions() map[string]*builtinFunc {
	return named(map[string]*builtinFunc{
		"get": declare("$map, $key, $keys...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			m, err := mapArg(args[0], "map")
			if err != nil {
				return nil, err
			}
			keys := append([]value.Value{args[1]}, value.Items(args[2])...)
			inner, ok := mapPath(m, keys[:len(keys)-1])
			if !ok {
				return value.Null, nil
			}
			v, ok := inner.Get(keys[len(keys)-1])
			if !ok {
				return value.Null, nil
			}
			return v, nil
		}),
		"has-key": declare("$map, $key, $keys...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			m, err := mapArg(args[0], "map")
			if err != nil {
				return nil, err
			}
			keys := append([]value.Value{args[1]}, value.Items(args[2])...)
			inner, ok := mapPath(m, keys[:len(keys)-1])
			if !ok {
				return value.False, nil
			}
			_, ok = inner.Get(keys[len(keys)-1])
			return value.BoolOf(ok), nil
		}),
		"merge": declare("$map1, $args...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			m, err := mapArg(args[0], "map1")
			if err != nil {
				return nil, err
			}
			rest := value.Items(args[1])
			if len(rest) == 0 {
				return nil, argError("map2", "Missing argument.")
			}
			other, err := mapArg(rest[len(rest)-1], "map2")
			if err != nil {
				return nil, err
			}
			keys := rest[:len(rest)-1]
			if len(keys) == 0 {
				return m.Merge(other), nil
			}
			inner, ok := mapPath(m, keys)
			if !ok {
				inner = value.NewMap()
			}
			return setPath(m, keys, inner.Merge(other)), nil
		}),
		"deep-merge": declare("$map1, $map2", func(_ *evaluator, args []value.Value) (value.Value, error) {
			a, err := mapArg(args[0], "map1")
			if err != nil {
				return nil, err
			}
			b, err := mapArg(args[1], "map2")
			if err != nil {
				return nil, err
			}
			return deepMerge(a, b), nil
		}),
		"remove": declare("$map, $keys...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			m, err := mapArg(args[0], "map")
			if err != nil {
				return nil, err
			}
			return m.Delete(value.Items(args[1])...), nil
		}),
		"set": declare("$map, $args...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			m, err := mapArg(args[0], "map")
			if err != nil {
				return nil, err
			}
			rest := value.Items(args[1])
			if len(rest) < 2 {
				return nil, argError("args", "Expected a key and a value.")
			}
			return setPath(m, rest[:len(rest)-1], rest[len(rest)-1]), nil
		}),
		"keys": declare("$map", func(_ *evaluator, args []value.Value) (value.Value, error) {
			m, err := mapArg(args[0], "map")
			if err != nil {
				return nil, err
			}
			return value.NewList(value.SepComma, m.Keys()...), nil
		}),
		"values": declare("$map", func(_ *evaluator, args []value.Value) (value.Value, error) {
			m, err := mapArg(args[0], "map")
			if err != nil {
				return nil, err
			}
			return value.NewList(value.SepComma, m.Values()...), nil
		}),
	})
}
