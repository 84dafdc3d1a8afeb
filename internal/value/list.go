package value

import (
	"strings"
)

// Separator is the separator of a list
type Separator int

const (
	SepUndecided Separator = iota
	SepSpace
	SepComma
	SepSlash
)

// Name is the separator's name as reported by list.separator
func (s Separator) Name() string {
	switch s {
	case SepComma:
		return "comma"
	case SepSlash:
		return "slash"
	}
	return "space"
}

func (s Separator) join(compressed bool) string {
	switch s {
	case SepComma:
		if compressed {
			return ","
		}
		return ", "
	case SepSlash:
		return "/"
	}
	return " "
}

// List is a SassScript list
type List struct {
	Items     []Value
	Sep       Separator
	Bracketed bool
}

// NewList builds an unbracketed list
func NewList(sep Separator, items ...Value) List {
	return List{Items: items, Sep: sep}
}

func (l List) Kind() string { return "list" }

func (l List) Truthy() bool { return true }

func (l List) CSS(compressed bool) (string, error) {
	if len(l.Items) == 0 && !l.Bracketed {
		return "", notCSSError(l)
	}
	parts := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		if IsNull(item) {
			continue
		}
		if inner, ok := item.(List); ok && len(inner.Items) == 0 && !inner.Bracketed {
			continue
		}
		s, err := item.CSS(compressed)
		if err != nil {
			return "", err
		}
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	out := strings.Join(parts, l.Sep.join(compressed))
	if l.Bracketed {
		return "[" + out + "]", nil
	}
	return out, nil
}

func (l List) Inspect() string {
	if len(l.Items) == 0 {
		if l.Bracketed {
			return "[]"
		}
		return "()"
	}
	parts := make([]string, len(l.Items))
	for i, item := range l.Items {
		s := item.Inspect()
		if inner, ok := item.(List); ok && needsParens(l, inner) {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	out := strings.Join(parts, l.Sep.join(false))
	if len(l.Items) == 1 && l.Sep == SepComma {
		out += ","
	}
	if l.Bracketed {
		return "[" + out + "]"
	}
	if len(l.Items) == 1 && l.Sep == SepComma {
		return "(" + out + ")"
	}
	return out
}

func needsParens(outer, inner List) bool {
	if inner.Bracketed || len(inner.Items) < 2 {
		return false
	}
	if outer.Sep == SepComma {
		return inner.Sep == SepComma
	}
	return inner.Sep != SepUndecided
}

func (l List) Equal(other Value) bool {
	switch o := other.(type) {
	case List:
		if o.Bracketed != l.Bracketed || len(o.Items) != len(l.Items) {
			return false
		}
		if len(l.Items) > 1 && o.Sep != l.Sep {
			return false
		}
		for i := range l.Items {
			if !l.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	case *Map:
		return len(l.Items) == 0 && !l.Bracketed && o.Len() == 0
	}
	return false
}

// ArgList is the list bound to a rest parameter. Keywords holds the
// keyword arguments that matched no named parameter.
type ArgList struct {
	List
	Keywords *Map
}

func (a ArgList) Kind() string { return "arglist" }

func (a ArgList) Equal(other Value) bool {
	if o, ok := other.(ArgList); ok {
		return a.List.Equal(o.List)
	}
	return a.List.Equal(other)
}

// Items returns the elements of v viewed as a list: a map yields its
// key/value pairs as two-element space lists and any other value is a
// single-element list.
func Items(v Value) []Value {
	switch l := v.(type) {
	case List:
		return l.Items
	case ArgList:
		return l.Items
	case *Map:
		out := make([]Value, 0, l.Len())
		for i, k := range l.keys {
			out = append(out, NewList(SepSpace, k, l.vals[i]))
		}
		return out
	}
	if IsNull(v) {
		return nil
	}
	return []Value{v}
}

// SeparatorOf returns the separator v has when viewed as a list
func SeparatorOf(v Value) Separator {
	switch l := v.(type) {
	case List:
		return l.Sep
	case ArgList:
		return l.Sep
	case *Map:
		return SepComma
	}
	return SepSpace
}

// Map is an ordered SassScript map. Maps are never mutated after
// construction; Set returns a copy.
type Map struct {
	keys []Value
	vals []Value
}

// NewMap builds a map from alternating keys and values. Later duplicates
// replace earlier entries.
func NewMap(pairs ...Value) *Map {
	m := &Map{}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.put(pairs[i], pairs[i+1])
	}
	return m
}

func (m *Map) put(k, v Value) {
	for i, existing := range m.keys {
		if existing.Equal(k) {
			m.vals[i] = v
			return
		}
	}
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

// Len returns the number of entries
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order
func (m *Map) Keys() []Value { return append([]Value(nil), m.keys...) }

// Values returns the values in insertion order
func (m *Map) Values() []Value { return append([]Value(nil), m.vals...) }

// Get looks up a key
func (m *Map) Get(k Value) (Value, bool) {
	for i, existing := range m.keys {
		if existing.Equal(k) {
			return m.vals[i], true
		}
	}
	return nil, false
}

// Set returns a copy of m with k bound to v
func (m *Map) Set(k, v Value) *Map {
	out := m.clone()
	out.put(k, v)
	return out
}

// Delete returns a copy of m without the given keys
func (m *Map) Delete(keys ...Value) *Map {
	out := &Map{}
	for i, k := range m.keys {
		drop := false
		for _, d := range keys {
			if k.Equal(d) {
				drop = true
				break
			}
		}
		if !drop {
			out.keys = append(out.keys, k)
			out.vals = append(out.vals, m.vals[i])
		}
	}
	return out
}

// Merge returns a copy of m with every entry of o added or replaced
func (m *Map) Merge(o *Map) *Map {
	out := m.clone()
	for i, k := range o.keys {
		out.put(k, o.vals[i])
	}
	return out
}

func (m *Map) clone() *Map {
	return &Map{
		keys: append([]Value(nil), m.keys...),
		vals: append([]Value(nil), m.vals...),
	}
}

func (m *Map) Kind() string { return "map" }

func (m *Map) Truthy() bool { return true }

func (m *Map) CSS(bool) (string, error) {
	return "", notCSSError(m)
}

func (m *Map) Inspect() string {
	if len(m.keys) == 0 {
		return "()"
	}
	parts := make([]string, len(m.keys))
	for i, k := range m.keys {
		parts[i] = inspectMapEntry(k) + ": " + inspectMapEntry(m.vals[i])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func inspectMapEntry(v Value) string {
	if l, ok := v.(List); ok && l.Sep == SepComma && len(l.Items) > 1 && !l.Bracketed {
		return "(" + l.Inspect() + ")"
	}
	return v.Inspect()
}

func (m *Map) Equal(other Value) bool {
	switch o := other.(type) {
	case *Map:
		if o.Len() != m.Len() {
			return false
		}
		for i, k := range m.keys {
			v, ok := o.Get(k)
			if !ok || !v.Equal(m.vals[i]) {
				return false
			}
		}
		return true
	case List:
		return m.Len() == 0 && len(o.Items) == 0 && !o.Bracketed
	}
	return false
}
