// Package value implements the tagged Value variant shared by the parser,
// planner, and executor.
package value

import (
	"fmt"
	"sort"
)

// Kind discriminates the Value union.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindNode
	KindRelationship
	KindPath
	KindDate
	KindTime
	KindDateTime
	KindLocalDateTime
	KindDuration
	KindPoint2D
	KindPoint3D
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindNode:
		return "Node"
	case KindRelationship:
		return "Relationship"
	case KindPath:
		return "Path"
	case KindDate:
		return "Date"
	case KindTime:
		return "Time"
	case KindDateTime:
		return "DateTime"
	case KindLocalDateTime:
		return "LocalDateTime"
	case KindDuration:
		return "Duration"
	case KindPoint2D:
		return "Point2D"
	case KindPoint3D:
		return "Point3D"
	default:
		return "Unknown"
	}
}

// Value is a single tagged variant over the Cypher value space. It is kept
// as a flat struct (not an interface) so that comparisons and zero-value
// checks stay allocation-free for the common scalar cases.
type Value struct {
	Kind Kind

	b bool
	i int64
	f float64
	s string

	// payload holds List ([]Value), Map (*OrderedMap), Bytes ([]byte),
	// Node/Relationship/Path (model types, via the entity interface),
	// and temporal/spatial structs.
	payload any
}

// Null is the singleton Null value.
var Null = Value{Kind: KindNull}

func Bool(b bool) Value { return Value{Kind: KindBool, b: b} }
func Int(i int64) Value { return Value{Kind: KindInt, i: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, f: f} }
func Str(s string) Value { return Value{Kind: KindString, s: s} }
func Bytes(b []byte) Value { return Value{Kind: KindBytes, payload: b} }
func List(items []Value) Value { return Value{Kind: KindList, payload: items} }
func Map(m *OrderedMap) Value { return Value{Kind: KindMap, payload: m} }

// Entity wraps a Node/Relationship/Path payload (from internal/model) into
// a Value of the matching Kind. Callers pass the model.Kind alongside the
// payload since this package cannot import internal/model.
func Entity(k Kind, payload any) Value { return Value{Kind: k, payload: payload} }

func (v Value) IsNull() bool { return v.Kind == KindNull }
func (v Value) AsBool() bool { return v.b }
func (v Value) AsInt() int64 { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsString() string { return v.s }
func (v Value) AsBytes() []byte { b, _ := v.payload.([]byte); return b }
func (v Value) AsList() []Value { l, _ := v.payload.([]Value); return l }
func (v Value) AsMap() *OrderedMap { m, _ := v.payload.(*OrderedMap); return m }
func (v Value) Payload() any { return v.payload }

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("%x", v.AsBytes())
	case KindList:
		items := v.AsList()
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = it.String()
		}
		return "[" + joinComma(parts) + "]"
	case KindMap:
		return v.AsMap().String()
	default:
		return fmt.Sprintf("%v", v.payload)
	}
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// OrderedMap is an insertion-order-preserving string->Value mapping, used
// for both Cypher map literals and node/relationship property maps, whose
// entries must round-trip in insertion order.
type OrderedMap struct {
	keys   []string
	values map[string]Value
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]Value)}
}

func (m *OrderedMap) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *OrderedMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// SortedKeys returns keys in lexicographic order, used by the DUMP exporter.
func (m *OrderedMap) SortedKeys() []string {
	out := m.Keys()
	sort.Strings(out)
	return out
}

func (m *OrderedMap) Len() int { return len(m.keys) }

func (m *OrderedMap) Clone() *OrderedMap {
	c := NewOrderedMap()
	for _, k := range m.keys {
		c.Set(k, m.values[k])
	}
	return c
}

func (m *OrderedMap) String() string {
	parts := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, m.values[k].String()))
	}
	return "{" + joinComma(parts) + "}"
}
