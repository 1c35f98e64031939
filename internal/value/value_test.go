package value

import "testing"

func TestCompare_NullPropagatesAsUnknown(t *testing.T) {
	if got := Compare(Null, Int(1)); got != OrderUnknown {
		t.Errorf("Compare(Null, Int(1)) = %v, want OrderUnknown", got)
	}
	if got := Compare(Int(1), Null); got != OrderUnknown {
		t.Errorf("Compare(Int(1), Null) = %v, want OrderUnknown", got)
	}
}

func TestCompare_IntAndFloatPromote(t *testing.T) {
	if got := Compare(Int(2), Float(2.0)); got != OrderEqual {
		t.Errorf("Compare(Int(2), Float(2.0)) = %v, want OrderEqual", got)
	}
	if got := Compare(Int(1), Float(1.5)); got != OrderLess {
		t.Errorf("Compare(Int(1), Float(1.5)) = %v, want OrderLess", got)
	}
}

func TestCompare_UnrelatedKindsAreUnknown(t *testing.T) {
	if got := Compare(Str("1"), Int(1)); got != OrderUnknown {
		t.Errorf("Compare(Str(\"1\"), Int(1)) = %v, want OrderUnknown", got)
	}
}

func TestCompare_ListsLexicographic(t *testing.T) {
	a := List([]Value{Int(1), Int(2)})
	b := List([]Value{Int(1), Int(3)})
	if got := Compare(a, b); got != OrderLess {
		t.Errorf("Compare(a, b) = %v, want OrderLess", got)
	}
	c := List([]Value{Int(1)})
	if got := Compare(c, a); got != OrderLess {
		t.Errorf("shorter prefix list should order before its extension, got %v", got)
	}
}

func TestEquals_NullIsNeverEqual(t *testing.T) {
	if _, ok := Equals(Null, Null); ok {
		t.Error("Equals(Null, Null) should report ok = false")
	}
}

func TestEquals_NumericPromotion(t *testing.T) {
	eq, ok := Equals(Int(3), Float(3.0))
	if !ok || !eq {
		t.Errorf("Equals(Int(3), Float(3.0)) = (%v, %v), want (true, true)", eq, ok)
	}
}

func TestEquals_MapsCompareByKey(t *testing.T) {
	a := NewOrderedMap()
	a.Set("x", Int(1))
	b := NewOrderedMap()
	b.Set("x", Int(1))
	eq, ok := Equals(Map(a), Map(b))
	if !ok || !eq {
		t.Errorf("Equals(a, b) = (%v, %v), want (true, true)", eq, ok)
	}

	b.Set("y", Int(2))
	eq, ok = Equals(Map(a), Map(b))
	if !ok || eq {
		t.Errorf("Equals with differing key counts = (%v, %v), want (false, true)", eq, ok)
	}
}

func TestDedupEquals_TreatsTwoNullsAsEqual(t *testing.T) {
	if !DedupEquals(Null, Null) {
		t.Error("DedupEquals(Null, Null) should be true for DISTINCT purposes")
	}
	if DedupEquals(Null, Int(0)) {
		t.Error("DedupEquals(Null, Int(0)) should be false")
	}
}

func TestOrderedMap_PreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("b", Int(1))
	m.Set("a", Int(2))
	m.Set("c", Int(3))

	got := m.Keys()
	want := []string{"b", "a", "c"}
	for i, k := range want {
		if got[i] != k {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestOrderedMap_SortedKeysDoesNotMutateInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("z", Int(1))
	m.Set("a", Int(2))

	sorted := m.SortedKeys()
	if sorted[0] != "a" || sorted[1] != "z" {
		t.Fatalf("SortedKeys() = %v, want [a z]", sorted)
	}
	if m.Keys()[0] != "z" {
		t.Error("SortedKeys should not mutate insertion order returned by Keys")
	}
}

func TestOrderedMap_SetOverwritesWithoutDuplicatingKey(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", Int(1))
	m.Set("a", Int(2))

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	v, ok := m.Get("a")
	if !ok || v.AsInt() != 2 {
		t.Errorf("Get(a) = (%v, %v), want (2, true)", v, ok)
	}
}

func TestOrderedMap_Delete(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	m.Delete("a")

	if _, ok := m.Get("a"); ok {
		t.Error("expected a to be deleted")
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	if m.Keys()[0] != "b" {
		t.Errorf("Keys() = %v, want [b]", m.Keys())
	}
}

func TestOrderedMap_Clone(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", Int(1))
	c := m.Clone()
	c.Set("b", Int(2))

	if m.Len() != 1 {
		t.Error("cloning should not mutate the original map")
	}
	if c.Len() != 2 {
		t.Error("the clone should hold both keys")
	}
}

func TestValue_StringFormatsEachKind(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Null, "NULL"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(42), "42"},
		{Str("hi"), "hi"},
		{List([]Value{Int(1), Int(2)}), "[1, 2]"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
