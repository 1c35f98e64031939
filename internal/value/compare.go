package value

// Ordering is the result of a three-valued comparison.
type Ordering int

const (
	OrderLess Ordering = iota
	OrderEqual
	OrderGreater
	OrderUnknown // either operand was Null, or the kinds are unrelated
)

// numeric reports whether k is Int or Float.
func numeric(k Kind) bool { return k == KindInt || k == KindFloat }

func asFloat(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Compare implements a three-valued ordering: Null propagates, Int/Float
// compare after promoting Int to Float, and ordering across unrelated
// kinds is OrderUnknown (renders as Null for <,>,<=,>=).
func Compare(a, b Value) Ordering {
	if a.IsNull() || b.IsNull() {
		return OrderUnknown
	}

	if numeric(a.Kind) && numeric(b.Kind) {
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return OrderLess
		case af > bf:
			return OrderGreater
		default:
			return OrderEqual
		}
	}

	if a.Kind != b.Kind {
		return OrderUnknown
	}

	switch a.Kind {
	case KindString:
		switch {
		case a.s < b.s:
			return OrderLess
		case a.s > b.s:
			return OrderGreater
		default:
			return OrderEqual
		}
	case KindBool:
		switch {
		case a.b == b.b:
			return OrderEqual
		case !a.b && b.b:
			return OrderLess
		default:
			return OrderGreater
		}
	case KindList:
		return compareLists(a.AsList(), b.AsList())
	default:
		return OrderUnknown
	}
}

func compareLists(a, b []Value) Ordering {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if o := Compare(a[i], b[i]); o != OrderEqual {
			return o
		}
	}
	switch {
	case len(a) < len(b):
		return OrderLess
	case len(a) > len(b):
		return OrderGreater
	default:
		return OrderEqual
	}
}

// Equals implements Cypher equality: Null = Null is Null (reported via ok
// = false), numeric kinds compare after promotion, composite kinds compare
// element-wise.
func Equals(a, b Value) (result bool, ok bool) {
	if a.IsNull() || b.IsNull() {
		return false, false
	}
	if numeric(a.Kind) && numeric(b.Kind) {
		return asFloat(a) == asFloat(b), true
	}
	if a.Kind != b.Kind {
		return false, true
	}
	switch a.Kind {
	case KindBool:
		return a.b == b.b, true
	case KindString:
		return a.s == b.s, true
	case KindList:
		la, lb := a.AsList(), b.AsList()
		if len(la) != len(lb) {
			return false, true
		}
		for i := range la {
			eq, eqOK := Equals(la[i], lb[i])
			if !eqOK {
				return false, false
			}
			if !eq {
				return false, true
			}
		}
		return true, true
	case KindMap:
		ma, mb := a.AsMap(), b.AsMap()
		if ma.Len() != mb.Len() {
			return false, true
		}
		for _, k := range ma.Keys() {
			va, _ := ma.Get(k)
			vb, present := mb.Get(k)
			if !present {
				return false, true
			}
			eq, eqOK := Equals(va, vb)
			if !eqOK {
				return false, false
			}
			if !eq {
				return false, true
			}
		}
		return true, true
	default:
		return false, true
	}
}

// DedupEquals implements the DISTINCT-specific exception: two Nulls are
// treated as equal for deduplication purposes, even though Null = Null
// is Null everywhere else.
func DedupEquals(a, b Value) bool {
	if a.IsNull() && b.IsNull() {
		return true
	}
	eq, ok := Equals(a, b)
	return ok && eq
}
