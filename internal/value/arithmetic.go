package value

import (
	"math"

	"github.com/ritamzico/cyquery/internal/errs"
)

// Add implements Cypher's arithmetic addition: Null propagates, Int+Int
// stays Int (overflow fails), Int/Float mixes promote to Float,
// String+String concatenates, List+anything appends.
func Add(a, b Value) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null, nil
	}
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		sum := a.i + b.i
		if (b.i > 0 && sum < a.i) || (b.i < 0 && sum > a.i) {
			return Value{}, &errs.TypeError{Expected: "representable Int", Got: "overflow", Context: "+"}
		}
		return Int(sum), nil
	case numeric(a.Kind) && numeric(b.Kind):
		return Float(asFloat(a) + asFloat(b)), nil
	case a.Kind == KindString && b.Kind == KindString:
		return Str(a.s + b.s), nil
	case a.Kind == KindString || b.Kind == KindString:
		return Str(a.String() + b.String()), nil
	case a.Kind == KindList:
		out := append(append([]Value{}, a.AsList()...), flattenAppend(b)...)
		return List(out), nil
	case b.Kind == KindList:
		out := append([]Value{a}, b.AsList()...)
		return List(out), nil
	default:
		return Value{}, &errs.TypeError{Expected: "numeric, string, or list operands", Got: a.Kind.String() + " + " + b.Kind.String(), Context: "+"}
	}
}

func flattenAppend(b Value) []Value {
	if b.Kind == KindList {
		return b.AsList()
	}
	return []Value{b}
}

func arith(a, b Value, context string, intOp func(int64, int64) (int64, bool), floatOp func(float64, float64) float64) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null, nil
	}
	if a.Kind == KindInt && b.Kind == KindInt {
		r, ok := intOp(a.i, b.i)
		if !ok {
			return Value{}, &errs.TypeError{Expected: "non-zero divisor", Got: "0", Context: context}
		}
		return Int(r), nil
	}
	if numeric(a.Kind) && numeric(b.Kind) {
		return Float(floatOp(asFloat(a), asFloat(b))), nil
	}
	return Value{}, &errs.TypeError{Expected: "numeric operands", Got: a.Kind.String() + " " + context + " " + b.Kind.String(), Context: context}
}

func Sub(a, b Value) (Value, error) {
	return arith(a, b, "-",
		func(x, y int64) (int64, bool) { return x - y, true },
		func(x, y float64) float64 { return x - y })
}

func Mul(a, b Value) (Value, error) {
	return arith(a, b, "*",
		func(x, y int64) (int64, bool) { return x * y, true },
		func(x, y float64) float64 { return x * y })
}

// Div implements the documented boundary behavior: integer division by
// zero is a TypeError, float division by zero yields IEEE Inf/NaN.
func Div(a, b Value) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null, nil
	}
	if a.Kind == KindInt && b.Kind == KindInt {
		if b.i == 0 {
			return Value{}, &errs.TypeError{Expected: "non-zero divisor", Got: "0", Context: "/"}
		}
		return Int(a.i / b.i), nil
	}
	if numeric(a.Kind) && numeric(b.Kind) {
		return Float(asFloat(a) / asFloat(b)), nil
	}
	return Value{}, &errs.TypeError{Expected: "numeric operands", Got: a.Kind.String() + " / " + b.Kind.String(), Context: "/"}
}

func Mod(a, b Value) (Value, error) {
	return arith(a, b, "%",
		func(x, y int64) (int64, bool) {
			if y == 0 {
				return 0, false
			}
			return x % y, true
		},
		func(x, y float64) float64 { return math.Mod(x, y) })
}

func Pow(a, b Value) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null, nil
	}
	if !numeric(a.Kind) || !numeric(b.Kind) {
		return Value{}, &errs.TypeError{Expected: "numeric operands", Got: a.Kind.String() + " ^ " + b.Kind.String(), Context: "^"}
	}
	return Float(math.Pow(asFloat(a), asFloat(b))), nil
}

func Negate(a Value) (Value, error) {
	if a.IsNull() {
		return Null, nil
	}
	switch a.Kind {
	case KindInt:
		return Int(-a.i), nil
	case KindFloat:
		return Float(-a.f), nil
	default:
		return Value{}, &errs.TypeError{Expected: "numeric operand", Got: a.Kind.String(), Context: "unary -"}
	}
}
