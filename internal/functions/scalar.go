package functions

import (
	"math"
	"strconv"
	"strings"

	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/model"
	"github.com/ritamzico/cyquery/internal/value"
)

func registerScalars(r *Registry) {
	r.addScalar("id", idFn{})
	r.addScalar("labels", labelsFn{})
	r.addScalar("type", typeFn{})
	r.addScalar("keys", keysFn{})
	r.addScalar("properties", propertiesFn{})
	r.addScalar("size", sizeFn{})
	r.addScalar("length", lengthFn{})
	r.addScalar("coalesce", coalesceFn{})
	r.addScalar("head", headFn{})
	r.addScalar("tail", tailFn{})
	r.addScalar("last", lastFn{})
	r.addScalar("range", rangeFn{})
	r.addScalar("tointeger", toIntegerFn{})
	r.addScalar("tofloat", toFloatFn{})
	r.addScalar("tostring", toStringFn{})
	r.addScalar("toboolean", toBooleanFn{})
	r.addScalar("abs", absFn{})
	r.addScalar("ceil", ceilFn{})
	r.addScalar("floor", floorFn{})
	r.addScalar("round", roundFn{})
	r.addScalar("sqrt", sqrtFn{})
	r.addScalar("trim", trimFn{})
	r.addScalar("tolower", toLowerFn{})
	r.addScalar("toupper", toUpperFn{})
	r.addScalar("substring", substringFn{})
	r.addScalar("replace", replaceFn{})
	r.addScalar("split", splitFn{})
	r.addScalar("haslabel", hasLabelFn{})
}

func arityError(name string, want int, got int) error {
	return &errs.SemanticError{Message: name + "() expects " + strconv.Itoa(want) + " argument(s), got " + strconv.Itoa(got)}
}

type idFn struct{}

func (idFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("id", 1, len(args))
	}
	v := args[0]
	switch v.Kind {
	case value.KindNode:
		return value.Int(int64(v.Payload().(*model.Node).ID)), nil
	case value.KindRelationship:
		return value.Int(int64(v.Payload().(*model.Relationship).ID)), nil
	case value.KindNull:
		return value.Null, nil
	default:
		return value.Null, &errs.TypeError{Expected: "Node or Relationship", Got: v.Kind.String(), Context: "id()"}
	}
}

type labelsFn struct{}

func (labelsFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("labels", 1, len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	n, ok := args[0].Payload().(*model.Node)
	if !ok {
		return value.Null, &errs.TypeError{Expected: "Node", Got: args[0].Kind.String(), Context: "labels()"}
	}
	items := make([]value.Value, len(n.Labels))
	for i, l := range n.Labels {
		items[i] = value.Str(l)
	}
	return value.List(items), nil
}

type typeFn struct{}

func (typeFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("type", 1, len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	rel, ok := args[0].Payload().(*model.Relationship)
	if !ok {
		return value.Null, &errs.TypeError{Expected: "Relationship", Got: args[0].Kind.String(), Context: "type()"}
	}
	return value.Str(rel.Type), nil
}

type keysFn struct{}

func (keysFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("keys", 1, len(args))
	}
	props, err := propsOfValue(args[0])
	if err != nil {
		return value.Null, err
	}
	if props == nil {
		return value.Null, nil
	}
	keys := props.Keys()
	items := make([]value.Value, len(keys))
	for i, k := range keys {
		items[i] = value.Str(k)
	}
	return value.List(items), nil
}

type propertiesFn struct{}

func (propertiesFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("properties", 1, len(args))
	}
	props, err := propsOfValue(args[0])
	if err != nil {
		return value.Null, err
	}
	if props == nil {
		return value.Null, nil
	}
	return value.Map(props.Clone()), nil
}

func propsOfValue(v value.Value) (*value.OrderedMap, error) {
	switch v.Kind {
	case value.KindNull:
		return nil, nil
	case value.KindNode:
		return v.Payload().(*model.Node).Props, nil
	case value.KindRelationship:
		return v.Payload().(*model.Relationship).Props, nil
	case value.KindMap:
		return v.AsMap(), nil
	default:
		return nil, &errs.TypeError{Expected: "Node, Relationship, or Map", Got: v.Kind.String(), Context: "properties()"}
	}
}

type sizeFn struct{}

func (sizeFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("size", 1, len(args))
	}
	v := args[0]
	if v.IsNull() {
		return value.Null, nil
	}
	switch v.Kind {
	case value.KindList:
		return value.Int(int64(len(v.AsList()))), nil
	case value.KindString:
		return value.Int(int64(len(v.AsString()))), nil
	default:
		return value.Null, &errs.TypeError{Expected: "List or String", Got: v.Kind.String(), Context: "size()"}
	}
}

type lengthFn struct{}

func (lengthFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("length", 1, len(args))
	}
	v := args[0]
	if v.IsNull() {
		return value.Null, nil
	}
	if v.Kind != value.KindPath {
		return value.Null, &errs.TypeError{Expected: "Path", Got: v.Kind.String(), Context: "length()"}
	}
	p := v.Payload().(model.Path)
	return value.Int(int64(p.Length())), nil
}

type coalesceFn struct{}

func (coalesceFn) Call(args []value.Value) (value.Value, error) {
	for _, a := range args {
		if !a.IsNull() {
			return a, nil
		}
	}
	return value.Null, nil
}

type headFn struct{}

func (headFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("head", 1, len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	items := args[0].AsList()
	if len(items) == 0 {
		return value.Null, nil
	}
	return items[0], nil
}

type tailFn struct{}

func (tailFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("tail", 1, len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	items := args[0].AsList()
	if len(items) == 0 {
		return value.List(nil), nil
	}
	return value.List(append([]value.Value{}, items[1:]...)), nil
}

type lastFn struct{}

func (lastFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("last", 1, len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	items := args[0].AsList()
	if len(items) == 0 {
		return value.Null, nil
	}
	return items[len(items)-1], nil
}

type rangeFn struct{}

func (rangeFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return value.Null, &errs.SemanticError{Message: "range() expects 2 or 3 arguments, got " + strconv.Itoa(len(args))}
	}
	for _, a := range args {
		if a.IsNull() {
			return value.Null, nil
		}
	}
	start, end := args[0].AsInt(), args[1].AsInt()
	step := int64(1)
	if len(args) == 3 {
		step = args[2].AsInt()
		if step == 0 {
			return value.Null, &errs.TypeError{Expected: "non-zero step", Got: "0", Context: "range()"}
		}
	}
	var items []value.Value
	if step > 0 {
		for i := start; i <= end; i += step {
			items = append(items, value.Int(i))
		}
	} else {
		for i := start; i >= end; i += step {
			items = append(items, value.Int(i))
		}
	}
	return value.List(items), nil
}

type toIntegerFn struct{}

func (toIntegerFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("toInteger", 1, len(args))
	}
	v := args[0]
	switch v.Kind {
	case value.KindNull:
		return value.Null, nil
	case value.KindInt:
		return v, nil
	case value.KindFloat:
		return value.Int(int64(v.AsFloat())), nil
	case value.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.AsString()), 10, 64)
		if err != nil {
			return value.Null, nil
		}
		return value.Int(n), nil
	default:
		return value.Null, &errs.TypeError{Expected: "Int, Float, or String", Got: v.Kind.String(), Context: "toInteger()"}
	}
}

type toFloatFn struct{}

func (toFloatFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("toFloat", 1, len(args))
	}
	v := args[0]
	switch v.Kind {
	case value.KindNull:
		return value.Null, nil
	case value.KindFloat:
		return v, nil
	case value.KindInt:
		return value.Float(float64(v.AsInt())), nil
	case value.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64)
		if err != nil {
			return value.Null, nil
		}
		return value.Float(f), nil
	default:
		return value.Null, &errs.TypeError{Expected: "Int, Float, or String", Got: v.Kind.String(), Context: "toFloat()"}
	}
}

type toStringFn struct{}

func (toStringFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("toString", 1, len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	switch args[0].Kind {
	case value.KindString, value.KindInt, value.KindFloat, value.KindBool:
		return value.Str(args[0].String()), nil
	default:
		return value.Null, &errs.TypeError{Expected: "scalar type", Got: args[0].Kind.String(), Context: "toString()"}
	}
}

type toBooleanFn struct{}

func (toBooleanFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError("toBoolean", 1, len(args))
	}
	v := args[0]
	switch v.Kind {
	case value.KindNull:
		return value.Null, nil
	case value.KindBool:
		return v, nil
	case value.KindString:
		switch strings.ToLower(v.AsString()) {
		case "true":
			return value.Bool(true), nil
		case "false":
			return value.Bool(false), nil
		default:
			return value.Null, nil
		}
	default:
		return value.Null, &errs.TypeError{Expected: "Bool or String", Got: v.Kind.String(), Context: "toBoolean()"}
	}
}

func numericArg(name string, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError(name, 1, len(args))
	}
	v := args[0]
	if v.IsNull() {
		return value.Null, nil
	}
	if v.Kind != value.KindInt && v.Kind != value.KindFloat {
		return value.Null, &errs.TypeError{Expected: "Int or Float", Got: v.Kind.String(), Context: name + "()"}
	}
	return v, nil
}

type absFn struct{}

func (absFn) Call(args []value.Value) (value.Value, error) {
	v, err := numericArg("abs", args)
	if err != nil || v.IsNull() {
		return v, err
	}
	if v.Kind == value.KindInt {
		if v.AsInt() < 0 {
			return value.Int(-v.AsInt()), nil
		}
		return v, nil
	}
	return value.Float(math.Abs(v.AsFloat())), nil
}

type ceilFn struct{}

func (ceilFn) Call(args []value.Value) (value.Value, error) {
	v, err := numericArg("ceil", args)
	if err != nil || v.IsNull() {
		return v, err
	}
	if v.Kind == value.KindInt {
		return v, nil
	}
	return value.Float(math.Ceil(v.AsFloat())), nil
}

type floorFn struct{}

func (floorFn) Call(args []value.Value) (value.Value, error) {
	v, err := numericArg("floor", args)
	if err != nil || v.IsNull() {
		return v, err
	}
	if v.Kind == value.KindInt {
		return v, nil
	}
	return value.Float(math.Floor(v.AsFloat())), nil
}

type roundFn struct{}

func (roundFn) Call(args []value.Value) (value.Value, error) {
	v, err := numericArg("round", args)
	if err != nil || v.IsNull() {
		return v, err
	}
	if v.Kind == value.KindInt {
		return v, nil
	}
	return value.Float(math.Round(v.AsFloat())), nil
}

type sqrtFn struct{}

func (sqrtFn) Call(args []value.Value) (value.Value, error) {
	v, err := numericArg("sqrt", args)
	if err != nil || v.IsNull() {
		return v, err
	}
	f := v.AsFloat()
	if v.Kind == value.KindInt {
		f = float64(v.AsInt())
	}
	return value.Float(math.Sqrt(f)), nil
}

func stringArg(name string, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, arityError(name, 1, len(args))
	}
	v := args[0]
	if v.IsNull() {
		return value.Null, nil
	}
	if v.Kind != value.KindString {
		return value.Null, &errs.TypeError{Expected: "String", Got: v.Kind.String(), Context: name + "()"}
	}
	return v, nil
}

type trimFn struct{}

func (trimFn) Call(args []value.Value) (value.Value, error) {
	v, err := stringArg("trim", args)
	if err != nil || v.IsNull() {
		return v, err
	}
	return value.Str(strings.TrimSpace(v.AsString())), nil
}

type toLowerFn struct{}

func (toLowerFn) Call(args []value.Value) (value.Value, error) {
	v, err := stringArg("toLower", args)
	if err != nil || v.IsNull() {
		return v, err
	}
	return value.Str(strings.ToLower(v.AsString())), nil
}

type toUpperFn struct{}

func (toUpperFn) Call(args []value.Value) (value.Value, error) {
	v, err := stringArg("toUpper", args)
	if err != nil || v.IsNull() {
		return v, err
	}
	return value.Str(strings.ToUpper(v.AsString())), nil
}

type substringFn struct{}

func (substringFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return value.Null, &errs.SemanticError{Message: "substring() expects 2 or 3 arguments, got " + strconv.Itoa(len(args))}
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	s := args[0].AsString()
	start := int(args[1].AsInt())
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		start = len(s)
	}
	end := len(s)
	if len(args) == 3 {
		length := int(args[2].AsInt())
		if start+length < end {
			end = start + length
		}
	}
	return value.Str(s[start:end]), nil
}

type replaceFn struct{}

func (replaceFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.Null, arityError("replace", 3, len(args))
	}
	for _, a := range args {
		if a.IsNull() {
			return value.Null, nil
		}
	}
	return value.Str(strings.ReplaceAll(args[0].AsString(), args[1].AsString(), args[2].AsString())), nil
}

type splitFn struct{}

func (splitFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Null, arityError("split", 2, len(args))
	}
	if args[0].IsNull() || args[1].IsNull() {
		return value.Null, nil
	}
	parts := strings.Split(args[0].AsString(), args[1].AsString())
	items := make([]value.Value, len(parts))
	for i, p := range parts {
		items[i] = value.Str(p)
	}
	return value.List(items), nil
}

// hasLabelFn backs the planner's multi-label MATCH filter predicate
// (internal/planner's multiLabelPredicate): `hasLabel(n, "Label")`.
type hasLabelFn struct{}

func (hasLabelFn) Call(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Null, arityError("hasLabel", 2, len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	n, ok := args[0].Payload().(*model.Node)
	if !ok {
		return value.Null, &errs.TypeError{Expected: "Node", Got: args[0].Kind.String(), Context: "hasLabel()"}
	}
	return value.Bool(n.HasLabel(args[1].AsString())), nil
}

