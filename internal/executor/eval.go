package executor

import (
	"regexp"
	"strings"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/model"
	"github.com/ritamzico/cyquery/internal/value"
)

// Eval evaluates expr against row under three-valued logic, walking the
// expression tree recursively through the full operator precedence table
// and dispatching function calls through the registered FuncRegistry.
func Eval(expr ast.Expression, row Row, ec *Context) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return evalLiteral(e), nil

	case *ast.Variable:
		if v, ok := row[e.Name]; ok {
			return v, nil
		}
		return value.Null, nil

	case *ast.Parameter:
		if v, ok := ec.Params[e.Name]; ok {
			return v, nil
		}
		return value.Null, nil

	case *ast.PropertyAccess:
		target, err := Eval(e.Target, row, ec)
		if err != nil {
			return value.Null, err
		}
		return evalPropertyAccess(target, e.Key)

	case *ast.Subscript:
		return evalSubscript(e, row, ec)

	case *ast.ListLiteral:
		items := make([]value.Value, len(e.Items))
		for i, it := range e.Items {
			v, err := Eval(it, row, ec)
			if err != nil {
				return value.Null, err
			}
			items[i] = v
		}
		return value.List(items), nil

	case *ast.MapLiteral:
		return evalMapLiteral(e, row, ec)

	case *ast.UnaryOp:
		return evalUnary(e, row, ec)

	case *ast.NullCheck:
		v, err := Eval(e.Operand, row, ec)
		if err != nil {
			return value.Null, err
		}
		isNull := v.IsNull()
		if e.Negated {
			return value.Bool(!isNull), nil
		}
		return value.Bool(isNull), nil

	case *ast.BinaryOp:
		return evalBinary(e, row, ec)

	case *ast.FunctionCall:
		return evalFunctionCall(e, row, ec)

	case *ast.CaseExpr:
		return evalCase(e, row, ec)

	case *ast.QuantifierExpr:
		return evalQuantifier(e, row, ec)

	case *ast.PatternExpr:
		return value.Null, &errs.ExecutionError{Message: "EXISTS pattern predicates are not supported by the expression evaluator"}

	default:
		return value.Null, &errs.ExecutionError{Message: "cannot evaluate expression of unknown type"}
	}
}

func evalLiteral(l *ast.Literal) value.Value {
	switch l.Kind {
	case ast.LitNull:
		return value.Null
	case ast.LitBool:
		return value.Bool(l.Bool)
	case ast.LitInt:
		return value.Int(l.Int)
	case ast.LitFloat:
		return value.Float(l.Float)
	case ast.LitString:
		return value.Str(l.Str)
	default:
		return value.Null
	}
}

func evalPropertyAccess(target value.Value, key string) (value.Value, error) {
	if target.IsNull() {
		return value.Null, nil
	}
	switch target.Kind {
	case value.KindNode:
		n := target.Payload().(*model.Node)
		if v, ok := n.Props.Get(key); ok {
			return v, nil
		}
		return value.Null, nil
	case value.KindRelationship:
		r := target.Payload().(*model.Relationship)
		if v, ok := r.Props.Get(key); ok {
			return v, nil
		}
		return value.Null, nil
	case value.KindMap:
		m := target.AsMap()
		if v, ok := m.Get(key); ok {
			return v, nil
		}
		return value.Null, nil
	default:
		return value.Null, &errs.TypeError{Expected: "Node, Relationship, or Map", Got: target.Kind.String(), Context: "property access ." + key}
	}
}

func evalSubscript(e *ast.Subscript, row Row, ec *Context) (value.Value, error) {
	target, err := Eval(e.Target, row, ec)
	if err != nil {
		return value.Null, err
	}
	if target.IsNull() {
		return value.Null, nil
	}

	if e.IsSlice {
		from, to := 0, -1
		if e.RangeFrom != nil {
			fv, err := Eval(e.RangeFrom, row, ec)
			if err != nil {
				return value.Null, err
			}
			from = int(fv.AsInt())
		}
		if e.RangeTo != nil {
			tv, err := Eval(e.RangeTo, row, ec)
			if err != nil {
				return value.Null, err
			}
			to = int(tv.AsInt())
		}
		switch target.Kind {
		case value.KindList:
			items := target.AsList()
			if to < 0 || to > len(items) {
				to = len(items)
			}
			if from < 0 {
				from = 0
			}
			if from > to {
				from = to
			}
			return value.List(append([]value.Value{}, items[from:to]...)), nil
		case value.KindString:
			s := target.AsString()
			if to < 0 || to > len(s) {
				to = len(s)
			}
			if from < 0 {
				from = 0
			}
			if from > to {
				from = to
			}
			return value.Str(s[from:to]), nil
		default:
			return value.Null, &errs.TypeError{Expected: "List or String", Got: target.Kind.String(), Context: "slice subscript"}
		}
	}

	idxVal, err := Eval(e.Index, row, ec)
	if err != nil {
		return value.Null, err
	}
	if idxVal.IsNull() {
		return value.Null, nil
	}

	switch target.Kind {
	case value.KindList:
		items := target.AsList()
		i := int(idxVal.AsInt())
		if i < 0 {
			i += len(items)
		}
		if i < 0 || i >= len(items) {
			return value.Null, nil
		}
		return items[i], nil
	case value.KindMap:
		m := target.AsMap()
		if v, ok := m.Get(idxVal.AsString()); ok {
			return v, nil
		}
		return value.Null, nil
	case value.KindString:
		s := target.AsString()
		i := int(idxVal.AsInt())
		if i < 0 {
			i += len(s)
		}
		if i < 0 || i >= len(s) {
			return value.Null, nil
		}
		return value.Str(string(s[i])), nil
	default:
		return value.Null, &errs.TypeError{Expected: "List, Map, or String", Got: target.Kind.String(), Context: "subscript"}
	}
}

func evalMapLiteral(m *ast.MapLiteral, row Row, ec *Context) (value.Value, error) {
	om := value.NewOrderedMap()
	for _, entry := range m.Entries {
		v, err := Eval(entry.Value, row, ec)
		if err != nil {
			return value.Null, err
		}
		om.Set(entry.Key, v)
	}
	return value.Map(om), nil
}

func evalUnary(e *ast.UnaryOp, row Row, ec *Context) (value.Value, error) {
	v, err := Eval(e.Operand, row, ec)
	if err != nil {
		return value.Null, err
	}
	switch e.Op {
	case "-":
		if v.IsNull() {
			return value.Null, nil
		}
		return value.Negate(v)
	case "NOT":
		if v.IsNull() {
			return value.Null, nil
		}
		return value.Bool(!v.AsBool()), nil
	default:
		return value.Null, &errs.ExecutionError{Message: "unknown unary operator " + e.Op}
	}
}

func evalCase(c *ast.CaseExpr, row Row, ec *Context) (value.Value, error) {
	var testVal value.Value
	hasTest := c.Test != nil
	if hasTest {
		v, err := Eval(c.Test, row, ec)
		if err != nil {
			return value.Null, err
		}
		testVal = v
	}

	for _, w := range c.Whens {
		whenVal, err := Eval(w.When, row, ec)
		if err != nil {
			return value.Null, err
		}
		var matched bool
		if hasTest {
			eq, ok := value.Equals(testVal, whenVal)
			matched = ok && eq
		} else {
			matched = !whenVal.IsNull() && whenVal.AsBool()
		}
		if matched {
			return Eval(w.Then, row, ec)
		}
	}
	if c.Default != nil {
		return Eval(c.Default, row, ec)
	}
	return value.Null, nil
}

func evalQuantifier(q *ast.QuantifierExpr, row Row, ec *Context) (value.Value, error) {
	listVal, err := Eval(q.InList, row, ec)
	if err != nil {
		return value.Null, err
	}
	if listVal.IsNull() {
		return value.Null, nil
	}
	items := listVal.AsList()

	matchCount := 0
	anyNull := false
	sub := row.clone()
	for _, item := range items {
		sub[q.Variable] = item
		pv, err := Eval(q.Predicate, sub, ec)
		if err != nil {
			return value.Null, err
		}
		if pv.IsNull() {
			anyNull = true
			continue
		}
		if pv.AsBool() {
			matchCount++
		}
	}

	switch strings.ToUpper(q.Kind) {
	case "ALL":
		if matchCount == len(items) {
			return value.Bool(true), nil
		}
		if anyNull {
			return value.Null, nil
		}
		return value.Bool(false), nil
	case "ANY":
		if matchCount > 0 {
			return value.Bool(true), nil
		}
		if anyNull {
			return value.Null, nil
		}
		return value.Bool(false), nil
	case "NONE":
		if matchCount > 0 {
			return value.Bool(false), nil
		}
		if anyNull {
			return value.Null, nil
		}
		return value.Bool(true), nil
	case "SINGLE":
		return value.Bool(matchCount == 1), nil
	default:
		return value.Null, &errs.ExecutionError{Message: "unknown quantifier " + q.Kind}
	}
}

func evalFunctionCall(fc *ast.FunctionCall, row Row, ec *Context) (value.Value, error) {
	args := make([]value.Value, len(fc.Args))
	for i, a := range fc.Args {
		v, err := Eval(a, row, ec)
		if err != nil {
			return value.Null, err
		}
		args[i] = v
	}
	return ec.Funcs.CallScalar(strings.ToLower(fc.Name), args)
}

// evalBinary implements the full operator table with three-valued logic
// throughout: any comparison or arithmetic operand being Null propagates
// Null, except AND/OR's documented short-circuit-to-false/
// short-circuit-to-true cases.
func evalBinary(b *ast.BinaryOp, row Row, ec *Context) (value.Value, error) {
	switch b.Op {
	case "AND":
		return evalAnd(b, row, ec)
	case "OR":
		return evalOr(b, row, ec)
	case "XOR":
		l, err := Eval(b.Left, row, ec)
		if err != nil {
			return value.Null, err
		}
		r, err := Eval(b.Right, row, ec)
		if err != nil {
			return value.Null, err
		}
		if l.IsNull() || r.IsNull() {
			return value.Null, nil
		}
		return value.Bool(l.AsBool() != r.AsBool()), nil
	}

	l, err := Eval(b.Left, row, ec)
	if err != nil {
		return value.Null, err
	}
	r, err := Eval(b.Right, row, ec)
	if err != nil {
		return value.Null, err
	}

	switch b.Op {
	case "+":
		return value.Add(l, r)
	case "-":
		return value.Sub(l, r)
	case "*":
		return value.Mul(l, r)
	case "/":
		return value.Div(l, r)
	case "%":
		return value.Mod(l, r)
	case "^":
		return value.Pow(l, r)
	case "=":
		eq, ok := value.Equals(l, r)
		if !ok {
			return value.Null, nil
		}
		return value.Bool(eq), nil
	case "<>":
		eq, ok := value.Equals(l, r)
		if !ok {
			return value.Null, nil
		}
		return value.Bool(!eq), nil
	case "<", "<=", ">", ">=":
		return evalOrderComparison(b.Op, l, r)
	case "IN":
		return evalIn(l, r)
	case "STARTS WITH":
		return stringPredicate(l, r, strings.HasPrefix)
	case "ENDS WITH":
		return stringPredicate(l, r, strings.HasSuffix)
	case "CONTAINS":
		return stringPredicate(l, r, strings.Contains)
	case "=~":
		return evalRegexMatch(l, r)
	default:
		return value.Null, &errs.ExecutionError{Message: "unknown binary operator " + b.Op}
	}
}

func evalAnd(b *ast.BinaryOp, row Row, ec *Context) (value.Value, error) {
	l, err := Eval(b.Left, row, ec)
	if err != nil {
		return value.Null, err
	}
	if !l.IsNull() && !l.AsBool() {
		return value.Bool(false), nil
	}
	r, err := Eval(b.Right, row, ec)
	if err != nil {
		return value.Null, err
	}
	if !r.IsNull() && !r.AsBool() {
		return value.Bool(false), nil
	}
	if l.IsNull() || r.IsNull() {
		return value.Null, nil
	}
	return value.Bool(true), nil
}

func evalOr(b *ast.BinaryOp, row Row, ec *Context) (value.Value, error) {
	l, err := Eval(b.Left, row, ec)
	if err != nil {
		return value.Null, err
	}
	if !l.IsNull() && l.AsBool() {
		return value.Bool(true), nil
	}
	r, err := Eval(b.Right, row, ec)
	if err != nil {
		return value.Null, err
	}
	if !r.IsNull() && r.AsBool() {
		return value.Bool(true), nil
	}
	if l.IsNull() || r.IsNull() {
		return value.Null, nil
	}
	return value.Bool(false), nil
}

func evalOrderComparison(op string, l, r value.Value) (value.Value, error) {
	ord := value.Compare(l, r)
	if ord == value.OrderUnknown {
		return value.Null, nil
	}
	switch op {
	case "<":
		return value.Bool(ord == value.OrderLess), nil
	case "<=":
		return value.Bool(ord == value.OrderLess || ord == value.OrderEqual), nil
	case ">":
		return value.Bool(ord == value.OrderGreater), nil
	case ">=":
		return value.Bool(ord == value.OrderGreater || ord == value.OrderEqual), nil
	}
	return value.Null, nil
}

func evalIn(l, r value.Value) (value.Value, error) {
	if r.IsNull() {
		return value.Null, nil
	}
	if r.Kind != value.KindList {
		return value.Null, &errs.TypeError{Expected: "List", Got: r.Kind.String(), Context: "IN"}
	}
	anyNull := l.IsNull()
	for _, item := range r.AsList() {
		eq, ok := value.Equals(l, item)
		if !ok {
			anyNull = true
			continue
		}
		if eq {
			return value.Bool(true), nil
		}
	}
	if anyNull {
		return value.Null, nil
	}
	return value.Bool(false), nil
}

func stringPredicate(l, r value.Value, pred func(s, substr string) bool) (value.Value, error) {
	if l.IsNull() || r.IsNull() {
		return value.Null, nil
	}
	if l.Kind != value.KindString || r.Kind != value.KindString {
		return value.Null, &errs.TypeError{Expected: "String", Got: l.Kind.String(), Context: "string predicate"}
	}
	return value.Bool(pred(l.AsString(), r.AsString())), nil
}

// evalRegexMatch implements `=~` with POSIX extended regular expression
// semantics, pinned via regexp.CompilePOSIX.
func evalRegexMatch(l, r value.Value) (value.Value, error) {
	if l.IsNull() || r.IsNull() {
		return value.Null, nil
	}
	if l.Kind != value.KindString || r.Kind != value.KindString {
		return value.Null, &errs.TypeError{Expected: "String", Got: l.Kind.String(), Context: "=~"}
	}
	re, err := regexp.CompilePOSIX(r.AsString())
	if err != nil {
		return value.Null, &errs.TypeError{Expected: "valid POSIX ERE", Got: r.AsString(), Context: "=~"}
	}
	return value.Bool(re.MatchString(l.AsString())), nil
}
