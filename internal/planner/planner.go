// Package planner lowers a parsed ast.Statement into a plan.Operator
// tree: a binding-tracked lowering pass that threads a scope of bound
// variable names through a query's clauses so pattern/WITH/aggregation
// semantics can be resolved as it walks them.
package planner

import (
	"fmt"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/plan"
)

// scope tracks which variables are already bound as the lowering pass
// walks a query's clauses left to right.
type scope struct {
	bound map[string]bool
}

func newScope() *scope { return &scope{bound: map[string]bool{}} }

func (s *scope) bind(name string) {
	if name != "" {
		s.bound[name] = true
	}
}

func (s *scope) has(name string) bool { return s.bound[name] }

// Plan lowers a top-level statement into a root operator.
func Plan(stmt ast.Statement) (plan.Operator, error) {
	switch st := stmt.(type) {
	case *ast.Query:
		op, _, err := planQuery(st, newScope())
		return op, err
	case *ast.UnionQuery:
		return planUnion(st)
	case *ast.SchemaStatement:
		return planSchema(st)
	default:
		return nil, &errs.PlanError{Message: fmt.Sprintf("cannot plan statement of type %T", stmt)}
	}
}

// planSchema lowers a CREATE/DROP INDEX or CREATE/DROP CONSTRAINT
// statement directly; it never touches a row source. DROP
// forms carry only a name (the parser never gets a label/property for
// them), so they lower straight through without the property check.
func planSchema(st *ast.SchemaStatement) (plan.Operator, error) {
	if st.Kind == ast.DropIndex || st.Kind == ast.DropConstraint {
		return &plan.Schema{Kind: st.Kind, Name: st.Name}, nil
	}
	if len(st.Properties) != 1 {
		return nil, &errs.PlanError{Message: "schema statements support exactly one property"}
	}
	return &plan.Schema{
		Kind:     st.Kind,
		Name:     st.Name,
		Label:    st.Label,
		Property: st.Properties[0],
		Unique:   st.Unique,
	}, nil
}

func planUnion(u *ast.UnionQuery) (plan.Operator, error) {
	var op plan.Operator
	for i, branch := range u.Branches {
		b, _, err := planQuery(branch, newScope())
		if err != nil {
			return nil, err
		}
		if i == 0 {
			op = b
			continue
		}
		op = &plan.Union{Left: op, Right: b, All: u.All[i-1]}
	}
	return op, nil
}

// planQuery lowers one Query's clause sequence, threading a scope through
// so later clauses know which variables are already bound.
func planQuery(q *ast.Query, sc *scope) (plan.Operator, *scope, error) {
	var op plan.Operator = &plan.Argument{}
	haveSource := false

	for _, clause := range q.Clauses {
		var err error
		op, haveSource, err = planClause(clause, op, haveSource, sc)
		if err != nil {
			return nil, nil, err
		}
	}

	if q.Return != nil {
		op, err := planReturn(q.Return, op, sc)
		if err != nil {
			return nil, nil, err
		}
		return op, sc, nil
	}

	if !haveSource {
		return nil, nil, &errs.PlanError{Message: "query has no clauses"}
	}
	return op, sc, nil
}

func planClause(c ast.Clause, op plan.Operator, haveSource bool, sc *scope) (plan.Operator, bool, error) {
	switch cl := c.(type) {
	case *ast.MatchClause:
		out, err := planMatch(cl, op, haveSource, sc)
		return out, true, err
	case *ast.UnwindClause:
		sc.bind(cl.Variable)
		return &plan.Unwind{Input: op, Expr: cl.Expr, Binding: cl.Variable}, true, nil
	case *ast.WithClause:
		return planWith(cl, op, sc)
	case *ast.CreateClause:
		return planCreate(cl, op, sc)
	case *ast.MergeClause:
		return planMerge(cl, op, sc)
	case *ast.DeleteClause:
		return planDelete(cl, op), true, nil
	case *ast.SetClause:
		return planSet(cl, op, sc)
	case *ast.RemoveClause:
		return planRemove(cl, op), true, nil
	case *ast.CallClause:
		return &plan.CallProcedure{Input: op, Procedure: cl.Procedure, Args: cl.Args, Yield: cl.Yield}, true, nil
	default:
		return nil, haveSource, &errs.PlanError{Message: fmt.Sprintf("cannot plan clause of type %T", c)}
	}
}

// planMatch lowers one or more comma-separated path patterns into a seed
// scan plus a chain of Expand operators per pattern, joined by
// CartesianProduct across patterns and an optional WHERE filter. OPTIONAL
// MATCH marks every hop of each pattern's expand chain with
// OptionalExpand semantics.
func planMatch(m *ast.MatchClause, base plan.Operator, haveBase bool, sc *scope) (plan.Operator, error) {
	result := base
	haveResult := haveBase

	for _, pat := range m.Patterns {
		startVar := pat.Start.Variable
		if startVar != "" && sc.has(startVar) && haveResult {
			// The pattern's start node is already bound by an earlier
			// clause: extend the running pipeline directly instead of
			// building an independent branch, so Expand reads the
			// binding from the row already flowing through.
			chained, err := lowerPathPatternFrom(result, pat, sc, m.Optional)
			if err != nil {
				return nil, err
			}
			result = chained
			continue
		}

		patPlan, err := lowerPathPattern(pat, sc, m.Optional)
		if err != nil {
			return nil, err
		}
		if !haveResult {
			result = patPlan
			haveResult = true
		} else {
			result = &plan.CartesianProduct{Left: result, Right: patPlan}
		}
	}

	if m.Where != nil {
		result = &plan.Filter{Input: result, Predicate: m.Where}
	}
	return result, nil
}

// lowerPathPattern plans a single pattern's seed node and its chain of
// relationship hops, starting a brand new scan.
func lowerPathPattern(pat ast.PathPattern, sc *scope, optional bool) (plan.Operator, error) {
	startVar := pat.Start.Variable
	seed := lowerNodeScan(pat.Start)
	sc.bind(startVar)
	if pat.Start.Properties != nil {
		seed = &plan.Filter{Input: seed, Predicate: propsToPredicate(startVar, pat.Start.Properties)}
	}
	return lowerSteps(seed, startVar, pat.Steps, sc, optional)
}

// lowerPathPatternFrom extends base (which already carries startVar's
// binding) with pat's relationship hops.
func lowerPathPatternFrom(base plan.Operator, pat ast.PathPattern, sc *scope, optional bool) (plan.Operator, error) {
	return lowerSteps(base, pat.Start.Variable, pat.Steps, sc, optional)
}

func lowerSteps(seed plan.Operator, startVar string, steps []ast.PathStep, sc *scope, optional bool) (plan.Operator, error) {
	cur := seed
	fromVar := startVar
	for _, step := range steps {
		minHops, maxHops := 1, 1
		if step.Rel.Range != nil {
			if step.Rel.Range.Min != nil {
				minHops = *step.Rel.Range.Min
			} else {
				minHops = 1
			}
			if step.Rel.Range.Max != nil {
				maxHops = *step.Rel.Range.Max
			} else {
				maxHops = -1
			}
		}

		expand := plan.Expand{
			Input:       cur,
			FromBinding: fromVar,
			RelBinding:  step.Rel.Variable,
			ToBinding:   step.Node.Variable,
			RelTypes:    step.Rel.Types,
			Direction:   step.Direction,
			MinHops:     minHops,
			MaxHops:     maxHops,
		}
		if len(step.Node.Labels) == 1 {
			expand.ToLabel = step.Node.Labels[0]
		}

		if optional {
			cur = &plan.OptionalExpand{Expand: expand}
		} else {
			cur = &plan.Expand{
				Input: expand.Input, FromBinding: expand.FromBinding, RelBinding: expand.RelBinding,
				ToBinding: expand.ToBinding, RelTypes: expand.RelTypes, Direction: expand.Direction,
				MinHops: expand.MinHops, MaxHops: expand.MaxHops, ToLabel: expand.ToLabel,
			}
		}

		sc.bind(step.Rel.Variable)
		sc.bind(step.Node.Variable)

		if step.Rel.Properties != nil && step.Rel.Variable != "" {
			cur = &plan.Filter{Input: cur, Predicate: propsToPredicate(step.Rel.Variable, step.Rel.Properties)}
		}
		if len(step.Node.Labels) > 1 {
			cur = &plan.Filter{Input: cur, Predicate: multiLabelPredicate(step.Node.Variable, step.Node.Labels)}
		}
		if step.Node.Properties != nil {
			cur = &plan.Filter{Input: cur, Predicate: propsToPredicate(step.Node.Variable, step.Node.Properties)}
		}

		fromVar = step.Node.Variable
	}

	return cur, nil
}

func lowerNodeScan(n ast.NodePattern) plan.Operator {
	switch len(n.Labels) {
	case 0:
		return &plan.AllNodesScan{Binding: n.Variable}
	case 1:
		return &plan.NodeScanByLabel{Binding: n.Variable, Label: n.Labels[0]}
	default:
		op := plan.Operator(&plan.NodeScanByLabel{Binding: n.Variable, Label: n.Labels[0]})
		return &plan.Filter{Input: op, Predicate: multiLabelPredicate(n.Variable, n.Labels[1:])}
	}
}

func multiLabelPredicate(variable string, labels []string) ast.Expression {
	var expr ast.Expression
	for _, l := range labels {
		fc := &ast.FunctionCall{Name: "hasLabel", Args: []ast.Expression{
			&ast.Variable{Name: variable},
			&ast.Literal{Kind: ast.LitString, Str: l},
		}}
		if expr == nil {
			expr = fc
		} else {
			expr = &ast.BinaryOp{Op: "AND", Left: expr, Right: fc}
		}
	}
	return expr
}

// propsToPredicate turns a pattern's inline `{k: v, ...}` property map
// into an equality-conjunction predicate, applied as a Filter after the
// scan/expand that introduced the binding.
func propsToPredicate(variable string, m *ast.MapLiteral) ast.Expression {
	var expr ast.Expression
	for _, entry := range m.Entries {
		cmp := &ast.BinaryOp{
			Op:   "=",
			Left: &ast.PropertyAccess{Target: &ast.Variable{Name: variable}, Key: entry.Key},
			Right: entry.Value,
		}
		if expr == nil {
			expr = cmp
		} else {
			expr = &ast.BinaryOp{Op: "AND", Left: expr, Right: cmp}
		}
	}
	return expr
}

// planReturn builds the terminal Project stage, inserting an Aggregate
// stage first when any RETURN item is an aggregate function call, and
// adding Distinct/Sort/Skip/Limit in their fixed post-projection order:
// DISTINCT, then ORDER BY, then SKIP, then LIMIT.
func planReturn(r *ast.ReturnClause, input plan.Operator, sc *scope) (plan.Operator, error) {
	items, aggItems, groupBy, err := splitProjection(r.Items, r.Star, sc)
	if err != nil {
		return nil, err
	}

	op := input
	if len(aggItems) > 0 {
		op = &plan.Aggregate{Input: op, GroupBy: groupBy, Items: aggItems}
	}
	op = &plan.Project{Input: op, Items: items}

	if r.Distinct {
		op = &plan.Distinct{Input: op}
	}
	if len(r.OrderBy) > 0 {
		op = &plan.Sort{Input: op, Keys: toSortKeys(r.OrderBy)}
	}
	if r.Skip != nil {
		op = &plan.Skip{Input: op, N: r.Skip}
	}
	if r.Limit != nil {
		op = &plan.Limit{Input: op, N: r.Limit}
	}
	return op, nil
}

func planWith(w *ast.WithClause, input plan.Operator, sc *scope) (plan.Operator, bool, error) {
	items, aggItems, groupBy, err := splitProjection(w.Items, w.Star, sc)
	if err != nil {
		return nil, true, err
	}

	op := input
	if len(aggItems) > 0 {
		op = &plan.Aggregate{Input: op, GroupBy: groupBy, Items: aggItems}
	}
	op = &plan.Project{Input: op, Items: items}

	// WITH re-binds scope to exactly its projected columns.
	newScope := map[string]bool{}
	for _, it := range items {
		newScope[it.Alias] = true
	}
	sc.bound = newScope

	if w.Distinct {
		op = &plan.Distinct{Input: op}
	}
	if w.Where != nil {
		op = &plan.Filter{Input: op, Predicate: w.Where}
	}
	if len(w.OrderBy) > 0 {
		op = &plan.Sort{Input: op, Keys: toSortKeys(w.OrderBy)}
	}
	if w.Skip != nil {
		op = &plan.Skip{Input: op, N: w.Skip}
	}
	if w.Limit != nil {
		op = &plan.Limit{Input: op, N: w.Limit}
	}
	return op, true, nil
}

func toSortKeys(items []ast.SortItem) []plan.SortKey {
	out := make([]plan.SortKey, len(items))
	for i, it := range items {
		out[i] = plan.SortKey{Expr: it.Expr, Descending: it.Descending}
	}
	return out
}

var aggregateFuncs = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"collect": true, "stdev": true, "percentilecont": true, "percentiledisc": true,
}

// splitProjection separates plain projection items from aggregate
// function calls, and treats every non-aggregate item as an implicit
// GROUP BY key — mirroring openCypher's "any returned expression not
// itself an aggregate becomes a grouping key" rule.
func splitProjection(items []ast.ReturnItem, star bool, sc *scope) ([]plan.ProjectItem, []plan.AggregateItem, []plan.ProjectItem, error) {
	if star {
		var out []plan.ProjectItem
		for name := range sc.bound {
			out = append(out, plan.ProjectItem{Expr: &ast.Variable{Name: name}, Alias: name})
		}
		return out, nil, nil, nil
	}

	var projItems []plan.ProjectItem
	var aggItems []plan.AggregateItem
	var groupBy []plan.ProjectItem

	for _, it := range items {
		alias := it.Alias
		if alias == "" {
			alias = defaultAlias(it.Expr)
		}
		if fc, ok := it.Expr.(*ast.FunctionCall); ok && aggregateFuncs[lower(fc.Name)] {
			var arg ast.Expression
			if len(fc.Args) > 0 {
				arg = fc.Args[0]
			}
			var factoryArgs []ast.Expression
			if len(fc.Args) > 1 {
				factoryArgs = fc.Args[1:]
			}
			aggItems = append(aggItems, plan.AggregateItem{FuncName: lower(fc.Name), Arg: arg, Distinct: fc.Distinct, Alias: alias, FactoryArgs: factoryArgs})
			projItems = append(projItems, plan.ProjectItem{Expr: &ast.Variable{Name: alias}, Alias: alias})
			continue
		}
		projItems = append(projItems, plan.ProjectItem{Expr: it.Expr, Alias: alias})
		groupBy = append(groupBy, plan.ProjectItem{Expr: it.Expr, Alias: alias})
	}

	if len(aggItems) == 0 {
		groupBy = nil
	}
	return projItems, aggItems, groupBy, nil
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func defaultAlias(e ast.Expression) string {
	if v, ok := e.(*ast.Variable); ok {
		return v.Name
	}
	if p, ok := e.(*ast.PropertyAccess); ok {
		return defaultAlias(p.Target) + "." + p.Key
	}
	if fc, ok := e.(*ast.FunctionCall); ok {
		return fc.Name + "(...)"
	}
	return "expr"
}
