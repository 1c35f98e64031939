// Package optimizer applies a fixed set of cost-free rewrite rules: no
// statistics, no cost model, just a small post-order pass that fuses and
// substitutes operators where it's always safe to do so.
package optimizer

import (
	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/plan"
)

// IndexCatalog reports which (label, property) pairs have a materialized
// index, so the IndexLookup substitution rule knows when it's legal.
type IndexCatalog interface {
	HasIndex(label, property string) bool
}

// Optimize rewrites op bottom-up, applying every rule below until a full
// pass makes no further change.
func Optimize(op plan.Operator, idx IndexCatalog) plan.Operator {
	for {
		rewritten, changed := rewriteOnce(op, idx)
		op = rewritten
		if !changed {
			return op
		}
	}
}

func rewriteOnce(op plan.Operator, idx IndexCatalog) (plan.Operator, bool) {
	changed := false

	// Rewrite children first (post-order).
	switch n := op.(type) {
	case *plan.Filter:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.Project:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.Aggregate:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.Distinct:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.Sort:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.Skip:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.Limit:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.Unwind:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.Expand:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.OptionalExpand:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.CartesianProduct:
		n.Left, changed = rewriteChild(n.Left, idx, changed)
		n.Right, changed = rewriteChild(n.Right, idx, changed)
	case *plan.Union:
		n.Left, changed = rewriteChild(n.Left, idx, changed)
		n.Right, changed = rewriteChild(n.Right, idx, changed)
	case *plan.Create:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.MergeNode:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.SetProperties:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.SetLabels:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.RemoveProperties:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.RemoveLabels:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.Delete:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	case *plan.CallProcedure:
		n.Input, changed = rewriteChild(n.Input, idx, changed)
	}

	out, applied := applyRules(op, idx)
	return out, changed || applied
}

func rewriteChild(child plan.Operator, idx IndexCatalog, changed bool) (plan.Operator, bool) {
	c, ch := rewriteOnce(child, idx)
	return c, changed || ch
}

// applyRules tries each top-level rule against op once.
func applyRules(op plan.Operator, idx IndexCatalog) (plan.Operator, bool) {
	if out, ok := ruleLimitSort(op); ok {
		return out, true
	}
	if out, ok := ruleFuseFilters(op); ok {
		return out, true
	}
	if out, ok := ruleFuseProjects(op); ok {
		return out, true
	}
	if out, ok := ruleIndexLookup(op, idx); ok {
		return out, true
	}
	return op, false
}

// ruleLimitSort drops a Skip whose count is the literal 0. Limit(Sort(x))
// is left unchanged: plan.Sort has no "k" field, and the executor's sortOp
// materializes and sorts every input row regardless of a Limit above it.
func ruleLimitSort(op plan.Operator) (plan.Operator, bool) {
	if sk, ok := op.(*plan.Skip); ok {
		if lit, ok := sk.N.(*ast.Literal); ok && lit.Kind == ast.LitInt && lit.Int == 0 {
			return sk.Input, true
		}
	}
	return op, false
}

// ruleFuseFilters merges Filter(Filter(x)) into one Filter with an AND'd
// predicate, avoiding a redundant per-row operator hop.
func ruleFuseFilters(op plan.Operator) (plan.Operator, bool) {
	outer, ok := op.(*plan.Filter)
	if !ok {
		return op, false
	}
	inner, ok := outer.Input.(*plan.Filter)
	if !ok {
		return op, false
	}
	fused := &ast.BinaryOp{Op: "AND", Left: inner.Predicate, Right: outer.Predicate}
	return &plan.Filter{Input: inner.Input, Predicate: fused}, true
}

// ruleFuseProjects merges Project(Project(x)) into the outer projection
// alone, when the outer projection only references columns the inner
// projection already produced by simple passthrough. This is
// the common case generated by planner.planWith followed immediately by
// planner.planReturn.
func ruleFuseProjects(op plan.Operator) (plan.Operator, bool) {
	outer, ok := op.(*plan.Project)
	if !ok {
		return op, false
	}
	inner, ok := outer.Input.(*plan.Project)
	if !ok {
		return op, false
	}
	// Only fuse when inner is a pure renaming/passthrough projection (every
	// item a bare Variable); anything else risks re-evaluating an
	// expression whose inputs the outer layer no longer has bound.
	for _, it := range inner.Items {
		if _, ok := it.Expr.(*ast.Variable); !ok {
			return op, false
		}
	}
	rename := map[string]ast.Expression{}
	for _, it := range inner.Items {
		v := it.Expr.(*ast.Variable)
		rename[it.Alias] = v
	}
	newItems := make([]plan.ProjectItem, len(outer.Items))
	for i, it := range outer.Items {
		e, ok := substituteVar(it.Expr, rename)
		if !ok {
			return op, false
		}
		newItems[i] = plan.ProjectItem{Expr: e, Alias: it.Alias}
	}
	return &plan.Project{Input: inner.Input, Items: newItems}, true
}

// substituteVar rewrites a bare variable, or a property access on one,
// through rename; ok is false for any other shape or an unknown variable.
func substituteVar(e ast.Expression, rename map[string]ast.Expression) (ast.Expression, bool) {
	switch x := e.(type) {
	case *ast.Variable:
		r, ok := rename[x.Name]
		return r, ok
	case *ast.PropertyAccess:
		if v, ok := x.Target.(*ast.Variable); ok {
			if r, ok := rename[v.Name]; ok {
				return &ast.PropertyAccess{Position: x.Position, Target: r, Key: x.Key}, true
			}
		}
	}
	return e, false
}

// ruleIndexLookup substitutes a NodeScanByLabel immediately wrapped in an
// equality Filter on an indexed property with a direct IndexLookup. Only
// the single-predicate `n.prop = literal_or_param` shape is recognized;
// anything more complex is left as a scan+filter.
func ruleIndexLookup(op plan.Operator, idx IndexCatalog) (plan.Operator, bool) {
	if idx == nil {
		return op, false
	}
	f, ok := op.(*plan.Filter)
	if !ok {
		return op, false
	}
	scan, ok := f.Input.(*plan.NodeScanByLabel)
	if !ok {
		return op, false
	}
	cmp, ok := f.Predicate.(*ast.BinaryOp)
	if !ok || cmp.Op != "=" {
		return op, false
	}
	prop, ok := cmp.Left.(*ast.PropertyAccess)
	if !ok {
		return op, false
	}
	v, ok := prop.Target.(*ast.Variable)
	if !ok || v.Name != scan.Binding {
		return op, false
	}
	if !idx.HasIndex(scan.Label, prop.Key) {
		return op, false
	}
	return &plan.IndexLookup{Binding: scan.Binding, Label: scan.Label, Property: prop.Key, Value: cmp.Right}, true
}
