package planner

import (
	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/plan"
)

// planCreate lowers CREATE pattern(s) into a single Create operator
// covering every node/relationship across all comma-separated patterns.
// Anonymous (unbound) node/relationship variables get a synthesized
// binding name so the executor always has something to key newly
// materialized entities by internally.
func planCreate(c *ast.CreateClause, input plan.Operator, sc *scope) (plan.Operator, bool, error) {
	create := &plan.Create{Input: input}

	for pi, pat := range c.Patterns {
		startBinding := ensureBinding(pat.Start.Variable, pi, 0)
		create.Nodes = append(create.Nodes, plan.CreateNodeItem{
			Binding: startBinding, Labels: pat.Start.Labels, Properties: pat.Start.Properties,
		})
		sc.bind(startBinding)

		from := startBinding
		for si, step := range pat.Steps {
			toBinding := ensureBinding(step.Node.Variable, pi, si+1)
			relBinding := ensureBinding(step.Rel.Variable, pi, si+1)

			create.Nodes = append(create.Nodes, plan.CreateNodeItem{
				Binding: toBinding, Labels: step.Node.Labels, Properties: step.Node.Properties,
			})

			relType := ""
			if len(step.Rel.Types) > 0 {
				relType = step.Rel.Types[0]
			}
			relFrom, relTo := from, toBinding
			if step.Direction == ast.DirIn {
				relFrom, relTo = toBinding, from
			}
			create.Rels = append(create.Rels, plan.CreateRelItem{
				FromBinding: relFrom, ToBinding: relTo, RelBinding: relBinding,
				Type: relType, Properties: step.Rel.Properties,
			})

			sc.bind(toBinding)
			sc.bind(relBinding)
			from = toBinding
		}
	}

	return create, true, nil
}

func ensureBinding(name string, patIdx, stepIdx int) string {
	if name != "" {
		return name
	}
	return synthName(patIdx, stepIdx)
}

func synthName(patIdx, stepIdx int) string {
	const digits = "0123456789"
	itoa := func(n int) string {
		if n == 0 {
			return "0"
		}
		var b []byte
		for n > 0 {
			b = append([]byte{digits[n%10]}, b...)
			n /= 10
		}
		return string(b)
	}
	return "$anon" + itoa(patIdx) + "_" + itoa(stepIdx)
}

// planMerge lowers a single MERGE pattern. Only the common single-node
// MERGE form is given full match-or-create semantics here; relationship
// patterns in MERGE fall back to being planned as a MergeNode over the
// pattern's start node followed by an ordinary Create of its remaining
// steps, which is correct when the start node already exists and merely
// extends it, without requiring full idempotent semantics on every hop
// of a multi-hop MERGE pattern.
func planMerge(m *ast.MergeClause, input plan.Operator, sc *scope) (plan.Operator, bool, error) {
	pat := m.Pattern
	binding := ensureBinding(pat.Start.Variable, 0, 0)

	var onCreate, onMatch []plan.SetOp
	for _, action := range m.Actions {
		ops := setItemsToOps(action.Set)
		if action.OnCreate {
			onCreate = append(onCreate, ops...)
		} else {
			onMatch = append(onMatch, ops...)
		}
	}

	mergeOp := &plan.MergeNode{
		Input: input, Binding: binding, Labels: pat.Start.Labels,
		Properties: pat.Start.Properties, OnCreate: onCreate, OnMatch: onMatch,
	}
	sc.bind(binding)

	var op plan.Operator = mergeOp
	if len(pat.Steps) > 0 {
		rest := ast.PathPattern{Start: ast.NodePattern{Variable: binding}, Steps: pat.Steps}
		created, _, err := planCreate(&ast.CreateClause{Patterns: []ast.PathPattern{rest}}, op, sc)
		if err != nil {
			return nil, true, err
		}
		op = created
	}
	return op, true, nil
}

func setItemsToOps(items []ast.SetItem) []plan.SetOp {
	out := make([]plan.SetOp, len(items))
	for i, it := range items {
		target := ""
		if v, ok := it.Target.(*ast.Variable); ok {
			target = v.Name
		}
		out[i] = plan.SetOp{Kind: it.Kind, Target: target, Property: it.Property, Value: it.Value, Labels: it.Labels}
	}
	return out
}

func planDelete(d *ast.DeleteClause, input plan.Operator) plan.Operator {
	items := make([]plan.DeleteItem, len(d.Items))
	for i, e := range d.Items {
		items[i] = plan.DeleteItem{Target: e}
	}
	return &plan.Delete{Input: input, Items: items, Detach: d.Detach}
}

func planSet(s *ast.SetClause, input plan.Operator, sc *scope) (plan.Operator, bool, error) {
	return &plan.SetProperties{Input: input, Ops: setItemsToOps(s.Items)}, true, nil
}

func planRemove(r *ast.RemoveClause, input plan.Operator) plan.Operator {
	op := input
	for _, item := range r.Items {
		target := ""
		if v, ok := item.Target.(*ast.Variable); ok {
			target = v.Name
		}
		if item.IsLabel {
			op = &plan.RemoveLabels{Input: op, Target: target, Labels: []string{item.Label}}
		} else {
			op = &plan.RemoveProperties{Input: op, Target: target, Property: item.Property}
		}
	}
	return op
}
