package executor

import (
	"context"

	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/plan"
	"github.com/ritamzico/cyquery/internal/value"
)

// aggregateOp groups input rows by GroupBy and folds Items per group. An
// empty GroupBy is the "whole input is one group" case;
// that lone group is still emitted even when the input is empty, matching
// `RETURN count(*)` over an empty graph yielding zero rather than no rows.
type aggregateOp struct {
	input   Op
	plan    *plan.Aggregate
	ec      *Context
	groups  []*aggGroup
	index   map[string]*aggGroup
	loaded  bool
	emitIdx int
}

type aggGroup struct {
	keyRow Row
	accs   []AggregateFunc
	seen   []map[string]bool // per-item DISTINCT dedup set, nil when not DISTINCT
}

func compileAggregate(n *plan.Aggregate, ec *Context) (Op, error) {
	in, err := Compile(n.Input, ec)
	if err != nil {
		return nil, err
	}
	return &aggregateOp{input: in, plan: n, ec: ec, index: map[string]*aggGroup{}}, nil
}

func (a *aggregateOp) Next(ctx context.Context) (Row, bool, error) {
	if !a.loaded {
		if err := a.load(ctx); err != nil {
			return nil, false, err
		}
		a.loaded = true
	}
	if a.emitIdx >= len(a.groups) {
		return nil, false, nil
	}
	g := a.groups[a.emitIdx]
	a.emitIdx++
	out := g.keyRow.clone()
	for i, item := range a.plan.Items {
		out[item.Alias] = g.accs[i].Result()
	}
	return out, true, nil
}

func (a *aggregateOp) load(ctx context.Context) error {
	for {
		row, ok, err := a.input.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		g, err := a.groupFor(row)
		if err != nil {
			return err
		}
		for i, item := range a.plan.Items {
			if item.FuncName == "count" && item.Arg == nil {
				g.accs[i].Accumulate(value.Int(0)) // count(*): Accumulate value is ignored, presence is what counts
				continue
			}
			v, err := Eval(item.Arg, row, a.ec)
			if err != nil {
				return err
			}
			if item.Distinct {
				key := fingerprintValue(v)
				if g.seen[i][key] {
					continue
				}
				g.seen[i][key] = true
			}
			g.accs[i].Accumulate(v)
		}
	}
	if len(a.plan.GroupBy) == 0 && len(a.groups) == 0 {
		g, err := a.newGroup(Row{})
		if err != nil {
			return err
		}
		a.groups = append(a.groups, g)
	}
	return nil
}

func (a *aggregateOp) groupFor(row Row) (*aggGroup, error) {
	keyRow := make(Row, len(a.plan.GroupBy))
	for _, item := range a.plan.GroupBy {
		v, err := Eval(item.Expr, row, a.ec)
		if err != nil {
			return nil, err
		}
		keyRow[item.Alias] = v
	}
	key := rowFingerprint(keyRow)
	if g, ok := a.index[key]; ok {
		return g, nil
	}
	g, err := a.newGroup(keyRow)
	if err != nil {
		return nil, err
	}
	a.index[key] = g
	a.groups = append(a.groups, g)
	return g, nil
}

func (a *aggregateOp) newGroup(keyRow Row) (*aggGroup, error) {
	g := &aggGroup{
		keyRow: keyRow,
		accs:   make([]AggregateFunc, len(a.plan.Items)),
		seen:   make([]map[string]bool, len(a.plan.Items)),
	}
	for i, item := range a.plan.Items {
		factoryArgs := make([]value.Value, len(item.FactoryArgs))
		for j, expr := range item.FactoryArgs {
			v, err := Eval(expr, Row{}, a.ec)
			if err != nil {
				return nil, err
			}
			factoryArgs[j] = v
		}
		fn, ok := a.ec.Funcs.Aggregate(item.FuncName, factoryArgs)
		if !ok {
			return nil, &errs.SemanticError{Message: "unknown aggregate function " + item.FuncName}
		}
		g.accs[i] = fn
		if item.Distinct {
			g.seen[i] = map[string]bool{}
		}
	}
	return g, nil
}
