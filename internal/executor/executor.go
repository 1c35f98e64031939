// Package executor implements the Volcano-style pull executor: every
// compiled operator exposes a Next(ctx) method that returns one row at a
// time, pulling from its inputs on demand. Variable-length traversal
// tracks a visited-relationship set per path to detect cycles.
package executor

import (
	"context"
	"fmt"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/plan"
	"github.com/ritamzico/cyquery/internal/storage"
	"github.com/ritamzico/cyquery/internal/value"
)

// Row is one tuple of bindings flowing between operators, keyed by
// variable/column name.
type Row map[string]value.Value

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Op is a compiled, pullable operator.
type Op interface {
	// Next returns the next row, or ok=false when exhausted.
	Next(ctx context.Context) (Row, bool, error)
}

// Context carries the storage backend, query parameters, the function
// registry, and the running write-statistics counters available to every
// compiled operator.
type Context struct {
	Store  storage.Store
	Params map[string]value.Value
	Funcs  FuncRegistry
	Stats  *Stats

	// MaxVarLengthDepth caps an unbounded `*` variable-length expansion
	//; zero means "use DefaultMaxVarLengthDepth".
	MaxVarLengthDepth int
}

// DefaultMaxVarLengthDepth is the cap applied when Context.MaxVarLengthDepth
// is left at its zero value.
const DefaultMaxVarLengthDepth = 15

// Stats accumulates the write counters the public facade reports on
// QueryResult: nodes/relationships created or deleted,
// properties set, labels added or removed. One Stats is shared by every
// operator compiled for a single query.
type Stats struct {
	NodesCreated         int64
	NodesDeleted         int64
	RelationshipsCreated int64
	RelationshipsDeleted int64
	PropertiesSet        int64
	LabelsAdded          int64
	LabelsRemoved        int64
}

// FuncRegistry resolves scalar and aggregate function implementations by
// name; implemented by internal/functions.
type FuncRegistry interface {
	CallScalar(name string, args []value.Value) (value.Value, error)
	// Aggregate builds a fresh accumulator for one group. factoryArgs
	// parameterizes the accumulator itself (e.g. percentileCont's
	// quantile), as opposed to the per-row values later fed to
	// Accumulate.
	Aggregate(name string, factoryArgs []value.Value) (AggregateFunc, bool)
}

// AggregateFunc accumulates one aggregate's state across the rows of a
// group.
type AggregateFunc interface {
	Accumulate(v value.Value)
	Result() value.Value
}

// Compile lowers an optimized plan.Operator tree into an executable Op
// tree.
func Compile(op plan.Operator, ec *Context) (Op, error) {
	switch n := op.(type) {
	case *plan.Argument:
		return &argumentOp{emitted: false}, nil
	case *plan.AllNodesScan:
		return &allNodesScanOp{ec: ec, binding: n.Binding}, nil
	case *plan.NodeScanByLabel:
		return &labelScanOp{ec: ec, binding: n.Binding, label: n.Label}, nil
	case *plan.IndexLookup:
		return &indexLookupOp{ec: ec, op: n}, nil
	case *plan.Expand:
		return compileExpand(n, ec, false)
	case *plan.OptionalExpand:
		return compileExpand(&n.Expand, ec, true)
	case *plan.CartesianProduct:
		return compileCartesian(n, ec)
	case *plan.Filter:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &filterOp{input: in, predicate: n.Predicate, ec: ec}, nil
	case *plan.Project:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &projectOp{input: in, items: n.Items, ec: ec}, nil
	case *plan.Aggregate:
		return compileAggregate(n, ec)
	case *plan.Distinct:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &distinctOp{input: in, seen: map[string]bool{}}, nil
	case *plan.Sort:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &sortOp{input: in, keys: n.Keys, ec: ec}, nil
	case *plan.Skip:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &skipOp{input: in, n: n.N, ec: ec}, nil
	case *plan.Limit:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &limitOp{input: in, n: n.N, ec: ec}, nil
	case *plan.Unwind:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &unwindOp{input: in, expr: n.Expr, binding: n.Binding, ec: ec}, nil
	case *plan.Create:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &createOp{input: in, plan: n, ec: ec}, nil
	case *plan.MergeNode:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &mergeNodeOp{input: in, plan: n, ec: ec}, nil
	case *plan.SetProperties:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &setPropertiesOp{input: in, ops: n.Ops, ec: ec}, nil
	case *plan.SetLabels:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &setLabelsOp{input: in, target: n.Target, labels: n.Labels, ec: ec}, nil
	case *plan.RemoveProperties:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &removePropertiesOp{input: in, target: n.Target, property: n.Property, ec: ec}, nil
	case *plan.RemoveLabels:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &removeLabelsOp{input: in, target: n.Target, labels: n.Labels, ec: ec}, nil
	case *plan.Delete:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &deleteOp{input: in, plan: n, ec: ec}, nil
	case *plan.CallProcedure:
		in, err := Compile(n.Input, ec)
		if err != nil {
			return nil, err
		}
		return &callProcedureOp{input: in, plan: n, ec: ec}, nil
	case *plan.Union:
		left, err := Compile(n.Left, ec)
		if err != nil {
			return nil, err
		}
		right, err := Compile(n.Right, ec)
		if err != nil {
			return nil, err
		}
		return &unionOp{left: left, right: right, all: n.All, seen: map[string]bool{}}, nil
	case *plan.Schema:
		return &schemaOp{plan: n, ec: ec}, nil
	default:
		return nil, &errs.PlanError{Message: fmt.Sprintf("executor: unsupported operator %T", op)}
	}
}

// argumentOp is the degenerate single-empty-row source.
type argumentOp struct{ emitted bool }

func (a *argumentOp) Next(ctx context.Context) (Row, bool, error) {
	if a.emitted {
		return nil, false, nil
	}
	a.emitted = true
	return Row{}, true, nil
}

// schemaOp applies one CREATE/DROP INDEX or CREATE/DROP CONSTRAINT
// statement to the store and then yields nothing further, matching every
// other write operator's "side effect, empty result" shape.
type schemaOp struct {
	plan    *plan.Schema
	ec      *Context
	applied bool
}

func (s *schemaOp) Next(ctx context.Context) (Row, bool, error) {
	if s.applied {
		return nil, false, nil
	}
	s.applied = true

	var err error
	switch s.plan.Kind {
	case ast.CreateIndex:
		err = s.ec.Store.CreateIndex(s.plan.Name, s.plan.Label, s.plan.Property)
	case ast.DropIndex:
		err = s.ec.Store.DropIndex(s.plan.Name)
	case ast.CreateConstraint:
		err = s.ec.Store.CreateConstraint(s.plan.Name, s.plan.Label, s.plan.Property)
	case ast.DropConstraint:
		err = s.ec.Store.DropConstraint(s.plan.Name)
	default:
		err = &errs.PlanError{Message: fmt.Sprintf("executor: unknown schema kind %v", s.plan.Kind)}
	}
	if err != nil {
		return nil, false, err
	}
	return Row{}, true, nil
}
