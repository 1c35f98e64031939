// Package functions implements the built-in scalar and aggregate function
// registry: one struct per scalar/aggregate builtin, registered into a
// name-keyed table the executor looks functions up by.
package functions

import (
	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/executor"
	"github.com/ritamzico/cyquery/internal/value"
)

// Scalar is one built-in scalar function.
type Scalar interface {
	Call(args []value.Value) (value.Value, error)
}

// AggregateFactory creates a fresh accumulator for one GROUP BY group.
// A factory, not a shared instance, since every group needs its own
// running state. args carries any call arguments beyond the per-row
// value (e.g. percentileCont/percentileDisc's quantile), evaluated once
// per group rather than per accumulated row.
type AggregateFactory interface {
	New(args []value.Value) executor.AggregateFunc
}

// Registry is the default FuncRegistry implementation the public facade
// wires into every executor.Context.
type Registry struct {
	scalars    map[string]Scalar
	aggregates map[string]AggregateFactory
}

// NewRegistry builds the registry carrying every built-in scalar and
// aggregate name.
func NewRegistry() *Registry {
	r := &Registry{
		scalars:    map[string]Scalar{},
		aggregates: map[string]AggregateFactory{},
	}
	registerScalars(r)
	registerAggregates(r)
	return r
}

func (r *Registry) addScalar(name string, fn Scalar) { r.scalars[name] = fn }
func (r *Registry) addAggregate(name string, f AggregateFactory) { r.aggregates[name] = f }

// CallScalar implements executor.FuncRegistry.
func (r *Registry) CallScalar(name string, args []value.Value) (value.Value, error) {
	fn, ok := r.scalars[name]
	if !ok {
		return value.Null, &errs.SemanticError{Message: "unknown function " + name}
	}
	return fn.Call(args)
}

// Aggregate implements executor.FuncRegistry.
func (r *Registry) Aggregate(name string, args []value.Value) (executor.AggregateFunc, bool) {
	f, ok := r.aggregates[name]
	if !ok {
		return nil, false
	}
	return f.New(args), true
}
