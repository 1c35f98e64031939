package functions

import (
	"math"
	"sort"

	"github.com/ritamzico/cyquery/internal/executor"
	"github.com/ritamzico/cyquery/internal/value"
)

func registerAggregates(r *Registry) {
	r.addAggregate("count", countFactory{})
	r.addAggregate("sum", sumFactory{})
	r.addAggregate("avg", avgFactory{})
	r.addAggregate("min", minFactory{})
	r.addAggregate("max", maxFactory{})
	r.addAggregate("collect", collectFactory{})
	r.addAggregate("stdev", stDevFactory{})
	r.addAggregate("percentilecont", percentileFactory{discrete: false})
	r.addAggregate("percentiledisc", percentileFactory{discrete: true})
}

// countAcc counts accumulated non-Null values. count(*) reaches the
// executor with no argument, and the executor accumulates a non-Null
// Int(0) for it on every row, so each row is counted.
type countAcc struct{ n int64 }

func (a *countAcc) Accumulate(v value.Value) {
	if !v.IsNull() {
		a.n++
	}
}
func (a *countAcc) Result() value.Value { return value.Int(a.n) }

type countFactory struct{}

func (countFactory) New(args []value.Value) executor.AggregateFunc { return &countAcc{} }

type sumAcc struct {
	intSum   int64
	floatSum float64
	isFloat  bool
	any      bool
}

func (a *sumAcc) Accumulate(v value.Value) {
	if v.IsNull() {
		return
	}
	a.any = true
	switch v.Kind {
	case value.KindFloat:
		if !a.isFloat {
			a.floatSum = float64(a.intSum)
			a.isFloat = true
		}
		a.floatSum += v.AsFloat()
	case value.KindInt:
		if a.isFloat {
			a.floatSum += float64(v.AsInt())
		} else {
			a.intSum += v.AsInt()
		}
	}
}

func (a *sumAcc) Result() value.Value {
	if a.isFloat {
		return value.Float(a.floatSum)
	}
	return value.Int(a.intSum)
}

type sumFactory struct{}

func (sumFactory) New(args []value.Value) executor.AggregateFunc { return &sumAcc{} }

type avgAcc struct {
	sum   float64
	count int64
}

func (a *avgAcc) Accumulate(v value.Value) {
	if v.IsNull() {
		return
	}
	switch v.Kind {
	case value.KindInt:
		a.sum += float64(v.AsInt())
		a.count++
	case value.KindFloat:
		a.sum += v.AsFloat()
		a.count++
	}
}

func (a *avgAcc) Result() value.Value {
	if a.count == 0 {
		return value.Null
	}
	return value.Float(a.sum / float64(a.count))
}

type avgFactory struct{}

func (avgFactory) New(args []value.Value) executor.AggregateFunc { return &avgAcc{} }

type minAcc struct {
	best  value.Value
	found bool
}

func (a *minAcc) Accumulate(v value.Value) {
	if v.IsNull() {
		return
	}
	if !a.found || value.Compare(v, a.best) == value.OrderLess {
		a.best = v
		a.found = true
	}
}

func (a *minAcc) Result() value.Value {
	if !a.found {
		return value.Null
	}
	return a.best
}

type minFactory struct{}

func (minFactory) New(args []value.Value) executor.AggregateFunc { return &minAcc{} }

type maxAcc struct {
	best  value.Value
	found bool
}

func (a *maxAcc) Accumulate(v value.Value) {
	if v.IsNull() {
		return
	}
	if !a.found || value.Compare(v, a.best) == value.OrderGreater {
		a.best = v
		a.found = true
	}
}

func (a *maxAcc) Result() value.Value {
	if !a.found {
		return value.Null
	}
	return a.best
}

type maxFactory struct{}

func (maxFactory) New(args []value.Value) executor.AggregateFunc { return &maxAcc{} }

// collectAcc gathers every non-Null value into a list, preserving
// encounter order.
type collectAcc struct{ items []value.Value }

func (a *collectAcc) Accumulate(v value.Value) {
	if !v.IsNull() {
		a.items = append(a.items, v)
	}
}
func (a *collectAcc) Result() value.Value { return value.List(a.items) }

type collectFactory struct{}

func (collectFactory) New(args []value.Value) executor.AggregateFunc { return &collectAcc{} }

// stDevAcc computes the sample standard deviation via Welford's online
// algorithm, avoiding a second pass over the accumulated values.
type stDevAcc struct {
	count int64
	mean  float64
	m2    float64
}

func (a *stDevAcc) Accumulate(v value.Value) {
	var f float64
	switch v.Kind {
	case value.KindInt:
		f = float64(v.AsInt())
	case value.KindFloat:
		f = v.AsFloat()
	default:
		return
	}
	a.count++
	delta := f - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (f - a.mean)
}

func (a *stDevAcc) Result() value.Value {
	if a.count < 2 {
		return value.Float(0)
	}
	return value.Float(math.Sqrt(a.m2 / float64(a.count-1)))
}

type stDevFactory struct{}

func (stDevFactory) New(args []value.Value) executor.AggregateFunc { return &stDevAcc{} }

// percentileAcc materializes every accumulated value and computes the
// requested percentile once Result is called. The quantile itself is a
// per-group constant (percentileCont(x, p)'s p), not a per-row value, so
// it arrives via the factory's args rather than through Accumulate.
type percentileAcc struct {
	values     []float64
	percentile float64
	discrete   bool
}

func (a *percentileAcc) Accumulate(v value.Value) {
	switch v.Kind {
	case value.KindInt:
		a.values = append(a.values, float64(v.AsInt()))
	case value.KindFloat:
		a.values = append(a.values, v.AsFloat())
	}
}

func (a *percentileAcc) Result() value.Value {
	if len(a.values) == 0 {
		return value.Null
	}
	sorted := append([]float64{}, a.values...)
	sort.Float64s(sorted)
	p := a.percentile
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	if a.discrete {
		idx := int(math.Ceil(p*float64(len(sorted)))) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return value.Float(sorted[idx])
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return value.Float(sorted[lo])
	}
	frac := pos - float64(lo)
	return value.Float(sorted[lo] + (sorted[hi]-sorted[lo])*frac)
}

// percentileFactory reads the caller's quantile from args[0] (the
// function call's second argument, percentileCont(x, p)'s p) and falls
// back to the median when the call omitted it.
type percentileFactory struct {
	discrete bool
}

func (f percentileFactory) New(args []value.Value) executor.AggregateFunc {
	p := 0.5
	if len(args) > 0 {
		switch args[0].Kind {
		case value.KindFloat:
			p = args[0].AsFloat()
		case value.KindInt:
			p = float64(args[0].AsInt())
		}
	}
	return &percentileAcc{percentile: p, discrete: f.discrete}
}
