package executor

import (
	"context"
	"sort"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/plan"
	"github.com/ritamzico/cyquery/internal/value"
)

// filterOp drops rows whose predicate is not true under three-valued
// logic.
type filterOp struct {
	input     Op
	predicate ast.Expression
	ec        *Context
}

func (f *filterOp) Next(ctx context.Context) (Row, bool, error) {
	for {
		row, ok, err := f.input.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		v, err := Eval(f.predicate, row, f.ec)
		if err != nil {
			return nil, false, err
		}
		if !v.IsNull() && v.AsBool() {
			return row, true, nil
		}
	}
}

// projectOp computes a new row shape from Items, discarding everything
// else.
type projectOp struct {
	input Op
	items []plan.ProjectItem
	ec    *Context
}

func (p *projectOp) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := p.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	out := make(Row, len(p.items))
	for _, item := range p.items {
		v, err := Eval(item.Expr, row, p.ec)
		if err != nil {
			return nil, false, err
		}
		out[item.Alias] = v
	}
	return out, true, nil
}

// distinctOp drops rows that duplicate, under DISTINCT-specific equality
// (Null equals Null only here), one already emitted via a visited
// row-fingerprint set.
type distinctOp struct {
	input Op
	seen  map[string]bool
}

func (d *distinctOp) Next(ctx context.Context) (Row, bool, error) {
	for {
		row, ok, err := d.input.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		key := rowFingerprint(row)
		if d.seen[key] {
			continue
		}
		d.seen[key] = true
		return row, true, nil
	}
}

// rowFingerprint builds a dedup key over a row's sorted columns. DISTINCT
// treats two Nulls as equal, so Null renders as a fixed sentinel
// rather than being distinguished by identity.
func rowFingerprint(row Row) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += k + "=" + fingerprintValue(row[k]) + "\x1f"
	}
	return out
}

func fingerprintValue(v value.Value) string {
	if v.IsNull() {
		return "\x00NULL"
	}
	return v.Kind.String() + ":" + v.String()
}

// sortOp orders rows by Keys, Null sorting first in ascending order.
type sortOp struct {
	input    Op
	keys     []plan.SortKey
	ec       *Context
	rows     []Row
	loaded   bool
	idx      int
}

func (s *sortOp) Next(ctx context.Context) (Row, bool, error) {
	if !s.loaded {
		for {
			row, ok, err := s.input.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
			s.rows = append(s.rows, row)
		}
		var sortErr error
		sort.SliceStable(s.rows, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			less, err := s.less(s.rows[i], s.rows[j])
			if err != nil {
				sortErr = err
			}
			return less
		})
		if sortErr != nil {
			return nil, false, sortErr
		}
		s.loaded = true
	}
	if s.idx >= len(s.rows) {
		return nil, false, nil
	}
	r := s.rows[s.idx]
	s.idx++
	return r, true, nil
}

func (s *sortOp) less(a, b Row) (bool, error) {
	for _, key := range s.keys {
		av, err := Eval(key.Expr, a, s.ec)
		if err != nil {
			return false, err
		}
		bv, err := Eval(key.Expr, b, s.ec)
		if err != nil {
			return false, err
		}
		ord := nullsFirstCompare(av, bv)
		if ord == value.OrderEqual {
			continue
		}
		if key.Descending {
			return ord == value.OrderGreater, nil
		}
		return ord == value.OrderLess, nil
	}
	return false, nil
}

// nullsFirstCompare extends value.Compare with ORDER BY's documented
// total order: Null sorts before every other value, whereas
// value.Compare reports OrderUnknown for any Null operand.
func nullsFirstCompare(a, b value.Value) value.Ordering {
	if a.IsNull() && b.IsNull() {
		return value.OrderEqual
	}
	if a.IsNull() {
		return value.OrderLess
	}
	if b.IsNull() {
		return value.OrderGreater
	}
	ord := value.Compare(a, b)
	if ord == value.OrderUnknown {
		return value.OrderEqual
	}
	return ord
}

type skipOp struct {
	input   Op
	n       ast.Expression
	ec      *Context
	skipped bool
	count   int64
}

func (s *skipOp) Next(ctx context.Context) (Row, bool, error) {
	if !s.skipped {
		n, err := evalCount(s.n, s.ec)
		if err != nil {
			return nil, false, err
		}
		s.count = n
		s.skipped = true
		for i := int64(0); i < s.count; i++ {
			_, ok, err := s.input.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
		}
	}
	return s.input.Next(ctx)
}

type limitOp struct {
	input   Op
	n       ast.Expression
	ec      *Context
	bounded bool
	limit   int64
	emitted int64
}

func (l *limitOp) Next(ctx context.Context) (Row, bool, error) {
	if !l.bounded {
		n, err := evalCount(l.n, l.ec)
		if err != nil {
			return nil, false, err
		}
		l.limit = n
		l.bounded = true
	}
	if l.emitted >= l.limit {
		return nil, false, nil
	}
	row, ok, err := l.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	l.emitted++
	return row, true, nil
}

func evalCount(expr ast.Expression, ec *Context) (int64, error) {
	v, err := Eval(expr, Row{}, ec)
	if err != nil {
		return 0, err
	}
	if v.IsNull() || v.Kind != value.KindInt {
		return 0, &errs.TypeError{Expected: "Int", Got: v.Kind.String(), Context: "SKIP/LIMIT"}
	}
	if v.AsInt() < 0 {
		return 0, &errs.TypeError{Expected: "non-negative Int", Got: v.String(), Context: "SKIP/LIMIT"}
	}
	return v.AsInt(), nil
}

// unwindOp expands a list-valued expression into one row per element.
type unwindOp struct {
	input   Op
	expr    ast.Expression
	binding string
	ec      *Context

	curBase Row
	items   []value.Value
	idx     int
	started bool
}

func (u *unwindOp) Next(ctx context.Context) (Row, bool, error) {
	for {
		if u.started && u.idx < len(u.items) {
			out := u.curBase.clone()
			out[u.binding] = u.items[u.idx]
			u.idx++
			return out, true, nil
		}

		row, ok, err := u.input.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		v, err := Eval(u.expr, row, u.ec)
		if err != nil {
			return nil, false, err
		}
		u.curBase = row
		if v.IsNull() {
			u.items = nil
		} else if v.Kind == value.KindList {
			u.items = v.AsList()
		} else {
			u.items = []value.Value{v}
		}
		u.idx = 0
		u.started = true
	}
}
