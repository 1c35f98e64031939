package executor

import (
	"testing"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/functions"
	"github.com/ritamzico/cyquery/internal/plan"
	"github.com/ritamzico/cyquery/internal/value"
)

func newAggCtx() *Context {
	return &Context{Funcs: functions.NewRegistry(), Params: map[string]value.Value{}}
}

func TestAggregateOp_SingleGroupCountStar(t *testing.T) {
	ec := newAggCtx()
	in := rowsOf(Row{"x": value.Int(1)}, Row{"x": value.Int(2)}, Row{"x": value.Int(3)})
	p := &plan.Aggregate{
		Items: []plan.AggregateItem{{FuncName: "count", Arg: nil, Alias: "total"}},
	}
	op := &aggregateOp{input: in, plan: p, ec: ec, index: map[string]*aggGroup{}}
	rows := drain(t, op)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (no GroupBy means one group)", len(rows))
	}
	if rows[0]["total"].AsInt() != 3 {
		t.Errorf("count(*) = %v, want 3", rows[0]["total"])
	}
}

func TestAggregateOp_EmptyInputStillEmitsOneGroupForCountStar(t *testing.T) {
	ec := newAggCtx()
	in := rowsOf()
	p := &plan.Aggregate{
		Items: []plan.AggregateItem{{FuncName: "count", Arg: nil, Alias: "total"}},
	}
	op := &aggregateOp{input: in, plan: p, ec: ec, index: map[string]*aggGroup{}}
	rows := drain(t, op)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (count(*) over nothing is still a row with 0)", len(rows))
	}
	if rows[0]["total"].AsInt() != 0 {
		t.Errorf("count(*) over empty input = %v, want 0", rows[0]["total"])
	}
}

func TestAggregateOp_GroupBySplitsIntoSeparateGroups(t *testing.T) {
	ec := newAggCtx()
	in := rowsOf(
		Row{"dept": value.Str("eng"), "salary": value.Int(10)},
		Row{"dept": value.Str("eng"), "salary": value.Int(20)},
		Row{"dept": value.Str("sales"), "salary": value.Int(5)},
	)
	p := &plan.Aggregate{
		GroupBy: []plan.ProjectItem{{Expr: &ast.Variable{Name: "dept"}, Alias: "dept"}},
		Items:   []plan.AggregateItem{{FuncName: "sum", Arg: &ast.Variable{Name: "salary"}, Alias: "total"}},
	}
	op := &aggregateOp{input: in, plan: p, ec: ec, index: map[string]*aggGroup{}}
	rows := drain(t, op)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 groups (eng, sales)", len(rows))
	}
	totals := map[string]int64{}
	for _, r := range rows {
		totals[r["dept"].AsString()] = r["total"].AsInt()
	}
	if totals["eng"] != 30 {
		t.Errorf("eng total = %d, want 30", totals["eng"])
	}
	if totals["sales"] != 5 {
		t.Errorf("sales total = %d, want 5", totals["sales"])
	}
}

func TestAggregateOp_DistinctDedupsArgumentsWithinAGroup(t *testing.T) {
	ec := newAggCtx()
	in := rowsOf(
		Row{"x": value.Int(1)},
		Row{"x": value.Int(1)},
		Row{"x": value.Int(2)},
	)
	p := &plan.Aggregate{
		Items: []plan.AggregateItem{{FuncName: "count", Arg: &ast.Variable{Name: "x"}, Distinct: true, Alias: "n"}},
	}
	op := &aggregateOp{input: in, plan: p, ec: ec, index: map[string]*aggGroup{}}
	rows := drain(t, op)
	if len(rows) != 1 || rows[0]["n"].AsInt() != 2 {
		t.Fatalf("got %v, want one row with n=2 (distinct 1,2)", rows)
	}
}

func TestAggregateOp_MultipleItemsComputedTogether(t *testing.T) {
	ec := newAggCtx()
	in := rowsOf(Row{"x": value.Int(1)}, Row{"x": value.Int(5)}, Row{"x": value.Int(3)})
	p := &plan.Aggregate{
		Items: []plan.AggregateItem{
			{FuncName: "min", Arg: &ast.Variable{Name: "x"}, Alias: "lo"},
			{FuncName: "max", Arg: &ast.Variable{Name: "x"}, Alias: "hi"},
		},
	}
	op := &aggregateOp{input: in, plan: p, ec: ec, index: map[string]*aggGroup{}}
	rows := drain(t, op)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0]["lo"].AsInt() != 1 || rows[0]["hi"].AsInt() != 5 {
		t.Errorf("lo=%v hi=%v, want lo=1 hi=5", rows[0]["lo"], rows[0]["hi"])
	}
}

func TestAggregateOp_UnknownAggregateFunctionErrors(t *testing.T) {
	ec := newAggCtx()
	in := rowsOf(Row{"x": value.Int(1)})
	p := &plan.Aggregate{
		Items: []plan.AggregateItem{{FuncName: "bogus", Arg: &ast.Variable{Name: "x"}, Alias: "r"}},
	}
	op := &aggregateOp{input: in, plan: p, ec: ec, index: map[string]*aggGroup{}}
	if _, _, err := op.Next(nil); err == nil {
		t.Fatal("expected an error referencing an unknown aggregate function")
	}
}

func TestAggregateOp_PreservesOtherBindingsFromGroupKeyRow(t *testing.T) {
	ec := newAggCtx()
	in := rowsOf(Row{"dept": value.Str("eng"), "x": value.Int(1)})
	p := &plan.Aggregate{
		GroupBy: []plan.ProjectItem{{Expr: &ast.Variable{Name: "dept"}, Alias: "dept"}},
		Items:   []plan.AggregateItem{{FuncName: "count", Arg: &ast.Variable{Name: "x"}, Alias: "n"}},
	}
	op := &aggregateOp{input: in, plan: p, ec: ec, index: map[string]*aggGroup{}}
	rows := drain(t, op)
	if len(rows) != 1 || rows[0]["dept"].AsString() != "eng" {
		t.Fatalf("expected the group-by column to survive into the output row, got %v", rows)
	}
}
