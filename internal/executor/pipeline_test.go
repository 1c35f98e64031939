package executor

import (
	"context"
	"testing"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/plan"
	"github.com/ritamzico/cyquery/internal/value"
)

// fixedOp replays a fixed slice of rows, for isolating one pipeline stage
// from the scan/expand machinery it would otherwise sit downstream of.
type fixedOp struct {
	rows []Row
	idx  int
}

func (f *fixedOp) Next(ctx context.Context) (Row, bool, error) {
	if f.idx >= len(f.rows) {
		return nil, false, nil
	}
	r := f.rows[f.idx]
	f.idx++
	return r, true, nil
}

func rowsOf(rows ...Row) *fixedOp { return &fixedOp{rows: rows} }

func TestFilterOp_KeepsOnlyTrueRows(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{"x": value.Int(1)}, Row{"x": value.Int(2)}, Row{"x": value.Int(3)})
	pred := &ast.BinaryOp{Op: ">", Left: &ast.Variable{Name: "x"}, Right: lit(value.Int(1))}
	f := &filterOp{input: in, predicate: pred, ec: ec}
	rows := drain(t, f)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestFilterOp_TreatsUnknownAsFalse(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{"x": value.Null})
	pred := &ast.BinaryOp{Op: "=", Left: &ast.Variable{Name: "x"}, Right: lit(value.Int(1))}
	f := &filterOp{input: in, predicate: pred, ec: ec}
	rows := drain(t, f)
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0 (Null = 1 is unknown, not true)", len(rows))
	}
}

func TestProjectOp_RenamesAndDropsOtherColumns(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{"x": value.Int(5), "y": value.Int(9)})
	p := &projectOp{input: in, items: []plan.ProjectItem{{Expr: &ast.Variable{Name: "x"}, Alias: "renamed"}}, ec: ec}
	rows := drain(t, p)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if _, ok := rows[0]["y"]; ok {
		t.Error("projectOp should drop columns not named in items")
	}
	if rows[0]["renamed"].AsInt() != 5 {
		t.Errorf("renamed = %v, want 5", rows[0]["renamed"])
	}
}

func TestDistinctOp_DedupsByRowFingerprintTreatingNullsAsEqual(t *testing.T) {
	in := rowsOf(
		Row{"x": value.Int(1)},
		Row{"x": value.Int(1)},
		Row{"x": value.Null},
		Row{"x": value.Null},
		Row{"x": value.Int(2)},
	)
	d := &distinctOp{input: in, seen: map[string]bool{}}
	rows := drain(t, d)
	if len(rows) != 3 {
		t.Fatalf("got %d distinct rows, want 3 (1, Null, 2)", len(rows))
	}
}

func TestSortOp_NullsFirstAscending(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{"x": value.Int(3)}, Row{"x": value.Null}, Row{"x": value.Int(1)})
	s := &sortOp{input: in, keys: []plan.SortKey{{Expr: &ast.Variable{Name: "x"}}}, ec: ec}
	rows := drain(t, s)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if !rows[0]["x"].IsNull() {
		t.Errorf("expected Null to sort first, got %v", rows[0]["x"])
	}
	if rows[1]["x"].AsInt() != 1 || rows[2]["x"].AsInt() != 3 {
		t.Errorf("expected ascending 1, 3 after Null, got %v, %v", rows[1]["x"], rows[2]["x"])
	}
}

func TestSortOp_Descending(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{"x": value.Int(1)}, Row{"x": value.Int(3)}, Row{"x": value.Int(2)})
	s := &sortOp{input: in, keys: []plan.SortKey{{Expr: &ast.Variable{Name: "x"}, Descending: true}}, ec: ec}
	rows := drain(t, s)
	want := []int64{3, 2, 1}
	for i, w := range want {
		if rows[i]["x"].AsInt() != w {
			t.Errorf("rows[%d] = %v, want %v", i, rows[i]["x"], w)
		}
	}
}

func TestSkipOp_SkipsNRows(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{"x": value.Int(1)}, Row{"x": value.Int(2)}, Row{"x": value.Int(3)})
	s := &skipOp{input: in, n: lit(value.Int(2)), ec: ec}
	rows := drain(t, s)
	if len(rows) != 1 || rows[0]["x"].AsInt() != 3 {
		t.Fatalf("got %v, want one row with x=3", rows)
	}
}

func TestSkipOp_NegativeCountErrors(t *testing.T) {
	ec := newEvalCtx()
	s := &skipOp{input: rowsOf(), n: lit(value.Int(-1)), ec: ec}
	if _, _, err := s.Next(context.Background()); err == nil {
		t.Fatal("expected an error for a negative SKIP count")
	}
}

func TestLimitOp_CapsRowCount(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{"x": value.Int(1)}, Row{"x": value.Int(2)}, Row{"x": value.Int(3)})
	l := &limitOp{input: in, n: lit(value.Int(2)), ec: ec}
	rows := drain(t, l)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestLimitOp_ZeroLimitYieldsNothing(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{"x": value.Int(1)})
	l := &limitOp{input: in, n: lit(value.Int(0)), ec: ec}
	rows := drain(t, l)
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestUnwindOp_ExpandsListIntoOneRowPerElement(t *testing.T) {
	ec := newEvalCtx()
	list := &ast.ListLiteral{Items: []ast.Expression{lit(value.Int(1)), lit(value.Int(2)), lit(value.Int(3))}}
	in := rowsOf(Row{"base": value.Str("keep-me")})
	u := &unwindOp{input: in, expr: list, binding: "item", ec: ec}
	rows := drain(t, u)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for i, r := range rows {
		if r["item"].AsInt() != int64(i+1) {
			t.Errorf("rows[%d][item] = %v, want %d", i, r["item"], i+1)
		}
		if r["base"].AsString() != "keep-me" {
			t.Errorf("unwind should preserve the base row's other bindings")
		}
	}
}

func TestUnwindOp_NonListScalarBecomesASingleRow(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{})
	u := &unwindOp{input: in, expr: lit(value.Int(42)), binding: "x", ec: ec}
	rows := drain(t, u)
	if len(rows) != 1 || rows[0]["x"].AsInt() != 42 {
		t.Fatalf("got %v, want one row with x=42", rows)
	}
}

func TestUnwindOp_NullProducesNoRows(t *testing.T) {
	ec := newEvalCtx()
	in := rowsOf(Row{})
	u := &unwindOp{input: in, expr: &ast.Literal{Kind: ast.LitNull}, binding: "x", ec: ec}
	rows := drain(t, u)
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}
