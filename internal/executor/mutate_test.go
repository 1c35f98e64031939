package executor

import (
	"testing"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/model"
	"github.com/ritamzico/cyquery/internal/plan"
	"github.com/ritamzico/cyquery/internal/value"
)

func mapLit(entries ...ast.MapEntry) *ast.MapLiteral { return &ast.MapLiteral{Entries: entries} }

func TestCreateOp_MaterializesNodesAndRelationships(t *testing.T) {
	_, ec := newStoreCtx()
	ec.Stats = &Stats{}
	p := &plan.Create{
		Input: &plan.Argument{},
		Nodes: []plan.CreateNodeItem{
			{Binding: "a", Labels: []string{"Person"}, Properties: mapLit(ast.MapEntry{Key: "name", Value: lit(value.Str("Ada"))})},
			{Binding: "b", Labels: []string{"Person"}},
		},
		Rels: []plan.CreateRelItem{
			{FromBinding: "a", ToBinding: "b", RelBinding: "r", Type: "KNOWS"},
		},
	}
	op, err := Compile(p, ec)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rows := drain(t, op)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	a := rows[0]["a"].Payload().(*model.Node)
	if name, _ := a.Props.Get("name"); name.AsString() != "Ada" {
		t.Errorf("created node a.name = %v, want Ada", name)
	}
	r := rows[0]["r"].Payload().(*model.Relationship)
	if r.Type != "KNOWS" {
		t.Errorf("created relationship type = %q, want KNOWS", r.Type)
	}
	if ec.Stats.NodesCreated != 2 || ec.Stats.RelationshipsCreated != 1 {
		t.Errorf("Stats = %+v, want NodesCreated=2 RelationshipsCreated=1", ec.Stats)
	}
}

func TestMergeNodeOp_CreatesOnFirstRunsOnCreateOnce(t *testing.T) {
	_, ec := newStoreCtx()
	ec.Stats = &Stats{}
	p := &plan.MergeNode{
		Input:      &plan.Argument{},
		Binding:    "n",
		Labels:     []string{"Person"},
		Properties: mapLit(ast.MapEntry{Key: "email", Value: lit(value.Str("ada@example.com"))}),
		OnCreate:   []plan.SetOp{{Kind: ast.SetProperty, Target: "n", Property: "created", Value: lit(value.Bool(true))}},
	}
	op, err := Compile(p, ec)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rows := drain(t, op)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	n := rows[0]["n"].Payload().(*model.Node)
	if v, ok := n.Props.Get("created"); !ok || !v.AsBool() {
		t.Error("expected OnCreate's SET to have applied")
	}
	if ec.Stats.NodesCreated != 1 {
		t.Errorf("NodesCreated = %d, want 1", ec.Stats.NodesCreated)
	}
}

func TestMergeNodeOp_MatchesExistingRunsOnMatch(t *testing.T) {
	s, ec := newStoreCtx()
	ec.Stats = &Stats{}
	propsWith := func(k string, v value.Value) *value.OrderedMap {
		m := value.NewOrderedMap()
		m.Set(k, v)
		return m
	}
	if _, err := s.CreateNode([]string{"Person"}, propsWith("email", value.Str("ada@example.com"))); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	p := &plan.MergeNode{
		Input:      &plan.Argument{},
		Binding:    "n",
		Labels:     []string{"Person"},
		Properties: mapLit(ast.MapEntry{Key: "email", Value: lit(value.Str("ada@example.com"))}),
		OnMatch:    []plan.SetOp{{Kind: ast.SetProperty, Target: "n", Property: "matched", Value: lit(value.Bool(true))}},
	}
	op, err := Compile(p, ec)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rows := drain(t, op)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if ec.Stats.NodesCreated != 0 {
		t.Errorf("NodesCreated = %d, want 0 (should have matched, not created)", ec.Stats.NodesCreated)
	}
	n := rows[0]["n"].Payload().(*model.Node)
	if v, ok := n.Props.Get("matched"); !ok || !v.AsBool() {
		t.Error("expected OnMatch's SET to have applied")
	}
}

func TestSetPropertiesOp_SetNullPropertyRemovesIt(t *testing.T) {
	s, ec := newStoreCtx()
	ec.Stats = &Stats{}
	propsWith := func(k string, v value.Value) *value.OrderedMap {
		m := value.NewOrderedMap()
		m.Set(k, v)
		return m
	}
	n, err := s.CreateNode(nil, propsWith("temp", value.Str("x")))
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	in := rowsOf(Row{"n": n.Value()})
	op := &setPropertiesOp{input: in, ops: []plan.SetOp{{Kind: ast.SetProperty, Target: "n", Property: "temp", Value: &ast.Literal{Kind: ast.LitNull}}}, ec: ec}
	drain(t, op)
	got, _ := s.GetNode(n.ID)
	if _, ok := got.Props.Get("temp"); ok {
		t.Error("setting a property to Null should remove it")
	}
}

func TestSetLabelsOp_AddsLabelAndCountsStats(t *testing.T) {
	s, ec := newStoreCtx()
	ec.Stats = &Stats{}
	n, _ := s.CreateNode([]string{"Person"}, nil)
	in := rowsOf(Row{"n": n.Value()})
	op := &setLabelsOp{input: in, target: "n", labels: []string{"Admin"}, ec: ec}
	drain(t, op)
	got, _ := s.GetNode(n.ID)
	if !got.HasLabel("Admin") {
		t.Error("expected Admin label to be added")
	}
	if ec.Stats.LabelsAdded != 1 {
		t.Errorf("LabelsAdded = %d, want 1", ec.Stats.LabelsAdded)
	}
}

func TestRemoveLabelsOp_RemovesLabelAndCountsStats(t *testing.T) {
	s, ec := newStoreCtx()
	ec.Stats = &Stats{}
	n, _ := s.CreateNode([]string{"Person", "Admin"}, nil)
	in := rowsOf(Row{"n": n.Value()})
	op := &removeLabelsOp{input: in, target: "n", labels: []string{"Admin"}, ec: ec}
	drain(t, op)
	got, _ := s.GetNode(n.ID)
	if got.HasLabel("Admin") {
		t.Error("expected Admin label to be removed")
	}
	if ec.Stats.LabelsRemoved != 1 {
		t.Errorf("LabelsRemoved = %d, want 1", ec.Stats.LabelsRemoved)
	}
}

func TestRemovePropertiesOp_RejectsNonEntityTarget(t *testing.T) {
	_, ec := newStoreCtx()
	ec.Stats = &Stats{}
	in := rowsOf(Row{"n": value.Int(5)})
	op := &removePropertiesOp{input: in, target: "n", property: "x", ec: ec}
	if _, _, err := op.Next(nil); err == nil {
		t.Fatal("expected a TypeError removing a property from a non-entity binding")
	}
}

func TestDeleteOp_RemovesRelationshipsBeforeNodes(t *testing.T) {
	s, ec := newStoreCtx()
	ec.Stats = &Stats{}
	a, _ := s.CreateNode(nil, nil)
	b, _ := s.CreateNode(nil, nil)
	r, err := s.CreateRelationship(a.ID, b.ID, "KNOWS", nil)
	if err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}
	in := rowsOf(Row{"a": a.Value(), "r": r.Value()})
	p := &plan.Delete{
		Input: in,
		Items: []plan.DeleteItem{{Target: &ast.Variable{Name: "r"}}, {Target: &ast.Variable{Name: "a"}}},
	}
	op, err := Compile(p, ec)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	drain(t, op)
	if _, err := s.GetRelationship(r.ID); err == nil {
		t.Error("expected the relationship to be deleted")
	}
	if _, err := s.GetNode(a.ID); err == nil {
		t.Error("expected node a to be deleted")
	}
	if ec.Stats.NodesDeleted != 1 || ec.Stats.RelationshipsDeleted != 1 {
		t.Errorf("Stats = %+v", ec.Stats)
	}
}

func TestCallProcedureOp_DbStatsYieldsRequestedFields(t *testing.T) {
	s, ec := newStoreCtx()
	ec.Stats = &Stats{}
	s.CreateNode(nil, nil)
	s.CreateNode(nil, nil)
	in := rowsOf(Row{})
	p := &plan.CallProcedure{
		Input:     in,
		Procedure: "db.stats",
		Yield:     []ast.YieldItem{{Field: "nodeCount", Alias: "n"}},
	}
	op, err := Compile(p, ec)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rows := drain(t, op)
	if len(rows) != 1 || rows[0]["n"].AsInt() != 2 {
		t.Fatalf("got %v, want one row with n=2", rows)
	}
}

func TestCallProcedureOp_UnknownProcedureErrors(t *testing.T) {
	_, ec := newStoreCtx()
	ec.Stats = &Stats{}
	p := &plan.CallProcedure{Input: &plan.Argument{}, Procedure: "db.bogus"}
	op, err := Compile(p, ec)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, _, err := op.Next(nil); err == nil {
		t.Fatal("expected NotFound calling an unregistered procedure")
	}
}

func TestUnionOp_DistinctDedupsAcrossBothSides(t *testing.T) {
	left := rowsOf(Row{"x": value.Int(1)}, Row{"x": value.Int(2)})
	right := rowsOf(Row{"x": value.Int(2)}, Row{"x": value.Int(3)})
	u := &unionOp{left: left, right: right, seen: map[string]bool{}}
	rows := drain(t, u)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 distinct values (1,2,3)", len(rows))
	}
}

func TestUnionOp_AllKeepsDuplicates(t *testing.T) {
	left := rowsOf(Row{"x": value.Int(1)})
	right := rowsOf(Row{"x": value.Int(1)})
	u := &unionOp{left: left, right: right, all: true}
	rows := drain(t, u)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (UNION ALL keeps duplicates)", len(rows))
	}
}
