package memstore

import (
	"testing"

	"github.com/ritamzico/cyquery/internal/model"
	"github.com/ritamzico/cyquery/internal/value"
)

func TestCreateNode_AssignsSequentialIDs(t *testing.T) {
	s := New()
	n1, err := s.CreateNode([]string{"Person"}, nil)
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	n2, err := s.CreateNode([]string{"Person"}, nil)
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if n1.ID == n2.ID {
		t.Fatalf("expected distinct node IDs, got %d and %d", n1.ID, n2.ID)
	}
}

func TestCreateNode_NilPropsBecomesEmptyMap(t *testing.T) {
	s := New()
	n, err := s.CreateNode([]string{"Person"}, nil)
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if n.Props == nil {
		t.Fatal("CreateNode should never leave Props nil")
	}
}

func TestAllNodes_SortedByID(t *testing.T) {
	s := New()
	want := make([]model.NodeID, 0, 5)
	for i := 0; i < 5; i++ {
		n, err := s.CreateNode(nil, nil)
		if err != nil {
			t.Fatalf("CreateNode: %v", err)
		}
		want = append(want, n.ID)
	}
	got, err := s.AllNodes()
	if err != nil {
		t.Fatalf("AllNodes: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("AllNodes returned %d nodes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("AllNodes[%d].ID = %d, want %d", i, got[i].ID, want[i])
		}
	}
}

func TestNodesByLabel_OnlyMatchingLabel(t *testing.T) {
	s := New()
	p, err := s.CreateNode([]string{"Person"}, nil)
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if _, err := s.CreateNode([]string{"Company"}, nil); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	got, err := s.NodesByLabel("Person")
	if err != nil {
		t.Fatalf("NodesByLabel: %v", err)
	}
	if len(got) != 1 || got[0].ID != p.ID {
		t.Fatalf("NodesByLabel(\"Person\") = %+v", got)
	}
}

func TestGetNode_NotFoundForUnknownID(t *testing.T) {
	s := New()
	if _, err := s.GetNode(999); err == nil {
		t.Fatal("expected NotFound for an unknown node ID")
	}
}

func TestCreateRelationship_RequiresBothEndpointsToExist(t *testing.T) {
	s := New()
	a, err := s.CreateNode(nil, nil)
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if _, err := s.CreateRelationship(a.ID, 999, "KNOWS", nil); err == nil {
		t.Fatal("expected NotFound for a nonexistent target node")
	}
	if _, err := s.CreateRelationship(999, a.ID, "KNOWS", nil); err == nil {
		t.Fatal("expected NotFound for a nonexistent source node")
	}
}

func TestRelationshipsFromTo_FilteredByTypeAndDirection(t *testing.T) {
	s := New()
	a, _ := s.CreateNode(nil, nil)
	b, _ := s.CreateNode(nil, nil)
	if _, err := s.CreateRelationship(a.ID, b.ID, "KNOWS", nil); err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}
	if _, err := s.CreateRelationship(a.ID, b.ID, "FOLLOWS", nil); err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}

	out, err := s.RelationshipsFrom(a.ID, []string{"KNOWS"})
	if err != nil {
		t.Fatalf("RelationshipsFrom: %v", err)
	}
	if len(out) != 1 || out[0].Type != "KNOWS" {
		t.Fatalf("RelationshipsFrom(a, KNOWS) = %+v", out)
	}

	in, err := s.RelationshipsTo(b.ID, nil)
	if err != nil {
		t.Fatalf("RelationshipsTo: %v", err)
	}
	if len(in) != 2 {
		t.Fatalf("RelationshipsTo(b, nil) = %d relationships, want 2", len(in))
	}

	none, err := s.RelationshipsFrom(b.ID, nil)
	if err != nil {
		t.Fatalf("RelationshipsFrom: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("RelationshipsFrom(b) = %+v, want none (b is only a target)", none)
	}
}

func TestDeleteNode_RefusesWithoutDetachWhenConnected(t *testing.T) {
	s := New()
	a, _ := s.CreateNode(nil, nil)
	b, _ := s.CreateNode(nil, nil)
	if _, err := s.CreateRelationship(a.ID, b.ID, "KNOWS", nil); err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}
	if err := s.DeleteNode(a.ID, false); err == nil {
		t.Fatal("expected a ConstraintViolation deleting a connected node without DETACH")
	}
	if err := s.DeleteNode(a.ID, true); err != nil {
		t.Fatalf("DeleteNode with detach=true: %v", err)
	}
	if _, err := s.GetRelationship(0); err == nil {
		t.Fatal("expected the incident relationship to be gone after a detach delete")
	}
}

func TestDeleteNode_NotFoundForUnknownID(t *testing.T) {
	s := New()
	if err := s.DeleteNode(999, false); err == nil {
		t.Fatal("expected NotFound deleting an unknown node")
	}
}

func TestDeleteRelationship_RemovesFromBothAdjacencySides(t *testing.T) {
	s := New()
	a, _ := s.CreateNode(nil, nil)
	b, _ := s.CreateNode(nil, nil)
	r, err := s.CreateRelationship(a.ID, b.ID, "KNOWS", nil)
	if err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}
	if err := s.DeleteRelationship(r.ID); err != nil {
		t.Fatalf("DeleteRelationship: %v", err)
	}
	if out, _ := s.RelationshipsFrom(a.ID, nil); len(out) != 0 {
		t.Errorf("RelationshipsFrom(a) after delete = %+v, want none", out)
	}
	if in, _ := s.RelationshipsTo(b.ID, nil); len(in) != 0 {
		t.Errorf("RelationshipsTo(b) after delete = %+v, want none", in)
	}
}

func TestSetAndRemoveNodeProperty(t *testing.T) {
	s := New()
	n, _ := s.CreateNode(nil, nil)
	if err := s.SetNodeProperty(n.ID, "name", value.Str("Ada")); err != nil {
		t.Fatalf("SetNodeProperty: %v", err)
	}
	got, _ := s.GetNode(n.ID)
	if v, ok := got.Props.Get("name"); !ok || v.AsString() != "Ada" {
		t.Fatalf("expected name=Ada, got %v (ok=%v)", v, ok)
	}
	if err := s.RemoveNodeProperty(n.ID, "name"); err != nil {
		t.Fatalf("RemoveNodeProperty: %v", err)
	}
	if _, ok := got.Props.Get("name"); ok {
		t.Fatal("expected name to be removed")
	}
}

func TestSetRelationshipProperty_NotFoundForUnknownID(t *testing.T) {
	s := New()
	if err := s.SetRelationshipProperty(999, "weight", value.Int(1)); err == nil {
		t.Fatal("expected NotFound setting a property on an unknown relationship")
	}
}

func TestAddRemoveNodeLabel_UpdatesLabelIndex(t *testing.T) {
	s := New()
	n, _ := s.CreateNode([]string{"Person"}, nil)
	if err := s.AddNodeLabel(n.ID, "Admin"); err != nil {
		t.Fatalf("AddNodeLabel: %v", err)
	}
	admins, _ := s.NodesByLabel("Admin")
	if len(admins) != 1 || admins[0].ID != n.ID {
		t.Fatalf("NodesByLabel(\"Admin\") = %+v", admins)
	}

	if err := s.RemoveNodeLabel(n.ID, "Admin"); err != nil {
		t.Fatalf("RemoveNodeLabel: %v", err)
	}
	admins, _ = s.NodesByLabel("Admin")
	if len(admins) != 0 {
		t.Fatalf("NodesByLabel(\"Admin\") after removal = %+v, want none", admins)
	}
}

func TestAddNodeLabel_DuplicateIsANoOp(t *testing.T) {
	s := New()
	n, _ := s.CreateNode([]string{"Person"}, nil)
	if err := s.AddNodeLabel(n.ID, "Person"); err != nil {
		t.Fatalf("AddNodeLabel: %v", err)
	}
	if len(n.Labels) != 1 {
		t.Fatalf("expected label set to stay deduplicated, got %v", n.Labels)
	}
}

func TestNodesByIndex_RequiresAnExistingIndex(t *testing.T) {
	s := New()
	if _, err := s.NodesByIndex("Person", "email", value.Str("x")); err == nil {
		t.Fatal("expected a storage error looking up an index that was never created")
	}
}

func TestNodesByIndex_FindsByExactValue(t *testing.T) {
	s := New()
	if err := s.CreateIndex("", "Person", "email"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	n, err := s.CreateNode([]string{"Person"}, propsWith("email", value.Str("ada@example.com")))
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	got, err := s.NodesByIndex("Person", "email", value.Str("ada@example.com"))
	if err != nil {
		t.Fatalf("NodesByIndex: %v", err)
	}
	if len(got) != 1 || got[0].ID != n.ID {
		t.Fatalf("NodesByIndex = %+v", got)
	}
}

func TestBeginCommitRollback_AreNoOpMarkers(t *testing.T) {
	s := New()
	n, _ := s.CreateNode(nil, nil)
	tx, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.SetNodeProperty(n.ID, "k", value.Int(1)); err != nil {
		t.Fatalf("SetNodeProperty: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	got, _ := s.GetNode(n.ID)
	if v, ok := got.Props.Get("k"); !ok || v.AsInt() != 1 {
		t.Fatal("Rollback should not undo writes already applied directly to the store")
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestStats_CountsNodesRelationshipsLabelsAndTypes(t *testing.T) {
	s := New()
	a, _ := s.CreateNode([]string{"Person"}, nil)
	b, _ := s.CreateNode([]string{"Person"}, nil)
	if _, err := s.CreateRelationship(a.ID, b.ID, "KNOWS", nil); err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.NodeCount != 2 {
		t.Errorf("NodeCount = %d, want 2", stats.NodeCount)
	}
	if stats.RelationshipCount != 1 {
		t.Errorf("RelationshipCount = %d, want 1", stats.RelationshipCount)
	}
	if stats.LabelCounts["Person"] != 2 {
		t.Errorf("LabelCounts[Person] = %d, want 2", stats.LabelCounts["Person"])
	}
	if stats.RelTypeCounts["KNOWS"] != 1 {
		t.Errorf("RelTypeCounts[KNOWS] = %d, want 1", stats.RelTypeCounts["KNOWS"])
	}
}

func TestCapabilities_ReportsOracleGuarantees(t *testing.T) {
	s := New()
	c := s.Capabilities()
	if !c.PredicatePushdown || !c.AtomicMerge {
		t.Errorf("expected PredicatePushdown and AtomicMerge true, got %+v", c)
	}
	if c.VectorSearch || c.RawQuery {
		t.Errorf("expected VectorSearch and RawQuery false, got %+v", c)
	}
}
