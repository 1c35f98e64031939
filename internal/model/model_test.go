package model

import (
	"testing"

	"github.com/ritamzico/cyquery/internal/value"
)

func TestNewNode_NilPropsBecomesEmptyMap(t *testing.T) {
	n := NewNode(1, []string{"Person"}, nil)
	if n.Props == nil {
		t.Fatal("expected NewNode to substitute an empty OrderedMap for nil props")
	}
	if n.Props.Len() != 0 {
		t.Errorf("expected empty props, got %d entries", n.Props.Len())
	}
}

func TestNode_AddLabelRejectsDuplicates(t *testing.T) {
	n := NewNode(1, []string{"Person"}, nil)
	if n.AddLabel("Person") {
		t.Error("expected AddLabel to report false for an existing label")
	}
	if !n.AddLabel("Employee") {
		t.Error("expected AddLabel to report true for a new label")
	}
	if len(n.Labels) != 2 {
		t.Fatalf("expected 2 labels, got %v", n.Labels)
	}
}

func TestNode_RemoveLabel(t *testing.T) {
	n := NewNode(1, []string{"Person", "Employee"}, nil)
	if !n.RemoveLabel("Person") {
		t.Error("expected RemoveLabel to report true for an existing label")
	}
	if n.HasLabel("Person") {
		t.Error("expected Person to be removed")
	}
	if !n.HasLabel("Employee") {
		t.Error("expected Employee to remain")
	}
	if n.RemoveLabel("Nonexistent") {
		t.Error("expected RemoveLabel to report false for a label never present")
	}
}

func TestNode_CloneIsIndependent(t *testing.T) {
	props := value.NewOrderedMap()
	props.Set("name", value.Str("Ada"))
	n := NewNode(1, []string{"Person"}, props)

	c := n.Clone()
	c.AddLabel("Employee")
	c.Props.Set("name", value.Str("Grace"))

	if n.HasLabel("Employee") {
		t.Error("mutating the clone's labels should not affect the original")
	}
	v, _ := n.Props.Get("name")
	if v.AsString() != "Ada" {
		t.Error("mutating the clone's props should not affect the original")
	}
}

func TestRelationship_OtherEnd(t *testing.T) {
	r := NewRelationship(1, 10, 20, "KNOWS", nil)
	if got := r.OtherEnd(10); got != 20 {
		t.Errorf("OtherEnd(10) = %d, want 20", got)
	}
	if got := r.OtherEnd(20); got != 10 {
		t.Errorf("OtherEnd(20) = %d, want 10", got)
	}
}

func TestPath_ValidateAcceptsWellFormedPath(t *testing.T) {
	a := NewNode(1, nil, nil)
	b := NewNode(2, nil, nil)
	c := NewNode(3, nil, nil)
	r1 := NewRelationship(1, 1, 2, "KNOWS", nil)
	r2 := NewRelationship(2, 3, 2, "KNOWS", nil) // reversed direction is still valid

	p := Path{Nodes: []*Node{a, b, c}, Rels: []*Relationship{r1, r2}}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if p.Length() != 2 {
		t.Errorf("Length() = %d, want 2", p.Length())
	}
}

func TestPath_ValidateRejectsMismatchedEndpoints(t *testing.T) {
	a := NewNode(1, nil, nil)
	b := NewNode(2, nil, nil)
	wrong := NewNode(99, nil, nil)
	r := NewRelationship(1, 1, 99, "KNOWS", nil)

	p := Path{Nodes: []*Node{a, b}, Rels: []*Relationship{r}}
	if err := p.Validate(); err == nil {
		t.Fatal("expected Validate to reject a relationship whose endpoints don't match neighboring nodes")
	}
	_ = wrong
}

func TestPath_ValidateRejectsWrongRelCount(t *testing.T) {
	a := NewNode(1, nil, nil)
	b := NewNode(2, nil, nil)
	c := NewNode(3, nil, nil)
	r := NewRelationship(1, 1, 2, "KNOWS", nil)

	p := Path{Nodes: []*Node{a, b, c}, Rels: []*Relationship{r}}
	if err := p.Validate(); err == nil {
		t.Fatal("expected Validate to reject a node/relationship count mismatch")
	}
}

func TestPath_ValidateRejectsEmptyPath(t *testing.T) {
	p := Path{}
	if err := p.Validate(); err == nil {
		t.Fatal("expected Validate to reject a path with zero nodes")
	}
}
