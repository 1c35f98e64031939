// Package model defines the graph entities stored by the storage
// contract: Node, Relationship, and Path, each carrying labels or a type
// plus a full property map.
package model

import (
	"fmt"

	"github.com/ritamzico/cyquery/internal/value"
)

// NodeID and RelID are storage-instance-scoped identities.
type NodeID int64
type RelID int64

// Node is a labeled entity with a property map. The label set is
// represented as an ordered slice (insertion order kept for DUMP/labels()
// determinism) but is semantically a set: duplicates are never inserted.
type Node struct {
	ID     NodeID
	Labels []string
	Props  *value.OrderedMap
}

func NewNode(id NodeID, labels []string, props *value.OrderedMap) *Node {
	if props == nil {
		props = value.NewOrderedMap()
	}
	return &Node{ID: id, Labels: append([]string{}, labels...), Props: props}
}

func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (n *Node) AddLabel(label string) bool {
	if n.HasLabel(label) {
		return false
	}
	n.Labels = append(n.Labels, label)
	return true
}

func (n *Node) RemoveLabel(label string) bool {
	for i, l := range n.Labels {
		if l == label {
			n.Labels = append(n.Labels[:i], n.Labels[i+1:]...)
			return true
		}
	}
	return false
}

func (n *Node) Clone() *Node {
	return &Node{ID: n.ID, Labels: append([]string{}, n.Labels...), Props: n.Props.Clone()}
}

func (n *Node) Value() value.Value {
	return value.Entity(value.KindNode, n)
}

// Relationship has exactly one type (not a set) and a fixed From/To
// directionality; queries may traverse either direction.
type Relationship struct {
	ID    RelID
	From  NodeID
	To    NodeID
	Type  string
	Props *value.OrderedMap
}

func NewRelationship(id RelID, from, to NodeID, typ string, props *value.OrderedMap) *Relationship {
	if props == nil {
		props = value.NewOrderedMap()
	}
	return &Relationship{ID: id, From: from, To: to, Type: typ, Props: props}
}

func (r *Relationship) Clone() *Relationship {
	return &Relationship{ID: r.ID, From: r.From, To: r.To, Type: r.Type, Props: r.Props.Clone()}
}

func (r *Relationship) Value() value.Value {
	return value.Entity(value.KindRelationship, r)
}

// OtherEnd returns the endpoint of r that isn't from.
func (r *Relationship) OtherEnd(from NodeID) NodeID {
	if r.From == from {
		return r.To
	}
	return r.From
}

// Path is an alternating, nonempty sequence of Nodes and Relationships:
// len(Nodes) == len(Rels)+1, and every relationship's endpoints must
// match its neighboring nodes.
type Path struct {
	Nodes []*Node
	Rels  []*Relationship
}

func (p Path) Validate() error {
	if len(p.Nodes) == 0 {
		return fmt.Errorf("path must contain at least one node")
	}
	if len(p.Rels) != len(p.Nodes)-1 {
		return fmt.Errorf("path has %d nodes but %d relationships, want %d", len(p.Nodes), len(p.Rels), len(p.Nodes)-1)
	}
	for i, r := range p.Rels {
		a, b := p.Nodes[i].ID, p.Nodes[i+1].ID
		if !((r.From == a && r.To == b) || (r.From == b && r.To == a)) {
			return fmt.Errorf("relationship %d endpoints (%d,%d) don't match neighboring nodes (%d,%d)", r.ID, r.From, r.To, a, b)
		}
	}
	return nil
}

func (p Path) Length() int { return len(p.Rels) }

func (p Path) Value() value.Value {
	return value.Entity(value.KindPath, p)
}
