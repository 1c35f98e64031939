// Package storage defines the narrow contract the executor drives:
// node/relationship CRUD, label and property-equality lookups, and an
// explicit-transaction marker interface whose rollback semantics are a
// storage backend's own business.
package storage

import (
	"github.com/ritamzico/cyquery/internal/model"
	"github.com/ritamzico/cyquery/internal/value"
)

// Store is the minimal read/write surface the executor and planner's
// IndexCatalog need. A concrete backend (the in-memory oracle in
// internal/memstore, or any future one) implements this once.
type Store interface {
	// AllNodes returns every node, in an unspecified but stable-within-a-
	// snapshot order.
	AllNodes() ([]*model.Node, error)
	// NodesByLabel returns every node carrying label.
	NodesByLabel(label string) ([]*model.Node, error)
	// NodesByIndex returns nodes of label whose property equals val,
	// using a materialized index. Callers must check HasIndex first.
	NodesByIndex(label, property string, val value.Value) ([]*model.Node, error)
	GetNode(id model.NodeID) (*model.Node, error)

	// RelationshipsFrom/To return a node's incident relationships,
	// filtered to relTypes when non-empty.
	RelationshipsFrom(id model.NodeID, relTypes []string) ([]*model.Relationship, error)
	RelationshipsTo(id model.NodeID, relTypes []string) ([]*model.Relationship, error)
	GetRelationship(id model.RelID) (*model.Relationship, error)

	CreateNode(labels []string, props *value.OrderedMap) (*model.Node, error)
	CreateRelationship(from, to model.NodeID, relType string, props *value.OrderedMap) (*model.Relationship, error)

	DeleteNode(id model.NodeID, detach bool) error
	DeleteRelationship(id model.RelID) error

	SetNodeProperty(id model.NodeID, key string, val value.Value) error
	RemoveNodeProperty(id model.NodeID, key string) error
	AddNodeLabel(id model.NodeID, label string) error
	RemoveNodeLabel(id model.NodeID, label string) error

	SetRelationshipProperty(id model.RelID, key string, val value.Value) error
	RemoveRelationshipProperty(id model.RelID, key string) error

	// CreateIndex materializes a label+property index so IndexCatalog and
	// NodesByIndex can serve it. name is the DDL name
	// ("" for an anonymous index); DropIndex can only remove a named one,
	// matching Cypher's DROP INDEX <name> form.
	CreateIndex(name, label, property string) error
	DropIndex(name string) error
	HasIndex(label, property string) bool
	// ListIndexes enumerates every declared index, for the DUMP
	// exporter's schema section.
	ListIndexes() []IndexSpec

	// CreateConstraint declares a uniqueness constraint on (label,
	// property), rejecting it with ConstraintViolation if existing data
	// already violates it. Uniqueness is enforced
	// going forward on node creation and property assignment.
	CreateConstraint(name, label, property string) error
	DropConstraint(name string) error
	ListConstraints() []ConstraintSpec

	// Begin opens an explicit transaction marker. Writes
	// made through a Tx apply immediately to the underlying store; Commit
	// is a no-op confirmation and Rollback is a documented no-op (no undo
	// log is kept), matching the oracle's role as a reference
	// implementation rather than a durable engine.
	Begin() (Tx, error)

	// Stats reports coarse counts for the CallProcedure db.stats()
	// built-in.
	Stats() (Counts, error)

	// Capabilities reports which optional behaviors this backend
	// supports, so MergeNode's atomicity guarantee and the
	// optimizer's IndexLookup substitution can be conditioned on what
	// the concrete store actually provides rather than assumed.
	Capabilities() Capabilities
}

// IndexSpec names one declared label+property index.
type IndexSpec struct {
	Label    string
	Property string
}

// ConstraintSpec names one declared uniqueness constraint.
type ConstraintSpec struct {
	Label    string
	Property string
	Unique   bool
}

// Capabilities is the result shape of Store.Capabilities.
type Capabilities struct {
	PredicatePushdown bool
	AtomicMerge       bool
	VectorSearch      bool
	RawQuery          bool
}

// Tx is an explicit transaction marker.
type Tx interface {
	Commit() error
	Rollback() error
}

// Counts is the result shape of the db.stats() procedure.
type Counts struct {
	NodeCount         int64
	RelationshipCount int64
	LabelCounts       map[string]int64
	RelTypeCounts     map[string]int64
}
