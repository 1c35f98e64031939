// Package memstore implements the in-memory reference oracle storage
// backend: a nodeMap plus out/in adjacency maps over typed, labeled,
// property-bearing nodes and relationships, extended with a label index
// and a property-value index backing the CREATE INDEX / IndexLookup
// machinery.
package memstore

import (
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/model"
	"github.com/ritamzico/cyquery/internal/storage"
	"github.com/ritamzico/cyquery/internal/value"
)

type indexKey struct {
	label    string
	property string
}

// Store is the in-memory reference oracle. A single sync.RWMutex guards
// every field, favoring coarse-grained correctness over fine-grained
// concurrency for a reference implementation.
type Store struct {
	mu sync.RWMutex

	nodes map[model.NodeID]*model.Node
	rels  map[model.RelID]*model.Relationship
	out   map[model.NodeID]map[model.RelID]*model.Relationship
	in    map[model.NodeID]map[model.RelID]*model.Relationship

	nextNodeID model.NodeID
	nextRelID  model.RelID

	labelIndex map[string]map[model.NodeID]bool
	relIndex   map[string]map[model.RelID]bool

	indexes map[indexKey]map[string][]model.NodeID // value.String() -> node ids

	constraints map[indexKey]bool // uniqueness constraints, backed by indexes

	indexNames      map[string]indexKey // DDL name -> index, for DROP INDEX <name>
	constraintNames map[string]indexKey // DDL name -> constraint, for DROP CONSTRAINT <name>

	log zerolog.Logger
}

// New returns an empty oracle. Writes are logged to a no-op logger until
// WithLogger attaches a real one, so the store is silent by default.
func New() *Store {
	return &Store{
		nodes:      make(map[model.NodeID]*model.Node),
		rels:       make(map[model.RelID]*model.Relationship),
		out:        make(map[model.NodeID]map[model.RelID]*model.Relationship),
		in:         make(map[model.NodeID]map[model.RelID]*model.Relationship),
		labelIndex: make(map[string]map[model.NodeID]bool),
		relIndex:   make(map[string]map[model.RelID]bool),
		indexes:         make(map[indexKey]map[string][]model.NodeID),
		constraints:     make(map[indexKey]bool),
		indexNames:      make(map[string]indexKey),
		constraintNames: make(map[string]indexKey),
		log:             zerolog.Nop(),
	}
}

// WithLogger attaches a structured logger for the write-operation audit
// trail and returns the same Store for chaining.
func (s *Store) WithLogger(l zerolog.Logger) *Store {
	s.log = l
	return s
}

var _ storage.Store = (*Store)(nil)

func (s *Store) AllNodes() ([]*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Node, 0, len(s.nodes))
	for _, id := range s.sortedNodeIDs() {
		out = append(out, s.nodes[id])
	}
	return out, nil
}

func (s *Store) sortedNodeIDs() []model.NodeID {
	ids := make([]model.NodeID, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) NodesByLabel(label string) ([]*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.labelIndex[label]
	ids := make([]model.NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id])
	}
	return out, nil
}

func (s *Store) NodesByIndex(label, property string, val value.Value) ([]*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[indexKey{label, property}]
	if !ok {
		return nil, &errs.StorageError{Message: "no index on :" + label + "(" + property + ")"}
	}
	ids := idx[val.String()]
	out := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Store) GetNode(id model.NodeID) (*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, &errs.NotFound{Kind: "Node", ID: nodeIDString(id)}
	}
	return n, nil
}

func (s *Store) RelationshipsFrom(id model.NodeID, relTypes []string) ([]*model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterRels(s.out[id], relTypes), nil
}

func (s *Store) RelationshipsTo(id model.NodeID, relTypes []string) ([]*model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterRels(s.in[id], relTypes), nil
}

func (s *Store) filterRels(m map[model.RelID]*model.Relationship, relTypes []string) []*model.Relationship {
	ids := make([]model.RelID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*model.Relationship, 0, len(ids))
	for _, id := range ids {
		r := m[id]
		if len(relTypes) == 0 || containsStr(relTypes, r.Type) {
			out = append(out, r)
		}
	}
	return out
}

func containsStr(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func (s *Store) GetRelationship(id model.RelID) (*model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rels[id]
	if !ok {
		return nil, &errs.NotFound{Kind: "Relationship", ID: relIDString(id)}
	}
	return r, nil
}

func (s *Store) CreateNode(labels []string, props *value.OrderedMap) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.constraintConflictLocked(labels, props, 0, false); err != nil {
		return nil, err
	}
	n := s.createNodeLocked(labels, props)
	s.log.Debug().Str("op", "create_node").Str("id", nodeIDString(n.ID)).Strs("labels", labels).Msg("")
	return n, nil
}

// constraintConflictLocked reports whether props already has a value
// taken by some other node for any (label, property) pair under a
// uniqueness constraint. Callers already hold s.mu.
func (s *Store) constraintConflictLocked(labels []string, props *value.OrderedMap, excludeID model.NodeID, hasExclude bool) error {
	if props == nil {
		return nil
	}
	for ik := range s.constraints {
		if !containsStr(labels, ik.label) {
			continue
		}
		v, ok := props.Get(ik.property)
		if !ok {
			continue
		}
		for _, id := range s.indexes[ik][v.String()] {
			if hasExclude && id == excludeID {
				continue
			}
			return &errs.ConstraintViolation{Message: "value " + v.String() + " already exists for :" + ik.label + "(" + ik.property + ")"}
		}
	}
	return nil
}

func (s *Store) createNodeLocked(labels []string, props *value.OrderedMap) *model.Node {
	id := s.nextNodeID
	s.nextNodeID++
	n := model.NewNode(id, labels, props)
	s.nodes[id] = n
	s.out[id] = make(map[model.RelID]*model.Relationship)
	s.in[id] = make(map[model.RelID]*model.Relationship)

	for _, l := range n.Labels {
		s.addToLabelIndex(id, l)
	}
	for ik := range s.indexes {
		if !containsStr(n.Labels, ik.label) {
			continue
		}
		if v, ok := n.Props.Get(ik.property); ok {
			s.indexes[ik][v.String()] = append(s.indexes[ik][v.String()], id)
		}
	}
	return n
}

func (s *Store) addToLabelIndex(id model.NodeID, label string) {
	set, ok := s.labelIndex[label]
	if !ok {
		set = make(map[model.NodeID]bool)
		s.labelIndex[label] = set
	}
	set[id] = true
}

func (s *Store) CreateRelationship(from, to model.NodeID, relType string, props *value.OrderedMap) (*model.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[from]; !ok {
		return nil, &errs.NotFound{Kind: "Node", ID: nodeIDString(from)}
	}
	if _, ok := s.nodes[to]; !ok {
		return nil, &errs.NotFound{Kind: "Node", ID: nodeIDString(to)}
	}
	id := s.nextRelID
	s.nextRelID++
	r := model.NewRelationship(id, from, to, relType, props)
	s.rels[id] = r
	s.out[from][id] = r
	s.in[to][id] = r

	set, ok := s.relIndex[relType]
	if !ok {
		set = make(map[model.RelID]bool)
		s.relIndex[relType] = set
	}
	set[id] = true

	s.log.Debug().Str("op", "create_relationship").Str("id", relIDString(id)).Str("type", relType).Msg("")
	return r, nil
}

func (s *Store) DeleteNode(id model.NodeID, detach bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return &errs.NotFound{Kind: "Node", ID: nodeIDString(id)}
	}

	if len(s.out[id]) > 0 || len(s.in[id]) > 0 {
		if !detach {
			return &errs.ConstraintViolation{Message: "cannot delete node with incident relationships without DETACH"}
		}
		for relID := range s.out[id] {
			s.removeRelationshipLocked(relID)
		}
		for relID := range s.in[id] {
			s.removeRelationshipLocked(relID)
		}
	}

	for _, l := range n.Labels {
		delete(s.labelIndex[l], id)
	}
	for ik, idx := range s.indexes {
		if v, ok := n.Props.Get(ik.property); ok {
			removeID(idx, v.String(), id)
		}
	}
	delete(s.nodes, id)
	delete(s.out, id)
	delete(s.in, id)
	s.log.Debug().Str("op", "delete_node").Str("id", nodeIDString(id)).Bool("detach", detach).Msg("")
	return nil
}

func removeID(idx map[string][]model.NodeID, key string, id model.NodeID) {
	ids := idx[key]
	for i, x := range ids {
		if x == id {
			idx[key] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

func (s *Store) removeRelationshipLocked(id model.RelID) {
	r, ok := s.rels[id]
	if !ok {
		return
	}
	delete(s.out[r.From], id)
	delete(s.in[r.To], id)
	delete(s.relIndex[r.Type], id)
	delete(s.rels, id)
}

func (s *Store) DeleteRelationship(id model.RelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rels[id]; !ok {
		return &errs.NotFound{Kind: "Relationship", ID: relIDString(id)}
	}
	s.removeRelationshipLocked(id)
	s.log.Debug().Str("op", "delete_relationship").Str("id", relIDString(id)).Msg("")
	return nil
}

func (s *Store) SetNodeProperty(id model.NodeID, key string, val value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return &errs.NotFound{Kind: "Node", ID: nodeIDString(id)}
	}
	for ik := range s.constraints {
		if ik.property != key || !containsStr(n.Labels, ik.label) {
			continue
		}
		for _, otherID := range s.indexes[ik][val.String()] {
			if otherID != id {
				return &errs.ConstraintViolation{Message: "value " + val.String() + " already exists for :" + ik.label + "(" + ik.property + ")"}
			}
		}
	}
	s.updateIndexesOnPropChange(n, key, val)
	n.Props.Set(key, val)
	s.log.Debug().Str("op", "set_node_property").Str("id", nodeIDString(id)).Str("key", key).Msg("")
	return nil
}

func (s *Store) updateIndexesOnPropChange(n *model.Node, key string, newVal value.Value) {
	for ik, idx := range s.indexes {
		if ik.property != key || !containsStr(n.Labels, ik.label) {
			continue
		}
		if old, ok := n.Props.Get(key); ok {
			removeID(idx, old.String(), n.ID)
		}
		idx[newVal.String()] = append(idx[newVal.String()], n.ID)
	}
}

func (s *Store) RemoveNodeProperty(id model.NodeID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return &errs.NotFound{Kind: "Node", ID: nodeIDString(id)}
	}
	for ik, idx := range s.indexes {
		if ik.property != key || !containsStr(n.Labels, ik.label) {
			continue
		}
		if old, ok := n.Props.Get(key); ok {
			removeID(idx, old.String(), id)
		}
	}
	n.Props.Delete(key)
	s.log.Debug().Str("op", "remove_node_property").Str("id", nodeIDString(id)).Str("key", key).Msg("")
	return nil
}

func (s *Store) AddNodeLabel(id model.NodeID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return &errs.NotFound{Kind: "Node", ID: nodeIDString(id)}
	}
	if n.AddLabel(label) {
		s.addToLabelIndex(id, label)
		for ik, idx := range s.indexes {
			if ik.label != label {
				continue
			}
			if v, ok := n.Props.Get(ik.property); ok {
				idx[v.String()] = append(idx[v.String()], id)
			}
		}
	}
	s.log.Debug().Str("op", "add_label").Str("id", nodeIDString(id)).Str("label", label).Msg("")
	return nil
}

func (s *Store) RemoveNodeLabel(id model.NodeID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return &errs.NotFound{Kind: "Node", ID: nodeIDString(id)}
	}
	if n.RemoveLabel(label) {
		delete(s.labelIndex[label], id)
		for ik, idx := range s.indexes {
			if ik.label != label {
				continue
			}
			if v, ok := n.Props.Get(ik.property); ok {
				removeID(idx, v.String(), id)
			}
		}
	}
	s.log.Debug().Str("op", "remove_label").Str("id", nodeIDString(id)).Str("label", label).Msg("")
	return nil
}

func (s *Store) SetRelationshipProperty(id model.RelID, key string, val value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rels[id]
	if !ok {
		return &errs.NotFound{Kind: "Relationship", ID: relIDString(id)}
	}
	r.Props.Set(key, val)
	s.log.Debug().Str("op", "set_relationship_property").Str("id", relIDString(id)).Str("key", key).Msg("")
	return nil
}

func (s *Store) RemoveRelationshipProperty(id model.RelID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rels[id]
	if !ok {
		return &errs.NotFound{Kind: "Relationship", ID: relIDString(id)}
	}
	r.Props.Delete(key)
	s.log.Debug().Str("op", "remove_relationship_property").Str("id", relIDString(id)).Str("key", key).Msg("")
	return nil
}

func (s *Store) CreateIndex(name, label, property string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ik := indexKey{label, property}
	if _, ok := s.indexes[ik]; !ok {
		idx := make(map[string][]model.NodeID)
		for id := range s.labelIndex[label] {
			n := s.nodes[id]
			if v, ok := n.Props.Get(property); ok {
				idx[v.String()] = append(idx[v.String()], id)
			}
		}
		s.indexes[ik] = idx
	}
	if name != "" {
		s.indexNames[name] = ik
	}
	return nil
}

func (s *Store) DropIndex(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ik, ok := s.indexNames[name]
	if !ok {
		return &errs.NotFound{Kind: "Index", ID: name}
	}
	delete(s.indexes, ik)
	delete(s.indexNames, name)
	return nil
}

func (s *Store) HasIndex(label, property string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[indexKey{label, property}]
	return ok
}

func (s *Store) ListIndexes() []storage.IndexSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.IndexSpec, 0, len(s.indexes))
	for ik := range s.indexes {
		out = append(out, storage.IndexSpec{Label: ik.label, Property: ik.property})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Property < out[j].Property
	})
	return out
}

// CreateConstraint declares a uniqueness constraint, using the matching
// index as its backing lookup (creating one if none exists yet), and
// rejects the declaration if existing data already has a duplicate.
func (s *Store) CreateConstraint(name, label, property string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ik := indexKey{label, property}
	if !s.constraints[ik] {
		if _, ok := s.indexes[ik]; !ok {
			idx := make(map[string][]model.NodeID)
			for id := range s.labelIndex[label] {
				n := s.nodes[id]
				if v, ok := n.Props.Get(property); ok {
					idx[v.String()] = append(idx[v.String()], id)
				}
			}
			s.indexes[ik] = idx
		}
		for key, ids := range s.indexes[ik] {
			if len(ids) > 1 {
				return &errs.ConstraintViolation{Message: "existing duplicate value " + key + " violates uniqueness constraint on :" + label + "(" + property + ")"}
			}
		}
		s.constraints[ik] = true
	}
	if name != "" {
		s.constraintNames[name] = ik
	}
	return nil
}

func (s *Store) DropConstraint(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ik, ok := s.constraintNames[name]
	if !ok {
		return &errs.NotFound{Kind: "Constraint", ID: name}
	}
	delete(s.constraints, ik)
	delete(s.constraintNames, name)
	return nil
}

func (s *Store) ListConstraints() []storage.ConstraintSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.ConstraintSpec, 0, len(s.constraints))
	for ik := range s.constraints {
		out = append(out, storage.ConstraintSpec{Label: ik.label, Property: ik.property, Unique: true})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Property < out[j].Property
	})
	return out
}

func (s *Store) Begin() (storage.Tx, error) {
	return &tx{}, nil
}

// tx is a marker only: writes through Store already applied immediately,
// so Commit confirms and Rollback deliberately does nothing.
type tx struct{ done bool }

func (t *tx) Commit() error   { t.done = true; return nil }
func (t *tx) Rollback() error { t.done = true; return nil }

func (s *Store) Stats() (storage.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := storage.Counts{
		NodeCount:         int64(len(s.nodes)),
		RelationshipCount: int64(len(s.rels)),
		LabelCounts:       make(map[string]int64, len(s.labelIndex)),
		RelTypeCounts:     make(map[string]int64, len(s.relIndex)),
	}
	for label, set := range s.labelIndex {
		c.LabelCounts[label] = int64(len(set))
	}
	for typ, set := range s.relIndex {
		c.RelTypeCounts[typ] = int64(len(set))
	}
	return c, nil
}

// Capabilities reports the oracle's guarantees: a single sync.RWMutex over every write makes
// match-then-maybe-create atomic relative to other callers, and a
// materialized label+property index backs predicate pushdown. Vector
// search and raw passthrough queries have no oracle implementation.
func (s *Store) Capabilities() storage.Capabilities {
	return storage.Capabilities{
		PredicatePushdown: true,
		AtomicMerge:       true,
		VectorSearch:      false,
		RawQuery:          false,
	}
}

func nodeIDString(id model.NodeID) string { return "n" + strconv.FormatInt(int64(id), 10) }
func relIDString(id model.RelID) string   { return "r" + strconv.FormatInt(int64(id), 10) }
