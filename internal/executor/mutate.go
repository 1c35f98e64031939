package executor

import (
	"context"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/model"
	"github.com/ritamzico/cyquery/internal/plan"
	"github.com/ritamzico/cyquery/internal/value"
)

func propsOf(expr ast.Expression, row Row, ec *Context) (*value.OrderedMap, error) {
	if expr == nil {
		return value.NewOrderedMap(), nil
	}
	v, err := Eval(expr, row, ec)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return value.NewOrderedMap(), nil
	}
	if v.Kind != value.KindMap {
		return nil, &errs.TypeError{Expected: "Map", Got: v.Kind.String(), Context: "property map"}
	}
	return v.AsMap(), nil
}

func nodeFrom(row Row, binding string) (*model.Node, error) {
	v, ok := row[binding]
	if !ok || v.IsNull() || v.Kind != value.KindNode {
		return nil, &errs.TypeError{Expected: "Node", Got: "missing or non-Node binding", Context: binding}
	}
	n, _ := v.Payload().(*model.Node)
	return n, nil
}

func relFrom(row Row, binding string) (*model.Relationship, error) {
	v, ok := row[binding]
	if !ok || v.IsNull() || v.Kind != value.KindRelationship {
		return nil, &errs.TypeError{Expected: "Relationship", Got: "missing or non-Relationship binding", Context: binding}
	}
	r, _ := v.Payload().(*model.Relationship)
	return r, nil
}

// createOp materializes new nodes and relationships for every input row.
type createOp struct {
	input Op
	plan  *plan.Create
	ec    *Context
}

func (c *createOp) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := c.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	out := row.clone()
	for _, item := range c.plan.Nodes {
		props, err := propsOf(item.Properties, out, c.ec)
		if err != nil {
			return nil, false, err
		}
		n, err := c.ec.Store.CreateNode(item.Labels, props)
		if err != nil {
			return nil, false, err
		}
		c.ec.Stats.NodesCreated++
		out[item.Binding] = n.Value()
	}
	for _, item := range c.plan.Rels {
		fromNode, err := nodeFrom(out, item.FromBinding)
		if err != nil {
			return nil, false, err
		}
		toNode, err := nodeFrom(out, item.ToBinding)
		if err != nil {
			return nil, false, err
		}
		props, err := propsOf(item.Properties, out, c.ec)
		if err != nil {
			return nil, false, err
		}
		r, err := c.ec.Store.CreateRelationship(fromNode.ID, toNode.ID, item.Type, props)
		if err != nil {
			return nil, false, err
		}
		c.ec.Stats.RelationshipsCreated++
		if item.RelBinding != "" {
			out[item.RelBinding] = r.Value()
		}
	}
	return out, true, nil
}

// mergeNodeOp implements MERGE's match-or-create semantics for a single
// node pattern: look up a node carrying Labels whose
// properties match Properties exactly; create one if none exists, then
// apply the OnCreate or OnMatch SET actions depending on which path was
// taken.
type mergeNodeOp struct {
	input Op
	plan  *plan.MergeNode
	ec    *Context
}

func (m *mergeNodeOp) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := m.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	out := row.clone()

	wantProps, err := propsOf(m.plan.Properties, out, m.ec)
	if err != nil {
		return nil, false, err
	}

	node, err := m.findMatch(wantProps)
	if err != nil {
		return nil, false, err
	}

	var ops []plan.SetOp
	if node == nil {
		node, err = m.ec.Store.CreateNode(m.plan.Labels, wantProps)
		if err != nil {
			return nil, false, err
		}
		m.ec.Stats.NodesCreated++
		ops = m.plan.OnCreate
	} else {
		ops = m.plan.OnMatch
	}
	out[m.plan.Binding] = node.Value()

	for _, op := range ops {
		if err := applySetOp(m.ec, out, op); err != nil {
			return nil, false, err
		}
	}
	// Re-read after mutation in case OnCreate/OnMatch changed properties
	// or labels visible through this binding.
	fresh, err := m.ec.Store.GetNode(node.ID)
	if err != nil {
		return nil, false, err
	}
	out[m.plan.Binding] = fresh.Value()
	return out, true, nil
}

func (m *mergeNodeOp) findMatch(wantProps *value.OrderedMap) (*model.Node, error) {
	var candidates []*model.Node
	if len(m.plan.Labels) > 0 {
		nodes, err := m.ec.Store.NodesByLabel(m.plan.Labels[0])
		if err != nil {
			return nil, err
		}
		candidates = nodes
	} else {
		nodes, err := m.ec.Store.AllNodes()
		if err != nil {
			return nil, err
		}
		candidates = nodes
	}

	for _, n := range candidates {
		if !hasAllLabels(n, m.plan.Labels) {
			continue
		}
		if propsMatch(n.Props, wantProps) {
			return n, nil
		}
	}
	return nil, nil
}

func hasAllLabels(n *model.Node, labels []string) bool {
	for _, l := range labels {
		if !n.HasLabel(l) {
			return false
		}
	}
	return true
}

func propsMatch(have, want *value.OrderedMap) bool {
	if have.Len() != want.Len() {
		return false
	}
	for _, k := range want.Keys() {
		wv, _ := want.Get(k)
		hv, ok := have.Get(k)
		if !ok {
			return false
		}
		eq, ok := value.Equals(hv, wv)
		if !ok || !eq {
			return false
		}
	}
	return true
}

func applySetOp(ec *Context, row Row, op plan.SetOp) error {
	switch op.Kind {
	case ast.SetProperty:
		v, err := Eval(op.Value, row, ec)
		if err != nil {
			return err
		}
		return setOneProperty(ec, row, op.Target, op.Property, v)
	case ast.SetReplaceMap, ast.SetMergeMap:
		v, err := Eval(op.Value, row, ec)
		if err != nil {
			return err
		}
		if v.IsNull() || v.Kind != value.KindMap {
			return &errs.TypeError{Expected: "Map", Got: v.Kind.String(), Context: "SET"}
		}
		return applyMapToTarget(ec, row, op.Target, v.AsMap(), op.Kind == ast.SetReplaceMap)
	case ast.SetLabel:
		return addLabels(ec, row, op.Target, op.Labels)
	default:
		return &errs.ExecutionError{Message: "unknown SET operation kind"}
	}
}

func setOneProperty(ec *Context, row Row, target, key string, v value.Value) error {
	tv, ok := row[target]
	if !ok {
		return &errs.SemanticError{Message: "SET target not bound: " + target}
	}
	switch tv.Kind {
	case value.KindNode:
		n := tv.Payload().(*model.Node)
		if v.IsNull() {
			return ec.Store.RemoveNodeProperty(n.ID, key)
		}
		if err := ec.Store.SetNodeProperty(n.ID, key, v); err != nil {
			return err
		}
		ec.Stats.PropertiesSet++
		return nil
	case value.KindRelationship:
		r := tv.Payload().(*model.Relationship)
		if v.IsNull() {
			return ec.Store.RemoveRelationshipProperty(r.ID, key)
		}
		if err := ec.Store.SetRelationshipProperty(r.ID, key, v); err != nil {
			return err
		}
		ec.Stats.PropertiesSet++
		return nil
	default:
		return &errs.TypeError{Expected: "Node or Relationship", Got: tv.Kind.String(), Context: "SET ." + key}
	}
}

func applyMapToTarget(ec *Context, row Row, target string, m *value.OrderedMap, replace bool) error {
	tv, ok := row[target]
	if !ok {
		return &errs.SemanticError{Message: "SET target not bound: " + target}
	}
	switch tv.Kind {
	case value.KindNode:
		n := tv.Payload().(*model.Node)
		if replace {
			for _, k := range n.Props.Keys() {
				if _, keep := m.Get(k); !keep {
					if err := ec.Store.RemoveNodeProperty(n.ID, k); err != nil {
						return err
					}
				}
			}
		}
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			if err := ec.Store.SetNodeProperty(n.ID, k, v); err != nil {
				return err
			}
			ec.Stats.PropertiesSet++
		}
		return nil
	case value.KindRelationship:
		r := tv.Payload().(*model.Relationship)
		if replace {
			for _, k := range r.Props.Keys() {
				if _, keep := m.Get(k); !keep {
					if err := ec.Store.RemoveRelationshipProperty(r.ID, k); err != nil {
						return err
					}
				}
			}
		}
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			if err := ec.Store.SetRelationshipProperty(r.ID, k, v); err != nil {
				return err
			}
			ec.Stats.PropertiesSet++
		}
		return nil
	default:
		return &errs.TypeError{Expected: "Node or Relationship", Got: tv.Kind.String(), Context: "SET"}
	}
}

func addLabels(ec *Context, row Row, target string, labels []string) error {
	n, err := nodeFrom(row, target)
	if err != nil {
		return err
	}
	for _, l := range labels {
		if err := ec.Store.AddNodeLabel(n.ID, l); err != nil {
			return err
		}
		ec.Stats.LabelsAdded++
	}
	return nil
}

type setPropertiesOp struct {
	input Op
	ops   []plan.SetOp
	ec    *Context
}

func (s *setPropertiesOp) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := s.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	out := row.clone()
	for _, op := range s.ops {
		if err := applySetOp(s.ec, out, op); err != nil {
			return nil, false, err
		}
	}
	return out, true, nil
}

type setLabelsOp struct {
	input  Op
	target string
	labels []string
	ec     *Context
}

func (s *setLabelsOp) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := s.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := addLabels(s.ec, row, s.target, s.labels); err != nil {
		return nil, false, err
	}
	return row, true, nil
}

type removePropertiesOp struct {
	input    Op
	target   string
	property string
	ec       *Context
}

func (r *removePropertiesOp) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := r.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	tv, present := row[r.target]
	if !present {
		return nil, false, &errs.SemanticError{Message: "REMOVE target not bound: " + r.target}
	}
	switch tv.Kind {
	case value.KindNode:
		n := tv.Payload().(*model.Node)
		if err := r.ec.Store.RemoveNodeProperty(n.ID, r.property); err != nil {
			return nil, false, err
		}
	case value.KindRelationship:
		rel := tv.Payload().(*model.Relationship)
		if err := r.ec.Store.RemoveRelationshipProperty(rel.ID, r.property); err != nil {
			return nil, false, err
		}
	default:
		return nil, false, &errs.TypeError{Expected: "Node or Relationship", Got: tv.Kind.String(), Context: "REMOVE"}
	}
	return row, true, nil
}

type removeLabelsOp struct {
	input  Op
	target string
	labels []string
	ec     *Context
}

func (r *removeLabelsOp) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := r.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	n, err := nodeFrom(row, r.target)
	if err != nil {
		return nil, false, err
	}
	for _, l := range r.labels {
		if err := r.ec.Store.RemoveNodeLabel(n.ID, l); err != nil {
			return nil, false, err
		}
		r.ec.Stats.LabelsRemoved++
	}
	return row, true, nil
}

// deleteOp removes nodes and/or relationships per input row.
type deleteOp struct {
	input Op
	plan  *plan.Delete
	ec    *Context
}

func (d *deleteOp) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := d.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	// Relationships must be deleted before their endpoint nodes for a
	// plain (non-DETACH) DELETE that names both in the same clause.
	for _, item := range d.plan.Items {
		v, err := Eval(item.Target, row, d.ec)
		if err != nil {
			return nil, false, err
		}
		if v.Kind != value.KindRelationship {
			continue
		}
		r := v.Payload().(*model.Relationship)
		if err := d.ec.Store.DeleteRelationship(r.ID); err != nil {
			return nil, false, err
		}
		d.ec.Stats.RelationshipsDeleted++
	}
	for _, item := range d.plan.Items {
		v, err := Eval(item.Target, row, d.ec)
		if err != nil {
			return nil, false, err
		}
		if v.Kind != value.KindNode {
			continue
		}
		n := v.Payload().(*model.Node)
		if err := d.ec.Store.DeleteNode(n.ID, d.plan.Detach); err != nil {
			return nil, false, err
		}
		d.ec.Stats.NodesDeleted++
	}
	return row, true, nil
}

// callProcedureOp invokes a named built-in procedure per input row. Only
// db.stats() is a built-in procedure; the planner does not check
// procedure names, so an unrecognized name fails here with NotFound when
// the first input row arrives.
type callProcedureOp struct {
	input Op
	plan  *plan.CallProcedure
	ec    *Context
}

func (c *callProcedureOp) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := c.input.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	out := row.clone()
	switch c.plan.Procedure {
	case "db.stats":
		stats, err := c.ec.Store.Stats()
		if err != nil {
			return nil, false, err
		}
		fields := map[string]value.Value{
			"nodeCount":         value.Int(stats.NodeCount),
			"relationshipCount": value.Int(stats.RelationshipCount),
		}
		bindYield(out, c.plan.Yield, fields)
	default:
		return nil, false, &errs.NotFound{Kind: "procedure", ID: c.plan.Procedure}
	}
	return out, true, nil
}

func bindYield(out Row, yield []ast.YieldItem, fields map[string]value.Value) {
	if len(yield) == 0 {
		for k, v := range fields {
			out[k] = v
		}
		return
	}
	for _, y := range yield {
		v, ok := fields[y.Field]
		if !ok {
			v = value.Null
		}
		alias := y.Alias
		if alias == "" {
			alias = y.Field
		}
		out[alias] = v
	}
}

// unionOp concatenates Left and Right's rows, deduplicating by the
// DISTINCT-equals-Null rule unless All is set.
type unionOp struct {
	left, right Op
	all         bool
	seen        map[string]bool
	onRight     bool
}

func (u *unionOp) Next(ctx context.Context) (Row, bool, error) {
	for {
		var row Row
		var ok bool
		var err error
		if !u.onRight {
			row, ok, err = u.left.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				u.onRight = true
				continue
			}
		} else {
			row, ok, err = u.right.Next(ctx)
			if err != nil || !ok {
				return nil, false, err
			}
		}
		if !u.all {
			key := rowFingerprint(row)
			if u.seen[key] {
				continue
			}
			u.seen[key] = true
		}
		return row, true, nil
	}
}
