package executor

import (
	"context"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/model"
	"github.com/ritamzico/cyquery/internal/plan"
	"github.com/ritamzico/cyquery/internal/value"
)

type allNodesScanOp struct {
	ec      *Context
	binding string
	nodes   []*model.Node
	idx     int
	started bool
}

func (o *allNodesScanOp) Next(ctx context.Context) (Row, bool, error) {
	if !o.started {
		nodes, err := o.ec.Store.AllNodes()
		if err != nil {
			return nil, false, err
		}
		o.nodes = nodes
		o.started = true
	}
	if o.idx >= len(o.nodes) {
		return nil, false, nil
	}
	n := o.nodes[o.idx]
	o.idx++
	return Row{o.binding: n.Value()}, true, nil
}

type labelScanOp struct {
	ec      *Context
	binding string
	label   string
	nodes   []*model.Node
	idx     int
	started bool
}

func (o *labelScanOp) Next(ctx context.Context) (Row, bool, error) {
	if !o.started {
		nodes, err := o.ec.Store.NodesByLabel(o.label)
		if err != nil {
			return nil, false, err
		}
		o.nodes = nodes
		o.started = true
	}
	if o.idx >= len(o.nodes) {
		return nil, false, nil
	}
	n := o.nodes[o.idx]
	o.idx++
	return Row{o.binding: n.Value()}, true, nil
}

type indexLookupOp struct {
	ec      *Context
	op      *plan.IndexLookup
	nodes   []*model.Node
	idx     int
	started bool
}

func (o *indexLookupOp) Next(ctx context.Context) (Row, bool, error) {
	if !o.started {
		val, err := Eval(o.op.Value, Row{}, o.ec)
		if err != nil {
			return nil, false, err
		}
		nodes, err := o.ec.Store.NodesByIndex(o.op.Label, o.op.Property, val)
		if err != nil {
			return nil, false, err
		}
		o.nodes = nodes
		o.started = true
	}
	if o.idx >= len(o.nodes) {
		return nil, false, nil
	}
	n := o.nodes[o.idx]
	o.idx++
	return Row{o.op.Binding: n.Value()}, true, nil
}

// expandOp walks one hop, or a variable-length range of hops, from an
// already-bound node per input row. The per-path relationship
// visited-set enforces "no relationship reused twice in one path"; nodes
// may repeat.
type expandOp struct {
	input    Op
	plan     *plan.Expand
	optional bool
	ec       *Context

	pending []Row
	pidx    int
}

func compileExpand(n *plan.Expand, ec *Context, optional bool) (Op, error) {
	in, err := Compile(n.Input, ec)
	if err != nil {
		return nil, err
	}
	return &expandOp{input: in, plan: n, optional: optional, ec: ec}, nil
}

func (o *expandOp) Next(ctx context.Context) (Row, bool, error) {
	for {
		if o.pidx < len(o.pending) {
			r := o.pending[o.pidx]
			o.pidx++
			return r, true, nil
		}

		row, ok, err := o.input.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}

		fromVal, present := row[o.plan.FromBinding]
		if !present || fromVal.IsNull() {
			continue
		}
		fromNode, ok := fromVal.Payload().(*model.Node)
		if !ok {
			continue
		}

		rows, err := o.expandFrom(row, fromNode)
		if err != nil {
			return nil, false, err
		}
		if len(rows) == 0 && o.optional {
			rows = []Row{o.nullRow(row)}
		}
		o.pending = rows
		o.pidx = 0
	}
}

func (o *expandOp) nullRow(base Row) Row {
	out := base.clone()
	if o.plan.RelBinding != "" {
		out[o.plan.RelBinding] = value.Null
	}
	out[o.plan.ToBinding] = value.Null
	return out
}

// expandFrom enumerates every path of MinHops..MaxHops relationships
// starting at fromNode, respecting type/direction filters and the
// per-path relationship-uniqueness rule.
func (o *expandOp) expandFrom(base Row, fromNode *model.Node) ([]Row, error) {
	var out []Row
	var walk func(node *model.Node, depth int, visited map[model.RelID]bool, relPath []*model.Relationship) error

	maxHops := o.plan.MaxHops
	if maxHops < 0 {
		cap := o.ec.MaxVarLengthDepth
		if cap <= 0 {
			cap = DefaultMaxVarLengthDepth
		}
		maxHops = cap
	}
	walk = func(node *model.Node, depth int, visited map[model.RelID]bool, relPath []*model.Relationship) error {
		if maxHops < 0 || depth < maxHops {
			next, err := o.incident(node)
			if err != nil {
				return err
			}
			for _, hop := range next {
				if visited[hop.rel.ID] {
					continue
				}
				visited[hop.rel.ID] = true
				err := walk(hop.node, depth+1, visited, append(relPath, hop.rel))
				delete(visited, hop.rel.ID)
				if err != nil {
					return err
				}
			}
		}
		if depth >= o.plan.MinHops && depth > 0 {
			if o.plan.ToLabel == "" || node.HasLabel(o.plan.ToLabel) {
				out = append(out, o.buildRow(base, relPath, node))
			}
		}
		return nil
	}

	if o.plan.MinHops == 0 {
		if o.plan.ToLabel == "" || fromNode.HasLabel(o.plan.ToLabel) {
			out = append(out, o.buildRow(base, nil, fromNode))
		}
	}
	if err := walk(fromNode, 0, map[model.RelID]bool{}, nil); err != nil {
		return nil, err
	}
	return out, nil
}

type hop struct {
	rel  *model.Relationship
	node *model.Node
}

func (o *expandOp) incident(node *model.Node) ([]hop, error) {
	var out []hop
	if o.plan.Direction == ast.DirOut || o.plan.Direction == ast.DirEither {
		rels, err := o.ec.Store.RelationshipsFrom(node.ID, o.plan.RelTypes)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			to, err := o.ec.Store.GetNode(r.OtherEnd(node.ID))
			if err != nil {
				return nil, err
			}
			out = append(out, hop{rel: r, node: to})
		}
	}
	if o.plan.Direction == ast.DirIn || o.plan.Direction == ast.DirEither {
		rels, err := o.ec.Store.RelationshipsTo(node.ID, o.plan.RelTypes)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			from, err := o.ec.Store.GetNode(r.OtherEnd(node.ID))
			if err != nil {
				return nil, err
			}
			out = append(out, hop{rel: r, node: from})
		}
	}
	return out, nil
}

func (o *expandOp) buildRow(base Row, relPath []*model.Relationship, to *model.Node) Row {
	out := base.clone()
	if o.plan.RelBinding != "" {
		switch len(relPath) {
		case 0:
			out[o.plan.RelBinding] = value.Null
		case 1:
			out[o.plan.RelBinding] = relPath[0].Value()
		default:
			items := make([]value.Value, len(relPath))
			for i, r := range relPath {
				items[i] = r.Value()
			}
			out[o.plan.RelBinding] = value.List(items)
		}
	}
	out[o.plan.ToBinding] = to.Value()
	return out
}

type cartesianOp struct {
	left        Op
	rightRows   []Row
	rightLoaded bool
	curLeft     Row
	haveLeft    bool
	ridx        int
	ec          *Context
	rightBuild  func() (Op, error)
}

func compileCartesian(n *plan.CartesianProduct, ec *Context) (Op, error) {
	left, err := Compile(n.Left, ec)
	if err != nil {
		return nil, err
	}
	return &cartesianOp{
		left: left,
		ec:   ec,
		rightBuild: func() (Op, error) {
			return Compile(n.Right, ec)
		},
	}, nil
}

func (c *cartesianOp) Next(ctx context.Context) (Row, bool, error) {
	if !c.rightLoaded {
		rightOp, err := c.rightBuild()
		if err != nil {
			return nil, false, err
		}
		for {
			r, ok, err := rightOp.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
			c.rightRows = append(c.rightRows, r)
		}
		c.rightLoaded = true
	}

	for {
		if !c.haveLeft {
			row, ok, err := c.left.Next(ctx)
			if err != nil || !ok {
				return nil, false, err
			}
			c.curLeft = row
			c.haveLeft = true
			c.ridx = 0
		}
		if c.ridx >= len(c.rightRows) {
			c.haveLeft = false
			continue
		}
		r := c.rightRows[c.ridx]
		c.ridx++
		merged := c.curLeft.clone()
		for k, v := range r {
			merged[k] = v
		}
		return merged, true, nil
	}
}
