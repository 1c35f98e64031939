// Package plan defines the logical operator tree the planner builds from
// an AST and the optimizer rewrites before the executor pulls rows from
// it: an open operator set with one Go type per operator, rather than a
// single struct carrying a free-text opcode field.
package plan

import "github.com/ritamzico/cyquery/internal/ast"

// Operator is any node in the logical plan tree. Every Operator has zero
// or more Input operators that it pulls rows from.
type Operator interface {
	Inputs() []Operator
	operatorNode()
}

// Column names one slot in a row: the binding that flows between
// operators (a variable name, or a synthesized name for RETURN
// expressions without an alias).
type Column = string

// AllNodesScan yields every node in the graph, unfiltered.
type AllNodesScan struct {
	Binding Column
}

func (*AllNodesScan) Inputs() []Operator { return nil }
func (*AllNodesScan) operatorNode()       {}

// NodeScanByLabel yields every node carrying Label.
type NodeScanByLabel struct {
	Binding Column
	Label   string
}

func (*NodeScanByLabel) Inputs() []Operator { return nil }
func (*NodeScanByLabel) operatorNode()       {}

// IndexLookup yields nodes of Label whose Property equals Value, served
// directly from a materialized index rather than a full label scan; the
// optimizer substitutes this in for a NodeScanByLabel+Filter shape when
// an index is available.
type IndexLookup struct {
	Binding  Column
	Label    string
	Property string
	Value    ast.Expression
}

func (*IndexLookup) Inputs() []Operator { return nil }
func (*IndexLookup) operatorNode()       {}

// Expand walks one relationship hop (or a variable-length range of hops)
// from an already-bound node, binding the traversed relationship(s) and
// the destination node.
type Expand struct {
	Input        Operator
	FromBinding  Column
	RelBinding   Column // "" when the relationship isn't bound to a variable
	ToBinding    Column
	RelTypes     []string
	Direction    ast.Direction
	MinHops      int
	MaxHops      int // -1 means unbounded
	ToLabel      string // "" when the destination node carries no label filter
}

func (e *Expand) Inputs() []Operator { return []Operator{e.Input} }
func (*Expand) operatorNode()         {}

// OptionalExpand is Expand with outer-join semantics: when no match
// exists for a given input row, one output row is still produced with the
// relationship/destination bindings set to Null.
type OptionalExpand struct {
	Expand
}

func (o *OptionalExpand) Inputs() []Operator { return []Operator{o.Input} }
func (*OptionalExpand) operatorNode()         {}

// CartesianProduct pairs every row of Left with every row of Right; this
// is how multiple comma-separated MATCH patterns with no shared variable
// are joined.
type CartesianProduct struct {
	Left, Right Operator
}

func (c *CartesianProduct) Inputs() []Operator { return []Operator{c.Left, c.Right} }
func (*CartesianProduct) operatorNode()          {}

// Filter drops rows for which Predicate does not evaluate to true under
// three-valued logic.
type Filter struct {
	Input     Operator
	Predicate ast.Expression
}

func (f *Filter) Inputs() []Operator { return []Operator{f.Input} }
func (*Filter) operatorNode()         {}

// ProjectItem is one output column computed from Expr, bound to Alias.
type ProjectItem struct {
	Expr  ast.Expression
	Alias Column
}

// Project computes a new row shape from Items, discarding any bindings
// not named in Items.
type Project struct {
	Input Operator
	Items []ProjectItem
}

func (p *Project) Inputs() []Operator { return []Operator{p.Input} }
func (*Project) operatorNode()         {}

// AggregateItem is one aggregate computed per group.
type AggregateItem struct {
	FuncName Column
	Arg      ast.Expression // nil for count(*)
	Distinct bool
	Alias    Column

	// FactoryArgs are extra call arguments beyond Arg that parameterize
	// the accumulator itself rather than feeding it a per-row value —
	// e.g. percentileCont(x, p)'s p. Evaluated once per group at
	// accumulator-construction time, not per accumulated row.
	FactoryArgs []ast.Expression
}

// Aggregate groups rows by GroupBy and computes Items per group. An empty
// GroupBy means "one group: the whole input".
type Aggregate struct {
	Input   Operator
	GroupBy []ProjectItem
	Items   []AggregateItem
}

func (a *Aggregate) Inputs() []Operator { return []Operator{a.Input} }
func (*Aggregate) operatorNode()         {}

// Distinct drops rows that are a duplicate, by DISTINCT equality (Null
// equals Null for this purpose only), of one already seen.
type Distinct struct {
	Input Operator
}

func (d *Distinct) Inputs() []Operator { return []Operator{d.Input} }
func (*Distinct) operatorNode()         {}

// SortKey is one ORDER BY term.
type SortKey struct {
	Expr       ast.Expression
	Descending bool
}

// Sort orders rows by Keys.
type Sort struct {
	Input Operator
	Keys  []SortKey
}

func (s *Sort) Inputs() []Operator { return []Operator{s.Input} }
func (*Sort) operatorNode()         {}

// Skip discards the first N rows.
type Skip struct {
	Input Operator
	N     ast.Expression
}

func (s *Skip) Inputs() []Operator { return []Operator{s.Input} }
func (*Skip) operatorNode()         {}

// Limit yields at most N rows.
type Limit struct {
	Input Operator
	N     ast.Expression
}

func (l *Limit) Inputs() []Operator { return []Operator{l.Input} }
func (*Limit) operatorNode()         {}

// Unwind expands a list-valued expression into one row per element.
type Unwind struct {
	Input   Operator
	Expr    ast.Expression
	Binding Column
}

func (u *Unwind) Inputs() []Operator { return []Operator{u.Input} }
func (*Unwind) operatorNode()         {}

// Argument is the empty single-row source used as the left input of the
// first operator in a plan.
type Argument struct{}

func (*Argument) Inputs() []Operator { return nil }
func (*Argument) operatorNode()       {}

// CreateNodeItem is one node pattern to materialize.
type CreateNodeItem struct {
	Binding    Column
	Labels     []string
	Properties ast.Expression // a MapLiteral, evaluated per row
}

// CreateRelItem is one relationship pattern to materialize between two
// already-bound (or just-created) node bindings.
type CreateRelItem struct {
	FromBinding Column
	ToBinding   Column
	RelBinding  Column
	Type        string
	Properties  ast.Expression
}

// Create materializes new nodes and relationships for every input row.
type Create struct {
	Input Operator
	Nodes []CreateNodeItem
	Rels  []CreateRelItem
}

func (c *Create) Inputs() []Operator { return []Operator{c.Input} }
func (*Create) operatorNode()         {}

// MergeNode implements MERGE's match-or-create semantics for a single
// node pattern: per input row, look up a node matching
// Labels+Properties; if none exists, create one. The
// OnCreate/OnMatch item lists are SET-equivalent mutations to apply
// afterward, branching on which path was taken.
type MergeNode struct {
	Input      Operator
	Binding    Column
	Labels     []string
	Properties ast.Expression
	OnCreate   []SetOp
	OnMatch    []SetOp
}

func (m *MergeNode) Inputs() []Operator { return []Operator{m.Input} }
func (*MergeNode) operatorNode()         {}

// SetOp is one property/label mutation, shared by Merge's ON CREATE/ON
// MATCH actions and the standalone SetProperties/SetLabels operators.
type SetOp struct {
	Kind     ast.SetItemKind
	Target   Column
	Property string
	Value    ast.Expression
	Labels   []string
}

// SetProperties applies one or more property/map mutations per input row.
type SetProperties struct {
	Input Operator
	Ops   []SetOp
}

func (s *SetProperties) Inputs() []Operator { return []Operator{s.Input} }
func (*SetProperties) operatorNode()         {}

// SetLabels adds labels to a bound node per input row.
type SetLabels struct {
	Input   Operator
	Target  Column
	Labels  []string
}

func (s *SetLabels) Inputs() []Operator { return []Operator{s.Input} }
func (*SetLabels) operatorNode()         {}

// RemoveProperties removes one property per input row.
type RemoveProperties struct {
	Input    Operator
	Target   Column
	Property string
}

func (r *RemoveProperties) Inputs() []Operator { return []Operator{r.Input} }
func (*RemoveProperties) operatorNode()         {}

// RemoveLabels removes labels from a bound node per input row.
type RemoveLabels struct {
	Input  Operator
	Target Column
	Labels []string
}

func (r *RemoveLabels) Inputs() []Operator { return []Operator{r.Input} }
func (*RemoveLabels) operatorNode()         {}

// DeleteItem is one expression to delete (a bound node or relationship
// variable).
type DeleteItem struct {
	Target ast.Expression
}

// Delete removes nodes and/or relationships per input row.
// Detach controls whether a node with dangling relationships is an error
// (false) or has them removed first (true).
type Delete struct {
	Input  Operator
	Items  []DeleteItem
	Detach bool
}

func (d *Delete) Inputs() []Operator { return []Operator{d.Input} }
func (*Delete) operatorNode()         {}

// CallProcedure invokes a named built-in procedure per input row,
// yielding its result fields as new bindings.
type CallProcedure struct {
	Input     Operator
	Procedure string
	Args      []ast.Expression
	Yield     []ast.YieldItem
}

func (c *CallProcedure) Inputs() []Operator { return []Operator{c.Input} }
func (*CallProcedure) operatorNode()         {}

// Union concatenates the rows of two plans with matching output shapes,
// deduplicating unless All is set.
type Union struct {
	Left, Right Operator
	All         bool
}

func (u *Union) Inputs() []Operator { return []Operator{u.Left, u.Right} }
func (*Union) operatorNode()         {}

// Schema performs one CREATE/DROP INDEX or CREATE/DROP CONSTRAINT
// statement against the storage contract. It has no input:
// schema DDL is a single storage-level action, not a per-row operator.
type Schema struct {
	Kind     ast.SchemaKind
	Name     string // DDL name; required for DropIndex/DropConstraint
	Label    string
	Property string
	Unique   bool
}

func (*Schema) Inputs() []Operator { return nil }
func (*Schema) operatorNode()       {}
