package ast

// SortItem is one ORDER BY term.
type SortItem struct {
	Expr       Expression
	Descending bool
}

// ReturnItem is one projected column: `expr [AS alias]`.
type ReturnItem struct {
	Expr  Expression
	Alias string // "" when not aliased; for bare variables the variable name is used as the column name
}

// ReturnClause is the terminal projection of a Query.
// WITH clauses reuse the same shape via WithClause below since both carry
// DISTINCT/ORDER BY/SKIP/LIMIT.
type ReturnClause struct {
	Position
	Distinct bool
	Star     bool // RETURN *
	Items    []ReturnItem
	OrderBy  []SortItem
	Skip     Expression
	Limit    Expression
}

func (*ReturnClause) clauseNode()        {}
func (r *ReturnClause) Pos() Position { return r.Position }

// WithClause is a pipeline barrier: projects like RETURN, then feeds the
// result back in as bindings for the remainder of the query.
type WithClause struct {
	Position
	Distinct bool
	Star     bool
	Items    []ReturnItem
	Where    Expression // nil when absent; filters post-projection rows
	OrderBy  []SortItem
	Skip     Expression
	Limit    Expression
}

func (*WithClause) clauseNode()        {}
func (w *WithClause) Pos() Position { return w.Position }

// MatchClause is `MATCH pattern (, pattern)* (WHERE expr)?`, optionally
// OPTIONAL.
type MatchClause struct {
	Position
	Optional bool
	Patterns []PathPattern
	Where    Expression // nil when absent
}

func (*MatchClause) clauseNode()        {}
func (m *MatchClause) Pos() Position { return m.Position }

// UnwindClause is `UNWIND expr AS variable`.
type UnwindClause struct {
	Position
	Expr     Expression
	Variable string
}

func (*UnwindClause) clauseNode()        {}
func (u *UnwindClause) Pos() Position { return u.Position }

// YieldItem is one `CALL proc(...) YIELD field [AS alias]` projection.
type YieldItem struct {
	Field string
	Alias string // "" when not aliased
}

// CallClause is a standalone procedure invocation: `CALL name(args) [YIELD
// field, ...]`.
type CallClause struct {
	Position
	Procedure string
	Args      []Expression
	Yield     []YieldItem // empty means "no YIELD clause"
}

func (*CallClause) clauseNode()        {}
func (c *CallClause) Pos() Position { return c.Position }

// CreateClause is `CREATE pattern (, pattern)*`.
type CreateClause struct {
	Position
	Patterns []PathPattern
}

func (*CreateClause) clauseNode()        {}
func (c *CreateClause) Pos() Position { return c.Position }

// MergeAction is one `ON CREATE SET ...` / `ON MATCH SET ...` sub-clause
// attached to a MERGE.
type MergeAction struct {
	OnCreate bool // true: ON CREATE, false: ON MATCH
	Set      []SetItem
}

// MergeClause is `MERGE pattern (ON CREATE SET ...)* (ON MATCH SET ...)*`.
type MergeClause struct {
	Position
	Pattern PathPattern
	Actions []MergeAction
}

func (*MergeClause) clauseNode()        {}
func (m *MergeClause) Pos() Position { return m.Position }

// DeleteClause is `[DETACH] DELETE expr (, expr)*`.
type DeleteClause struct {
	Position
	Detach bool
	Items  []Expression
}

func (*DeleteClause) clauseNode()        {}
func (d *DeleteClause) Pos() Position { return d.Position }

// SetItem is one assignment inside a SET clause: property set, property
// replace-map (`n = {...}`), property merge-map (`n += {...}`), or a
// label addition (`n:Label`).
type SetItem struct {
	Kind     SetItemKind
	Target   Expression // PropertyAccess for SetProperty, Variable for the rest
	Value    Expression // nil for SetLabel
	Property string     // set only for SetProperty
	Labels   []string   // set only for SetLabel
}

type SetItemKind int

const (
	SetProperty SetItemKind = iota
	SetReplaceMap
	SetMergeMap
	SetLabel
)

// SetClause is `SET item (, item)*`.
type SetClause struct {
	Position
	Items []SetItem
}

func (*SetClause) clauseNode()        {}
func (s *SetClause) Pos() Position { return s.Position }

// RemoveItem is either a property removal (`n.prop`) or a label removal
// (`n:Label`).
type RemoveItem struct {
	IsLabel  bool
	Target   Expression // Variable, for both forms
	Property string     // set when !IsLabel
	Label    string     // set when IsLabel
}

// RemoveClause is `REMOVE item (, item)*`.
type RemoveClause struct {
	Position
	Items []RemoveItem
}

func (*RemoveClause) clauseNode()        {}
func (r *RemoveClause) Pos() Position { return r.Position }

// SchemaKind distinguishes the four DDL forms this grammar allows.
type SchemaKind int

const (
	CreateIndex SchemaKind = iota
	DropIndex
	CreateConstraint
	DropConstraint
)

// SchemaStatement covers CREATE/DROP INDEX and CREATE/DROP CONSTRAINT,
// including both the modern `FOR (n:Label) ON (n.prop)` form and the
// legacy `ON :Label(prop)` form.
type SchemaStatement struct {
	Position
	Kind       SchemaKind
	Name       string // index/constraint name, "" if anonymous
	Label      string
	Properties []string
	Unique     bool // CONSTRAINT ... REQUIRE ... IS UNIQUE
}

func (*SchemaStatement) statementNode()        {}
func (s *SchemaStatement) Pos() Position { return s.Position }
