// Package ast defines the typed abstract syntax tree produced by the
// parser, covering the full openCypher-subset grammar.
package ast

// Position marks where a node started in the source text, for error
// reporting and canonical-serialization determinism tests.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Statement is the root of every parsed input: a Query, a standalone write
// clause, or a schema DDL command.
type Statement interface {
	statementNode()
	Pos() Position
}

// Query is a sequence of reading clauses and optional WITH pipelines
// terminated by RETURN. ReadingClauses may be interleaved with
// WriteClauses: MATCH followed by any mix of reading and writing clauses
// is permitted only when terminated by RETURN or a terminal write.
type Query struct {
	Position
	Clauses []Clause
	Return  *ReturnClause // nil when the query ends in a terminal write
}

func (*Query) statementNode() {}
func (q *Query) Pos() Position { return q.Position }

// UnionQuery chains two or more Query branches with UNION / UNION ALL.
// Branches must agree on their RETURN column names; that check is the
// planner's job, not the parser's.
type UnionQuery struct {
	Position
	Branches []*Query
	All      []bool // All[i] is true when the separator before Branches[i+1] was "UNION ALL"
}

func (*UnionQuery) statementNode()        {}
func (u *UnionQuery) Pos() Position { return u.Position }

// Clause is any reading or writing clause that can appear in a Query's
// body: Match, OptionalMatch, Unwind, With, Create, Merge, Delete, Set,
// Remove, Call.
type Clause interface {
	clauseNode()
	Pos() Position
}
