// Package cyquery is the public facade tying the parser, planner,
// optimizer, and executor to a storage backend: a thin handle struct
// built by OpenInMemory()/OpenInMemoryWithConfig(), whose Execute/Mutate
// methods take a Cypher string plus bound parameters and return the
// resulting rows and write statistics. An explicit-transaction handle
// groups a sequence of statements under one storage.Tx.
package cyquery

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/config"
	"github.com/ritamzico/cyquery/internal/dump"
	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/executor"
	"github.com/ritamzico/cyquery/internal/functions"
	"github.com/ritamzico/cyquery/internal/memstore"
	"github.com/ritamzico/cyquery/internal/optimizer"
	"github.com/ritamzico/cyquery/internal/parser"
	"github.com/ritamzico/cyquery/internal/plan"
	"github.com/ritamzico/cyquery/internal/planner"
	"github.com/ritamzico/cyquery/internal/storage"
	"github.com/ritamzico/cyquery/internal/value"
)

// Stats mirrors executor.Stats on the public QueryResult.
type Stats struct {
	NodesCreated         int64
	NodesDeleted         int64
	RelationshipsCreated int64
	RelationshipsDeleted int64
	PropertiesSet        int64
	LabelsAdded          int64
	LabelsRemoved        int64
}

// QueryResult is the shape every Execute/Mutate call returns:
// columns in RETURN/YIELD item order, rows carrying one value per column
// in that same order, and the write counters accumulated over the query.
type QueryResult struct {
	Columns []string
	Rows    [][]value.Value
	Stats   Stats
}

// GraphHandle owns a storage backend and the shared function registry,
// and compiles/runs Cypher text against them.
type GraphHandle struct {
	store storage.Store
	funcs *functions.Registry
	log   zerolog.Logger
	cfg   config.Config
}

// OpenInMemory returns a handle backed by the in-memory reference oracle,
// configured with the engine's documented default knobs.
func OpenInMemory() *GraphHandle {
	return OpenInMemoryWithConfig(config.Default())
}

// OpenInMemoryWithConfig is OpenInMemory with explicit engine knobs:
// max_var_length_depth and query_timeout.
func OpenInMemoryWithConfig(cfg config.Config) *GraphHandle {
	return &GraphHandle{
		store: memstore.New(),
		funcs: functions.NewRegistry(),
		log:   zerolog.Nop(),
		cfg:   cfg,
	}
}

// WithLogger attaches a structured logger to the handle's query lifecycle
// (parse duration, plan shape, row count, error) and, where the backend
// supports it, its write-operation audit trail.
func (h *GraphHandle) WithLogger(l zerolog.Logger) *GraphHandle {
	h.log = l
	if ms, ok := h.store.(*memstore.Store); ok {
		ms.WithLogger(l)
	}
	return h
}

// Execute compiles and runs one Cypher statement, reporting its rows and
// write statistics. Read-only and write statements share the
// same path: the planner/executor distinguish them, not the facade.
func (h *GraphHandle) Execute(ctx context.Context, cypher string, params map[string]value.Value) (QueryResult, error) {
	return h.run(ctx, cypher, params, h.store)
}

// Mutate is an alias for Execute kept for callers that want write intent
// named separately in their own code; the
// engine makes no distinction between read and write statements beyond
// what the statement itself contains.
func (h *GraphHandle) Mutate(ctx context.Context, cypher string, params map[string]value.Value) (QueryResult, error) {
	return h.run(ctx, cypher, params, h.store)
}

// Dump writes a deterministic Cypher script reproducing the handle's
// entire graph, schema included, to w.
func (h *GraphHandle) Dump(w io.Writer) error {
	return dump.WriteCypher(h.store, h.store.ListIndexes(), h.store.ListConstraints(), w)
}

// SaveDump writes the handle's dump to a file at path.
func (h *GraphHandle) SaveDump(path string) error {
	return dump.SaveCypher(h.store, h.store.ListIndexes(), h.store.ListConstraints(), path)
}

// TxMode records the caller's declared intent for an explicit transaction;
// the in-memory oracle applies writes immediately regardless of mode, but
// a backend with real isolation could use it to choose a read or
// read-write lock up front.
type TxMode int

const (
	ReadOnly TxMode = iota
	ReadWrite
)

// ExplicitTx groups a sequence of statements under one storage.Tx handle.
// Commit/Rollback delegate to the backend; the in-memory oracle's
// Rollback is a documented no-op since every write already landed.
type ExplicitTx struct {
	handle *GraphHandle
	tx     storage.Tx
	mode   TxMode
	done   bool
}

// Begin opens an explicit transaction.
func (h *GraphHandle) Begin(ctx context.Context, mode TxMode) (*ExplicitTx, error) {
	tx, err := h.store.Begin()
	if err != nil {
		return nil, err
	}
	return &ExplicitTx{handle: h, tx: tx, mode: mode}, nil
}

// Execute runs one statement inside the open transaction.
func (t *ExplicitTx) Execute(ctx context.Context, cypher string, params map[string]value.Value) (QueryResult, error) {
	if t.done {
		return QueryResult{}, &errs.TxError{Message: "execute on a committed or rolled-back transaction"}
	}
	if t.mode == ReadOnly {
		stmt, err := parser.Parse(cypher)
		if err != nil {
			return QueryResult{}, err
		}
		if isWriteStatement(stmt) {
			return QueryResult{}, &errs.TxError{Message: "write statement in a read-only transaction"}
		}
	}
	return t.handle.run(ctx, cypher, params, t.handle.store)
}

// Commit finalizes the transaction.
func (t *ExplicitTx) Commit() error {
	if t.done {
		return &errs.TxError{Message: "commit on an already-finished transaction"}
	}
	t.done = true
	return t.tx.Commit()
}

// Rollback ends the transaction without further effect on the in-memory
// oracle: no undo log is kept, so already-applied writes stand.
func (t *ExplicitTx) Rollback() error {
	if t.done {
		return &errs.TxError{Message: "rollback on an already-finished transaction"}
	}
	t.done = true
	return t.tx.Rollback()
}

func (h *GraphHandle) run(ctx context.Context, cypher string, params map[string]value.Value, store storage.Store) (QueryResult, error) {
	start := time.Now()

	if h.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.QueryTimeout)
		defer cancel()
	}

	stmt, err := parser.Parse(cypher)
	if err != nil {
		h.log.Error().Err(err).Str("stage", "parse").Msg("query failed")
		return QueryResult{}, err
	}

	logical, err := planner.Plan(stmt)
	if err != nil {
		h.log.Error().Err(err).Str("stage", "plan").Msg("query failed")
		return QueryResult{}, err
	}

	optimized := optimizer.Optimize(logical, store)

	stats := &executor.Stats{}
	ec := &executor.Context{
		Store:             store,
		Params:            params,
		Funcs:             h.funcs,
		Stats:             stats,
		MaxVarLengthDepth: h.cfg.MaxVarLengthDepth,
	}
	op, err := executor.Compile(optimized, ec)
	if err != nil {
		h.log.Error().Err(err).Str("stage", "compile").Msg("query failed")
		return QueryResult{}, err
	}

	columns := columnsOf(optimized)
	var rows [][]value.Value
	for {
		select {
		case <-ctx.Done():
			return QueryResult{}, &errs.ExecutionError{Message: ctx.Err().Error()}
		default:
		}
		row, ok, err := op.Next(ctx)
		if err != nil {
			h.log.Error().Err(err).Str("stage", "execute").Msg("query failed")
			return QueryResult{}, err
		}
		if !ok {
			break
		}
		rows = append(rows, rowToOrdered(row, columns))
	}

	h.log.Info().
		Dur("duration", time.Since(start)).
		Int("rows", len(rows)).
		Int64("nodes_created", stats.NodesCreated).
		Int64("relationships_created", stats.RelationshipsCreated).
		Msg("query completed")

	return QueryResult{
		Columns: columns,
		Rows:    rows,
		Stats: Stats{
			NodesCreated:         stats.NodesCreated,
			NodesDeleted:         stats.NodesDeleted,
			RelationshipsCreated: stats.RelationshipsCreated,
			RelationshipsDeleted: stats.RelationshipsDeleted,
			PropertiesSet:        stats.PropertiesSet,
			LabelsAdded:          stats.LabelsAdded,
			LabelsRemoved:        stats.LabelsRemoved,
		},
	}, nil
}

// rowToOrdered projects an executor.Row's map bindings into the fixed
// column order Execute reports.
func rowToOrdered(row executor.Row, columns []string) []value.Value {
	out := make([]value.Value, len(columns))
	for i, c := range columns {
		out[i] = row[c]
	}
	return out
}

// columnsOf walks the final, non-source-altering operators wrapping a
// plan's root to find the RETURN/YIELD projection that fixes the output
// column order. A statement with no RETURN or YIELD (a bare
// write) has no columns.
func columnsOf(op plan.Operator) []string {
	for {
		switch n := op.(type) {
		case *plan.Distinct:
			op = n.Input
		case *plan.Sort:
			op = n.Input
		case *plan.Skip:
			op = n.Input
		case *plan.Limit:
			op = n.Input
		case *plan.Filter:
			op = n.Input
		case *plan.Project:
			cols := make([]string, len(n.Items))
			for i, it := range n.Items {
				cols[i] = it.Alias
			}
			return cols
		case *plan.CallProcedure:
			if len(n.Yield) == 0 {
				return nil
			}
			cols := make([]string, len(n.Yield))
			for i, y := range n.Yield {
				if y.Alias != "" {
					cols[i] = y.Alias
				} else {
					cols[i] = y.Field
				}
			}
			return cols
		case *plan.Union:
			return columnsOf(n.Left)
		default:
			return nil
		}
	}
}

// isWriteStatement reports whether any clause in stmt performs a write,
// for ExplicitTx's ReadOnly mode check.
func isWriteStatement(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.Query:
		return queryHasWrite(s)
	case *ast.UnionQuery:
		for _, branch := range s.Branches {
			if queryHasWrite(branch) {
				return true
			}
		}
		return false
	case *ast.SchemaStatement:
		return true
	default:
		return false
	}
}

func queryHasWrite(q *ast.Query) bool {
	for _, c := range q.Clauses {
		switch c.(type) {
		case *ast.CreateClause, *ast.MergeClause, *ast.SetClause, *ast.RemoveClause, *ast.DeleteClause:
			return true
		}
	}
	return false
}
