package cyquery

import (
	"context"
	"strings"
	"testing"
)

func TestExecute_CreateAndMatchRoundTrip(t *testing.T) {
	h := OpenInMemory()
	ctx := context.Background()

	if _, err := h.Execute(ctx, `CREATE (:Person {name: 'Ada', age: 30})`, nil); err != nil {
		t.Fatalf("CREATE failed: %v", err)
	}

	res, err := h.Execute(ctx, `MATCH (p:Person) RETURN p.name AS name, p.age AS age`, nil)
	if err != nil {
		t.Fatalf("MATCH failed: %v", err)
	}
	if len(res.Columns) != 2 || res.Columns[0] != "name" || res.Columns[1] != "age" {
		t.Fatalf("unexpected columns: %v", res.Columns)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
	if res.Rows[0][0].AsString() != "Ada" {
		t.Errorf("expected name Ada, got %v", res.Rows[0][0])
	}
}

func TestExecute_StatsCountsWrites(t *testing.T) {
	h := OpenInMemory()
	ctx := context.Background()

	res, err := h.Execute(ctx, `CREATE (a:Person), (b:Person), (a)-[:KNOWS]->(b)`, nil)
	if err != nil {
		t.Fatalf("CREATE failed: %v", err)
	}
	if res.Stats.NodesCreated != 2 {
		t.Errorf("expected 2 nodes created, got %d", res.Stats.NodesCreated)
	}
	if res.Stats.RelationshipsCreated != 1 {
		t.Errorf("expected 1 relationship created, got %d", res.Stats.RelationshipsCreated)
	}
}

func TestExecute_SchemaDDLIsExecutable(t *testing.T) {
	h := OpenInMemory()
	ctx := context.Background()

	if _, err := h.Execute(ctx, `CREATE INDEX person_name FOR (n:Person) ON (n.name)`, nil); err != nil {
		t.Fatalf("CREATE INDEX failed: %v", err)
	}
	if _, err := h.Execute(ctx, `CREATE CONSTRAINT unique_email FOR (n:Person) REQUIRE n.email IS UNIQUE`, nil); err != nil {
		t.Fatalf("CREATE CONSTRAINT failed: %v", err)
	}
	if _, err := h.Execute(ctx, `CREATE (:Person {email: 'ada@example.com'})`, nil); err != nil {
		t.Fatalf("first CREATE should satisfy the constraint: %v", err)
	}
	if _, err := h.Execute(ctx, `CREATE (:Person {email: 'ada@example.com'})`, nil); err == nil {
		t.Fatal("expected second CREATE to violate the uniqueness constraint")
	}

	if _, err := h.Execute(ctx, `DROP INDEX person_name`, nil); err != nil {
		t.Fatalf("DROP INDEX failed: %v", err)
	}
	if _, err := h.Execute(ctx, `DROP CONSTRAINT unique_email`, nil); err != nil {
		t.Fatalf("DROP CONSTRAINT failed: %v", err)
	}
}

func TestDump_RoundTripsIntoFreshHandle(t *testing.T) {
	h := OpenInMemory()
	ctx := context.Background()

	if _, err := h.Execute(ctx, `CREATE (a:Person {name: 'Ada'})-[:KNOWS]->(b:Person {name: 'Grace'})`, nil); err != nil {
		t.Fatalf("CREATE failed: %v", err)
	}
	if _, err := h.Execute(ctx, `CREATE INDEX FOR (n:Person) ON (n.name)`, nil); err != nil {
		t.Fatalf("CREATE INDEX failed: %v", err)
	}

	var sb strings.Builder
	if err := h.Dump(&sb); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	dumpText := sb.String()
	if !strings.Contains(dumpText, "CREATE INDEX") {
		t.Fatalf("expected index declaration in dump, got:\n%s", dumpText)
	}

	h2 := OpenInMemory()
	for _, stmt := range strings.Split(dumpText, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := h2.Execute(ctx, stmt, nil); err != nil {
			t.Fatalf("replaying dump statement %q failed: %v", stmt, err)
		}
	}

	res, err := h2.Execute(ctx, `MATCH (a:Person)-[:KNOWS]->(b:Person) RETURN a.name AS a, b.name AS b`, nil)
	if err != nil {
		t.Fatalf("MATCH after replay failed: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][0].AsString() != "Ada" || res.Rows[0][1].AsString() != "Grace" {
		t.Fatalf("unexpected replayed rows: %+v", res.Rows)
	}
}

func TestExplicitTx_ReadOnlyRejectsWrite(t *testing.T) {
	h := OpenInMemory()
	ctx := context.Background()

	tx, err := h.Begin(ctx, ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Execute(ctx, `CREATE (:Person)`, nil); err == nil {
		t.Fatal("expected a write statement to be rejected in a ReadOnly transaction")
	}
	if _, err := tx.Execute(ctx, `MATCH (p:Person) RETURN p`, nil); err != nil {
		t.Errorf("expected a read statement to succeed in a ReadOnly transaction: %v", err)
	}
}

func TestExplicitTx_CommitThenReuseFails(t *testing.T) {
	h := OpenInMemory()
	ctx := context.Background()

	tx, err := h.Begin(ctx, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.Execute(ctx, `CREATE (:Person)`, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := tx.Execute(ctx, `MATCH (p) RETURN p`, nil); err == nil {
		t.Fatal("expected Execute on a committed transaction to fail")
	}
	if err := tx.Commit(); err == nil {
		t.Fatal("expected double Commit to fail")
	}
}

func TestRollbackIsNoOp(t *testing.T) {
	h := OpenInMemory()
	ctx := context.Background()

	tx, err := h.Begin(ctx, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.Execute(ctx, `CREATE (:Person {name: 'Ada'})`, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	// The oracle keeps no undo log, so the already-applied write stands.
	res, err := h.Execute(ctx, `MATCH (p:Person) RETURN p.name AS name`, nil)
	if err != nil {
		t.Fatalf("MATCH: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected the rolled-back write to still be visible, got %d rows", len(res.Rows))
	}
}
