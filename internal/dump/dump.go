// Package dump implements the deterministic Cypher DUMP export: a
// marshal-the-whole-graph-then-write pass over store that emits literal
// Cypher text a fresh handle can re-Execute, rather than a private
// persistence format. Index and constraint declarations come from
// storage.Store.ListIndexes/ListConstraints.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ritamzico/cyquery/internal/model"
	"github.com/ritamzico/cyquery/internal/storage"
	"github.com/ritamzico/cyquery/internal/value"
)

// WriteCypher emits a deterministic Cypher script reproducing store's
// entire contents, suitable for re-Execute-ing into a fresh handle.
// indexes/constraints are typically the store's own
// storage.Store.ListIndexes()/ListConstraints(), sorted here by (label,
// property) regardless of the order the caller passed them in.
func WriteCypher(store storage.Store, indexes []storage.IndexSpec, constraints []storage.ConstraintSpec, w io.Writer) error {
	bw := bufio.NewWriter(w)

	sortedIndexes := append([]storage.IndexSpec{}, indexes...)
	sort.Slice(sortedIndexes, func(i, j int) bool {
		if sortedIndexes[i].Label != sortedIndexes[j].Label {
			return sortedIndexes[i].Label < sortedIndexes[j].Label
		}
		return sortedIndexes[i].Property < sortedIndexes[j].Property
	})
	sortedConstraints := append([]storage.ConstraintSpec{}, constraints...)
	sort.Slice(sortedConstraints, func(i, j int) bool {
		if sortedConstraints[i].Label != sortedConstraints[j].Label {
			return sortedConstraints[i].Label < sortedConstraints[j].Label
		}
		return sortedConstraints[i].Property < sortedConstraints[j].Property
	})

	for _, c := range sortedConstraints {
		fmt.Fprintf(bw, "CREATE CONSTRAINT FOR (n:%s) REQUIRE n.%s IS UNIQUE;\n", c.Label, c.Property)
	}
	for _, ix := range sortedIndexes {
		fmt.Fprintf(bw, "CREATE INDEX FOR (n:%s) ON (n.%s);\n", ix.Label, ix.Property)
	}

	nodes, err := store.AllNodes()
	if err != nil {
		return err
	}
	for _, n := range nodes {
		fmt.Fprintf(bw, "CREATE (n%d%s%s);\n", n.ID, labelSuffix(n.Labels), propSuffix(n.Props))
	}

	var rels []*model.Relationship
	for _, n := range nodes {
		out, err := store.RelationshipsFrom(n.ID, nil)
		if err != nil {
			return err
		}
		rels = append(rels, out...)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
	for _, r := range rels {
		fmt.Fprintf(bw, "MATCH (a), (b) WHERE id(a) = %d AND id(b) = %d CREATE (a)-[:%s%s]->(b);\n",
			r.From, r.To, r.Type, propSuffix(r.Props))
	}

	return bw.Flush()
}

// SaveCypher writes store's dump to a file at path.
func SaveCypher(store storage.Store, indexes []storage.IndexSpec, constraints []storage.ConstraintSpec, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	defer f.Close()
	return WriteCypher(store, indexes, constraints, f)
}

func labelSuffix(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return ":" + strings.Join(labels, ":")
}

func propSuffix(props *value.OrderedMap) string {
	if props == nil || props.Len() == 0 {
		return ""
	}
	keys := props.SortedKeys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, _ := props.Get(k)
		parts[i] = fmt.Sprintf("%s: %s", k, literal(v))
	}
	return " {" + strings.Join(parts, ", ") + "}"
}

// literal renders v as Cypher literal syntax: strings
// single-quoted with escapes, Null as NULL, lists/maps recursively, and
// temporals via their ISO-8601 constructor call.
func literal(v value.Value) string {
	switch v.Kind {
	case value.KindNull:
		return "NULL"
	case value.KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case value.KindInt:
		return fmt.Sprintf("%d", v.AsInt())
	case value.KindFloat:
		return fmt.Sprintf("%g", v.AsFloat())
	case value.KindString:
		return quoteString(v.AsString())
	case value.KindList:
		items := v.AsList()
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = literal(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.KindMap:
		m := v.AsMap()
		keys := m.SortedKeys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			mv, _ := m.Get(k)
			parts[i] = fmt.Sprintf("%s: %s", k, literal(mv))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case value.KindDate:
		return fmt.Sprintf("date(%s)", quoteString(v.AsTemporal().T.Format("2006-01-02")))
	case value.KindTime:
		t := v.AsTemporal()
		if t.Zoned {
			return fmt.Sprintf("time(%s)", quoteString(t.T.Format("15:04:05Z07:00")))
		}
		return fmt.Sprintf("localtime(%s)", quoteString(t.T.Format("15:04:05")))
	case value.KindDateTime:
		return fmt.Sprintf("datetime(%s)", quoteString(v.AsTemporal().T.Format("2006-01-02T15:04:05Z07:00")))
	case value.KindLocalDateTime:
		return fmt.Sprintf("localdatetime(%s)", quoteString(v.AsTemporal().T.Format("2006-01-02T15:04:05")))
	case value.KindDuration:
		return fmt.Sprintf("duration(%s)", quoteString(formatDuration(v.AsDuration())))
	case value.KindPoint2D:
		p := v.AsPoint2D()
		return fmt.Sprintf("point({x: %g, y: %g, srid: %d})", p.X, p.Y, p.SRID)
	case value.KindPoint3D:
		p := v.AsPoint3D()
		return fmt.Sprintf("point({x: %g, y: %g, z: %g, srid: %d})", p.X, p.Y, p.Z, p.SRID)
	default:
		return "NULL"
	}
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString("\\'")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// formatDuration renders an ISO-8601 duration string (P<months>M<days>DT
// <secs>S, with the units actually present), matching the component-wise
// Months/Days/Secs/Nanos split internal/value.Duration keeps.
func formatDuration(d value.Duration) string {
	var b strings.Builder
	b.WriteByte('P')
	years := d.Months / 12
	months := d.Months % 12
	if years != 0 {
		fmt.Fprintf(&b, "%dY", years)
	}
	if months != 0 {
		fmt.Fprintf(&b, "%dM", months)
	}
	if d.Days != 0 {
		fmt.Fprintf(&b, "%dD", d.Days)
	}
	if d.Secs != 0 || d.Nanos != 0 {
		b.WriteByte('T')
		secs := d.Secs
		hours := secs / 3600
		secs %= 3600
		mins := secs / 60
		secs %= 60
		if hours != 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if mins != 0 {
			fmt.Fprintf(&b, "%dM", mins)
		}
		if secs != 0 || d.Nanos != 0 {
			if d.Nanos != 0 {
				fmt.Fprintf(&b, "%d.%09dS", secs, d.Nanos)
			} else {
				fmt.Fprintf(&b, "%dS", secs)
			}
		}
	}
	if b.Len() == 1 {
		b.WriteString("0D")
	}
	return b.String()
}
