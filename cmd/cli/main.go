// Command cli is an interactive REPL for running Cypher statements
// against one or more in-memory graphs: a new/load/unload/list/use/
// help/exit command set with named-graph bookkeeping, driven through
// cyquery.GraphHandle and DUMP-format Cypher files.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/ritamzico/cyquery"
	"github.com/ritamzico/cyquery/internal/value"
)

const helpText = `cyquery interactive REPL

Commands:
  new <name>           Create a new empty graph
  load <name> <file>   Load a graph from a DUMP (.cypher) file
  save <name> <file>   Write a graph's DUMP to a file
  unload <name>        Remove a loaded graph
  list                 List all loaded graphs
  use <name>           Set the active graph for queries
  help                 Show this help message
  exit / quit          Exit the REPL

Any other input is treated as a Cypher statement against the active graph.

Examples:
  CREATE (a:Person {name: 'Ada'})
  MATCH (p:Person) RETURN p.name
  MATCH (a:Person {name: 'Ada'}) CREATE (a)-[:KNOWS]->(:Person {name: 'Grace'})
`

func main() {
	graphs := make(map[string]*cyquery.GraphHandle)
	var active string
	ctx := context.Background()

	interactive := isatty.IsTerminal(os.Stdin.Fd())

	scanner := bufio.NewScanner(os.Stdin)
	if interactive {
		fmt.Println("cyquery — property graph query engine")
		fmt.Println(`Type "help" for available commands.`)
		fmt.Println()
	}

	for {
		if interactive {
			if active != "" {
				fmt.Printf("[%s]> ", active)
			} else {
				fmt.Print("> ")
			}
		}

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "exit", "quit":
			return

		case "help":
			fmt.Print(helpText)

		case "list":
			if len(graphs) == 0 {
				fmt.Println("(no graphs loaded)")
			} else {
				for name := range graphs {
					marker := " "
					if name == active {
						marker = "*"
					}
					fmt.Printf("  %s %s\n", marker, name)
				}
			}

		case "new":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: new <name>")
				continue
			}
			name := parts[1]
			graphs[name] = cyquery.OpenInMemory()
			if active == "" {
				active = name
			}
			fmt.Printf("created empty graph %q\n", name)

		case "use":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: use <name>")
				continue
			}
			name := parts[1]
			if _, ok := graphs[name]; !ok {
				fmt.Fprintf(os.Stderr, "no graph named %q\n", name)
				continue
			}
			active = name
			fmt.Printf("active graph set to %q\n", name)

		case "load":
			if len(parts) < 3 {
				fmt.Fprintln(os.Stderr, "usage: load <name> <file>")
				continue
			}
			name, path := parts[1], parts[2]
			h, n, err := loadDump(ctx, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error loading %q: %v\n", path, err)
				continue
			}
			graphs[name] = h
			if active == "" {
				active = name
			}
			fmt.Printf("loaded %q (%d statements replayed)\n", name, n)

		case "save":
			if len(parts) < 3 {
				fmt.Fprintln(os.Stderr, "usage: save <name> <file>")
				continue
			}
			name, path := parts[1], parts[2]
			h, ok := graphs[name]
			if !ok {
				fmt.Fprintf(os.Stderr, "no graph named %q\n", name)
				continue
			}
			if err := h.SaveDump(path); err != nil {
				fmt.Fprintf(os.Stderr, "error saving %q: %v\n", path, err)
				continue
			}
			fmt.Printf("saved %q to %q\n", name, path)

		case "unload":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: unload <name>")
				continue
			}
			name := parts[1]
			if _, ok := graphs[name]; !ok {
				fmt.Fprintf(os.Stderr, "no graph named %q\n", name)
				continue
			}
			delete(graphs, name)
			if active == name {
				active = ""
			}
			fmt.Printf("unloaded %q\n", name)

		default:
			if active == "" {
				fmt.Fprintln(os.Stderr, "no active graph — use 'new' or 'use' first")
				continue
			}
			res, err := graphs[active].Execute(ctx, line, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "query error: %v\n", err)
				continue
			}
			printResult(res)
		}
	}
}

// loadDump replays a DUMP file's semicolon-terminated statements into a
// fresh handle, in file order.
func loadDump(ctx context.Context, path string) (*cyquery.GraphHandle, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	h := cyquery.OpenInMemory()
	n := 0
	for _, stmt := range strings.Split(string(data), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := h.Execute(ctx, stmt, nil); err != nil {
			return nil, n, fmt.Errorf("statement %d: %w", n+1, err)
		}
		n++
	}
	return h, n, nil
}

func printResult(res cyquery.QueryResult) {
	if len(res.Columns) > 0 {
		fmt.Println(strings.Join(res.Columns, " | "))
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = formatValue(v)
			}
			fmt.Println(strings.Join(cells, " | "))
		}
		fmt.Printf("(%d rows)\n", len(res.Rows))
		return
	}
	fmt.Printf("nodes created: %d, relationships created: %d, properties set: %d\n",
		res.Stats.NodesCreated, res.Stats.RelationshipsCreated, res.Stats.PropertiesSet)
}

func formatValue(v value.Value) string {
	if v.Kind == value.KindNull {
		return "null"
	}
	return v.String()
}
