// Command server exposes a stateless HTTP /query endpoint wrapping the
// Cypher facade: CORS middleware, a POST-body-carries-graph-state
// request shape, and a result/mutation response split, all driven
// through cyquery.GraphHandle and DUMP-format Cypher text.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/ritamzico/cyquery"
	"github.com/ritamzico/cyquery/internal/value"
)

var allowedOrigins = []string{
	"http://localhost:5173",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loadDump replays a DUMP text's semicolon-terminated statements into a
// fresh in-memory handle. An empty dump
// yields an empty graph.
func loadDump(ctx context.Context, dump string) (*cyquery.GraphHandle, error) {
	h := cyquery.OpenInMemory()
	for _, stmt := range strings.Split(dump, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := h.Execute(ctx, stmt, nil); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func rowsToJSON(res cyquery.QueryResult) [][]any {
	rows := make([][]any, len(res.Rows))
	for i, row := range res.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = valueToJSON(v)
		}
		rows[i] = cells
	}
	return rows
}

// valueToJSON renders a value.Value as a plain JSON-marshalable form;
// complex kinds (list/map/temporal/spatial) fall back to their Cypher
// string rendering rather than a bespoke wire schema.
func valueToJSON(v value.Value) any {
	switch v.Kind {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindInt:
		return v.AsInt()
	case value.KindFloat:
		return v.AsFloat()
	case value.KindString:
		return v.AsString()
	default:
		return v.String()
	}
}

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	flag.Parse()

	ctx := context.Background()
	mux := http.NewServeMux()

	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var body struct {
			Dump  string `json:"dump"`
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if body.Query == "" {
			writeError(w, http.StatusBadRequest, "missing field: query")
			return
		}

		h, err := loadDump(ctx, body.Dump)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid dump: %v", err))
			return
		}

		res, err := h.Execute(ctx, body.Query, nil)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		// No columns means the statement was a mutation (CREATE/MERGE/SET
		// DELETE/schema DDL): the client needs the updated graph state back,
		// not a row set.
		if len(res.Columns) == 0 {
			var buf bytes.Buffer
			if err := h.Dump(&buf); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, struct {
				Kind  string `json:"kind"`
				Dump  string `json:"dump"`
				Stats any    `json:"stats"`
			}{Kind: "mutation", Dump: buf.String(), Stats: res.Stats})
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Kind    string   `json:"kind"`
			Columns []string `json:"columns"`
			Rows    [][]any  `json:"rows"`
		}{Kind: "rows", Columns: res.Columns, Rows: rowsToJSON(res)})
	})

	addr := fmt.Sprintf(":%d", *port)
	fmt.Printf("cyquery server listening on %s\n", addr)
	if err := http.ListenAndServe(addr, corsMiddleware(mux)); err != nil {
		fmt.Fprintf(flag.CommandLine.Output(), "server error: %v\n", err)
	}
}
