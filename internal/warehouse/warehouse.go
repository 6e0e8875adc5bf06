// Copyright (c) 2024 Neomantra Corp
//
// Warehouse: loads a capture file's decoded frames into an in-memory
// DuckDB table of flattened scalar fields, for ad hoc SQL querying.
// Grounded on the teacher's internal/mcp_data/cache.go, which opens the
// same in-memory DuckDB database ("duckdb", "") and applies the same
// extension/filesystem lockdown before running any caller SQL.

package warehouse

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	_ "github.com/duckdb/duckdb-go/v2"

	tera "github.com/neomantra/tera-go"
	"github.com/neomantra/tera-go/internal/capture"
)

// Warehouse wraps an in-memory DuckDB connection loaded with one table
// per captured message name, named after the message.
type Warehouse struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates a locked-down in-memory DuckDB connection, matching the
// teacher's hardening posture: no extension autoinstall, no remote
// filesystem access, configuration locked after set.
func Open(logger *slog.Logger) (*Warehouse, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}
	for _, stmt := range []string{
		"SET autoinstall_known_extensions = false",
		"SET autoload_known_extensions = false",
		"SET allow_community_extensions = false",
		"SET disabled_filesystems = 'HTTPFileSystem'",
		"SET lock_configuration = true",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure DuckDB (%s): %w", stmt, err)
		}
	}
	return &Warehouse{db: db, logger: logger}, nil
}

// Close closes the underlying DuckDB connection.
func (w *Warehouse) Close() error { return w.db.Close() }

// LoadFrames creates one table per distinct message name seen in frames,
// with one column per top-level scalar field plus "captured_at" and
// "opcode". Nested objects/arrays/bytes are skipped: SQL over those is
// better served by decode_frame through the MCP server.
func (w *Warehouse) LoadFrames(frames []capture.Frame) error {
	byName := make(map[string][]capture.Frame)
	for _, f := range frames {
		if f.Name == "" || f.Record == nil {
			continue
		}
		byName[f.Name] = append(byName[f.Name], f)
	}
	for name, group := range byName {
		if err := w.loadTable(name, group); err != nil {
			return fmt.Errorf("load table %q: %w", name, err)
		}
	}
	return nil
}

func (w *Warehouse) loadTable(tableName string, frames []capture.Frame) error {
	columns := scalarColumns(frames)
	if len(columns) == 0 {
		return nil
	}

	createCols := make([]string, 0, len(columns)+2)
	createCols = append(createCols, `"captured_at" TIMESTAMP`, `"opcode" INTEGER`)
	for _, c := range columns {
		createCols = append(createCols, fmt.Sprintf(`"%s" VARCHAR`, c))
	}
	createStmt := fmt.Sprintf(`CREATE OR REPLACE TABLE "%s" (%s)`, tableName, joinComma(createCols))
	if _, err := w.db.Exec(createStmt); err != nil {
		return err
	}

	placeholders := make([]string, 0, len(columns)+2)
	placeholders = append(placeholders, "?", "?")
	for range columns {
		placeholders = append(placeholders, "?")
	}
	insertCols := make([]string, 0, len(columns)+2)
	insertCols = append(insertCols, `"captured_at"`, `"opcode"`)
	for _, c := range columns {
		insertCols = append(insertCols, fmt.Sprintf(`"%s"`, c))
	}
	insertStmt := fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`, tableName, joinComma(insertCols), joinComma(placeholders))

	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertStmt)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		args := make([]any, 0, len(columns)+2)
		args = append(args, f.CapturedAt, f.Opcode)
		for _, c := range columns {
			args = append(args, fmt.Sprintf("%v", f.Record.Get(c)))
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func scalarColumns(frames []capture.Frame) []string {
	seen := map[string]bool{}
	for _, f := range frames {
		for k, v := range f.Record {
			switch v.(type) {
			case tera.Record, []tera.Record, []byte:
				continue
			}
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// Query runs sql against the warehouse and returns the column names and
// each row's values in column order, which the CLI's "query" subcommand
// prints as tab-separated rows.
func (w *Warehouse) Query(query string) ([]string, [][]any, error) {
	rows, err := w.db.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		out = append(out, vals)
	}
	return cols, out, rows.Err()
}
