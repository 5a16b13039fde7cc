package adapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	m "refmove.dev/pkg/refmove/internal/model"
)

// openIndex creates a private in-memory reference index. Every connection to
// ":memory:" is its own database, so the pool is pinned to one connection.
func openIndex(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open reference index: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := initIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func initIndexSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE files (
			path   TEXT PRIMARY KEY,
			loaded INTEGER NOT NULL DEFAULT 0,
			ord    INTEGER NOT NULL
		);`,
		`CREATE TABLE imports (
			id          INTEGER PRIMARY KEY,
			source_path TEXT NOT NULL,
			specifier   TEXT NOT NULL,
			target_path TEXT NOT NULL,
			line        INTEGER
		);`,
		`CREATE INDEX idx_imports_source ON imports(source_path);`,
		`CREATE INDEX idx_imports_target ON imports(target_path);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init reference index: %w", err)
		}
	}

	return nil
}

// indexEdge is a resolved import from source to target.
type indexEdge struct {
	specifier string
	target    m.Path
	line      int
}

// upsertIndexedFile records a file and replaces its outgoing edges.
func upsertIndexedFile(ctx context.Context, tx *sql.Tx, path m.Path, loaded bool, ord int, edges []indexEdge) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO files (path, loaded, ord) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET loaded = MAX(files.loaded, excluded.loaded)`,
		string(path), boolToInt(loaded), ord); err != nil {
		return err
	}

	return replaceEdges(ctx, tx, path, edges)
}

func replaceEdges(ctx context.Context, tx *sql.Tx, source m.Path, edges []indexEdge) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM imports WHERE source_path = ?", string(source)); err != nil {
		return err
	}

	for _, edge := range edges {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO imports (source_path, specifier, target_path, line) VALUES (?, ?, ?, ?)",
			string(source), edge.specifier, string(edge.target), edge.line); err != nil {
			return err
		}
	}

	return nil
}

// renameIndexedFile moves a file's row and every edge touching it to newPath.
func renameIndexedFile(ctx context.Context, tx *sql.Tx, oldPath, newPath m.Path) error {
	stmts := []struct {
		query string
		args  []any
	}{
		{"DELETE FROM imports WHERE source_path = ?", []any{string(newPath)}},
		{"DELETE FROM files WHERE path = ?", []any{string(newPath)}},
		{"UPDATE files SET path = ? WHERE path = ?", []any{string(newPath), string(oldPath)}},
		{"UPDATE imports SET source_path = ? WHERE source_path = ?", []any{string(newPath), string(oldPath)}},
		{"UPDATE imports SET target_path = ? WHERE target_path = ?", []any{string(newPath), string(oldPath)}},
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return err
		}
	}

	return nil
}

// queryPaths runs a single-column path query.
func queryPaths(ctx context.Context, db *sql.DB, query string, args ...any) ([]m.Path, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []m.Path

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}

		paths = append(paths, m.Path(p))
	}

	return paths, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
