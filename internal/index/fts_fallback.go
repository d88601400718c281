//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE fallback on the drafts table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ string, _ int, _, _ string) error {
	// Title and body are already stored in the drafts table; nothing extra to do.
	return nil
}

func ftsDeleteSource(_ *sql.Tx, _ string) {}

func ftsDeleteDraft(_ *sql.Tx, _ string, _ int) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT d.source_id, s.title, d.title, substr(d.body, 1, 200)
		FROM drafts d
		JOIN sources s ON s.id = d.source_id
		WHERE d.title LIKE ? OR d.body LIKE ?
		ORDER BY d.source_id, d.position
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.SourceID, &r.SourceTitle, &r.DraftTitle, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
