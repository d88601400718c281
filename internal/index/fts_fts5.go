//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS drafts_fts USING fts5(
			source_id UNINDEXED,
			position UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, sourceID string, position int, title, body string) error {
	_, _ = tx.Exec(`DELETE FROM drafts_fts WHERE source_id = ? AND position = ?`, sourceID, position)
	_, err := tx.Exec(`INSERT INTO drafts_fts (source_id, position, title, body) VALUES (?, ?, ?, ?)`,
		sourceID, position, title, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteSource(tx *sql.Tx, sourceID string) {
	_, _ = tx.Exec(`DELETE FROM drafts_fts WHERE source_id = ?`, sourceID)
}

func ftsDeleteDraft(tx *sql.Tx, sourceID string, position int) {
	_, _ = tx.Exec(`DELETE FROM drafts_fts WHERE source_id = ? AND position = ?`, sourceID, position)
}

// Search performs an FTS5 full-text search over draft titles and bodies
// and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.source_id,
		       s.title,
		       f.title,
		       snippet(drafts_fts, 3, '<b>', '</b>', '...', 64)
		FROM drafts_fts f
		JOIN sources s ON s.id = f.source_id
		WHERE drafts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
