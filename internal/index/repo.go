package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/marlowe/inkwell/internal/models"
)

// SourceRow represents a row in the sources table. DraftCount is filled by
// listing queries, not stored.
type SourceRow struct {
	ID             string
	Title          string
	URL            string
	Type           string
	File           string
	TranscriptFile string
	UpdatedAt      time.Time
	DraftCount     int
}

// DraftRow represents a row in the drafts table. Position is the
// zero-based emission order within one source.
type DraftRow struct {
	SourceID   string
	Position   int
	Title      string
	Body       string
	Note1      string
	Note2      string
	Insight    string
	Reflection string
	Summary    string
}

// DraftRowFromArticle maps one parsed article to its index row.
func DraftRowFromArticle(sourceID string, position int, art models.Article) DraftRow {
	r := DraftRow{
		SourceID: sourceID,
		Position: position,
		Title:    art.Title,
		Body:     art.Body,
		Note1:    art.Note1,
		Note2:    art.Note2,
	}
	if art.Fields != nil {
		r.Insight = art.Fields.Insight
		r.Reflection = art.Fields.Reflection
		r.Summary = art.Fields.Summary
	}
	return r
}

// SearchResult represents one search hit.
type SearchResult struct {
	SourceID    string
	SourceTitle string
	DraftTitle  string
	Snippet     string
}

// UpsertSource inserts or replaces a source row.
func (db *DB) UpsertSource(s SourceRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO sources (id, title, url, type, file, transcript_file, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title           = excluded.title,
			url             = excluded.url,
			type            = excluded.type,
			file            = excluded.file,
			transcript_file = excluded.transcript_file,
			updated_at      = excluded.updated_at
	`, s.ID, s.Title, s.URL, s.Type, s.File, s.TranscriptFile, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert source: %w", err)
	}
	return nil
}

// ReplaceDrafts swaps the full draft set of one source, FTS included,
// within a transaction.
func (db *DB) ReplaceDrafts(sourceID string, drafts []DraftRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM drafts WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("index: clear drafts: %w", err)
	}
	ftsDeleteSource(tx, sourceID)

	if len(drafts) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO drafts (source_id, position, title, body, note_1, note_2, insight, reflection, summary)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare draft insert: %w", err)
		}
		defer stmt.Close()
		for _, d := range drafts {
			if _, err := stmt.Exec(d.SourceID, d.Position, d.Title, d.Body, d.Note1, d.Note2, d.Insight, d.Reflection, d.Summary); err != nil {
				return fmt.Errorf("index: insert draft: %w", err)
			}
			if err := ftsUpsert(tx, d.SourceID, d.Position, d.Title, d.Body); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteSource removes a source, its drafts and their FTS entries.
func (db *DB) DeleteSource(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteSource(tx, id)
	_, _ = tx.Exec(`DELETE FROM drafts WHERE source_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM sources WHERE id = ?`, id)

	return tx.Commit()
}

// DeleteDraft removes a single draft by title. Remaining positions are
// left untouched so order survives.
func (db *DB) DeleteDraft(sourceID, title string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var pos int
	err = tx.QueryRow(`SELECT position FROM drafts WHERE source_id = ? AND title = ?`, sourceID, title).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("index: find draft: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM drafts WHERE source_id = ? AND position = ?`, sourceID, pos); err != nil {
		return fmt.Errorf("index: delete draft: %w", err)
	}
	ftsDeleteDraft(tx, sourceID, pos)

	return tx.Commit()
}

// ListSources returns every source with its draft count, newest first.
func (db *DB) ListSources() ([]SourceRow, error) {
	rows, err := db.conn.Query(`
		SELECT s.id, s.title, s.url, s.type, s.file, s.transcript_file, s.updated_at,
		       COUNT(d.source_id)
		FROM sources s
		LEFT JOIN drafts d ON d.source_id = s.id
		GROUP BY s.id
		ORDER BY s.updated_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list sources: %w", err)
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var s SourceRow
		if err := rows.Scan(&s.ID, &s.Title, &s.URL, &s.Type, &s.File, &s.TranscriptFile, &s.UpdatedAt, &s.DraftCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSource returns one source by id, or nil when absent.
func (db *DB) GetSource(id string) (*SourceRow, error) {
	var s SourceRow
	err := db.conn.QueryRow(`
		SELECT s.id, s.title, s.url, s.type, s.file, s.transcript_file, s.updated_at,
		       (SELECT COUNT(*) FROM drafts d WHERE d.source_id = s.id)
		FROM sources s WHERE s.id = ?
	`, id).Scan(&s.ID, &s.Title, &s.URL, &s.Type, &s.File, &s.TranscriptFile, &s.UpdatedAt, &s.DraftCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get source: %w", err)
	}
	return &s, nil
}

// DraftsBySource returns a source's drafts in position order.
func (db *DB) DraftsBySource(id string) ([]DraftRow, error) {
	rows, err := db.conn.Query(`
		SELECT source_id, position, title, body, note_1, note_2, insight, reflection, summary
		FROM drafts WHERE source_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("index: drafts by source: %w", err)
	}
	defer rows.Close()

	var out []DraftRow
	for rows.Next() {
		var d DraftRow
		if err := rows.Scan(&d.SourceID, &d.Position, &d.Title, &d.Body, &d.Note1, &d.Note2, &d.Insight, &d.Reflection, &d.Summary); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AllSourceIDs returns every indexed source id.
func (db *DB) AllSourceIDs() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT id FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("index: all source ids: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
