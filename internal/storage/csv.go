package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/marlowe/inkwell/internal/models"
)

// csvHeader is the master-log column order. ReadAll tolerates shorter
// legacy rows; Append always writes the full set.
var csvHeader = []string{
	"id",
	"source_title",
	"source_url",
	"source_type",
	"article_title",
	"article_body",
	"note_1",
	"note_2",
	"insight",
	"reflection",
	"summary",
}

// Row is one master-log record: the source identity plus one article.
type Row struct {
	ID          string
	SourceTitle string
	SourceURL   string
	SourceType  string
	Article     models.Article
}

// RowsForArticles fans one parsed batch out into master-log rows, in
// emission order.
func RowsForArticles(id, sourceTitle, sourceURL, sourceType string, articles []models.Article) []Row {
	rows := make([]Row, 0, len(articles))
	for _, art := range articles {
		rows = append(rows, Row{
			ID:          id,
			SourceTitle: sourceTitle,
			SourceURL:   sourceURL,
			SourceType:  sourceType,
			Article:     art,
		})
	}
	return rows
}

func (r Row) record() []string {
	var f models.BodyFields
	if r.Article.Fields != nil {
		f = *r.Article.Fields
	}
	return []string{
		r.ID,
		r.SourceTitle,
		r.SourceURL,
		r.SourceType,
		r.Article.Title,
		r.Article.Body,
		r.Article.Note1,
		r.Article.Note2,
		f.Insight,
		f.Reflection,
		f.Summary,
	}
}

func rowFromRecord(rec []string) (Row, bool) {
	if len(rec) < 6 {
		return Row{}, false
	}
	get := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	r := Row{
		ID:          rec[0],
		SourceTitle: rec[1],
		SourceURL:   rec[2],
		SourceType:  rec[3],
		Article: models.Article{
			Title: rec[4],
			Body:  rec[5],
			Note1: get(6),
			Note2: get(7),
		},
	}
	if get(8) != "" || get(9) != "" || get(10) != "" {
		r.Article.Fields = &models.BodyFields{
			Insight:    get(8),
			MainText:   rec[5],
			Reflection: get(9),
			Summary:    get(10),
		}
	}
	return r, true
}

// CSVLog is the append-only master log of every persisted article.
// Appends go straight to the file; rewrites go through a temp file and
// rename so readers never observe a half-written log.
type CSVLog struct {
	path string
}

// NewCSVLog returns a log handle for the given absolute file path. The
// file itself appears on first append.
func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

// Path returns the log's file path.
func (l *CSVLog) Path() string { return l.path }

// Append adds rows to the log, writing the header first when the file is
// new or empty.
func (l *CSVLog) Append(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("storage: csv mkdir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("storage: csv open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("storage: csv stat: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("storage: csv header: %w", err)
		}
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return fmt.Errorf("storage: csv append: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("storage: csv flush: %w", err)
	}
	return f.Sync()
}

// ReadAll returns every row in the log in file order. A missing file is an
// empty log.
func (l *CSVLog) ReadAll() ([]Row, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: csv open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []Row
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("storage: csv read: %w", err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == "id" {
				continue
			}
		}
		if row, ok := rowFromRecord(rec); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// RewriteExcluding atomically rewrites the log, dropping every row the
// predicate matches. It reports how many rows were removed.
func (l *CSVLog) RewriteExcluding(match func(Row) bool) (int, error) {
	rows, err := l.ReadAll()
	if err != nil {
		return 0, err
	}

	kept := rows[:0]
	removed := 0
	for _, r := range rows {
		if match(r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return 0, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".inkwell-csv-*")
	if err != nil {
		return 0, fmt.Errorf("storage: csv temp: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("storage: csv header: %w", err)
	}
	for _, r := range kept {
		if err := w.Write(r.record()); err != nil {
			return 0, fmt.Errorf("storage: csv rewrite: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("storage: csv flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("storage: csv fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("storage: csv close: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return 0, fmt.Errorf("storage: csv rename: %w", err)
	}
	success = true
	return removed, nil
}
