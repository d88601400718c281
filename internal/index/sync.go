package index

import (
	"log/slog"
	"time"

	"github.com/marlowe/inkwell/internal/storage"
)

// Rebuild brings the index in line with what is on disk. The master CSV is
// authoritative for sources and their drafts; the transcripts directory
// contributes transcript paths and sources that were fetched but never
// produced drafts. Indexed sources missing from both are removed.
func Rebuild(db *DB, log *storage.CSVLog, store storage.Provider, logger *slog.Logger) error {
	rows, err := log.ReadAll()
	if err != nil {
		return err
	}

	mtimes := map[string]time.Time{}
	if metas, err := store.List(storage.DraftsDir); err == nil {
		for _, m := range metas {
			mtimes[m.Path] = m.UpdatedAt
		}
	}

	// Group CSV rows by source, preserving first-appearance order and
	// per-source row order.
	var order []string
	sources := map[string]*SourceRow{}
	drafts := map[string][]DraftRow{}
	for _, r := range rows {
		s, ok := sources[r.ID]
		if !ok {
			file := storage.DraftPath(r.SourceTitle)
			s = &SourceRow{
				ID:        r.ID,
				Title:     r.SourceTitle,
				URL:       r.SourceURL,
				Type:      r.SourceType,
				File:      file,
				UpdatedAt: mtimes[file],
			}
			sources[r.ID] = s
			order = append(order, r.ID)
		}
		drafts[r.ID] = append(drafts[r.ID], DraftRowFromArticle(r.ID, len(drafts[r.ID]), r.Article))
	}

	// Fold in transcripts.
	tmetas, err := store.List(storage.TranscriptsDir)
	if err != nil {
		return err
	}
	for _, m := range tmetas {
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("rebuild: read transcript failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		h := storage.ParseTranscript(data)
		if h.SourceID == "" {
			continue
		}
		if s, ok := sources[h.SourceID]; ok {
			s.TranscriptFile = m.Path
			continue
		}
		sources[h.SourceID] = &SourceRow{
			ID:             h.SourceID,
			Title:          h.Title,
			Type:           h.SourceType,
			TranscriptFile: m.Path,
			UpdatedAt:      m.UpdatedAt,
		}
		order = append(order, h.SourceID)
	}

	for _, id := range order {
		s := *sources[id]
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now()
		}
		if err := db.UpsertSource(s); err != nil {
			logger.Warn("rebuild: upsert failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		if err := db.ReplaceDrafts(id, drafts[id]); err != nil {
			logger.Warn("rebuild: drafts failed", slog.String("id", id), slog.String("error", err.Error()))
		}
	}

	// Remove stale entries.
	known, err := db.AllSourceIDs()
	if err != nil {
		return err
	}
	for id := range known {
		if _, ok := sources[id]; !ok {
			if err := db.DeleteSource(id); err != nil {
				logger.Warn("rebuild: delete stale failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("rebuild: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}
