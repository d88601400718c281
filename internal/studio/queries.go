package studio

import (
	"context"
	"log/slog"
	"strings"

	"github.com/marlowe/inkwell/internal/apperr"
	"github.com/marlowe/inkwell/internal/index"
	"github.com/marlowe/inkwell/internal/models"
	"github.com/marlowe/inkwell/internal/parse"
	"github.com/marlowe/inkwell/internal/storage"
)

// SourceDetail is one source with its drafts.
type SourceDetail struct {
	Source models.Source    `json:"source"`
	Drafts []models.Article `json:"drafts"`
}

func toSource(r index.SourceRow) models.Source {
	return models.Source{
		ID:            r.ID,
		Title:         r.Title,
		URL:           r.URL,
		Type:          r.Type,
		DraftCount:    r.DraftCount,
		HasTranscript: r.TranscriptFile != "",
		UpdatedAt:     r.UpdatedAt,
	}
}

// ListSources returns every known source, newest first.
func (s *Service) ListSources(_ context.Context) ([]models.Source, error) {
	rows, err := s.db.ListSources()
	if err != nil {
		return nil, err
	}
	out := make([]models.Source, len(rows))
	for i, r := range rows {
		out[i] = toSource(r)
	}
	return out, nil
}

// SourceDetail returns one source and its drafts. When the index holds no
// draft rows but a draft file exists on disk, the file is re-parsed
// leniently so hand-edited or pre-index files still surface.
func (s *Service) SourceDetail(_ context.Context, id string) (*SourceDetail, error) {
	row, err := s.db.GetSource(id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.ErrNotFound
	}

	rows, err := s.db.DraftsBySource(id)
	if err != nil {
		return nil, err
	}

	var drafts []models.Article
	if len(rows) > 0 {
		drafts = make([]models.Article, len(rows))
		for i, d := range rows {
			drafts[i] = models.Article{
				Title: d.Title,
				Body:  d.Body,
				Note1: d.Note1,
				Note2: d.Note2,
			}
			if d.Insight != "" || d.Reflection != "" || d.Summary != "" {
				drafts[i].Fields = &models.BodyFields{
					Insight:    d.Insight,
					MainText:   d.Body,
					Reflection: d.Reflection,
					Summary:    d.Summary,
				}
			}
		}
	} else if row.File != "" {
		if data, err := s.store.Read(row.File); err == nil {
			drafts = parse.ParseSavedFile(string(data))
		}
	}

	return &SourceDetail{Source: toSource(*row), Drafts: drafts}, nil
}

// Transcript returns the stored source content for one source.
func (s *Service) Transcript(_ context.Context, id string) (string, error) {
	row, err := s.db.GetSource(id)
	if err != nil {
		return "", err
	}
	if row == nil || row.TranscriptFile == "" {
		return "", apperr.ErrNotFound
	}
	data, err := s.store.Read(row.TranscriptFile)
	if err != nil {
		return "", err
	}
	return storage.ParseTranscript(data).Content, nil
}

// Search runs a full-text query over draft titles and bodies.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return s.db.Search(query, limit)
}

// DeleteSource removes a source everywhere: draft file, notes files,
// transcript, CSV rows and index entries.
func (s *Service) DeleteSource(_ context.Context, id string) error {
	row, err := s.db.GetSource(id)
	if err != nil {
		return err
	}
	if row == nil {
		return apperr.ErrNotFound
	}

	if row.File != "" {
		if err := s.store.Delete(row.File); err != nil {
			s.logger.Warn("studio: delete draft file failed", slog.String("path", row.File), slog.String("error", err.Error()))
		}
	}
	if row.TranscriptFile != "" {
		if err := s.store.Delete(row.TranscriptFile); err != nil {
			s.logger.Warn("studio: delete transcript failed", slog.String("path", row.TranscriptFile), slog.String("error", err.Error()))
		}
	}
	s.deleteNotesFiles(row.Title, "")

	if _, err := s.csv.RewriteExcluding(func(r storage.Row) bool { return r.ID == id }); err != nil {
		return err
	}
	if err := s.db.DeleteSource(id); err != nil {
		return err
	}
	s.broker.PublishDraftEvent("deleted", id, "")
	return nil
}

// DeleteDraft removes one draft from a source: its CSV row, its notes
// file, its index row, and rewrites the draft file from the survivors.
func (s *Service) DeleteDraft(_ context.Context, id, title string) error {
	row, err := s.db.GetSource(id)
	if err != nil {
		return err
	}
	if row == nil {
		return apperr.ErrNotFound
	}

	removed, err := s.csv.RewriteExcluding(func(r storage.Row) bool {
		return r.ID == id && r.Article.Title == title
	})
	if err != nil {
		return err
	}
	if removed == 0 {
		return apperr.ErrNotFound
	}

	// Rewrite the draft file from the remaining rows for this source.
	rows, err := s.csv.ReadAll()
	if err != nil {
		return err
	}
	var remaining []models.Article
	for _, r := range rows {
		if r.ID == id {
			remaining = append(remaining, r.Article)
		}
	}
	if row.File != "" {
		if len(remaining) > 0 {
			if err := s.store.Write(row.File, storage.RenderDrafts(remaining)); err != nil {
				return err
			}
		} else if err := s.store.Delete(row.File); err != nil {
			s.logger.Warn("studio: delete empty draft file failed", slog.String("path", row.File), slog.String("error", err.Error()))
		}
	}
	s.deleteNotesFiles(row.Title, title)

	if err := s.db.DeleteDraft(id, title); err != nil {
		return err
	}
	s.broker.PublishDraftEvent("deleted", id, title)
	return nil
}

// deleteNotesFiles removes notes files for one draft, or for every draft
// of the source when draftTitle is empty.
func (s *Service) deleteNotesFiles(sourceTitle, draftTitle string) {
	if draftTitle != "" {
		path := storage.NotesPath(sourceTitle, draftTitle)
		if err := s.store.Delete(path); err == nil {
			s.logger.Debug("studio: notes file removed", slog.String("path", path))
		}
		return
	}
	metas, err := s.store.List(storage.NotesDir)
	if err != nil {
		return
	}
	prefix := storage.SanitizeFilename(sourceTitle) + " - "
	for _, m := range metas {
		base := m.Path[strings.LastIndex(m.Path, "/")+1:]
		if strings.HasPrefix(base, prefix) {
			_ = s.store.Delete(m.Path)
		}
	}
}
