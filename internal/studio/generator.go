package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/marlowe/inkwell/internal/apperr"
	"github.com/marlowe/inkwell/internal/checksum"
	"github.com/marlowe/inkwell/internal/fetch"
	"github.com/marlowe/inkwell/internal/index"
	"github.com/marlowe/inkwell/internal/llm"
	"github.com/marlowe/inkwell/internal/models"
	"github.com/marlowe/inkwell/internal/parse"
	"github.com/marlowe/inkwell/internal/storage"
)

// GenerateRequest describes one generation run. For video sources the
// transcript arrives as text (inline or from a previously saved
// transcript file); article sources are fetched from the URL.
type GenerateRequest struct {
	URL        string
	SourceType string
	Title      string
	Transcript string
	Force      bool
}

// GenerateResult summarizes one completed run.
type GenerateResult struct {
	SourceID    string
	SourceTitle string
	SourceType  string
	File        string
	Count       int
}

// Generate runs the full pipeline: resolve content, prompt the model,
// parse the reply, persist and index the drafts. progress (optional)
// receives human-readable status lines along the way.
func (s *Service) Generate(ctx context.Context, req GenerateRequest, progress func(string)) (*GenerateResult, error) {
	report := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}

	src, err := s.resolveSource(ctx, req, report)
	if err != nil {
		return nil, err
	}
	report(fmt.Sprintf("Source: %s", src.Title))

	draftFile := storage.DraftPath(src.Title)
	if !req.Force {
		if _, err := s.store.Read(draftFile); err == nil {
			return nil, fmt.Errorf("%w: drafts for %q", apperr.ErrAlreadyExists, src.Title)
		}
	}

	transcriptFile := storage.TranscriptPath(src.Title)
	if err := s.store.Write(transcriptFile, storage.RenderTranscript(src.Title, src.ID, src.Type, src.Content)); err != nil {
		return nil, err
	}
	report("Source content saved")

	styleRef, channelVoice := s.styleInputs()

	var prompts llm.Prompts
	if s.cfg.Mode == parse.ModeNotes {
		prompts = llm.NotesPrompts(src.Title, src.Content, styleRef, channelVoice)
	} else {
		prompts = llm.DraftPrompts(src.Title, src.Content, styleRef, channelVoice)
	}

	report("Writing drafts, this can take a minute")
	raw, err := s.model.Complete(ctx, prompts)
	if err != nil {
		return nil, err
	}

	articles := parse.Parse(raw, s.cfg.Mode)
	if len(articles) == 0 {
		// Keep the reply for inspection; parsing failures are almost
		// always format drift in the model output.
		if werr := s.store.Write(storage.DebugDumpFile, []byte(raw)); werr != nil {
			s.logger.Warn("studio: debug dump failed", slog.String("error", werr.Error()))
		}
		return nil, fmt.Errorf("%w (raw reply kept in %s)", apperr.ErrEmptyResult, storage.DebugDumpFile)
	}
	report(fmt.Sprintf("Parsed %d drafts", len(articles)))

	if err := s.persist(src, draftFile, transcriptFile, articles); err != nil {
		return nil, err
	}
	report("Drafts saved")

	for _, art := range articles {
		s.broker.PublishDraftEvent("created", src.ID, art.Title)
	}

	return &GenerateResult{
		SourceID:    src.ID,
		SourceTitle: src.Title,
		SourceType:  src.Type,
		File:        draftFile,
		Count:       len(articles),
	}, nil
}

// resolveSource produces the content to generate from. The canonical
// source id is derived from the URL so transcript headers, CSV rows and
// the index all agree.
func (s *Service) resolveSource(ctx context.Context, req GenerateRequest, report func(string)) (*models.SourceContent, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, fmt.Errorf("studio: url is required")
	}

	srcType := req.SourceType
	if srcType == "" {
		srcType = fetch.DetectType(url)
	}
	id := checksum.ShortID(url)

	switch srcType {
	case models.SourceTypeVideo:
		videoID, ok := fetch.VideoID(url)
		if !ok {
			return nil, fmt.Errorf("studio: unrecognized video url %q", url)
		}
		content := strings.TrimSpace(req.Transcript)
		title := strings.TrimSpace(req.Title)
		if content == "" {
			// Fall back to a transcript saved on an earlier run.
			saved, savedTitle := s.savedTranscript(id)
			content, title = saved, firstNonEmpty(title, savedTitle)
		}
		if content == "" {
			return nil, fmt.Errorf("studio: no transcript available for video %s", videoID)
		}
		if title == "" {
			title = "Video_" + videoID
		}
		return &models.SourceContent{ID: id, URL: url, Title: title, Type: models.SourceTypeVideo, Content: content}, nil

	case models.SourceTypeArticle:
		report("Fetching article")
		res, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		return &models.SourceContent{ID: id, URL: res.URL, Title: res.Title, Type: models.SourceTypeArticle, Content: res.Content}, nil

	default:
		return nil, fmt.Errorf("studio: unknown source type %q", srcType)
	}
}

// savedTranscript scans the transcripts directory for a file whose header
// carries the given source id.
func (s *Service) savedTranscript(id string) (content, title string) {
	metas, err := s.store.List(storage.TranscriptsDir)
	if err != nil {
		return "", ""
	}
	for _, m := range metas {
		data, err := s.store.Read(m.Path)
		if err != nil {
			continue
		}
		h := storage.ParseTranscript(data)
		if h.SourceID == id {
			return h.Content, h.Title
		}
	}
	return "", ""
}

// persist writes the draft file, per-draft notes files, the CSV rows and
// the index entries for one parsed batch.
func (s *Service) persist(src *models.SourceContent, draftFile, transcriptFile string, articles []models.Article) error {
	if err := s.store.Write(draftFile, storage.RenderDrafts(articles)); err != nil {
		return err
	}

	for _, art := range articles {
		if art.Note1 == "" && art.Note2 == "" {
			continue
		}
		notesFile := storage.NotesPath(src.Title, art.Title)
		if err := s.store.Write(notesFile, storage.RenderNotes(art.Title, src.URL, art)); err != nil {
			return err
		}
	}

	if err := s.csv.Append(storage.RowsForArticles(src.ID, src.Title, src.URL, src.Type, articles)); err != nil {
		return err
	}

	if err := s.db.UpsertSource(index.SourceRow{
		ID:             src.ID,
		Title:          src.Title,
		URL:            src.URL,
		Type:           src.Type,
		File:           draftFile,
		TranscriptFile: transcriptFile,
		UpdatedAt:      time.Now(),
	}); err != nil {
		return err
	}
	rows := make([]index.DraftRow, 0, len(articles))
	for i, art := range articles {
		rows = append(rows, index.DraftRowFromArticle(src.ID, i, art))
	}
	return s.db.ReplaceDrafts(src.ID, rows)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// IsMissing reports whether an error is a plain not-found, as opposed to
// a pipeline failure.
func IsMissing(err error) bool {
	return errors.Is(err, apperr.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
