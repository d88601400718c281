// Package studio coordinates fetching, generation, parsing, persistence
// and indexing: the end-to-end draft pipeline.
package studio

import (
	"context"
	"log/slog"
	"os"

	"github.com/marlowe/inkwell/internal/fetch"
	"github.com/marlowe/inkwell/internal/index"
	"github.com/marlowe/inkwell/internal/llm"
	"github.com/marlowe/inkwell/internal/parse"
	"github.com/marlowe/inkwell/internal/sse"
	"github.com/marlowe/inkwell/internal/storage"
)

// Completer is the slice of the model client the pipeline needs.
type Completer interface {
	Complete(ctx context.Context, p llm.Prompts) (string, error)
}

// ArticleSource is the slice of the article fetcher the pipeline needs.
type ArticleSource interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// Config holds the service's file inputs and parse policy.
type Config struct {
	StyleRefPath     string
	ChannelVoicePath string
	Mode             parse.Mode
}

// Service coordinates storage, index, model and fetcher.
type Service struct {
	store   storage.Provider
	csv     *storage.CSVLog
	db      index.DraftIndex
	model   Completer
	fetcher ArticleSource
	broker  *sse.Broker
	cfg     Config
	logger  *slog.Logger
}

// NewService creates the studio service.
func NewService(store storage.Provider, csv *storage.CSVLog, db index.DraftIndex, model Completer, fetcher ArticleSource, broker *sse.Broker, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		csv:     csv,
		db:      db,
		model:   model,
		fetcher: fetcher,
		broker:  broker,
		cfg:     cfg,
		logger:  logger,
	}
}

// styleInputs loads the style reference and channel voice files. Either
// one missing is survivable; the prompts just carry less context.
func (s *Service) styleInputs() (styleRef, channelVoice string) {
	if s.cfg.StyleRefPath != "" {
		data, err := os.ReadFile(s.cfg.StyleRefPath)
		if err != nil {
			s.logger.Warn("studio: style reference unavailable", slog.String("path", s.cfg.StyleRefPath), slog.String("error", err.Error()))
		} else {
			styleRef = string(data)
		}
	}
	if s.cfg.ChannelVoicePath != "" {
		data, err := os.ReadFile(s.cfg.ChannelVoicePath)
		if err != nil {
			s.logger.Warn("studio: channel voice unavailable", slog.String("path", s.cfg.ChannelVoicePath), slog.String("error", err.Error()))
		} else {
			channelVoice = string(data)
		}
	}
	return styleRef, channelVoice
}
