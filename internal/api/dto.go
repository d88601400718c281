package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/marlowe/inkwell/internal/index"
	"github.com/marlowe/inkwell/internal/jobs"
	"github.com/marlowe/inkwell/internal/models"
	"github.com/marlowe/inkwell/internal/studio"
)

// GenerateRequest is the request body for starting a generation run.
type GenerateRequest struct {
	URL        string `json:"url" example:"https://www.youtube.com/watch?v=abc123" validate:"required"`
	SourceType string `json:"source_type,omitempty" example:"video"`
	Title      string `json:"title,omitempty" example:"My Video"`
	Transcript string `json:"transcript,omitempty"`
	Force      bool   `json:"force,omitempty"`
}

// Validate validates the generation request.
func (r GenerateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required),
		validation.Field(&r.SourceType, validation.In(models.SourceTypeArticle, models.SourceTypeVideo)),
	)
}

func (r GenerateRequest) toStudio() studio.GenerateRequest {
	return studio.GenerateRequest{
		URL:        r.URL,
		SourceType: r.SourceType,
		Title:      r.Title,
		Transcript: r.Transcript,
		Force:      r.Force,
	}
}

// GenerateAccepted is returned when a generation job has been queued.
type GenerateAccepted struct {
	JobID string `json:"job_id" validate:"required"`
}

// JobResponse is the job status payload (aliased from the jobs layer).
type JobResponse = jobs.Job

// SourceListResponse wraps the source listing.
type SourceListResponse struct {
	Sources []models.Source `json:"sources" validate:"required"`
	Total   int             `json:"total" example:"12" validate:"required"`
}

// SourceDetailResponse is the full source payload (aliased from the domain layer).
type SourceDetailResponse = studio.SourceDetail

// TranscriptResponse wraps a stored transcript.
type TranscriptResponse struct {
	SourceID string `json:"source_id" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
