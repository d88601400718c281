package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marlowe/inkwell/internal/apperr"
	"github.com/marlowe/inkwell/internal/index"
	"github.com/marlowe/inkwell/internal/jobs"
	"github.com/marlowe/inkwell/internal/models"
	"github.com/marlowe/inkwell/internal/sse"
	"github.com/marlowe/inkwell/internal/studio"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *studio.Service
	jobs   *jobs.Store
	broker *sse.Broker

	// runCtx outlives individual requests so queued generation runs
	// survive client disconnects.
	runCtx context.Context
}

// NewHandler creates a new Handler. runCtx bounds the lifetime of
// background generation runs.
func NewHandler(runCtx context.Context, svc *studio.Service, store *jobs.Store, broker *sse.Broker) *Handler {
	return &Handler{svc: svc, jobs: store, broker: broker, runCtx: runCtx}
}

// draftTitle extracts the draft title path segment, tolerating encoded
// characters from OpenAPI clients (e.g. My%20Draft).
func draftTitle(r *http.Request) string {
	raw := chi.URLParam(r, "title")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Generate handles POST /api/generate.
//
//	@Summary		Queue a draft generation run for a URL
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			body	body		GenerateRequest	true	"Source to process"
//	@Success		202		{object}	GenerateAccepted
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/generate [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	jobID := h.jobs.Create(req.URL)
	go studio.RunJob(h.runCtx, h.svc, h.jobs, h.broker, jobID, req.toStudio())

	writeJSON(w, http.StatusAccepted, GenerateAccepted{JobID: jobID})
}

// GetJob handles GET /api/jobs/{id}.
//
//	@Summary		Get the status of a generation job
//	@Tags			generate
//	@Produce		json
//	@Param			id	path		string	true	"Job id"
//	@Success		200	{object}	JobResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := h.jobs.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// ListSources handles GET /api/sources.
//
//	@Summary		List processed sources, newest first
//	@Tags			sources
//	@Produce		json
//	@Success		200	{object}	SourceListResponse
//	@Security		BearerAuth
//	@Router			/sources [get]
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.svc.ListSources(r.Context())
	if err != nil {
		slog.Error("list sources failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if sources == nil {
		sources = []models.Source{}
	}
	writeJSON(w, http.StatusOK, SourceListResponse{Sources: sources, Total: len(sources)})
}

// GetSource handles GET /api/sources/{id}.
//
//	@Summary		Get one source with its drafts
//	@Tags			sources
//	@Produce		json
//	@Param			id	path		string	true	"Source id"
//	@Success		200	{object}	SourceDetailResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sources/{id} [get]
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := h.svc.SourceDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get source failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetTranscript handles GET /api/sources/{id}/transcript.
//
//	@Summary		Get the stored source content for a source
//	@Tags			sources
//	@Produce		json
//	@Param			id	path		string	true	"Source id"
//	@Success		200	{object}	TranscriptResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sources/{id}/transcript [get]
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	content, err := h.svc.Transcript(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get transcript failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{SourceID: id, Content: content})
}

// DeleteSource handles DELETE /api/sources/{id}.
//
//	@Summary		Delete a source and all its drafts
//	@Tags			sources
//	@Param			id	path	string	true	"Source id"
//	@Success		204	"Source deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sources/{id} [delete]
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteSource(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("delete source failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDraft handles DELETE /api/sources/{id}/drafts/{title}.
//
//	@Summary		Delete one draft from a source
//	@Tags			sources
//	@Param			id		path	string	true	"Source id"
//	@Param			title	path	string	true	"Draft title"
//	@Success		204		"Draft deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sources/{id}/drafts/{title} [delete]
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	title := draftTitle(r)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	if err := h.svc.DeleteDraft(r.Context(), id, title); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("delete draft failed", slog.String("id", id), slog.String("title", title), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across drafts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
