package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Generation.
	r.Post("/generate", h.Generate)
	r.Get("/jobs/{id}", h.GetJob)

	// Sources and drafts.
	r.Get("/sources", h.ListSources)
	r.Get("/sources/{id}", h.GetSource)
	r.Get("/sources/{id}/transcript", h.GetTranscript)
	r.Delete("/sources/{id}", h.DeleteSource)
	r.Delete("/sources/{id}/drafts/{title}", h.DeleteDraft)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
