package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/ratelimit"
)

// ToolHandler serves the public directory: listing, detail, ratings and
// engagement events.
type ToolHandler struct {
	tools   ToolReader
	ratings Rater
	logger  *slog.Logger
}

func NewToolHandler(tools ToolReader, ratings Rater, logger *slog.Logger) *ToolHandler {
	return &ToolHandler{tools: tools, ratings: ratings, logger: logger}
}

type toolListResponse struct {
	Tools []model.Tool `json:"tools"`
	Count int          `json:"count"`
}

type ratingListResponse struct {
	Ratings []model.Rating `json:"ratings"`
	Count   int            `json:"count"`
}

type rateRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

type eventRequest struct {
	Action string `json:"action"`
}

// HandleList handles GET /api/tools?category=&search=&sort=.
func (h *ToolHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tools, err := h.tools.List(r.Context(), q.Get("category"), q.Get("search"), q.Get("sort"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toolListResponse{Tools: tools, Count: len(tools)})
}

// HandleGet handles GET /api/tools/{id}.
func (h *ToolHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tool, err := h.tools.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Tool{"tool": tool})
}

// HandleCategories handles GET /api/categories.
func (h *ToolHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.tools.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.CategoryInfo{"categories": cats})
}

// HandleRate handles POST /api/tools/{id}/ratings. The rater is identified
// by client address, so one client holds one rating per tool.
func (h *ToolHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logRejectedBody(h.logger, r, err)
		writeError(w, err)
		return
	}

	sum, err := h.ratings.Rate(r.Context(), chi.URLParam(r, "id"), req.Rating, req.Review, ratelimit.ClientID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.RatingSummary{"summary": sum})
}

// HandleListRatings handles GET /api/tools/{id}/ratings.
func (h *ToolHandler) HandleListRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.ratings.ListRatings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratingListResponse{Ratings: ratings, Count: len(ratings)})
}

// HandleEvent handles POST /api/tools/{id}/events.
func (h *ToolHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logRejectedBody(h.logger, r, err)
		writeError(w, err)
		return
	}

	if err := h.ratings.Track(r.Context(), chi.URLParam(r, "id"), req.Action); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
