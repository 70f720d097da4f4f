package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/wellness-directory/internal/model"
)

// AdminHandler serves the moderation API. Every route except HandleLogin
// sits behind auth.RequireModerator.
type AdminHandler struct {
	sessions SessionIssuer
	reviews  Reviewer
	logger   *slog.Logger
}

func NewAdminHandler(sessions SessionIssuer, reviews Reviewer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{sessions: sessions, reviews: reviews, logger: logger}
}

type loginRequest struct {
	Password string `json:"password"`
}

type pendingResponse struct {
	Submissions []model.Submission `json:"submissions"`
	Count       int                `json:"count"`
}

// HandleLogin handles POST /api/admin/session.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logRejectedBody(h.logger, r, err)
		writeError(w, err)
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// HandleListPending handles GET /api/admin/submissions.
func (h *AdminHandler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	subs, err := h.reviews.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pendingResponse{Submissions: subs, Count: len(subs)})
}

// HandleGetSubmission handles GET /api/admin/submissions/{id}.
func (h *AdminHandler) HandleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Submission{"submission": sub})
}

// HandleApprove handles POST /api/admin/submissions/{id}/approve.
func (h *AdminHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	tool, err := h.reviews.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Tool{"tool": tool})
}

// HandleReject handles POST /api/admin/submissions/{id}/reject.
func (h *AdminHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	sub, err := h.reviews.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Submission{"submission": sub})
}
