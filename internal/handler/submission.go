package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/ratelimit"
)

// SubmissionHandler serves the public submission form endpoint.
type SubmissionHandler struct {
	svc    Submitter
	logger *slog.Logger
}

func NewSubmissionHandler(svc Submitter, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, logger: logger}
}

type submissionResponse struct {
	Submission *model.Submission `json:"submission"`
	Message    string            `json:"message"`
}

// HandleCreate handles POST /api/submissions.
func (h *SubmissionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.SubmissionInput
	if err := decodeJSON(w, r, &in); err != nil {
		logRejectedBody(h.logger, r, err)
		writeError(w, err)
		return
	}

	sub, err := h.svc.Submit(r.Context(), in, ratelimit.ClientID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submissionResponse{
		Submission: sub,
		Message:    "Thanks! Your submission will appear once a moderator approves it.",
	})
}
