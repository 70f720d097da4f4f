package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/repository"
)

// ReviewService is the moderator's view of the submission queue. Callers
// must have authorized the moderator before reaching it.
type ReviewService struct {
	repo    repository.SubmissionRepository
	logger  *slog.Logger
	timeout storeTimeout
}

// NewReviewService creates a ReviewService.
func NewReviewService(repo repository.SubmissionRepository, logger *slog.Logger, timeout time.Duration) *ReviewService {
	return &ReviewService{
		repo:    repo,
		logger:  logger,
		timeout: newStoreTimeout(timeout),
	}
}

// ListPending returns unreviewed submissions, newest first.
func (s *ReviewService) ListPending(ctx context.Context) ([]model.Submission, error) {
	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	subs, err := s.repo.ListPendingSubmissions(ctx)
	if err != nil {
		s.logger.Error("failed to list pending submissions", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing pending submissions: %w", err)
	}
	return subs, nil
}

// Get returns one submission in any state.
func (s *ReviewService) Get(ctx context.Context, id string) (*model.Submission, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "submission ID is required")
	}

	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	sub, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		return nil, s.reviewError("get", id, err)
	}
	return sub, nil
}

// Approve publishes a pending submission as a new tool.
func (s *ReviewService) Approve(ctx context.Context, id string) (*model.Tool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "submission ID is required")
	}

	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	tool, err := s.repo.ApproveSubmission(ctx, id)
	if err != nil {
		return nil, s.reviewError("approve", id, err)
	}

	s.logger.Info("submission approved",
		slog.String("submission_id", id),
		slog.String("tool_id", tool.ID),
	)
	return tool, nil
}

// Reject closes a pending submission without publishing it.
func (s *ReviewService) Reject(ctx context.Context, id string) (*model.Submission, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "submission ID is required")
	}

	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	sub, err := s.repo.RejectSubmission(ctx, id)
	if err != nil {
		return nil, s.reviewError("reject", id, err)
	}

	s.logger.Info("submission rejected", slog.String("submission_id", id))
	return sub, nil
}

// reviewError passes domain errors through and logs everything else.
func (s *ReviewService) reviewError(op, id string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	s.logger.Error("failed to "+op+" submission",
		slog.String("submission_id", id),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s submission %s: %w", op, id, err)
}
