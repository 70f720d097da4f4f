package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/ratelimit"
	"github.com/sakif/wellness-directory/internal/repository"
	"github.com/sakif/wellness-directory/internal/validation"
)

// SubmissionService accepts new tool proposals from the public.
type SubmissionService struct {
	repo      repository.SubmissionRepository
	limiter   ratelimit.Limiter
	validator *validation.Validator
	logger    *slog.Logger
	timeout   storeTimeout
}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService(
	repo repository.SubmissionRepository,
	limiter ratelimit.Limiter,
	v *validation.Validator,
	logger *slog.Logger,
	timeout time.Duration,
) *SubmissionService {
	return &SubmissionService{
		repo:      repo,
		limiter:   limiter,
		validator: v,
		logger:    logger,
		timeout:   newStoreTimeout(timeout),
	}
}

// Submit rate-limits, validates, sanitizes and stores a proposal. Nothing is
// written unless every check passes. The stored submission is pending and
// stays out of the public listing until a moderator approves it.
func (s *SubmissionService) Submit(ctx context.Context, in model.SubmissionInput, clientID string) (*model.Submission, error) {
	if clientID == "" {
		clientID = ratelimit.UnknownClient
	}

	allowed, err := s.limiter.Allow(ctx, clientID)
	if err != nil {
		// An unreachable limiter store must not take submissions down with it.
		s.logger.Warn("rate limiter unavailable, allowing submission",
			slog.String("client", clientID),
			slog.String("error", err.Error()),
		)
		allowed = true
	}
	if !allowed {
		return nil, apperror.RateLimited("Please wait a few minutes before submitting again")
	}

	if res := s.validator.Validate(in); !res.Valid {
		return nil, apperror.ValidationErrors(res.Errors)
	}

	// Stripping markup can shrink a field below its minimum ("<b></b>abc"),
	// so the cleaned values are checked again.
	clean := s.validator.Sanitize(in)
	if res := s.validator.Validate(clean); !res.Valid {
		return nil, apperror.ValidationErrors(res.Errors)
	}

	sub := &model.Submission{
		Title:             clean.Title,
		URL:               clean.URL,
		Category:          model.Category(clean.Category),
		Description:       clean.Description,
		CreatorName:       clean.CreatorName,
		CreatorLink:       clean.CreatorLink,
		CreatorBackground: clean.CreatorBackground,
		ThumbnailURL:      clean.ThumbnailURL,
		SubmitterIP:       clientID,
	}

	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		s.logger.Error("failed to create submission",
			slog.String("title", sub.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating submission: %w", err)
	}

	s.logger.Info("submission created",
		slog.String("id", sub.ID),
		slog.String("category", string(sub.Category)),
	)
	return sub, nil
}
