package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/ratelimit"
	"github.com/sakif/wellness-directory/internal/repository"
	"github.com/sakif/wellness-directory/internal/validation"
)

const (
	MinRating       = 1
	MaxRating       = 5
	MaxReviewLength = 2000
)

// RatingService records ratings and engagement events for approved tools.
type RatingService struct {
	ratings   repository.RatingRepository
	tools     repository.ToolRepository
	validator *validation.Validator
	logger    *slog.Logger
	timeout   storeTimeout
}

// NewRatingService creates a RatingService.
func NewRatingService(
	ratings repository.RatingRepository,
	tools repository.ToolRepository,
	v *validation.Validator,
	logger *slog.Logger,
	timeout time.Duration,
) *RatingService {
	return &RatingService{
		ratings:   ratings,
		tools:     tools,
		validator: v,
		logger:    logger,
		timeout:   newStoreTimeout(timeout),
	}
}

// Rate stores raterID's score for a tool, replacing any earlier one, and
// returns the tool's recomputed aggregate.
func (s *RatingService) Rate(ctx context.Context, toolID string, rating int, review, raterID string) (*model.RatingSummary, error) {
	toolID = strings.TrimSpace(toolID)
	if toolID == "" {
		return nil, apperror.ValidationFailed("toolId", "tool ID is required")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, apperror.ValidationFailed("rating",
			fmt.Sprintf("Rating must be between %d and %d", MinRating, MaxRating))
	}

	review = s.validator.SanitizeText(review)
	if utf8.RuneCountInString(review) > MaxReviewLength {
		return nil, apperror.ValidationFailed("review",
			fmt.Sprintf("Review must be %d characters or less", MaxReviewLength))
	}

	if raterID == "" || raterID == ratelimit.UnknownClient {
		raterID = model.AnonymousRater
	}

	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	sum, err := s.ratings.UpsertRating(ctx, &model.Rating{
		ToolID:  toolID,
		RaterID: raterID,
		Rating:  rating,
		Review:  review,
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		s.logger.Error("failed to rate tool",
			slog.String("tool_id", toolID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("rating tool %s: %w", toolID, err)
	}

	s.logger.Info("tool rated",
		slog.String("tool_id", toolID),
		slog.Int("rating", rating),
		slog.Float64("avg_rating", sum.AvgRating),
	)
	return sum, nil
}

// ListRatings returns an approved tool's ratings, most recently updated
// first. Rater identities are never exposed.
func (s *RatingService) ListRatings(ctx context.Context, toolID string) ([]model.Rating, error) {
	toolID = strings.TrimSpace(toolID)
	if toolID == "" {
		return nil, apperror.ValidationFailed("toolId", "tool ID is required")
	}

	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	_, err := s.tools.GetApprovedTool(ctx, toolID)
	var ratings []model.Rating
	if err == nil {
		ratings, err = s.ratings.ListRatings(ctx, toolID)
	}
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		s.logger.Error("failed to list ratings",
			slog.String("tool_id", toolID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing ratings for tool %s: %w", toolID, err)
	}
	return ratings, nil
}

// Track bumps the view or click counter of a tool. Any other action is
// accepted and ignored, but the tool must still exist.
func (s *RatingService) Track(ctx context.Context, toolID, action string) error {
	toolID = strings.TrimSpace(toolID)
	if toolID == "" {
		return apperror.ValidationFailed("toolId", "tool ID is required")
	}

	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	counter := model.Counter(strings.ToLower(strings.TrimSpace(action)))
	if _, ok := counter.Column(); !ok {
		_, err := s.tools.GetApprovedTool(ctx, toolID)
		return err
	}

	if err := s.tools.IncrementToolCounter(ctx, toolID, counter); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		s.logger.Error("failed to track event",
			slog.String("tool_id", toolID),
			slog.String("action", string(counter)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("tracking %s for tool %s: %w", counter, toolID, err)
	}
	return nil
}
