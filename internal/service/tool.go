package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/repository"
)

// ToolService serves the public, read-only side of the directory.
type ToolService struct {
	repo    repository.ToolRepository
	logger  *slog.Logger
	timeout storeTimeout
}

// NewToolService creates a ToolService.
func NewToolService(repo repository.ToolRepository, logger *slog.Logger, timeout time.Duration) *ToolService {
	return &ToolService{
		repo:    repo,
		logger:  logger,
		timeout: newStoreTimeout(timeout),
	}
}

// List returns approved tools. Empty parameters mean no constraint; an
// unrecognised category or sort is a validation error rather than being
// silently ignored.
func (s *ToolService) List(ctx context.Context, category, search, sort string) ([]model.Tool, error) {
	filter := repository.ToolFilter{
		Category: model.Category(strings.TrimSpace(category)),
		Search:   strings.TrimSpace(search),
		Sort:     model.ToolSort(strings.TrimSpace(sort)),
	}

	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperror.ValidationFailed("category", "Invalid category")
	}
	if filter.Sort == "" {
		filter.Sort = model.SortRating
	}
	if !filter.Sort.Valid() {
		return nil, apperror.ValidationFailed("sort", "Sort must be one of rating, newest, popular")
	}

	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	tools, err := s.repo.ListApprovedTools(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list tools", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	return tools, nil
}

// Get returns one approved tool.
func (s *ToolService) Get(ctx context.Context, id string) (*model.Tool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "tool ID is required")
	}

	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	return s.repo.GetApprovedTool(ctx, id)
}

// Categories returns every category in display order with its number of
// approved tools.
func (s *ToolService) Categories(ctx context.Context) ([]model.CategoryInfo, error) {
	ctx, cancel := s.timeout.with(ctx)
	defer cancel()

	counts, err := s.repo.CountToolsByCategory(ctx)
	if err != nil {
		s.logger.Error("failed to count tools by category", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting tools by category: %w", err)
	}

	out := make([]model.CategoryInfo, len(model.Categories))
	for i, c := range model.Categories {
		c.Count = counts[c.ID]
		out[i] = c
	}
	return out, nil
}
