// Package disabled provides a Store used when no persistence is configured.
//
// Reads succeed with empty results so the public pages still render; every
// write fails with apperror.ErrMisconfigured.
package disabled

import (
	"context"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/repository"
)

var _ repository.Store = Store{}

const reason = "persistence is not configured"

// Store is the soft-disabled storage backend.
type Store struct{}

func (Store) ListApprovedTools(context.Context, repository.ToolFilter) ([]model.Tool, error) {
	return []model.Tool{}, nil
}

func (Store) GetApprovedTool(_ context.Context, id string) (*model.Tool, error) {
	return nil, apperror.NotFound("tool", id)
}

func (Store) IncrementToolCounter(context.Context, string, model.Counter) error {
	return apperror.Misconfigured(reason)
}

func (Store) CountToolsByCategory(context.Context) (map[model.Category]int, error) {
	return map[model.Category]int{}, nil
}

func (Store) CreateSubmission(context.Context, *model.Submission) error {
	return apperror.Misconfigured(reason)
}

func (Store) GetSubmission(_ context.Context, id string) (*model.Submission, error) {
	return nil, apperror.NotFound("submission", id)
}

func (Store) ListPendingSubmissions(context.Context) ([]model.Submission, error) {
	return []model.Submission{}, nil
}

func (Store) ApproveSubmission(context.Context, string) (*model.Tool, error) {
	return nil, apperror.Misconfigured(reason)
}

func (Store) RejectSubmission(context.Context, string) (*model.Submission, error) {
	return nil, apperror.Misconfigured(reason)
}

func (Store) UpsertRating(context.Context, *model.Rating) (*model.RatingSummary, error) {
	return nil, apperror.Misconfigured(reason)
}

func (Store) ListRatings(context.Context, string) ([]model.Rating, error) {
	return []model.Rating{}, nil
}

// Ping reports the store as unavailable so health checks show it.
func (Store) Ping(context.Context) error {
	return apperror.Misconfigured(reason)
}

func (Store) Close() error { return nil }
