// Package repository declares the storage contracts the services depend on.
//
// Every backend (sqlite, postgres, disabled) implements Store. Services
// receive the narrow interface they need, never a concrete backend.
package repository

import (
	"context"
	"strings"

	"github.com/sakif/wellness-directory/internal/model"
)

// ToolFilter narrows a public listing. Zero values mean "no constraint";
// an empty Sort means SortRating.
type ToolFilter struct {
	Category model.Category
	Search   string
	Sort     model.ToolSort
}

// ToolRepository reads approved tools and bumps their counters.
type ToolRepository interface {
	ListApprovedTools(ctx context.Context, filter ToolFilter) ([]model.Tool, error)
	GetApprovedTool(ctx context.Context, id string) (*model.Tool, error)
	IncrementToolCounter(ctx context.Context, id string, counter model.Counter) error
	CountToolsByCategory(ctx context.Context) (map[model.Category]int, error)
}

// SubmissionRepository stores submissions and performs review transitions.
//
// ApproveSubmission and RejectSubmission are single atomic transitions out
// of the pending state. They return apperror.ErrNotFound for an unknown id
// and apperror.ErrConflict when the submission was already reviewed; in
// neither case is anything written.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission *model.Submission) error
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
	ListPendingSubmissions(ctx context.Context) ([]model.Submission, error)
	ApproveSubmission(ctx context.Context, id string) (*model.Tool, error)
	RejectSubmission(ctx context.Context, id string) (*model.Submission, error)
}

// RatingRepository upserts ratings and keeps tool aggregates in step.
//
// UpsertRating replaces any earlier rating by the same rater for the same
// tool and recomputes the tool's average and count from every rating, all
// in one transaction. Unknown or unapproved tools yield apperror.ErrNotFound.
type RatingRepository interface {
	UpsertRating(ctx context.Context, rating *model.Rating) (*model.RatingSummary, error)
	ListRatings(ctx context.Context, toolID string) ([]model.Rating, error)
}

// Store is the full storage surface owned by the server.
type Store interface {
	ToolRepository
	SubmissionRepository
	RatingRepository
	Ping(ctx context.Context) error
	Close() error
}

// LikePattern turns a free-text search into a case-folded SQL LIKE pattern
// matching it as a substring. LIKE wildcards in the input are escaped with
// a backslash, so queries must declare ESCAPE '\'.
func LikePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(search)) + "%"
}
