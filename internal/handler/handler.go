package handler

import (
	"context"

	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/service"
)

// The interfaces below are the slices of the service layer each handler
// needs. The concrete services in internal/service satisfy them.

type Submitter interface {
	Submit(ctx context.Context, in model.SubmissionInput, clientID string) (*model.Submission, error)
}

type ToolReader interface {
	List(ctx context.Context, category, search, sort string) ([]model.Tool, error)
	Get(ctx context.Context, id string) (*model.Tool, error)
	Categories(ctx context.Context) ([]model.CategoryInfo, error)
}

type Rater interface {
	Rate(ctx context.Context, toolID string, rating int, review, raterID string) (*model.RatingSummary, error)
	Track(ctx context.Context, toolID, action string) error
	ListRatings(ctx context.Context, toolID string) ([]model.Rating, error)
}

type Reviewer interface {
	ListPending(ctx context.Context) ([]model.Submission, error)
	Get(ctx context.Context, id string) (*model.Submission, error)
	Approve(ctx context.Context, id string) (*model.Tool, error)
	Reject(ctx context.Context, id string) (*model.Submission, error)
}

type SessionIssuer interface {
	Login(ctx context.Context, password string) (*service.Session, error)
	Configured() bool
}

var (
	_ Submitter     = (*service.SubmissionService)(nil)
	_ ToolReader    = (*service.ToolService)(nil)
	_ Rater         = (*service.RatingService)(nil)
	_ Reviewer      = (*service.ReviewService)(nil)
	_ SessionIssuer = (*service.AuthService)(nil)
)
