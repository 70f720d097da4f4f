package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/repository"
)

// fakeStore is an in-memory stand-in for the storage layer. err, when set,
// is returned by every method so failure paths can be exercised.
type fakeStore struct {
	submissions map[string]*model.Submission
	tools       map[string]*model.Tool
	ratings     map[string]map[string]int // toolID → raterID → score
	nextID      int
	err         error

	lastFilter repository.ToolFilter
	lastRating *model.Rating
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		submissions: make(map[string]*model.Submission),
		tools:       make(map[string]*model.Tool),
		ratings:     make(map[string]map[string]int),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) addTool(title string, cat model.Category) *model.Tool {
	t := &model.Tool{ID: f.id("tool"), Title: title, Category: cat, Approved: true}
	f.tools[t.ID] = t
	return t
}

func (f *fakeStore) CreateSubmission(_ context.Context, s *model.Submission) error {
	if f.err != nil {
		return f.err
	}
	s.ID = f.id("sub")
	stored := *s
	f.submissions[s.ID] = &stored
	return nil
}

func (f *fakeStore) GetSubmission(_ context.Context, id string) (*model.Submission, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.submissions[id]
	if !ok {
		return nil, apperror.NotFound("submission", id)
	}
	out := *s
	return &out, nil
}

func (f *fakeStore) ListPendingSubmissions(context.Context) ([]model.Submission, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Submission{}
	for _, s := range f.submissions {
		if !s.Reviewed {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) review(id string, approve bool) (*model.Submission, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.submissions[id]
	if !ok {
		return nil, apperror.NotFound("submission", id)
	}
	if s.Reviewed {
		return nil, apperror.Conflict("submission " + id + " has already been reviewed")
	}
	s.Reviewed, s.Approved = true, approve
	return s, nil
}

func (f *fakeStore) ApproveSubmission(_ context.Context, id string) (*model.Tool, error) {
	s, err := f.review(id, true)
	if err != nil {
		return nil, err
	}
	t := model.NewToolFromSubmission(s)
	t.ID = f.id("tool")
	f.tools[t.ID] = t
	return t, nil
}

func (f *fakeStore) RejectSubmission(_ context.Context, id string) (*model.Submission, error) {
	s, err := f.review(id, false)
	if err != nil {
		return nil, err
	}
	out := *s
	return &out, nil
}

func (f *fakeStore) ListApprovedTools(_ context.Context, filter repository.ToolFilter) ([]model.Tool, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Tool{}
	for _, t := range f.tools {
		if t.Approved && (filter.Category == "" || t.Category == filter.Category) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) GetApprovedTool(_ context.Context, id string) (*model.Tool, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tools[id]
	if !ok || !t.Approved {
		return nil, apperror.NotFound("tool", id)
	}
	out := *t
	return &out, nil
}

func (f *fakeStore) IncrementToolCounter(_ context.Context, id string, c model.Counter) error {
	if f.err != nil {
		return f.err
	}
	t, ok := f.tools[id]
	if !ok {
		return apperror.NotFound("tool", id)
	}
	switch c {
	case model.CounterView:
		t.ViewCount++
	case model.CounterClick:
		t.ClickCount++
	}
	return nil
}

func (f *fakeStore) CountToolsByCategory(context.Context) (map[model.Category]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	counts := map[model.Category]int{}
	for _, t := range f.tools {
		if t.Approved {
			counts[t.Category]++
		}
	}
	return counts, nil
}

func (f *fakeStore) UpsertRating(_ context.Context, r *model.Rating) (*model.RatingSummary, error) {
	f.lastRating = r
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tools[r.ToolID]
	if !ok {
		return nil, apperror.NotFound("tool", r.ToolID)
	}
	if f.ratings[r.ToolID] == nil {
		f.ratings[r.ToolID] = map[string]int{}
	}
	f.ratings[r.ToolID][r.RaterID] = r.Rating

	sum := 0
	for _, v := range f.ratings[r.ToolID] {
		sum += v
	}
	t.TotalRatings = len(f.ratings[r.ToolID])
	t.AvgRating = float64(sum) / float64(t.TotalRatings)

	return &model.RatingSummary{ToolID: t.ID, AvgRating: t.AvgRating, TotalRatings: t.TotalRatings, Rating: r.Rating}, nil
}

func (f *fakeStore) ListRatings(_ context.Context, toolID string) ([]model.Rating, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Rating{}
	for rater, score := range f.ratings[toolID] {
		out = append(out, model.Rating{ToolID: toolID, RaterID: rater, Rating: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RaterID < out[j].RaterID })
	return out, nil
}

// fakeLimiter returns a fixed answer and counts calls.
type fakeLimiter struct {
	allow bool
	err   error
	calls []string
}

func (l *fakeLimiter) Allow(_ context.Context, clientID string) (bool, error) {
	l.calls = append(l.calls, clientID)
	return l.allow, l.err
}

func newTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
