package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
)

func newTestToolService(t *testing.T) (*ToolService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewToolService(store, newTestLogger(t), 0), store
}

func TestToolList_Filter(t *testing.T) {
	svc, store := newTestToolService(t)
	store.addTool("a", model.CategoryAnxiety)
	store.addTool("b", model.CategoryMood)

	tools, err := svc.List(context.Background(), " anxiety ", "  breath ", "")
	require.NoError(t, err)

	assert.Len(t, tools, 1)
	assert.Equal(t, model.CategoryAnxiety, store.lastFilter.Category)
	assert.Equal(t, "breath", store.lastFilter.Search)
	assert.Equal(t, model.SortRating, store.lastFilter.Sort, "empty sort defaults to rating")
}

func TestToolList_RejectsUnknownParameters(t *testing.T) {
	svc, _ := newTestToolService(t)

	_, err := svc.List(context.Background(), "astrology", "", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.List(context.Background(), "", "", "alphabetical")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestToolGet(t *testing.T) {
	svc, store := newTestToolService(t)
	tool := store.addTool("a", model.CategoryAnxiety)

	got, err := svc.Get(context.Background(), tool.ID)
	require.NoError(t, err)
	assert.Equal(t, tool.Title, got.Title)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestToolCategories(t *testing.T) {
	svc, store := newTestToolService(t)
	store.addTool("a", model.CategoryAnxiety)
	store.addTool("b", model.CategoryAnxiety)
	store.addTool("c", model.CategoryGrowth)

	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)

	require.Len(t, cats, len(model.Categories))
	byID := map[model.Category]int{}
	for _, c := range cats {
		byID[c.ID] = c.Count
	}
	assert.Equal(t, 2, byID[model.CategoryAnxiety])
	assert.Equal(t, 1, byID[model.CategoryGrowth])
	assert.Equal(t, 0, byID[model.CategoryMood])
	assert.Equal(t, 0, model.Categories[0].Count, "shared catalogue must not be mutated")
}

func TestToolCategories_StorageFailure(t *testing.T) {
	svc, store := newTestToolService(t)
	store.err = errors.New("timeout")

	_, err := svc.Categories(context.Background())
	assert.Error(t, err)
}
