package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wellness-directory/internal/model"
)

func TestToolRowRoundTrip_SubmissionID(t *testing.T) {
	tool := &model.Tool{ID: "t1", Title: "Calm", Category: model.CategoryMood, Approved: true}

	row := toolToRow(tool)
	assert.Nil(t, row.SubmissionID, "empty submission id must be stored as NULL")

	tool.SubmissionID = "s1"
	row = toolToRow(tool)
	require.NotNil(t, row.SubmissionID)
	assert.Equal(t, "s1", *row.SubmissionID)

	back := toolFromRow(row)
	assert.Equal(t, tool, back)
}

func TestSubmissionFromRow(t *testing.T) {
	reviewed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := &submissionRow{
		ID:         "s1",
		Category:   "anxiety",
		Reviewed:   true,
		Approved:   false,
		ReviewedAt: &reviewed,
	}

	s := submissionFromRow(row)

	assert.Equal(t, model.CategoryAnxiety, s.Category)
	assert.Equal(t, model.StateRejected, s.State())
	assert.Equal(t, &reviewed, s.ReviewedAt)
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "avg_rating DESC, created_at DESC, id DESC", orderBy(""))
	assert.Equal(t, "avg_rating DESC, created_at DESC, id DESC", orderBy(model.SortRating))
	assert.Equal(t, "created_at DESC, id DESC", orderBy(model.SortNewest))
	assert.Equal(t, "total_ratings DESC, created_at DESC, id DESC", orderBy(model.SortPopular))
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "submissions", submissionRow{}.TableName())
	assert.Equal(t, "tools", toolRow{}.TableName())
	assert.Equal(t, "ratings", ratingRow{}.TableName())
}
