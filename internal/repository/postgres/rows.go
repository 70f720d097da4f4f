package postgres

import (
	"time"

	"github.com/sakif/wellness-directory/internal/model"
)

// Row types carry the gorm tags so the domain model stays free of storage
// concerns.

type submissionRow struct {
	ID                string `gorm:"primaryKey;size:20"`
	Title             string `gorm:"size:255;not null"`
	URL               string `gorm:"not null"`
	Category          string `gorm:"size:32;not null"`
	Description       string `gorm:"type:text;not null"`
	CreatorName       string `gorm:"size:255;not null"`
	CreatorLink       string
	CreatorBackground string `gorm:"type:text"`
	ThumbnailURL      string
	SubmitterIP       string    `gorm:"size:64"`
	Reviewed          bool      `gorm:"not null;default:false;index:idx_submissions_pending,priority:1"`
	Approved          bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"index:idx_submissions_pending,priority:2"`
	ReviewedAt        *time.Time
}

func (submissionRow) TableName() string { return "submissions" }

type toolRow struct {
	ID                string  `gorm:"primaryKey;size:20"`
	SubmissionID      *string `gorm:"size:20;uniqueIndex"`
	Title             string  `gorm:"size:255;not null"`
	URL               string  `gorm:"not null"`
	Category          string  `gorm:"size:32;not null;index:idx_tools_approved_category,priority:2"`
	Description       string  `gorm:"type:text;not null"`
	CreatorName       string  `gorm:"size:255;not null"`
	CreatorLink       string
	CreatorBackground string `gorm:"type:text"`
	ThumbnailURL      string
	AvgRating         float64 `gorm:"not null;default:0"`
	TotalRatings      int     `gorm:"not null;default:0"`
	ViewCount         int64   `gorm:"not null;default:0"`
	ClickCount        int64   `gorm:"not null;default:0"`
	Approved          bool    `gorm:"not null;default:false;index:idx_tools_approved_category,priority:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (toolRow) TableName() string { return "tools" }

type ratingRow struct {
	ID        string `gorm:"primaryKey;size:20"`
	ToolID    string `gorm:"size:20;not null;uniqueIndex:idx_ratings_tool_rater,priority:1"`
	RaterID   string `gorm:"size:64;not null;uniqueIndex:idx_ratings_tool_rater,priority:2"`
	Rating    int    `gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Review    string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ratingRow) TableName() string { return "ratings" }

func submissionFromRow(r *submissionRow) *model.Submission {
	return &model.Submission{
		ID:                r.ID,
		Title:             r.Title,
		URL:               r.URL,
		Category:          model.Category(r.Category),
		Description:       r.Description,
		CreatorName:       r.CreatorName,
		CreatorLink:       r.CreatorLink,
		CreatorBackground: r.CreatorBackground,
		ThumbnailURL:      r.ThumbnailURL,
		SubmitterIP:       r.SubmitterIP,
		Reviewed:          r.Reviewed,
		Approved:          r.Approved,
		CreatedAt:         r.CreatedAt,
		ReviewedAt:        r.ReviewedAt,
	}
}

func toolFromRow(r *toolRow) *model.Tool {
	t := &model.Tool{
		ID:                r.ID,
		Title:             r.Title,
		URL:               r.URL,
		Category:          model.Category(r.Category),
		Description:       r.Description,
		CreatorName:       r.CreatorName,
		CreatorLink:       r.CreatorLink,
		CreatorBackground: r.CreatorBackground,
		ThumbnailURL:      r.ThumbnailURL,
		AvgRating:         r.AvgRating,
		TotalRatings:      r.TotalRatings,
		ViewCount:         r.ViewCount,
		ClickCount:        r.ClickCount,
		Approved:          r.Approved,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.SubmissionID != nil {
		t.SubmissionID = *r.SubmissionID
	}
	return t
}

func toolToRow(t *model.Tool) *toolRow {
	r := &toolRow{
		ID:                t.ID,
		Title:             t.Title,
		URL:               t.URL,
		Category:          string(t.Category),
		Description:       t.Description,
		CreatorName:       t.CreatorName,
		CreatorLink:       t.CreatorLink,
		CreatorBackground: t.CreatorBackground,
		ThumbnailURL:      t.ThumbnailURL,
		AvgRating:         t.AvgRating,
		TotalRatings:      t.TotalRatings,
		ViewCount:         t.ViewCount,
		ClickCount:        t.ClickCount,
		Approved:          t.Approved,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if t.SubmissionID != "" {
		id := t.SubmissionID
		r.SubmissionID = &id
	}
	return r
}

func ratingFromRow(r *ratingRow) model.Rating {
	return model.Rating{
		ID:        r.ID,
		ToolID:    r.ToolID,
		RaterID:   r.RaterID,
		Rating:    r.Rating,
		Review:    r.Review,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
