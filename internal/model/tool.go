// Package model defines the data structures used throughout the application.
package model

import "time"

// Tool is an approved, publicly listed external resource.
//
// Tools are never created directly by users. The review workflow copies the
// descriptive fields of an approved Submission into a new Tool with zeroed
// counters, and SubmissionID records where it came from.
type Tool struct {
	ID                string    `json:"id"`
	SubmissionID      string    `json:"submissionId,omitempty"`
	Title             string    `json:"title"`
	URL               string    `json:"url"`
	Category          Category  `json:"category"`
	Description       string    `json:"description"`
	CreatorName       string    `json:"creatorName"`
	CreatorLink       string    `json:"creatorLink,omitempty"`
	CreatorBackground string    `json:"creatorBackground,omitempty"`
	ThumbnailURL      string    `json:"thumbnailUrl,omitempty"`
	AvgRating         float64   `json:"avgRating"`    // mean of all current ratings, 0 when unrated
	TotalRatings      int       `json:"totalRatings"` // one per distinct rater
	ViewCount         int64     `json:"viewCount"`
	ClickCount        int64     `json:"clickCount"`
	Approved          bool      `json:"approved"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ToolSort selects the ordering of a public listing.
type ToolSort string

const (
	SortRating  ToolSort = "rating"  // highest average first
	SortNewest  ToolSort = "newest"  // most recently approved first
	SortPopular ToolSort = "popular" // most ratings first
)

// Valid reports whether s is one of the known orderings.
func (s ToolSort) Valid() bool {
	switch s {
	case SortRating, SortNewest, SortPopular:
		return true
	}
	return false
}

// Counter names one of the monotonic engagement counters on a Tool.
type Counter string

const (
	CounterView  Counter = "view"
	CounterClick Counter = "click"
)

// Column returns the storage column backing the counter.
func (c Counter) Column() (string, bool) {
	switch c {
	case CounterView:
		return "view_count", true
	case CounterClick:
		return "click_count", true
	}
	return "", false
}
