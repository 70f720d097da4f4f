package model

import "time"

// AnonymousRater is stored when a rating arrives without a client identifier.
const AnonymousRater = "anonymous"

// Rating is one rater's score for one tool. (ToolID, RaterID) is unique:
// rating the same tool again replaces the previous score.
type Rating struct {
	ID        string    `json:"id"`
	ToolID    string    `json:"toolId"`
	RaterID   string    `json:"-"` // client IP; never echoed back
	Rating    int       `json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RatingSummary is a tool's aggregate after a rating is folded in.
type RatingSummary struct {
	ToolID       string  `json:"toolId"`
	AvgRating    float64 `json:"avgRating"`
	TotalRatings int     `json:"totalRatings"`
	Rating       int     `json:"rating"` // the caller's own score
}
