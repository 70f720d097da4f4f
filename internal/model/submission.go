package model

import "time"

// SubmissionInput is the user-supplied part of a submission, before
// validation and sanitization. The validate tags are interpreted by
// internal/validation; "category" and "image_url" are rules registered there.
type SubmissionInput struct {
	Title             string `json:"title"                       validate:"min=3,max=255"`
	URL               string `json:"url"                         validate:"url"`
	Category          string `json:"category"                    validate:"category"`
	Description       string `json:"description"                 validate:"min=10,max=2000"`
	CreatorName       string `json:"creatorName"                 validate:"min=2,max=255"`
	CreatorLink       string `json:"creatorLink,omitempty"       validate:"omitempty,url"`
	CreatorBackground string `json:"creatorBackground,omitempty" validate:"omitempty,max=2000"`
	ThumbnailURL      string `json:"thumbnailUrl,omitempty"      validate:"omitempty,image_url"`
}

// Submission is a user-proposed Tool awaiting moderation.
//
// Reviewed flips from false to true exactly once. Approved is only ever true
// when Reviewed is true, and is final after the review.
type Submission struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	URL               string     `json:"url"`
	Category          Category   `json:"category"`
	Description       string     `json:"description"`
	CreatorName       string     `json:"creatorName"`
	CreatorLink       string     `json:"creatorLink,omitempty"`
	CreatorBackground string     `json:"creatorBackground,omitempty"`
	ThumbnailURL      string     `json:"thumbnailUrl,omitempty"`
	SubmitterIP       string     `json:"submitterIp,omitempty"`
	Reviewed          bool       `json:"reviewed"`
	Approved          bool       `json:"approved"`
	CreatedAt         time.Time  `json:"createdAt"`
	ReviewedAt        *time.Time `json:"reviewedAt,omitempty"`
}

// SubmissionState is the moderation state derived from Reviewed/Approved.
type SubmissionState string

const (
	StatePending  SubmissionState = "pending"
	StateApproved SubmissionState = "approved"
	StateRejected SubmissionState = "rejected"
)

// State returns the moderation state. Transitions only ever leave pending.
func (s *Submission) State() SubmissionState {
	switch {
	case !s.Reviewed:
		return StatePending
	case s.Approved:
		return StateApproved
	default:
		return StateRejected
	}
}

// NewToolFromSubmission copies the descriptive fields of an approved
// submission into a fresh Tool. Counters start at zero; ID and timestamps
// are left for the repository.
func NewToolFromSubmission(s *Submission) *Tool {
	return &Tool{
		SubmissionID:      s.ID,
		Title:             s.Title,
		URL:               s.URL,
		Category:          s.Category,
		Description:       s.Description,
		CreatorName:       s.CreatorName,
		CreatorLink:       s.CreatorLink,
		CreatorBackground: s.CreatorBackground,
		ThumbnailURL:      s.ThumbnailURL,
		Approved:          true,
	}
}
