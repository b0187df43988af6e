package models

import "time"

// Review statuses.
const (
	ReviewStatusAssigned   = "ASSIGNED"
	ReviewStatusInProgress = "IN_PROGRESS"
	ReviewStatusCompleted  = "COMPLETED"
	ReviewStatusExpired    = "EXPIRED"
)

// Accepted flag reasons.
const (
	FlagReasonLowEffort  = "low_effort"
	FlagReasonSpam       = "spam"
	FlagReasonOffensive  = "offensive"
	FlagReasonIrrelevant = "irrelevant"
)

// Review is one reviewer's (or peer artist's) assignment and outcome for a
// track. ReviewerID is set for push-assigned reviewers; PeerReviewerArtistID
// for peer claims. Exactly one of the two is non-null.
type Review struct {
	ReviewID               int        `gorm:"primaryKey;column:review_id" json:"review_id"`
	TrackID                int        `gorm:"column:track_id;uniqueIndex:idx_track_reviewer;uniqueIndex:idx_track_peer" json:"track_id"`
	ReviewerID             *int       `gorm:"column:reviewer_id;uniqueIndex:idx_track_reviewer" json:"reviewer_id,omitempty"`
	PeerReviewerArtistID   *int       `gorm:"column:peer_reviewer_artist_id;uniqueIndex:idx_track_peer" json:"peer_reviewer_artist_id,omitempty"`
	Status                 string     `gorm:"column:status" json:"status"`
	CountsTowardCompletion bool       `gorm:"column:counts_toward_completion" json:"counts_toward_completion"`
	CountsTowardAnalytics  bool       `gorm:"column:counts_toward_analytics" json:"counts_toward_analytics"`
	WasFlagged             bool       `gorm:"column:was_flagged" json:"was_flagged"`
	FlagReason             *string    `gorm:"column:flag_reason" json:"flag_reason,omitempty"`
	IsGem                  bool       `gorm:"column:is_gem" json:"is_gem"`
	ArtistRating           *int       `gorm:"column:artist_rating" json:"artist_rating,omitempty"`
	CompletedAt            *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreateAt               *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt               *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	Track    *Track `gorm:"foreignKey:TrackID" json:"track,omitempty"`
	Reviewer *User  `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

// IsActiveAssignment reports whether the review still holds a slot on its
// track.
func (r *Review) IsActiveAssignment() bool {
	return r.Status == ReviewStatusAssigned || r.Status == ReviewStatusInProgress
}

// CountsCompleted reports whether the review contributes to the track's
// completed total. Flagged reviews are excluded.
func (r *Review) CountsCompleted() bool {
	return r.Status == ReviewStatusCompleted && r.CountsTowardCompletion
}

// ValidFlagReason checks a caller-supplied flag reason.
func ValidFlagReason(reason string) bool {
	switch reason {
	case FlagReasonLowEffort, FlagReasonSpam, FlagReasonOffensive, FlagReasonIrrelevant:
		return true
	}
	return false
}
