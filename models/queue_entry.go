package models

import "time"

// QueueEntry is the outstanding-work ticket behind an ASSIGNED/IN_PROGRESS
// review. It exists 1:1 with its active review and is deleted whenever that
// review leaves the active statuses.
type QueueEntry struct {
	QueueEntryID     int        `gorm:"primaryKey;column:queue_entry_id" json:"queue_entry_id"`
	TrackID          int        `gorm:"column:track_id" json:"track_id"`
	ReviewerID       *int       `gorm:"column:reviewer_id" json:"reviewer_id,omitempty"`
	ArtistReviewerID *int       `gorm:"column:artist_reviewer_id" json:"artist_reviewer_id,omitempty"`
	ExpiresAt        time.Time  `gorm:"column:expires_at" json:"expires_at"`
	Priority         int        `gorm:"column:priority" json:"priority"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	Track *Track `gorm:"foreignKey:TrackID" json:"track,omitempty"`
}

func (QueueEntry) TableName() string {
	return "queue_entries"
}

// Expired reports whether the ticket is past its deadline.
func (q *QueueEntry) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
