package models

import "time"

// Package types control review count, assignment priority and expert gating.
const (
	PackageStarter         = "STARTER"
	PackageStandard        = "STANDARD"
	PackagePro             = "PRO"
	PackageDeepDive        = "DEEP_DIVE"
	PackagePeer            = "PEER"
	PackageReleaseDecision = "RELEASE_DECISION"
)

// Track statuses. QUEUED/IN_PROGRESS/COMPLETED are derived from review
// counts, never set directly by callers.
const (
	TrackStatusUploaded       = "UPLOADED"
	TrackStatusPendingPayment = "PENDING_PAYMENT"
	TrackStatusQueued         = "QUEUED"
	TrackStatusInProgress     = "IN_PROGRESS"
	TrackStatusCompleted      = "COMPLETED"
	TrackStatusCancelled      = "CANCELLED"
)

type Track struct {
	TrackID          int        `gorm:"primaryKey;column:track_id" json:"track_id"`
	OwnerArtistID    int        `gorm:"column:owner_artist_id" json:"owner_artist_id"`
	Title            string     `gorm:"column:title" json:"title"`
	PackageType      string     `gorm:"column:package_type" json:"package_type"`
	Status           string     `gorm:"column:status" json:"status"`
	ReviewsRequested int        `gorm:"column:reviews_requested" json:"reviews_requested"`
	CompletedAt      *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Owner  *User   `gorm:"foreignKey:OwnerArtistID" json:"owner,omitempty"`
	Genres []Genre `gorm:"many2many:track_genres;foreignKey:TrackID;joinForeignKey:track_id;References:GenreID;joinReferences:genre_id" json:"genres,omitempty"`
}

func (Track) TableName() string {
	return "tracks"
}

// IsActive reports whether the track currently occupies an artist slot.
func (t *Track) IsActive() bool {
	return t.Status == TrackStatusQueued || t.Status == TrackStatusInProgress
}

// RequiresExpert reports whether only industry experts may be assigned.
func (t *Track) RequiresExpert() bool {
	return t.PackageType == PackageReleaseDecision
}

// QueuePriority maps the package type to assignment priority. Higher runs
// first in reviewer-facing queue ordering.
func (t *Track) QueuePriority() int {
	switch t.PackageType {
	case PackageReleaseDecision:
		return 3
	case PackagePro, PackageDeepDive:
		return 2
	case PackageStandard:
		return 1
	default: // STARTER, PEER
		return 0
	}
}
