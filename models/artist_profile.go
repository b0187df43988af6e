package models

import "time"

// Subscription statuses reported by billing.
const (
	SubscriptionFree   = "free"
	SubscriptionActive = "active"
)

type ArtistProfile struct {
	UserID             int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	SubscriptionStatus string     `gorm:"column:subscription_status" json:"subscription_status"`
	PeerFlagCount      int        `gorm:"column:peer_flag_count" json:"peer_flag_count"`
	ReviewCredits      int        `gorm:"column:review_credits" json:"review_credits"`
	CreateAt           *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt           *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ArtistProfile) TableName() string {
	return "artist_profiles"
}
