package models

import "time"

// Reviewer tiers. Tier is derived from review volume and average rating;
// see services.ComputeTier.
const (
	TierNormal = "NORMAL"
	TierPro    = "PRO"
)

type ReviewerProfile struct {
	UserID               int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Tier                 string     `gorm:"column:tier" json:"tier"`
	CompletedOnboarding  bool       `gorm:"column:completed_onboarding" json:"completed_onboarding"`
	OnboardingQuizPassed bool       `gorm:"column:onboarding_quiz_passed" json:"onboarding_quiz_passed"`
	IsRestricted         bool       `gorm:"column:is_restricted" json:"is_restricted"`
	FlagCount            int        `gorm:"column:flag_count" json:"flag_count"`
	GemCount             int        `gorm:"column:gem_count" json:"gem_count"`
	TotalReviews         int        `gorm:"column:total_reviews" json:"total_reviews"`
	AverageRating        float64    `gorm:"column:average_rating" json:"average_rating"`
	IsIndustryExpert     bool       `gorm:"column:is_industry_expert" json:"is_industry_expert"`
	LastReviewDate       *time.Time `gorm:"column:last_review_date" json:"last_review_date,omitempty"`
	AccountCreatedAt     time.Time  `gorm:"column:account_created_at" json:"account_created_at"`
	CreateAt             *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt             *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Genres []Genre `gorm:"many2many:reviewer_genres;foreignKey:UserID;joinForeignKey:user_id;References:GenreID;joinReferences:genre_id" json:"genres,omitempty"`
}

func (ReviewerProfile) TableName() string {
	return "reviewer_profiles"
}

// AccountAge is the reviewer's account age at the given instant.
func (p *ReviewerProfile) AccountAge(now time.Time) time.Duration {
	return now.Sub(p.AccountCreatedAt)
}
