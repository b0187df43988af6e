package services

import (
	"context"
	"errors"
	"time"

	"track-review-api/config"
	"track-review-api/models"

	"gorm.io/gorm"
)

// ComputeTier derives a reviewer's tier from their review volume and average
// rating. PRO gates the higher pay rate and PRO-preferred assignment pools.
func ComputeTier(totalReviews int, averageRating float64, settings *config.ReviewSettings) string {
	if totalReviews >= settings.ProTierMinReviews && averageRating >= settings.ProTierMinRating {
		return models.TierPro
	}
	return models.TierNormal
}

// PayRateCents looks up the per-review payout for a tier.
func PayRateCents(tier string, settings *config.ReviewSettings) int {
	if rate, ok := settings.PayRateCents[tier]; ok {
		return rate
	}
	return settings.PayRateCents[models.TierNormal]
}

// ReputationService recomputes reviewer reputation after rating and gem
// events.
type ReputationService struct {
	db       *gorm.DB
	settings *config.ReviewSettings
}

func NewReputationService(db *gorm.DB) *ReputationService {
	if db == nil {
		db = config.DB
	}
	return &ReputationService{db: db, settings: config.Review}
}

// RateReview stores the track owner's 1-5 rating on a completed review and
// refreshes the reviewer's reputation.
func (s *ReputationService) RateReview(ctx context.Context, reviewID, callerArtistID, rating int) error {
	if rating < 1 || rating > 5 {
		return &ValidationError{Field: "rating", Detail: "must be between 1 and 5"}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := s.ratableReview(tx, reviewID, callerArtistID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.Review{}).
			Where("review_id = ?", reviewID).
			Updates(map[string]interface{}{
				"artist_rating": rating,
				"update_at":     now,
			}).Error; err != nil {
			return err
		}

		if review.ReviewerID != nil {
			return s.recompute(tx, *review.ReviewerID, now)
		}
		return nil
	})
}

// SetGem awards or revokes the gem marker on a completed review and
// refreshes the reviewer's reputation.
func (s *ReputationService) SetGem(ctx context.Context, reviewID, callerArtistID int, isGem bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := s.ratableReview(tx, reviewID, callerArtistID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.Review{}).
			Where("review_id = ?", reviewID).
			Updates(map[string]interface{}{
				"is_gem":    isGem,
				"update_at": now,
			}).Error; err != nil {
			return err
		}

		if review.ReviewerID != nil {
			return s.recompute(tx, *review.ReviewerID, now)
		}
		return nil
	})
}

// UpdateReputation recomputes a reviewer's totals, average rating and tier
// from their analytics-counting reviews.
func (s *ReputationService) UpdateReputation(ctx context.Context, reviewerID int) (*models.ReviewerProfile, error) {
	var profile models.ReviewerProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.recompute(tx, reviewerID, time.Now()); err != nil {
			return err
		}
		return tx.Where("user_id = ?", reviewerID).First(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *ReputationService) ratableReview(tx *gorm.DB, reviewID, callerArtistID int) (*models.Review, error) {
	var review models.Review
	if err := tx.Where("review_id = ?", reviewID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "review", ID: reviewID}
		}
		return nil, err
	}

	var track models.Track
	if err := tx.Where("track_id = ? AND delete_at IS NULL", review.TrackID).First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "track", ID: review.TrackID}
		}
		return nil, err
	}
	if track.OwnerArtistID != callerArtistID {
		return nil, &AuthorizationError{Detail: "only the track owner can rate its reviews"}
	}
	if review.Status != models.ReviewStatusCompleted {
		return nil, &StateError{Resource: "review", Status: review.Status, Detail: "only completed reviews can be rated"}
	}
	return &review, nil
}

// recompute refreshes the stored aggregates for one reviewer inside the
// caller's transaction.
func (s *ReputationService) recompute(tx *gorm.DB, reviewerID int, now time.Time) error {
	var exists int64
	if err := tx.Model(&models.ReviewerProfile{}).
		Where("user_id = ?", reviewerID).
		Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return &NotFoundError{Resource: "reviewer", ID: reviewerID}
	}

	base := tx.Model(&models.Review{}).
		Where("reviewer_id = ? AND status = ? AND counts_toward_analytics = ?",
			reviewerID, models.ReviewStatusCompleted, true)

	var totalReviews int64
	if err := base.Session(&gorm.Session{}).Count(&totalReviews).Error; err != nil {
		return err
	}

	var averageRating float64
	if err := base.Session(&gorm.Session{}).
		Where("artist_rating IS NOT NULL").
		Select("COALESCE(AVG(artist_rating), 0)").
		Scan(&averageRating).Error; err != nil {
		return err
	}

	var gemCount int64
	if err := base.Session(&gorm.Session{}).
		Where("is_gem = ?", true).
		Count(&gemCount).Error; err != nil {
		return err
	}

	return tx.Model(&models.ReviewerProfile{}).
		Where("user_id = ?", reviewerID).
		Updates(map[string]interface{}{
			"total_reviews":  totalReviews,
			"average_rating": averageRating,
			"gem_count":      gemCount,
			"tier":           ComputeTier(int(totalReviews), averageRating, s.settings),
			"update_at":      now,
		}).Error
}
