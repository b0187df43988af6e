package services

import (
	"context"
	"errors"
	"time"

	"track-review-api/config"
	"track-review-api/models"

	"gorm.io/gorm"
)

// ReassignService swaps one assigned reviewer for another on a track.
// Admin-only at the HTTP boundary; the removal and the addition commit
// together or not at all.
type ReassignService struct {
	db       *gorm.DB
	settings *config.ReviewSettings
}

func NewReassignService(db *gorm.DB) *ReassignService {
	if db == nil {
		db = config.DB
	}
	return &ReassignService{db: db, settings: config.Review}
}

// Reassign expires currentReviewerID's review, removes its queue entry and
// creates a fresh assignment for newReviewerID in one transaction.
func (s *ReassignService) Reassign(ctx context.Context, trackID, currentReviewerID, newReviewerID int) (int, error) {
	if trackID <= 0 {
		return 0, &ValidationError{Field: "track_id", Detail: "must be positive"}
	}
	if currentReviewerID <= 0 || newReviewerID <= 0 {
		return 0, &ValidationError{Field: "reviewer_id", Detail: "must be positive"}
	}
	if currentReviewerID == newReviewerID {
		return 0, &ValidationError{Field: "reviewer_id", Detail: "new reviewer must differ from current"}
	}

	var reviewID int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var track models.Track
		if err := tx.Where("track_id = ? AND delete_at IS NULL", trackID).First(&track).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "track", ID: trackID}
			}
			return err
		}
		if !track.IsActive() {
			return &StateError{Resource: "track", Status: track.Status, Detail: "reassignment requires an active track"}
		}

		// The outgoing reviewer must actually be attached, via an active
		// review or a queue entry.
		var current models.Review
		hasReview := true
		err := tx.Where("track_id = ? AND reviewer_id = ? AND status IN ?",
			trackID, currentReviewerID,
			[]string{models.ReviewStatusAssigned, models.ReviewStatusInProgress}).
			First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hasReview = false
		} else if err != nil {
			return err
		}

		var currentEntries int64
		if err := tx.Model(&models.QueueEntry{}).
			Where("track_id = ? AND reviewer_id = ?", trackID, currentReviewerID).
			Count(&currentEntries).Error; err != nil {
			return err
		}
		if !hasReview && currentEntries == 0 {
			return &NotFoundError{Resource: "assignment for reviewer", ID: currentReviewerID}
		}

		// The incoming reviewer must not already be attached.
		var newAttached int64
		if err := tx.Model(&models.Review{}).
			Where("track_id = ? AND reviewer_id = ?", trackID, newReviewerID).
			Count(&newAttached).Error; err != nil {
			return err
		}
		if newAttached == 0 {
			if err := tx.Model(&models.QueueEntry{}).
				Where("track_id = ? AND reviewer_id = ?", trackID, newReviewerID).
				Count(&newAttached).Error; err != nil {
				return err
			}
		}
		if newAttached > 0 {
			return &ConflictError{Detail: "new reviewer is already attached to this track"}
		}

		now := time.Now()
		if hasReview {
			if err := tx.Model(&models.Review{}).
				Where("review_id = ?", current.ReviewID).
				Updates(map[string]interface{}{
					"status":    models.ReviewStatusExpired,
					"update_at": now,
				}).Error; err != nil {
				return err
			}
		}
		if currentEntries > 0 {
			if err := tx.Where("track_id = ? AND reviewer_id = ?", trackID, currentReviewerID).
				Delete(&models.QueueEntry{}).Error; err != nil {
				return err
			}
		}

		review := models.Review{
			TrackID:                trackID,
			ReviewerID:             &newReviewerID,
			Status:                 models.ReviewStatusAssigned,
			CountsTowardCompletion: true,
			CountsTowardAnalytics:  true,
			CreateAt:               &now,
			UpdateAt:               &now,
		}
		if err := tx.Create(&review).Error; err != nil {
			return translateDuplicate(err, "new reviewer already has a review on this track")
		}

		entry := models.QueueEntry{
			TrackID:    trackID,
			ReviewerID: &newReviewerID,
			ExpiresAt:  now.Add(s.settings.QueueEntryTTL),
			Priority:   track.QueuePriority(),
			CreateAt:   &now,
			UpdateAt:   &now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		reviewID = review.ReviewID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reviewID, nil
}
