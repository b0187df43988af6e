package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"track-review-api/config"
	"track-review-api/models"

	"gorm.io/gorm"
)

// RestrictionFlagThreshold is the flag count beyond which a reviewer is
// permanently restricted (the 4th flag trips it).
const RestrictionFlagThreshold = 3

// FlagResult reports what a flag did.
type FlagResult struct {
	ReviewID           int    `json:"review_id"`
	TrackStatus        string `json:"track_status"`
	ReviewerRestricted bool   `json:"reviewer_restricted"`
	AffectedTrackIDs   []int  `json:"affected_track_ids,omitempty"`
}

// FlagService handles owner flags on completed reviews and the restriction
// cascade they can trigger. The flag, the restriction, the bulk expiry and
// the status recompute commit atomically; the backfill scheduling for
// affected tracks runs afterwards, best-effort, so one track's scheduling
// failure cannot roll back the restriction.
type FlagService struct {
	db       *gorm.DB
	settings *config.ReviewSettings
	queue    *QueueAssignmentService
}

func NewFlagService(db *gorm.DB) *FlagService {
	if db == nil {
		db = config.DB
	}
	return &FlagService{
		db:       db,
		settings: config.Review,
		queue:    NewQueueAssignmentService(db),
	}
}

// Flag marks a completed review as flagged by the track owner, damages the
// reviewer's reputation and, past the threshold, restricts the reviewer and
// expires all their other active assignments.
func (s *FlagService) Flag(ctx context.Context, reviewID, callerArtistID int, reason string) (*FlagResult, error) {
	if reviewID <= 0 {
		return nil, &ValidationError{Field: "review_id", Detail: "must be positive"}
	}
	if !models.ValidFlagReason(reason) {
		return nil, &ValidationError{Field: "reason", Detail: "must be one of low_effort, spam, offensive, irrelevant"}
	}

	result := &FlagResult{ReviewID: reviewID}
	var backfill []int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Where("review_id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "review", ID: reviewID}
			}
			return err
		}

		var track models.Track
		if err := tx.Where("track_id = ? AND delete_at IS NULL", review.TrackID).First(&track).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "track", ID: review.TrackID}
			}
			return err
		}

		if track.OwnerArtistID != callerArtistID {
			return &AuthorizationError{Detail: "only the track owner can flag its reviews"}
		}
		if review.Status != models.ReviewStatusCompleted {
			return &StateError{Resource: "review", Status: review.Status, Detail: "only completed reviews can be flagged"}
		}
		if review.WasFlagged {
			return &StateError{Resource: "review", Status: review.Status, Detail: "review is already flagged"}
		}

		now := time.Now()
		if err := tx.Model(&models.Review{}).
			Where("review_id = ?", reviewID).
			Updates(map[string]interface{}{
				"was_flagged":              true,
				"flag_reason":              reason,
				"counts_toward_completion": false,
				"counts_toward_analytics":  false,
				"update_at":                now,
			}).Error; err != nil {
			return err
		}

		switch {
		case review.ReviewerID != nil:
			restricted, affected, err := s.punishReviewer(tx, *review.ReviewerID, review.ReviewID, now)
			if err != nil {
				return err
			}
			result.ReviewerRestricted = restricted
			backfill = append(backfill, affected...)
		case review.PeerReviewerArtistID != nil:
			if err := tx.Model(&models.ArtistProfile{}).
				Where("user_id = ?", *review.PeerReviewerArtistID).
				UpdateColumn("peer_flag_count", gorm.Expr("peer_flag_count + 1")).Error; err != nil {
				return err
			}
		}

		// The flagged review no longer counts, so the track may fall back
		// out of COMPLETED.
		status, err := RecomputeTrackStatus(tx, &track, now)
		if err != nil {
			return err
		}
		result.TrackStatus = status

		backfill = append([]int{track.TrackID}, backfill...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.AffectedTrackIDs = backfill
	s.backfillTracks(ctx, backfill)
	return result, nil
}

// punishReviewer bumps the reviewer's flag count and, once it passes the
// threshold, restricts them for good: every other active assignment is
// expired and its queue entry removed. Returns the distinct track ids that
// lost coverage.
func (s *FlagService) punishReviewer(tx *gorm.DB, reviewerID, flaggedReviewID int, now time.Time) (bool, []int, error) {
	var profile models.ReviewerProfile
	if err := tx.Where("user_id = ?", reviewerID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, &NotFoundError{Resource: "reviewer", ID: reviewerID}
		}
		return false, nil, err
	}

	newCount := profile.FlagCount + 1
	updates := map[string]interface{}{
		"flag_count": newCount,
		"update_at":  now,
	}

	restrict := newCount > RestrictionFlagThreshold && !profile.IsRestricted
	if restrict {
		updates["is_restricted"] = true
	}
	if err := tx.Model(&models.ReviewerProfile{}).
		Where("user_id = ?", reviewerID).
		Updates(updates).Error; err != nil {
		return false, nil, err
	}

	if !restrict {
		return false, nil, nil
	}

	var others []models.Review
	if err := tx.Where("reviewer_id = ? AND review_id <> ? AND status IN ?",
		reviewerID, flaggedReviewID,
		[]string{models.ReviewStatusAssigned, models.ReviewStatusInProgress}).
		Find(&others).Error; err != nil {
		return false, nil, err
	}

	if len(others) == 0 {
		return true, nil, nil
	}

	reviewIDs := make([]int, 0, len(others))
	trackSeen := map[int]bool{}
	var trackIDs []int
	for _, r := range others {
		reviewIDs = append(reviewIDs, r.ReviewID)
		if !trackSeen[r.TrackID] {
			trackSeen[r.TrackID] = true
			trackIDs = append(trackIDs, r.TrackID)
		}
	}

	if err := tx.Where("reviewer_id = ? AND track_id IN ?", reviewerID, trackIDs).
		Delete(&models.QueueEntry{}).Error; err != nil {
		return false, nil, err
	}
	if err := tx.Model(&models.Review{}).
		Where("review_id IN ?", reviewIDs).
		Updates(map[string]interface{}{
			"status":    models.ReviewStatusExpired,
			"update_at": now,
		}).Error; err != nil {
		return false, nil, err
	}

	return true, trackIDs, nil
}

// backfillTracks re-runs the scheduler for every track that lost coverage.
// Deliberately outside the flag transaction: a failed backfill is logged and
// left for the next scheduler pass, it never unwinds the restriction.
func (s *FlagService) backfillTracks(ctx context.Context, trackIDs []int) {
	for _, trackID := range trackIDs {
		if _, err := s.queue.Assign(ctx, trackID); err != nil {
			log.Printf("backfill after flag failed for track %d: %v", trackID, err)
		}
	}
}

// MarkUnplayable lets the assigned reviewer report a broken audio link. The
// assignment is expired and backfilled like a flag, and the track owner is
// told about the broken link at most once per track.
func (s *FlagService) MarkUnplayable(ctx context.Context, reviewID, callerUserID int) error {
	if reviewID <= 0 {
		return &ValidationError{Field: "review_id", Detail: "must be positive"}
	}

	var trackID int
	var owner models.User
	notify := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Where("review_id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "review", ID: reviewID}
			}
			return err
		}

		callerAssigned := (review.ReviewerID != nil && *review.ReviewerID == callerUserID) ||
			(review.PeerReviewerArtistID != nil && *review.PeerReviewerArtistID == callerUserID)
		if !callerAssigned {
			return &AuthorizationError{Detail: "only the assigned reviewer can report this track unplayable"}
		}
		if !review.IsActiveAssignment() {
			return &StateError{Resource: "review", Status: review.Status, Detail: "assignment is no longer active"}
		}

		var track models.Track
		if err := tx.Where("track_id = ? AND delete_at IS NULL", review.TrackID).First(&track).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "track", ID: review.TrackID}
			}
			return err
		}
		trackID = track.TrackID

		now := time.Now()
		if err := tx.Model(&models.Review{}).
			Where("review_id = ?", reviewID).
			Updates(map[string]interface{}{
				"status":    models.ReviewStatusExpired,
				"update_at": now,
			}).Error; err != nil {
			return err
		}
		if err := tx.Where("track_id = ? AND (reviewer_id = ? OR artist_reviewer_id = ?)",
			track.TrackID, callerUserID, callerUserID).
			Delete(&models.QueueEntry{}).Error; err != nil {
			return err
		}

		// The broken-link notice goes out once per track no matter how many
		// reviewers report it.
		var existing int64
		if err := tx.Model(&models.Notification{}).
			Where("type = ? AND related_track_id = ?", models.NotificationUnplayableTrack, track.TrackID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			relatedID := uint(track.TrackID)
			notification := models.Notification{
				UserID:         uint(track.OwnerArtistID),
				Title:          "Your track link appears to be broken",
				Message:        fmt.Sprintf("A reviewer could not play %q. Please check the audio link.", track.Title),
				Type:           models.NotificationUnplayableTrack,
				RelatedTrackID: &relatedID,
				CreateAt:       now,
			}
			if err := tx.Create(&notification).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ? AND delete_at IS NULL", track.OwnerArtistID).
				First(&owner).Error; err == nil {
				notify = true
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if notify && owner.Email != "" {
		if err := config.SendMail([]string{owner.Email},
			"Your track link appears to be broken",
			"<p>A reviewer reported that your track could not be played. Please re-check the audio link so reviews can continue.</p>"); err != nil {
			log.Printf("unplayable notice email failed for track %d: %v", trackID, err)
		}
	}

	s.backfillTracks(ctx, []int{trackID})
	return nil
}
