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

// ClaimService lets a peer artist pull an open slot on a PEER-package track.
// Concurrent claims on the same track are linearized by a MySQL advisory
// lock keyed by the track id and held on the claim's connection for the
// duration of the capacity check and write; the lock is released only after
// the transaction commits, so the next claimer always sees the committed
// counts. The unique (track_id, peer_reviewer_artist_id) index backstops any
// writer that bypasses the lock.
type ClaimService struct {
	db       *gorm.DB
	settings *config.ReviewSettings
}

func NewClaimService(db *gorm.DB) *ClaimService {
	if db == nil {
		db = config.DB
	}
	return &ClaimService{db: db, settings: config.Review}
}

func claimLockName(trackID int) string {
	return fmt.Sprintf("track_claim_%d", trackID)
}

// Claim assigns the calling artist to an open slot on the track and returns
// the review id. A repeated claim by the same artist while the assignment is
// still active returns the existing review id.
func (s *ClaimService) Claim(ctx context.Context, trackID, claimingArtistID int) (int, error) {
	if trackID <= 0 {
		return 0, &ValidationError{Field: "track_id", Detail: "must be positive"}
	}
	if claimingArtistID <= 0 {
		return 0, &ValidationError{Field: "artist_id", Detail: "must be positive"}
	}

	if err := s.checkDailyCap(ctx, claimingArtistID); err != nil {
		return 0, err
	}

	var reviewID int
	err := s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		lockName := claimLockName(trackID)

		var ok int
		if err := conn.Raw("SELECT GET_LOCK(?, 5)", lockName).Scan(&ok).Error; err != nil {
			return err
		}
		if ok != 1 {
			return &ConflictError{Detail: "track is being claimed by someone else, try again"}
		}
		defer func() {
			var released int
			if err := conn.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&released).Error; err != nil {
				log.Printf("failed to release claim lock %s: %v", lockName, err)
			}
		}()

		return conn.Transaction(func(tx *gorm.DB) error {
			id, err := s.claimLocked(tx, trackID, claimingArtistID)
			if err != nil {
				return err
			}
			reviewID = id
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return reviewID, nil
}

// claimLocked runs the capacity check and write under the advisory lock.
func (s *ClaimService) claimLocked(tx *gorm.DB, trackID, claimingArtistID int) (int, error) {
	var track models.Track
	if err := tx.Where("track_id = ? AND delete_at IS NULL", trackID).First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, &NotFoundError{Resource: "track", ID: trackID}
		}
		return 0, err
	}

	if track.PackageType != models.PackagePeer {
		return 0, &StateError{Resource: "track", Status: track.Status, Detail: "only peer tracks can be claimed"}
	}
	if !track.IsActive() {
		return 0, &StateError{Resource: "track", Status: track.Status, Detail: "track is not open for claims"}
	}
	if track.OwnerArtistID == claimingArtistID {
		return 0, &ValidationError{Field: "artist_id", Detail: "cannot claim your own track"}
	}

	var existing models.Review
	err := tx.Where("track_id = ? AND peer_reviewer_artist_id = ?", trackID, claimingArtistID).
		First(&existing).Error
	switch {
	case err == nil:
		if existing.IsActiveAssignment() {
			// Duplicate claim is a no-op success.
			return existing.ReviewID, nil
		}
		return 0, &StateError{Resource: "review", Status: existing.Status, Detail: "already reviewed or skipped this track"}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no prior claim, continue
	default:
		return 0, err
	}

	counted, err := CountCompletedReviews(tx, trackID)
	if err != nil {
		return 0, err
	}
	active, err := CountActiveAssignments(tx, trackID)
	if err != nil {
		return 0, err
	}
	if counted+active >= track.ReviewsRequested {
		return 0, &CapacityError{Kind: "review_slots", Current: counted + active, Limit: track.ReviewsRequested}
	}

	now := time.Now()
	review := models.Review{
		TrackID:                trackID,
		PeerReviewerArtistID:   &claimingArtistID,
		Status:                 models.ReviewStatusAssigned,
		CountsTowardCompletion: true,
		CountsTowardAnalytics:  true,
		CreateAt:               &now,
		UpdateAt:               &now,
	}
	if err := tx.Create(&review).Error; err != nil {
		return 0, translateDuplicate(err, "artist already claimed this track")
	}

	entry := models.QueueEntry{
		TrackID:          trackID,
		ArtistReviewerID: &claimingArtistID,
		ExpiresAt:        now.Add(s.settings.QueueEntryTTL),
		Priority:         track.QueuePriority(),
		CreateAt:         &now,
		UpdateAt:         &now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}

	if track.Status == models.TrackStatusQueued {
		if err := tx.Model(&models.Track{}).
			Where("track_id = ?", trackID).
			Updates(map[string]interface{}{
				"status":    models.TrackStatusInProgress,
				"update_at": now,
			}).Error; err != nil {
			return 0, err
		}
	}

	return review.ReviewID, nil
}

// checkDailyCap enforces the completed-peer-reviews-per-day limit before any
// lock is taken. Allow-listed artists skip the cap.
func (s *ClaimService) checkDailyCap(ctx context.Context, artistID int) error {
	if s.settings.ClaimCapBypassIDs[artistID] {
		return nil
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("peer_reviewer_artist_id = ? AND status = ? AND completed_at >= ?",
			artistID, models.ReviewStatusCompleted, dayStart).
		Count(&n).Error; err != nil {
		return err
	}
	if int(n) >= s.settings.DailyPeerReviewCap {
		return &CapacityError{Kind: "daily_claims", Current: int(n), Limit: s.settings.DailyPeerReviewCap}
	}
	return nil
}
