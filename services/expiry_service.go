package services

import (
	"context"
	"errors"
	"log"
	"time"

	"track-review-api/config"
	"track-review-api/models"

	"gorm.io/gorm"
)

var ErrSweepAlreadyRunning = errors.New("queue sweep already running")

const sweepLockName = "queue_entry_sweep"

// SweepSummary reports one reaper pass.
type SweepSummary struct {
	Expired          int   `json:"expired"`
	TracksBackfilled []int `json:"tracks_backfilled,omitempty"`
}

// ExpiryService expires overdue queue entries and their reviews, then
// backfills the tracks that lost coverage. Expiry is purely time-based:
// nothing here runs on a timer, the external reaper (cmd/queue-reaper, cron)
// invokes SweepExpired whenever it fires.
type ExpiryService struct {
	db    *gorm.DB
	queue *QueueAssignmentService
}

func NewExpiryService(db *gorm.DB) *ExpiryService {
	if db == nil {
		db = config.DB
	}
	return &ExpiryService{db: db, queue: NewQueueAssignmentService(db)}
}

// SweepExpired processes every queue entry past its deadline. Overlapping
// sweeps are prevented with an advisory lock; a second caller fails fast
// with ErrSweepAlreadyRunning.
func (s *ExpiryService) SweepExpired(ctx context.Context) (*SweepSummary, error) {
	summary := &SweepSummary{}

	err := s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		var ok int
		if err := conn.Raw("SELECT GET_LOCK(?, 0)", sweepLockName).Scan(&ok).Error; err != nil {
			return err
		}
		if ok != 1 {
			return ErrSweepAlreadyRunning
		}
		defer func() {
			var released int
			if err := conn.Raw("SELECT RELEASE_LOCK(?)", sweepLockName).Scan(&released).Error; err != nil {
				log.Printf("failed to release sweep lock: %v", err)
			}
		}()

		now := time.Now()
		var expired []models.QueueEntry
		if err := conn.Where("expires_at < ?", now).Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		trackSeen := map[int]bool{}
		for _, entry := range expired {
			if err := s.expireEntry(conn, entry, now); err != nil {
				// One bad row must not stall the rest of the sweep.
				log.Printf("failed to expire queue entry %d: %v", entry.QueueEntryID, err)
				continue
			}
			summary.Expired++
			if !trackSeen[entry.TrackID] {
				trackSeen[entry.TrackID] = true
				summary.TracksBackfilled = append(summary.TracksBackfilled, entry.TrackID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, trackID := range summary.TracksBackfilled {
		if _, err := s.queue.Assign(ctx, trackID); err != nil {
			log.Printf("backfill after expiry failed for track %d: %v", trackID, err)
		}
	}

	return summary, nil
}

// expireEntry removes one overdue ticket and expires its review atomically.
func (s *ExpiryService) expireEntry(conn *gorm.DB, entry models.QueueEntry, now time.Time) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("queue_entry_id = ?", entry.QueueEntryID).
			Delete(&models.QueueEntry{}).Error; err != nil {
			return err
		}

		review := tx.Model(&models.Review{}).
			Where("track_id = ? AND status IN ?", entry.TrackID,
				[]string{models.ReviewStatusAssigned, models.ReviewStatusInProgress})
		switch {
		case entry.ReviewerID != nil:
			review = review.Where("reviewer_id = ?", *entry.ReviewerID)
		case entry.ArtistReviewerID != nil:
			review = review.Where("peer_reviewer_artist_id = ?", *entry.ArtistReviewerID)
		default:
			return nil
		}

		return review.Updates(map[string]interface{}{
			"status":    models.ReviewStatusExpired,
			"update_at": now,
		}).Error
	})
}
