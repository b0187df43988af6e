package services

import (
	"time"

	"track-review-api/models"

	"gorm.io/gorm"
)

// DeriveTrackStatus computes what an active track's status must be given its
// counted-completed total. Status is a function of the counts, never a field
// callers set directly, so that count updates and status updates cannot
// drift apart. Tracks outside the active lifecycle (UPLOADED,
// PENDING_PAYMENT, CANCELLED) are left alone.
func DeriveTrackStatus(current string, reviewsRequested, countedCompleted int) string {
	switch current {
	case models.TrackStatusQueued, models.TrackStatusInProgress, models.TrackStatusCompleted:
	default:
		return current
	}

	if reviewsRequested > 0 && countedCompleted >= reviewsRequested {
		return models.TrackStatusCompleted
	}
	if countedCompleted > 0 {
		return models.TrackStatusInProgress
	}
	return models.TrackStatusQueued
}

// CountCompletedReviews returns the track's counted-completed total: COMPLETED
// reviews that still count toward completion (flagged ones do not).
func CountCompletedReviews(tx *gorm.DB, trackID int) (int, error) {
	var n int64
	err := tx.Model(&models.Review{}).
		Where("track_id = ? AND status = ? AND counts_toward_completion = ?",
			trackID, models.ReviewStatusCompleted, true).
		Count(&n).Error
	return int(n), err
}

// CountActiveAssignments returns the number of ASSIGNED/IN_PROGRESS reviews
// holding slots on the track.
func CountActiveAssignments(tx *gorm.DB, trackID int) (int, error) {
	var n int64
	err := tx.Model(&models.Review{}).
		Where("track_id = ? AND status IN ?",
			trackID, []string{models.ReviewStatusAssigned, models.ReviewStatusInProgress}).
		Count(&n).Error
	return int(n), err
}

// RecomputeTrackStatus re-derives the track's status from fresh counts and
// persists it when it changed, setting or clearing completed_at as the track
// enters or leaves COMPLETED. Must run inside the caller's transaction so
// the counts it reads are the counts it commits against.
func RecomputeTrackStatus(tx *gorm.DB, track *models.Track, now time.Time) (string, error) {
	counted, err := CountCompletedReviews(tx, track.TrackID)
	if err != nil {
		return "", err
	}

	next := DeriveTrackStatus(track.Status, track.ReviewsRequested, counted)
	if next == track.Status {
		return next, nil
	}

	updates := map[string]interface{}{
		"status":    next,
		"update_at": now,
	}
	if next == models.TrackStatusCompleted {
		updates["completed_at"] = now
	} else if track.Status == models.TrackStatusCompleted {
		updates["completed_at"] = nil
	}

	if err := tx.Model(&models.Track{}).
		Where("track_id = ?", track.TrackID).
		Updates(updates).Error; err != nil {
		return "", err
	}

	track.Status = next
	if next == models.TrackStatusCompleted {
		track.CompletedAt = &now
	} else {
		track.CompletedAt = nil
	}
	return next, nil
}
