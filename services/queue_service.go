package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"track-review-api/config"
	"track-review-api/models"

	"gorm.io/gorm"
)

// AssignmentSummary reports what one Assign call did.
type AssignmentSummary struct {
	TrackID   int   `json:"track_id"`
	OpenSlots int   `json:"open_slots"`
	Assigned  int   `json:"assigned"`
	ReviewIDs []int `json:"review_ids,omitempty"`
}

// QueueAssignmentService fills a track's remaining review slots from the
// eligible reviewer pool (push model, paid packages). Assign is idempotent:
// it recomputes open slots from fresh counts on every call and does nothing
// once the track is covered.
type QueueAssignmentService struct {
	db       *gorm.DB
	settings *config.ReviewSettings
}

func NewQueueAssignmentService(db *gorm.DB) *QueueAssignmentService {
	if db == nil {
		db = config.DB
	}
	return &QueueAssignmentService{db: db, settings: config.Review}
}

// Assign backfills the track's open review slots. Safe to call redundantly;
// returns without effect when the track is inactive or fully covered. Track
// status is not touched here: it is derived from completed counts and this
// call never changes those.
func (s *QueueAssignmentService) Assign(ctx context.Context, trackID int) (*AssignmentSummary, error) {
	if trackID <= 0 {
		return nil, &ValidationError{Field: "track_id", Detail: "must be positive"}
	}

	summary := &AssignmentSummary{TrackID: trackID}

	var track models.Track
	if err := s.db.WithContext(ctx).Preload("Genres").
		Where("track_id = ? AND delete_at IS NULL", trackID).
		First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "track", ID: trackID}
		}
		return nil, err
	}

	if !track.IsActive() {
		return summary, nil
	}
	// Peer tracks are pull-only: artists claim slots themselves.
	if track.PackageType == models.PackagePeer {
		return summary, nil
	}

	counted, err := CountCompletedReviews(s.db.WithContext(ctx), track.TrackID)
	if err != nil {
		return nil, err
	}
	active, err := CountActiveAssignments(s.db.WithContext(ctx), track.TrackID)
	if err != nil {
		return nil, err
	}

	openSlots := track.ReviewsRequested - counted - active
	summary.OpenSlots = openSlots
	if openSlots <= 0 {
		return summary, nil
	}

	pool, err := s.eligiblePool(ctx, &track)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, reviewer := range pool {
		if summary.Assigned >= openSlots {
			break
		}
		reviewID, err := s.assignOne(ctx, &track, reviewer.UserID, now)
		if err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				// Someone else grabbed this pairing between pool build and
				// insert; skip the reviewer and keep filling.
				log.Printf("assign: skipping reviewer %d on track %d: %v", reviewer.UserID, trackID, err)
				continue
			}
			return summary, err
		}
		summary.Assigned++
		summary.ReviewIDs = append(summary.ReviewIDs, reviewID)
	}

	return summary, nil
}

// eligiblePool loads candidate reviewers and filters them through the
// eligibility rules, returning them in selection order.
func (s *QueueAssignmentService) eligiblePool(ctx context.Context, track *models.Track) ([]*models.ReviewerProfile, error) {
	query := s.db.WithContext(ctx).Preload("Genres").
		Where("completed_onboarding = ? AND onboarding_quiz_passed = ? AND is_restricted = ?",
			true, true, false)
	if track.RequiresExpert() {
		query = query.Where("is_industry_expert = ?", true)
	}

	var candidates []*models.ReviewerProfile
	if err := query.Find(&candidates).Error; err != nil {
		return nil, err
	}

	reviewed, err := s.reviewerIDsWithReview(ctx, track.TrackID)
	if err != nil {
		return nil, err
	}
	queued, err := s.reviewerIDsWithQueueEntry(ctx, track.TrackID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	eligible := make([]*models.ReviewerProfile, 0, len(candidates))
	for _, reviewer := range candidates {
		ok, _ := EvaluateEligibility(EligibilityInput{
			Track:             track,
			Reviewer:          reviewer,
			HasExistingReview: reviewed[reviewer.UserID],
			HasQueueEntry:     queued[reviewer.UserID],
			RequireExpert:     track.RequiresExpert(),
			Now:               now,
		}, s.settings)
		if ok {
			eligible = append(eligible, reviewer)
		}
	}

	sortCandidates(eligible, track)
	return eligible, nil
}

// sortCandidates orders the eligible pool. Higher package tiers prefer PRO
// reviewers; within a tier, reviewers who have waited longest since their
// last review come first (never-assigned reviewers ahead of everyone), so no
// reviewer is repeatedly favored and idle reviewers drain first.
func sortCandidates(pool []*models.ReviewerProfile, track *models.Track) {
	preferPro := track.QueuePriority() >= 2
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if preferPro && a.Tier != b.Tier {
			return a.Tier == models.TierPro
		}
		switch {
		case a.LastReviewDate == nil && b.LastReviewDate == nil:
			return a.UserID < b.UserID
		case a.LastReviewDate == nil:
			return true
		case b.LastReviewDate == nil:
			return false
		default:
			return a.LastReviewDate.Before(*b.LastReviewDate)
		}
	})
}

// assignOne creates the review and its queue entry in one transaction.
func (s *QueueAssignmentService) assignOne(ctx context.Context, track *models.Track, reviewerID int, now time.Time) (int, error) {
	var reviewID int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review := models.Review{
			TrackID:                track.TrackID,
			ReviewerID:             &reviewerID,
			Status:                 models.ReviewStatusAssigned,
			CountsTowardCompletion: true,
			CountsTowardAnalytics:  true,
			CreateAt:               &now,
			UpdateAt:               &now,
		}
		if err := tx.Create(&review).Error; err != nil {
			return translateDuplicate(err, "reviewer already assigned to track")
		}

		entry := models.QueueEntry{
			TrackID:    track.TrackID,
			ReviewerID: &reviewerID,
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

// translateDuplicate maps a unique-constraint violation to a ConflictError.
func translateDuplicate(err error, detail string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
		return &ConflictError{Detail: detail}
	}
	return err
}

func (s *QueueAssignmentService) reviewerIDsWithReview(ctx context.Context, trackID int) (map[int]bool, error) {
	var ids []int
	if err := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("track_id = ? AND reviewer_id IS NOT NULL", trackID).
		Pluck("reviewer_id", &ids).Error; err != nil {
		return nil, err
	}
	return idSet(ids), nil
}

func (s *QueueAssignmentService) reviewerIDsWithQueueEntry(ctx context.Context, trackID int) (map[int]bool, error) {
	var ids []int
	if err := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("track_id = ? AND reviewer_id IS NOT NULL", trackID).
		Pluck("reviewer_id", &ids).Error; err != nil {
		return nil, err
	}
	return idSet(ids), nil
}

func idSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
