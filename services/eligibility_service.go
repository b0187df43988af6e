package services

import (
	"context"
	"errors"
	"time"

	"track-review-api/config"
	"track-review-api/models"

	"gorm.io/gorm"
)

// Disqualification reasons returned for diagnostics.
const (
	ReasonOnboardingIncomplete = "onboarding_incomplete"
	ReasonRestricted           = "restricted"
	ReasonAccountTooNew        = "account_too_new"
	ReasonNoGenreOverlap       = "no_genre_overlap"
	ReasonAlreadyReviewed      = "already_reviewed"
	ReasonAlreadyQueued        = "already_queued"
	ReasonNotIndustryExpert    = "not_industry_expert"
)

// EligibilityInput is the snapshot EvaluateEligibility judges. The DB lookups
// (existing review, existing queue entry) are resolved by the caller so the
// evaluation itself stays side-effect free.
type EligibilityInput struct {
	Track             *models.Track
	Reviewer          *models.ReviewerProfile
	HasExistingReview bool
	HasQueueEntry     bool
	RequireExpert     bool
	Now               time.Time
}

// EvaluateEligibility applies every assignment rule and returns whether the
// reviewer may be assigned plus the full list of failed rules. Reviewers on
// the bypass list skip the account-age and genre-overlap checks only.
func EvaluateEligibility(in EligibilityInput, settings *config.ReviewSettings) (bool, []string) {
	var reasons []string
	bypass := settings.EligibilityBypassIDs[in.Reviewer.UserID]

	if !in.Reviewer.CompletedOnboarding || !in.Reviewer.OnboardingQuizPassed {
		reasons = append(reasons, ReasonOnboardingIncomplete)
	}
	if in.Reviewer.IsRestricted {
		reasons = append(reasons, ReasonRestricted)
	}
	if !bypass && in.Reviewer.AccountAge(in.Now) < settings.MinReviewerAccountAge {
		reasons = append(reasons, ReasonAccountTooNew)
	}
	if !bypass && !genresOverlap(in.Track.Genres, in.Reviewer.Genres) {
		reasons = append(reasons, ReasonNoGenreOverlap)
	}
	if in.HasExistingReview {
		reasons = append(reasons, ReasonAlreadyReviewed)
	}
	if in.HasQueueEntry {
		reasons = append(reasons, ReasonAlreadyQueued)
	}
	if in.RequireExpert && !in.Reviewer.IsIndustryExpert {
		reasons = append(reasons, ReasonNotIndustryExpert)
	}

	return len(reasons) == 0, reasons
}

func genresOverlap(a, b []models.Genre) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	ids := make(map[int]bool, len(a))
	for _, g := range a {
		ids[g.GenreID] = true
	}
	for _, g := range b {
		if ids[g.GenreID] {
			return true
		}
	}
	return false
}

type EligibilityService struct {
	db       *gorm.DB
	settings *config.ReviewSettings
}

func NewEligibilityService(db *gorm.DB) *EligibilityService {
	if db == nil {
		db = config.DB
	}
	return &EligibilityService{db: db, settings: config.Review}
}

// Check loads the (track, reviewer) state and evaluates the rules. Used by
// the diagnostics endpoint; the scheduler batches the lookups itself.
func (s *EligibilityService) Check(ctx context.Context, trackID, reviewerID int) (bool, []string, error) {
	var track models.Track
	if err := s.db.WithContext(ctx).Preload("Genres").
		Where("track_id = ? AND delete_at IS NULL", trackID).
		First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, &NotFoundError{Resource: "track", ID: trackID}
		}
		return false, nil, err
	}

	var reviewer models.ReviewerProfile
	if err := s.db.WithContext(ctx).Preload("Genres").
		Where("user_id = ?", reviewerID).
		First(&reviewer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, &NotFoundError{Resource: "reviewer", ID: reviewerID}
		}
		return false, nil, err
	}

	var reviewCount int64
	if err := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("track_id = ? AND reviewer_id = ?", trackID, reviewerID).
		Count(&reviewCount).Error; err != nil {
		return false, nil, err
	}

	var entryCount int64
	if err := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("track_id = ? AND reviewer_id = ?", trackID, reviewerID).
		Count(&entryCount).Error; err != nil {
		return false, nil, err
	}

	eligible, reasons := EvaluateEligibility(EligibilityInput{
		Track:             &track,
		Reviewer:          &reviewer,
		HasExistingReview: reviewCount > 0,
		HasQueueEntry:     entryCount > 0,
		RequireExpert:     track.RequiresExpert(),
		Now:               time.Now(),
	}, s.settings)

	return eligible, reasons, nil
}
