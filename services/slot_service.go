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

// SlotAvailability is the payload for checkSlotAvailable.
type SlotAvailability struct {
	Available   bool `json:"available"`
	ActiveCount int  `json:"active_count"`
	MaxSlots    int  `json:"max_slots"`
}

// SlotService caps how many tracks an artist may have active at once. The
// check runs only when a track first transitions into an active status;
// tracks already active are grandfathered and never forcibly deactivated.
type SlotService struct {
	db       *gorm.DB
	settings *config.ReviewSettings
	queue    *QueueAssignmentService
}

func NewSlotService(db *gorm.DB) *SlotService {
	if db == nil {
		db = config.DB
	}
	return &SlotService{
		db:       db,
		settings: config.Review,
		queue:    NewQueueAssignmentService(db),
	}
}

// CheckSlotAvailable reports whether the artist can activate another track.
func (s *SlotService) CheckSlotAvailable(ctx context.Context, artistID int) (*SlotAvailability, error) {
	return s.availability(s.db.WithContext(ctx), artistID)
}

func (s *SlotService) availability(tx *gorm.DB, artistID int) (*SlotAvailability, error) {
	var profile models.ArtistProfile
	if err := tx.Where("user_id = ?", artistID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "artist", ID: artistID}
		}
		return nil, err
	}

	var active int64
	if err := tx.Model(&models.Track{}).
		Where("owner_artist_id = ? AND status IN ? AND delete_at IS NULL",
			artistID, []string{models.TrackStatusQueued, models.TrackStatusInProgress}).
		Count(&active).Error; err != nil {
		return nil, err
	}

	maxSlots := s.settings.MaxSlots(profile.SubscriptionStatus)
	return &SlotAvailability{
		Available:   int(active) < maxSlots,
		ActiveCount: int(active),
		MaxSlots:    maxSlots,
	}, nil
}

// ActivateTrack admits the track into the queue if the artist has a free
// slot, then kicks the scheduler once to fill its review slots.
func (s *SlotService) ActivateTrack(ctx context.Context, trackID, callerArtistID int) error {
	if trackID <= 0 {
		return &ValidationError{Field: "track_id", Detail: "must be positive"}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var track models.Track
		if err := tx.Where("track_id = ? AND delete_at IS NULL", trackID).First(&track).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "track", ID: trackID}
			}
			return err
		}
		if track.OwnerArtistID != callerArtistID {
			return &AuthorizationError{Detail: "only the track owner can activate it"}
		}

		switch track.Status {
		case models.TrackStatusQueued, models.TrackStatusInProgress:
			// Already active; nothing to admit.
			return nil
		case models.TrackStatusUploaded, models.TrackStatusPendingPayment:
		default:
			return &StateError{Resource: "track", Status: track.Status, Detail: "track cannot be activated"}
		}

		availability, err := s.availability(tx, callerArtistID)
		if err != nil {
			return err
		}
		if !availability.Available {
			return &CapacityError{Kind: "artist_slots", Current: availability.ActiveCount, Limit: availability.MaxSlots}
		}

		return tx.Model(&models.Track{}).
			Where("track_id = ?", trackID).
			Updates(map[string]interface{}{
				"status":    models.TrackStatusQueued,
				"update_at": time.Now(),
			}).Error
	})
	if err != nil {
		return err
	}

	// First scheduler pass for the freshly queued track. Best-effort: a
	// failure here leaves the track queued for a later pass.
	if _, err := s.queue.Assign(ctx, trackID); err != nil {
		log.Printf("initial assignment failed for track %d: %v", trackID, err)
	}
	return nil
}
