package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ReviewSettings carries the scheduler constants. Values are read from the
// environment once at init; tests construct their own instance.
type ReviewSettings struct {
	// MinReviewerAccountAge gates brand-new reviewer accounts out of the
	// assignment pool.
	MinReviewerAccountAge time.Duration

	// EligibilityBypassIDs lists reviewer user IDs (test accounts) that skip
	// the account-age and genre-overlap checks.
	EligibilityBypassIDs map[int]bool

	// ClaimCapBypassIDs lists artist user IDs exempt from the daily peer
	// review cap.
	ClaimCapBypassIDs map[int]bool

	// DailyPeerReviewCap is the number of peer reviews an artist may complete
	// per calendar day.
	DailyPeerReviewCap int

	// QueueEntryTTL is how long an assignment may sit before the reaper
	// expires it.
	QueueEntryTTL time.Duration

	// PRO tier thresholds.
	ProTierMinReviews int
	ProTierMinRating  float64

	// Active-track slots per subscription plan.
	MaxSlotsFree   int
	MaxSlotsActive int

	// PayRateCents maps reviewer tier to the per-review payout.
	PayRateCents map[string]int
}

// Review holds the process-wide settings; populated by InitReviewSettings.
var Review = defaultReviewSettings()

func defaultReviewSettings() *ReviewSettings {
	return &ReviewSettings{
		MinReviewerAccountAge: 24 * time.Hour,
		EligibilityBypassIDs:  map[int]bool{},
		ClaimCapBypassIDs:     map[int]bool{},
		DailyPeerReviewCap:    2,
		QueueEntryTTL:         48 * time.Hour,
		ProTierMinReviews:     50,
		ProTierMinRating:      4.5,
		MaxSlotsFree:          1,
		MaxSlotsActive:        3,
		PayRateCents: map[string]int{
			"NORMAL": 300,
			"PRO":    500,
		},
	}
}

// InitReviewSettings overrides the defaults from environment variables.
func InitReviewSettings() {
	s := defaultReviewSettings()

	if hours := envInt("MIN_REVIEWER_ACCOUNT_AGE_HOURS", 0); hours > 0 {
		s.MinReviewerAccountAge = time.Duration(hours) * time.Hour
	}
	if hours := envInt("QUEUE_ENTRY_TTL_HOURS", 0); hours > 0 {
		s.QueueEntryTTL = time.Duration(hours) * time.Hour
	}
	if n := envInt("DAILY_PEER_REVIEW_CAP", 0); n > 0 {
		s.DailyPeerReviewCap = n
	}
	if n := envInt("PRO_TIER_MIN_REVIEWS", 0); n > 0 {
		s.ProTierMinReviews = n
	}
	if raw := os.Getenv("PRO_TIER_MIN_RATING"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
			s.ProTierMinRating = f
		}
	}
	if n := envInt("MAX_SLOTS_FREE", 0); n > 0 {
		s.MaxSlotsFree = n
	}
	if n := envInt("MAX_SLOTS_ACTIVE", 0); n > 0 {
		s.MaxSlotsActive = n
	}

	s.EligibilityBypassIDs = envIDSet("ELIGIBILITY_BYPASS_USER_IDS")
	s.ClaimCapBypassIDs = envIDSet("CLAIM_CAP_BYPASS_USER_IDS")

	Review = s
}

// MaxSlots resolves the active-track limit for a subscription status.
func (s *ReviewSettings) MaxSlots(subscriptionStatus string) int {
	if subscriptionStatus == "active" {
		return s.MaxSlotsActive
	}
	return s.MaxSlotsFree
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func envIDSet(key string) map[int]bool {
	ids := map[int]bool{}
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.Atoi(part); err == nil {
			ids[id] = true
		}
	}
	return ids
}
