package services

import (
	"testing"

	"track-review-api/models"
)

func TestComputeTier(t *testing.T) {
	settings := testReviewSettings()

	cases := []struct {
		name    string
		reviews int
		rating  float64
		want    string
	}{
		{"new reviewer", 0, 0, models.TierNormal},
		{"volume without rating", 80, 4.2, models.TierNormal},
		{"rating without volume", 10, 4.9, models.TierNormal},
		{"both thresholds met", 50, 4.5, models.TierPro},
		{"well past both", 200, 4.9, models.TierPro},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTier(tc.reviews, tc.rating, settings)
			if got != tc.want {
				t.Fatalf("ComputeTier(%d, %.1f) = %s, want %s", tc.reviews, tc.rating, got, tc.want)
			}
		})
	}
}

func TestPayRateCents(t *testing.T) {
	settings := testReviewSettings()

	if got := PayRateCents(models.TierPro, settings); got != 500 {
		t.Fatalf("PRO rate = %d, want 500", got)
	}
	if got := PayRateCents(models.TierNormal, settings); got != 300 {
		t.Fatalf("NORMAL rate = %d, want 300", got)
	}
	// Unknown tiers fall back to the NORMAL rate.
	if got := PayRateCents("MYSTERY", settings); got != 300 {
		t.Fatalf("fallback rate = %d, want 300", got)
	}
}
