package services

import (
	"testing"

	"track-review-api/models"
)

func TestDeriveTrackStatus(t *testing.T) {
	cases := []struct {
		name      string
		current   string
		requested int
		completed int
		want      string
	}{
		{"queued with no completions stays queued", models.TrackStatusQueued, 3, 0, models.TrackStatusQueued},
		{"first counted completion moves to in progress", models.TrackStatusQueued, 3, 1, models.TrackStatusInProgress},
		{"partial completions stay in progress", models.TrackStatusInProgress, 3, 2, models.TrackStatusInProgress},
		{"reaching requested completes", models.TrackStatusInProgress, 3, 3, models.TrackStatusCompleted},
		{"over requested still completed", models.TrackStatusInProgress, 3, 4, models.TrackStatusCompleted},
		{"flag exclusion moves completed back to in progress", models.TrackStatusCompleted, 3, 2, models.TrackStatusInProgress},
		{"flag exclusion can move completed back to queued", models.TrackStatusCompleted, 1, 0, models.TrackStatusQueued},
		{"uploaded tracks are not derived", models.TrackStatusUploaded, 3, 0, models.TrackStatusUploaded},
		{"pending payment is not derived", models.TrackStatusPendingPayment, 3, 1, models.TrackStatusPendingPayment},
		{"cancelled is terminal", models.TrackStatusCancelled, 3, 3, models.TrackStatusCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveTrackStatus(tc.current, tc.requested, tc.completed)
			if got != tc.want {
				t.Fatalf("DeriveTrackStatus(%s, %d, %d) = %s, want %s",
					tc.current, tc.requested, tc.completed, got, tc.want)
			}
		})
	}
}
