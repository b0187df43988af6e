package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"track-review-api/config"
)

func testReviewSettings() *config.ReviewSettings {
	return &config.ReviewSettings{
		MinReviewerAccountAge: 24 * time.Hour,
		EligibilityBypassIDs:  map[int]bool{},
		ClaimCapBypassIDs:     map[int]bool{},
		DailyPeerReviewCap:    2,
		QueueEntryTTL:         48 * time.Hour,
		ProTierMinReviews:     50,
		ProTierMinRating:      4.5,
		MaxSlotsFree:          1,
		MaxSlotsActive:        3,
		PayRateCents:          map[string]int{"NORMAL": 300, "PRO": 500},
	}
}

var (
	dailyCapCountPattern  = regexp.MustCompile("SELECT count\\(\\*\\) FROM `reviews` WHERE peer_reviewer_artist_id = \\?")
	trackSelectPattern    = regexp.MustCompile("SELECT \\* FROM `tracks` WHERE track_id = \\?")
	peerReviewPattern     = regexp.MustCompile("SELECT \\* FROM `reviews` WHERE track_id = \\? AND peer_reviewer_artist_id = \\?")
	completedCountPattern = regexp.MustCompile("SELECT count\\(\\*\\) FROM `reviews` WHERE track_id = \\?.*counts_toward_completion")
	activeCountPattern    = regexp.MustCompile("SELECT count\\(\\*\\) FROM `reviews` WHERE track_id = \\? AND status IN")
)

var trackColumns = []string{
	"track_id", "owner_artist_id", "title", "package_type", "status",
	"reviews_requested", "completed_at", "create_at", "update_at", "delete_at",
}

func peerTrackRow(trackID, ownerID, requested int64, status string) []driver.Value {
	return []driver.Value{trackID, ownerID, "demo track", "PEER", status, requested, nil, nil, nil, nil}
}

func countRows(n int64) ([]string, [][]driver.Value) {
	return []string{"count(*)"}, [][]driver.Value{{n}}
}

func lockStep(pattern string, name string, acquired int64) *queryStep {
	return &queryStep{
		pattern: regexp.MustCompile(pattern),
		args:    []driver.Value{name},
		columns: []string{"status"},
		rows:    [][]driver.Value{{acquired}},
	}
}

// A claim on the last open slot creates the review and queue entry, advances
// the track out of QUEUED, and releases the per-track lock after commit.
func TestClaimLastOpenSlot(t *testing.T) {
	capCols, capRows := countRows(0)
	completedCols, completedRows := countRows(2)
	activeCols, activeRows := countRows(0)

	steps := []*queryStep{
		{pattern: dailyCapCountPattern, columns: capCols, rows: capRows},
		lockStep(`SELECT GET_LOCK`, "track_claim_9", 1),
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{peerTrackRow(9, 100, 3, "QUEUED")}},
		{pattern: peerReviewPattern, columns: []string{"review_id"}, rows: [][]driver.Value{}},
		{pattern: completedCountPattern, columns: completedCols, rows: completedRows},
		{pattern: activeCountPattern, columns: activeCols, rows: activeRows},
		{kind: kindExec, pattern: regexp.MustCompile("INSERT INTO `reviews`"), lastID: 42, rowsAff: 1},
		{kind: kindExec, pattern: regexp.MustCompile("INSERT INTO `queue_entries`"), lastID: 7, rowsAff: 1},
		{kind: kindExec, pattern: regexp.MustCompile("UPDATE `tracks` SET"), rowsAff: 1},
		lockStep(`SELECT RELEASE_LOCK`, "track_claim_9", 1),
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &ClaimService{db: gormDB, settings: testReviewSettings()}

	reviewID, err := service.Claim(context.Background(), 9, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviewID != 42 {
		t.Fatalf("expected review id 42, got %d", reviewID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// With all slots taken the claim fails with a capacity error carrying the
// current counts, and the lock is still released.
func TestClaimFullTrackCapacityError(t *testing.T) {
	capCols, capRows := countRows(0)
	completedCols, completedRows := countRows(2)
	activeCols, activeRows := countRows(1)

	steps := []*queryStep{
		{pattern: dailyCapCountPattern, columns: capCols, rows: capRows},
		lockStep(`SELECT GET_LOCK`, "track_claim_9", 1),
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{peerTrackRow(9, 100, 3, "IN_PROGRESS")}},
		{pattern: peerReviewPattern, columns: []string{"review_id"}, rows: [][]driver.Value{}},
		{pattern: completedCountPattern, columns: completedCols, rows: completedRows},
		{pattern: activeCountPattern, columns: activeCols, rows: activeRows},
		lockStep(`SELECT RELEASE_LOCK`, "track_claim_9", 1),
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &ClaimService{db: gormDB, settings: testReviewSettings()}

	_, err := service.Claim(context.Background(), 9, 55)
	var capacity *CapacityError
	if !errors.As(err, &capacity) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capacity.Current != 3 || capacity.Limit != 3 {
		t.Fatalf("expected 3/3, got %d/%d", capacity.Current, capacity.Limit)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// The daily completed-peer-review cap is checked before any lock is taken.
func TestClaimDailyCapReached(t *testing.T) {
	capCols, capRows := countRows(2)

	steps := []*queryStep{
		{pattern: dailyCapCountPattern, columns: capCols, rows: capRows},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &ClaimService{db: gormDB, settings: testReviewSettings()}

	_, err := service.Claim(context.Background(), 9, 55)
	var capacity *CapacityError
	if !errors.As(err, &capacity) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capacity.Kind != "daily_claims" {
		t.Fatalf("expected daily_claims, got %s", capacity.Kind)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// A repeat claim while the artist's assignment is still active returns the
// existing review id instead of failing.
func TestClaimDuplicateIsIdempotent(t *testing.T) {
	capCols, capRows := countRows(0)

	steps := []*queryStep{
		{pattern: dailyCapCountPattern, columns: capCols, rows: capRows},
		lockStep(`SELECT GET_LOCK`, "track_claim_9", 1),
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{peerTrackRow(9, 100, 3, "IN_PROGRESS")}},
		{
			pattern: peerReviewPattern,
			columns: []string{"review_id", "track_id", "peer_reviewer_artist_id", "status"},
			rows:    [][]driver.Value{{int64(77), int64(9), int64(55), "ASSIGNED"}},
		},
		lockStep(`SELECT RELEASE_LOCK`, "track_claim_9", 1),
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &ClaimService{db: gormDB, settings: testReviewSettings()}

	reviewID, err := service.Claim(context.Background(), 9, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviewID != 77 {
		t.Fatalf("expected review id 77, got %d", reviewID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// Claiming your own track is rejected before any write.
func TestClaimOwnTrackRejected(t *testing.T) {
	capCols, capRows := countRows(0)

	steps := []*queryStep{
		{pattern: dailyCapCountPattern, columns: capCols, rows: capRows},
		lockStep(`SELECT GET_LOCK`, "track_claim_9", 1),
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{peerTrackRow(9, 55, 3, "QUEUED")}},
		lockStep(`SELECT RELEASE_LOCK`, "track_claim_9", 1),
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &ClaimService{db: gormDB, settings: testReviewSettings()}

	_, err := service.Claim(context.Background(), 9, 55)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
