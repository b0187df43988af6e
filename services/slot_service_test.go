package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
)

var (
	artistProfilePattern = regexp.MustCompile("SELECT \\* FROM `artist_profiles` WHERE user_id = \\?")
	activeTracksPattern  = regexp.MustCompile("SELECT count\\(\\*\\) FROM `tracks` WHERE owner_artist_id = \\?")
)

var artistProfileColumns = []string{"user_id", "subscription_status"}

// A free-plan artist with one active track is refused a second activation.
func TestActivateFreePlanAtCapRefused(t *testing.T) {
	steps := []*queryStep{
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{standardTrackRow(5, 100, 3, "UPLOADED")}},
		{pattern: artistProfilePattern, columns: artistProfileColumns, rows: [][]driver.Value{{int64(100), "free"}}},
		{pattern: activeTracksPattern, columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(1)}}},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &SlotService{
		db:       gormDB,
		settings: testReviewSettings(),
		queue:    &QueueAssignmentService{db: gormDB, settings: testReviewSettings()},
	}

	err := service.ActivateTrack(context.Background(), 5, 100)
	var capacity *CapacityError
	if !errors.As(err, &capacity) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capacity.Kind != "artist_slots" {
		t.Fatalf("expected artist_slots capacity error, got %s", capacity.Kind)
	}
	if capacity.Current != 1 || capacity.Limit != 1 {
		t.Fatalf("expected 1/1 slots, got %d/%d", capacity.Current, capacity.Limit)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// An active subscription gets three slots; two in use leaves room.
func TestActivateActivePlanAdmitted(t *testing.T) {
	steps := []*queryStep{
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{standardTrackRow(5, 100, 3, "UPLOADED")}},
		{pattern: artistProfilePattern, columns: artistProfileColumns, rows: [][]driver.Value{{int64(100), "active"}}},
		{pattern: activeTracksPattern, columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(2)}}},
		{kind: kindExec, pattern: regexp.MustCompile("UPDATE `tracks` SET"), rowsAff: 1},
		// Best-effort scheduler kick; the scripted store has nothing to
		// assign, which the service logs and ignores.
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{}},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &SlotService{
		db:       gormDB,
		settings: testReviewSettings(),
		queue:    &QueueAssignmentService{db: gormDB, settings: testReviewSettings()},
	}

	if err := service.ActivateTrack(context.Background(), 5, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// An already-active track is grandfathered: activation is a no-op and the
// slot count is never consulted.
func TestActivateAlreadyActiveNoOp(t *testing.T) {
	steps := []*queryStep{
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{standardTrackRow(5, 100, 3, "IN_PROGRESS")}},
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{}},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &SlotService{
		db:       gormDB,
		settings: testReviewSettings(),
		queue:    &QueueAssignmentService{db: gormDB, settings: testReviewSettings()},
	}

	if err := service.ActivateTrack(context.Background(), 5, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// Cancelled tracks cannot re-enter the queue.
func TestActivateCancelledTrackRejected(t *testing.T) {
	steps := []*queryStep{
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{standardTrackRow(5, 100, 3, "CANCELLED")}},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &SlotService{
		db:       gormDB,
		settings: testReviewSettings(),
		queue:    &QueueAssignmentService{db: gormDB, settings: testReviewSettings()},
	}

	err := service.ActivateTrack(context.Background(), 5, 100)
	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// CheckSlotAvailable reports the free-plan limit of one.
func TestCheckSlotAvailableFreePlanFull(t *testing.T) {
	steps := []*queryStep{
		{pattern: artistProfilePattern, columns: artistProfileColumns, rows: [][]driver.Value{{int64(100), "free"}}},
		{pattern: activeTracksPattern, columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(1)}}},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &SlotService{
		db:       gormDB,
		settings: testReviewSettings(),
		queue:    &QueueAssignmentService{db: gormDB, settings: testReviewSettings()},
	}

	availability, err := service.CheckSlotAvailable(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if availability.Available {
		t.Fatal("expected no slot available on a full free plan")
	}
	if availability.ActiveCount != 1 || availability.MaxSlots != 1 {
		t.Fatalf("expected 1/1, got %d/%d", availability.ActiveCount, availability.MaxSlots)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
