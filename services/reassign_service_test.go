package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
)

func TestReassignSwapsReviewer(t *testing.T) {
	steps := []*queryStep{
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{standardTrackRow(9, 100, 3, "IN_PROGRESS")}},
		{
			pattern: regexp.MustCompile("SELECT \\* FROM `reviews` WHERE track_id = \\? AND reviewer_id = \\? AND status IN"),
			columns: reviewColumns,
			rows: [][]driver.Value{{
				int64(30), int64(9), int64(10), nil, "ASSIGNED",
				int64(1), int64(1), int64(0), nil, int64(0), nil,
			}},
		},
		{pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `queue_entries` WHERE track_id = \\? AND reviewer_id = \\?"), columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(1)}}},
		{pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `reviews` WHERE track_id = \\? AND reviewer_id = \\?"), columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(0)}}},
		{pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `queue_entries` WHERE track_id = \\? AND reviewer_id = \\?"), columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(0)}}},
		{kind: kindExec, pattern: regexp.MustCompile("UPDATE `reviews` SET"), rowsAff: 1},
		{kind: kindExec, pattern: regexp.MustCompile("DELETE FROM `queue_entries` WHERE track_id = \\?"), rowsAff: 1},
		{kind: kindExec, pattern: regexp.MustCompile("INSERT INTO `reviews`"), lastID: 31, rowsAff: 1},
		{kind: kindExec, pattern: regexp.MustCompile("INSERT INTO `queue_entries`"), lastID: 8, rowsAff: 1},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &ReassignService{db: gormDB, settings: testReviewSettings()}

	reviewID, err := service.Reassign(context.Background(), 9, 10, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviewID != 31 {
		t.Fatalf("expected new review id 31, got %d", reviewID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestReassignNewReviewerAlreadyAttached(t *testing.T) {
	steps := []*queryStep{
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{standardTrackRow(9, 100, 3, "IN_PROGRESS")}},
		{
			pattern: regexp.MustCompile("SELECT \\* FROM `reviews` WHERE track_id = \\? AND reviewer_id = \\? AND status IN"),
			columns: reviewColumns,
			rows: [][]driver.Value{{
				int64(30), int64(9), int64(10), nil, "ASSIGNED",
				int64(1), int64(1), int64(0), nil, int64(0), nil,
			}},
		},
		{pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `queue_entries` WHERE track_id = \\? AND reviewer_id = \\?"), columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(1)}}},
		{pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `reviews` WHERE track_id = \\? AND reviewer_id = \\?"), columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(1)}}},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &ReassignService{db: gormDB, settings: testReviewSettings()}

	_, err := service.Reassign(context.Background(), 9, 10, 11)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestReassignCurrentReviewerNotAttached(t *testing.T) {
	steps := []*queryStep{
		{pattern: trackSelectPattern, columns: trackColumns, rows: [][]driver.Value{standardTrackRow(9, 100, 3, "QUEUED")}},
		{
			pattern: regexp.MustCompile("SELECT \\* FROM `reviews` WHERE track_id = \\? AND reviewer_id = \\? AND status IN"),
			columns: reviewColumns,
			rows:    [][]driver.Value{},
		},
		{pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `queue_entries` WHERE track_id = \\? AND reviewer_id = \\?"), columns: []string{"count(*)"}, rows: [][]driver.Value{{int64(0)}}},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := &ReassignService{db: gormDB, settings: testReviewSettings()}

	_, err := service.Reassign(context.Background(), 9, 10, 11)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestReassignSameReviewerRejected(t *testing.T) {
	gormDB, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	service := &ReassignService{db: gormDB, settings: testReviewSettings()}

	_, err := service.Reassign(context.Background(), 9, 10, 10)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
