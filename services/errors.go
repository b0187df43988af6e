package services

import "fmt"

// ValidationError rejects malformed input before any store access.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Detail)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Detail)
}

// NotFoundError reports a missing track, review or profile.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// AuthorizationError reports a caller acting on a resource it does not own.
type AuthorizationError struct {
	Detail string
}

func (e *AuthorizationError) Error() string {
	return e.Detail
}

// StateError reports an operation invalid for the resource's current status.
type StateError struct {
	Resource string
	Status   string
	Detail   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s in status %s: %s", e.Resource, e.Status, e.Detail)
}

// CapacityError reports a full track, an exhausted slot allowance or a hit
// daily cap. Current/Limit let the caller decide whether to retry later.
type CapacityError struct {
	Kind    string // "review_slots" | "artist_slots" | "daily_claims"
	Current int
	Limit   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s at capacity (%d/%d)", e.Kind, e.Current, e.Limit)
}

// ConflictError surfaces a unique-constraint violation from a race that
// slipped past the claim lock.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	return e.Detail
}
