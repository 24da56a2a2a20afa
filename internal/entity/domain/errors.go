package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced ID is absent from the store.
	ErrNotFound = errors.New("not_found")
	// ErrDuplicateID is returned on a creation collision.
	ErrDuplicateID = errors.New("duplicate_id")
	// ErrConsistencyViolation is returned when a child and the parent it is
	// being linked to belong to different enterprises, or when a link would
	// contradict an existing at-most-one edge.
	ErrConsistencyViolation = errors.New("consistency_violation")
	// ErrStillReferenced is returned when deleting an entity that a
	// relationship still points at.
	ErrStillReferenced = errors.New("still_referenced")
)

// NotFound wraps ErrNotFound with the kind and ID that were looked up.
func NotFound(kind Kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// DuplicateID wraps ErrDuplicateID with the colliding kind and ID.
func DuplicateID(kind Kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrDuplicateID)
}

// StillReferenced wraps ErrStillReferenced with the kind and ID that could
// not be deleted.
func StillReferenced(kind Kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrStillReferenced)
}

// ConsistencyViolation wraps ErrConsistencyViolation with a detail message.
func ConsistencyViolation(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConsistencyViolation)...)
}
