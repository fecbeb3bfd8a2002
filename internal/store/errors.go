package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")

	// ErrCommentDeleted rejects a second soft-delete of the same comment.
	ErrCommentDeleted = errors.New("comment already deleted")
)

// VersionConflictError signals an optimistic-lock mismatch. It carries the
// version currently stored so the caller can re-fetch and retry.
type VersionConflictError struct {
	CurrentVersion int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: current version is %d", e.CurrentVersion)
}
