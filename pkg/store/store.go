// Package store persists match documents. Each match is one whole document
// keyed by its game ID and carries a version that increments on every
// replace; writes are conditioned on the version read, which is what gives
// the synchronizer its compare-and-swap semantics.
package store

import (
	"context"

	"github.com/hilltop-games/thegame/pkg/game/types"
)

// VersionNone is the expected version when creating a document that must
// not already exist.
const VersionNone int64 = 0

type Store interface {
	// Get returns the current document and its version.
	Get(ctx context.Context, gameID string) (*types.GameState, int64, error)
	// Put replaces the document if its version still equals version, and
	// returns the new version. Passing VersionNone creates the document,
	// failing if one already exists.
	Put(ctx context.Context, gameID string, state *types.GameState, version int64) (int64, error)
	// Delete removes the document if its version still equals version.
	// Deleting a document that does not exist is not an error.
	Delete(ctx context.Context, gameID string, version int64) error
	Close(ctx context.Context) error
}

type ErrNotFound struct {
	GameID string
}

func (e *ErrNotFound) Error() string {
	return "match not found: " + e.GameID
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

// ErrVersionConflict means the document changed between read and write.
// The synchronizer re-reads and retries; callers never see it directly.
type ErrVersionConflict struct {
	GameID string
}

func (e *ErrVersionConflict) Error() string {
	return "version conflict on match: " + e.GameID
}

func IsVersionConflict(err error) bool {
	_, ok := err.(*ErrVersionConflict)
	return ok
}
