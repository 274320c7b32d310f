// Package sync funnels every mutation of a match document through an
// optimistic-concurrency commit loop and pushes committed documents to
// subscribers. Nothing blocks on a lock: a commit that loses a race simply
// re-reads and re-runs its transform against the newer document.
package sync

import (
	"context"
	"fmt"

	"github.com/hilltop-games/thegame/pkg/game/types"
	"github.com/hilltop-games/thegame/pkg/log"
	"github.com/hilltop-games/thegame/pkg/store"
)

// Transform derives the next document from the current one. It receives nil
// when the match does not exist and returns nil to delete the match.
// Transforms must be pure functions of the document they are given; they are
// re-run verbatim when a commit conflicts.
type Transform func(current *types.GameState) (*types.GameState, error)

// DefaultMaxRetries bounds the number of compare-and-swap attempts per
// commit before the conflict is surfaced to the caller.
const DefaultMaxRetries = 10

type Synchronizer struct {
	store      store.Store
	notifier   Notifier
	maxRetries int
	hub        *hub
}

type NewSynchronizerOptions struct {
	Store store.Store
	// Notifier fans committed game IDs out to other server instances.
	// Defaults to a no-op for single-instance deployments.
	Notifier   Notifier
	MaxRetries int
}

func NewSynchronizer(opts NewSynchronizerOptions) *Synchronizer {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Synchronizer{
		store:      opts.Store,
		notifier:   notifier,
		maxRetries: maxRetries,
		hub:        newHub(),
	}
}

// Start begins consuming remote change notifications. Commits work without
// it; only cross-instance delivery needs it.
func (s *Synchronizer) Start(ctx context.Context) error {
	return s.notifier.Subscribe(func(gameID string) {
		s.refresh(ctx, gameID)
	})
}

// Commit reads the current document, applies transform, and writes the
// result conditioned on the document not having changed since the read.
// Conflicts retry transparently. The committed document is returned; nil
// means the match does not exist (any longer). A transform error aborts the
// commit with no write and is returned alongside the document it was
// evaluated against.
func (s *Synchronizer) Commit(ctx context.Context, gameID string, transform Transform) (*types.GameState, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		current, version, err := s.store.Get(ctx, gameID)
		if err != nil {
			if !store.IsNotFound(err) {
				return nil, fmt.Errorf("failed to read match %s: %v", gameID, err)
			}
			current, version = nil, store.VersionNone
		}

		next, err := transform(current)
		if err != nil {
			return current, err
		}

		if next == nil {
			if current == nil {
				return nil, nil
			}
			if err := s.store.Delete(ctx, gameID, version); err != nil {
				if store.IsVersionConflict(err) {
					log.Debug("commit conflict deleting match %s, retrying", gameID)
					continue
				}
				return nil, fmt.Errorf("failed to delete match %s: %v", gameID, err)
			}
			s.hub.publish(gameID, deletedSnapshot())
			s.notify(gameID)
			return nil, nil
		}

		// A transform that hands back the document it was given is a no-op;
		// don't bump the version or wake subscribers.
		if next == current {
			return current, nil
		}

		newVersion, err := s.store.Put(ctx, gameID, next, version)
		if err != nil {
			// A racing delete makes the conditional write come back
			// not-found; both cases mean the document changed since the
			// read, so re-run the transform against the current state.
			if store.IsVersionConflict(err) || store.IsNotFound(err) {
				log.Debug("commit conflict on match %s, retrying", gameID)
				continue
			}
			return nil, fmt.Errorf("failed to write match %s: %v", gameID, err)
		}
		s.hub.publish(gameID, snapshot{state: next, version: newVersion})
		s.notify(gameID)
		return next, nil
	}
	return nil, &ErrRetriesExhausted{GameID: gameID, Attempts: s.maxRetries}
}

// Get returns the current committed document, or nil if the match does not
// exist.
func (s *Synchronizer) Get(ctx context.Context, gameID string) (*types.GameState, error) {
	current, _, err := s.store.Get(ctx, gameID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read match %s: %v", gameID, err)
	}
	return current, nil
}

// Subscribe registers onChange for a match and immediately delivers the
// current document (nil if the match does not exist). Delivery is
// at-least-once and monotonic per subscriber: a later call never reflects an
// earlier commit. onChange receiving nil after a non-nil document means the
// match was deleted.
func (s *Synchronizer) Subscribe(ctx context.Context, gameID string, onChange func(state *types.GameState)) (*Subscription, error) {
	sub := s.hub.subscribe(gameID, onChange)

	current, version, err := s.store.Get(ctx, gameID)
	if err != nil {
		if !store.IsNotFound(err) {
			s.hub.unsubscribe(sub)
			return nil, fmt.Errorf("failed to read match %s: %v", gameID, err)
		}
		sub.push(snapshot{})
		return sub, nil
	}
	sub.push(snapshot{state: current, version: version})
	return sub, nil
}

// Unsubscribe stops delivery. Safe to call more than once.
func (s *Synchronizer) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	s.hub.unsubscribe(sub)
}

// refresh re-reads a match after a remote instance committed to it and fans
// the result out to local subscribers.
func (s *Synchronizer) refresh(ctx context.Context, gameID string) {
	current, version, err := s.store.Get(ctx, gameID)
	if err != nil {
		if store.IsNotFound(err) {
			s.hub.publish(gameID, deletedSnapshot())
			return
		}
		log.Error("failed to refresh match %s: %v", gameID, err)
		return
	}
	s.hub.publish(gameID, snapshot{state: current, version: version})
}

func (s *Synchronizer) notify(gameID string) {
	if err := s.notifier.Publish(gameID); err != nil {
		log.Warn("failed to notify peers about match %s: %v", gameID, err)
	}
}

type ErrRetriesExhausted struct {
	GameID   string
	Attempts int
}

func (e *ErrRetriesExhausted) Error() string {
	return fmt.Sprintf("commit to match %s still conflicting after %d attempts", e.GameID, e.Attempts)
}

func IsRetriesExhausted(err error) bool {
	_, ok := err.(*ErrRetriesExhausted)
	return ok
}
