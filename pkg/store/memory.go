package store

import (
	"context"
	"sync"

	"github.com/hilltop-games/thegame/pkg/game/types"
)

// MemoryStore keeps match documents in process memory. It is the default
// for single-instance deployments and for tests. Documents are deep-copied
// on the way in and out so callers never alias stored state.
type MemoryStore struct {
	lock    sync.RWMutex
	matches map[string]*memoryEntry
}

type memoryEntry struct {
	state   *types.GameState
	version int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches: make(map[string]*memoryEntry),
	}
}

func (s *MemoryStore) Get(ctx context.Context, gameID string) (*types.GameState, int64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	entry, ok := s.matches[gameID]
	if !ok {
		return nil, VersionNone, &ErrNotFound{GameID: gameID}
	}
	return entry.state.Copy(), entry.version, nil
}

func (s *MemoryStore) Put(ctx context.Context, gameID string, state *types.GameState, version int64) (int64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, ok := s.matches[gameID]
	if version == VersionNone {
		if ok {
			return VersionNone, &ErrVersionConflict{GameID: gameID}
		}
		s.matches[gameID] = &memoryEntry{state: state.Copy(), version: 1}
		return 1, nil
	}
	if !ok {
		return VersionNone, &ErrNotFound{GameID: gameID}
	}
	if entry.version != version {
		return VersionNone, &ErrVersionConflict{GameID: gameID}
	}
	entry.state = state.Copy()
	entry.version++
	return entry.version, nil
}

func (s *MemoryStore) Delete(ctx context.Context, gameID string, version int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, ok := s.matches[gameID]
	if !ok {
		return nil
	}
	if entry.version != version {
		return &ErrVersionConflict{GameID: gameID}
	}
	delete(s.matches, gameID)
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
