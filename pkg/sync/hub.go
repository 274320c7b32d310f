package sync

import (
	"math"
	gosync "sync"

	"github.com/google/uuid"
	"github.com/hilltop-games/thegame/pkg/game/types"
)

// snapshot pairs a document with the store version that produced it, so a
// subscriber can drop deliveries that would move it backwards. A deleted
// match is modelled as the highest possible version: nothing comes after it.
type snapshot struct {
	state   *types.GameState
	version int64
}

func deletedSnapshot() snapshot {
	return snapshot{version: math.MaxInt64}
}

// Subscription is the handle returned by Synchronizer.Subscribe.
type Subscription struct {
	ID     uuid.UUID
	GameID string

	onChange func(state *types.GameState)
	pending  chan snapshot
	done     chan struct{}
	closer   gosync.Once
	lastSeen int64
}

// push hands a snapshot to the delivery goroutine. Only the
// highest-versioned pending snapshot is kept; a slow subscriber skips
// intermediate states rather than falling behind. Publishes for one match
// can interleave across goroutines, so displacing compares versions: an
// older publish must never drain a newer snapshot out of the channel.
func (sub *Subscription) push(snap snapshot) {
	for {
		select {
		case sub.pending <- snap:
			return
		default:
		}
		select {
		case queued := <-sub.pending:
			if queued.version > snap.version {
				snap = queued
			}
		default:
		}
	}
}

func (sub *Subscription) deliver() {
	for {
		select {
		case <-sub.done:
			return
		case snap := <-sub.pending:
			if snap.version < sub.lastSeen {
				continue
			}
			sub.lastSeen = snap.version
			sub.onChange(snap.state)
		}
	}
}

func (sub *Subscription) close() {
	sub.closer.Do(func() {
		close(sub.done)
	})
}

// hub routes committed snapshots to the subscribers of each match.
type hub struct {
	lock gosync.RWMutex
	subs map[string]map[uuid.UUID]*Subscription
}

func newHub() *hub {
	return &hub{
		subs: make(map[string]map[uuid.UUID]*Subscription),
	}
}

func (h *hub) subscribe(gameID string, onChange func(state *types.GameState)) *Subscription {
	sub := &Subscription{
		ID:       uuid.New(),
		GameID:   gameID,
		onChange: onChange,
		pending:  make(chan snapshot, 1),
		done:     make(chan struct{}),
		lastSeen: -1,
	}
	go sub.deliver()

	h.lock.Lock()
	defer h.lock.Unlock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[uuid.UUID]*Subscription)
	}
	h.subs[gameID][sub.ID] = sub
	return sub
}

func (h *hub) unsubscribe(sub *Subscription) {
	h.lock.Lock()
	if subs, ok := h.subs[sub.GameID]; ok {
		delete(subs, sub.ID)
		if len(subs) == 0 {
			delete(h.subs, sub.GameID)
		}
	}
	h.lock.Unlock()
	sub.close()
}

func (h *hub) publish(gameID string, snap snapshot) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for _, sub := range h.subs[gameID] {
		sub.push(snap)
	}
}
