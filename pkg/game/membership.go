package game

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/hilltop-games/thegame/pkg/game/types"
)

// NewMatchID returns a 6-digit join code. Codes only need to be hard to
// guess by accident, not cryptographically random.
func NewMatchID(rng *rand.Rand) string {
	return fmt.Sprintf("%d", 100000+rng.Intn(900000))
}

// DefaultName derives a display name from an opaque identity.
func DefaultName(playerID string) string {
	prefix := playerID
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return fmt.Sprintf("Player %s", prefix)
}

// NewMatch opens a lobby with the given player as host and, until the match
// starts, as the nominal current player.
func NewMatch(gameID, hostID, name string) *types.GameState {
	if name == "" {
		name = DefaultName(hostID)
	}
	state := types.NewGameState(gameID)
	state.Players[hostID] = &types.Player{
		ID:     hostID,
		Name:   name,
		IsHost: true,
	}
	state.CurrentPlayerID = hostID
	return state
}

// Join adds a player to a lobby. Joining a started match is refused, and
// joining twice is a no-op: the existing entry, name included, is kept.
func Join(state *types.GameState, playerID, name string) (*types.GameState, error) {
	if state == nil {
		return nil, &ErrMatchNotFound{}
	}
	if state.IsGameStarted {
		return nil, &ErrAlreadyStarted{GameID: state.GameID}
	}
	if _, ok := state.Players[playerID]; ok {
		return state, nil
	}
	if name == "" {
		name = DefaultName(playerID)
	}

	next := state.Copy()
	next.Players[playerID] = &types.Player{
		ID:   playerID,
		Name: name,
	}
	return next, nil
}

// Rename updates a player's display name. Allowed at any phase.
func Rename(state *types.GameState, playerID, name string) (*types.GameState, error) {
	if state == nil {
		return nil, &ErrMatchNotFound{}
	}
	if _, ok := state.Players[playerID]; !ok {
		return nil, &ErrUnknownPlayer{PlayerID: playerID}
	}

	next := state.Copy()
	next.Players[playerID].Name = name
	return next, nil
}

// Leave removes a player and repairs the match around the hole they leave:
// host reassignment, current-player handover, and forcing a started match
// over when fewer than two players remain. Returning nil means the match is
// empty and the document should be deleted.
func Leave(state *types.GameState, playerID string) (*types.GameState, error) {
	if state == nil {
		return nil, nil
	}
	leaver, ok := state.Players[playerID]
	if !ok {
		return state, nil
	}

	wasHost := leaver.IsHost
	wasCurrent := state.CurrentPlayerID == playerID
	leaverIndex := indexOf(state.PlayerTurnOrder, playerID)

	next := state.Copy()
	delete(next.Players, playerID)
	next.PlayerTurnOrder = removeID(next.PlayerTurnOrder, playerID)

	if len(next.Players) == 0 {
		return nil, nil
	}

	if wasHost {
		var newHostID string
		if len(next.PlayerTurnOrder) > 0 {
			newHostID = next.PlayerTurnOrder[0]
		} else {
			ids := make([]string, 0, len(next.Players))
			for id := range next.Players {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			newHostID = ids[0]
		}
		next.Players[newHostID].IsHost = true
		if !next.IsGameStarted {
			next.CurrentPlayerID = newHostID
		}
	}

	if next.IsGameStarted && wasCurrent && len(next.PlayerTurnOrder) > 0 {
		// The player now occupying the vacated slot takes over. Indices are
		// post-removal, so the leaver's old index lands on their successor.
		nextIndex := 0
		if leaverIndex != -1 {
			nextIndex = leaverIndex % len(next.PlayerTurnOrder)
		}
		next.CurrentPlayerID = next.PlayerTurnOrder[nextIndex]
	}

	if next.IsGameStarted && len(next.Players) < 2 {
		next.IsGameOver = true
		next.WinnerPlayerID = nil
		if len(next.Players) == 1 {
			for id := range next.Players {
				winner := id
				next.WinnerPlayerID = &winner
			}
		}
	}

	return next, nil
}

// Remove drops just the caller from the player map, with none of Leave's
// repairs. It backs the client-side reset, where the caller has already
// detached and the remaining players carry on with whatever state is left.
// Returning nil deletes the match.
func Remove(state *types.GameState, playerID string) (*types.GameState, error) {
	if state == nil {
		return nil, nil
	}
	if _, ok := state.Players[playerID]; !ok {
		return state, nil
	}

	next := state.Copy()
	delete(next.Players, playerID)
	if len(next.Players) == 0 {
		return nil, nil
	}
	return next, nil
}

// ReturnToLobby rebuilds a fresh lobby snapshot from a finished match:
// player identities and the host flag survive, hands, piles, deck and turn
// order are reset. Host-only.
func ReturnToLobby(state *types.GameState, actorID string) (*types.GameState, error) {
	if state == nil {
		return nil, &ErrMatchNotFound{}
	}
	host := state.Host()
	if host == nil || host.ID != actorID {
		return nil, &ErrNotHost{PlayerID: actorID}
	}

	lobby := types.NewGameState(state.GameID)
	for id, p := range state.Players {
		lobby.Players[id] = &types.Player{
			ID:     id,
			Name:   p.Name,
			IsHost: p.IsHost,
		}
	}
	lobby.CurrentPlayerID = host.ID
	return lobby, nil
}

func indexOf(ids []string, id string) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
