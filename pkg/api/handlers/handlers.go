package handlers

import (
	"encoding/json"
	"math/rand"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hilltop-games/thegame/pkg/api/middleware"
	"github.com/hilltop-games/thegame/pkg/game"
	"github.com/hilltop-games/thegame/pkg/game/types"
	"github.com/hilltop-games/thegame/pkg/log"
	"github.com/hilltop-games/thegame/pkg/sync"
)

// createMatchAttempts bounds retries when a generated join code collides
// with a live match.
const createMatchAttempts = 5

type createMatchRequest struct {
	Name string `json:"name"`
}

type joinMatchRequest struct {
	Name string `json:"name"`
}

type renamePlayerRequest struct {
	Name string `json:"name"`
}

type playCardRequest struct {
	Card                int    `json:"card"`
	PileID              string `json:"pileId"`
	CardsPlayedThisTurn int    `json:"cardsPlayedThisTurn"`
}

type endTurnRequest struct {
	CardsPlayedThisTurn int `json:"cardsPlayedThisTurn"`
}

// HandleCreateMatch opens a new lobby with the caller as host.
func HandleCreateMatch(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "failed to get user from context", http.StatusInternalServerError)
			return
		}

		req := &createMatchRequest{}
		decodeBody(r, req)

		rng := newRand()
		for attempt := 0; attempt < createMatchAttempts; attempt++ {
			gameID := game.NewMatchID(rng)
			committed, err := synchronizer.Commit(r.Context(), gameID, func(current *types.GameState) (*types.GameState, error) {
				if current != nil {
					return nil, &game.ErrAlreadyStarted{GameID: gameID}
				}
				return game.NewMatch(gameID, userID, req.Name), nil
			})
			if err != nil {
				if game.IsAlreadyStarted(err) {
					continue
				}
				log.Error("failed to create match: %v", err)
				http.Error(w, "failed to create match", http.StatusInternalServerError)
				return
			}
			writeState(w, committed)
			return
		}
		http.Error(w, "failed to allocate a match id", http.StatusServiceUnavailable)
	}
}

// HandleGetMatch returns the current document.
func HandleGetMatch(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := mux.Vars(r)["gameID"]
		state, err := synchronizer.Get(r.Context(), gameID)
		if err != nil {
			writeError(w, gameID, err)
			return
		}
		if state == nil {
			writeError(w, gameID, &game.ErrMatchNotFound{GameID: gameID})
			return
		}
		writeState(w, state)
	}
}

// HandleJoinMatch adds the caller to a lobby.
func HandleJoinMatch(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "failed to get user from context", http.StatusInternalServerError)
			return
		}
		gameID := mux.Vars(r)["gameID"]

		req := &joinMatchRequest{}
		decodeBody(r, req)

		committed, err := synchronizer.Commit(r.Context(), gameID, func(current *types.GameState) (*types.GameState, error) {
			return game.Join(current, userID, req.Name)
		})
		if err != nil {
			writeError(w, gameID, err)
			return
		}
		writeState(w, committed)
	}
}

// HandleRenamePlayer updates the caller's display name.
func HandleRenamePlayer(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "failed to get user from context", http.StatusInternalServerError)
			return
		}
		gameID := mux.Vars(r)["gameID"]

		req := &renamePlayerRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name must not be empty", http.StatusBadRequest)
			return
		}

		committed, err := synchronizer.Commit(r.Context(), gameID, func(current *types.GameState) (*types.GameState, error) {
			return game.Rename(current, userID, req.Name)
		})
		if err != nil {
			writeError(w, gameID, err)
			return
		}
		writeState(w, committed)
	}
}

// HandleStartMatch deals and begins play. Host-only.
func HandleStartMatch(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "failed to get user from context", http.StatusInternalServerError)
			return
		}
		gameID := mux.Vars(r)["gameID"]

		rng := newRand()
		committed, err := synchronizer.Commit(r.Context(), gameID, func(current *types.GameState) (*types.GameState, error) {
			return game.StartMatch(current, userID, rng)
		})
		if err != nil {
			writeError(w, gameID, err)
			return
		}
		writeState(w, committed)
	}
}

// HandlePlayCard plays one card on a pile. cardsPlayedThisTurn is the
// client's process-local counter; it is not part of the shared document.
func HandlePlayCard(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "failed to get user from context", http.StatusInternalServerError)
			return
		}
		gameID := mux.Vars(r)["gameID"]

		req := &playCardRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		committed, err := synchronizer.Commit(r.Context(), gameID, func(current *types.GameState) (*types.GameState, error) {
			return game.PlayCard(current, userID, req.Card, req.PileID, req.CardsPlayedThisTurn)
		})
		if err != nil {
			writeError(w, gameID, err)
			return
		}
		writeState(w, committed)
	}
}

// HandleEndTurn finishes the caller's turn.
func HandleEndTurn(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "failed to get user from context", http.StatusInternalServerError)
			return
		}
		gameID := mux.Vars(r)["gameID"]

		req := &endTurnRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		committed, err := synchronizer.Commit(r.Context(), gameID, func(current *types.GameState) (*types.GameState, error) {
			return game.EndTurn(current, userID, req.CardsPlayedThisTurn)
		})
		if err != nil {
			writeError(w, gameID, err)
			return
		}
		writeState(w, committed)
	}
}

// HandleLeaveMatch removes the caller, with host and turn handover.
func HandleLeaveMatch(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "failed to get user from context", http.StatusInternalServerError)
			return
		}
		gameID := mux.Vars(r)["gameID"]

		committed, err := synchronizer.Commit(r.Context(), gameID, func(current *types.GameState) (*types.GameState, error) {
			return game.Leave(current, userID)
		})
		if err != nil {
			writeError(w, gameID, err)
			return
		}
		writeState(w, committed)
	}
}

// HandleReturnToLobby resets a finished match to a lobby. Host-only.
func HandleReturnToLobby(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "failed to get user from context", http.StatusInternalServerError)
			return
		}
		gameID := mux.Vars(r)["gameID"]

		committed, err := synchronizer.Commit(r.Context(), gameID, func(current *types.GameState) (*types.GameState, error) {
			return game.ReturnToLobby(current, userID)
		})
		if err != nil {
			writeError(w, gameID, err)
			return
		}
		writeState(w, committed)
	}
}

// HandleResetMatch drops just the caller from the match.
func HandleResetMatch(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "failed to get user from context", http.StatusInternalServerError)
			return
		}
		gameID := mux.Vars(r)["gameID"]

		committed, err := synchronizer.Commit(r.Context(), gameID, func(current *types.GameState) (*types.GameState, error) {
			return game.Remove(current, userID)
		})
		if err != nil {
			writeError(w, gameID, err)
			return
		}
		writeState(w, committed)
	}
}

// writeState encodes the committed document; a nil document (deleted match)
// is reported as 204.
func writeState(w http.ResponseWriter, state *types.GameState) {
	if state == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		log.Error("failed to encode match: %v", err)
	}
}

func writeError(w http.ResponseWriter, gameID string, err error) {
	switch {
	case game.IsMatchNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case game.IsNotHost(err), game.IsNotYourTurn(err):
		http.Error(w, err.Error(), http.StatusForbidden)
	case game.IsRefusal(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case sync.IsRetriesExhausted(err):
		// Non-fatal: nothing was written, the caller may simply retry.
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error("operation on match %s failed: %v", gameID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// decodeBody ignores malformed or absent bodies for requests whose fields
// are all optional.
func decodeBody(r *http.Request, v interface{}) {
	if r.Body == nil {
		return
	}
	_ = json.NewDecoder(r.Body).Decode(v)
}

// newRand returns a rand seeded off the global source, so concurrent
// handlers never share an unsynchronized *rand.Rand.
func newRand() *rand.Rand {
	return rand.New(rand.NewSource(rand.Int63()))
}
