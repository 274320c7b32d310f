// Package session is the client side of a match: it subscribes to the
// shared document, keeps the process-local bits of state the document does
// not carry (selected card, cards played this turn), and turns user intents
// into synchronizer commits with an optimistic local echo.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	gosync "sync"

	"github.com/hilltop-games/thegame/pkg/game"
	"github.com/hilltop-games/thegame/pkg/game/types"
	"github.com/hilltop-games/thegame/pkg/log"
	"github.com/hilltop-games/thegame/pkg/sync"
)

// createMatchAttempts bounds retries when a generated join code is taken.
const createMatchAttempts = 5

var errMatchIDTaken = errors.New("match id already taken")

type Session struct {
	synchronizer *sync.Synchronizer
	userID       string
	rng          *rand.Rand
	onUpdate     func(state *types.GameState)

	mu                  gosync.Mutex
	state               *types.GameState
	sub                 *sync.Subscription
	cardsPlayedThisTurn int
	selectedCard        int
	hasSelection        bool
}

type NewSessionOptions struct {
	Synchronizer *sync.Synchronizer
	UserID       string
	Rng          *rand.Rand
	// OnUpdate is invoked with every newly observed document (nil when the
	// match is gone). Typically this triggers a re-render.
	OnUpdate func(state *types.GameState)
}

func NewSession(opts NewSessionOptions) *Session {
	return &Session{
		synchronizer: opts.Synchronizer,
		userID:       opts.UserID,
		rng:          opts.Rng,
		onUpdate:     opts.OnUpdate,
	}
}

func (s *Session) UserID() string {
	return s.userID
}

// State returns the latest observed document. Callers must treat it as
// read-only.
func (s *Session) State() *types.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) CardsPlayedThisTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardsPlayedThisTurn
}

// CreateMatch opens a new lobby with this user as host and attaches to it.
func (s *Session) CreateMatch(ctx context.Context) (string, error) {
	for attempt := 0; attempt < createMatchAttempts; attempt++ {
		gameID := game.NewMatchID(s.rng)
		committed, err := s.synchronizer.Commit(ctx, gameID, func(current *types.GameState) (*types.GameState, error) {
			if current != nil {
				return nil, errMatchIDTaken
			}
			return game.NewMatch(gameID, s.userID, ""), nil
		})
		if err != nil {
			if errors.Is(err, errMatchIDTaken) {
				continue
			}
			return "", fmt.Errorf("failed to create match: %v", err)
		}
		if err := s.attach(ctx, gameID, committed); err != nil {
			return "", err
		}
		return gameID, nil
	}
	return "", fmt.Errorf("failed to find a free match id after %d attempts", createMatchAttempts)
}

// JoinMatch adds this user to an existing lobby and attaches to it.
func (s *Session) JoinMatch(ctx context.Context, gameID string) error {
	committed, err := s.synchronizer.Commit(ctx, gameID, func(current *types.GameState) (*types.GameState, error) {
		return game.Join(current, s.userID, "")
	})
	if err != nil {
		return err
	}
	return s.attach(ctx, gameID, committed)
}

// Watch attaches to a match without mutating it, e.g. to rejoin one this
// user is already part of. The first observed document arrives through the
// subscription.
func (s *Session) Watch(ctx context.Context, gameID string) error {
	return s.attach(ctx, gameID, nil)
}

// Rename updates this user's display name.
func (s *Session) Rename(ctx context.Context, name string) error {
	gameID, ok := s.currentGameID()
	if !ok {
		return nil
	}
	_, err := s.synchronizer.Commit(ctx, gameID, func(current *types.GameState) (*types.GameState, error) {
		return game.Rename(current, s.userID, name)
	})
	return err
}

// StartMatch deals and begins play. Host-only; refusals are no-ops.
func (s *Session) StartMatch(ctx context.Context) error {
	gameID, ok := s.currentGameID()
	if !ok {
		return nil
	}
	_, err := s.synchronizer.Commit(ctx, gameID, func(current *types.GameState) (*types.GameState, error) {
		return game.StartMatch(current, s.userID, s.rng)
	})
	if err != nil && game.IsRefusal(err) {
		log.Debug("start match refused: %v", err)
		return nil
	}
	return err
}

// SelectCard toggles the selected card.
func (s *Session) SelectCard(card int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasSelection && s.selectedCard == card {
		s.hasSelection = false
		return
	}
	s.selectedCard = card
	s.hasSelection = true
}

// SelectedCard returns the selected card, if any.
func (s *Session) SelectedCard() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedCard, s.hasSelection
}

// PlayCard plays the selected card on the given pile. An illegal move just
// clears the selection; nothing is committed.
func (s *Session) PlayCard(ctx context.Context, pile string) error {
	s.mu.Lock()
	if s.state == nil || !s.hasSelection || s.state.CurrentPlayerID != s.userID {
		s.mu.Unlock()
		return nil
	}
	card := s.selectedCard
	if !game.IsValidMove(card, pile, s.state.Piles) {
		s.hasSelection = false
		s.mu.Unlock()
		return nil
	}
	gameID := s.state.GameID
	played := s.cardsPlayedThisTurn
	s.mu.Unlock()

	committed, err := s.synchronizer.Commit(ctx, gameID, func(current *types.GameState) (*types.GameState, error) {
		return game.PlayCard(current, s.userID, card, pile, played)
	})
	if err != nil {
		if game.IsRefusal(err) {
			log.Debug("play refused: %v", err)
			s.clearSelection()
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.cardsPlayedThisTurn++
	s.state = committed
	s.hasSelection = false
	s.mu.Unlock()
	return nil
}

// CanEndTurn reports whether ending the turn would currently be accepted.
// The UI uses it to disable the end-turn action rather than surface errors.
func (s *Session) CanEndTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || s.state.CurrentPlayerID != s.userID {
		return false
	}
	return s.cardsPlayedThisTurn >= game.MinCardsRequired(len(s.state.Deck))
}

// EndTurn finishes this user's turn.
func (s *Session) EndTurn(ctx context.Context) error {
	if !s.CanEndTurn() {
		return nil
	}
	s.mu.Lock()
	gameID := s.state.GameID
	played := s.cardsPlayedThisTurn
	s.mu.Unlock()

	committed, err := s.synchronizer.Commit(ctx, gameID, func(current *types.GameState) (*types.GameState, error) {
		return game.EndTurn(current, s.userID, played)
	})
	if err != nil {
		if game.IsRefusal(err) {
			log.Debug("end turn refused: %v", err)
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.state = committed
	s.mu.Unlock()
	return nil
}

// ReturnToLobby resets a finished match to a fresh lobby. Host-only.
func (s *Session) ReturnToLobby(ctx context.Context) error {
	gameID, ok := s.currentGameID()
	if !ok {
		return nil
	}
	_, err := s.synchronizer.Commit(ctx, gameID, func(current *types.GameState) (*types.GameState, error) {
		return game.ReturnToLobby(current, s.userID)
	})
	if err != nil && game.IsRefusal(err) {
		log.Debug("return to lobby refused: %v", err)
		return nil
	}
	return err
}

// Leave removes this user from the match, detaching the subscription first
// so no further callbacks fire for a match the user has abandoned.
func (s *Session) Leave(ctx context.Context) error {
	gameID, ok := s.detach()
	if !ok {
		return nil
	}
	_, err := s.synchronizer.Commit(ctx, gameID, func(current *types.GameState) (*types.GameState, error) {
		return game.Leave(current, s.userID)
	})
	return err
}

// Reset drops just this user from the match and resets local state, without
// Leave's host or turn handover.
func (s *Session) Reset(ctx context.Context) error {
	gameID, ok := s.detach()
	if !ok {
		return nil
	}
	_, err := s.synchronizer.Commit(ctx, gameID, func(current *types.GameState) (*types.GameState, error) {
		return game.Remove(current, s.userID)
	})
	return err
}

// Close detaches without mutating the shared document.
func (s *Session) Close() {
	s.detach()
}

func (s *Session) attach(ctx context.Context, gameID string, initial *types.GameState) error {
	s.detach()

	sub, err := s.synchronizer.Subscribe(ctx, gameID, s.handleChange)
	if err != nil {
		return fmt.Errorf("failed to subscribe to match %s: %v", gameID, err)
	}

	s.mu.Lock()
	s.sub = sub
	if initial != nil {
		s.applyLocked(initial)
	}
	s.mu.Unlock()
	return nil
}

// detach drops the subscription and clears local state, returning the match
// the session was attached to.
func (s *Session) detach() (string, bool) {
	s.mu.Lock()
	sub := s.sub
	gameID := ""
	if s.state != nil {
		gameID = s.state.GameID
	}
	s.sub = nil
	s.state = nil
	s.cardsPlayedThisTurn = 0
	s.hasSelection = false
	s.mu.Unlock()

	if sub != nil {
		s.synchronizer.Unsubscribe(sub)
	}
	return gameID, gameID != ""
}

func (s *Session) currentGameID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return "", false
	}
	return s.state.GameID, true
}

func (s *Session) clearSelection() {
	s.mu.Lock()
	s.hasSelection = false
	s.mu.Unlock()
}

// handleChange is the subscription callback.
func (s *Session) handleChange(state *types.GameState) {
	s.mu.Lock()
	if state == nil {
		// The match was deleted under us; reset to an empty lobby.
		sub := s.sub
		s.sub = nil
		s.state = nil
		s.cardsPlayedThisTurn = 0
		s.hasSelection = false
		s.mu.Unlock()
		if sub != nil {
			s.synchronizer.Unsubscribe(sub)
		}
		if s.onUpdate != nil {
			s.onUpdate(nil)
		}
		return
	}
	s.applyLocked(state)
	s.mu.Unlock()
	if s.onUpdate != nil {
		s.onUpdate(state)
	}
}

// applyLocked installs a newly observed document. The per-turn play counter
// is reset on the edge "the current player became me", not by polling; this
// is the one piece of local state that must track the shared document.
func (s *Session) applyLocked(state *types.GameState) {
	previousCurrent := ""
	if s.state != nil {
		previousCurrent = s.state.CurrentPlayerID
	}
	if previousCurrent != state.CurrentPlayerID && state.CurrentPlayerID == s.userID {
		s.cardsPlayedThisTurn = 0
	}
	s.state = state
}
