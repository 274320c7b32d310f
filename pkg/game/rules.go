// Package game implements the rules of the cooperative card game and the
// pure transforms that drive a match through its lifecycle. Nothing in this
// package performs I/O; every function derives a new snapshot from the one
// it is given so that transforms are safe to re-run on commit conflicts.
package game

import (
	"math/rand"
	"sort"

	"github.com/hilltop-games/thegame/pkg/game/types"
)

const (
	// DeckLowest and DeckHighest bound the card values in the deck. The 1
	// and 100 only ever exist as pile seeds.
	DeckLowest  = 2
	DeckHighest = 99

	// MinCardsPerTurn is the number of cards a player must play before
	// ending a turn, while cards remain in the deck.
	MinCardsPerTurn = 2
	// MinCardsPerTurnEmptyDeck applies once the deck has run out.
	MinCardsPerTurnEmptyDeck = 1
)

// InitialHandSize returns the number of cards dealt to each player.
func InitialHandSize(numPlayers int) int {
	if numPlayers <= 2 {
		return 7
	}
	return 6
}

// MinCardsRequired returns the minimum number of cards that must be played
// this turn before the turn may be ended voluntarily.
func MinCardsRequired(deckSize int) int {
	if deckSize == 0 {
		return MinCardsPerTurnEmptyDeck
	}
	return MinCardsPerTurn
}

// IsValidMove reports whether card may be placed on the given pile.
// Ascending piles accept a higher card or one exactly 10 lower; descending
// piles accept a lower card or one exactly 10 higher. Unknown piles never
// accept a card.
func IsValidMove(card int, pile string, piles map[string]int) bool {
	top, ok := piles[pile]
	if !ok {
		return false
	}
	switch pile {
	case types.PileUpFirst, types.PileUpSecond:
		return card > top || card == top-10
	case types.PileDownFirst, types.PileDownSecond:
		return card < top || card == top+10
	default:
		return false
	}
}

// HasAnyLegalMove reports whether at least one card in the hand can be
// played on at least one pile.
func HasAnyLegalMove(hand []int, piles map[string]int) bool {
	for _, card := range hand {
		for pile := range piles {
			if IsValidMove(card, pile, piles) {
				return true
			}
		}
	}
	return false
}

// NewDeck returns the full 98-card deck in a uniformly random order.
func NewDeck(rng *rand.Rand) []int {
	deck := make([]int, 0, DeckHighest-DeckLowest+1)
	for card := DeckLowest; card <= DeckHighest; card++ {
		deck = append(deck, card)
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// DealInitialState builds the starting snapshot of a match: a shuffled deck,
// hands dealt sequentially in turn order and sorted ascending, piles reset
// to their seed values, and the first player in turn order to act.
func DealInitialState(gameID string, players map[string]*types.Player, turnOrder []string, rng *rand.Rand) *types.GameState {
	deck := NewDeck(rng)
	handSize := InitialHandSize(len(players))

	dealt := make(map[string]*types.Player, len(players))
	for _, id := range turnOrder {
		player := players[id].Copy()
		player.Hand = append([]int(nil), deck[:handSize]...)
		deck = deck[handSize:]
		sort.Ints(player.Hand)
		dealt[id] = player
	}

	return &types.GameState{
		GameID:          gameID,
		Players:         dealt,
		Piles:           types.SeedPiles(),
		Deck:            deck,
		PlayerTurnOrder: append([]string(nil), turnOrder...),
		CurrentPlayerID: turnOrder[0],
		IsGameStarted:   true,
	}
}

// CheckGameOver applies the win and loss rules to a snapshot and returns the
// resulting snapshot. The win condition is checked unconditionally first.
// When endOfTurn is true the snapshot's current player is the player about
// to act next, and an empty set of legal moves against a non-empty hand is a
// loss. Mid-turn, a stuck player only loses if they also cannot legally end
// the turn, i.e. they have not yet played the required minimum; a player who
// has met the minimum may still stop, so no loss is declared even with no
// legal move left. The function is idempotent on terminal snapshots.
func CheckGameOver(state *types.GameState, cardsPlayedThisTurn int, endOfTurn bool) *types.GameState {
	if len(state.Deck) == 0 && allHandsEmpty(state) {
		won := state.Copy()
		won.IsGameOver = true
		winner := types.WinnerAll
		won.WinnerPlayerID = &winner
		return won
	}

	current := state.CurrentPlayer()
	if current == nil {
		return state
	}
	hasMove := HasAnyLegalMove(current.Hand, state.Piles)

	if endOfTurn {
		if len(current.Hand) > 0 && !hasMove {
			return lost(state)
		}
		return state
	}

	canEndTurn := cardsPlayedThisTurn >= MinCardsRequired(len(state.Deck))
	if !canEndTurn && len(current.Hand) > 0 && !hasMove {
		return lost(state)
	}
	return state
}

func lost(state *types.GameState) *types.GameState {
	over := state.Copy()
	over.IsGameOver = true
	over.WinnerPlayerID = nil
	return over
}

func allHandsEmpty(state *types.GameState) bool {
	for _, p := range state.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}
