package game

import (
	"math/rand"
	"sort"

	"github.com/hilltop-games/thegame/pkg/game/types"
)

// StartMatch deals the opening hands and moves a lobby into play. Only the
// host may start, and only with at least two players present. Turn order is
// the sorted set of player identities and stays fixed for the match.
func StartMatch(state *types.GameState, actorID string, rng *rand.Rand) (*types.GameState, error) {
	if state == nil {
		return nil, &ErrMatchNotFound{}
	}
	host := state.Host()
	if host == nil || host.ID != actorID {
		return nil, &ErrNotHost{PlayerID: actorID}
	}
	if state.IsGameStarted {
		return nil, &ErrAlreadyStarted{GameID: state.GameID}
	}
	if len(state.Players) < 2 {
		return nil, &ErrNotEnoughPlayers{Count: len(state.Players)}
	}

	turnOrder := make([]string, 0, len(state.Players))
	for id := range state.Players {
		turnOrder = append(turnOrder, id)
	}
	sort.Strings(turnOrder)

	return DealInitialState(state.GameID, state.Players, turnOrder, rng), nil
}

// PlayCard places one card from the acting player's hand on a pile.
// cardsPlayedThisTurn is the acting client's count before this play; it only
// feeds the mid-turn stuck check and is not part of the snapshot.
func PlayCard(state *types.GameState, actorID string, card int, pile string, cardsPlayedThisTurn int) (*types.GameState, error) {
	if state == nil {
		return nil, &ErrMatchNotFound{}
	}
	if !state.IsGameStarted {
		return nil, &ErrNotStarted{GameID: state.GameID}
	}
	if state.IsGameOver {
		return nil, &ErrMatchOver{GameID: state.GameID}
	}
	if state.CurrentPlayerID != actorID {
		return nil, &ErrNotYourTurn{PlayerID: actorID}
	}
	player := state.Players[actorID]
	if player == nil {
		return nil, &ErrUnknownPlayer{PlayerID: actorID}
	}
	if !holdsCard(player.Hand, card) {
		return nil, &ErrCardNotInHand{PlayerID: actorID, Card: card}
	}
	if !IsValidMove(card, pile, state.Piles) {
		return nil, &ErrIllegalMove{Card: card, Pile: pile}
	}

	next := state.Copy()
	next.Players[actorID].Hand = removeCard(next.Players[actorID].Hand, card)
	next.Piles[pile] = card
	played := pile
	next.LastPlayedPileIndex = &played

	return CheckGameOver(next, cardsPlayedThisTurn+1, false), nil
}

// EndTurn finishes the acting player's turn: refill the hand from the front
// of the deck up to the initial hand size, record how many cards the turn
// played, clear the last-played highlight, and hand play to the next player
// in the fixed circular order. The end-of-turn loss check then runs against
// that next player. Ending is refused below the per-turn minimum.
func EndTurn(state *types.GameState, actorID string, cardsPlayedThisTurn int) (*types.GameState, error) {
	if state == nil {
		return nil, &ErrMatchNotFound{}
	}
	if !state.IsGameStarted {
		return nil, &ErrNotStarted{GameID: state.GameID}
	}
	if state.IsGameOver {
		return nil, &ErrMatchOver{GameID: state.GameID}
	}
	if state.CurrentPlayerID != actorID {
		return nil, &ErrNotYourTurn{PlayerID: actorID}
	}
	player := state.Players[actorID]
	if player == nil {
		return nil, &ErrUnknownPlayer{PlayerID: actorID}
	}
	if required := MinCardsRequired(len(state.Deck)); cardsPlayedThisTurn < required {
		return nil, &ErrMinimumNotMet{Played: cardsPlayedThisTurn, Required: required}
	}

	next := state.Copy()
	acting := next.Players[actorID]

	draw := InitialHandSize(len(next.Players)) - len(acting.Hand)
	if draw < 0 {
		draw = 0
	}
	if draw > len(next.Deck) {
		draw = len(next.Deck)
	}
	acting.Hand = append(acting.Hand, next.Deck[:draw]...)
	sort.Ints(acting.Hand)
	next.Deck = next.Deck[draw:]

	next.LastPlayedCardsCount = cardsPlayedThisTurn
	next.LastPlayedPileIndex = nil
	next.CurrentPlayerID = nextInTurnOrder(next.PlayerTurnOrder, actorID)

	return CheckGameOver(next, 0, true), nil
}

// nextInTurnOrder advances circularly. An empty hand is not a skip
// condition; every member of the turn order keeps taking turns until the
// match ends.
func nextInTurnOrder(turnOrder []string, current string) string {
	for i, id := range turnOrder {
		if id == current {
			return turnOrder[(i+1)%len(turnOrder)]
		}
	}
	return turnOrder[0]
}

func holdsCard(hand []int, card int) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}

func removeCard(hand []int, card int) []int {
	for i, c := range hand {
		if c == card {
			return append(hand[:i], hand[i+1:]...)
		}
	}
	return hand
}
