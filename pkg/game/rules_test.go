package game

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/hilltop-games/thegame/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialHandSize(t *testing.T) {
	assert.Equal(t, 7, InitialHandSize(1))
	assert.Equal(t, 7, InitialHandSize(2))
	assert.Equal(t, 6, InitialHandSize(3))
	assert.Equal(t, 6, InitialHandSize(5))
}

func TestMinCardsRequired(t *testing.T) {
	assert.Equal(t, 2, MinCardsRequired(50))
	assert.Equal(t, 2, MinCardsRequired(1))
	assert.Equal(t, 1, MinCardsRequired(0))
}

func TestIsValidMove(t *testing.T) {
	tests := []struct {
		name  string
		card  int
		pile  string
		piles map[string]int
		want  bool
	}{
		{
			name:  "ascending higher card",
			card:  15,
			pile:  "1",
			piles: map[string]int{"1": 10},
			want:  true,
		},
		{
			name:  "ascending lower card",
			card:  5,
			pile:  "1",
			piles: map[string]int{"1": 10},
			want:  false,
		},
		{
			name:  "ascending ten back",
			card:  10,
			pile:  "1",
			piles: map[string]int{"1": 20},
			want:  true,
		},
		{
			name:  "descending higher card",
			card:  65,
			pile:  "3",
			piles: map[string]int{"3": 50},
			want:  false,
		},
		{
			name:  "descending lower card",
			card:  40,
			pile:  "3",
			piles: map[string]int{"3": 50},
			want:  true,
		},
		{
			name:  "descending slightly higher card",
			card:  55,
			pile:  "3",
			piles: map[string]int{"3": 50, "4": 50},
			want:  false,
		},
		{
			name:  "descending exactly ten up",
			card:  60,
			pile:  "4",
			piles: map[string]int{"4": 50},
			want:  true,
		},
		{
			name:  "equal card refused",
			card:  50,
			pile:  "3",
			piles: map[string]int{"3": 50},
			want:  false,
		},
		{
			name:  "unknown pile",
			card:  50,
			pile:  "5",
			piles: map[string]int{"5": 10},
			want:  false,
		},
		{
			name:  "missing pile",
			card:  50,
			pile:  "2",
			piles: map[string]int{"1": 10},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidMove(tt.card, tt.pile, tt.piles))
		})
	}
}

func TestNewDeck(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))
	require.Len(t, deck, 98)

	seen := make(map[int]bool, len(deck))
	for _, card := range deck {
		assert.GreaterOrEqual(t, card, 2)
		assert.LessOrEqual(t, card, 99)
		assert.False(t, seen[card], "card %d appears twice", card)
		seen[card] = true
	}
}

func TestDealInitialState(t *testing.T) {
	players := map[string]*types.Player{
		"alice": {ID: "alice", Name: "Alice", IsHost: true},
		"bob":   {ID: "bob", Name: "Bob"},
		"carol": {ID: "carol", Name: "Carol"},
	}
	turnOrder := []string{"alice", "bob", "carol"}

	state := DealInitialState("123456", players, turnOrder, rand.New(rand.NewSource(42)))

	assert.True(t, state.IsGameStarted)
	assert.False(t, state.IsGameOver)
	assert.Equal(t, "alice", state.CurrentPlayerID)
	assert.Equal(t, turnOrder, state.PlayerTurnOrder)
	assert.Equal(t, types.SeedPiles(), state.Piles)

	// Hands plus deck must be exactly the cards 2..99, each hand sorted
	// ascending at the dealt size.
	all := append([]int(nil), state.Deck...)
	for _, id := range turnOrder {
		hand := state.Players[id].Hand
		require.Len(t, hand, InitialHandSize(len(players)))
		assert.True(t, sort.IntsAreSorted(hand))
		all = append(all, hand...)
	}
	require.Len(t, all, 98)
	sort.Ints(all)
	for i, card := range all {
		assert.Equal(t, i+2, card)
	}
}

func TestDealInitialStateDeterministic(t *testing.T) {
	players := map[string]*types.Player{
		"alice": {ID: "alice", IsHost: true},
		"bob":   {ID: "bob"},
	}
	turnOrder := []string{"alice", "bob"}

	first := DealInitialState("123456", players, turnOrder, rand.New(rand.NewSource(7)))
	second := DealInitialState("123456", players, turnOrder, rand.New(rand.NewSource(7)))

	assert.Equal(t, first, second)
}

func TestCheckGameOverSharedWin(t *testing.T) {
	// Deck empty, every hand empty: a shared win regardless of anything else.
	state := &types.GameState{
		GameID: "123456",
		Players: map[string]*types.Player{
			"alice": {ID: "alice"},
			"bob":   {ID: "bob"},
		},
		Piles:           map[string]int{"1": 98, "2": 1, "3": 100, "4": 100},
		PlayerTurnOrder: []string{"alice", "bob"},
		CurrentPlayerID: "alice",
		IsGameStarted:   true,
	}

	result := CheckGameOver(state, 1, false)
	assert.True(t, result.IsGameOver)
	winner, ok := result.Winner()
	require.True(t, ok)
	assert.Equal(t, types.WinnerAll, winner)
}

func TestCheckGameOverStuckMidTurn(t *testing.T) {
	// Hand [5] with ascending piles far above it and descending piles below
	// it: no legal move in any direction, and with zero cards played the
	// turn cannot be ended either. A loss.
	state := &types.GameState{
		GameID: "123456",
		Players: map[string]*types.Player{
			"alice": {ID: "alice", Hand: []int{5}},
			"bob":   {ID: "bob", Hand: []int{60}},
		},
		Piles:           map[string]int{"1": 50, "2": 50, "3": 4, "4": 4},
		Deck:            []int{20, 30},
		PlayerTurnOrder: []string{"alice", "bob"},
		CurrentPlayerID: "alice",
		IsGameStarted:   true,
	}

	result := CheckGameOver(state, 0, false)
	assert.True(t, result.IsGameOver)
	_, ok := result.Winner()
	assert.False(t, ok)
}

func TestCheckGameOverStuckButMetMinimum(t *testing.T) {
	// Same stuck hand, but the minimum has been met: the player may still
	// legally stop, so no loss is declared mid-turn.
	state := &types.GameState{
		GameID: "123456",
		Players: map[string]*types.Player{
			"alice": {ID: "alice", Hand: []int{5}},
			"bob":   {ID: "bob", Hand: []int{60}},
		},
		Piles:           map[string]int{"1": 50, "2": 50, "3": 4, "4": 4},
		Deck:            []int{20, 30},
		PlayerTurnOrder: []string{"alice", "bob"},
		CurrentPlayerID: "alice",
		IsGameStarted:   true,
	}

	result := CheckGameOver(state, 2, false)
	assert.False(t, result.IsGameOver)
	assert.Same(t, state, result)
}

func TestCheckGameOverEndOfTurn(t *testing.T) {
	// At end of turn the snapshot's current player is the next to act; a
	// non-empty hand with no legal move loses, regardless of counters.
	state := &types.GameState{
		GameID: "123456",
		Players: map[string]*types.Player{
			"alice": {ID: "alice", Hand: []int{60}},
			"bob":   {ID: "bob", Hand: []int{5}},
		},
		Piles:           map[string]int{"1": 50, "2": 50, "3": 4, "4": 4},
		Deck:            []int{20},
		PlayerTurnOrder: []string{"alice", "bob"},
		CurrentPlayerID: "bob",
		IsGameStarted:   true,
	}

	result := CheckGameOver(state, 0, true)
	assert.True(t, result.IsGameOver)
	_, ok := result.Winner()
	assert.False(t, ok)
}

func TestCheckGameOverEndOfTurnEmptyHandSurvives(t *testing.T) {
	// An empty hand is not a loss at end of turn; the player just draws
	// nothing and play continues until the win or a genuine stuck player.
	state := &types.GameState{
		GameID: "123456",
		Players: map[string]*types.Player{
			"alice": {ID: "alice", Hand: []int{60}},
			"bob":   {ID: "bob"},
		},
		Piles:           map[string]int{"1": 50, "2": 50, "3": 50, "4": 50},
		Deck:            []int{20},
		PlayerTurnOrder: []string{"alice", "bob"},
		CurrentPlayerID: "bob",
		IsGameStarted:   true,
	}

	result := CheckGameOver(state, 0, true)
	assert.False(t, result.IsGameOver)
}

func TestCheckGameOverIdempotent(t *testing.T) {
	state := &types.GameState{
		GameID: "123456",
		Players: map[string]*types.Player{
			"alice": {ID: "alice"},
			"bob":   {ID: "bob"},
		},
		Piles:           map[string]int{"1": 98, "2": 1, "3": 100, "4": 100},
		PlayerTurnOrder: []string{"alice", "bob"},
		CurrentPlayerID: "alice",
		IsGameStarted:   true,
	}

	once := CheckGameOver(state, 0, true)
	twice := CheckGameOver(once, 0, true)
	assert.Equal(t, once, twice)
}
