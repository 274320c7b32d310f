package game

import (
	"math/rand"
	"testing"

	"github.com/hilltop-games/thegame/pkg/game/types"
	"github.com/jinzhu/copier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(1234))
}

func lobbyWith(ids ...string) *types.GameState {
	state := NewMatch("123456", ids[0], "")
	for _, id := range ids[1:] {
		var err error
		state, err = Join(state, id, "")
		if err != nil {
			panic(err)
		}
	}
	return state
}

func startedMatch(t *testing.T, ids ...string) *types.GameState {
	t.Helper()
	state, err := StartMatch(lobbyWith(ids...), ids[0], newTestRand())
	require.NoError(t, err)
	return state
}

func TestStartMatch(t *testing.T) {
	t.Run("host starts with sorted turn order", func(t *testing.T) {
		state, err := StartMatch(lobbyWith("carol", "alice", "bob"), "carol", newTestRand())
		require.NoError(t, err)
		assert.True(t, state.IsGameStarted)
		assert.Equal(t, []string{"alice", "bob", "carol"}, state.PlayerTurnOrder)
		assert.Equal(t, "alice", state.CurrentPlayerID)
		for _, p := range state.Players {
			assert.Len(t, p.Hand, 6)
		}
	})

	t.Run("non-host refused", func(t *testing.T) {
		_, err := StartMatch(lobbyWith("alice", "bob"), "bob", newTestRand())
		assert.True(t, IsNotHost(err))
	})

	t.Run("needs two players", func(t *testing.T) {
		_, err := StartMatch(lobbyWith("alice"), "alice", newTestRand())
		assert.True(t, IsNotEnoughPlayers(err))
	})

	t.Run("cannot start twice", func(t *testing.T) {
		state := startedMatch(t, "alice", "bob")
		_, err := StartMatch(state, "alice", newTestRand())
		assert.True(t, IsAlreadyStarted(err))
	})

	t.Run("missing match", func(t *testing.T) {
		_, err := StartMatch(nil, "alice", newTestRand())
		assert.True(t, IsMatchNotFound(err))
	})
}

func TestPlayCard(t *testing.T) {
	base := func() *types.GameState {
		return &types.GameState{
			GameID: "123456",
			Players: map[string]*types.Player{
				"alice": {ID: "alice", Hand: []int{5, 12, 40}},
				"bob":   {ID: "bob", Hand: []int{7, 8, 9}, IsHost: true},
			},
			Piles:           map[string]int{"1": 10, "2": 1, "3": 100, "4": 100},
			Deck:            []int{33, 44, 55},
			PlayerTurnOrder: []string{"alice", "bob"},
			CurrentPlayerID: "alice",
			IsGameStarted:   true,
		}
	}

	t.Run("places card and records pile", func(t *testing.T) {
		state := base()
		next, err := PlayCard(state, "alice", 12, "1", 0)
		require.NoError(t, err)
		assert.Equal(t, 12, next.Piles["1"])
		assert.Equal(t, []int{5, 40}, next.Players["alice"].Hand)
		require.NotNil(t, next.LastPlayedPileIndex)
		assert.Equal(t, "1", *next.LastPlayedPileIndex)
		assert.False(t, next.IsGameOver)
	})

	t.Run("does not mutate the input snapshot", func(t *testing.T) {
		state := base()
		var before types.GameState
		require.NoError(t, copier.CopyWithOption(&before, state, copier.Option{DeepCopy: true}))

		_, err := PlayCard(state, "alice", 12, "1", 0)
		require.NoError(t, err)
		assert.Equal(t, &before, state)
	})

	t.Run("not your turn", func(t *testing.T) {
		_, err := PlayCard(base(), "bob", 7, "1", 0)
		assert.True(t, IsNotYourTurn(err))
	})

	t.Run("card not in hand", func(t *testing.T) {
		_, err := PlayCard(base(), "alice", 99, "1", 0)
		assert.True(t, IsCardNotInHand(err))
	})

	t.Run("illegal placement", func(t *testing.T) {
		_, err := PlayCard(base(), "alice", 5, "1", 0)
		assert.True(t, IsIllegalMove(err))
	})

	t.Run("ten back is legal", func(t *testing.T) {
		state := base()
		state.Piles["1"] = 15
		next, err := PlayCard(state, "alice", 5, "1", 0)
		require.NoError(t, err)
		assert.Equal(t, 5, next.Piles["1"])
	})

	t.Run("refused before start", func(t *testing.T) {
		state := base()
		state.IsGameStarted = false
		_, err := PlayCard(state, "alice", 12, "1", 0)
		assert.True(t, IsNotStarted(err))
	})

	t.Run("refused after game over", func(t *testing.T) {
		state := base()
		state.IsGameOver = true
		_, err := PlayCard(state, "alice", 12, "1", 0)
		assert.True(t, IsMatchOver(err))
	})

	t.Run("stuck after forced play loses", func(t *testing.T) {
		state := base()
		state.Players["alice"].Hand = []int{12, 5}
		state.Piles = map[string]int{"1": 10, "2": 10, "3": 4, "4": 4}
		// Playing the 12 leaves only the 5, which fits nowhere, with the
		// minimum still unmet.
		next, err := PlayCard(state, "alice", 12, "1", 0)
		require.NoError(t, err)
		assert.True(t, next.IsGameOver)
		_, won := next.Winner()
		assert.False(t, won)
	})

	t.Run("emptying every hand with an empty deck wins", func(t *testing.T) {
		state := base()
		state.Deck = nil
		state.Players["alice"].Hand = []int{12}
		state.Players["bob"].Hand = nil
		next, err := PlayCard(state, "alice", 12, "1", 0)
		require.NoError(t, err)
		assert.True(t, next.IsGameOver)
		winner, ok := next.Winner()
		require.True(t, ok)
		assert.Equal(t, types.WinnerAll, winner)
	})
}

func TestEndTurn(t *testing.T) {
	base := func() *types.GameState {
		return &types.GameState{
			GameID: "123456",
			Players: map[string]*types.Player{
				"alice": {ID: "alice", Hand: []int{40, 5}},
				"bob":   {ID: "bob", Hand: []int{7, 8, 9, 11, 13, 14, 15}, IsHost: true},
			},
			Piles:           map[string]int{"1": 10, "2": 1, "3": 100, "4": 100},
			Deck:            []int{33, 44, 55, 66, 77, 88},
			PlayerTurnOrder: []string{"alice", "bob"},
			CurrentPlayerID: "alice",
			IsGameStarted:   true,
		}
	}

	t.Run("draws up to hand size and advances", func(t *testing.T) {
		next, err := EndTurn(base(), "alice", 2)
		require.NoError(t, err)
		// Two players, hand size 7: five cards drawn from the deck front,
		// merged and sorted.
		assert.Equal(t, []int{5, 33, 40, 44, 55, 66, 77}, next.Players["alice"].Hand)
		assert.Equal(t, []int{88}, next.Deck)
		assert.Equal(t, "bob", next.CurrentPlayerID)
		assert.Equal(t, 2, next.LastPlayedCardsCount)
		assert.Nil(t, next.LastPlayedPileIndex)
	})

	t.Run("draw clamps to remaining deck", func(t *testing.T) {
		state := base()
		state.Deck = []int{33}
		next, err := EndTurn(state, "alice", 2)
		require.NoError(t, err)
		assert.Equal(t, []int{5, 33, 40}, next.Players["alice"].Hand)
		assert.Empty(t, next.Deck)
	})

	t.Run("full hand draws nothing", func(t *testing.T) {
		state := base()
		state.Players["alice"].Hand = []int{12, 20, 25, 40, 50, 60, 70}
		next, err := EndTurn(state, "alice", 2)
		require.NoError(t, err)
		assert.Len(t, next.Players["alice"].Hand, 7)
		assert.Len(t, next.Deck, 6)
	})

	t.Run("minimum not met", func(t *testing.T) {
		_, err := EndTurn(base(), "alice", 1)
		assert.True(t, IsMinimumNotMet(err))
	})

	t.Run("one card suffices on an empty deck", func(t *testing.T) {
		state := base()
		state.Deck = nil
		next, err := EndTurn(state, "alice", 1)
		require.NoError(t, err)
		assert.Equal(t, "bob", next.CurrentPlayerID)
	})

	t.Run("turn order wraps", func(t *testing.T) {
		state := base()
		state.CurrentPlayerID = "bob"
		next, err := EndTurn(state, "bob", 2)
		require.NoError(t, err)
		assert.Equal(t, "alice", next.CurrentPlayerID)
	})

	t.Run("next player stuck loses at end of turn", func(t *testing.T) {
		state := base()
		state.Piles = map[string]int{"1": 50, "2": 50, "3": 3, "4": 3}
		state.Deck = nil
		state.Players["bob"].Hand = []int{4}
		next, err := EndTurn(state, "alice", 1)
		require.NoError(t, err)
		assert.True(t, next.IsGameOver)
		_, won := next.Winner()
		assert.False(t, won)
	})

	t.Run("not your turn", func(t *testing.T) {
		_, err := EndTurn(base(), "bob", 2)
		assert.True(t, IsNotYourTurn(err))
	})
}
