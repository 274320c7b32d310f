package messages

import (
	"encoding/json"
	"testing"

	"github.com/hilltop-games/thegame/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeMatchState(t *testing.T) {
	state := types.NewGameState("123456")
	state.Players["alice"] = &types.Player{ID: "alice", Name: "Alice", Hand: []int{3, 14, 15}, IsHost: true}
	state.CurrentPlayerID = "alice"

	m, err := NewMatchStateMessage(state)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeMatchState, m.Type)

	data, err := SerializeMessage(m)
	require.NoError(t, err)

	decoded, err := DeserializeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeMatchState, decoded.Type)

	got := &types.GameState{}
	require.NoError(t, json.Unmarshal(decoded.Payload, got))
	assert.Equal(t, "123456", got.GameID)
	assert.Equal(t, []int{3, 14, 15}, got.Players["alice"].Hand)
	assert.True(t, got.Players["alice"].IsHost)
}

func TestSerializeMatchDeleted(t *testing.T) {
	data, err := SerializeMessage(NewMatchDeletedMessage())
	require.NoError(t, err)

	decoded, err := DeserializeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeMatchDeleted, decoded.Type)
	assert.Empty(t, decoded.Payload)
}

func TestDeserializeGarbage(t *testing.T) {
	_, err := DeserializeMessage([]byte("definitely not zstd"))
	assert.Error(t, err)
}
