package messages

import (
	"encoding/json"
	"fmt"

	"github.com/hilltop-games/thegame/pkg/game/types"
)

// Message types sent to websocket subscribers.
const (
	MessageTypeMatchState   = "match_state"
	MessageTypeMatchDeleted = "match_deleted"
)

// Message is the envelope for everything pushed over a subscription.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMatchStateMessage wraps a committed document for delivery.
func NewMatchStateMessage(state *types.GameState) (*Message, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match state: %v", err)
	}
	return &Message{
		Type:    MessageTypeMatchState,
		Payload: payload,
	}, nil
}

// NewMatchDeletedMessage signals that the match no longer exists.
func NewMatchDeletedMessage() *Message {
	return &Message{
		Type: MessageTypeMatchDeleted,
	}
}
