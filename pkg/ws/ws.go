// Package ws pushes committed match documents to websocket subscribers.
// A connection subscribes to exactly one match and receives a compressed
// snapshot immediately and then on every commit, per the synchronizer's
// at-least-once, monotonic delivery contract.
package ws

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"nhooyr.io/websocket"

	"github.com/hilltop-games/thegame/pkg/game/types"
	"github.com/hilltop-games/thegame/pkg/log"
	"github.com/hilltop-games/thegame/pkg/messages"
	"github.com/hilltop-games/thegame/pkg/sync"
)

// HandleSubscribe upgrades the request and streams the match document until
// the client disconnects or the match is deleted.
func HandleSubscribe(synchronizer *sync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := mux.Vars(r)["gameID"]

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Error("failed to upgrade to websocket: %v", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sub, err := synchronizer.Subscribe(ctx, gameID, func(state *types.GameState) {
			if err := push(ctx, conn, state); err != nil {
				log.Debug("failed to push match %s to subscriber: %v", gameID, err)
				cancel()
			}
		})
		if err != nil {
			log.Error("failed to subscribe to match %s: %v", gameID, err)
			return
		}
		defer synchronizer.Unsubscribe(sub)

		log.Debug("subscriber %s attached to match %s", sub.ID, gameID)

		// The client never sends anything meaningful; reading just detects
		// the close.
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				log.Debug("subscriber %s detached from match %s: %v", sub.ID, gameID, err)
				return
			}
		}
	}
}

func push(ctx context.Context, conn *websocket.Conn, state *types.GameState) error {
	var msg *messages.Message
	if state == nil {
		msg = messages.NewMatchDeletedMessage()
	} else {
		var err error
		msg, err = messages.NewMatchStateMessage(state)
		if err != nil {
			return err
		}
	}

	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageBinary, b)
}
