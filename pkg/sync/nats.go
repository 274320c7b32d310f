package sync

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/hilltop-games/thegame/pkg/log"
)

// DefaultNATSSubject is the subject match-change signals travel on.
const DefaultNATSSubject = "thegame.matches.changed"

// NATSNotifier bridges commits between server instances over a NATS
// subject. An instance also receives its own publishes; the subscriber-side
// version check makes the redundant refresh harmless.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
}

func NewNATSNotifier(url string, subject string) (*NATSNotifier, error) {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %v", err)
	}
	log.Info("connected to nats at %s", url)
	return &NATSNotifier{
		conn:    conn,
		subject: subject,
	}, nil
}

func (n *NATSNotifier) Publish(gameID string) error {
	return n.conn.Publish(n.subject, []byte(gameID))
}

func (n *NATSNotifier) Subscribe(handler func(gameID string)) error {
	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		handler(string(msg.Data))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %v", n.subject, err)
	}
	n.sub = sub
	return nil
}

func (n *NATSNotifier) Close() error {
	if n.sub != nil {
		if err := n.sub.Unsubscribe(); err != nil {
			log.Warn("failed to unsubscribe from %s: %v", n.subject, err)
		}
	}
	n.conn.Close()
	return nil
}
