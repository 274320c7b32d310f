package sync

// Notifier propagates "match changed" signals between server instances.
// Only the game ID travels; receivers re-read the document from the store,
// so a lost or duplicated signal is at worst a missed or redundant refresh.
type Notifier interface {
	Publish(gameID string) error
	Subscribe(handler func(gameID string)) error
	Close() error
}

// NoopNotifier is the single-instance notifier: commits are only fanned out
// to local subscribers.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

func (n *NoopNotifier) Publish(gameID string) error {
	return nil
}

func (n *NoopNotifier) Subscribe(handler func(gameID string)) error {
	return nil
}

func (n *NoopNotifier) Close() error {
	return nil
}
