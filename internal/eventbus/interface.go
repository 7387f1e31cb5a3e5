package eventbus

import "context"

// EventBus notifies downstream consumers (dashboards, report archivers)
// that new insights exist. This service only publishes; consumption
// happens elsewhere.
type EventBus interface {
	Publish(ctx context.Context, topic string, event interface{}) error
	Close() error
}

// Nop is the bus used when redis is not configured. Publishing succeeds
// silently.
type Nop struct{}

func (Nop) Publish(ctx context.Context, topic string, event interface{}) error { return nil }
func (Nop) Close() error                                                       { return nil }
