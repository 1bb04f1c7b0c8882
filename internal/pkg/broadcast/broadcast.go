// Package broadcast provides a small pub/sub channel used to keep separate
// session manager instances converged (profile updates, forced sign-outs).
// The transport is swappable: an in-process implementation for tests and
// single-node deployments, and a Redis-backed one for multi-instance setups.
package broadcast

import "context"

// Handler receives a published payload for a topic.
// Delivery is asynchronous and unordered relative to local state changes;
// handlers must treat authoritative messages (e.g. forced sign-out) as such
// regardless of local in-flight work.
type Handler func(topic string, payload []byte)

// Broadcaster publishes payloads to topics and dispatches them to subscribers.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, h Handler) (unsubscribe func())
	Close() error
}
