package broadcast

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is a Broadcaster backed by Redis pub/sub, for deployments running
// more than one instance against the same session store.
type Redis struct {
	client *redis.Client
	log    zerolog.Logger

	mu     sync.Mutex
	pubsub map[string]*topicSub
}

type topicSub struct {
	ps       *redis.PubSub
	handlers map[int]Handler
	nextID   int
}

// NewRedis creates a Redis-backed Broadcaster.
func NewRedis(client *redis.Client, log zerolog.Logger) *Redis {
	return &Redis{
		client: client,
		log:    log,
		pubsub: make(map[string]*topicSub),
	}
}

func (r *Redis) Publish(ctx context.Context, topic string, payload []byte) error {
	return r.client.Publish(ctx, topic, payload).Err()
}

func (r *Redis) Subscribe(topic string, h Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.pubsub[topic]
	if !ok {
		ps := r.client.Subscribe(context.Background(), topic)
		sub = &topicSub{ps: ps, handlers: make(map[int]Handler)}
		r.pubsub[topic] = sub
		go r.receive(topic, ps)
	}

	id := sub.nextID
	sub.nextID++
	sub.handlers[id] = h

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if s, ok := r.pubsub[topic]; ok {
			delete(s.handlers, id)
		}
	}
}

// receive fans incoming messages out to the topic's handlers.
// It exits when the PubSub channel is closed.
func (r *Redis) receive(topic string, ps *redis.PubSub) {
	for msg := range ps.Channel() {
		r.mu.Lock()
		sub, ok := r.pubsub[topic]
		var handlers []Handler
		if ok {
			handlers = make([]Handler, 0, len(sub.handlers))
			for _, h := range sub.handlers {
				handlers = append(handlers, h)
			}
		}
		r.mu.Unlock()

		for _, h := range handlers {
			h(topic, []byte(msg.Payload))
		}
	}
}

func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for topic, sub := range r.pubsub {
		if err := sub.ps.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.pubsub, topic)
	}
	return firstErr
}
