package broadcast

import (
	"context"
	"sync"
)

// Memory is an in-process Broadcaster. Publish dispatches to subscribers on
// separate goroutines so a slow handler cannot block the publisher.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[int]Handler
	nextID int
	closed bool
	wg     sync.WaitGroup
}

// NewMemory creates an in-process Broadcaster.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[int]Handler)}
}

func (m *Memory) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil
	}

	for _, h := range m.subs[topic] {
		h := h
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			h(topic, payload)
		}()
	}
	return nil
}

func (m *Memory) Subscribe(topic string, h Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subs[topic] == nil {
		m.subs[topic] = make(map[int]Handler)
	}
	id := m.nextID
	m.nextID++
	m.subs[topic][id] = h

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs[topic], id)
	}
}

// Close waits for in-flight deliveries to finish.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}
