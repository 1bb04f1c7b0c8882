package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublishSubscribe(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	var mu sync.Mutex
	var got []string

	unsub := m.Subscribe("auth.signout", func(topic string, payload []byte) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(payload))
	})
	defer unsub()

	require.NoError(t, m.Publish(context.Background(), "auth.signout", []byte("user-1")))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "user-1"
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryTopicIsolation(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	received := make(chan string, 2)
	m.Subscribe("a", func(topic string, payload []byte) { received <- topic })

	require.NoError(t, m.Publish(context.Background(), "b", []byte("x")))
	require.NoError(t, m.Publish(context.Background(), "a", []byte("y")))

	select {
	case topic := <-received:
		assert.Equal(t, "a", topic)
	case <-time.After(time.Second):
		t.Fatal("no delivery for subscribed topic")
	}

	select {
	case topic := <-received:
		t.Fatalf("unexpected delivery for topic %q", topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryUnsubscribe(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	received := make(chan struct{}, 1)
	unsub := m.Subscribe("a", func(topic string, payload []byte) { received <- struct{}{} })
	unsub()

	require.NoError(t, m.Publish(context.Background(), "a", []byte("x")))

	select {
	case <-received:
		t.Fatal("handler called after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}
