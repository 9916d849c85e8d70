package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	userID := uuid.New()
	channel := UserChannel(userID)

	clientA := hub.NewSSEClient(userID)
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventCartUpdated, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventOrderUpdated, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventCartUpdated {
		t.Fatalf("first event: want=%s got=%s", SSEEventCartUpdated, got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventOrderUpdated {
		t.Fatalf("second event: want=%s got=%s", SSEEventOrderUpdated, got.Event)
	}

	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.SubscriberCount(channel); n != 0 {
		t.Fatalf("subscribers after close: want 0 got %d", n)
	}
	// second close is a no-op
	hub.CloseClient(clientA)

	clientB := hub.NewSSEClient(userID)
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventWishlistUpdated})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventWishlistUpdated {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventWishlistUpdated, got.Event)
	}
}

func TestSSEHubChannelIsolation(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	a := hub.NewSSEClient(uuid.New())
	b := hub.NewSSEClient(uuid.New())
	hub.AddChannel(a, UserChannel(a.UserID))
	hub.AddChannel(b, UserChannel(b.UserID))
	hub.AddChannel(a, CatalogChannel)
	hub.AddChannel(b, CatalogChannel)

	hub.Broadcast(SSEMessage{Channel: UserChannel(a.UserID), Event: SSEEventCartUpdated})
	hub.Broadcast(SSEMessage{Channel: CatalogChannel, Event: SSEEventCatalogUpdated})

	if got := recvMessage(t, a.Outbound, time.Second); got.Event != SSEEventCartUpdated {
		t.Fatalf("a first: got %s", got.Event)
	}
	if got := recvMessage(t, a.Outbound, time.Second); got.Event != SSEEventCatalogUpdated {
		t.Fatalf("a second: got %s", got.Event)
	}
	if got := recvMessage(t, b.Outbound, time.Second); got.Event != SSEEventCatalogUpdated {
		t.Fatalf("b should only see catalog, got %s", got.Event)
	}
}

func TestSSEHubDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	c := hub.NewSSEClient(uuid.New())
	hub.AddChannel(c, CatalogChannel)
	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(SSEMessage{Channel: CatalogChannel, Event: SSEEventCatalogUpdated})
	}
	if len(c.Outbound) != outboundBuffer {
		t.Fatalf("buffer: want %d got %d", outboundBuffer, len(c.Outbound))
	}
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, SSEMessage) error {
	f.calls++
	return errors.New("redis down")
}

func TestEmitterIsBestEffort(t *testing.T) {
	pub := &failingPublisher{}
	em := NewEmitter(logger.Nop(), pub)
	em.ToUser(context.Background(), uuid.New(), SSEEventCartUpdated, nil)
	em.ToUser(context.Background(), uuid.Nil, SSEEventCartUpdated, nil)
	em.Catalog(context.Background(), nil)
	if pub.calls != 2 {
		t.Fatalf("publish calls: want 2 got %d", pub.calls)
	}

	var nilEmitter *Emitter
	nilEmitter.Catalog(context.Background(), nil)
}
