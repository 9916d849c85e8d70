package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type Publisher interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

// Emitter is what services use to announce changes. Delivery is best effort:
// a failed publish is logged and never fails the write that caused it.
type Emitter struct {
	log *logger.Logger
	pub Publisher
}

func NewEmitter(log *logger.Logger, pub Publisher) *Emitter {
	return &Emitter{log: log.With("component", "RealtimeEmitter"), pub: pub}
}

func (e *Emitter) Emit(ctx context.Context, msg SSEMessage) {
	if e == nil || e.pub == nil {
		return
	}
	if err := e.pub.Publish(ctx, msg); err != nil {
		e.log.Warn("Realtime publish failed", "channel", msg.Channel, "event", msg.Event, "error", err)
	}
}

func (e *Emitter) ToUser(ctx context.Context, userID uuid.UUID, event SSEEvent, data any) {
	if userID == uuid.Nil {
		return
	}
	e.Emit(ctx, SSEMessage{Channel: UserChannel(userID), Event: event, Data: data})
}

func (e *Emitter) Catalog(ctx context.Context, data any) {
	e.Emit(ctx, SSEMessage{Channel: CatalogChannel, Event: SSEEventCatalogUpdated, Data: data})
}
