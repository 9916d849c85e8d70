package realtime

import (
	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// SSEClient is one open event stream. UserID is uuid.Nil for anonymous
// subscribers, which only ever join the catalog channel.
type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	Logger   *logger.Logger
}
