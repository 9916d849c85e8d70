package realtime

import (
	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventCartUpdated     SSEEvent = "cart_updated"
	SSEEventWishlistUpdated SSEEvent = "wishlist_updated"
	SSEEventOrderUpdated    SSEEvent = "order_updated"
	SSEEventCatalogUpdated  SSEEvent = "catalog_updated"
)

// CatalogChannel carries catalog_updated to every connected storefront.
const CatalogChannel = "catalog"

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}
