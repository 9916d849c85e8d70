package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.SSEHub

	mu      sync.Mutex
	clients map[uuid.UUID]*realtime.SSEClient // key: SessionID (UserToken.ID)
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		Log:     log.With("handler", "RealtimeHandler"),
		Hub:     hub,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// GET /sse/stream
// Signed-in sessions get their user channel plus the catalog broadcast;
// anonymous storefronts only get the catalog.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	userID, sessionID := uuid.Nil, uuid.Nil
	if rd != nil {
		userID, sessionID = rd.UserID, rd.SessionID
	}
	if userID != uuid.Nil && sessionID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errMissingSession)
		return
	}

	client := h.Hub.NewSSEClient(userID)
	if sessionID != uuid.Nil {
		h.mu.Lock()
		// A session keeps one stream; a reconnect replaces the old one.
		if existing, ok := h.clients[sessionID]; ok {
			h.Hub.CloseClient(existing)
		}
		h.clients[sessionID] = client
		h.mu.Unlock()
		h.Hub.AddChannel(client, realtime.UserChannel(userID))
	}
	h.Hub.AddChannel(client, realtime.CatalogChannel)
	h.Log.Debug("SSE stream open", "client_id", client.ID, "user_id", userID)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	if sessionID != uuid.Nil {
		h.mu.Lock()
		if h.clients[sessionID] == client {
			delete(h.clients, sessionID)
		}
		h.mu.Unlock()
	}
	h.Hub.CloseClient(client)
}
