package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
)

// HeaderGuestID identifies an anonymous browser's cart.
const HeaderGuestID = "X-Guest-Id"

// AttachRequestContext seeds the request data every handler reads. The auth
// middleware copies it when it adds the user, so the guest id survives
// sign-in on the same request (cart consolidation relies on that).
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &ctxutil.RequestData{
			GuestID: strings.TrimSpace(c.GetHeader(HeaderGuestID)),
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}
