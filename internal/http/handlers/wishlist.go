package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

type WishlistHandler struct {
	wishlist services.WishlistService
}

func NewWishlistHandler(wishlist services.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

// GET /wishlist (empty for anonymous callers)
func (h *WishlistHandler) List(c *gin.Context) {
	items, err := h.wishlist.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// PUT /wishlist/:productId
func (h *WishlistHandler) Add(c *gin.Context) {
	pid, ok := uuidParam(c, "productId")
	if !ok {
		return
	}
	if err := h.wishlist.Add(c.Request.Context(), pid); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"wishlisted": true})
}

// DELETE /wishlist/:productId
func (h *WishlistHandler) Remove(c *gin.Context) {
	pid, ok := uuidParam(c, "productId")
	if !ok {
		return
	}
	if err := h.wishlist.Remove(c.Request.Context(), pid); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"wishlisted": false})
}

// POST /wishlist/:productId/toggle
func (h *WishlistHandler) Toggle(c *gin.Context) {
	pid, ok := uuidParam(c, "productId")
	if !ok {
		return
	}
	res, err := h.wishlist.Toggle(c.Request.Context(), pid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /wishlist/:productId
func (h *WishlistHandler) Contains(c *gin.Context) {
	pid, ok := uuidParam(c, "productId")
	if !ok {
		return
	}
	in, err := h.wishlist.Contains(c.Request.Context(), pid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"wishlisted": in})
}
