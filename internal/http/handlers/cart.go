package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/cart"
	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

// CartHandler serves both guest carts (X-Guest-Id) and signed-in carts; the
// service picks the owner from the request data.
type CartHandler struct {
	cartService services.CartService
}

func NewCartHandler(cartService services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GET /cart
func (h *CartHandler) Get(c *gin.Context) {
	view, err := h.cartService.Get(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /cart/items
// body: { "product_id": "...", "variant_id": "...", "quantity": 1 }
func (h *CartHandler) Add(c *gin.Context) {
	var req services.CartItemInput
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.cartService.Add(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// PATCH /cart/items
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req services.CartItemInput
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.cartService.UpdateQuantity(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// DELETE /cart/items/:productId?variant_id=
func (h *CartHandler) Remove(c *gin.Context) {
	pid, ok := uuidParam(c, "productId")
	if !ok {
		return
	}
	vid, ok := optionalUUID(c, "variant_id")
	if !ok {
		return
	}
	view, err := h.cartService.Remove(c.Request.Context(), pid, vid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	view, err := h.cartService.Clear(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /cart/preview
// body: { "lines": [...] } priced without being stored
func (h *CartHandler) Preview(c *gin.Context) {
	var req struct {
		Lines []cart.Line `json:"lines"`
	}
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.cartService.Enrich(c.Request.Context(), req.Lines)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /cart/consolidate
// body: { "guest_id": "...", "revision": "...", "lines": [...] }
// Called after sign-in; safe to repeat with the same revision. An empty body
// merges the stored guest cart named by X-Guest-Id.
func (h *CartHandler) Consolidate(c *gin.Context) {
	var req services.ConsolidateInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	res, err := h.cartService.Consolidate(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}
