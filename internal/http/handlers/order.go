package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

type OrderHandler struct {
	checkout services.CheckoutService
	orders   services.OrderService
}

func NewOrderHandler(checkout services.CheckoutService, orders services.OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

// GET /checkout/quote
func (h *OrderHandler) Quote(c *gin.Context) {
	view, err := h.checkout.Quote(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /checkout
// body: { "address_id": "..." }
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req services.CheckoutInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.checkout.Checkout(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /orders?status=&page=&limit=
func (h *OrderHandler) ListMine(c *gin.Context) {
	var q services.OrderListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.orders.ListMine(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /orders/:id
func (h *OrderHandler) GetMine(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetMine(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// POST /orders/:id/cancel
func (h *OrderHandler) CancelMine(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.CancelMine(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// GET /admin/orders?status=&page=&limit=
func (h *OrderHandler) List(c *gin.Context) {
	var q services.OrderListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.orders.List(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /admin/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// PATCH /admin/orders/:id/status
// body: { "status": "shipped" }
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// PATCH /admin/orders/:id/tracking
// body: { "tracking_number": "..." }
func (h *OrderHandler) SetTracking(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		TrackingNumber string `json:"tracking_number"`
	}
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.orders.SetTracking(c.Request.Context(), id, req.TrackingNumber)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}
