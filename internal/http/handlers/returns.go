package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

type ReturnHandler struct {
	returns services.ReturnService
}

func NewReturnHandler(returns services.ReturnService) *ReturnHandler {
	return &ReturnHandler{returns: returns}
}

// POST /returns
func (h *ReturnHandler) Create(c *gin.Context) {
	var req services.ReturnInput
	if !bindJSON(c, &req) {
		return
	}
	rr, err := h.returns.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"return": rr})
}

// GET /returns
func (h *ReturnHandler) ListMine(c *gin.Context) {
	var q services.ReturnListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.returns.ListMine(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /admin/returns
func (h *ReturnHandler) List(c *gin.Context) {
	var q services.ReturnListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.returns.List(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// PATCH /admin/returns/:id
// body: { "status": "refunded", "refund_cents": 1500, "admin_notes": "..." }
func (h *ReturnHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.ReturnStatusInput
	if !bindJSON(c, &req) {
		return
	}
	rr, err := h.returns.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"return": rr})
}
