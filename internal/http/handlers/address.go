package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

type AddressHandler struct {
	addresses services.AddressService
}

func NewAddressHandler(addresses services.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// GET /addresses
func (h *AddressHandler) List(c *gin.Context) {
	list, err := h.addresses.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"addresses": list})
}

// POST /addresses
func (h *AddressHandler) Create(c *gin.Context) {
	var req services.AddressInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.addresses.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"address": a})
}

// PUT /addresses/:id
func (h *AddressHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.AddressInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.addresses.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"address": a})
}

// DELETE /addresses/:id
func (h *AddressHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.addresses.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /addresses/:id/default
func (h *AddressHandler) SetDefault(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	a, err := h.addresses.SetDefault(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"address": a})
}
