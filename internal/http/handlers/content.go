package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

type ContentHandler struct {
	content services.ContentService
}

func NewContentHandler(content services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// GET /hero-slides
func (h *ContentHandler) HeroSlides(c *gin.Context) {
	slides, err := h.content.HeroSlides(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"slides": slides})
}

// GET /admin/hero-slides
func (h *ContentHandler) AdminHeroSlides(c *gin.Context) {
	slides, err := h.content.AdminHeroSlides(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"slides": slides})
}

// POST /admin/hero-slides
func (h *ContentHandler) CreateHeroSlide(c *gin.Context) {
	var req services.HeroSlideInput
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.content.CreateHeroSlide(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"slide": s})
}

// PATCH /admin/hero-slides/:id
func (h *ContentHandler) UpdateHeroSlide(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.HeroSlidePatch
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.content.UpdateHeroSlide(c.Request.Context(), id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"slide": s})
}

// DELETE /admin/hero-slides/:id
func (h *ContentHandler) DeleteHeroSlide(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteHeroSlide(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// PUT /admin/hero-slides/order
// body: { "ids": ["...", "..."] }
func (h *ContentHandler) ReorderHeroSlides(c *gin.Context) {
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	slides, err := h.content.ReorderHeroSlides(c.Request.Context(), req.IDs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"slides": slides})
}
