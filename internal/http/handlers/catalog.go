package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
	reviews services.ReviewService
}

func NewCatalogHandler(catalog services.CatalogService, reviews services.ReviewService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, reviews: reviews}
}

// GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	cats, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": cats})
}

// GET /products?category=&q=&min_price=&max_price=&featured=&in_stock=&sort=&page=&limit=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var q services.ProductQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.catalog.ListProducts(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /products/:id (slug or uuid)
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	card, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, card)
}

// GET /products/:id/reviews?page=&limit=
func (h *CatalogHandler) ListReviews(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var page services.Page
	if !bindQuery(c, &page) {
		return
	}
	out, err := h.reviews.ListByProduct(c.Request.Context(), id, page)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /products/:id/reviews
func (h *CatalogHandler) CreateReview(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.ReviewInput
	if !bindJSON(c, &req) {
		return
	}
	rv, err := h.reviews.Create(c.Request.Context(), id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"review": rv})
}

// PATCH /reviews/:id
func (h *CatalogHandler) UpdateReview(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.ReviewPatch
	if !bindJSON(c, &req) {
		return
	}
	rv, err := h.reviews.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"review": rv})
}

// DELETE /reviews/:id
func (h *CatalogHandler) DeleteReview(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondNoContent(c)
}
