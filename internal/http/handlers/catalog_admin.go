package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

type CatalogAdminHandler struct {
	admin services.CatalogAdminService
}

func NewCatalogAdminHandler(admin services.CatalogAdminService) *CatalogAdminHandler {
	return &CatalogAdminHandler{admin: admin}
}

// GET /admin/categories
func (h *CatalogAdminHandler) ListCategories(c *gin.Context) {
	cats, err := h.admin.ListCategories(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": cats})
}

// POST /admin/categories
func (h *CatalogAdminHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryInput
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.admin.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"category": cat})
}

// PATCH /admin/categories/:id
func (h *CatalogAdminHandler) UpdateCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.CategoryPatch
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.admin.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"category": cat})
}

// DELETE /admin/categories/:id
func (h *CatalogAdminHandler) DeleteCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteCategory(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /admin/products
func (h *CatalogAdminHandler) ListProducts(c *gin.Context) {
	var q services.ProductQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.admin.ListProducts(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /admin/products/:id
func (h *CatalogAdminHandler) GetProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	card, err := h.admin.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, card)
}

// POST /admin/products
func (h *CatalogAdminHandler) CreateProduct(c *gin.Context) {
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.admin.CreateProduct(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"product": p})
}

// PATCH /admin/products/:id
func (h *CatalogAdminHandler) UpdateProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.ProductPatch
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.admin.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// DELETE /admin/products/:id
func (h *CatalogAdminHandler) DeleteProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteProduct(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /admin/products/:id/variants
func (h *CatalogAdminHandler) CreateVariant(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.VariantInput
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.admin.CreateVariant(c.Request.Context(), pid, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"variant": v})
}

// PATCH /admin/products/:id/variants/:variantId
func (h *CatalogAdminHandler) UpdateVariant(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	vid, ok := uuidParam(c, "variantId")
	if !ok {
		return
	}
	var req services.VariantPatch
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.admin.UpdateVariant(c.Request.Context(), pid, vid, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variant": v})
}

// DELETE /admin/products/:id/variants/:variantId
func (h *CatalogAdminHandler) DeleteVariant(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	vid, ok := uuidParam(c, "variantId")
	if !ok {
		return
	}
	if err := h.admin.DeleteVariant(c.Request.Context(), pid, vid); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondNoContent(c)
}
