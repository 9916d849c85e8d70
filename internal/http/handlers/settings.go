package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

type SettingsHandler struct {
	settings services.SettingsService
}

func NewSettingsHandler(settings services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GET /settings
func (h *SettingsHandler) Public(c *gin.Context) {
	pub, err := h.settings.Public(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, pub)
}

// GET /admin/settings
func (h *SettingsHandler) All(c *gin.Context) {
	all, err := h.settings.All(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, all)
}

// PUT /admin/settings/:key (site | payment | tax | shipping)
func (h *SettingsHandler) Update(c *gin.Context) {
	var raw json.RawMessage
	if !bindJSON(c, &raw) {
		return
	}
	all, err := h.settings.Update(c.Request.Context(), c.Param("key"), raw)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, all)
}
