package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

const maxMediaBytes = 15 << 20

type MediaHandler struct {
	media services.MediaService
}

func NewMediaHandler(media services.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// POST /admin/media?folder=products (multipart field "file")
func (h *MediaHandler) Upload(c *gin.Context) {
	raw, ok := readUpload(c, "file", maxMediaBytes)
	if !ok {
		return
	}
	obj, err := h.media.UploadImage(c.Request.Context(), c.DefaultQuery("folder", "products"), raw)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, obj)
}

// POST /admin/media/placeholder
// body: { "folder": "categories", "label": "Kitchen" }
func (h *MediaHandler) Placeholder(c *gin.Context) {
	var req struct {
		Folder string `json:"folder"`
		Label  string `json:"label"`
	}
	if !bindJSON(c, &req) {
		return
	}
	obj, err := h.media.Placeholder(c.Request.Context(), req.Folder, req.Label)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, obj)
}
