package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/services"
)

// maxAvatarBytes bounds avatar uploads before decoding.
const maxAvatarBytes = 5 << 20

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /me
// body: { "first_name": "...", "last_name": "..." }
func (uh *UserHandler) ChangeName(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := uh.userService.UpdateName(c.Request.Context(), req.FirstName, req.LastName)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": u})
}

// POST /me/avatar (multipart field "file")
func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	raw, ok := readUpload(c, "file", maxAvatarBytes)
	if !ok {
		return
	}
	u, err := uh.userService.UploadAvatar(c.Request.Context(), raw)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": u})
}

// PATCH /admin/users/:id/role
// body: { "role": "admin" | "customer" }
func (uh *UserHandler) SetRole(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := uh.userService.SetRole(c.Request.Context(), id, req.Role)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

var errUploadTooLarge = errors.New("upload too large")

// readUpload reads one multipart file, capped at limit bytes.
func readUpload(c *gin.Context, field string, limit int64) ([]byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return nil, false
	}
	if fh.Size > limit {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "upload_too_large", errUploadTooLarge)
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return nil, false
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return nil, false
	}
	if int64(len(raw)) > limit {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "upload_too_large", errUploadTooLarge)
		return nil, false
	}
	return raw, true
}
