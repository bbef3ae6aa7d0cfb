package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grocer/backend/internal/application/upload"
)

// UploadService is the part of upload.Service the handler uses
type UploadService interface {
	UploadImage(ctx context.Context, in upload.ImageUpload) (*upload.Result, error)
	Presign(ctx context.Context, req upload.PresignRequest) (*upload.PresignResult, error)
	Delete(ctx context.Context, key string) error
	MaxSize() int64
}

// UploadHandler handles product and category image uploads
type UploadHandler struct {
	BaseHandler
	uploads UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// UploadImage godoc
// @Summary      Upload an image
// @Description  The content type is detected from the file bytes; JPEG, PNG, WebP and GIF are accepted
// @Tags         admin-upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Image file"
// @Param        folder formData string true "Target folder" Enums(products, categories, misc)
// @Success      201 {object} dto.Response{data=upload.Result}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      415 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/upload/image [post]
func (h *UploadHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.HandleError(c, upload.ErrFileTooLarge)
			return
		}
		h.BadRequest(c, "Multipart field 'file' is required")
		return
	}
	if header.Size > h.uploads.MaxSize() {
		h.HandleError(c, upload.ErrFileTooLarge)
		return
	}

	f, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Uploaded file cannot be read")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.uploads.MaxSize()+1))
	if err != nil {
		h.BadRequest(c, "Uploaded file cannot be read")
		return
	}

	result, err := h.uploads.UploadImage(c.Request.Context(), upload.ImageUpload{
		Folder:   c.PostForm("folder"),
		FileName: header.Filename,
		Data:     data,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Presign godoc
// @Summary      Presigned URL for a direct browser upload
// @Tags         admin-upload
// @Accept       json
// @Produce      json
// @Param        request body upload.PresignRequest true "Folder, content type and size"
// @Success      200 {object} dto.Response{data=upload.PresignResult}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      415 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/upload/presign [post]
func (h *UploadHandler) Presign(c *gin.Context) {
	var req upload.PresignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.uploads.Presign(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete godoc
// @Summary      Delete an uploaded image
// @Tags         admin-upload
// @Param        key query string true "Storage key"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/upload [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		h.BadRequest(c, "key is required")
		return
	}
	if err := h.uploads.Delete(c.Request.Context(), key); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
