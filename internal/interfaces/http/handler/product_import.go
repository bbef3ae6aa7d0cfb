package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grocer/backend/internal/application/catalog"
)

// MaxImportFileSize bounds a product CSV upload
const MaxImportFileSize = 5 << 20

// ProductImporter creates products from a CSV file
type ProductImporter interface {
	Import(ctx context.Context, r io.Reader, opts catalog.ImportOptions) (*catalog.ImportResult, error)
}

// ProductImportHandler accepts product CSV uploads from the back office
type ProductImportHandler struct {
	BaseHandler
	importer ProductImporter
}

// NewProductImportHandler creates a new product import handler
func NewProductImportHandler(importer ProductImporter) *ProductImportHandler {
	return &ProductImportHandler{importer: importer}
}

// Import godoc
// @Summary      Import products from CSV
// @Description  Required columns: sku, name, category (slug), price, unit. Optional: compare_at_price, stock, low_stock_threshold, description, featured, image_urls (separated by |). Existing SKUs are skipped.
// @Tags         admin-products
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Param        dry_run query bool false "Validate without creating products"
// @Success      200 {object} dto.Response{data=catalog.ImportResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/import [post]
func (h *ProductImportHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Import file exceeds 5 MB")
			return
		}
		h.BadRequest(c, "Multipart field 'file' is required")
		return
	}
	if header.Size > MaxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Import file exceeds 5 MB")
		return
	}
	dryRun, _ := strconv.ParseBool(c.Query("dry_run"))

	f, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Uploaded file cannot be read")
		return
	}
	defer f.Close()

	result, err := h.importer.Import(c.Request.Context(), f, catalog.ImportOptions{DryRun: dryRun})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
