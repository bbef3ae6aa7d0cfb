package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grocer/backend/internal/application/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, folder, fileName string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("folder", folder))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/upload/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler_UploadImage(t *testing.T) {
	svc := &mockUploadService{maxSize: 1024}
	h := NewUploadHandler(svc)
	r := newTestRouter()
	r.POST("/admin/upload/image", h.UploadImage)

	data := []byte("\x89PNG\r\n\x1a\nrest")
	svc.On("UploadImage", mock.Anything, upload.ImageUpload{Folder: "products", FileName: "apple.png", Data: data}).
		Return(&upload.Result{Key: "images/products/abc.png", URL: "https://cdn.example.com/images/products/abc.png"}, nil)

	w := serve(r, multipartRequest(t, "products", "apple.png", data))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got upload.Result
	decodeData(t, w, &got)
	assert.Equal(t, "images/products/abc.png", got.Key)
}

func TestUploadHandler_UploadImageTooLarge(t *testing.T) {
	svc := &mockUploadService{maxSize: 4}
	h := NewUploadHandler(svc)
	r := newTestRouter()
	r.POST("/admin/upload/image", h.UploadImage)

	w := serve(r, multipartRequest(t, "products", "big.png", []byte("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", decode(t, w).Error.Code)
	svc.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything)
}

func TestUploadHandler_UploadImageMissingFile(t *testing.T) {
	svc := &mockUploadService{maxSize: 1024}
	h := NewUploadHandler(svc)
	r := newTestRouter()
	r.POST("/admin/upload/image", h.UploadImage)

	w := serve(r, multipartRequest(t, "products", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandler_UploadImageUnsupportedType(t *testing.T) {
	svc := &mockUploadService{maxSize: 1024}
	h := NewUploadHandler(svc)
	r := newTestRouter()
	r.POST("/admin/upload/image", h.UploadImage)

	svc.On("UploadImage", mock.Anything, mock.Anything).Return(nil, upload.ErrUnsupportedType)

	w := serve(r, multipartRequest(t, "products", "evil.svg", []byte("<svg/>")))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestUploadHandler_Delete(t *testing.T) {
	svc := &mockUploadService{maxSize: 1024}
	h := NewUploadHandler(svc)
	r := newTestRouter()
	r.DELETE("/admin/upload", h.Delete)

	svc.On("Delete", mock.Anything, "images/products/abc.png").Return(nil)

	w := doRequest(t, r, http.MethodDelete, "/admin/upload?key=images/products/abc.png", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodDelete, "/admin/upload", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
