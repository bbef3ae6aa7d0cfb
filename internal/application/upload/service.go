// Package upload stores product and category images in object storage.
package upload

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ObjectStorage is implemented by the S3 and in-memory storage backends
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// GenerateUploadURL returns a presigned PUT URL and its expiry
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, key string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
}

// DefaultMaxSize is the largest image accepted
const DefaultMaxSize int64 = 5 << 20

const keyRoot = "images"

// allowedImageTypes maps accepted content types to file extensions. SVG is
// rejected because it can carry scripts.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var allowedFolders = map[string]bool{
	"products":   true,
	"categories": true,
	"misc":       true,
}

var (
	ErrUnsupportedType = shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "Only JPEG, PNG, WebP and GIF images are allowed")
	ErrFileTooLarge    = shared.NewDomainError("FILE_TOO_LARGE", "Image exceeds the maximum upload size")
	ErrEmptyFile       = shared.NewDomainError("EMPTY_FILE", "Uploaded file is empty")
	ErrInvalidFolder   = shared.NewDomainError("INVALID_FOLDER", "Folder must be one of products, categories, misc")
	ErrInvalidKey      = shared.NewDomainError("INVALID_KEY", "Storage key does not refer to an uploaded image")
)

// Config holds upload limits
type Config struct {
	MaxSize       int64
	PresignExpiry time.Duration
}

// Service validates images and writes them to object storage
type Service struct {
	storage ObjectStorage
	config  Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates an upload service. Zero config values take defaults.
func NewService(storage ObjectStorage, config Config, logger *zap.Logger) *Service {
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}
	if config.PresignExpiry <= 0 {
		config.PresignExpiry = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{storage: storage, config: config, logger: logger, now: time.Now}
}

// MaxSize returns the configured size limit in bytes
func (s *Service) MaxSize() int64 {
	return s.config.MaxSize
}

// ImageUpload is a file received from a multipart form
type ImageUpload struct {
	Folder   string
	FileName string
	Data     []byte
}

// Result describes a stored image
type Result struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// PresignRequest asks for a direct-upload URL
type PresignRequest struct {
	Folder      string `json:"folder" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

// PresignResult is returned to the client performing the direct upload
type PresignResult struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadImage checks size and sniffed content type, then stores the file
// under a generated key. The client-supplied content type is not trusted.
func (s *Service) UploadImage(ctx context.Context, in ImageUpload) (*Result, error) {
	folder, err := s.folder(in.Folder)
	if err != nil {
		return nil, err
	}
	size := int64(len(in.Data))
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if size > s.config.MaxSize {
		return nil, ErrFileTooLarge
	}

	contentType := http.DetectContentType(in.Data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	key := s.newKey(folder, ext)
	if err := s.storage.Upload(ctx, key, in.Data, contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	s.logger.Info("image uploaded",
		zap.String("key", key),
		zap.String("file_name", in.FileName),
		zap.String("content_type", contentType),
		zap.Int64("size", size),
	)
	return &Result{
		Key:         key,
		URL:         s.storage.PublicURL(key),
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Presign issues a presigned PUT URL for a browser-side upload
func (s *Service) Presign(ctx context.Context, req PresignRequest) (*PresignResult, error) {
	folder, err := s.folder(req.Folder)
	if err != nil {
		return nil, err
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}
	if req.Size <= 0 {
		return nil, ErrEmptyFile
	}
	if req.Size > s.config.MaxSize {
		return nil, ErrFileTooLarge
	}

	key := s.newKey(folder, ext)
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.config.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &PresignResult{
		Key:       key,
		UploadURL: url,
		PublicURL: s.storage.PublicURL(key),
		ExpiresAt: expiresAt,
	}, nil
}

// Delete removes a previously uploaded image
func (s *Service) Delete(ctx context.Context, key string) error {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if !strings.HasPrefix(key, keyRoot+"/") || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return fmt.Errorf("check image: %w", err)
	}
	if !exists {
		return shared.ErrNotFound
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	s.logger.Info("image deleted", zap.String("key", key))
	return nil
}

func (s *Service) folder(folder string) (string, error) {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if folder == "" {
		folder = "products"
	}
	if !allowedFolders[folder] {
		return "", ErrInvalidFolder
	}
	return folder, nil
}

// newKey returns images/{folder}/{yyyy}/{mm}/{uuid}{ext}
func (s *Service) newKey(folder, ext string) string {
	now := s.now().UTC()
	return path.Join(keyRoot, folder, now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
}
