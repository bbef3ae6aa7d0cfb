package upload

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/grocer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]string
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]string)}
}

func (f *fakeStorage) Upload(_ context.Context, key string, _ []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = contentType
	return nil
}

func (f *fakeStorage) GenerateUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://upload.test/" + key + "?sig=1", time.Now().Add(expiresIn), f.err
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

// pngHeader is enough for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestService_UploadImage(t *testing.T) {
	store := newFakeStorage()
	svc := NewService(store, Config{}, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) }

	res, err := svc.UploadImage(context.Background(), ImageUpload{Folder: "Products", FileName: "apple.png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)
	assert.True(t, strings.HasPrefix(res.Key, "images/products/2025/03/"), res.Key)
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "https://cdn.test/"+res.Key, res.URL)
	assert.Equal(t, int64(len(pngHeader)), res.Size)
	assert.Equal(t, "image/png", store.objects[res.Key])
}

func TestService_UploadImageRejects(t *testing.T) {
	svc := NewService(newFakeStorage(), Config{MaxSize: 32}, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ImageUpload
		want error
	}{
		{"empty", ImageUpload{Data: nil}, ErrEmptyFile},
		{"too large", ImageUpload{Data: append(pngHeader, make([]byte, 64)...)}, ErrFileTooLarge},
		{"svg", ImageUpload{Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)}, ErrUnsupportedType},
		{"html disguised", ImageUpload{FileName: "x.png", Data: []byte("<html><script>")}, ErrUnsupportedType},
		{"folder", ImageUpload{Folder: "../etc", Data: pngHeader}, ErrInvalidFolder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadImage(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_UploadImageStorageError(t *testing.T) {
	store := newFakeStorage()
	store.err = errors.New("bucket gone")
	svc := NewService(store, Config{}, nil)

	_, err := svc.UploadImage(context.Background(), ImageUpload{Data: pngHeader})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestService_Presign(t *testing.T) {
	svc := NewService(newFakeStorage(), Config{PresignExpiry: time.Minute}, nil)
	ctx := context.Background()

	res, err := svc.Presign(ctx, PresignRequest{Folder: "categories", ContentType: "image/webp", Size: 1024})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "images/categories/"))
	assert.True(t, strings.HasSuffix(res.Key, ".webp"))
	assert.Contains(t, res.UploadURL, res.Key)
	assert.WithinDuration(t, time.Now().Add(time.Minute), res.ExpiresAt, 5*time.Second)

	_, err = svc.Presign(ctx, PresignRequest{ContentType: "image/svg+xml", Size: 10})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = svc.Presign(ctx, PresignRequest{ContentType: "image/png", Size: DefaultMaxSize + 1})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestService_Delete(t *testing.T) {
	store := newFakeStorage()
	svc := NewService(store, Config{}, nil)
	ctx := context.Background()

	res, err := svc.UploadImage(ctx, ImageUpload{Data: pngHeader})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "/"+res.Key))
	assert.Empty(t, store.objects)

	assert.ErrorIs(t, svc.Delete(ctx, res.Key), shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "exports/orders.csv"), ErrInvalidKey)
	assert.ErrorIs(t, svc.Delete(ctx, "images/../secrets"), ErrInvalidKey)
}
