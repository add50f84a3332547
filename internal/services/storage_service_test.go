package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/config"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestLocalStorageUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorageService(config.AWSConfig{}, dir, "http://localhost:8000/")
	require.NoError(t, err)
	ctx := context.Background()

	result, err := storage.Upload(ctx, UploadInput{
		Filename: "Me.PNG",
		Data:     pngHeader,
		Options:  GetDefaultUploadOptions("avatars"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Key, "avatars/"))
	assert.True(t, strings.HasSuffix(result.Key, ".png"))
	assert.Equal(t, "http://localhost:8000/uploads/"+result.Key, result.URL)
	assert.Equal(t, "image/png", result.MimeType)
	assert.Len(t, result.Checksum, 64)

	written, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(result.Key)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, written)

	require.NoError(t, storage.Delete(ctx, result.Key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(result.Key)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, storage.Delete(ctx, result.Key))
}

func TestStorageUploadValidation(t *testing.T) {
	storage, err := NewStorageService(config.AWSConfig{}, t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	cases := map[string]UploadInput{
		"empty":         {Filename: "a.png", Options: GetDefaultUploadOptions("avatars")},
		"too large":     {Filename: "a.png", Data: make([]byte, 6<<20), Options: GetDefaultUploadOptions("avatars")},
		"bad extension": {Filename: "a.exe", Data: pngHeader, Options: GetDefaultUploadOptions("avatars")},
		"not an image":  {Filename: "a.png", Data: []byte("plain text"), Options: GetDefaultUploadOptions("avatars")},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := storage.Upload(context.Background(), input)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		})
	}
}
