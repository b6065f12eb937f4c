package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("imagePath", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["imagePath"][0]
}

func TestMakeThumbnail_Resizes(t *testing.T) {
	t.Parallel()

	thumb, err := MakeThumbnail(pngBytes(t, 640, 480), 320)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestMakeThumbnail_NoUpscale(t *testing.T) {
	t.Parallel()

	thumb, err := MakeThumbnail(pngBytes(t, 100, 50), 320)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestMakeThumbnail_Garbage(t *testing.T) {
	t.Parallel()

	_, err := MakeThumbnail([]byte("not an image"), 320)
	assert.Error(t, err)
}

func TestMovieImageService_UploadLocal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := NewMovieImageService(NewLocalImageStorage(dir, "/uploads"), zap.NewNop())

	img, err := svc.Upload(context.Background(), "owner1", fileHeader(t, "poster one.png", pngBytes(t, 400, 600)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(img.URL, "/uploads/owner1/"))
	assert.True(t, strings.HasSuffix(img.URL, "_posterone.png"))
	assert.True(t, strings.HasPrefix(img.ThumbnailURL, "/uploads/owner1/thumbs/"))
	require.Len(t, img.Objects, 2)

	for _, obj := range img.Objects {
		_, err := os.Stat(filepath.Join(dir, obj))
		assert.NoError(t, err)
	}

	svc.Discard(context.Background(), img.Objects)
	for _, obj := range img.Objects {
		_, err := os.Stat(filepath.Join(dir, obj))
		assert.True(t, os.IsNotExist(err))
	}
}

func TestMovieImageService_RejectsBadFiles(t *testing.T) {
	t.Parallel()

	svc := NewMovieImageService(NewLocalImageStorage(t.TempDir(), "/uploads"), zap.NewNop())

	_, err := svc.Upload(context.Background(), "o", fileHeader(t, "script.exe", []byte("MZ")))
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Upload(context.Background(), "o", fileHeader(t, "fake.png", []byte("not a png")))
	assert.ErrorIs(t, err, models.ErrValidation)
}
