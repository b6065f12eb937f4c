package services

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/models"
	"github.com/HSouheill/movie_mania_backend/utils"
)

const thumbnailWidth = 320

// UploadedImage describes a stored poster and its thumbnail
type UploadedImage struct {
	URL          string
	ThumbnailURL string
	Objects      []string
}

// MovieImageService validates poster uploads and stores them with a thumbnail
type MovieImageService struct {
	storage ImageStorage
	logger  *zap.Logger
}

func NewMovieImageService(storage ImageStorage, logger *zap.Logger) *MovieImageService {
	return &MovieImageService{storage: storage, logger: logger.Named("images")}
}

// Upload stores the file under "<ownerID>/<uuid>_<name>" plus a JPEG thumbnail.
// Invalid files are reported as models.ErrValidation.
func (s *MovieImageService) Upload(ctx context.Context, ownerID string, fh *multipart.FileHeader) (*UploadedImage, error) {
	name := utils.CleanFilename(fh.Filename)
	if err := utils.ValidateImageFile(name, fh.Size); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, utils.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > utils.MaxImageSize {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, utils.ErrFileTooLarge)
	}

	thumb, err := MakeThumbnail(data, thumbnailWidth)
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable image", models.ErrValidation)
	}

	id := uuid.New().String()
	objectName := path.Join(ownerID, id+"_"+name)
	thumbName := path.Join(ownerID, "thumbs", id+".jpg")

	url, err := s.storage.Save(ctx, objectName, http.DetectContentType(data), data)
	if err != nil {
		return nil, err
	}
	thumbURL, err := s.storage.Save(ctx, thumbName, "image/jpeg", thumb)
	if err != nil {
		s.Discard(ctx, []string{objectName})
		return nil, err
	}

	return &UploadedImage{
		URL:          url,
		ThumbnailURL: thumbURL,
		Objects:      []string{objectName, thumbName},
	}, nil
}

// Discard removes stored objects, logging failures
func (s *MovieImageService) Discard(ctx context.Context, objects []string) {
	for _, obj := range objects {
		if err := s.storage.Remove(ctx, obj); err != nil {
			s.logger.Warn("failed to remove stored image", zap.String("object", obj), zap.Error(err))
		}
	}
}

// MakeThumbnail decodes an image and re-encodes it as a JPEG resized to width,
// keeping the aspect ratio. Images narrower than width are not upscaled.
func MakeThumbnail(data []byte, width int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
