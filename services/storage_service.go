package services

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"

	"github.com/HSouheill/movie_mania_backend/utils"
)

// ImageStorage persists uploaded objects and returns a public URL
type ImageStorage interface {
	Save(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, objectName string) error
}

// FirebaseImageStorage writes objects to a Firebase (GCS) bucket
type FirebaseImageStorage struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

// NewFirebaseImageStorage opens bucketName, or the app's default bucket when empty.
func NewFirebaseImageStorage(ctx context.Context, app *firebase.App, bucketName string) (*FirebaseImageStorage, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}

	var bucket *gcs.BucketHandle
	if bucketName == "" {
		bucket, err = client.DefaultBucket()
	} else {
		bucket, err = client.Bucket(bucketName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}

	attrs, err := bucket.Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket attributes: %w", err)
	}

	return &FirebaseImageStorage{bucket: bucket, bucketName: attrs.Name}, nil
}

func (s *FirebaseImageStorage) Save(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	w := s.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("could not upload file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("could not upload file: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, objectName), nil
}

func (s *FirebaseImageStorage) Remove(ctx context.Context, objectName string) error {
	err := s.bucket.Object(objectName).Delete(ctx)
	if err != nil && err != gcs.ErrObjectNotExist {
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// LocalImageStorage writes objects under a directory served at baseURL
type LocalImageStorage struct {
	baseDir string
	baseURL string
}

func NewLocalImageStorage(baseDir, baseURL string) *LocalImageStorage {
	return &LocalImageStorage{baseDir: baseDir, baseURL: baseURL}
}

func (s *LocalImageStorage) Save(_ context.Context, objectName, _ string, data []byte) (string, error) {
	return utils.SaveFile(s.baseDir, s.baseURL, objectName, data)
}

func (s *LocalImageStorage) Remove(_ context.Context, objectName string) error {
	return utils.RemoveFile(s.baseDir, objectName)
}
