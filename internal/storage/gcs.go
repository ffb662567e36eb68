package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const firebaseDownloadBase = "https://firebasestorage.googleapis.com/v0/b"

// GCSStore uploads to a Firebase Storage bucket
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore creates a store for the given bucket. The client is usually
// obtained from firebase.App.Storage or gcs.NewClient.
func NewGCSStore(client *gcs.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

// Upload writes the object with a download token and returns its
// Firebase download URL
func (s *GCSStore) Upload(ctx context.Context, obj Object) (string, error) {
	token := uuid.NewString()

	w := s.client.Bucket(s.bucket).Object(obj.Path).NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}

	if _, err := w.Write(obj.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	return DownloadURL(s.bucket, obj.Path, token), nil
}

// Delete removes the object if it exists
func (s *GCSStore) Delete(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Close releases the client
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// DownloadURL builds a tokenised Firebase Storage URL
func DownloadURL(bucket, path, token string) string {
	return fmt.Sprintf("%s/%s/o/%s?alt=media&token=%s",
		firebaseDownloadBase, bucket, url.PathEscape(path), token)
}
