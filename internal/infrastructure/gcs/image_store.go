package gcs

import (
	"bytes"
	"context"
	"io"

	"cloud.google.com/go/storage"

	"github.com/account-kit/user-service/internal/domain/repository"
)

// ImageStore keeps profile images in a Google Cloud Storage bucket. The key
// is the object name; public URLs are derived by the caller from the
// configured base URL.
type ImageStore struct {
	client *storage.Client
	bucket string
}

func NewImageStore(client *storage.Client, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket}
}

func (s *ImageStore) UploadImage(ctx context.Context, data []byte, key string) error {
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

func (s *ImageStore) DeleteImage(ctx context.Context, key string) error {
	return s.client.Bucket(s.bucket).Object(key).Delete(ctx)
}

var _ repository.ImageStore = (*ImageStore)(nil)
