package repository

import "context"

// ImageStore is the blob-storage contract for profile images. Keys are bucket
// object names; URL construction from keys belongs to the caller.
type ImageStore interface {
	UploadImage(ctx context.Context, data []byte, key string) error
	DeleteImage(ctx context.Context, key string) error
}
