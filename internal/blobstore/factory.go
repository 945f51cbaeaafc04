package blobstore

import (
	"context"
	"contract-signing/internal/config"
	"errors"
)

const (
	TypeFS = "fs"
	TypeS3 = "s3"
)

// NewStoreFromConfig picks the backend named by BLOB_STORE.
func NewStoreFromConfig(ctx context.Context) (Store, error) {
	switch config.GetBlobStore() {
	case TypeFS:
		return NewFileStore(config.GetUploadsDir(), config.GetStorageDir())
	case TypeS3:
		bucket := config.GetS3Bucket()
		if bucket == "" {
			return nil, errors.New("S3_BUCKET is required for s3 blob storage")
		}
		return NewS3Store(ctx, S3StoreConfig{
			Bucket:   bucket,
			Region:   config.GetS3Region(),
			Endpoint: config.GetS3Endpoint(),
			Prefix:   config.GetS3Prefix(),
		})
	default:
		return nil, errors.New("unsupported blob store type: " + config.GetBlobStore())
	}
}
