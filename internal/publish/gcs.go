package publish

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

type gcsUploader struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// newGCSUploader authenticates with Application Default Credentials.
func newGCSUploader(ctx context.Context, bucket string) (*gcsUploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &gcsUploader{client: client, bucket: client.Bucket(bucket)}, nil
}

func (u *gcsUploader) Upload(ctx context.Context, key string, body []byte, meta ObjectMeta) error {
	w := u.bucket.Object(key).NewWriter(ctx)
	w.ContentType = meta.ContentType
	w.ContentEncoding = meta.ContentEncoding
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", key, err)
	}
	return nil
}

func (u *gcsUploader) Close() error {
	return u.client.Close()
}
