package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

type azBlobUploader struct {
	client    *azblob.Client
	container string
}

func newAzBlobUploader(container, connectionString string) (*azBlobUploader, error) {
	if connectionString == "" {
		return nil, errors.New("azblob target requires AZURE_STORAGE_CONNECTION_STRING")
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create azblob client: %w", err)
	}
	return &azBlobUploader{client: client, container: container}, nil
}

func (u *azBlobUploader) Upload(ctx context.Context, key string, body []byte, meta ObjectMeta) error {
	headers := &blob.HTTPHeaders{BlobContentType: &meta.ContentType}
	if meta.ContentEncoding != "" {
		headers.BlobContentEncoding = &meta.ContentEncoding
	}
	_, err := u.client.UploadBuffer(ctx, u.container, key, body, &azblob.UploadBufferOptions{
		HTTPHeaders: headers,
	})
	if err != nil {
		return fmt.Errorf("azblob upload %s: %w", key, err)
	}
	return nil
}

func (u *azBlobUploader) Close() error { return nil }
