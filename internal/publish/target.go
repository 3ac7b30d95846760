package publish

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mxguide/internal/fsutil"
)

// Target schemes.
const (
	SchemeFile   = "file"
	SchemeS3     = "s3"
	SchemeGCS    = "gs"
	SchemeAzBlob = "azblob"
)

var ErrUnsupportedTarget = errors.New("unsupported publish target")

// Target is a parsed destination URL.
type Target struct {
	Scheme string

	// Bucket is the bucket or container. For file targets it is empty and
	// Prefix is the destination directory.
	Bucket string

	// Prefix is prepended to every object key.
	Prefix string
}

// ParseTarget parses file:///dir, s3://bucket/prefix, gs://bucket/prefix or
// azblob://container/prefix.
func ParseTarget(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse target %q: %w", raw, err)
	}
	switch u.Scheme {
	case SchemeFile:
		dir := u.Path
		if u.Host != "" {
			dir = u.Host + u.Path
		}
		if dir == "" {
			return Target{}, fmt.Errorf("%w: %q has no directory", ErrUnsupportedTarget, raw)
		}
		return Target{Scheme: SchemeFile, Prefix: filepath.FromSlash(dir)}, nil
	case SchemeS3, SchemeGCS, SchemeAzBlob:
		if u.Host == "" {
			return Target{}, fmt.Errorf("%w: %q has no bucket", ErrUnsupportedTarget, raw)
		}
		return Target{Scheme: u.Scheme, Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
	}
	return Target{}, fmt.Errorf("%w: %q (want file, s3, gs or azblob)", ErrUnsupportedTarget, raw)
}

// Key returns the object key for a file name.
func (t Target) Key(name string) string {
	if t.Prefix == "" || t.Scheme == SchemeFile {
		return name
	}
	return path.Join(t.Prefix, name)
}

func (t Target) String() string {
	if t.Scheme == SchemeFile {
		return "file://" + filepath.ToSlash(t.Prefix)
	}
	if t.Prefix == "" {
		return t.Scheme + "://" + t.Bucket
	}
	return t.Scheme + "://" + t.Bucket + "/" + t.Prefix
}

// ObjectMeta carries the HTTP metadata stored with an object.
type ObjectMeta struct {
	ContentType     string `json:"content_type"`
	ContentEncoding string `json:"content_encoding,omitempty"`
}

// Uploader stores objects at a target.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, meta ObjectMeta) error
	Close() error
}

// Options holds per-backend settings.
type Options struct {
	// S3Endpoint overrides the S3 endpoint for S3-compatible stores.
	S3Endpoint string

	// AzureConnectionString authenticates azblob targets. Empty reads
	// AZURE_STORAGE_CONNECTION_STRING.
	AzureConnectionString string
}

// Open returns an Uploader for t.
func Open(ctx context.Context, t Target, opts Options) (Uploader, error) {
	switch t.Scheme {
	case SchemeFile:
		return &dirUploader{root: t.Prefix}, nil
	case SchemeS3:
		return newS3Uploader(ctx, t.Bucket, opts.S3Endpoint)
	case SchemeGCS:
		return newGCSUploader(ctx, t.Bucket)
	case SchemeAzBlob:
		conn := opts.AzureConnectionString
		if conn == "" {
			conn = os.Getenv("AZURE_STORAGE_CONNECTION_STRING")
		}
		return newAzBlobUploader(t.Bucket, conn)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedTarget, t.Scheme)
}

// dirUploader copies objects into a local directory, e.g. a web root.
type dirUploader struct {
	root string
}

func (d *dirUploader) Upload(_ context.Context, key string, body []byte, _ ObjectMeta) error {
	dst := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), fsutil.DefaultDirMode); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(dst, body, fsutil.DefaultFileMode)
}

func (d *dirUploader) Close() error { return nil }
