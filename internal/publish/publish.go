// Package publish uploads a chunk directory to where the front-end reads it:
// a local web root, an S3 bucket, a GCS bucket, or an Azure Blob container.
//
// The index is uploaded after every chunk and sidecar, so a reader that sees
// the new index can fetch every chunk it lists. Uploads are sequential and
// paced by a token bucket.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/time/rate"

	"mxguide/internal/chunk"
	chunkfile "mxguide/internal/chunk/file"
	"mxguide/internal/logging"
)

// ContentTypeJSON is stored with every published object.
const ContentTypeJSON = "application/json"

var ErrNoIndex = errors.New("chunk index not found (run split first)")

// Config configures a publish run.
type Config struct {
	// Dir is the chunk directory to publish.
	Dir string

	Target   Target
	Uploader Uploader

	// Rate is the maximum number of uploads per second. Zero or negative
	// disables pacing.
	Rate float64

	Logger *slog.Logger
}

// Object is one uploaded file.
type Object struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	ObjectMeta
	Size int `json:"size"`
}

// Result lists what was uploaded, in upload order.
type Result struct {
	Objects []Object `json:"objects"`
	Bytes   int64    `json:"bytes"`
}

// Plan returns the files of dir in upload order: chunks and their sidecars
// by name, then the index sidecars, then the index. Hidden files (including
// in-flight temp files) are skipped.
func Plan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", chunk.ErrChunkDirNotFound, dir)
		}
		return nil, err
	}
	var files, indexFiles []string
	hasIndex := false
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		switch {
		case name == chunk.IndexFileName:
			hasIndex = true
		case strings.HasPrefix(name, chunk.IndexFileName+"."):
			indexFiles = append(indexFiles, name)
		default:
			files = append(files, name)
		}
	}
	if !hasIndex {
		return nil, fmt.Errorf("%w: %s", ErrNoIndex, dir)
	}
	slices.Sort(files)
	slices.Sort(indexFiles)
	files = append(files, indexFiles...)
	return append(files, chunk.IndexFileName), nil
}

// MetaFor returns the object metadata for a file name. Sidecars keep the
// JSON content type and declare their Content-Encoding.
func MetaFor(name string) ObjectMeta {
	meta := ObjectMeta{ContentType: ContentTypeJSON}
	if enc, ok := chunkfile.EncodingForFile(name); ok {
		meta.ContentEncoding = enc.ContentEncoding()
	}
	return meta
}

// Publish uploads every file of cfg.Dir to cfg.Uploader.
func Publish(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Uploader == nil {
		return Result{}, errors.New("publish: uploader is required")
	}
	logger := logging.Default(cfg.Logger).With("component", "publish", "target", cfg.Target.String())

	files, err := Plan(cfg.Dir)
	if err != nil {
		return Result{}, err
	}

	limit := rate.Inf
	if cfg.Rate > 0 && !math.IsInf(cfg.Rate, 1) {
		limit = rate.Limit(cfg.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	var res Result
	for _, name := range files {
		if err := limiter.Wait(ctx); err != nil {
			return res, err
		}
		body, err := os.ReadFile(filepath.Join(cfg.Dir, name))
		if err != nil {
			return res, fmt.Errorf("read %s: %w", name, err)
		}
		obj := Object{
			Name:       name,
			Key:        cfg.Target.Key(name),
			ObjectMeta: MetaFor(name),
			Size:       len(body),
		}
		if err := cfg.Uploader.Upload(ctx, obj.Key, body, obj.ObjectMeta); err != nil {
			return res, fmt.Errorf("upload %s: %w", name, err)
		}
		logger.Debug("uploaded", "key", obj.Key, "bytes", obj.Size, "encoding", obj.ContentEncoding)
		res.Objects = append(res.Objects, obj)
		res.Bytes += int64(obj.Size)
	}

	logger.Info("publish complete", "objects", len(res.Objects), "bytes", res.Bytes)
	return res, nil
}
