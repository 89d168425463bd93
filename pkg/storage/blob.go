package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/noah-isme/studynotes-api/pkg/config"
)

// ErrBlobNotFound is returned when a key does not resolve to a stored blob.
var ErrBlobNotFound = errors.New("blob not found")

// BlobMeta is attached to a blob when it is written so the object can be
// located from the store alone.
type BlobMeta struct {
	Filename    string
	ContentType string
	StudentID   string
	CourseID    string
	ChapterID   string
}

// BlobInfo describes a stored blob as reported by List.
type BlobInfo struct {
	Key        string
	Size       int64
	UploadedAt time.Time
}

// BlobStore is the content-only storage behind uploaded notes. Keys are the
// canonical file identifiers.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, meta BlobMeta) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]BlobInfo, error)
}

// DialFunc establishes a connection to a blob backend.
type DialFunc func(ctx context.Context) (BlobStore, error)

// Dialer returns the DialFunc for the configured backend.
func Dialer(cfg config.BlobConfig) (DialFunc, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", config.BlobBackendMinio:
		return func(ctx context.Context) (BlobStore, error) {
			return NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		}, nil
	case config.BlobBackendGridFS:
		return func(ctx context.Context) (BlobStore, error) {
			return NewGridFSStore(ctx, cfg.MongoURI, cfg.MongoDB, cfg.GridFSBucket)
		}, nil
	case config.BlobBackendLocal:
		return func(context.Context) (BlobStore, error) {
			return NewLocalStore(cfg.LocalDir)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported blob backend %q", cfg.Backend)
	}
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}
