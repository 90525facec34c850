/*
Package storage keeps dump files, in an S3-compatible bucket or in a local directory.
*/
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a dump file does not exist.
var ErrNotFound = errors.New("dump file not found")

// ServiceConfig holds the configuration required to connect to the storage service.
// With an empty S3BucketName, files live under Dir.
type ServiceConfig struct {
	Dir string

	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// DumpStore defines the public interface for dump file storage.
type DumpStore interface {
	// Open returns the content of the named file, or an error wrapping ErrNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Save creates or replaces the named file with the content of r.
	Save(ctx context.Context, name string, r io.Reader) error
}

// NewDumpStore is the factory function for DumpStore.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewDumpStore(cfg ServiceConfig) (DumpStore, error) {
	if cfg.S3BucketName != "" {
		return newS3Client(cfg)
	}
	return NewLocalStore(cfg.Dir)
}
