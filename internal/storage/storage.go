package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tendant/simple-content-regen/pkg/media"
)

var (
	// ErrNotFound is returned when a file does not exist on the disk
	ErrNotFound = errors.New("file not found")

	// ErrInvalidPath is returned for paths escaping the disk root
	ErrInvalidPath = errors.New("invalid path: path traversal detected")

	// ErrUnknownDisk is returned when a record names a disk that is not configured
	ErrUnknownDisk = errors.New("unknown disk")
)

// Storage provides access to one disk holding originals and derived artifacts
type Storage interface {
	// Exists checks if a file exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// Write replaces the file at path with the reader's content
	Write(ctx context.Context, path string, r io.Reader) error

	// ReadOriginal returns the record's original file, or ErrNotFound
	ReadOriginal(ctx context.Context, rec media.Record) (io.ReadCloser, error)
}

// Disks maps disk names to storage backends.
type Disks map[string]Storage

// Single returns a disk set with one backend registered as the default disk.
func Single(s Storage) Disks {
	return Disks{media.DefaultDisk: s}
}

// Resolve returns the backend for the record's disk.
func (d Disks) Resolve(rec media.Record) (Storage, error) {
	name := rec.DiskName()
	s, ok := d[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDisk, name)
	}
	return s, nil
}

// ReadOriginal opens the record's original on its own disk.
func (d Disks) ReadOriginal(ctx context.Context, rec media.Record) (io.ReadCloser, error) {
	s, err := d.Resolve(rec)
	if err != nil {
		return nil, err
	}
	return s.ReadOriginal(ctx, rec)
}

// Write stores an artifact on the record's disk.
func (d Disks) Write(ctx context.Context, rec media.Record, path string, r io.Reader) error {
	s, err := d.Resolve(rec)
	if err != nil {
		return err
	}
	return s.Write(ctx, path, r)
}
