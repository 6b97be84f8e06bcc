package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/tendant/simple-content-regen/pkg/media"
)

// FilesystemStorage implements Storage for a local directory
type FilesystemStorage struct {
	baseDir string
}

// NewFilesystemStorage creates a new filesystem disk rooted at baseDir
func NewFilesystemStorage(baseDir string) (*FilesystemStorage, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	// Ensure base directory exists
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FilesystemStorage{
		baseDir: abs,
	}, nil
}

// resolve joins key onto the base directory and rejects keys that escape it.
func (fs *FilesystemStorage) resolve(key string) (string, error) {
	path := filepath.Join(fs.baseDir, filepath.FromSlash(key))
	rel, err := filepath.Rel(fs.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}
	return path, nil
}

// Exists checks if a file exists at the given key
func (fs *FilesystemStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := fs.resolve(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	return !info.IsDir(), nil
}

// Write atomically replaces the file at key. The new file always carries a
// fresh modification time, even when the content is unchanged.
func (fs *FilesystemStorage) Write(ctx context.Context, key string, r io.Reader) error {
	path, err := fs.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("failed to create pending file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := io.Copy(pending, r); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}

	return nil
}

// ReadOriginal opens the record's original file
func (fs *FilesystemStorage) ReadOriginal(ctx context.Context, rec media.Record) (io.ReadCloser, error) {
	key := media.OriginalPath(rec)
	path, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}
