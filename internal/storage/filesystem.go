// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

// Package storage persists attachment blobs on the local filesystem.
package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"

	"github.com/syncora/syncora/internal/chat"
	"github.com/syncora/syncora/internal/xdg"
)

// ErrNotFound is returned when no blob exists under the requested key.
var ErrNotFound = errors.New("blob not found")

// MaxBlobSize caps a single attachment at 50 MiB.
const MaxBlobSize = 50 << 20

// Filesystem stores blobs as files under a root directory. Keys are
// slash-separated relative paths; path traversal outside the root is
// rejected.
type Filesystem struct {
	root string
}

// Compile-time interface check.
var _ chat.BlobStore = (*Filesystem)(nil)

// NewFilesystem creates a Filesystem rooted at dir, creating it if needed.
// An empty dir uses the XDG attachments directory.
func NewFilesystem(dir string) (*Filesystem, error) {
	if dir == "" {
		dir = xdg.AttachmentsDir()
	}
	if err := xdg.EnsureDir(dir); err != nil {
		return nil, oops.Code("STORAGE_INIT_FAILED").With("dir", dir).Wrap(err)
	}
	return &Filesystem{root: dir}, nil
}

// Put writes the blob under key, replacing any existing blob. The write goes
// through a temp file and rename so readers never observe partial content.
func (f *Filesystem) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if size < 0 || size > MaxBlobSize {
		return oops.Code("STORAGE_SIZE_INVALID").With("key", key).With("size", size).
			Errorf("blob size %d outside [0, %d]", size, MaxBlobSize)
	}
	path, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return oops.Code("STORAGE_WRITE_FAILED").With("key", key).Wrap(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return oops.Code("STORAGE_WRITE_FAILED").With("key", key).Wrap(err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	written, err := io.Copy(tmp, io.LimitReader(r, size))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return oops.Code("STORAGE_WRITE_FAILED").With("key", key).Wrap(err)
	}
	if written != size {
		return oops.Code("STORAGE_SIZE_MISMATCH").With("key", key).
			With("expected", size).With("actual", written).
			Errorf("short write: got %d bytes, want %d", written, size)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return oops.Code("STORAGE_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Get opens the blob stored under key. The caller must close the returned
// reader.
func (f *Filesystem) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := f.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, oops.Code("STORAGE_NOT_FOUND").With("key", key).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("STORAGE_READ_FAILED").With("key", key).Wrap(err)
	}
	return file, nil
}

// Delete removes the blob under key. Deleting a missing blob is not an
// error.
func (f *Filesystem) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return oops.Code("STORAGE_DELETE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// resolve maps a key to an absolute path under the root, rejecting empty
// keys and traversal attempts.
func (f *Filesystem) resolve(key string) (string, error) {
	if key == "" {
		return "", oops.Code("STORAGE_KEY_INVALID").Errorf("key is empty")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", oops.Code("STORAGE_KEY_INVALID").With("key", key).Errorf("key escapes storage root")
	}
	return filepath.Join(f.root, cleaned), nil
}
