// Package store abstracts where finished artifacts live: a local downloads
// directory or the external file-hosting relay. The backend is chosen once
// at startup; callers never branch on the storage mode.
package store

import (
	"context"
	"io"
	"time"

	"github.com/iconidentify/nanovideo/internal/domain"
)

// FileInfo carries the attributes needed to serve a cached file.
type FileInfo struct {
	Size    int64
	ModTime time.Time
}

// Store is the cache backend for downloaded artifacts. Names are cache
// filenames of the form <fingerprint>.<extension>.
type Store interface {
	// Exists reports whether an artifact is already cached under name.
	// The relay variant treats any non-success probe as absence.
	Exists(ctx context.Context, name string) (bool, error)

	// Open returns a readable handle for a cached artifact, or
	// domain.ErrNotFound. For local files the reader also implements
	// io.ReadSeeker, enabling Range requests.
	Open(ctx context.Context, name string) (io.ReadCloser, *FileInfo, error)

	// Commit atomically registers a completed download under name,
	// consuming the source file. Fails with *domain.StoreError.
	Commit(ctx context.Context, name, srcPath string) (*domain.Access, error)

	// List re-queries the backing store and returns its current contents.
	List(ctx context.Context) ([]domain.Entry, error)

	// Resolve returns how a cached artifact should be served: a local
	// path to stream, or a remote URL to redirect to. domain.ErrNotFound
	// if absent.
	Resolve(ctx context.Context, name string) (*domain.Access, error)

	// Healthy verifies the backing medium is usable: writable for local
	// disk, reachable for the relay.
	Healthy(ctx context.Context) error
}
