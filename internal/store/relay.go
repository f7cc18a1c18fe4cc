package store

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/iconidentify/nanovideo/internal/domain"
	"github.com/iconidentify/nanovideo/pkg/relay"
)

// RelayStore delegates artifact storage to the external file-hosting relay.
// Clients are served redirects to the relay's public URLs instead of byte
// streams from this process.
type RelayStore struct {
	client *relay.Client
	logger *slog.Logger
}

// NewRelayStore creates a relay-backed store.
func NewRelayStore(client *relay.Client, logger *slog.Logger) *RelayStore {
	return &RelayStore{
		client: client,
		logger: logger,
	}
}

// Exists probes the relay for name. Probe failures count as absence: a
// false negative triggers a redundant download and upload, never data loss.
func (s *RelayStore) Exists(ctx context.Context, name string) (bool, error) {
	ok, _, err := s.client.Exists(ctx, name)
	if err != nil {
		s.logger.Warn("relay existence probe failed, treating as absent",
			"name", name,
			"error", err,
		)
		return false, nil
	}
	return ok, nil
}

// Open streams a file back from the relay. The handle does not support
// seeking; handlers normally redirect to the relay instead of calling this.
func (s *RelayStore) Open(ctx context.Context, name string) (io.ReadCloser, *FileInfo, error) {
	ok, size, err := s.client.Exists(ctx, name)
	if err != nil || !ok {
		return nil, nil, domain.ErrNotFound
	}

	rc, fetchedSize, err := s.client.Fetch(ctx, name)
	if err != nil {
		return nil, nil, domain.NewStoreError("open", name, err)
	}
	if fetchedSize > 0 {
		size = fetchedSize
	}

	return rc, &FileInfo{Size: size}, nil
}

// Commit uploads a completed download to the relay and removes the local
// source file. The upload must succeed before the artifact becomes visible;
// source cleanup failures are logged, never propagated.
func (s *RelayStore) Commit(ctx context.Context, name, srcPath string) (*domain.Access, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, domain.NewStoreError("commit", name, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, domain.NewStoreError("commit", name, err)
	}
	size := stat.Size()

	url, err := s.client.Upload(ctx, name, f, size)
	f.Close()
	if err != nil {
		return nil, domain.NewStoreError("commit", name, err)
	}

	if err := os.Remove(srcPath); err != nil {
		s.logger.Warn("failed to remove uploaded temp file", "path", srcPath, "error", err)
	}

	return &domain.Access{
		Kind: domain.AccessRemote,
		URL:  url,
		Size: size,
	}, nil
}

// List re-queries the relay folder.
func (s *RelayStore) List(ctx context.Context) ([]domain.Entry, error) {
	files, err := s.client.List(ctx)
	if err != nil {
		return nil, domain.NewStoreError("list", "", err)
	}

	entries := make([]domain.Entry, 0, len(files))
	for _, f := range files {
		accessPath := f.URL
		if accessPath == "" {
			accessPath = s.client.FileURL(f.Name)
		}
		entries = append(entries, domain.Entry{
			Name:       f.Name,
			Size:       f.Size,
			AccessPath: accessPath,
		})
	}
	return entries, nil
}

// Resolve returns a redirect access descriptor for name.
func (s *RelayStore) Resolve(ctx context.Context, name string) (*domain.Access, error) {
	ok, size, err := s.client.Exists(ctx, name)
	if err != nil {
		return nil, domain.NewStoreError("resolve", name, err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}

	return &domain.Access{
		Kind: domain.AccessRemote,
		URL:  s.client.FileURL(name),
		Size: size,
	}, nil
}

// Healthy checks the relay is reachable.
func (s *RelayStore) Healthy(ctx context.Context) error {
	return s.client.Ping(ctx)
}
