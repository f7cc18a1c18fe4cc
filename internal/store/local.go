package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iconidentify/nanovideo/internal/domain"
)

// LocalStore persists artifacts as plain files under a downloads directory,
// named <fingerprint>.<extension>. A write is durable once Commit returns.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a filesystem-backed store rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create downloads directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether name is present on disk.
func (s *LocalStore) Exists(ctx context.Context, name string) (bool, error) {
	info, err := os.Stat(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, domain.NewStoreError("stat", name, err)
	}
	return !info.IsDir(), nil
}

// Open returns an *os.File for the artifact, which supports seeking so the
// handler layer can honor Range requests.
func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, *FileInfo, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, domain.NewStoreError("open", name, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, domain.NewStoreError("stat", name, err)
	}

	return f, &FileInfo{Size: stat.Size(), ModTime: stat.ModTime()}, nil
}

// Commit moves a completed download into the cache. Rename is atomic on the
// same filesystem, so a reader never observes a half-written artifact.
func (s *LocalStore) Commit(ctx context.Context, name, srcPath string) (*domain.Access, error) {
	dst := s.path(name)

	if err := os.Rename(srcPath, dst); err != nil {
		// Best effort: the coordinator removes the temp file on failure.
		return nil, domain.NewStoreError("commit", name, err)
	}

	stat, err := os.Stat(dst)
	if err != nil {
		return nil, domain.NewStoreError("commit", name, err)
	}

	return &domain.Access{
		Kind: domain.AccessLocal,
		Path: dst,
		Size: stat.Size(),
	}, nil
}

// List returns the current files in the downloads directory. Dot files
// (health probes, partial-download directory) are skipped.
func (s *LocalStore) List(ctx context.Context) ([]domain.Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.NewStoreError("list", "", err)
	}

	entries := make([]domain.Entry, 0, len(dirents))
	for _, d := range dirents {
		if d.IsDir() || d.Name()[0] == '.' {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, domain.Entry{
			Name:       d.Name(),
			Size:       info.Size(),
			AccessPath: "/files/" + d.Name(),
		})
	}
	return entries, nil
}

// Resolve returns a local-file access descriptor for name.
func (s *LocalStore) Resolve(ctx context.Context, name string) (*domain.Access, error) {
	info, err := os.Stat(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewStoreError("resolve", name, err)
	}

	return &domain.Access{
		Kind: domain.AccessLocal,
		Path: s.path(name),
		Size: info.Size(),
	}, nil
}

// Healthy verifies the downloads directory is writable by creating and
// removing a probe file.
func (s *LocalStore) Healthy(ctx context.Context) error {
	f, err := os.CreateTemp(s.dir, ".health-*")
	if err != nil {
		return fmt.Errorf("downloads directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}
