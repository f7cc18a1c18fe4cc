package handler

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/iconidentify/nanovideo/internal/domain"
	"github.com/iconidentify/nanovideo/internal/store"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFetcher is a test implementation of Fetcher.
type mockFetcher struct {
	artifact  *domain.Artifact
	err       error
	calls     int
	lastURL   string
	lastForce bool
}

func (m *mockFetcher) Fetch(ctx context.Context, url string, force bool) (*domain.Artifact, error) {
	m.calls++
	m.lastURL = url
	m.lastForce = force
	if m.err != nil {
		return nil, m.err
	}
	return m.artifact, nil
}

// mockProber is a test implementation of Prober.
type mockProber struct {
	meta *domain.Metadata
	err  error
}

func (m *mockProber) ExtractInfo(ctx context.Context, url string) (*domain.Metadata, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.meta, nil
}

// mockStore is an in-memory store.Store for handler tests.
type mockStore struct {
	files      map[string]string
	remote     bool
	remoteBase string
	listErr    error
	healthErr  error
}

func newMockStore() *mockStore {
	return &mockStore{files: map[string]string{}}
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) Exists(ctx context.Context, name string) (bool, error) {
	_, ok := m.files[name]
	return ok, nil
}

func (m *mockStore) Open(ctx context.Context, name string) (io.ReadCloser, *store.FileInfo, error) {
	content, ok := m.files[name]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(content)), &store.FileInfo{
		Size:    int64(len(content)),
		ModTime: time.Now(),
	}, nil
}

func (m *mockStore) Commit(ctx context.Context, name, srcPath string) (*domain.Access, error) {
	m.files[name] = "committed"
	return m.access(name, int64(len("committed"))), nil
}

func (m *mockStore) List(ctx context.Context) ([]domain.Entry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	entries := make([]domain.Entry, 0, len(m.files))
	for name, content := range m.files {
		entries = append(entries, domain.Entry{
			Name:       name,
			Size:       int64(len(content)),
			AccessPath: "/files/" + name,
		})
	}
	return entries, nil
}

func (m *mockStore) Resolve(ctx context.Context, name string) (*domain.Access, error) {
	content, ok := m.files[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.access(name, int64(len(content))), nil
}

func (m *mockStore) Healthy(ctx context.Context) error {
	return m.healthErr
}

func (m *mockStore) access(name string, size int64) *domain.Access {
	if m.remote {
		return &domain.Access{
			Kind: domain.AccessRemote,
			URL:  m.remoteBase + "/" + name,
			Size: size,
		}
	}
	return &domain.Access{
		Kind: domain.AccessLocal,
		Path: "/downloads/" + name,
		Size: size,
	}
}

// localArtifact builds an artifact served from disk.
func localArtifact(name, title, ext string) *domain.Artifact {
	return &domain.Artifact{
		Fingerprint: domain.Fingerprint(strings.TrimSuffix(name, "."+ext)),
		Filename:    name,
		Title:       title,
		Extension:   ext,
		Size:        9,
		Access: domain.Access{
			Kind: domain.AccessLocal,
			Path: "/downloads/" + name,
			Size: 9,
		},
	}
}

// remoteArtifact builds an artifact served by redirect.
func remoteArtifact(name, title, ext, url string) *domain.Artifact {
	a := localArtifact(name, title, ext)
	a.Access = domain.Access{
		Kind: domain.AccessRemote,
		URL:  url,
		Size: 9,
	}
	return a
}
