package extractor

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/iconidentify/nanovideo/internal/domain"
)

// CachingResolver wraps an Engine and memoizes metadata probes per URL so
// repeated /info calls and cache-hit downloads do not re-invoke the engine.
// Downloads pass straight through.
type CachingResolver struct {
	engine Engine
	cache  *gocache.Cache
}

// NewCachingResolver creates a resolver memoizing ExtractInfo results for ttl.
func NewCachingResolver(engine Engine, ttl time.Duration) *CachingResolver {
	return &CachingResolver{
		engine: engine,
		cache:  gocache.New(ttl, 10*time.Minute),
	}
}

// ExtractInfo returns a cached probe result when fresh, otherwise asks the
// engine and caches the answer. Failures are never cached; the next caller
// retries the probe.
func (r *CachingResolver) ExtractInfo(ctx context.Context, url string) (*domain.Metadata, error) {
	if item, found := r.cache.Get(url); found {
		if meta, ok := item.(*domain.Metadata); ok {
			return meta, nil
		}
	}

	meta, err := r.engine.ExtractInfo(ctx, url)
	if err != nil {
		return nil, err
	}

	r.cache.Set(url, meta, gocache.DefaultExpiration)
	return meta, nil
}

// Download delegates to the wrapped engine.
func (r *CachingResolver) Download(ctx context.Context, url, destPath string, sink ProgressSink) error {
	return r.engine.Download(ctx, url, destPath, sink)
}

// Invalidate drops the cached probe for a URL.
func (r *CachingResolver) Invalidate(url string) {
	r.cache.Delete(url)
}
