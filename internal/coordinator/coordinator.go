// Package coordinator deduplicates concurrent download work. All requests
// for the same URL collapse onto a single probe-download-commit flight; the
// winner's artifact fans out to every waiter.
package coordinator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/iconidentify/nanovideo/internal/domain"
	"github.com/iconidentify/nanovideo/internal/extractor"
	"github.com/iconidentify/nanovideo/internal/store"
)

// Coordinator turns a video URL into a cached artifact exactly once per
// fingerprint, no matter how many callers ask at the same time.
type Coordinator struct {
	engine  extractor.Engine
	store   store.Store
	tempDir string
	sink    extractor.ProgressSink
	logger  *slog.Logger

	group singleflight.Group
}

// New creates a Coordinator. tempDir holds in-flight partial downloads and
// must live on the same filesystem as a local store so commits can rename.
func New(engine extractor.Engine, st store.Store, tempDir string, sink extractor.ProgressSink, logger *slog.Logger) *Coordinator {
	if sink == nil {
		sink = extractor.NopSink{}
	}
	return &Coordinator{
		engine:  engine,
		store:   st,
		tempDir: tempDir,
		sink:    sink,
		logger:  logger,
	}
}

// Fetch returns the cached artifact for url, downloading it first if needed.
// Concurrent calls for the same URL share one flight. When force is set the
// existence check is skipped and the artifact is downloaded and committed
// again, overwriting the cached copy.
//
// A caller whose context expires stops waiting, but the flight itself runs
// to completion so the artifact still lands in the cache for the others.
func (c *Coordinator) Fetch(ctx context.Context, url string, force bool) (*domain.Artifact, error) {
	fp := domain.FingerprintURL(url)
	key := fp.String()

	ch := c.group.DoChan(key, func() (any, error) {
		// Detached from any single caller: the slowest part of the
		// flight must not die because the first requester hung up.
		artifact, err := c.resolve(context.WithoutCancel(ctx), fp, url, force)
		if err != nil {
			// Let the next request retry instead of inheriting
			// this failure.
			c.group.Forget(key)
			return nil, err
		}
		return artifact, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("request coalesced onto in-flight download", "fingerprint", key)
		}
		return res.Val.(*domain.Artifact), nil
	}
}

// resolve is the flight body: probe metadata, short-circuit on a cache hit,
// otherwise download to a temp file and commit it under the cache name.
func (c *Coordinator) resolve(ctx context.Context, fp domain.Fingerprint, url string, force bool) (*domain.Artifact, error) {
	meta, err := c.engine.ExtractInfo(ctx, url)
	if err != nil {
		return nil, err
	}

	name := fp.Filename(meta.Extension)

	if !force {
		ok, err := c.store.Exists(ctx, name)
		if err != nil {
			return nil, err
		}
		if ok {
			access, err := c.store.Resolve(ctx, name)
			if err != nil {
				return nil, err
			}
			c.logger.Debug("cache hit", "fingerprint", fp, "name", name)
			return c.artifact(fp, name, meta, access), nil
		}
	}

	tempPath := filepath.Join(c.tempDir, uuid.NewString()+".part")

	c.logger.Info("downloading",
		"url", url,
		"fingerprint", fp,
		"title", meta.Title,
		"force", force,
	)

	if err := c.engine.Download(ctx, url, tempPath, c.sink); err != nil {
		return nil, err
	}

	access, err := c.store.Commit(ctx, name, tempPath)
	if err != nil {
		if rmErr := os.Remove(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
			c.logger.Warn("failed to remove temp file after commit failure",
				"path", tempPath,
				"error", rmErr,
			)
		}
		return nil, err
	}

	c.logger.Info("download committed",
		"fingerprint", fp,
		"name", name,
		"size", access.Size,
	)

	return c.artifact(fp, name, meta, access), nil
}

func (c *Coordinator) artifact(fp domain.Fingerprint, name string, meta *domain.Metadata, access *domain.Access) *domain.Artifact {
	return &domain.Artifact{
		Fingerprint: fp,
		Filename:    name,
		Title:       meta.Title,
		Extension:   meta.Extension,
		Size:        access.Size,
		Access:      *access,
	}
}
