package extractor

import (
	"context"

	"github.com/iconidentify/nanovideo/internal/domain"
)

// Engine is the boundary to the external video extraction/download engine.
// Both calls may block for a long time and are bounded by configured
// timeouts; failures surface as *domain.ExtractionError.
type Engine interface {
	// ExtractInfo probes a URL for metadata without downloading.
	ExtractInfo(ctx context.Context, url string) (*domain.Metadata, error)

	// Download fetches the media behind url into destPath. Progress events
	// are delivered to sink. On failure destPath is removed.
	Download(ctx context.Context, url, destPath string, sink ProgressSink) error
}

// ProgressEvent is one progress report from the engine.
type ProgressEvent struct {
	URL     string
	Percent float64
	Raw     string
}

// ProgressSink receives progress events from a running download. The engine
// boundary takes an injected sink instead of inline callbacks so engine
// implementations stay decoupled from logging.
type ProgressSink interface {
	Progress(ev ProgressEvent)
}

// NopSink discards all progress events.
type NopSink struct{}

func (NopSink) Progress(ProgressEvent) {}
