package extractor

import (
	"log/slog"
	"sync"
	"time"
)

// SlogSink logs progress events, throttled to one line per interval so a
// long download does not flood the log.
type SlogSink struct {
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	lastLog time.Time
}

// NewSlogSink creates a sink logging at most one progress line every 30s.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{
		logger:   logger,
		interval: 30 * time.Second,
	}
}

func (s *SlogSink) Progress(ev ProgressEvent) {
	s.mu.Lock()
	if time.Since(s.lastLog) < s.interval {
		s.mu.Unlock()
		return
	}
	s.lastLog = time.Now()
	s.mu.Unlock()

	s.logger.Info("download progress",
		"url", ev.URL,
		"percent", ev.Percent,
	)
}
