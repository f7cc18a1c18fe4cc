package extractor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/iconidentify/nanovideo/internal/config"
	"github.com/iconidentify/nanovideo/internal/domain"
)

// YTDLP implements Engine by shelling out to the yt-dlp binary.
type YTDLP struct {
	cfg    config.ExtractorConfig
	logger *slog.Logger
}

// NewYTDLP creates an Engine backed by the yt-dlp subprocess.
func NewYTDLP(cfg config.ExtractorConfig, logger *slog.Logger) *YTDLP {
	return &YTDLP{
		cfg:    cfg,
		logger: logger,
	}
}

// rawInfo is the subset of yt-dlp's -J output we care about.
type rawInfo struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Ext        string  `json:"ext"`
	Duration   float64 `json:"duration"`
	Uploader   string  `json:"uploader"`
	WebpageURL string  `json:"webpage_url"`
}

// ExtractInfo probes a URL via `yt-dlp -J` without downloading.
func (y *YTDLP) ExtractInfo(ctx context.Context, url string) (*domain.Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, y.cfg.ExtractTimeout)
	defer cancel()

	args := []string{
		"-J",
		"--no-playlist",
		"--no-warnings",
		"--no-cache-dir",
		url,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.cfg.BinPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, domain.NewExtractionError(url, engineError(ctx, err, stderr.String()))
	}

	meta, err := parseMetadata(stdout.Bytes())
	if err != nil {
		return nil, domain.NewExtractionError(url, err)
	}
	return meta, nil
}

// Download fetches the media behind url into destPath.
func (y *YTDLP) Download(ctx context.Context, url, destPath string, sink ProgressSink) error {
	ctx, cancel := context.WithTimeout(ctx, y.cfg.DownloadTimeout)
	defer cancel()

	if sink == nil {
		sink = NopSink{}
	}

	args := []string{
		"-f", y.cfg.Format,
		"--no-playlist",
		"--no-warnings",
		"--no-cache-dir",
		"--newline",
		"-o", destPath,
		url,
	}

	cmd := exec.CommandContext(ctx, y.cfg.BinPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return domain.NewExtractionError(url, fmt.Errorf("attach stdout: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return domain.NewExtractionError(url, fmt.Errorf("start engine: %w", err))
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if pct, ok := parseProgressLine(line); ok {
			sink.Progress(ProgressEvent{URL: url, Percent: pct, Raw: line})
		}
	}

	if err := cmd.Wait(); err != nil {
		// Never leave a partial file behind on the failure path.
		if rmErr := os.Remove(destPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			y.logger.Warn("failed to remove partial download", "path", destPath, "error", rmErr)
		}
		return domain.NewExtractionError(url, engineError(ctx, err, stderr.String()))
	}

	if _, err := os.Stat(destPath); err != nil {
		return domain.NewExtractionError(url, fmt.Errorf("downloaded file not found: %w", err))
	}

	return nil
}

// parseMetadata decodes yt-dlp's JSON probe output, applying the engine's
// conventional fallbacks for missing title and extension.
func parseMetadata(data []byte) (*domain.Metadata, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse engine output: %w", err)
	}

	if raw.Title == "" {
		raw.Title = "video"
	}
	if raw.Ext == "" {
		raw.Ext = "mp4"
	}

	return &domain.Metadata{
		ID:         raw.ID,
		Title:      raw.Title,
		Extension:  raw.Ext,
		Duration:   raw.Duration,
		Uploader:   raw.Uploader,
		WebpageURL: raw.WebpageURL,
	}, nil
}

// parseProgressLine extracts the percentage from a yt-dlp progress line,
// e.g. "[download]  42.7% of ~12.34MiB at 1.20MiB/s ETA 00:06".
func parseProgressLine(line string) (float64, bool) {
	if !strings.HasPrefix(line, "[download]") {
		return 0, false
	}
	fields := strings.Fields(line)
	for _, f := range fields[1:] {
		if !strings.HasSuffix(f, "%") {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil {
			return 0, false
		}
		return pct, true
	}
	return 0, false
}

// engineError turns a subprocess failure into a caller-facing error,
// preferring a timeout signal and otherwise the engine's own words.
func engineError(ctx context.Context, err error, output string) error {
	if ctx.Err() == context.DeadlineExceeded {
		return domain.ErrDownloadTimeout
	}

	output = strings.TrimSpace(output)
	switch {
	case strings.Contains(output, "Video unavailable"):
		return errors.New("video is unavailable or private")
	case strings.Contains(output, "Private video"):
		return errors.New("video is unavailable or private")
	case strings.Contains(output, "Unsupported URL"):
		return errors.New("unsupported site")
	case output != "":
		return fmt.Errorf("engine error: %s", truncate(output, 200))
	default:
		return fmt.Errorf("engine error: %w", err)
	}
}

// truncate shortens a string for error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
