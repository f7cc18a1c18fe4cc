package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/iconidentify/nanovideo/internal/domain"
	"github.com/iconidentify/nanovideo/internal/store"
)

// Fetcher turns a video URL into a cached artifact, deduplicating concurrent
// requests for the same URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, force bool) (*domain.Artifact, error)
}

// Prober extracts metadata for a URL without downloading.
type Prober interface {
	ExtractInfo(ctx context.Context, url string) (*domain.Metadata, error)
}

// DownloadHandler handles the download-and-serve endpoints.
type DownloadHandler struct {
	fetcher Fetcher
	prober  Prober
	store   store.Store
	logger  *slog.Logger
}

// NewDownloadHandler creates a new download handler.
func NewDownloadHandler(fetcher Fetcher, prober Prober, st store.Store, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		fetcher: fetcher,
		prober:  prober,
		store:   st,
		logger:  logger,
	}
}

// urlRequest is the JSON request body accepted by POST variants.
type urlRequest struct {
	URL string `json:"url"`
}

// ShareResponse is the JSON response for /share.
type ShareResponse struct {
	File string `json:"file,omitempty"`
	URL  string `json:"url,omitempty"`
}

// InfoResponse is the JSON response for /info.
type InfoResponse struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Extension  string  `json:"ext"`
	Duration   float64 `json:"duration,omitempty"`
	Uploader   string  `json:"uploader,omitempty"`
	WebpageURL string  `json:"webpage_url,omitempty"`
}

// Download handles GET/POST /download - fetch the video behind ?url= and
// serve it, reusing the cached copy when one exists.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	videoURL, err := h.requestURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	artifact, err := h.fetcher.Fetch(r.Context(), videoURL, false)
	if err != nil {
		h.writeFetchError(w, r, err)
		return
	}

	h.serveArtifact(w, r, artifact)
}

// Share handles GET/POST /share - force a fresh download and return where
// the artifact landed instead of streaming it.
func (h *DownloadHandler) Share(w http.ResponseWriter, r *http.Request) {
	videoURL, err := h.requestURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	artifact, err := h.fetcher.Fetch(r.Context(), videoURL, true)
	if err != nil {
		h.writeFetchError(w, r, err)
		return
	}

	resp := ShareResponse{}
	if artifact.Access.Kind == domain.AccessRemote {
		resp.URL = artifact.Access.URL
	} else {
		resp.File = artifact.Filename
	}
	writeJSON(w, http.StatusOK, resp)
}

// Info handles POST /info - probe a URL for metadata without downloading.
func (h *DownloadHandler) Info(w http.ResponseWriter, r *http.Request) {
	videoURL, err := h.requestURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta, err := h.prober.ExtractInfo(r.Context(), videoURL)
	if err != nil {
		h.writeFetchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, InfoResponse{
		ID:         meta.ID,
		Title:      meta.Title,
		Extension:  meta.Extension,
		Duration:   meta.Duration,
		Uploader:   meta.Uploader,
		WebpageURL: meta.WebpageURL,
	})
}

// requestURL extracts and validates the video URL from the query string or,
// for POST requests, a JSON body.
func (h *DownloadHandler) requestURL(r *http.Request) (string, error) {
	raw := r.URL.Query().Get("url")
	if raw == "" && r.Method == http.MethodPost && r.Body != nil {
		var req urlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			raw = req.URL
		}
	}
	if raw == "" {
		return "", errors.New("missing url parameter")
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%s: %s", domain.ErrInvalidURL, raw)
	}
	return raw, nil
}

// serveArtifact streams a local artifact or redirects to its remote URL.
func (h *DownloadHandler) serveArtifact(w http.ResponseWriter, r *http.Request, artifact *domain.Artifact) {
	if artifact.Access.Kind == domain.AccessRemote {
		http.Redirect(w, r, artifact.Access.URL, http.StatusFound)
		return
	}

	rc, info, err := h.store.Open(r.Context(), artifact.Filename)
	if err != nil {
		h.logger.Error("failed to open committed artifact", "name", artifact.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to open downloaded file")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType(artifact.Extension))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", artifact.Title+"."+artifact.Extension))

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, artifact.Filename, info.ModTime, rs)
		return
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}

// writeFetchError maps pipeline errors onto HTTP statuses. Engine and store
// failures keep their message so callers see what the engine said.
func (h *DownloadHandler) writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	var extractErr *domain.ExtractionError
	var storeErr *domain.StoreError

	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrDownloadTimeout):
		writeError(w, http.StatusGatewayTimeout, domain.ErrDownloadTimeout.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	case errors.As(err, &extractErr):
		h.logger.Error("extraction failed", "url", extractErr.URL, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &storeErr):
		h.logger.Error("store operation failed", "op", storeErr.Op, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error("download failed", "error", err)
		writeError(w, http.StatusInternalServerError, "download failed")
	}
}

// contentType maps a file extension to a MIME type, defaulting to a generic
// binary stream for anything unregistered.
func contentType(ext string) string {
	if ct := mime.TypeByExtension("." + ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
