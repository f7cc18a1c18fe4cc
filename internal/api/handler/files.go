package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/nanovideo/internal/domain"
	"github.com/iconidentify/nanovideo/internal/store"
)

// FilesHandler serves the cached-file listing and individual cached files.
type FilesHandler struct {
	store  store.Store
	logger *slog.Logger
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(st store.Store, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{
		store:  st,
		logger: logger,
	}
}

// ListResponse contains the cached-file listing.
type ListResponse struct {
	Files []domain.Entry `json:"files"`
}

// List handles GET /files - enumerate cached artifacts.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Files: entries})
}

// Serve handles GET /files/{name} - stream one cached artifact or redirect
// to its remote URL.
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !validName(name) {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	access, err := h.store.Resolve(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		h.logger.Error("resolve failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve file")
		return
	}

	if access.Kind == domain.AccessRemote {
		http.Redirect(w, r, access.URL, http.StatusFound)
		return
	}

	rc, info, err := h.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		h.logger.Error("open failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to open file")
		return
	}
	defer rc.Close()

	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	w.Header().Set("Content-Type", contentType(ext))

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, info.ModTime, rs)
		return
	}
	io.Copy(w, rc)
}

// validName rejects anything that could escape the downloads directory.
// Cache names are flat <fingerprint>.<extension> strings, nothing more.
func validName(name string) bool {
	if name == "" || name[0] == '.' {
		return false
	}
	return !strings.ContainsAny(name, "/\\") && !strings.Contains(name, "..")
}
