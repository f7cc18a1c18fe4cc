package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func serveRequest(t *testing.T, h *FilesHandler, name string) *httptest.ResponseRecorder {
	t.Helper()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", name)

	req := httptest.NewRequest(http.MethodGet, "/files/"+name, nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	h.Serve(w, req)
	return w
}

func TestFiles_List(t *testing.T) {
	st := newMockStore()
	st.files["abc.mp4"] = "xx"
	h := NewFilesHandler(st, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Files) != 1 || resp.Files[0].Name != "abc.mp4" {
		t.Errorf("files = %+v", resp.Files)
	}
}

func TestFiles_List_EmptyIsArray(t *testing.T) {
	h := NewFilesHandler(newMockStore(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	// An empty cache must serialize as [], not null.
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if string(resp["files"]) != "[]" {
		t.Errorf("files = %s, want []", resp["files"])
	}
}

func TestFiles_Serve_Local(t *testing.T) {
	st := newMockStore()
	st.files["abc.mp4"] = "video-bytes"
	h := NewFilesHandler(st, testLogger())

	w := serveRequest(t, h, "abc.mp4")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "video-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestFiles_Serve_RemoteRedirects(t *testing.T) {
	st := newMockStore()
	st.remote = true
	st.remoteBase = "https://relay.example.com/videos"
	st.files["abc.mp4"] = "x"
	h := NewFilesHandler(st, testLogger())

	w := serveRequest(t, h, "abc.mp4")

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if loc := w.Header().Get("Location"); loc != "https://relay.example.com/videos/abc.mp4" {
		t.Errorf("Location = %q", loc)
	}
}

func TestFiles_Serve_NotFound(t *testing.T) {
	h := NewFilesHandler(newMockStore(), testLogger())

	w := serveRequest(t, h, "missing.mp4")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestFiles_Serve_RejectsTraversal(t *testing.T) {
	st := newMockStore()
	st.files["abc.mp4"] = "x"
	h := NewFilesHandler(st, testLogger())

	for _, name := range []string{"../etc/passwd", "a/b.mp4", `a\b.mp4`, "..", ".hidden", ""} {
		w := serveRequest(t, h, name)
		if w.Code != http.StatusBadRequest {
			t.Errorf("name %q: status = %d, want %d", name, w.Code, http.StatusBadRequest)
		}
	}
}
