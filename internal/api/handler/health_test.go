package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth_OK(t *testing.T) {
	h := NewHealthHandler(newMockStore(), "local", "/downloads")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != "ok" || resp.Storage != "local" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHealth_StorageDown(t *testing.T) {
	st := newMockStore()
	st.healthErr = errors.New("relay unreachable")
	h := NewHealthHandler(st, "relay", "/downloads")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != "error" || resp.Error == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestIndex(t *testing.T) {
	h := NewHealthHandler(newMockStore(), "local", "/downloads")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	h.Index(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp IndexResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Service != "nanovideo" {
		t.Errorf("service = %q", resp.Service)
	}
}

func TestStats(t *testing.T) {
	st := newMockStore()
	st.files["abc.mp4"] = "x"
	st.files["def.webm"] = "y"
	h := NewHealthHandler(st, "local", t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()

	h.Stats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var stats SystemStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if stats.NumGoroutines <= 0 || stats.NumCPU <= 0 {
		t.Errorf("runtime stats missing: %+v", stats)
	}
	if stats.StorageMode != "local" {
		t.Errorf("StorageMode = %q", stats.StorageMode)
	}
	if stats.CachedFiles != 2 {
		t.Errorf("CachedFiles = %d, want 2", stats.CachedFiles)
	}
}
