package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iconidentify/nanovideo/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(config.RelayConfig{
		BaseURL:  srv.URL,
		Username: "relay-user",
		Password: "relay-pass",
		Folder:   "videos",
		Timeout:  5 * time.Second,
	})
	return client, srv
}

func TestClient_Upload(t *testing.T) {
	var gotPath, gotBody string
	var gotAuth bool

	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "relay-user" && pass == "relay-pass"
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
	}))

	url, err := client.Upload(context.Background(), "abc.mp4", strings.NewReader("video-bytes"), 11)
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	if gotPath != "/videos/abc.mp4" {
		t.Errorf("path = %q, want /videos/abc.mp4", gotPath)
	}
	if gotBody != "video-bytes" {
		t.Errorf("body = %q", gotBody)
	}
	if !gotAuth {
		t.Error("basic auth credentials not attached")
	}
	if url != srv.URL+"/videos/abc.mp4" {
		t.Errorf("url = %q", url)
	}
}

func TestClient_Upload_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInsufficientStorage)
	}))

	if _, err := client.Upload(context.Background(), "abc.mp4", strings.NewReader("x"), 1); err == nil {
		t.Error("Upload should fail on non-2xx response")
	}
}

func TestClient_Exists(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if r.URL.Path == "/videos/present.mp4" {
			w.Header().Set("Content-Length", "42")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	ok, size, err := client.Exists(context.Background(), "present.mp4")
	if err != nil {
		t.Fatalf("Exists error: %v", err)
	}
	if !ok || size != 42 {
		t.Errorf("Exists = (%v, %d), want (true, 42)", ok, size)
	}

	ok, _, err = client.Exists(context.Background(), "absent.mp4")
	if err != nil {
		t.Fatalf("Exists error: %v", err)
	}
	if ok {
		t.Error("absent file reported as present")
	}
}

func TestClient_Exists_NonSuccessIsAbsent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	ok, _, err := client.Exists(context.Background(), "whatever.mp4")
	if err != nil {
		t.Fatalf("Exists error: %v", err)
	}
	if ok {
		t.Error("non-success probe must be treated as absence")
	}
}

func TestClient_Fetch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/abc.mp4" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("payload"))
	}))

	rc, _, err := client.Fetch(context.Background(), "abc.mp4")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	defer rc.Close()

	body, _ := io.ReadAll(rc)
	if string(body) != "payload" {
		t.Errorf("body = %q", body)
	}

	if _, _, err := client.Fetch(context.Background(), "missing.mp4"); err == nil {
		t.Error("Fetch should fail for a missing file")
	}
}

func TestClient_List(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/" {
			t.Errorf("path = %q, want /videos/", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"files": []RemoteFile{
				{Name: "a.mp4", Size: 10, URL: "https://cdn.example.com/a.mp4"},
				{Name: "b.webm", Size: 20, URL: "https://cdn.example.com/b.webm"},
			},
		})
	}))
	_ = srv

	files, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	if files[0].Name != "a.mp4" || files[0].Size != 10 {
		t.Errorf("files[0] = %+v", files[0])
	}
}

func TestClient_Ping(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping error: %v", err)
	}
}

func TestClient_Ping_ServerDown(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if err := client.Ping(context.Background()); err == nil {
		t.Error("Ping should fail on 5xx")
	}
}
