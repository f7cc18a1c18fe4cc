package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{5 * 1024 * 1024 * 1024, "5.0 GiB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestAPIClient_Files(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		if r.URL.Path != "/files" {
			t.Errorf("path = %q, want /files", r.URL.Path)
		}
		w.Write([]byte(`{"files":[{"name":"abc.mp4","size":1024,"path":"/files/abc.mp4"}]}`))
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL+"/", "secret")
	files, err := client.files(context.Background())
	if err != nil {
		t.Fatalf("files error: %v", err)
	}

	if gotKey != "secret" {
		t.Errorf("X-API-Key = %q, want secret", gotKey)
	}
	if len(files) != 1 || files[0].Name != "abc.mp4" || files[0].Size != 1024 {
		t.Errorf("files = %+v", files)
	}
}

func TestAPIClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL, "wrong")
	if _, err := client.files(context.Background()); err == nil {
		t.Error("files should fail on 401")
	}
}

func TestAPIClient_HealthDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"error","storage":"relay","error":"relay unreachable"}`))
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL, "")
	health, err := client.health(context.Background())
	if err != nil {
		t.Fatalf("health error: %v", err)
	}
	if health.Status != "error" || health.Error == "" {
		t.Errorf("health = %+v", health)
	}
}
