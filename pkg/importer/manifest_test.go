package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/phealth-au/platform/pkg/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

func TestLatestResource(t *testing.T) {
	manifest := `{
		"result": {
			"resources": [
				{"url": "https://example.org/phi-2026-08.zip", "description": "August 2026"},
				{"url": "https://example.org/phi-2026-07.zip", "description": "July 2026"}
			]
		}
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(manifest))
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, 5*time.Second)
	resource, err := client.LatestResource(context.Background())
	if err != nil {
		t.Fatalf("LatestResource failed: %v", err)
	}
	if resource.Description != "August 2026" {
		t.Fatalf("expected newest resource first, got %q", resource.Description)
	}
	if resource.URL != "https://example.org/phi-2026-08.zip" {
		t.Fatalf("unexpected URL %q", resource.URL)
	}
}

func TestLatestResourceEmptyManifest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"resources": []}}`))
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, 5*time.Second)
	if _, err := client.LatestResource(context.Background()); err == nil {
		t.Fatal("expected error for empty manifest")
	}
}

func TestLatestResourceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, 5*time.Second)
	if _, err := client.LatestResource(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestDownload(t *testing.T) {
	payload := []byte("not really a zip")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	client := NewFeedClient("", 5*time.Second)
	path, cleanup, err := client.Download(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(payload) {
		t.Fatalf("downloaded %q, want %q", data, payload)
	}
}
