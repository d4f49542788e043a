package media

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/viralops/viralfinder/pkg/httpclient"
)

func downloaderFixture(t *testing.T) (*Downloader, string) {
	t.Helper()
	dir := t.TempDir()

	hc, err := httpclient.New(httpclient.Config{MaxRedirects: 3})
	if err != nil {
		t.Fatalf("failed to create http client: %v", err)
	}

	fixed := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	d, err := NewDownloader(Config{Dir: dir, Now: func() time.Time { return fixed }}, hc, nil)
	if err != nil {
		t.Fatalf("failed to create downloader: %v", err)
	}
	return d, dir
}

func TestDownloader_Download(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer srv.Close()

	d, dir := downloaderFixture(t)
	path, err := d.Download(context.Background(), srv.URL+"/thumb.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("image written outside configured dir: %s", path)
	}
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("expected .jpg extension, got %s", name)
	}
	// 12 hex chars, underscore, unix timestamp.
	parts := strings.SplitN(strings.TrimSuffix(name, ".jpg"), "_", 2)
	if len(parts) != 2 || len(parts[0]) != 12 {
		t.Errorf("unexpected filename shape %s", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved image: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("saved image differs from payload")
	}
}

func TestDownloader_RejectsTinyImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("tiny"))
	}))
	defer srv.Close()

	d, _ := downloaderFixture(t)
	if _, err := d.Download(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for a sub-1KB image")
	}
}

func TestDownloader_RejectsWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write(bytes.Repeat([]byte("x"), 4096))
	}))
	defer srv.Close()

	d, _ := downloaderFixture(t)
	if _, err := d.Download(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-image content type")
	}
}

func TestDownloader_EmptyURL(t *testing.T) {
	d, _ := downloaderFixture(t)
	if _, err := d.Download(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
