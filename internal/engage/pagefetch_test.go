package engage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/viralops/viralfinder/internal/fingerprint"
	"github.com/viralops/viralfinder/internal/platform"
)

func pageFetchFixture(t *testing.T) *PageFetch {
	t.Helper()
	p, err := NewPageFetch(PageFetchConfig{
		Profile: fingerprint.ProfileGo,
		RPS:     1000,
	}, nil)
	if err != nil {
		t.Fatalf("failed to create page fetch: %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

func TestPageFetch_ExtractsCounters(t *testing.T) {
	const page = `<html><head>
<meta property="og:description" content="12.5k curtidas, 340 comentários - @chefana no Instagram: &quot;receita #fit #saudavel&quot;">
<title>Instagram</title>
</head><body><time datetime="2026-01-15T10:00:00Z">15 jan</time></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a browser User-Agent")
		}
		if got := r.Header.Get("Accept-Language"); got == "" {
			t.Error("expected Accept-Language header")
		}
		w.Write([]byte(page))
	}))
	defer srv.Close()

	p := pageFetchFixture(t)
	rec, err := p.Resolve(context.Background(), srv.URL, platform.Instagram)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Likes != 12500 {
		t.Errorf("likes = %d, want 12500", rec.Likes)
	}
	if rec.Comments != 340 {
		t.Errorf("comments = %d, want 340", rec.Comments)
	}
	if rec.Views != 12500*15 {
		t.Errorf("views fallback = %d, want %d", rec.Views, 12500*15)
	}
	if rec.AuthorFollowers != 1000 {
		t.Errorf("followers fallback = %d, want 1000", rec.AuthorFollowers)
	}
	if rec.Author != "chefana" {
		t.Errorf("author = %q, want chefana", rec.Author)
	}
	if rec.PostDate != "2026-01-15T10:00:00Z" {
		t.Errorf("post date = %q", rec.PostDate)
	}
	if len(rec.Hashtags) != 2 || rec.Hashtags[0] != "fit" || rec.Hashtags[1] != "saudavel" {
		t.Errorf("hashtags = %v", rec.Hashtags)
	}
}

func TestPageFetch_WallIsAMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><form action="/accounts/login/"></form></html>`))
	}))
	defer srv.Close()

	p := pageFetchFixture(t)
	if _, err := p.Resolve(context.Background(), srv.URL, platform.Instagram); err == nil {
		t.Fatal("expected error for login wall")
	}
}

func TestPageFetch_NoCountersIsAMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>nothing useful</body></html>`))
	}))
	defer srv.Close()

	p := pageFetchFixture(t)
	if _, err := p.Resolve(context.Background(), srv.URL, platform.Instagram); err == nil {
		t.Fatal("expected error when no counters are present")
	}
}

func TestPageFetch_SkipsWebPlatform(t *testing.T) {
	p := pageFetchFixture(t)
	rec, err := p.Resolve(context.Background(), "https://example.com/article", platform.Web)
	if rec != nil || err != nil {
		t.Errorf("expected pass-through for web URLs, got %v %v", rec, err)
	}
}
