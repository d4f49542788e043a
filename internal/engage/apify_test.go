package engage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/internal/platform"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

func testClient(t *testing.T) *httpclient.Client {
	t.Helper()
	hc, err := httpclient.New(httpclient.Config{MaxRedirects: 3})
	if err != nil {
		t.Fatalf("failed to create http client: %v", err)
	}
	return hc
}

func apifyFixture(t *testing.T, pool *credential.Pool, baseURL string) (*Apify, *credential.Registry) {
	t.Helper()
	reg := credential.NewRegistry(pool, credential.RegistryConfig{})
	return NewApify(ApifyConfig{BaseURL: baseURL}, pool, reg, testClient(t), nil), reg
}

func TestApify_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token"); got != "apify-token" {
			t.Errorf("expected token apify-token, got %q", got)
		}
		if !strings.Contains(r.URL.Path, "run-sync-get-dataset-items") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req apifyRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode actor input: %v", err)
		}
		if len(req.DirectURLs) != 1 || req.ResultsLimit != 1 {
			t.Errorf("unexpected actor input: %+v", req)
		}

		json.NewEncoder(w).Encode([]map[string]any{{
			"likesCount":    1000,
			"commentsCount": 100,
			"ownerUsername": "chefana",
			"timestamp":     "2026-01-15T10:00:00.000Z",
			"hashtags":      []string{"fit", "receita"},
		}})
	}))
	defer srv.Close()

	pool := credential.NewPool()
	pool.Add("apify", "apify-token")
	a, _ := apifyFixture(t, pool, srv.URL)

	rec, err := a.Resolve(context.Background(), "https://www.instagram.com/reel/Cabc123/", platform.Instagram)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Likes != 1000 || rec.Comments != 100 {
		t.Errorf("unexpected counters: %+v", rec)
	}
	// Photo-style items without a view count approximate views from likes
	// and shares from comments.
	if rec.Views != 10000 {
		t.Errorf("views = %d, want 10000", rec.Views)
	}
	if rec.Shares != 50 {
		t.Errorf("shares = %d, want 50", rec.Shares)
	}
	if rec.Author != "chefana" || len(rec.Hashtags) != 2 {
		t.Errorf("unexpected author fields: %+v", rec)
	}
}

func TestApify_NotApplicable(t *testing.T) {
	pool := credential.NewPool()
	pool.Add("apify", "tok")
	a, _ := apifyFixture(t, pool, "http://127.0.0.1:0")

	// Non-instagram platform passes through.
	rec, err := a.Resolve(context.Background(), "https://www.tiktok.com/@u/video/1", platform.TikTok)
	if rec != nil || err != nil {
		t.Errorf("expected pass-through for tiktok, got %v %v", rec, err)
	}

	// Instagram profile URLs carry no shortcode.
	rec, err = a.Resolve(context.Background(), "https://www.instagram.com/chefana/", platform.Instagram)
	if rec != nil || err != nil {
		t.Errorf("expected pass-through for profile URL, got %v %v", rec, err)
	}
}

func TestApify_NoTokensConfigured(t *testing.T) {
	a, _ := apifyFixture(t, credential.NewPool(), "http://127.0.0.1:0")
	rec, err := a.Resolve(context.Background(), "https://www.instagram.com/p/abc/", platform.Instagram)
	if rec != nil || err != nil {
		t.Errorf("expected silent pass-through without tokens, got %v %v", rec, err)
	}
}

func TestApify_FailureBlacklistsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	pool := credential.NewPool()
	pool.Add("apify", "exhausted")
	a, reg := apifyFixture(t, pool, srv.URL)

	if _, err := a.Resolve(context.Background(), "https://www.instagram.com/p/abc/", platform.Instagram); err == nil {
		t.Fatal("expected error from exhausted token")
	}
	if _, err := reg.Next("apify"); !errors.Is(err, credential.ErrNoCredentials) {
		t.Errorf("expected token blacklisted, got %v", err)
	}
}
