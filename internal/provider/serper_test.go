package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

func testHTTPClient(t *testing.T) *httpclient.Client {
	t.Helper()
	hc, err := httpclient.New(httpclient.Config{MaxRedirects: 3})
	if err != nil {
		t.Fatalf("failed to create http client: %v", err)
	}
	return hc
}

func TestSerper_Search(t *testing.T) {
	var gotKeys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKeys = append(gotKeys, r.Header.Get("X-API-KEY"))

		switch r.URL.Path {
		case "/images":
			json.NewEncoder(w).Encode(map[string]any{
				"images": []map[string]string{
					{"imageUrl": "https://img.example/a.jpg", "link": "https://www.instagram.com/p/abc/", "title": "Post A", "snippet": "desc A"},
				},
			})
		case "/search":
			json.NewEncoder(w).Encode(map[string]any{
				"organic": []map[string]string{
					{"link": "https://www.instagram.com/p/def/", "title": "Post B", "snippet": "desc B"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewSerper(SerperConfig{BaseURL: srv.URL}, testHTTPClient(t), nil)
	cred := credential.Credential{Category: "serper", Slot: 0, Key: "test-key"}

	results, err := s.Search(context.Background(), "marketing digital", cred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results across verticals, got %d", len(results))
	}
	if results[0].Source != "serper_images" || results[0].ImageURL != "https://img.example/a.jpg" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Source != "serper_search" || results[1].ImageURL != "" {
		t.Errorf("unexpected second result: %+v", results[1])
	}
	for _, k := range gotKeys {
		if k != "test-key" {
			t.Errorf("expected X-API-KEY test-key, got %q", k)
		}
	}
}

func TestSerper_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewSerper(SerperConfig{BaseURL: srv.URL}, testHTTPClient(t), nil)
	_, err := s.Search(context.Background(), "q", credential.Credential{Key: "bad"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSerper_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewSerper(SerperConfig{BaseURL: srv.URL}, testHTTPClient(t), nil)
	_, err := s.Search(context.Background(), "q", credential.Credential{Key: "k"})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}
