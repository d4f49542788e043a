package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/internal/provider"
)

// fakeProvider is a scriptable provider for orchestrator tests.
type fakeProvider struct {
	name     string
	category string
	results  []provider.SearchResult
	err      error
	delay    time.Duration

	mu    sync.Mutex
	calls int
	creds []credential.Credential
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Category() string { return f.category }

func (f *fakeProvider) Search(ctx context.Context, query string, cred credential.Credential) ([]provider.SearchResult, error) {
	f.mu.Lock()
	f.calls++
	f.creds = append(f.creds, cred)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.results, f.err
}

func newTestRegistry(pool *credential.Pool) *credential.Registry {
	return credential.NewRegistry(pool, credential.RegistryConfig{})
}

func TestOrchestrator_FanOutCollectsAllResults(t *testing.T) {
	pool := credential.NewPool()
	pool.Add("serper", "k1")
	pool.Add("tavily", "k2")

	a := &fakeProvider{name: "serper", category: "serper", results: []provider.SearchResult{
		{PageURL: "https://www.instagram.com/p/a/", Source: "serper_images"},
		{PageURL: "https://www.instagram.com/p/b/", Source: "serper_search"},
	}}
	b := &fakeProvider{name: "tavily", category: "tavily", results: []provider.SearchResult{
		{PageURL: "https://www.tiktok.com/@u/video/1", Source: "tavily"},
	}}

	o := NewOrchestrator(pool, newTestRegistry(pool), Config{MaxConcurrency: 2}, nil)
	got := o.Search(context.Background(), "receitas fitness", []provider.Provider{a, b})

	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("expected each provider called once, got %d and %d", a.calls, b.calls)
	}
	// Providers only ever run with the credential the registry handed out.
	if a.creds[0].Key != "k1" || b.creds[0].Key != "k2" {
		t.Errorf("unexpected credentials: %q and %q", a.creds[0].Key, b.creds[0].Key)
	}
}

func TestOrchestrator_SkipsUnconfiguredCategory(t *testing.T) {
	pool := credential.NewPool()
	pool.Add("serper", "k1")

	configured := &fakeProvider{name: "serper", category: "serper", results: []provider.SearchResult{
		{PageURL: "https://www.instagram.com/p/a/"},
	}}
	unconfigured := &fakeProvider{name: "exa", category: "exa"}

	o := NewOrchestrator(pool, newTestRegistry(pool), Config{}, nil)
	got := o.Search(context.Background(), "q", []provider.Provider{configured, unconfigured})

	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if unconfigured.calls != 0 {
		t.Errorf("unconfigured provider should never be called, got %d calls", unconfigured.calls)
	}
}

func TestOrchestrator_FailureDoesNotAbortOthers(t *testing.T) {
	pool := credential.NewPool()
	pool.Add("serper", "k1")
	pool.Add("tavily", "k2")

	failing := &fakeProvider{name: "serper", category: "serper", err: errors.New("upstream down")}
	healthy := &fakeProvider{name: "tavily", category: "tavily", results: []provider.SearchResult{
		{PageURL: "https://www.instagram.com/p/ok/"},
	}}

	reg := newTestRegistry(pool)
	o := NewOrchestrator(pool, reg, Config{MaxConcurrency: 2}, nil)
	got := o.Search(context.Background(), "q", []provider.Provider{failing, healthy})

	if len(got) != 1 {
		t.Fatalf("expected the healthy provider's result, got %d results", len(got))
	}

	// The failing slot must now be blacklisted.
	if _, err := reg.Next("serper"); !errors.Is(err, credential.ErrNoCredentials) {
		t.Errorf("expected serper slot blacklisted after failure, got %v", err)
	}
	if _, err := reg.Next("tavily"); err != nil {
		t.Errorf("healthy category should still rotate, got %v", err)
	}
}

func TestOrchestrator_AllSlotsCoolingDownSkips(t *testing.T) {
	pool := credential.NewPool()
	pool.Add("serper", "k1")

	reg := newTestRegistry(pool)
	reg.ReportFailure("serper", 0)

	p := &fakeProvider{name: "serper", category: "serper"}
	o := NewOrchestrator(pool, reg, Config{}, nil)
	got := o.Search(context.Background(), "q", []provider.Provider{p})

	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
	if p.calls != 0 {
		t.Errorf("provider must not be called when all slots cool down, got %d calls", p.calls)
	}
	if len(p.creds) != 0 {
		t.Errorf("provider must never receive a credential when selection fails, got %v", p.creds)
	}
}

func TestOrchestrator_ConcurrencyLimit(t *testing.T) {
	pool := credential.NewPool()
	var inflight, peak atomic.Int32

	var providers []provider.Provider
	for i := 0; i < 6; i++ {
		cat := string(rune('a' + i))
		pool.Add(cat, "k")
		providers = append(providers, &gatedProvider{
			category: cat,
			inflight: &inflight,
			peak:     &peak,
		})
	}

	o := NewOrchestrator(pool, newTestRegistry(pool), Config{MaxConcurrency: 2}, nil)
	o.Search(context.Background(), "q", providers)

	if got := peak.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent provider calls, saw %d", got)
	}
}

type gatedProvider struct {
	category string
	inflight *atomic.Int32
	peak     *atomic.Int32
}

func (g *gatedProvider) Name() string     { return g.category }
func (g *gatedProvider) Category() string { return g.category }

func (g *gatedProvider) Search(ctx context.Context, query string, cred credential.Credential) ([]provider.SearchResult, error) {
	n := g.inflight.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	g.inflight.Add(-1)
	return nil, nil
}
