package search

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/internal/metrics"
	"github.com/viralops/viralfinder/internal/provider"
)

// Config tunes the fan-out behavior.
type Config struct {
	// MaxConcurrency caps how many provider calls run at once.
	MaxConcurrency int
	// PerCallSleep is a small pause after each provider call, taken while
	// still holding the concurrency slot, so back-to-back calls against the
	// same upstream are spaced out.
	PerCallSleep time.Duration
}

// Orchestrator fans a query out across every configured provider, rotating
// credentials through the health registry. One provider failing or running
// out of credentials never stops the others.
type Orchestrator struct {
	pool     *credential.Pool
	registry *credential.Registry
	cfg      Config
	logger   *zap.Logger
}

func NewOrchestrator(pool *credential.Pool, registry *credential.Registry, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}
	if cfg.PerCallSleep < 0 {
		cfg.PerCallSleep = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{pool: pool, registry: registry, cfg: cfg, logger: logger}
}

// Search runs the query against all providers concurrently and returns the
// flattened results. Providers whose category has no configured credentials
// are skipped without touching the registry; providers whose slots are all
// cooling down are skipped for this round. Provider errors are reported to
// the registry and logged, never propagated.
func (o *Orchestrator) Search(ctx context.Context, query string, providers []provider.Provider) []provider.SearchResult {
	// Shuffle so the same provider is not always first to burn its
	// credential when results are capped downstream.
	shuffled := make([]provider.Provider, len(providers))
	copy(shuffled, providers)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var (
		mu      sync.Mutex
		results []provider.SearchResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrency)

	for _, p := range shuffled {
		p := p

		if o.pool.Count(p.Category()) == 0 {
			o.logger.Debug("provider skipped, no credentials configured",
				zap.String("provider", p.Name()),
				zap.String("category", p.Category()))
			continue
		}

		g.Go(func() error {
			cred, err := o.registry.Next(p.Category())
			if err != nil {
				if errors.Is(err, credential.ErrNoCredentials) {
					o.logger.Warn("provider skipped, all credentials cooling down",
						zap.String("provider", p.Name()),
						zap.String("category", p.Category()))
				} else {
					o.logger.Warn("provider skipped, credential selection failed",
						zap.String("provider", p.Name()),
						zap.String("category", p.Category()),
						zap.Error(err))
				}
				return nil
			}

			start := time.Now()
			found, err := p.Search(ctx, query, cred)
			elapsed := time.Since(start)
			metrics.RecordSearch(p.Name(), len(found), elapsed, err)

			if err != nil {
				o.registry.ReportFailure(cred.Category, cred.Slot)
				metrics.CredentialFailures.WithLabelValues(cred.Category).Inc()
				o.logger.Warn("provider search failed",
					zap.String("provider", p.Name()),
					zap.Int("slot", cred.Slot),
					zap.Error(err))
			} else {
				o.registry.ReportSuccess(cred.Category, cred.Slot, elapsed)
				o.logger.Info("provider search done",
					zap.String("provider", p.Name()),
					zap.Int("results", len(found)),
					zap.Duration("elapsed", elapsed))

				mu.Lock()
				results = append(results, found...)
				mu.Unlock()
			}

			o.sleep(ctx)
			return nil
		})
	}

	// Workers always return nil; Wait only drains them.
	_ = g.Wait()
	return results
}

// sleep pauses for PerCallSleep but wakes early when the context is done.
func (o *Orchestrator) sleep(ctx context.Context) {
	if o.cfg.PerCallSleep == 0 {
		return
	}
	t := time.NewTimer(o.cfg.PerCallSleep)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
