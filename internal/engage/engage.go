// Package engage resolves engagement metrics for discovered post URLs
// through a fallback chain of strategies, from the most accurate (a paid
// scraping actor) down to a deterministic estimate that never fails.
package engage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/metrics"
	"github.com/viralops/viralfinder/internal/platform"
)

// Record is the resolved engagement data for one post. Counters that a
// strategy could not determine are left zero; the resolver does not merge
// partial records across strategies.
type Record struct {
	Likes           int64
	Comments        int64
	Shares          int64
	Views           int64
	Author          string
	AuthorFollowers int64
	PostDate        string
	Hashtags        []string
}

// Strategy is one way of obtaining engagement data for a post URL.
// A (nil, nil) return means the strategy does not apply to this URL and
// the resolver should move on without treating it as a failure.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, pageURL string, plat platform.Platform) (*Record, error)
}

// ResolverConfig tunes the fallback chain.
type ResolverConfig struct {
	// StrategyTimeout bounds each individual strategy attempt. The final
	// estimate strategy does no IO, so it succeeds even after the outer
	// context has expired.
	StrategyTimeout time.Duration
}

// Resolver walks an ordered strategy chain and returns the first record
// produced. Strategy errors are logged and treated as a miss; the chain
// is expected to end with a strategy that cannot fail.
type Resolver struct {
	strategies []Strategy
	cfg        ResolverConfig
	logger     *zap.Logger
}

func NewResolver(strategies []Strategy, cfg ResolverConfig, logger *zap.Logger) *Resolver {
	if cfg.StrategyTimeout <= 0 {
		cfg.StrategyTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{strategies: strategies, cfg: cfg, logger: logger}
}

// Resolve returns the engagement record for a post URL along with the name
// of the strategy that produced it. It returns nil only when every strategy
// in the chain misses.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (*Record, string) {
	plat := platform.Of(pageURL)
	start := time.Now()

	for _, s := range r.strategies {
		sctx, cancel := context.WithTimeout(ctx, r.cfg.StrategyTimeout)
		rec, err := s.Resolve(sctx, pageURL, plat)
		cancel()

		if err != nil {
			r.logger.Debug("engagement strategy missed",
				zap.String("strategy", s.Name()),
				zap.String("url", pageURL),
				zap.Error(err))
			continue
		}
		if rec == nil {
			continue
		}

		metrics.RecordResolve(s.Name(), string(plat), time.Since(start))
		r.logger.Info("engagement resolved",
			zap.String("strategy", s.Name()),
			zap.String("platform", string(plat)),
			zap.Int64("likes", rec.Likes),
			zap.Int64("views", rec.Views))
		return rec, s.Name()
	}

	return nil, ""
}
