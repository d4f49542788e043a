// Package pipeline runs one end-to-end discovery: fan-out search,
// dedup and validation, engagement resolution, scoring, persistence
// and the run summary.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/internal/engage"
	"github.com/viralops/viralfinder/internal/media"
	"github.com/viralops/viralfinder/internal/platform"
	"github.com/viralops/viralfinder/internal/provider"
	"github.com/viralops/viralfinder/internal/report"
	"github.com/viralops/viralfinder/internal/score"
	"github.com/viralops/viralfinder/internal/search"
	"github.com/viralops/viralfinder/internal/storage"
)

// ErrNoProviders is returned when a run starts with nothing to search.
var ErrNoProviders = errors.New("no search providers configured")

// Deps are the wired components a pipeline runs with. Downloader is
// optional; when nil, thumbnails are not fetched.
type Deps struct {
	Providers    []provider.Provider
	Orchestrator *search.Orchestrator
	Resolver     *engage.Resolver
	Registry     *credential.Registry
	Backend      storage.Backend
	Downloader   *media.Downloader
	Logger       *zap.Logger
}

// Options tune one discovery run.
type Options struct {
	// MaxResults caps how many deduplicated posts get resolved.
	MaxResults int
	// MaxConcurrentResolves caps simultaneous engagement resolutions.
	MaxConcurrentResolves int
	// MinEngagement is the viral threshold used in the summary.
	MinEngagement float64
	// Timeout bounds the whole run.
	Timeout time.Duration
	// Now is the clock used for timestamps; defaults to time.Now.
	Now func() time.Time
}

type Pipeline struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Pipeline {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 30
	}
	if opts.MaxConcurrentResolves <= 0 {
		opts.MaxConcurrentResolves = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps, opts: opts}
}

// Run executes one discovery for the query. A query that yields nothing
// is not an error: the items are empty and the summary still valid.
// When the deadline hits mid-run, whatever resolved in time is kept.
func (p *Pipeline) Run(ctx context.Context, query string) ([]*storage.Item, report.Summary, error) {
	start := p.opts.Now()

	if len(p.deps.Providers) == 0 {
		return nil, report.Summary{}, ErrNoProviders
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	raw := p.deps.Orchestrator.Search(ctx, query, p.deps.Providers)
	candidates := search.Deduplicate(raw, platform.IsValidPostURL)
	if len(candidates) > p.opts.MaxResults {
		candidates = candidates[:p.opts.MaxResults]
	}

	p.deps.Logger.Info("search phase done",
		zap.String("query", query),
		zap.Int("raw", len(raw)),
		zap.Int("candidates", len(candidates)))

	items := p.resolveAll(ctx, query, candidates)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].EngagementScore > items[j].EngagementScore
	})

	for _, it := range items {
		if err := p.deps.Backend.Save(ctx, it); err != nil {
			p.deps.Logger.Warn("failed to persist item",
				zap.String("id", it.ID),
				zap.Error(err))
		}
	}

	summary := report.GenerateSummary(query, items, p.opts.MinEngagement, start, p.opts.Now())
	if p.deps.Registry != nil {
		summary = summary.WithCredentials(p.deps.Registry.Snapshot())
	}
	return items, summary, nil
}

// resolveAll turns search candidates into scored items, a few at a time.
func (p *Pipeline) resolveAll(ctx context.Context, query string, candidates []provider.SearchResult) []*storage.Item {
	var (
		mu    sync.Mutex
		items []*storage.Item
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrentResolves)

	for _, c := range candidates {
		c := c
		g.Go(func() error {
			rec, by := p.deps.Resolver.Resolve(gctx, c.PageURL)
			if rec == nil {
				p.deps.Logger.Warn("post could not be resolved",
					zap.String("url", c.PageURL))
				return nil
			}

			item := &storage.Item{
				ID:              uuid.NewString(),
				Query:           query,
				ImageURL:        c.ImageURL,
				PageURL:         c.PageURL,
				Title:           c.Title,
				Description:     c.Description,
				Source:          c.Source,
				Platform:        string(platform.Of(c.PageURL)),
				Likes:           rec.Likes,
				Comments:        rec.Comments,
				Shares:          rec.Shares,
				Views:           rec.Views,
				Author:          rec.Author,
				AuthorFollowers: rec.AuthorFollowers,
				PostDate:        rec.PostDate,
				Hashtags:        rec.Hashtags,
				ResolvedBy:      by,
				CreatedAt:       p.opts.Now(),
			}
			item.EngagementScore = score.Engagement(score.Input{
				Likes:           rec.Likes,
				Comments:        rec.Comments,
				Shares:          rec.Shares,
				Views:           rec.Views,
				AuthorFollowers: rec.AuthorFollowers,
			})

			if p.deps.Downloader != nil && c.ImageURL != "" {
				path, err := p.deps.Downloader.Download(gctx, c.ImageURL)
				if err != nil {
					p.deps.Logger.Debug("thumbnail download failed",
						zap.String("url", c.ImageURL),
						zap.Error(err))
				} else {
					item.MediaPath = path
				}
			}

			mu.Lock()
			items = append(items, item)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return items
}
