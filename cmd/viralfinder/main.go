package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/config"
	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/internal/engage"
	"github.com/viralops/viralfinder/internal/media"
	"github.com/viralops/viralfinder/internal/metrics"
	"github.com/viralops/viralfinder/internal/pipeline"
	"github.com/viralops/viralfinder/internal/provider"
	"github.com/viralops/viralfinder/internal/report"
	"github.com/viralops/viralfinder/internal/search"
	"github.com/viralops/viralfinder/internal/storage"
	"github.com/viralops/viralfinder/internal/storage/jsonbackend"
	"github.com/viralops/viralfinder/internal/storage/postgres"
	"github.com/viralops/viralfinder/internal/storage/sqlite"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

// provider credential categories read from the environment.
var categories = []string{
	"serper", "serpapi", "google_cse", "tavily", "exa",
	"firecrawl", "rapidapi", "apify",
}

func main() {
	query := flag.String("query", "", "search query (required)")
	maxResults := flag.Int("max-results", 0, "override MAX_RESULTS")
	images := flag.Bool("images", false, "download post thumbnails")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: viralfinder -query \"receitas fitness\" [-max-results N] [-images]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *maxResults > 0 {
		cfg.Search.MaxResults = *maxResults
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *query, *images); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, query string, downloadImages bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := credential.NewPool()
	pool.LoadEnv(categories...)
	if cfg.GoogleCSE.Key != "" {
		pool.Add("google_cse", cfg.GoogleCSE.Key)
	}
	if cfg.CredentialsFile != "" {
		if err := pool.LoadFile(cfg.CredentialsFile); err != nil {
			return err
		}
	}
	registry := credential.NewRegistry(pool, credential.RegistryConfig{
		Cooldown: cfg.Search.BlacklistCooldown,
	})

	hc, err := httpclient.New(httpclient.Config{MaxRedirects: 5})
	if err != nil {
		return err
	}

	providers := buildProviders(cfg, hc, logger)
	logger.Info("providers assembled",
		zap.Int("providers", len(providers)),
		zap.Strings("categories", pool.Categories()))

	resolver, cleanup, err := buildResolver(cfg, pool, registry, hc, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	var downloader *media.Downloader
	if downloadImages {
		downloader, err = media.NewDownloader(media.Config{Dir: cfg.Output.ImagesDir}, hc, logger)
		if err != nil {
			return err
		}
	}

	if cfg.Metrics.Port > 0 {
		srv := metrics.Start(cfg.Metrics.Port)
		defer srv.Stop(context.Background())
	}

	p := pipeline.New(pipeline.Deps{
		Providers: providers,
		Orchestrator: search.NewOrchestrator(pool, registry, search.Config{
			MaxConcurrency: cfg.Search.MaxConcurrent,
			PerCallSleep:   cfg.Search.PerCallSleep,
		}, logger),
		Resolver:   resolver,
		Registry:   registry,
		Backend:    backend,
		Downloader: downloader,
		Logger:     logger,
	}, pipeline.Options{
		MaxResults:            cfg.Search.MaxResults,
		MaxConcurrentResolves: cfg.Resolve.MaxConcurrent,
		MinEngagement:         cfg.Resolve.MinEngagement,
		Timeout:               cfg.Search.Timeout,
	})

	items, summary, err := p.Run(ctx, query)
	if err != nil {
		return err
	}

	if err := writeReport(cfg.Output.Dir, items, summary); err != nil {
		return err
	}
	return report.WriteText(os.Stdout, summary)
}

// buildProviders returns an adapter for every category that has at least
// one credential configured.
func buildProviders(cfg *config.Config, hc *httpclient.Client, logger *zap.Logger) []provider.Provider {
	all := []provider.Provider{
		provider.NewSerper(provider.SerperConfig{}, hc, logger),
		provider.NewSerpAPI(provider.SerpAPIConfig{}, hc, logger),
		provider.NewTavily(provider.TavilyConfig{}, hc, logger),
		provider.NewExa(provider.ExaConfig{}, hc, logger),
		provider.NewFirecrawl(provider.FirecrawlConfig{}, hc, logger),
		provider.NewRapidAPIInstagram(provider.RapidAPIConfig{}, hc, logger),
	}
	if cfg.GoogleCSE.CSEID != "" {
		all = append(all, provider.NewGoogleCSE(provider.GoogleCSEConfig{CSEID: cfg.GoogleCSE.CSEID}, hc, logger))
	}
	return all
}

// buildResolver assembles the engagement fallback chain. The estimate
// strategy is always last so every candidate ends up scored.
func buildResolver(cfg *config.Config, pool *credential.Pool, registry *credential.Registry, hc *httpclient.Client, logger *zap.Logger) (*engage.Resolver, func(), error) {
	strategies := []engage.Strategy{
		engage.NewApify(engage.ApifyConfig{}, pool, registry, hc, logger),
	}
	cleanup := func() {}

	if cfg.Resolve.PageFetchEnabled {
		pf, err := engage.NewPageFetch(engage.PageFetchConfig{}, logger)
		if err != nil {
			return nil, nil, err
		}
		strategies = append(strategies, pf)
		cleanup = pf.Stop
	}

	strategies = append(strategies, engage.NewEstimate())
	return engage.NewResolver(strategies, engage.ResolverConfig{}, logger), cleanup, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		return postgres.New(ctx, cfg.Storage.DatabaseURL)
	case "sqlite":
		return sqlite.New(cfg.Storage.SQLitePath)
	default:
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return nil, err
		}
		return jsonbackend.New(filepath.Join(cfg.Output.Dir, "items.ndjson"))
	}
}

// writeReport saves the full run output as a single JSON document.
func writeReport(dir string, items []*storage.Item, summary report.Summary) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	name := fmt.Sprintf("viral_report_%s.json", time.Now().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Summary report.Summary  `json:"summary"`
		Items   []*storage.Item `json:"items"`
	}{summary, items}); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
