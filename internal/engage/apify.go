package engage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/internal/metrics"
	"github.com/viralops/viralfinder/internal/platform"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

// shortcodePattern extracts the Instagram post shortcode from a canonical
// post URL. Profile URLs carry no shortcode and fall through to the next
// strategy.
var shortcodePattern = regexp.MustCompile(`/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)

// Apify resolves Instagram engagement through the Apify instagram-scraper
// actor. Tokens rotate through the credential registry under the "apify"
// category, so an exhausted or revoked token cools down like any provider key.
type Apify struct {
	baseURL  string
	actor    string
	pool     *credential.Pool
	registry *credential.Registry
	hc       *httpclient.Client
	logger   *zap.Logger
}

type ApifyConfig struct {
	// BaseURL overrides the Apify API endpoint, used by tests.
	BaseURL string
	// Actor is the actor slug to run; defaults to apify~instagram-scraper.
	Actor string
}

func NewApify(cfg ApifyConfig, pool *credential.Pool, registry *credential.Registry, hc *httpclient.Client, logger *zap.Logger) *Apify {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.apify.com"
	}
	if cfg.Actor == "" {
		cfg.Actor = "apify~instagram-scraper"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Apify{
		baseURL:  cfg.BaseURL,
		actor:    cfg.Actor,
		pool:     pool,
		registry: registry,
		hc:       hc,
		logger:   logger,
	}
}

func (a *Apify) Name() string { return "apify" }

type apifyRunRequest struct {
	DirectURLs   []string `json:"directUrls"`
	ResultsType  string   `json:"resultsType"`
	ResultsLimit int      `json:"resultsLimit"`
}

type apifyItem struct {
	LikesCount     int64    `json:"likesCount"`
	CommentsCount  int64    `json:"commentsCount"`
	VideoViewCount int64    `json:"videoViewCount"`
	OwnerUsername  string   `json:"ownerUsername"`
	FollowersCount int64    `json:"followersCount"`
	Timestamp      string   `json:"timestamp"`
	Hashtags       []string `json:"hashtags"`
}

// Resolve runs the actor synchronously against the post URL. It only
// applies to Instagram posts with a shortcode; everything else passes
// through to the next strategy.
func (a *Apify) Resolve(ctx context.Context, pageURL string, plat platform.Platform) (*Record, error) {
	if plat != platform.Instagram {
		return nil, nil
	}
	if !shortcodePattern.MatchString(pageURL) {
		return nil, nil
	}
	if a.pool.Count("apify") == 0 {
		return nil, nil
	}

	cred, err := a.registry.Next("apify")
	if errors.Is(err, credential.ErrNoCredentials) {
		return nil, nil
	}

	start := time.Now()
	rec, err := a.run(ctx, pageURL, cred)
	elapsed := time.Since(start)

	if err != nil {
		a.registry.ReportFailure(cred.Category, cred.Slot)
		metrics.CredentialFailures.WithLabelValues(cred.Category).Inc()
		return nil, err
	}
	a.registry.ReportSuccess(cred.Category, cred.Slot, elapsed)
	return rec, nil
}

func (a *Apify) run(ctx context.Context, pageURL string, cred credential.Credential) (*Record, error) {
	body, err := json.Marshal(apifyRunRequest{
		DirectURLs:   []string{pageURL},
		ResultsType:  "posts",
		ResultsLimit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal actor input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		a.baseURL, a.actor, url.QueryEscape(cred.Key))

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create actor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.hc.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("actor run returned status %d", resp.StatusCode)
	}

	var items []apifyItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode actor output: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("actor returned no items")
	}

	item := items[0]
	views := item.VideoViewCount
	if views == 0 {
		// Photo posts report no view count; approximate from likes.
		views = item.LikesCount * 10
	}

	return &Record{
		Likes:           item.LikesCount,
		Comments:        item.CommentsCount,
		Shares:          item.CommentsCount / 2,
		Views:           views,
		Author:          item.OwnerUsername,
		AuthorFollowers: item.FollowersCount,
		PostDate:        item.Timestamp,
		Hashtags:        item.Hashtags,
	}, nil
}
