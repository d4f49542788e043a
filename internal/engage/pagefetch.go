package engage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/fingerprint"
	"github.com/viralops/viralfinder/internal/platform"
	"github.com/viralops/viralfinder/pkg/httpclient"
	"github.com/viralops/viralfinder/pkg/ratelimit"
	"github.com/viralops/viralfinder/pkg/useragent"
)

// Counter phrases as they appear in the pt-BR and en page variants. Each
// pattern captures the number immediately preceding the phrase.
var (
	likesPattern     = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|k|m|b)?)\s+(?:curtidas|likes|gostei)`)
	commentsPattern  = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|k|m|b)?)\s+(?:coment[áa]rios|comments)`)
	sharesPattern    = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|k|m|b)?)\s+(?:compartilhamentos|shares)`)
	viewsPattern     = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|k|m|b)?)\s+(?:visualiza[çc][õo]es|views)`)
	followersPattern = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|k|m|b)?)\s+(?:seguidores|followers)`)
	authorPattern    = regexp.MustCompile(`@([\w.]+)`)
	hashtagPattern   = regexp.MustCompile(`#([\p{L}\d_]+)`)
)

const maxHashtags = 10

// PageFetchConfig tunes the direct page fetch strategy.
type PageFetchConfig struct {
	// Profile selects the TLS fingerprint used for the fetch.
	Profile fingerprint.Profile
	// RPS paces fetches across all resolutions; defaults to one every two
	// seconds so a batch of posts does not hammer the platform.
	RPS float64
	// Jitter randomizes the pacing, 0.0 to 1.0.
	Jitter float64
	// MaxBodyBytes caps how much of the page is read.
	MaxBodyBytes int64
	// Timeout bounds each fetch.
	Timeout time.Duration
}

// PageFetch resolves engagement by fetching the post page directly with a
// browser TLS fingerprint and a rotating User-Agent, then scraping the
// counter phrases out of the rendered metadata and text. Pages served as a
// login, consent or challenge wall are treated as a miss.
type PageFetch struct {
	hc        *httpclient.Client
	uas       *useragent.Pool
	limiter   *ratelimit.Limiter
	detectors []WallDetector
	maxBody   int64
	logger    *zap.Logger
}

func NewPageFetch(cfg PageFetchConfig, logger *zap.Logger) (*PageFetch, error) {
	if cfg.Profile == "" {
		cfg.Profile = fingerprint.ProfileChrome
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 0.5
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2 << 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport, err := fingerprint.Transport(cfg.Profile, nil)
	if err != nil {
		return nil, err
	}
	hc, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 5,
		UseCookieJar: true,
		Transport:    transport,
	})
	if err != nil {
		return nil, err
	}

	return &PageFetch{
		hc:        hc,
		uas:       useragent.NewPool(nil),
		limiter:   ratelimit.NewLimiter(cfg.RPS, cfg.Jitter),
		detectors: DefaultWallDetectors(),
		maxBody:   cfg.MaxBodyBytes,
		logger:    logger,
	}, nil
}

// Stop releases the pacing ticker.
func (p *PageFetch) Stop() { p.limiter.Stop() }

func (p *PageFetch) Name() string { return "pagefetch" }

func (p *PageFetch) Resolve(ctx context.Context, pageURL string, plat platform.Platform) (*Record, error) {
	if plat == platform.Web {
		return nil, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create page request: %w", err)
	}
	req.Header.Set("User-Agent", p.uas.GetRandom())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := p.hc.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}

	if wall, blocked := DetectWall(resp.StatusCode, body, p.detectors); blocked {
		p.logger.Debug("post page served a wall",
			zap.String("url", pageURL),
			zap.String("wall", wall))
		return nil, fmt.Errorf("page served %s wall", wall)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	return p.extract(doc)
}

// extract pulls the engagement counters out of the page. The og meta tags
// carry the most reliable summary line ("1,234 likes, 56 comments - user"),
// so they are scanned ahead of the visible text.
func (p *PageFetch) extract(doc *goquery.Document) (*Record, error) {
	var parts []string
	for _, sel := range []string{
		`meta[property="og:description"]`,
		`meta[property="og:title"]`,
		`meta[name="description"]`,
	} {
		if content, ok := doc.Find(sel).Attr("content"); ok {
			parts = append(parts, content)
		}
	}
	parts = append(parts, doc.Find("title").Text(), doc.Text())
	text := strings.Join(parts, "\n")

	rec := &Record{
		Likes:    matchCount(likesPattern, text),
		Comments: matchCount(commentsPattern, text),
		Shares:   matchCount(sharesPattern, text),
		Views:    matchCount(viewsPattern, text),
	}

	if rec.Likes == 0 && rec.Comments == 0 && rec.Shares == 0 && rec.Views == 0 {
		return nil, errors.New("no engagement counters on page")
	}

	if rec.Views == 0 {
		rec.Views = rec.Likes * 15
	}
	rec.AuthorFollowers = matchCount(followersPattern, text)
	if rec.AuthorFollowers == 0 {
		rec.AuthorFollowers = 1000
	}

	if m := authorPattern.FindStringSubmatch(text); m != nil {
		rec.Author = m[1]
	}
	if dt, ok := doc.Find("time[datetime]").Attr("datetime"); ok {
		rec.PostDate = dt
	}
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, maxHashtags) {
		rec.Hashtags = append(rec.Hashtags, m[1])
	}

	return rec, nil
}

// matchCount applies a counter pattern and parses the captured number.
func matchCount(re *regexp.Regexp, text string) int64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return ParseCount(m[1])
}
