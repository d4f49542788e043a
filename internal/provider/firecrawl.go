package provider

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

// Firecrawl queries api.firecrawl.dev's search endpoint.
type Firecrawl struct {
	baseURL string
	api     *apiClient
	logger  *zap.Logger
}

type FirecrawlConfig struct {
	BaseURL string
}

func NewFirecrawl(cfg FirecrawlConfig, hc *httpclient.Client, logger *zap.Logger) *Firecrawl {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.firecrawl.dev"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Firecrawl{baseURL: cfg.BaseURL, api: newAPIClient(hc), logger: logger}
}

func (f *Firecrawl) Name() string     { return "firecrawl" }
func (f *Firecrawl) Category() string { return "firecrawl" }

type firecrawlRequest struct {
	Query       string `json:"query"`
	Limit       int    `json:"limit"`
	PageOptions struct {
		IncludeHTML bool `json:"includeHtml"`
	} `json:"pageOptions"`
}

type firecrawlResponse struct {
	Data []struct {
		SourceURL string `json:"sourceURL"`
		Content   string `json:"content"`
		Metadata  struct {
			Title string `json:"title"`
		} `json:"metadata"`
	} `json:"data"`
}

func (f *Firecrawl) Search(ctx context.Context, query string, cred credential.Credential) ([]SearchResult, error) {
	headers := map[string]string{"Authorization": "Bearer " + cred.Key}
	req := firecrawlRequest{Query: query, Limit: 8}

	var resp firecrawlResponse
	if err := f.api.doJSON(ctx, http.MethodPost, f.baseURL+"/v0/search", headers, req, &resp); err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, item := range resp.Data {
		if item.SourceURL == "" {
			continue
		}
		desc := item.Content
		if len(desc) > 200 {
			desc = desc[:200]
		}
		results = append(results, SearchResult{
			PageURL:     item.SourceURL,
			Title:       item.Metadata.Title,
			Description: desc,
			Source:      "firecrawl",
		})
	}
	return results, nil
}
