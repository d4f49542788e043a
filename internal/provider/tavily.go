package provider

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

// Tavily queries api.tavily.com's advanced search with image inclusion.
type Tavily struct {
	baseURL string
	api     *apiClient
	logger  *zap.Logger
}

type TavilyConfig struct {
	BaseURL string
}

func NewTavily(cfg TavilyConfig, hc *httpclient.Client, logger *zap.Logger) *Tavily {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tavily{baseURL: cfg.BaseURL, api: newAPIClient(hc), logger: logger}
}

func (t *Tavily) Name() string     { return "tavily" }
func (t *Tavily) Category() string { return "tavily" }

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeImages bool   `json:"include_images"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		URL       string `json:"url"`
		Title     string `json:"title"`
		Content   string `json:"content"`
		Thumbnail string `json:"thumbnail"`
	} `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, query string, cred credential.Credential) ([]SearchResult, error) {
	req := tavilyRequest{
		APIKey:        cred.Key,
		Query:         query,
		SearchDepth:   "advanced",
		IncludeImages: true,
		IncludeAnswer: false,
		MaxResults:    8,
	}

	var resp tavilyResponse
	if err := t.api.doJSON(ctx, http.MethodPost, t.baseURL+"/search", nil, req, &resp); err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, item := range resp.Results {
		if item.URL == "" {
			continue
		}
		results = append(results, SearchResult{
			ImageURL:    item.Thumbnail,
			PageURL:     item.URL,
			Title:       item.Title,
			Description: item.Content,
			Source:      "tavily",
		})
	}
	return results, nil
}
