package provider

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

// Exa queries api.exa.ai's neural search. Exa returns text pages only, so
// results carry no image URL.
type Exa struct {
	baseURL string
	api     *apiClient
	logger  *zap.Logger
}

type ExaConfig struct {
	BaseURL string
}

func NewExa(cfg ExaConfig, hc *httpclient.Client, logger *zap.Logger) *Exa {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.exa.ai"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exa{baseURL: cfg.BaseURL, api: newAPIClient(hc), logger: logger}
}

func (e *Exa) Name() string     { return "exa" }
func (e *Exa) Category() string { return "exa" }

type exaRequest struct {
	Query              string `json:"query"`
	NumResults         int    `json:"num_results"`
	Type               string `json:"type"`
	StartPublishedDate string `json:"start_published_date,omitempty"`
}

type exaResponse struct {
	Results []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"results"`
}

func (e *Exa) Search(ctx context.Context, query string, cred credential.Credential) ([]SearchResult, error) {
	headers := map[string]string{"x-api-key": cred.Key}
	req := exaRequest{
		Query:              query,
		NumResults:         8,
		Type:               "neural",
		StartPublishedDate: "2023-01-01",
	}

	var resp exaResponse
	if err := e.api.doJSON(ctx, http.MethodPost, e.baseURL+"/search", headers, req, &resp); err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, item := range resp.Results {
		if item.URL == "" {
			continue
		}
		results = append(results, SearchResult{
			PageURL:     item.URL,
			Title:       item.Title,
			Description: item.Text,
			Source:      "exa",
		})
	}
	return results, nil
}
