package provider

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

// Serper queries google.serper.dev, combining the images and organic search
// verticals into one result list.
type Serper struct {
	baseURL string
	api     *apiClient
	logger  *zap.Logger
}

// SerperConfig tunes the Serper adapter. BaseURL is overridable for tests.
type SerperConfig struct {
	BaseURL string
}

func NewSerper(cfg SerperConfig, hc *httpclient.Client, logger *zap.Logger) *Serper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://google.serper.dev"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serper{baseURL: cfg.BaseURL, api: newAPIClient(hc), logger: logger}
}

func (s *Serper) Name() string     { return "serper" }
func (s *Serper) Category() string { return "serper" }

type serperRequest struct {
	Q            string `json:"q"`
	Num          int    `json:"num"`
	Safe         string `json:"safe"`
	GL           string `json:"gl"`
	HL           string `json:"hl"`
	ImgSize      string `json:"imgSize,omitempty"`
	ImgType      string `json:"imgType,omitempty"`
	ImgColorType string `json:"imgColorType,omitempty"`
}

type serperResponse struct {
	Images []struct {
		ImageURL string `json:"imageUrl"`
		Link     string `json:"link"`
		Title    string `json:"title"`
		Snippet  string `json:"snippet"`
	} `json:"images"`
	Organic []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (s *Serper) Search(ctx context.Context, query string, cred credential.Credential) ([]SearchResult, error) {
	headers := map[string]string{"X-API-KEY": cred.Key}

	var results []SearchResult
	for _, vertical := range []string{"images", "search"} {
		req := serperRequest{Q: query, Num: 8, Safe: "off", GL: "br", HL: "pt-br"}
		if vertical == "images" {
			req.ImgSize = "large"
			req.ImgType = "photo"
			req.ImgColorType = "color"
		}

		var resp serperResponse
		if err := s.api.doJSON(ctx, http.MethodPost, s.baseURL+"/"+vertical, headers, req, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Images {
			results = append(results, SearchResult{
				ImageURL:    item.ImageURL,
				PageURL:     item.Link,
				Title:       item.Title,
				Description: item.Snippet,
				Source:      "serper_images",
			})
		}
		for _, item := range resp.Organic {
			results = append(results, SearchResult{
				PageURL:     item.Link,
				Title:       item.Title,
				Description: item.Snippet,
				Source:      "serper_search",
			})
		}
	}

	return results, nil
}
