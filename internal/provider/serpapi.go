package provider

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

// SerpAPI queries serpapi.com's google_images engine.
type SerpAPI struct {
	baseURL string
	api     *apiClient
	logger  *zap.Logger
}

type SerpAPIConfig struct {
	BaseURL string
}

func NewSerpAPI(cfg SerpAPIConfig, hc *httpclient.Client, logger *zap.Logger) *SerpAPI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://serpapi.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerpAPI{baseURL: cfg.BaseURL, api: newAPIClient(hc), logger: logger}
}

func (s *SerpAPI) Name() string     { return "serpapi" }
func (s *SerpAPI) Category() string { return "serpapi" }

type serpAPIResponse struct {
	ImagesResults []struct {
		Original  string `json:"original"`
		Thumbnail string `json:"thumbnail"`
		Link      string `json:"link"`
		Title     string `json:"title"`
		Snippet   string `json:"snippet"`
	} `json:"images_results"`
}

func (s *SerpAPI) Search(ctx context.Context, query string, cred credential.Credential) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("api_key", cred.Key)
	params.Set("q", query)
	params.Set("engine", "google_images")
	params.Set("ijn", "0")
	params.Set("gl", "br")
	params.Set("hl", "pt-br")

	var resp serpAPIResponse
	if err := s.api.doJSON(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil, nil, &resp); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.ImagesResults))
	for _, item := range resp.ImagesResults {
		imageURL := item.Original
		if imageURL == "" {
			imageURL = item.Thumbnail
		}
		results = append(results, SearchResult{
			ImageURL:    imageURL,
			PageURL:     item.Link,
			Title:       item.Title,
			Description: item.Snippet,
			Source:      "serpapi",
		})
	}
	return results, nil
}
