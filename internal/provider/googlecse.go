package provider

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

// GoogleCSE queries the Google Custom Search API in image mode. The search
// engine ID is fixed per deployment; only the API key rotates.
type GoogleCSE struct {
	baseURL string
	cseID   string
	api     *apiClient
	logger  *zap.Logger
}

type GoogleCSEConfig struct {
	BaseURL string
	CSEID   string
}

func NewGoogleCSE(cfg GoogleCSEConfig, hc *httpclient.Client, logger *zap.Logger) *GoogleCSE {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleCSE{baseURL: cfg.BaseURL, cseID: cfg.CSEID, api: newAPIClient(hc), logger: logger}
}

func (g *GoogleCSE) Name() string     { return "google_cse" }
func (g *GoogleCSE) Category() string { return "google_cse" }

type googleCSEResponse struct {
	Items []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Image   struct {
			ContextLink string `json:"contextLink"`
		} `json:"image"`
	} `json:"items"`
}

func (g *GoogleCSE) Search(ctx context.Context, query string, cred credential.Credential) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("key", cred.Key)
	params.Set("cx", g.cseID)
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("num", "6")
	params.Set("safe", "off")
	params.Set("imgSize", "large")
	params.Set("imgType", "photo")
	params.Set("gl", "br")
	params.Set("hl", "pt")

	var resp googleCSEResponse
	if err := g.api.doJSON(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil, nil, &resp); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, SearchResult{
			ImageURL:    item.Link,
			PageURL:     item.Image.ContextLink,
			Title:       item.Title,
			Description: item.Snippet,
			Source:      "google_cse",
		})
	}
	return results, nil
}
