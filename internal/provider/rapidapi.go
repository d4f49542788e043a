package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/pkg/httpclient"
)

// RapidAPIInstagram queries a RapidAPI-hosted Instagram scraper by hashtag,
// turning the query (spaces stripped) into a hashtag lookup.
type RapidAPIInstagram struct {
	baseURL string
	host    string
	api     *apiClient
	logger  *zap.Logger
}

type RapidAPIConfig struct {
	BaseURL string
	Host    string
}

func NewRapidAPIInstagram(cfg RapidAPIConfig, hc *httpclient.Client, logger *zap.Logger) *RapidAPIInstagram {
	if cfg.Host == "" {
		cfg.Host = "instagram-scraper-api2.p.rapidapi.com"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://" + cfg.Host
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RapidAPIInstagram{baseURL: cfg.BaseURL, host: cfg.Host, api: newAPIClient(hc), logger: logger}
}

func (r *RapidAPIInstagram) Name() string     { return "rapidapi_instagram" }
func (r *RapidAPIInstagram) Category() string { return "rapidapi" }

type rapidAPIResponse struct {
	Data struct {
		Recent struct {
			Sections []struct {
				LayoutContent struct {
					Medias []struct {
						Media rapidAPIMedia `json:"media"`
					} `json:"medias"`
				} `json:"layout_content"`
			} `json:"sections"`
		} `json:"recent"`
	} `json:"data"`
}

type rapidAPIMedia struct {
	Code           string `json:"code"`
	ImageVersions2 struct {
		Candidates []struct {
			URL string `json:"url"`
		} `json:"candidates"`
	} `json:"image_versions2"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
	Caption struct {
		Text string `json:"text"`
	} `json:"caption"`
}

func (r *RapidAPIInstagram) Search(ctx context.Context, query string, cred credential.Credential) ([]SearchResult, error) {
	hashtag := strings.ReplaceAll(query, " ", "")
	params := url.Values{}
	params.Set("hashtag", hashtag)
	params.Set("count", "12")

	headers := map[string]string{
		"X-RapidAPI-Key":  cred.Key,
		"X-RapidAPI-Host": r.host,
	}

	var resp rapidAPIResponse
	if err := r.api.doJSON(ctx, http.MethodGet, r.baseURL+"/v1/hashtag?"+params.Encode(), headers, nil, &resp); err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, section := range resp.Data.Recent.Sections {
		for _, m := range section.LayoutContent.Medias {
			media := m.Media
			if media.Code == "" {
				continue
			}
			imageURL := ""
			if len(media.ImageVersions2.Candidates) > 0 {
				imageURL = media.ImageVersions2.Candidates[0].URL
			}
			caption := media.Caption.Text
			if len(caption) > 200 {
				caption = caption[:200]
			}
			results = append(results, SearchResult{
				ImageURL:    imageURL,
				PageURL:     fmt.Sprintf("https://www.instagram.com/p/%s/", media.Code),
				Title:       fmt.Sprintf("Instagram post by @%s", media.User.Username),
				Description: caption,
				Source:      "rapidapi_instagram",
			})
		}
	}
	return results, nil
}
