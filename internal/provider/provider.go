package provider

import (
	"context"
	"errors"

	"github.com/viralops/viralfinder/internal/credential"
)

var (
	ErrUnauthorized = errors.New("provider rejected the API key")
	ErrRateLimited  = errors.New("provider rate limit exceeded")
	ErrSearchFailed = errors.New("provider search request failed")
)

// SearchResult is one candidate post returned by a provider. PageURL is the
// deduplication key downstream; ImageURL may be empty for text-only engines.
type SearchResult struct {
	ImageURL    string `json:"image_url"`
	PageURL     string `json:"page_url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Provider is a single upstream search service. Implementations translate
// one provider's HTTP contract into SearchResults and must return an error
// only for transport or auth failures; "no results" is an empty slice.
type Provider interface {
	// Name identifies the provider in logs and result Source tags.
	Name() string
	// Category is the credential category the provider draws keys from.
	Category() string
	// Search runs one query with the given credential.
	Search(ctx context.Context, query string, cred credential.Credential) ([]SearchResult, error)
}
