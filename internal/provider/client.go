package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/viralops/viralfinder/pkg/httpclient"
)

// apiClient is the JSON-over-HTTP plumbing shared by all adapters, so each
// adapter file only contains its provider's payload and field mapping.
type apiClient struct {
	hc *httpclient.Client
}

func newAPIClient(hc *httpclient.Client) *apiClient {
	return &apiClient{hc: hc}
}

// doJSON issues a request with an optional JSON body, decodes a JSON
// response into out, and maps HTTP status classes onto the package's
// sentinel errors.
func (c *apiClient) doJSON(ctx context.Context, method, url string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d", ErrSearchFailed, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
