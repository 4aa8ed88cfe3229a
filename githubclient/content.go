// SPDX-License-Identifier: MIT

package githubclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GetRawContent fetches path from owner/repo at ref via the configured
// raw-content base URL. A 404 response is not an error: ok is false and err
// is nil. Any other non-2xx status is an error.
func (c *Client) GetRawContent(ctx context.Context, owner, repo, path, ref string) (body []byte, ok bool, err error) {
	url := fmt.Sprintf("%s/%s/%s/%s/%s", c.RawBaseURL, owner, repo, ref, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build raw content request for %s: %w", url, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch raw content %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300: //nolint:mnd
		return nil, false, fmt.Errorf("fetch raw content %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read raw content %s: %w", url, err)
	}
	return data, true, nil
}

// APIGetJSON decodes a JSON GET response from the REST base URL into T.
// Non-2xx responses are errors.
func APIGetJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var zero T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.REST.BaseURL.String()+path, nil)
	if err != nil {
		return zero, fmt.Errorf("build request for %s: %w", path, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return zero, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 { //nolint:mnd
		return zero, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, fmt.Errorf("decode response for %s: %w", path, err)
	}
	return out, nil
}

// APIGetOptionalJSON is APIGetJSON but treats a 404 as (zero, false, nil)
// instead of an error.
func APIGetOptionalJSON[T any](ctx context.Context, c *Client, path string) (T, bool, error) {
	var zero T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.REST.BaseURL.String()+path, nil)
	if err != nil {
		return zero, false, fmt.Errorf("build request for %s: %w", path, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return zero, false, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return zero, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 { //nolint:mnd
		return zero, false, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, false, fmt.Errorf("decode response for %s: %w", path, err)
	}
	return out, true, nil
}

// GraphQLPost issues a single GraphQL query against the configured
// GraphQL v4 client.
func (c *Client) GraphQLPost(ctx context.Context, query any, vars map[string]any) error {
	gqlVars := make(map[string]any, len(vars))
	for k, v := range vars {
		gqlVars[k] = v
	}
	if err := c.GraphQL.Query(ctx, query, gqlVars); err != nil {
		return fmt.Errorf("graphql query: %w", err)
	}
	return nil
}
