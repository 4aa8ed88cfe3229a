// SPDX-License-Identifier: MIT

// Package githubclient wraps authenticated GitHub REST, GraphQL, and
// raw-content access behind a small, stateless surface the audit engine's
// stages depend on. Every outbound call shares one disk-cached HTTP
// transport.
package githubclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/go-github/v80/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/esacteksab/httpcache"
	"github.com/esacteksab/httpcache/diskcache"
)

// Environment variables that configure the client's upstream endpoints.
const (
	EnvToken      = "GITHUB_TOKEN"
	EnvAPIBaseURL = "GHSS_API_BASE_URL"
	EnvRawBaseURL = "GHSS_RAW_BASE_URL"
	EnvOSVBaseURL = "GHSS_OSV_BASE_URL"

	defaultRawBase = "https://raw.githubusercontent.com"
	defaultOSVBase = "https://api.osv.dev"

	// SHALength is the length of a full Git SHA-1 hash.
	SHALength = 40
)

// IsHexString reports whether s consists entirely of lowercase hex digits.
func IsHexString(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// CachingTransport wraps an http.RoundTripper, giving callers a named type
// to assert against in tests.
type CachingTransport struct {
	Transport http.RoundTripper
}

// RoundTrip satisfies http.RoundTripper by delegating to the wrapped transport.
func (t *CachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.Transport.RoundTrip(req)
}

// Client is the audit engine's authenticated handle onto GitHub's REST,
// GraphQL, and raw-content surfaces. OSV has no first-party Go client, so
// providers dial it directly over the same HTTP transport; OSVBaseURL is
// read here alongside the rest of the endpoint configuration so every
// upstream base URL has one place of truth.
type Client struct {
	REST    *github.Client
	GraphQL *githubv4.Client
	HTTP    *http.Client

	RawBaseURL string
	OSVBaseURL string
}

// New builds a Client. Token, if non-empty, is attached as a bearer token to
// every GitHub-bound request (REST and GraphQL share the transport). Base
// URLs default to github.com / raw.githubusercontent.com / api.osv.dev and
// are overridden by GHSS_API_BASE_URL / GHSS_RAW_BASE_URL / GHSS_OSV_BASE_URL.
func New(token string) (*Client, error) {
	cacheDir, err := cacheDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get user cache directory: %w", err)
	}
	cache := diskcache.New(cacheDir)
	cacheTransport := httpcache.NewTransport(cache)

	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		authTransport := &oauth2.Transport{
			Base:   cacheTransport,
			Source: oauth2.ReuseTokenSource(nil, ts),
		}
		httpClient = &http.Client{Transport: &CachingTransport{Transport: authTransport}}
	} else {
		httpClient = &http.Client{Transport: &CachingTransport{Transport: cacheTransport}}
	}

	restClient := github.NewClient(httpClient)
	var gqlClient *githubv4.Client

	if apiBase := os.Getenv(EnvAPIBaseURL); apiBase != "" {
		normalizedBase := ensureTrailingSlash(apiBase)
		baseURL, err := url.Parse(normalizedBase)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvAPIBaseURL, apiBase, err)
		}
		restClient.BaseURL = baseURL
		gqlClient = githubv4.NewEnterpriseClient(normalizedBase, httpClient)
	} else {
		gqlClient = githubv4.NewClient(httpClient)
	}

	rawBase := os.Getenv(EnvRawBaseURL)
	if rawBase == "" {
		rawBase = defaultRawBase
	}
	osvBase := os.Getenv(EnvOSVBaseURL)
	if osvBase == "" {
		osvBase = defaultOSVBase
	}

	return &Client{
		REST:       restClient,
		GraphQL:    gqlClient,
		HTTP:       httpClient,
		RawBaseURL: rawBase,
		OSVBaseURL: osvBase,
	}, nil
}

func ensureTrailingSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] != '/' {
		return s + "/"
	}
	return s
}

func cacheDirectory() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	cachePath := filepath.Join(userCacheDir, "gh-actaudit")
	if err := os.MkdirAll(cachePath, 0o750); err != nil { //nolint:mnd
		return "", fmt.Errorf("could not create cache directory %q: %w", cachePath, err)
	}
	return cachePath, nil
}

// RateLogger is the minimal logging surface CheckRateLimit needs, satisfied
// by *charmbracelet/log.Logger.
type RateLogger interface {
	Warnf(format string, args ...any)
	Infof(format string, args ...any)
}

// CheckRateLimit retrieves and logs the current GitHub API rate limit status.
func CheckRateLimit(ctx context.Context, logger RateLogger, client *github.Client) {
	limits, resp, err := client.RateLimit.Get(ctx)
	if err != nil {
		logger.Warnf("could not retrieve rate limits: %v", err)
		printRate(logger, rateFromResponse(resp))
		return
	}
	if limits != nil && limits.Core != nil {
		printRate(logger, limits.Core)
		return
	}
	logger.Warnf("rate limit data not available in response")
}

func rateFromResponse(resp *github.Response) *github.Rate {
	if resp == nil {
		return nil
	}
	return &resp.Rate
}

func printRate(logger RateLogger, rate *github.Rate) {
	if rate == nil {
		logger.Warnf("rate limit info unavailable")
		return
	}
	resetTime := rate.Reset.Time.Local().Format("15:04:05 MST")
	logger.Infof("rate limit: %d/%d remaining, resets @ %s", rate.Remaining, rate.Limit, resetTime)

	const authenticatedLimit = 5000
	const unauthenticatedLimit = 60
	switch {
	case rate.Limit >= authenticatedLimit:
		logger.Infof("using authenticated rate limits")
	case rate.Limit <= unauthenticatedLimit:
		logger.Infof("using unauthenticated rate limits")
	}
}
