// SPDX-License-Identifier: MIT

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/githubclient"
)

// osvActionsEcosystem is OSV's ecosystem string for GitHub Actions.
const osvActionsEcosystem = "GitHub Actions"

// osvQueryRequest mirrors the subset of OSV's /v1/query request body this
// client needs: a package identity plus an optional version.
type osvQueryRequest struct {
	Package osvPackage `json:"package"`
	Version string     `json:"version,omitempty"`
}

type osvPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type osvQueryResponse struct {
	Vulns []osvVuln `json:"vulns"`
}

type osvVuln struct {
	ID               string           `json:"id"`
	Summary          string           `json:"summary"`
	Aliases          []string         `json:"aliases"`
	Affected         []osvAffected    `json:"affected"`
	References       []osvReference   `json:"references"`
	DatabaseSpecific osvDatabaseExtra `json:"database_specific"`
}

type osvAffected struct {
	Ranges []osvRange `json:"ranges"`
}

type osvRange struct {
	Events []osvEvent `json:"events"`
}

type osvEvent struct {
	Introduced string `json:"introduced,omitempty"`
	Fixed      string `json:"fixed,omitempty"`
}

type osvReference struct {
	URL string `json:"url"`
}

type osvDatabaseExtra struct {
	Severity string `json:"severity"`
}

// osvClient is the shared inner client backing both OSV provider wrappers.
// It is never itself exposed as a provider.
type osvClient struct {
	http    *http.Client
	baseURL string
}

func newOSVClient(client *githubclient.Client) *osvClient {
	return &osvClient{http: client.HTTP, baseURL: client.OSVBaseURL}
}

func (c *osvClient) query(ctx context.Context, name, ecosystem, version string) ([]advisory.Advisory, error) {
	reqBody, err := json.Marshal(osvQueryRequest{
		Package: osvPackage{Name: name, Ecosystem: ecosystem},
		Version: version,
	})
	if err != nil {
		return nil, fmt.Errorf("OSV: encode query for %s: %w", name, err)
	}

	url := c.baseURL + "/v1/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("OSV: build request for %s: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OSV: query %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:mnd
		return nil, fmt.Errorf("OSV: query %s: unexpected status %d: %s", name, resp.StatusCode, body)
	}

	var parsed osvQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("OSV: decode response for %s: %w", name, err)
	}

	out := make([]advisory.Advisory, 0, len(parsed.Vulns))
	for _, v := range parsed.Vulns {
		out = append(out, advisory.Advisory{
			ID:            v.ID,
			Aliases:       v.Aliases,
			Summary:       v.Summary,
			Severity:      advisory.NormalizeSeverity(v.DatabaseSpecific.Severity),
			URL:           osvURL(v),
			AffectedRange: osvAffectedRange(v),
			Source:        "OSV",
		})
	}
	return out, nil
}

func osvURL(v osvVuln) string {
	if len(v.References) > 0 && v.References[0].URL != "" {
		return v.References[0].URL
	}
	return "https://osv.dev/vulnerability/" + v.ID
}

func osvAffectedRange(v osvVuln) string {
	for _, affected := range v.Affected {
		for _, r := range affected.Ranges {
			for _, ev := range r.Events {
				if ev.Fixed != "" {
					return "< " + ev.Fixed
				}
			}
		}
	}
	return ""
}

// osvActionProvider wraps osvClient as an ActionProvider, fixing the
// ecosystem to OSV's "GitHub Actions" and the version to the raw git ref.
type osvActionProvider struct {
	inner *osvClient
}

func (p *osvActionProvider) Name() string { return "OSV" }

func (p *osvActionProvider) Query(ctx context.Context, ref actionref.ActionRef) ([]advisory.Advisory, error) {
	return p.inner.query(ctx, ref.PackageName(), osvActionsEcosystem, ref.Version())
}

// osvPackageProvider wraps osvClient as a PackageProvider for language
// ecosystem packages discovered by the dependency stage.
type osvPackageProvider struct {
	inner *osvClient
}

func (p *osvPackageProvider) Name() string { return "OSV" }

func (p *osvPackageProvider) Query(ctx context.Context, packageName, ecosystem string) ([]advisory.Advisory, error) {
	return p.inner.query(ctx, packageName, ecosystem, "")
}
