// SPDX-License-Identifier: MIT

package providers

import (
	"context"
	"fmt"

	"github.com/google/go-github/v80/github"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/githubclient"
)

// ghsaEcosystem is the fixed GitHub Security Advisories ecosystem string for
// action references.
const ghsaEcosystem = "actions"

// GHSAProvider queries GitHub's global security advisories database for a
// given action's package name, using go-github's typed SecurityAdvisories
// service rather than a hand-rolled REST path.
type GHSAProvider struct {
	client *github.Client
}

// NewGHSAProvider builds a GHSAProvider over an already-authenticated REST client.
func NewGHSAProvider(client *githubclient.Client) *GHSAProvider {
	return &GHSAProvider{client: client.REST}
}

// Name implements ActionProvider.
func (p *GHSAProvider) Name() string { return "GHSA" }

// Query implements ActionProvider.
func (p *GHSAProvider) Query(ctx context.Context, ref actionref.ActionRef) ([]advisory.Advisory, error) {
	packageName := ref.PackageName()
	ecosystem := ghsaEcosystem
	opts := &github.ListGlobalSecurityAdvisoriesOptions{
		Ecosystem: &ecosystem,
		Affects:   &packageName,
	}

	advisories, _, err := p.client.SecurityAdvisories.ListGlobalSecurityAdvisories(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("GHSA: list advisories for %s: %w", packageName, err)
	}

	out := make([]advisory.Advisory, 0, len(advisories))
	for _, ga := range advisories {
		if !affectsPackage(ga, packageName) {
			continue
		}
		out = append(out, advisory.Advisory{
			ID:            ga.GetGHSAID(),
			Aliases:       ghsaAliases(ga),
			Summary:       ga.GetSummary(),
			Severity:      advisory.NormalizeSeverity(ga.GetSeverity()),
			URL:           ga.GetHTMLURL(),
			AffectedRange: ghsaAffectedRange(ga, packageName),
			Source:        "GHSA",
		})
	}
	return out, nil
}

func affectsPackage(ga *github.GlobalSecurityAdvisory, packageName string) bool {
	for _, vuln := range ga.Vulnerabilities {
		if vuln == nil || vuln.Package == nil || vuln.Package.Name == nil {
			continue
		}
		if vuln.Package.GetName() == packageName {
			return true
		}
	}
	return false
}

func ghsaAffectedRange(ga *github.GlobalSecurityAdvisory, packageName string) string {
	for _, vuln := range ga.Vulnerabilities {
		if vuln == nil || vuln.Package == nil {
			continue
		}
		if vuln.Package.GetName() == packageName {
			return vuln.GetVulnerableVersionRange()
		}
	}
	return ""
}

func ghsaAliases(ga *github.GlobalSecurityAdvisory) []string {
	var aliases []string
	if cve := ga.GetCVEID(); cve != "" {
		aliases = append(aliases, cve)
	}
	for _, id := range ga.Identifiers {
		if id == nil || id.GetType() != "CVE" {
			continue
		}
		if v := id.GetValue(); v != "" && v != ga.GetCVEID() {
			aliases = append(aliases, v)
		}
	}
	return aliases
}
