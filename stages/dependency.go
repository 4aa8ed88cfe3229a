// SPDX-License-Identifier: MIT

package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/githubclient"
	"github.com/esacteksab/gh-actaudit/pipeline"
	"github.com/esacteksab/gh-actaudit/providers"
)

// npmManifest is the subset of package.json this stage reads. Declared
// version ranges are taken as-is; no semver resolution against a lockfile
// is performed.
type npmManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// DependencyStage extracts package-level dependencies for ecosystems that
// have a concrete extractor (npm is the sole required instance) and queries
// every package advisory provider for each one. It is a no-op when the scan
// stage found no ecosystems.
type DependencyStage struct {
	Client    *githubclient.Client
	Providers *providers.Set
}

// Name implements pipeline.Stage.
func (s *DependencyStage) Name() string { return "dependency" }

// Run implements pipeline.Stage.
func (s *DependencyStage) Run(ctx context.Context, actx *pipeline.AuditContext) error {
	if actx.Scan == nil || len(actx.Scan.DetectedEcosystems) == 0 {
		return nil
	}
	if !containsEcosystem(actx.Scan.DetectedEcosystems, "Npm") {
		return nil
	}

	ref := refForContentFetch(actx)
	data, ok, err := s.Client.GetRawContent(ctx, actx.Action.Owner, actx.Action.Repo, "package.json", ref)
	if err != nil {
		return fmt.Errorf("dependency: fetch package.json: %w", err)
	}
	if !ok {
		return nil
	}

	var manifest npmManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("dependency: parse package.json: %w", err)
	}

	deps := flattenNpmDeps(manifest)
	reports := make([]pipeline.DependencyReport, 0, len(deps))
	for _, d := range deps {
		reports = append(reports, s.queryPackage(ctx, actx, d.name, d.version, "Npm"))
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Name < reports[j].Name })
	actx.Dependencies = reports
	return nil
}

type npmDep struct{ name, version string }

func flattenNpmDeps(manifest npmManifest) []npmDep {
	seen := make(map[string]struct{})
	var deps []npmDep
	for _, group := range []map[string]string{manifest.Dependencies, manifest.DevDependencies} {
		for name, version := range group {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			deps = append(deps, npmDep{name: name, version: version})
		}
	}
	return deps
}

// queryPackage fans out to every package provider concurrently and merges
// their results; a failing provider is recorded as a StageError on actx but
// does not drop survivors.
func (s *DependencyStage) queryPackage(
	ctx context.Context, actx *pipeline.AuditContext, name, version, ecosystem string,
) pipeline.DependencyReport {
	if len(s.Providers.Package) == 0 {
		return pipeline.DependencyReport{Name: name, Version: version, Ecosystem: ecosystem}
	}

	p := pool.NewWithResults[providerResult]()
	for _, provider := range s.Providers.Package {
		provider := provider
		p.Go(func() providerResult {
			advisories, err := provider.Query(ctx, name, ecosystem)
			return providerResult{name: provider.Name(), advisories: advisories, err: err}
		})
	}
	results := p.Wait()

	var merged []advisory.Advisory
	for _, r := range results {
		if r.err != nil {
			actx.AddError("dependency", "provider %s for %s: %v", r.name, name, r.err)
			continue
		}
		merged = append(merged, r.advisories...)
	}

	return pipeline.DependencyReport{
		Name:       name,
		Version:    version,
		Ecosystem:  ecosystem,
		Advisories: advisory.Dedup(merged),
	}
}

func containsEcosystem(ecosystems []string, want string) bool {
	for _, e := range ecosystems {
		if e == want {
			return true
		}
	}
	return false
}
