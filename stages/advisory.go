// SPDX-License-Identifier: MIT

package stages

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/pipeline"
	"github.com/esacteksab/gh-actaudit/providers"
)

// providerResult pairs one action provider's outcome with its name, so
// failures can be attributed individually after the fan-out completes.
type providerResult struct {
	name       string
	advisories []advisory.Advisory
	err        error
}

// AdvisoryStage queries every configured action advisory provider
// concurrently and merges the results. A failing provider contributes
// exactly one StageError naming it; the surviving providers' advisories are
// still merged and stored.
type AdvisoryStage struct {
	Providers *providers.Set
}

// Name implements pipeline.Stage.
func (s *AdvisoryStage) Name() string { return "advisory" }

// Run implements pipeline.Stage.
func (s *AdvisoryStage) Run(ctx context.Context, actx *pipeline.AuditContext) error {
	if len(s.Providers.Action) == 0 {
		return nil
	}

	p := pool.NewWithResults[providerResult]()
	for _, provider := range s.Providers.Action {
		provider := provider
		p.Go(func() providerResult {
			advisories, err := provider.Query(ctx, actx.Action)
			return providerResult{name: provider.Name(), advisories: advisories, err: err}
		})
	}
	results := p.Wait()

	var merged []advisory.Advisory
	for _, r := range results {
		if r.err != nil {
			actx.AddError("advisory", "provider %s: %v", r.name, r.err)
			continue
		}
		merged = append(merged, r.advisories...)
	}

	actx.Advisories = advisory.Dedup(merged)
	return nil
}
