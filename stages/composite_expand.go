// SPDX-License-Identifier: MIT

package stages

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/githubclient"
	"github.com/esacteksab/gh-actaudit/pipeline"
)

// actionManifest is the subset of action.yml/action.yaml this stage cares
// about: whether the action is composite, and if so, what it invokes.
type actionManifest struct {
	Runs struct {
		Using string `yaml:"using"`
		Steps []struct {
			Uses string `yaml:"uses,omitempty"`
		} `yaml:"steps,omitempty"`
	} `yaml:"runs"`
}

// CompositeExpandStage discovers a composite action's own action
// references and appends them to ctx.Children.
type CompositeExpandStage struct {
	Client *githubclient.Client
}

// Name implements pipeline.Stage.
func (s *CompositeExpandStage) Name() string { return "composite_expand" }

// Run implements pipeline.Stage.
func (s *CompositeExpandStage) Run(ctx context.Context, actx *pipeline.AuditContext) error {
	ref := refForContentFetch(actx)
	owner, repo, basePath := actx.Action.Owner, actx.Action.Repo, actx.Action.Path

	data, ok, err := fetchManifestWithFallback(ctx, s.Client, owner, repo, basePath, ref, "action.yml", "action.yaml")
	if err != nil {
		return fmt.Errorf("composite_expand: %w", err)
	}
	if !ok {
		return nil
	}

	var manifest actionManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("composite_expand: parse action manifest for %s: %w", actx.Action.PackageName(), err)
	}
	if manifest.Runs.Using != "composite" {
		return nil
	}

	for _, step := range manifest.Runs.Steps {
		if step.Uses == "" || actionref.IsLocalOrDocker(step.Uses) {
			continue
		}
		child, kind, err := actionref.Parse(step.Uses)
		if err != nil || kind != actionref.KindThirdParty {
			continue
		}
		actx.Children = append(actx.Children, child)
	}
	return nil
}

// fetchManifestWithFallback fetches the first of candidates that exists
// under basePath, or at the repository root when basePath is empty.
func fetchManifestWithFallback(
	ctx context.Context, client *githubclient.Client, owner, repo, basePath, ref string, candidates ...string,
) ([]byte, bool, error) {
	for _, name := range candidates {
		path := name
		if basePath != "" {
			path = basePath + "/" + name
		}
		data, ok, err := client.GetRawContent(ctx, owner, repo, path, ref)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return data, true, nil
		}
	}
	return nil, false, nil
}
