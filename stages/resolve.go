// SPDX-License-Identifier: MIT

// Package stages implements the concrete per-node enrichments: resolving a
// symbolic ref to a commit SHA, expanding composite actions and reusable
// workflows into child references, querying advisory providers, scanning a
// repository's manifest files, and extracting package-level dependencies.
package stages

import (
	"context"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/githubclient"
	"github.com/esacteksab/gh-actaudit/pipeline"
)

// ResolveStage sets ctx.ResolvedRef. A Sha-kind reference resolves without
// any I/O; anything else is resolved via githubclient.ResolveRefToSHA,
// which tries a tag, then a branch. A ref that is neither is not looked up
// any further and yields an error. Logger is optional; nil silences the
// lookup chain's intermediate diagnostics.
type ResolveStage struct {
	Client *githubclient.Client
	Logger githubclient.RateLogger
}

// Name implements pipeline.Stage.
func (s *ResolveStage) Name() string { return "resolve" }

// Run implements pipeline.Stage.
func (s *ResolveStage) Run(ctx context.Context, actx *pipeline.AuditContext) error {
	if actx.Action.Kind == actionref.RefSha {
		actx.ResolvedRef = actx.Action.GitRef
		return nil
	}

	sha, err := githubclient.ResolveRefToSHA(
		ctx, s.Client.REST, s.Logger, actx.Action.Owner, actx.Action.Repo, actx.Action.GitRef,
	)
	if err != nil {
		return err
	}
	actx.ResolvedRef = sha
	return nil
}

// refForContentFetch returns the best ref to fetch repository content at:
// the resolved SHA when available, otherwise the raw git_ref.
func refForContentFetch(actx *pipeline.AuditContext) string {
	if actx.ResolvedRef != "" {
		return actx.ResolvedRef
	}
	return actx.Action.GitRef
}
