// SPDX-License-Identifier: MIT

package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/githubclient"
	"github.com/esacteksab/gh-actaudit/pipeline"
	"github.com/esacteksab/gh-actaudit/workflow"
)

// WorkflowExpandStage discovers the "uses:" references inside a reusable
// workflow file and appends them to ctx.Children. It applies only when the
// action reference targets a path under .github/workflows/.
type WorkflowExpandStage struct {
	Client *githubclient.Client
}

// Name implements pipeline.Stage.
func (s *WorkflowExpandStage) Name() string { return "workflow_expand" }

// Run implements pipeline.Stage.
func (s *WorkflowExpandStage) Run(ctx context.Context, actx *pipeline.AuditContext) error {
	if !strings.Contains(actx.Action.Path, ".github/workflows/") {
		return nil
	}

	ref := refForContentFetch(actx)
	data, ok, err := s.Client.GetRawContent(ctx, actx.Action.Owner, actx.Action.Repo, actx.Action.Path, ref)
	if err != nil {
		return fmt.Errorf("workflow_expand: %w", err)
	}
	if !ok {
		return nil
	}

	usesList, err := workflow.ParseWorkflowUses(data)
	if err != nil {
		return fmt.Errorf("workflow_expand: parse %s: %w", actx.Action.Path, err)
	}

	for _, uses := range usesList {
		if actionref.IsLocalOrDocker(uses) {
			continue
		}
		child, kind, err := actionref.Parse(uses)
		if err != nil || kind != actionref.KindThirdParty {
			continue
		}
		actx.Children = append(actx.Children, child)
	}
	return nil
}
