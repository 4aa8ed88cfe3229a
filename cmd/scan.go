// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/githubclient"
	"github.com/esacteksab/gh-actaudit/pipeline"
	"github.com/esacteksab/gh-actaudit/providers"
	"github.com/esacteksab/gh-actaudit/report"
	"github.com/esacteksab/gh-actaudit/selection"
	"github.com/esacteksab/gh-actaudit/stages"
	"github.com/esacteksab/gh-actaudit/utils"
	"github.com/esacteksab/gh-actaudit/walker"
	"github.com/esacteksab/gh-actaudit/workflow"
)

var (
	providerSet    string
	maxDepth       int
	maxConcurrency int
	outputFormat   string
	selectionSpec  string
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&providerSet, "providers", "all", `advisory provider set: "ghsa", "osv", or "all"`)
	scanCmd.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum traversal depth (negative means unbounded)")
	scanCmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 10, "maximum concurrent node pipelines") //nolint:mnd
	scanCmd.Flags().StringVar(&outputFormat, "format", "text", `output format: "text" or "json"`)
	scanCmd.Flags().StringVar(&selectionSpec, "select", "all", `root selection, e.g. "all" or "1-3,5"`)
}

var scanCmd = &cobra.Command{
	Use:   "scan <workflow-file>",
	Short: "Audit the action references in a workflow file for supply-chain risk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context(), args[0])
	},
}

func runScan(ctx context.Context, workflowPath string) error {
	if err := utils.ValidateWorkflowFilePath(workflowPath); err != nil {
		return fmt.Errorf("invalid workflow path: %w", err)
	}

	data, err := os.ReadFile(workflowPath) //nolint:gosec
	if err != nil {
		return fmt.Errorf("read workflow file %q: %w", workflowPath, err)
	}

	usesList, err := workflow.ParseWorkflowUses(data)
	if err != nil {
		return fmt.Errorf("parse workflow file %q: %w", workflowPath, err)
	}

	roots := dedupRoots(usesList)

	selected, err := selection.Apply(selectionSpec, roots)
	if err != nil {
		return fmt.Errorf("invalid --select %q: %w", selectionSpec, err)
	}

	client, err := githubclient.New(os.Getenv(githubclient.EnvToken))
	if err != nil {
		return fmt.Errorf("build github client: %w", err)
	}
	if utils.Logger != nil {
		githubclient.CheckRateLimit(ctx, utils.Logger, client.REST)
	}

	providerSetImpl, err := providers.New(providerSet, client)
	if err != nil {
		return fmt.Errorf("build advisory providers: %w", err)
	}

	p := pipeline.NewBuilder().
		Use(&stages.ResolveStage{Client: client, Logger: utils.Logger}).
		Use(&stages.CompositeExpandStage{Client: client}).
		Use(&stages.WorkflowExpandStage{Client: client}).
		Use(&stages.ScanStage{Client: client}).
		Use(&stages.DependencyStage{Client: client, Providers: providerSetImpl}).
		Use(&stages.AdvisoryStage{Providers: providerSetImpl}).
		WithMaxConcurrency(maxConcurrency).
		Build()

	w := &walker.Walker{Pipeline: p, MaxConcurrency: maxConcurrency}
	if maxDepth >= 0 {
		w.MaxDepth = &maxDepth
	}

	result := w.Walk(ctx, selected)

	switch outputFormat {
	case "json":
		out, err := report.JSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(report.Text(result))
	}
	return nil
}

// dedupRoots parses every uses: string, drops local/Docker references and
// per-entry parse failures (warned to stderr), and collapses duplicates by
// identity key while preserving first-seen order.
func dedupRoots(usesList []string) []actionref.ActionRef {
	seen := make(map[string]struct{})
	var roots []actionref.ActionRef
	for _, uses := range usesList {
		if actionref.IsLocalOrDocker(uses) {
			continue
		}
		ref, kind, err := actionref.Parse(uses)
		if err != nil || kind != actionref.KindThirdParty {
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: skipping unparsable action reference %q: %v\n", uses, err)
			}
			continue
		}
		key := ref.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		roots = append(roots, ref)
	}
	return roots
}
