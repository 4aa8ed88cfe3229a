// SPDX-License-Identifier: MIT

// Package walker performs the recursive, bounded-concurrency BFS crawl over
// a cyclic graph of action references, running the shared pipeline at each
// node and assembling the result into a tree of AuditNodes.
package walker

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/pipeline"
)

// ActionEntry is the presentation-oriented projection of a completed
// AuditContext: every field but Children, which becomes the tree's
// structural children instead of a flat list of references.
type ActionEntry struct {
	Action       actionref.ActionRef
	Depth        int
	Parent       string
	ResolvedRef  string
	Advisories   []advisory.Advisory
	Scan         *pipeline.ScanResult
	Dependencies []pipeline.DependencyReport
	Errors       []pipeline.StageError
}

// AuditNode is one node of the walk tree.
type AuditNode struct {
	Entry    ActionEntry
	Children []*AuditNode
}

// Walker drives the frontier-by-frontier crawl. MaxDepth is optional — nil
// means unbounded. MaxConcurrency bounds simultaneous node-pipeline
// executions within a single frontier.
type Walker struct {
	Pipeline       *pipeline.Pipeline
	MaxDepth       *int
	MaxConcurrency int
}

// frontierItem is one pending (ref, depth, parent) triple awaiting dispatch.
type frontierItem struct {
	ref    actionref.ActionRef
	depth  int
	parent string
}

// nodeResult is what one dispatched task hands back to the single dispatch
// loop: the retired node plus its own freshly-discovered children, not yet
// filtered by the visited set or the depth bound.
type nodeResult struct {
	key      string
	node     *AuditNode
	children []actionref.ActionRef
}

// Walk runs the crawl to completion and returns the forest of root nodes.
// Cycle guarantee: any identity key is expanded at most once. Depth
// guarantee: no node with depth > MaxDepth is ever constructed.
func (w *Walker) Walk(ctx context.Context, roots []actionref.ActionRef) []*AuditNode {
	visited := make(map[string]struct{})
	retired := make(map[string]*AuditNode)
	childKeys := make(map[string][]string)

	frontier := make([]frontierItem, 0, len(roots))
	for _, r := range roots {
		frontier = append(frontier, frontierItem{ref: r, depth: 0})
	}

	var rootKeys []string
	first := true

	for len(frontier) > 0 {
		pending := make([]frontierItem, 0, len(frontier))
		for _, item := range frontier {
			key := item.ref.Key()
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}
			pending = append(pending, item)
		}

		if first {
			for _, item := range pending {
				rootKeys = append(rootKeys, item.ref.Key())
			}
			first = false
		}

		if len(pending) == 0 {
			break
		}

		maxGoroutines := w.MaxConcurrency
		if maxGoroutines <= 0 {
			maxGoroutines = 1
		}
		p := pool.NewWithResults[nodeResult]().WithMaxGoroutines(maxGoroutines)
		for _, item := range pending {
			item := item
			p.Go(func() nodeResult {
				return w.runNode(ctx, item)
			})
		}
		results := p.Wait()

		var next []frontierItem
		for _, res := range results {
			retired[res.key] = res.node
			keys := make([]string, 0, len(res.children))
			for _, child := range res.children {
				keys = append(keys, child.Key())
			}
			childKeys[res.key] = keys

			childDepth := res.node.Entry.Depth + 1
			if w.MaxDepth != nil && childDepth > *w.MaxDepth {
				continue
			}
			for _, child := range res.children {
				next = append(next, frontierItem{ref: child, depth: childDepth, parent: res.key})
			}
		}
		frontier = next
	}

	assembled := make(map[string]*AuditNode, len(retired))
	for key, node := range retired {
		assembled[key] = node
	}
	// A node attaches as a child only under the parent that actually won the
	// visited-set race for it; other nodes may have also declared an edge to
	// the same key (a cycle back to an ancestor, a diamond shared by two
	// parents), but that edge was never recorded as pending, so it must not
	// be re-attached here. Matching against Entry.Parent, not just presence
	// in childKeys, is what keeps the assembled tree acyclic.
	for key, node := range assembled {
		var children []*AuditNode
		for _, ck := range childKeys[key] {
			if child, ok := assembled[ck]; ok && child.Entry.Parent == key {
				children = append(children, child)
			}
		}
		sortSiblings(children)
		node.Children = children
	}

	var roots2 []*AuditNode
	for _, key := range rootKeys {
		if node, ok := assembled[key]; ok {
			roots2 = append(roots2, node)
		}
	}
	sortSiblings(roots2)
	return roots2
}

func sortSiblings(nodes []*AuditNode) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Entry.Action.Key() < nodes[j].Entry.Action.Key()
	})
}

// runNode constructs the context, runs the pipeline, and converts the
// retired context into a node plus its raw, unfiltered children.
func (w *Walker) runNode(ctx context.Context, item frontierItem) nodeResult {
	actx := &pipeline.AuditContext{
		Action: item.ref,
		Depth:  item.depth,
		Parent: item.parent,
	}
	w.Pipeline.Run(ctx, actx)

	entry := ActionEntry{
		Action:       actx.Action,
		Depth:        actx.Depth,
		Parent:       actx.Parent,
		ResolvedRef:  actx.ResolvedRef,
		Advisories:   actx.Advisories,
		Scan:         actx.Scan,
		Dependencies: actx.Dependencies,
		Errors:       actx.Errors,
	}
	return nodeResult{
		key:      item.ref.Key(),
		node:     &AuditNode{Entry: entry},
		children: actx.Children,
	}
}
