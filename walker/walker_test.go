// SPDX-License-Identifier: MIT

package walker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/pipeline"
	"github.com/esacteksab/gh-actaudit/walker"
)

// childGraph expands a node's PackageName into a fixed list of children,
// letting tests assemble arbitrary (possibly cyclic) fixture graphs.
type childGraph struct {
	edges map[string][]actionref.ActionRef
}

func (g *childGraph) Name() string { return "expand" }

func (g *childGraph) Run(_ context.Context, actx *pipeline.AuditContext) error {
	actx.Children = g.edges[actx.Action.Key()]
	return nil
}

func ref(owner, repo, gitRef string) actionref.ActionRef {
	return actionref.ActionRef{Owner: owner, Repo: repo, GitRef: gitRef}
}

func TestWalker_CycleSafety(t *testing.T) {
	graph := &childGraph{edges: map[string][]actionref.ActionRef{
		"a/a@v1": {ref("a", "a", "v1")},
	}}
	p := pipeline.NewBuilder().Use(graph).Build()
	w := &walker.Walker{Pipeline: p, MaxConcurrency: 4}

	roots := w.Walk(context.Background(), []actionref.ActionRef{ref("a", "a", "v1")})
	require.Len(t, roots, 1)
	assert.Empty(t, roots[0].Children)
}

func TestWalker_DepthBound(t *testing.T) {
	graph := &childGraph{edges: map[string][]actionref.ActionRef{
		"org/foo@v1":            {ref("actions", "setup-node", "v3")},
		"actions/setup-node@v3": {ref("org", "leaf", "v1")},
	}}
	p := pipeline.NewBuilder().Use(graph).Build()

	depth1 := 1
	w := &walker.Walker{Pipeline: p, MaxConcurrency: 4, MaxDepth: &depth1}
	roots := w.Walk(context.Background(), []actionref.ActionRef{ref("org", "foo", "v1")})
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, 1, roots[0].Children[0].Entry.Depth)
	assert.Empty(t, roots[0].Children[0].Children)

	depth0 := 0
	wFlat := &walker.Walker{Pipeline: p, MaxConcurrency: 4, MaxDepth: &depth0}
	flatRoots := wFlat.Walk(context.Background(), []actionref.ActionRef{ref("org", "foo", "v1")})
	require.Len(t, flatRoots, 1)
	assert.Equal(t, 0, flatRoots[0].Entry.Depth)
	assert.Empty(t, flatRoots[0].Children)

	wUnbounded := &walker.Walker{Pipeline: p, MaxConcurrency: 4}
	deepRoots := wUnbounded.Walk(context.Background(), []actionref.ActionRef{ref("org", "foo", "v1")})
	require.Len(t, deepRoots, 1)
	require.Len(t, deepRoots[0].Children, 1)
	require.Len(t, deepRoots[0].Children[0].Children, 1)
	assert.Equal(t, 2, deepRoots[0].Children[0].Children[0].Entry.Depth)
}

func TestWalker_RootsAlwaysDepthZero(t *testing.T) {
	graph := &childGraph{}
	p := pipeline.NewBuilder().Use(graph).Build()
	w := &walker.Walker{Pipeline: p, MaxConcurrency: 4}

	roots := w.Walk(context.Background(), []actionref.ActionRef{ref("actions", "checkout", "v4")})
	require.Len(t, roots, 1)
	assert.Equal(t, 0, roots[0].Entry.Depth)
}

type concurrencyStage struct {
	active  int64
	maxSeen int64
	delay   time.Duration
}

func (s *concurrencyStage) Name() string { return "concurrency" }

func (s *concurrencyStage) Run(_ context.Context, _ *pipeline.AuditContext) error {
	cur := atomic.AddInt64(&s.active, 1)
	defer atomic.AddInt64(&s.active, -1)
	for {
		seen := atomic.LoadInt64(&s.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt64(&s.maxSeen, seen, cur) {
			break
		}
	}
	time.Sleep(s.delay)
	return nil
}

func TestWalker_ConcurrencyBound(t *testing.T) {
	stage := &concurrencyStage{delay: 10 * time.Millisecond}
	p := pipeline.NewBuilder().Use(stage).Build()
	w := &walker.Walker{Pipeline: p, MaxConcurrency: 2}

	var roots []actionref.ActionRef
	for i := 0; i < 8; i++ {
		roots = append(roots, ref("org", string(rune('a'+i)), "v1"))
	}
	w.Walk(context.Background(), roots)
	assert.LessOrEqual(t, atomic.LoadInt64(&stage.maxSeen), int64(2))
}

type partialFailAdvisory struct{}

func (partialFailAdvisory) Name() string { return "advisory" }

func (partialFailAdvisory) Run(_ context.Context, actx *pipeline.AuditContext) error {
	actx.Advisories = []advisory.Advisory{{ID: "OSV-1", Severity: advisory.SeverityLow, Source: "OSV"}}
	actx.AddError("advisory", "provider %s: %v", "GHSA", "500")
	return nil
}

func TestWalker_PartialFailurePreservation(t *testing.T) {
	p := pipeline.NewBuilder().Use(partialFailAdvisory{}).Build()
	w := &walker.Walker{Pipeline: p, MaxConcurrency: 4}

	roots := w.Walk(context.Background(), []actionref.ActionRef{ref("actions", "checkout", "v4")})
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Entry.Advisories, 1)
	require.Len(t, roots[0].Entry.Errors, 1)
	assert.Contains(t, roots[0].Entry.Errors[0].Message, "GHSA")
}
