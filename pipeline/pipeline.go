// SPDX-License-Identifier: MIT

// Package pipeline defines the per-node enrichment protocol: a mutable
// AuditContext threaded sequentially through an ordered, immutable sequence
// of Stages. A stage failure is captured as a StageError and never aborts
// the remaining stages.
package pipeline

import (
	"context"
	"fmt"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/advisory"
)

// ScanResult is repository-level metadata discovered by the scan stage.
type ScanResult struct {
	PrimaryLanguage    string
	DetectedEcosystems []string
}

// DependencyReport is one package discovered inside an action's repository.
type DependencyReport struct {
	Name       string
	Version    string
	Ecosystem  string
	Advisories []advisory.Advisory
}

// StageError records a non-fatal failure within one stage. It never aborts
// traversal; it is appended to the owning context and surfaces in reports.
type StageError struct {
	Stage   string
	Message string
}

func (e StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// AuditContext is the mutable, per-node state threaded through a Pipeline
// run. It is owned exclusively by the task running that node's pipeline.
type AuditContext struct {
	Action      actionref.ActionRef
	Depth       int
	Parent      string // identity key of the discovering node, empty for roots

	Children     []actionref.ActionRef
	ResolvedRef  string
	Advisories   []advisory.Advisory
	Scan         *ScanResult
	Dependencies []DependencyReport
	Errors       []StageError
}

// AddError appends a StageError without aborting the pipeline.
func (c *AuditContext) AddError(stage, format string, args ...any) {
	c.Errors = append(c.Errors, StageError{Stage: stage, Message: fmt.Sprintf(format, args...)})
}

// Stage is one unit of per-node enrichment work. Cross-stage dependencies
// are expressed by reading fields the context already carries (e.g. the
// dependency stage reads ctx.Scan), never by declared prerequisites.
type Stage interface {
	Name() string
	Run(ctx context.Context, actx *AuditContext) error
}

// Pipeline holds an ordered, immutable sequence of stages shared across all
// nodes processed by one Walker.
type Pipeline struct {
	stages         []Stage
	maxConcurrency int
}

// MaxConcurrency returns the builder-recorded concurrency hint. The
// pipeline itself never reads it, and neither does the Walker, which takes
// its bound from its own MaxConcurrency field.
func (p *Pipeline) MaxConcurrency() int {
	return p.maxConcurrency
}

// Run executes every stage in order against actx. A stage returning an
// error is captured as a StageError and execution continues with the next
// stage; Run itself never returns an error.
func (p *Pipeline) Run(ctx context.Context, actx *AuditContext) {
	for _, stage := range p.stages {
		if err := stage.Run(ctx, actx); err != nil {
			actx.AddError(stage.Name(), "%v", err)
		}
	}
}

// Builder accumulates stages and a max_concurrency hint. It performs no
// ordering validation; responsibility for a sensible stage order lies with
// the assembler.
type Builder struct {
	stages         []Stage
	maxConcurrency int
}

// NewBuilder returns a Builder with the default max_concurrency of 10.
func NewBuilder() *Builder {
	return &Builder{maxConcurrency: 10} //nolint:mnd
}

// Use appends stage to the sequence under construction.
func (b *Builder) Use(stage Stage) *Builder {
	b.stages = append(b.stages, stage)
	return b
}

// WithMaxConcurrency overrides the default max_concurrency hint.
func (b *Builder) WithMaxConcurrency(n int) *Builder {
	b.maxConcurrency = n
	return b
}

// Build finalizes the Pipeline.
func (b *Builder) Build() *Pipeline {
	stages := make([]Stage, len(b.stages))
	copy(stages, b.stages)
	return &Pipeline{stages: stages, maxConcurrency: b.maxConcurrency}
}
