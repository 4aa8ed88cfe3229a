// SPDX-License-Identifier: MIT

package report

import (
	"encoding/json"
	"fmt"

	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/pipeline"
	"github.com/esacteksab/gh-actaudit/walker"
)

// jsonNode is the fixed-field JSON shape of one tree node. Every field is
// always present: absent data is an explicit null or empty collection,
// never an omitted key.
type jsonNode struct {
	Action       string                      `json:"action"`
	ResolvedRef  *string                     `json:"resolved_ref"`
	Advisories   []advisory.Advisory         `json:"advisories"`
	Scan         *pipeline.ScanResult        `json:"scan"`
	Dependencies []pipeline.DependencyReport `json:"dependencies"`
	Errors       []pipeline.StageError       `json:"errors"`
	Children     []*jsonNode                 `json:"children"`
}

// JSON renders roots as an array of trees in the fixed jsonNode shape.
func JSON(roots []*walker.AuditNode) (string, error) {
	nodes := make([]*jsonNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, toJSONNode(root))
	}
	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal json: %w", err)
	}
	return string(data), nil
}

func toJSONNode(node *walker.AuditNode) *jsonNode {
	entry := node.Entry

	var resolvedRef *string
	if entry.ResolvedRef != "" {
		resolvedRef = &entry.ResolvedRef
	}

	advisories := entry.Advisories
	if advisories == nil {
		advisories = []advisory.Advisory{}
	}
	deps := entry.Dependencies
	if deps == nil {
		deps = []pipeline.DependencyReport{}
	}
	errs := entry.Errors
	if errs == nil {
		errs = []pipeline.StageError{}
	}

	children := make([]*jsonNode, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, toJSONNode(child))
	}

	action := entry.Action.PackageName() + "@" + entry.Action.Version()
	return &jsonNode{
		Action:       action,
		ResolvedRef:  resolvedRef,
		Advisories:   advisories,
		Scan:         entry.Scan,
		Dependencies: deps,
		Errors:       errs,
		Children:     children,
	}
}
