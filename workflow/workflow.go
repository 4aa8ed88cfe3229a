// SPDX-License-Identifier: MIT

// Package workflow parses a workflow YAML document down to the flat,
// ordered list of "uses:" strings it contains, consumed by the audit
// engine as its entry point into the action reference graph.
package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/esacteksab/gh-actaudit/utils"
)

// ParseWorkflowUses returns every "uses:" string found in data, in document
// order, including duplicates — both job-level (reusable workflow calls)
// and step-level (action calls). A job whose body isn't a mapping, or whose
// "steps" isn't a sequence, is warned about on stderr and skipped; the call
// still succeeds unless the top-level document itself is unparsable.
func ParseWorkflowUses(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse workflow YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	jobsNode := mappingValue(doc, "jobs")
	if jobsNode == nil || jobsNode.Kind != yaml.MappingNode {
		return nil, nil
	}

	var uses []string
	for i := 0; i+1 < len(jobsNode.Content); i += 2 {
		jobKey := jobsNode.Content[i]
		jobVal := jobsNode.Content[i+1]

		if jobVal.Kind != yaml.MappingNode {
			warnf("job %q is not a mapping, skipping", jobKey.Value)
			continue
		}

		if u := mappingValue(jobVal, "uses"); u != nil && u.Kind == yaml.ScalarNode {
			uses = append(uses, u.Value)
		}

		uses = append(uses, stepUses(jobKey.Value, jobVal)...)
	}

	return uses, nil
}

func stepUses(jobName string, jobVal *yaml.Node) []string {
	stepsNode := mappingValue(jobVal, "steps")
	if stepsNode == nil {
		return nil
	}
	if stepsNode.Kind != yaml.SequenceNode {
		warnf("job %q steps is not a sequence, skipping", jobName)
		return nil
	}

	var uses []string
	for _, stepNode := range stepsNode.Content {
		if stepNode.Kind != yaml.MappingNode {
			continue
		}
		if u := mappingValue(stepNode, "uses"); u != nil && u.Kind == yaml.ScalarNode {
			uses = append(uses, u.Value)
		}
	}
	return uses
}

// mappingValue returns the value node for key within a mapping node, or nil
// if node isn't a mapping or key isn't present.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func warnf(format string, args ...any) {
	if utils.Logger != nil {
		utils.Logger.Warnf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
