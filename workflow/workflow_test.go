// SPDX-License-Identifier: MIT

package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esacteksab/gh-actaudit/workflow"
)

func TestParseWorkflowUses_JobAndStepLevel(t *testing.T) {
	doc := []byte(`
name: CI
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: echo hi
      - uses: actions/checkout@v4
      - uses: ./local
      - uses: docker://alpine:3
  call:
    uses: org/repo/.github/workflows/reusable.yml@main
`)
	uses, err := workflow.ParseWorkflowUses(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"actions/checkout@v4",
		"actions/checkout@v4",
		"./local",
		"docker://alpine:3",
		"org/repo/.github/workflows/reusable.yml@main",
	}, uses)
}

func TestParseWorkflowUses_EmptyInput(t *testing.T) {
	uses, err := workflow.ParseWorkflowUses(nil)
	require.NoError(t, err)
	assert.Nil(t, uses)
}

func TestParseWorkflowUses_NoJobs(t *testing.T) {
	uses, err := workflow.ParseWorkflowUses([]byte("name: CI\n"))
	require.NoError(t, err)
	assert.Nil(t, uses)
}

func TestParseWorkflowUses_MalformedJobSkipped(t *testing.T) {
	doc := []byte(`
jobs:
  bad: "not-a-mapping"
  good:
    steps:
      - uses: actions/setup-node@v3
`)
	uses, err := workflow.ParseWorkflowUses(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"actions/setup-node@v3"}, uses)
}

func TestParseWorkflowUses_UnparsableYAML(t *testing.T) {
	_, err := workflow.ParseWorkflowUses([]byte("jobs: [this is not valid: yaml: :::"))
	assert.Error(t, err)
}
