// SPDX-License-Identifier: MIT

package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedup_Idempotent(t *testing.T) {
	a := Advisory{ID: "GHSA-1", Severity: SeverityHigh, Source: "GHSA"}

	once := Dedup([]Advisory{a})
	twice := Dedup(Dedup([]Advisory{a}))
	assert.Equal(t, once, twice)

	dup := Dedup([]Advisory{a, a})
	assert.Len(t, dup, 1)
}

func TestDedup_CrossSourceAliasMatch(t *testing.T) {
	ghsa := Advisory{
		ID: "GHSA-abcd", Aliases: []string{"CVE-2024-1234"},
		Severity: SeverityHigh, Source: "GHSA", Summary: "ghsa summary",
	}
	osv := Advisory{
		ID: "CVE-2024-1234", Aliases: []string{"GHSA-abcd"},
		Severity: SeverityCritical, Source: "OSV",
	}

	merged := Dedup([]Advisory{ghsa, osv})
	assert.Len(t, merged, 1)
	got := merged[0]
	assert.Equal(t, "GHSA-abcd", got.ID) // GHSA outranks OSV as primary id source
	assert.Equal(t, SeverityCritical, got.Severity) // max across component
	assert.Equal(t, "ghsa summary", got.Summary)
	assert.Contains(t, got.Source, "GHSA")
	assert.Contains(t, got.Source, "OSV")
	assert.Contains(t, got.Aliases, "CVE-2024-1234")
}

func TestDedup_SeverityOrdering(t *testing.T) {
	advisories := []Advisory{
		{ID: "GHSA-low", Severity: SeverityLow, Source: "GHSA"},
		{ID: "GHSA-crit", Severity: SeverityCritical, Source: "GHSA"},
		{ID: "GHSA-mod", Severity: SeverityModerate, Source: "GHSA"},
	}
	merged := Dedup(advisories)
	require := assert.New(t)
	require.Len(merged, 3)
	for i := 1; i < len(merged); i++ {
		require.GreaterOrEqual(merged[i-1].Severity, merged[i].Severity)
	}
}

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, NormalizeSeverity("CRITICAL"))
	assert.Equal(t, SeverityModerate, NormalizeSeverity("medium"))
	assert.Equal(t, SeverityUnknown, NormalizeSeverity("bogus"))
}

func TestDedup_Empty(t *testing.T) {
	assert.Nil(t, Dedup(nil))
	assert.Nil(t, Dedup([]Advisory{}))
}
