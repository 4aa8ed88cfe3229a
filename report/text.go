// SPDX-License-Identifier: MIT

// Package report renders a walked audit forest as external-collaborator
// style formatters: plain indented text, or a fixed-shape JSON document.
// Neither renderer mutates the tree it's given.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/walker"
)

const indentWidth = 2

// Text renders roots as an indented hierarchy: one line per node showing
// owner/repo@ref with the resolved SHA in parentheses when present, then
// bulleted advisories by descending severity, a scan one-liner, and
// dependency advisories. Depth is encoded purely by indentation width.
func Text(roots []*walker.AuditNode) string {
	var b strings.Builder
	for _, root := range roots {
		writeNode(&b, root, 0)
	}
	return b.String()
}

func writeNode(b *strings.Builder, node *walker.AuditNode, depth int) {
	pad := strings.Repeat(" ", depth*indentWidth)
	entry := node.Entry

	line := entry.Action.PackageName() + "@" + entry.Action.Version()
	if entry.ResolvedRef != "" {
		line += fmt.Sprintf(" (%s)", entry.ResolvedRef)
	}
	fmt.Fprintf(b, "%s%s\n", pad, line)

	advisories := sortedBySeverity(entry.Advisories)
	for _, a := range advisories {
		fmt.Fprintf(b, "%s  - [%s] %s (%s)\n", pad, a.Severity, a.ID, a.Source)
	}

	if entry.Scan != nil {
		lang := entry.Scan.PrimaryLanguage
		if lang == "" {
			lang = "unknown"
		}
		fmt.Fprintf(b, "%s  scan: language=%s ecosystems=%s\n",
			pad, lang, strings.Join(entry.Scan.DetectedEcosystems, ","))
	}

	for _, dep := range entry.Dependencies {
		for _, a := range sortedBySeverity(dep.Advisories) {
			fmt.Fprintf(b, "%s  dependency %s@%s: [%s] %s (%s)\n",
				pad, dep.Name, dep.Version, a.Severity, a.ID, a.Source)
		}
	}

	for _, e := range entry.Errors {
		fmt.Fprintf(b, "%s  error[%s]: %s\n", pad, e.Stage, e.Message)
	}

	for _, child := range node.Children {
		writeNode(b, child, depth+1)
	}
}

func sortedBySeverity(advisories []advisory.Advisory) []advisory.Advisory {
	out := make([]advisory.Advisory, len(advisories))
	copy(out, advisories)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].ID < out[j].ID
	})
	return out
}
