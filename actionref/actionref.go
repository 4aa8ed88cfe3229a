// SPDX-License-Identifier: MIT

// Package actionref parses a workflow "uses:" string into its structural
// identity and classifies the kind of git reference it pins.
package actionref

import (
	"fmt"
	"strings"
)

// RefKind classifies the git_ref of an ActionRef.
type RefKind int

const (
	// RefUnknown is neither a full commit SHA nor a recognizable tag/branch shape.
	RefUnknown RefKind = iota
	// RefSha is a 40-character lowercase hex commit SHA.
	RefSha
	// RefTag is a tag- or branch-like string (alphanumeric, dots, dashes, optional "v" prefix).
	RefTag
)

func (k RefKind) String() string {
	switch k {
	case RefSha:
		return "sha"
	case RefTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Kind identifies the overall class of a "uses:" reference.
type Kind int

const (
	// KindThirdParty is a normal owner/repo[/path]@ref reference.
	KindThirdParty Kind = iota
	// KindLocal is a "./"- or ".\"-prefixed path within the consuming repository.
	KindLocal
	// KindDocker is a "docker://" image reference.
	KindDocker
)

// ActionRef is the structural identity of one third-party action reference.
// It is immutable after Parse.
type ActionRef struct {
	Owner  string
	Repo   string
	Path   string // subdirectory within Repo, empty when the reference targets the repo root
	GitRef string
	Kind   RefKind
}

// PackageName returns "owner/repo" or "owner/repo/path" when Path is non-empty.
func (a ActionRef) PackageName() string {
	if a.Path == "" {
		return a.Owner + "/" + a.Repo
	}
	return a.Owner + "/" + a.Repo + "/" + a.Path
}

// Version returns the raw git_ref (tag, branch, or SHA string).
func (a ActionRef) Version() string {
	return a.GitRef
}

// Key is the identity key used for cycle detection and deduplication:
// "owner/repo@git_ref", with "/path" folded into the left side when non-empty.
func (a ActionRef) Key() string {
	return a.PackageName() + "@" + a.GitRef
}

// IsLocalOrDocker reports whether a raw "uses:" string is excluded from audit
// (local action or Docker action), without requiring a full Parse.
func IsLocalOrDocker(uses string) bool {
	return strings.HasPrefix(uses, "./") || strings.HasPrefix(uses, `.\`) ||
		strings.HasPrefix(uses, "docker://")
}

// Parse classifies and, for third-party references, fully parses a raw
// "uses:" string. Local and Docker references are reported via kind and
// carry no further structure. A missing "@ref" on a third-party reference
// is a parse failure — callers should warn and drop the entry, not treat it
// as fatal.
func Parse(uses string) (ActionRef, Kind, error) {
	switch {
	case strings.HasPrefix(uses, "./") || strings.HasPrefix(uses, `.\`):
		return ActionRef{}, KindLocal, nil
	case strings.HasPrefix(uses, "docker://"):
		return ActionRef{}, KindDocker, nil
	}

	left, ref, ok := strings.Cut(uses, "@")
	if !ok || ref == "" {
		return ActionRef{}, KindThirdParty, fmt.Errorf(
			"action reference %q missing explicit @ref (tag/branch/sha)", uses)
	}

	parts := strings.SplitN(left, "/", 3) //nolint:mnd
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ActionRef{}, KindThirdParty, fmt.Errorf(
			"invalid action reference %q, expected owner/repo[/path]@ref", uses)
	}

	a := ActionRef{
		Owner:  parts[0],
		Repo:   parts[1],
		GitRef: ref,
	}
	if len(parts) == 3 {
		a.Path = parts[2]
	}
	a.Kind = classifyRefKind(ref)
	return a, KindThirdParty, nil
}

// shaLength is the length of a full Git SHA-1 hash.
const shaLength = 40

func classifyRefKind(ref string) RefKind {
	if len(ref) == shaLength && isHexString(ref) {
		return RefSha
	}
	if isPlausibleTag(ref) {
		return RefTag
	}
	return RefUnknown
}

// isHexString reports whether s consists entirely of lowercase hex digits.
func isHexString(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// isPlausibleTag reports whether ref looks like a semver-ish or plain tag or
// branch name: letters, digits, dots, dashes, underscores, and an optional
// leading "v". Anything else (refs/..., wildcards, empty) is Unknown.
func isPlausibleTag(ref string) bool {
	if ref == "" {
		return false
	}
	for _, r := range ref {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == '.' || r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
