// SPDX-License-Identifier: MIT

// Package providers implements the two advisory-query capability contracts
// (action-level and package-level) and the factory that selects concrete
// providers by name. When one upstream backs both contracts (OSV), the HTTP
// and parsing logic lives in one shared inner client; the two wrappers hold
// a reference to it and are never themselves exposed as that client.
package providers

import (
	"context"
	"fmt"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/githubclient"
)

// ActionProvider queries vulnerability advisories for a whole action
// reference (owner/repo[/path]@ref).
type ActionProvider interface {
	Name() string
	Query(ctx context.Context, ref actionref.ActionRef) ([]advisory.Advisory, error)
}

// PackageProvider queries vulnerability advisories for a language-ecosystem
// package by name and ecosystem string.
type PackageProvider interface {
	Name() string
	Query(ctx context.Context, packageName, ecosystem string) ([]advisory.Advisory, error)
}

// Set is the provider fan-out list the advisory and dependency stages
// iterate over.
type Set struct {
	Action  []ActionProvider
	Package []PackageProvider
}

// New builds a Set from a provider-selection name: "ghsa" selects the GHSA
// action provider only; "osv" selects OSV for both contracts via one shared
// client; "all" selects GHSA plus OSV for actions and OSV for packages.
func New(name string, client *githubclient.Client) (*Set, error) {
	switch name {
	case "ghsa":
		return &Set{Action: []ActionProvider{NewGHSAProvider(client)}}, nil
	case "osv":
		osv := newOSVClient(client)
		return &Set{
			Action:  []ActionProvider{&osvActionProvider{inner: osv}},
			Package: []PackageProvider{&osvPackageProvider{inner: osv}},
		}, nil
	case "all":
		osv := newOSVClient(client)
		return &Set{
			Action: []ActionProvider{
				NewGHSAProvider(client),
				&osvActionProvider{inner: osv},
			},
			Package: []PackageProvider{&osvPackageProvider{inner: osv}},
		}, nil
	default:
		return nil, fmt.Errorf("unrecognized provider set %q, want one of ghsa|osv|all", name)
	}
}
