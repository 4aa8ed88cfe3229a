// SPDX-License-Identifier: MIT

package stages

import (
	"context"
	"fmt"
	"sort"

	"github.com/shurcooL/githubv4"

	"github.com/esacteksab/gh-actaudit/githubclient"
	"github.com/esacteksab/gh-actaudit/pipeline"
)

// manifestFile pairs a canonical manifest path with the ecosystem its
// presence implies.
type manifestFile struct {
	path      string
	ecosystem string
}

// manifestFiles is the fixed set of canonical manifest filenames probed at
// the repository root.
var manifestFiles = []manifestFile{
	{"package.json", "Npm"},
	{"Cargo.toml", "Cargo"},
	{"go.mod", "Go"},
	{"requirements.txt", "Pip"},
	{"setup.py", "Pip"},
	{"pyproject.toml", "Pip"},
	{"pom.xml", "Maven"},
	{"build.gradle", "Gradle"},
	{"build.gradle.kts", "Gradle"},
	{"Gemfile", "RubyGems"},
	{"composer.json", "Composer"},
	{"Dockerfile", "Docker"},
}

// blobObject matches the "... on Blob { byteSize }" fragment of a Git
// object(expression:) lookup — ByteSize is non-zero only when the
// expression resolved to a non-empty blob.
type blobObject struct {
	Blob struct {
		ByteSize githubv4.Int
	} `graphql:"... on Blob"`
}

// scanQuery requests the repository's primary language plus one aliased
// object(expression: "<ref>:<path>") lookup per candidate manifest file, in
// a single round trip — the standard githubv4 idiom for "does this path
// exist at this ref".
type scanQuery struct {
	Repository struct {
		PrimaryLanguage struct {
			Name githubv4.String
		}
		PackageJSON      blobObject `graphql:"packageJSON: object(expression: $packageJSONExpr)"`
		CargoToml        blobObject `graphql:"cargoToml: object(expression: $cargoTomlExpr)"`
		GoMod            blobObject `graphql:"goMod: object(expression: $goModExpr)"`
		RequirementsTxt  blobObject `graphql:"requirementsTxt: object(expression: $requirementsTxtExpr)"`
		SetupPy          blobObject `graphql:"setupPy: object(expression: $setupPyExpr)"`
		PyprojectToml    blobObject `graphql:"pyprojectToml: object(expression: $pyprojectTomlExpr)"`
		PomXML           blobObject `graphql:"pomXml: object(expression: $pomXmlExpr)"`
		BuildGradle      blobObject `graphql:"buildGradle: object(expression: $buildGradleExpr)"`
		BuildGradleKts   blobObject `graphql:"buildGradleKts: object(expression: $buildGradleKtsExpr)"`
		Gemfile          blobObject `graphql:"gemfile: object(expression: $gemfileExpr)"`
		ComposerJSON     blobObject `graphql:"composerJSON: object(expression: $composerJSONExpr)"`
		Dockerfile       blobObject `graphql:"dockerfile: object(expression: $dockerfileExpr)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// presentManifests returns, in manifestFiles order, which candidates
// resolved to a blob with a non-zero byteSize; an empty manifest file is
// counted as absent.
func (q *scanQuery) presentManifests() []manifestFile {
	present := []blobObject{
		q.Repository.PackageJSON, q.Repository.CargoToml, q.Repository.GoMod,
		q.Repository.RequirementsTxt, q.Repository.SetupPy, q.Repository.PyprojectToml,
		q.Repository.PomXML, q.Repository.BuildGradle, q.Repository.BuildGradleKts,
		q.Repository.Gemfile, q.Repository.ComposerJSON, q.Repository.Dockerfile,
	}
	var out []manifestFile
	for i, blob := range present {
		if blob.Blob.ByteSize > 0 {
			out = append(out, manifestFiles[i])
		}
	}
	return out
}

// ScanStage fetches repository-level metadata (primary language, detected
// package ecosystems) via a single GraphQL query per node.
type ScanStage struct {
	Client *githubclient.Client
}

// Name implements pipeline.Stage.
func (s *ScanStage) Name() string { return "scan" }

// Run implements pipeline.Stage.
func (s *ScanStage) Run(ctx context.Context, actx *pipeline.AuditContext) error {
	ref := refForContentFetch(actx)
	expr := func(path string) githubv4.String {
		return githubv4.String(fmt.Sprintf("%s:%s", ref, path))
	}

	vars := map[string]any{
		"owner":                githubv4.String(actx.Action.Owner),
		"name":                 githubv4.String(actx.Action.Repo),
		"packageJSONExpr":      expr("package.json"),
		"cargoTomlExpr":        expr("Cargo.toml"),
		"goModExpr":            expr("go.mod"),
		"requirementsTxtExpr":  expr("requirements.txt"),
		"setupPyExpr":          expr("setup.py"),
		"pyprojectTomlExpr":    expr("pyproject.toml"),
		"pomXmlExpr":           expr("pom.xml"),
		"buildGradleExpr":      expr("build.gradle"),
		"buildGradleKtsExpr":   expr("build.gradle.kts"),
		"gemfileExpr":          expr("Gemfile"),
		"composerJSONExpr":     expr("composer.json"),
		"dockerfileExpr":       expr("Dockerfile"),
	}

	var query scanQuery
	if err := s.Client.GraphQL.Query(ctx, &query, vars); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	ecosystems := make(map[string]struct{})
	for _, m := range query.presentManifests() {
		ecosystems[m.ecosystem] = struct{}{}
	}
	detected := make([]string, 0, len(ecosystems))
	for eco := range ecosystems {
		detected = append(detected, eco)
	}
	sort.Strings(detected)

	actx.Scan = &pipeline.ScanResult{
		PrimaryLanguage:    string(query.Repository.PrimaryLanguage.Name),
		DetectedEcosystems: detected,
	}
	return nil
}
