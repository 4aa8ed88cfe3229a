// SPDX-License-Identifier: MIT

package stages_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/githubclient"
	"github.com/esacteksab/gh-actaudit/pipeline"
	"github.com/esacteksab/gh-actaudit/stages"
)

func newGraphQLClient(t *testing.T, responseBody string) *githubclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(githubclient.EnvAPIBaseURL, srv.URL+"/")
	client, err := githubclient.New("")
	require.NoError(t, err)
	return client
}

func TestScanStage_DetectsEcosystemsAndLanguage(t *testing.T) {
	body := `{"data":{"repository":{
		"primaryLanguage":{"name":"JavaScript"},
		"packageJSON":{"byteSize":42},
		"cargoToml":{},
		"goMod":{},
		"requirementsTxt":{},
		"setupPy":{},
		"pyprojectToml":{},
		"pomXml":{},
		"buildGradle":{},
		"buildGradleKts":{},
		"gemfile":{},
		"composerJSON":{},
		"dockerfile":{"byteSize":7}
	}}}`
	client := newGraphQLClient(t, body)
	stage := &stages.ScanStage{Client: client}
	actx := &pipeline.AuditContext{Action: actionref.ActionRef{Owner: "actions", Repo: "checkout", GitRef: "v4"}}

	require.NoError(t, stage.Run(context.Background(), actx))
	require.NotNil(t, actx.Scan)
	assert.Equal(t, "JavaScript", actx.Scan.PrimaryLanguage)
	assert.Equal(t, []string{"Docker", "Npm"}, actx.Scan.DetectedEcosystems)
}

func TestScanStage_NoManifestsDetected(t *testing.T) {
	body := `{"data":{"repository":{
		"primaryLanguage":{"name":"Go"},
		"packageJSON":{},
		"cargoToml":{},
		"goMod":{},
		"requirementsTxt":{},
		"setupPy":{},
		"pyprojectToml":{},
		"pomXml":{},
		"buildGradle":{},
		"buildGradleKts":{},
		"gemfile":{},
		"composerJSON":{},
		"dockerfile":{}
	}}}`
	client := newGraphQLClient(t, body)
	stage := &stages.ScanStage{Client: client}
	actx := &pipeline.AuditContext{Action: actionref.ActionRef{Owner: "org", Repo: "repo", GitRef: "main"}}

	require.NoError(t, stage.Run(context.Background(), actx))
	require.NotNil(t, actx.Scan)
	assert.Empty(t, actx.Scan.DetectedEcosystems)
}
