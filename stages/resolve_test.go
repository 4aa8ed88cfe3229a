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

func newAPITestClient(t *testing.T, handler http.HandlerFunc) *githubclient.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(githubclient.EnvAPIBaseURL, srv.URL)
	client, err := githubclient.New("")
	require.NoError(t, err)
	return client
}

func TestResolveStage_ShaFastPath_NoNetworkCall(t *testing.T) {
	called := false
	client := newAPITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusInternalServerError)
	})

	sha := "f906f84a1fcb07506d67f6a3ae75432e6c1af8a2"
	actx := &pipeline.AuditContext{
		Action: actionref.ActionRef{Owner: "tj-actions", Repo: "changed-files", GitRef: sha, Kind: actionref.RefSha},
	}

	stage := &stages.ResolveStage{Client: client}
	err := stage.Run(context.Background(), actx)
	require.NoError(t, err)
	assert.Equal(t, sha, actx.ResolvedRef)
	assert.False(t, called, "sha fast-path must not make a network call")
}
