// SPDX-License-Identifier: MIT

package providers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esacteksab/gh-actaudit/actionref"
	"github.com/esacteksab/gh-actaudit/advisory"
	"github.com/esacteksab/gh-actaudit/githubclient"
	"github.com/esacteksab/gh-actaudit/providers"
)

func newTestClient(t *testing.T, osvHandler http.HandlerFunc) (*githubclient.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(osvHandler)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(githubclient.EnvOSVBaseURL, srv.URL)
	client, err := githubclient.New("")
	require.NoError(t, err)
	return client, srv
}

func TestNew_UnrecognizedSet(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	defer srv.Close()

	_, err := providers.New("bogus", client)
	assert.Error(t, err)
}

func TestNew_GHSAOnly_HasNoPackageProvider(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	defer srv.Close()

	set, err := providers.New("ghsa", client)
	require.NoError(t, err)
	assert.Len(t, set.Action, 1)
	assert.Empty(t, set.Package)
}

func TestNew_All_HasGHSAAndOSVAction(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	defer srv.Close()

	set, err := providers.New("all", client)
	require.NoError(t, err)
	assert.Len(t, set.Action, 2)
	assert.Len(t, set.Package, 1)
}

func TestOSVProvider_Query(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		pkg := body["package"].(map[string]any)
		assert.Equal(t, "GitHub Actions", pkg["ecosystem"])

		w.Header().Set("Content-Type", "application/json")
		fmt := `{"vulns":[{"id":"OSV-2024-1","aliases":["GHSA-abcd"],"summary":"bad","database_specific":{"severity":"HIGH"},"affected":[{"ranges":[{"events":[{"fixed":"2.0.0"}]}]}]}]}`
		_, _ = w.Write([]byte(fmt))
	})
	defer srv.Close()

	set, err := providers.New("osv", client)
	require.NoError(t, err)
	require.Len(t, set.Action, 1)

	got, err := set.Action[0].Query(t.Context(), actionref.ActionRef{
		Owner: "tj-actions", Repo: "changed-files", GitRef: "v35",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "OSV-2024-1", got[0].ID)
	assert.Equal(t, advisory.SeverityHigh, got[0].Severity)
	assert.Equal(t, "< 2.0.0", got[0].AffectedRange)
	assert.Contains(t, got[0].Aliases, "GHSA-abcd")
}

func TestOSVProvider_NonOKStatus(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	set, err := providers.New("osv", client)
	require.NoError(t, err)

	_, err = set.Action[0].Query(t.Context(), actionref.ActionRef{Owner: "a", Repo: "b", GitRef: "v1"})
	assert.Error(t, err)
}
