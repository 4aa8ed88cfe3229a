// SPDX-License-Identifier: MIT

package cmd_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/esacteksab/gh-actaudit/cmd"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"gh-actaudit": cmd.Main,
	}))
}

// fixtureHandler serves a minimal stand-in for GitHub REST, GraphQL, and
// raw-content endpoints plus the OSV query endpoint, all off one server so
// the scan command never reaches the real network.
func fixtureHandler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	switch {
	case strings.Contains(string(body), `"query"`):
		// GraphQL scan query: report no manifests, no primary language.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"repository":{
			"primaryLanguage":null,
			"packageJSON":{},"cargoToml":{},"goMod":{},"requirementsTxt":{},
			"setupPy":{},"pyprojectToml":{},"pomXml":{},"buildGradle":{},
			"buildGradleKts":{},"gemfile":{},"composerJSON":{},"dockerfile":{}
		}}}`))
	case strings.Contains(r.URL.Path, "v1/query"):
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"vulns":[]}`))
	case strings.Contains(r.URL.Path, "git/refs/tags/"):
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ref": "refs/tags/v4",
			"object": map[string]any{
				"sha":  "1111111111111111111111111111111111111111",
				"type": "commit",
			},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestScripts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(fixtureHandler))
	defer srv.Close()

	testscript.Run(t, testscript.Params{
		Dir:           "testdata",
		UpdateScripts: false,
		Setup: func(env *testscript.Env) error {
			env.Vars = append(env.Vars,
				"GHSS_API_BASE_URL="+srv.URL+"/",
				"GHSS_RAW_BASE_URL="+srv.URL,
				"GHSS_OSV_BASE_URL="+srv.URL,
				"HOME="+env.WorkDir,
			)
			return nil
		},
	})
}
