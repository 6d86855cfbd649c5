package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
)

func loadShopSpec(t *testing.T) *Spec {
	t.Helper()
	spec, err := LoadSpec(context.Background(), http.DefaultClient, filepath.Join("testdata", "shop-openapi.yaml"))
	require.NoError(t, err)
	return spec
}

func TestSpec_Operations(t *testing.T) {
	ops := loadShopSpec(t).Operations()

	require.Len(t, ops, 8)
	assert.Equal(t, Operation{Method: "GET", Path: "/api/brandsList", Summary: "All brands list"}, ops[0])

	var paths []string
	for _, op := range ops {
		paths = append(paths, op.Method+" "+op.Path)
	}
	assert.Contains(t, paths, "PUT /api/updateAccount")
	assert.Contains(t, paths, "DELETE /api/deleteAccount")
}

func TestSpec_Describes(t *testing.T) {
	spec := loadShopSpec(t)

	assert.True(t, spec.Describes("GET", "/api/productsList"))
	assert.True(t, spec.Describes("post", "/api/verifyLogin"))
	assert.False(t, spec.Describes("DELETE", "/api/verifyLogin"))
	assert.False(t, spec.Describes("PUT", "/api/updateAccount/johndoe@example.com"))
	assert.False(t, spec.Describes("GET", "/productsList"), "server path is part of the operation path")
}

func TestTemplateMatches(t *testing.T) {
	assert.True(t, templateMatches("/api/updateAccount/{email}", "/api/updateAccount/a@b.com"))
	assert.False(t, templateMatches("/api/updateAccount/{email}", "/api/updateAccount"))
	assert.False(t, templateMatches("/api/a/{x}", "/api/b/1"))
}

func TestLint_Builtin(t *testing.T) {
	gaps, err := Lint(Builtin(SiteURL), loadShopSpec(t))
	require.NoError(t, err)

	var names []string
	for _, g := range gaps {
		names = append(names, g.Case)
	}
	assert.Equal(t, []string{
		"post to all products list",
		"put to all brands list",
		"delete to verify login",
		"update user account",
	}, names)
	assert.Equal(t, "update user account: PUT /api/updateAccount/johndoe@example.com is not documented", gaps[3].String())
}

func TestLint_ScenarioSteps(t *testing.T) {
	cat := Catalog{
		BaseURL: "https://automationexercise.com/api",
		Scenarios: []harness.Scenario{{Name: "cart", Steps: []harness.TestCase{
			{Name: "add", Method: "POST", Path: "/addToCart"},
		}}},
	}

	gaps, err := Lint(cat, loadShopSpec(t))
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, "cart/add", gaps[0].Case)
}

func TestLoadSpec_Sources(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "shop-openapi.yaml"))
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer server.Close()

	t.Run("http", func(t *testing.T) {
		spec, err := LoadSpec(context.Background(), http.DefaultClient, server.URL+"/openapi.yaml")
		require.NoError(t, err)
		assert.Len(t, spec.Operations(), 8)
	})

	t.Run("http not found", func(t *testing.T) {
		_, err := LoadSpec(context.Background(), http.DefaultClient, server.URL+"/missing.yaml")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
	})

	t.Run("file uri", func(t *testing.T) {
		abs, err := filepath.Abs(filepath.Join("testdata", "shop-openapi.yaml"))
		require.NoError(t, err)
		spec, err := LoadSpec(context.Background(), http.DefaultClient, "file://"+abs)
		require.NoError(t, err)
		assert.Len(t, spec.Operations(), 8)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSpec(context.Background(), http.DefaultClient, "does-not-exist.yaml")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("not openapi", func(t *testing.T) {
		_, err := ParseSpec([]byte("just: yaml\n"))
		assert.Error(t, err)
	})
}
