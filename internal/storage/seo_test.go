package storage

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-pogie-react/page-service/internal/apierr"
	"github.com/team-pogie-react/page-service/internal/core"
)

// createTestSEOStore creates a SQLite store in a temp directory for testing
func createTestSEOStore(t *testing.T) *SEOStore {
	t.Helper()

	store, err := NewSEOStore(filepath.Join(t.TempDir(), "seo.db"))
	require.NoError(t, err, "Failed to create SEOStore")
	t.Cleanup(func() { store.Close() })
	return store
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// =============================================================================
// TestGetMetadata - lookup, fallback, rendering
// =============================================================================

func TestSEOStore_GetMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a domain template When GetMetadata called Then placeholders are filled", func(t *testing.T) {
		store := createTestSEOStore(t)
		require.NoError(t, store.Save(ctx, PageMeta{
			Domain:      "carparts.com",
			PageKey:     "part",
			Title:       "{part} for {make} {model} | CarParts.com",
			Description: "Shop {part}.",
		}))

		got, err := store.GetMetadata(ctx, "part", map[string]string{
			"domain": "www.carparts.com", "part": "Brake Pads", "make": "Toyota", "model": "Camry",
		})

		require.NoError(t, err)
		assert.Equal(t, &core.Metadata{
			Title:       "Brake Pads for Toyota Camry | CarParts.com",
			Description: "Shop Brake Pads.",
		}, got)
	})

	t.Run("Given only a wildcard template When GetMetadata called Then the wildcard is used", func(t *testing.T) {
		store := createTestSEOStore(t)
		require.NoError(t, store.Save(ctx, PageMeta{Domain: AnyDomain, PageKey: "home", Title: "Auto Parts"}))

		got, err := store.GetMetadata(ctx, "home", map[string]string{"domain": "jcwhitney.com"})

		require.NoError(t, err)
		assert.Equal(t, "Auto Parts", got.Title)
	})

	t.Run("Given domain and wildcard templates When GetMetadata called Then the domain wins", func(t *testing.T) {
		store := createTestSEOStore(t)
		require.NoError(t, store.Save(ctx, PageMeta{Domain: AnyDomain, PageKey: "home", Title: "Auto Parts"}))
		require.NoError(t, store.Save(ctx, PageMeta{Domain: "carparts.com", PageKey: "home", Title: "CarParts.com"}))

		got, err := store.GetMetadata(ctx, "home", map[string]string{"domain": "carparts.com"})

		require.NoError(t, err)
		assert.Equal(t, "CarParts.com", got.Title)
	})

	t.Run("Given no template When GetMetadata called Then it fails with 404", func(t *testing.T) {
		store := createTestSEOStore(t)

		_, err := store.GetMetadata(ctx, "cart", map[string]string{"domain": "carparts.com"})

		ae := apierr.From(err)
		assert.Equal(t, http.StatusNotFound, ae.Status)
		assert.Equal(t, apierr.CodeNotFound, ae.Code)
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   string
		params map[string]string
		want   string
	}{
		{"no placeholders", "Auto Parts", nil, "Auto Parts"},
		{"filled", "{make} Parts", map[string]string{"make": "Ford"}, "Ford Parts"},
		{"missing param is dropped", "{year} {make} Parts", map[string]string{"make": "Ford"}, "Ford Parts"},
		{"unbalanced brace kept", "Parts {", nil, "Parts {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.tmpl, tt.params))
		})
	}
}

// =============================================================================
// TestImport - YAML import
// =============================================================================

func TestSEOStore_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a valid file When Import called Then every entry is saved", func(t *testing.T) {
		store := createTestSEOStore(t)
		path := writeFile(t, `
pages:
  - domain: "*"
    page: home
    title: Auto Parts
  - domain: CarParts.com
    page: make
    title: "{make} Parts"
    robots: noindex
`)

		n, err := store.Import(ctx, path)

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		all, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "*", all[0].Domain)
		assert.Equal(t, "carparts.com", all[1].Domain)
		assert.Equal(t, "noindex", all[1].Robots)
	})

	t.Run("Given invalid entries When Import called Then every problem is reported and nothing is saved", func(t *testing.T) {
		store := createTestSEOStore(t)
		path := writeFile(t, `
pages:
  - domain: carparts.com
    page: home
    title: ok
  - page: cart
  - domain: carparts.com
    title: missing page
`)

		_, err := store.Import(ctx, path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "pages[1]: domain is required")
		assert.Contains(t, err.Error(), "pages[1]: title is required")
		assert.Contains(t, err.Error(), "pages[2]: page is required")
		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("Given malformed YAML When Import called Then it fails", func(t *testing.T) {
		store := createTestSEOStore(t)
		_, err := store.Import(ctx, writeFile(t, "pages: [unclosed"))
		require.Error(t, err)
	})
}

func TestSEOStore_Ping(t *testing.T) {
	store, err := NewSEOStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
}
