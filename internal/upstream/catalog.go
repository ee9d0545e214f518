package upstream

import (
	"context"
	"net/url"

	"github.com/team-pogie-react/page-service/internal/core"
)

// CatalogClient implements core.CatalogService.
type CatalogClient struct {
	*Client
}

// NewCatalogClient creates a catalog client.
func NewCatalogClient(c *Client) *CatalogClient {
	return &CatalogClient{Client: c}
}

// GetCategories returns the navigation tree for domain.
func (c *CatalogClient) GetCategories(ctx context.Context, domain string) ([]core.Category, error) {
	var out []core.Category
	if err := c.Get(ctx, "/categories", url.Values{"domain": {domain}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchProducts runs a product search.
func (c *CatalogClient) SearchProducts(ctx context.Context, params core.SearchParams) (*core.ProductSearchResult, error) {
	var out core.ProductSearchResult
	if err := c.Post(ctx, "/products/search", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProduct returns one product.
func (c *CatalogClient) GetProduct(ctx context.Context, domain, sku string) (*core.Product, error) {
	var out core.Product
	if err := c.Get(ctx, escape("products", sku), url.Values{"domain": {domain}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
