package core

import (
	"context"
)

// MetadataService provides SEO metadata.
// Implementations: storage.SEOStore (SQLite templates)
type MetadataService interface {
	GetMetadata(ctx context.Context, pageKey string, params map[string]string) (*Metadata, error)
}

// WidgetService provides CMS widget configuration per page.
// Implementations: upstream.ContentClient
type WidgetService interface {
	GetWidgets(ctx context.Context, pageKey string) ([]Widget, error)
}

// BreadcrumbService provides breadcrumb trails.
// Implementations: upstream.ContentClient
type BreadcrumbService interface {
	GetBreadcrumbs(ctx context.Context, pageKey string, params map[string]string) ([]Breadcrumb, error)
}

// ContentService provides blog and video content.
// Implementations: upstream.ContentClient
type ContentService interface {
	GetArticles(ctx context.Context, domain string, limit int) ([]Article, error)
	GetVideos(ctx context.Context, sku string) ([]Video, error)
}

// CatalogService provides navigation and product data.
// Implementations: upstream.CatalogClient, cache.Catalog
type CatalogService interface {
	GetCategories(ctx context.Context, domain string) ([]Category, error)
	SearchProducts(ctx context.Context, params SearchParams) (*ProductSearchResult, error)
	GetProduct(ctx context.Context, domain, sku string) (*Product, error)
}

// VehicleService provides year/make/model data.
// Implementations: upstream.VehicleClient, cache.Vehicles
type VehicleService interface {
	GetYears(ctx context.Context) ([]int, error)
	GetModels(ctx context.Context, makeSlug string) ([]VehicleModel, error)
}

// OrderService provides cart, checkout and confirmation views.
// Implementations: upstream.OrderClient
type OrderService interface {
	GetOrder(ctx context.Context, orderID string, overrides map[string]string) (*OrderView, error)
	GetShippingMethods(ctx context.Context, orderID string) ([]ShippingMethod, error)
	GetPaymentToken(ctx context.Context, customerID string) (*PaymentToken, error)
	GetConfirmation(ctx context.Context, orderID string, overrides map[string]string) (*Confirmation, error)
	RefineAddress(ctx context.Context, srm string) (*Address, error)
}

// RatingService provides review summaries.
// Implementations: upstream.RatingClient
type RatingService interface {
	GetRatings(ctx context.Context, skus []string) ([]Rating, error)
}

// Pinger is implemented by collaborators that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
