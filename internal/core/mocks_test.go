package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Common test errors
var (
	ErrMockUpstream = errors.New("mock upstream error")
)

// callCounter is embedded by every mock collaborator.
type callCounter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *callCounter) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (c *callCounter) Calls(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

// Total returns the number of invocations across all methods.
func (c *callCounter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

// MockMetadata implements MetadataService for testing
type MockMetadata struct {
	callCounter
	Err        error
	LastKey    string
	LastParams map[string]string
}

func (m *MockMetadata) GetMetadata(ctx context.Context, pageKey string, params map[string]string) (*Metadata, error) {
	m.record("GetMetadata")
	m.mu.Lock()
	m.LastKey, m.LastParams = pageKey, params
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return &Metadata{Title: "Title for " + pageKey, Description: "Description for " + pageKey}, nil
}

// MockContent implements WidgetService, BreadcrumbService and ContentService for testing
type MockContent struct {
	callCounter
	WidgetsErr     error
	BreadcrumbsErr error
	ArticlesErr    error
	VideosErr      error
	Crumbs         []Breadcrumb
	PingErr        error
}

func (m *MockContent) GetWidgets(ctx context.Context, pageKey string) ([]Widget, error) {
	m.record("GetWidgets")
	if m.WidgetsErr != nil {
		return nil, m.WidgetsErr
	}
	return []Widget{{ID: pageKey + "-hero", Type: "hero", Position: 1}}, nil
}

func (m *MockContent) GetBreadcrumbs(ctx context.Context, pageKey string, params map[string]string) ([]Breadcrumb, error) {
	m.record("GetBreadcrumbs")
	if m.BreadcrumbsErr != nil {
		return nil, m.BreadcrumbsErr
	}
	if m.Crumbs != nil {
		return m.Crumbs, nil
	}
	return []Breadcrumb{{Name: "Home", URI: "/"}, {Name: pageKey, URI: "/" + pageKey}}, nil
}

func (m *MockContent) GetArticles(ctx context.Context, domain string, limit int) ([]Article, error) {
	m.record("GetArticles")
	if m.ArticlesErr != nil {
		return nil, m.ArticlesErr
	}
	return []Article{{ID: "a1", Title: "How to replace brake pads", URI: "/blog/brake-pads", PublishedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}}, nil
}

func (m *MockContent) GetVideos(ctx context.Context, sku string) ([]Video, error) {
	m.record("GetVideos")
	if m.VideosErr != nil {
		return nil, m.VideosErr
	}
	return []Video{{ID: "v1", Title: "Install " + sku, URL: "https://video.example/v1"}}, nil
}

func (m *MockContent) Ping(ctx context.Context) error {
	m.record("Ping")
	return m.PingErr
}

// MockCatalog implements CatalogService for testing
type MockCatalog struct {
	callCounter
	CategoriesErr error
	SearchErr     error
	ProductErr    error
	SearchFunc    func(ctx context.Context, params SearchParams) (*ProductSearchResult, error)
	Product       *Product
	LastSearch    SearchParams
	PingErr       error
}

func (m *MockCatalog) GetCategories(ctx context.Context, domain string) ([]Category, error) {
	m.record("GetCategories")
	if m.CategoriesErr != nil {
		return nil, m.CategoriesErr
	}
	return []Category{{ID: "c1", Name: "Brakes", URI: "/category/brakes"}}, nil
}

func (m *MockCatalog) SearchProducts(ctx context.Context, params SearchParams) (*ProductSearchResult, error) {
	m.record("SearchProducts")
	m.mu.Lock()
	m.LastSearch = params
	m.mu.Unlock()
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, params)
	}
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return &ProductSearchResult{
		Total: 2,
		Page:  params.Page,
		Products: []Product{
			{SKU: "BP-1", Name: "Brake Pad Set", URI: "/p/bp-1", Price: 49.99, InStock: true},
			{SKU: "BP-2", Name: "Ceramic Brake Pad Set", URI: "/p/bp-2", Price: 69.99},
		},
	}, nil
}

func (m *MockCatalog) GetProduct(ctx context.Context, domain, sku string) (*Product, error) {
	m.record("GetProduct")
	if m.ProductErr != nil {
		return nil, m.ProductErr
	}
	if m.Product != nil {
		return m.Product, nil
	}
	return &Product{SKU: sku, Name: "Brake Pad Set", Brand: "Acme", URI: "/p/" + sku, Price: 49.99, InStock: true}, nil
}

func (m *MockCatalog) Ping(ctx context.Context) error {
	m.record("Ping")
	return m.PingErr
}

// MockVehicles implements VehicleService for testing
type MockVehicles struct {
	callCounter
	Err error
}

func (m *MockVehicles) GetYears(ctx context.Context) ([]int, error) {
	m.record("GetYears")
	if m.Err != nil {
		return nil, m.Err
	}
	return []int{2026, 2025, 2024}, nil
}

func (m *MockVehicles) GetModels(ctx context.Context, makeSlug string) ([]VehicleModel, error) {
	m.record("GetModels")
	if m.Err != nil {
		return nil, m.Err
	}
	return []VehicleModel{{ID: "m1", Name: "Camry", URI: "/" + makeSlug + "/camry"}}, nil
}

// MockOrders implements OrderService for testing
type MockOrders struct {
	callCounter
	OrderErr        error
	ConfirmationErr error
	LastOverrides   map[string]string
}

func (m *MockOrders) GetOrder(ctx context.Context, orderID string, overrides map[string]string) (*OrderView, error) {
	m.record("GetOrder")
	m.mu.Lock()
	m.LastOverrides = overrides
	m.mu.Unlock()
	if m.OrderErr != nil {
		return nil, m.OrderErr
	}
	return &OrderView{OrderID: orderID, Items: []OrderItem{{SKU: "BP-1", Name: "Brake Pad Set", Quantity: 1, Price: 49.99}}, Subtotal: 49.99, Total: 54.99}, nil
}

func (m *MockOrders) GetShippingMethods(ctx context.Context, orderID string) ([]ShippingMethod, error) {
	m.record("GetShippingMethods")
	return []ShippingMethod{{Code: "ground", Name: "Ground", Price: 5, Days: 5}}, nil
}

func (m *MockOrders) GetPaymentToken(ctx context.Context, customerID string) (*PaymentToken, error) {
	m.record("GetPaymentToken")
	return &PaymentToken{Token: "tok-" + customerID, ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (m *MockOrders) GetConfirmation(ctx context.Context, orderID string, overrides map[string]string) (*Confirmation, error) {
	m.record("GetConfirmation")
	if m.ConfirmationErr != nil {
		return nil, m.ConfirmationErr
	}
	return &Confirmation{OrderID: orderID, OrderNumber: "CP-" + orderID, Total: 54.99}, nil
}

func (m *MockOrders) RefineAddress(ctx context.Context, srm string) (*Address, error) {
	m.record("RefineAddress")
	return &Address{Line1: "1 Main St", City: "Carson", State: "CA", PostalCode: "90745", Country: "US"}, nil
}

// MockRatings implements RatingService for testing
type MockRatings struct {
	callCounter
	Err      error
	LastSKUs []string
}

func (m *MockRatings) GetRatings(ctx context.Context, skus []string) ([]Rating, error) {
	m.record("GetRatings")
	m.mu.Lock()
	m.LastSKUs = skus
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]Rating, 0, len(skus))
	for _, s := range skus {
		out = append(out, Rating{SKU: s, Average: 4.5, ReviewCount: 12})
	}
	return out, nil
}

// valueRatings is a RatingService held by value. Its slice field makes it
// non-comparable.
type valueRatings struct {
	skus  []string
	pings *int
}

func (v valueRatings) GetRatings(ctx context.Context, skus []string) ([]Rating, error) {
	return []Rating{}, nil
}

func (v valueRatings) Ping(ctx context.Context) error {
	*v.pings++
	return nil
}

// testDeps bundles every mock so tests can assert on call counts.
type testDeps struct {
	meta     *MockMetadata
	content  *MockContent
	catalog  *MockCatalog
	vehicles *MockVehicles
	orders   *MockOrders
	ratings  *MockRatings
}

func newTestDeps() *testDeps {
	return &testDeps{
		meta:     &MockMetadata{},
		content:  &MockContent{},
		catalog:  &MockCatalog{},
		vehicles: &MockVehicles{},
		orders:   &MockOrders{},
		ratings:  &MockRatings{},
	}
}

func (d *testDeps) totalCalls() int {
	return d.meta.Total() + d.content.Total() + d.catalog.Total() + d.vehicles.Total() + d.orders.Total() + d.ratings.Total()
}

func (d *testDeps) engine() *Engine {
	return NewEngine(EngineDeps{
		Config: Config{
			KnownDomains: []string{"carparts.com", "jcwhitney.com"},
			OverrideKeys: map[string]string{"previewDate": "preview_date"},
		},
		Logger:      logr.Discard(),
		Metadata:    d.meta,
		Widgets:     d.content,
		Breadcrumbs: d.content,
		Content:     d.content,
		Catalog:     d.catalog,
		Vehicles:    d.vehicles,
		Orders:      d.orders,
		Ratings:     d.ratings,
	})
}
