package core

import (
	"time"

	"github.com/team-pogie-react/page-service/internal/reqctx"
)

// Page type constants, as reported in the pageType field.
const (
	PageTypeHome         = "home_page"
	PageTypeCart         = "cart_page"
	PageTypeCheckout     = "checkout_page"
	PageTypeConfirmation = "confirmation_page"
	PageTypeCategory     = "category_page"
	PageTypeMake         = "make_page"
	PageTypePart         = "part_page"
	PageTypeBrand        = "brand_page"
	PageTypeSearch       = "search_page"
	PageTypeProduct      = "product_page"
	PageTypeRedirect     = "page_redirect"
)

// Result slot labels. They double as response field names.
const (
	FieldMeta                 = "meta"
	FieldWidgets              = "widgets"
	FieldNavigationCategories = "navigationCategories"
	FieldYears                = "years"
	FieldArticles             = "articles"
	FieldOrders               = "orders"
	FieldShippingMethods      = "shippingMethods"
	FieldPaymentToken         = "paymentToken"
	FieldRefinedAddress       = "refinedAddress"
	FieldConfirmation         = "confirmation"
	FieldBreadcrumbs          = "breadcrumbs"
	FieldProducts             = "products"
	FieldModels               = "models"
	FieldRatings              = "ratings"
	FieldProduct              = "product"
	FieldVideos               = "videos"

	FieldPageType           = "pageType"
	FieldCanonicalURI       = "canonicalUri"
	FieldSelectedAttributes = "selectedAttributes"
	FieldStructuredData     = "structuredData"
	FieldRedirectURI        = "redirectUri"
	FieldStatusCode         = "statusCode"
)

// Config holds configuration for the page engine
type Config struct {
	// KnownDomains lists the storefront domains requests may target.
	KnownDomains []string

	// OverrideKeys maps a request key to the override name it populates.
	OverrideKeys map[string]string

	// Budget bounds the time spent waiting on upstream calls for one page.
	// 0 disables the request-level budget.
	Budget time.Duration

	// CanonicalScheme is used to build canonical URIs. Defaults to "https".
	CanonicalScheme string

	// ProductsPerPage is the page size for listing searches. Defaults to 24.
	ProductsPerPage int
}

// PageResponse is one composed page. Values are domain data or *aggregate.InlineError.
type PageResponse map[string]any

// Attributes are page attributes resolved before the pipeline runs,
// e.g. the make or part named in the route.
type Attributes map[string]string

// Attribute keys.
const (
	AttrCategory = "category"
	AttrMake     = "make"
	AttrModel    = "model"
	AttrYear     = "year"
	AttrPart     = "part"
	AttrBrand    = "brand"
	AttrSKU      = "sku"
	AttrQuery    = "q"
	AttrPage     = "page"
	AttrSRM      = "srm"
)

// Request is one inbound page request.
type Request struct {
	Source     reqctx.Source
	Attributes Attributes
}

// Metadata is SEO metadata for a page.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords,omitempty"`
	H1          string `json:"h1,omitempty"`
	Robots      string `json:"robots,omitempty"`
}

// Widget is one CMS-managed block.
type Widget struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position int            `json:"position"`
	Content  map[string]any `json:"content,omitempty"`
}

// Breadcrumb is one step of a page's breadcrumb trail.
type Breadcrumb struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Category is a navigation node.
type Category struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	URI      string     `json:"uri"`
	Children []Category `json:"children,omitempty"`
}

// VehicleModel is a model offered for a make.
type VehicleModel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SearchParams filters a product search.
type SearchParams struct {
	Domain   string            `json:"domain"`
	Query    string            `json:"q,omitempty"`
	Filters  map[string]string `json:"filters,omitempty"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// Redirect signals that the requested resource moved.
type Redirect struct {
	Value      string `json:"value"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// Product is a catalog product summary or detail.
type Product struct {
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand,omitempty"`
	URI         string    `json:"uri"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency,omitempty"`
	InStock     bool      `json:"inStock"`
	Redirect    *Redirect `json:"redirect,omitempty"`
}

// ProductSearchResult is one page of catalog search results.
type ProductSearchResult struct {
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	Products []Product          `json:"products"`
	Facets   map[string][]Facet `json:"facets,omitempty"`
	Redirect *Redirect          `json:"redirect,omitempty"`
}

// Facet is a refinement option of a search.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SKUs returns the SKUs of the result's products, in order.
func (r *ProductSearchResult) SKUs() []string {
	if r == nil {
		return nil
	}
	skus := make([]string, 0, len(r.Products))
	for _, p := range r.Products {
		skus = append(skus, p.SKU)
	}
	return skus
}

// Rating summarizes reviews for one SKU.
type Rating struct {
	SKU         string  `json:"sku"`
	Average     float64 `json:"average"`
	ReviewCount int     `json:"reviewCount"`
}

// Article is a blog article teaser.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URI         string    `json:"uri"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Video is a product video.
type Video struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	ThumbURL string `json:"thumbUrl,omitempty"`
}

// OrderView is the cart/order as the storefront renders it.
type OrderView struct {
	OrderID  string      `json:"orderId"`
	Items    []OrderItem `json:"items"`
	Subtotal float64     `json:"subtotal"`
	Total    float64     `json:"total"`
	Currency string      `json:"currency,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ShippingMethod is an available shipping option for an order.
type ShippingMethod struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Days  int     `json:"days,omitempty"`
}

// PaymentToken is a client token for the payment widget.
type PaymentToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Address is a postal address returned by the address refinement service.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Confirmation is the post-checkout order confirmation view.
type Confirmation struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Email       string    `json:"email,omitempty"`
	Total       float64   `json:"total"`
	PlacedAt    time.Time `json:"placedAt"`
}
