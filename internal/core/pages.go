package core

import (
	"context"
	"net/http"

	"github.com/team-pogie-react/page-service/internal/aggregate"
	"github.com/team-pogie-react/page-service/internal/apierr"
)

const homeArticleLimit = 4

func (e *Engine) builtinPages() []Page {
	return []Page{
		e.homePage(),
		e.cartPage(),
		e.checkoutPage(),
		e.confirmationPage(),
		e.categoryPage(),
		e.makePage(),
		e.partPage(),
		e.brandPage(),
		e.searchPage(),
		e.productPage(),
	}
}

// Shared call builders

func (e *Engine) metaCall(in PageInput, pageKey string, params map[string]string) aggregate.Call {
	p := map[string]string{"domain": in.Context.Domain}
	for k, v := range params {
		p[k] = v
	}
	return aggregate.Call{Label: FieldMeta, Op: aggregate.Op(func(ctx context.Context) (*Metadata, error) {
		return e.meta.GetMetadata(ctx, pageKey, p)
	})}
}

func (e *Engine) widgetsCall(pageKey string) aggregate.Call {
	return aggregate.Call{Label: FieldWidgets, Op: aggregate.Op(func(ctx context.Context) ([]Widget, error) {
		return e.widgets.GetWidgets(ctx, pageKey)
	})}
}

func (e *Engine) navigationCall(in PageInput) aggregate.Call {
	return aggregate.Call{Label: FieldNavigationCategories, Op: aggregate.Op(func(ctx context.Context) ([]Category, error) {
		return e.catalog.GetCategories(ctx, in.Context.Domain)
	})}
}

func (e *Engine) yearsCall() aggregate.Call {
	return aggregate.Call{Label: FieldYears, Op: aggregate.Op(func(ctx context.Context) ([]int, error) {
		return e.vehicles.GetYears(ctx)
	})}
}

func (e *Engine) breadcrumbsCall(pageKey string, params map[string]string) aggregate.Call {
	return aggregate.Call{Label: FieldBreadcrumbs, Op: aggregate.Op(func(ctx context.Context) ([]Breadcrumb, error) {
		return e.crumbs.GetBreadcrumbs(ctx, pageKey, params)
	})}
}

// searchOp is memoized so that the products slot and a chained ratings slot
// share one catalog search.
func (e *Engine) searchOp(in PageInput, query string, filters map[string]string) aggregate.Operation {
	params := SearchParams{
		Domain:   in.Context.Domain,
		Query:    query,
		Filters:  filters,
		Page:     in.PageNumber(),
		PageSize: e.config.ProductsPerPage,
	}
	return aggregate.Memo(aggregate.Op(func(ctx context.Context) (*ProductSearchResult, error) {
		return e.catalog.SearchProducts(ctx, params)
	}))
}

// chainedRatingsCall looks up ratings for the products a search returned.
func (e *Engine) chainedRatingsCall(search aggregate.Operation) aggregate.Call {
	return aggregate.Call{Label: FieldRatings, Op: aggregate.Then(search, func(ctx context.Context, r *ProductSearchResult) (any, error) {
		skus := r.SKUs()
		if len(skus) == 0 {
			return []Rating{}, nil
		}
		return e.ratings.GetRatings(ctx, skus)
	})}
}

func requireParam(in PageInput, key string) error {
	if in.Param(key) == "" {
		return apierr.BadRequest(apierr.CodeInvalidRequest, "%s is required", key)
	}
	return nil
}

func requireOrder(in PageInput) error {
	if in.Context.OrderID == "" {
		return apierr.BadRequest(apierr.CodeInvalidRequest, "orderId is required")
	}
	return nil
}

// listingCompose is shared by the category, make, part, brand and search pages.
func (e *Engine) listingCompose(pageType, path string, fields ...string) func(PageInput, aggregate.Results) (PageResponse, error) {
	return func(in PageInput, res aggregate.Results) (PageResponse, error) {
		if r, ok := searchRedirect(res); ok {
			return redirectResponse(r.Value, http.StatusMovedPermanently), nil
		}

		resp := newResponse(pageType, res, fields...)
		resp[FieldSelectedAttributes] = in.SelectedAttributes()
		if path != "" {
			resp[FieldCanonicalURI] = CanonicalURI(e.config.CanonicalScheme, in.Context.Domain, path)
		}
		if crumbs, ok := aggregate.Value[[]Breadcrumb](res, FieldBreadcrumbs); ok && len(crumbs) > 0 {
			resp[FieldStructuredData] = []map[string]any{
				BreadcrumbSchema(e.config.CanonicalScheme, in.Context.Domain, crumbs),
			}
		}
		return resp, nil
	}
}

func (e *Engine) homePage() Page {
	return Page{
		Name: "home",
		Type: PageTypeHome,
		Calls: func(in PageInput) []aggregate.Call {
			return []aggregate.Call{
				e.metaCall(in, "home", nil),
				e.widgetsCall("home"),
				e.navigationCall(in),
				e.yearsCall(),
				{Label: FieldArticles, Op: aggregate.Op(func(ctx context.Context) ([]Article, error) {
					return e.content.GetArticles(ctx, in.Context.Domain, homeArticleLimit)
				})},
			}
		},
		Compose: func(in PageInput, res aggregate.Results) (PageResponse, error) {
			resp := newResponse(PageTypeHome, res, FieldMeta, FieldWidgets, FieldNavigationCategories, FieldYears, FieldArticles)
			resp[FieldCanonicalURI] = CanonicalURI(e.config.CanonicalScheme, in.Context.Domain, "/")
			return resp, nil
		},
	}
}

func (e *Engine) cartPage() Page {
	return Page{
		Name: "cart",
		Type: PageTypeCart,
		Calls: func(in PageInput) []aggregate.Call {
			orders := aggregate.Resolved(FieldOrders, (*OrderView)(nil))
			if in.Context.OrderID != "" {
				orders = aggregate.Call{Label: FieldOrders, Op: aggregate.Op(func(ctx context.Context) (*OrderView, error) {
					return e.orders.GetOrder(ctx, in.Context.OrderID, in.Context.Overrides())
				})}
			}
			return []aggregate.Call{
				e.metaCall(in, "cart", nil),
				e.widgetsCall("cart"),
				e.navigationCall(in),
				orders,
				e.yearsCall(),
			}
		},
		Compose: func(in PageInput, res aggregate.Results) (PageResponse, error) {
			return newResponse(PageTypeCart, res, FieldMeta, FieldWidgets, FieldNavigationCategories, FieldOrders, FieldYears), nil
		},
	}
}

func (e *Engine) checkoutPage() Page {
	return Page{
		Name:     "checkout",
		Type:     PageTypeCheckout,
		Validate: requireOrder,
		Calls: func(in PageInput) []aggregate.Call {
			rc := in.Context

			token := aggregate.Resolved(FieldPaymentToken, (*PaymentToken)(nil))
			if rc.CustomerID != "" {
				token = aggregate.Call{Label: FieldPaymentToken, Op: aggregate.Op(func(ctx context.Context) (*PaymentToken, error) {
					return e.orders.GetPaymentToken(ctx, rc.CustomerID)
				})}
			}

			address := aggregate.Resolved(FieldRefinedAddress, (*Address)(nil))
			if srm := in.Param(AttrSRM); srm != "" {
				address = aggregate.Call{Label: FieldRefinedAddress, Op: aggregate.Op(func(ctx context.Context) (*Address, error) {
					return e.orders.RefineAddress(ctx, srm)
				})}
			}

			return []aggregate.Call{
				e.metaCall(in, "checkout", nil),
				e.widgetsCall("checkout"),
				{Label: FieldOrders, Op: aggregate.Op(func(ctx context.Context) (*OrderView, error) {
					return e.orders.GetOrder(ctx, rc.OrderID, rc.Overrides())
				})},
				{Label: FieldShippingMethods, Op: aggregate.Op(func(ctx context.Context) ([]ShippingMethod, error) {
					return e.orders.GetShippingMethods(ctx, rc.OrderID)
				})},
				token,
				address,
			}
		},
		Compose: func(in PageInput, res aggregate.Results) (PageResponse, error) {
			return newResponse(PageTypeCheckout, res,
				FieldMeta, FieldWidgets, FieldOrders, FieldShippingMethods, FieldPaymentToken, FieldRefinedAddress), nil
		},
	}
}

func (e *Engine) confirmationPage() Page {
	return Page{
		Name:     "confirmation",
		Type:     PageTypeConfirmation,
		Validate: requireOrder,
		Calls: func(in PageInput) []aggregate.Call {
			rc := in.Context
			return []aggregate.Call{
				e.metaCall(in, "confirmation", nil),
				e.widgetsCall("confirmation"),
				{
					Label: FieldConfirmation,
					Op: aggregate.Op(func(ctx context.Context) (*Confirmation, error) {
						return e.orders.GetConfirmation(ctx, rc.OrderID, rc.Overrides())
					}),
					Critical: true,
				},
			}
		},
		Compose: func(in PageInput, res aggregate.Results) (PageResponse, error) {
			if c, ok := aggregate.Value[*Confirmation](res, FieldConfirmation); !ok || c == nil {
				return nil, apierr.NotFound("order %s has no confirmation", in.Context.OrderID)
			}
			return newResponse(PageTypeConfirmation, res, FieldMeta, FieldWidgets, FieldConfirmation), nil
		},
	}
}

func (e *Engine) categoryPage() Page {
	return Page{
		Name:     "category",
		Type:     PageTypeCategory,
		Validate: func(in PageInput) error { return requireParam(in, AttrCategory) },
		Calls: func(in PageInput) []aggregate.Call {
			category := in.Param(AttrCategory)
			params := map[string]string{AttrCategory: category}
			filters := in.vehicleFilters()
			filters[AttrCategory] = category
			return []aggregate.Call{
				e.metaCall(in, "category", params),
				e.widgetsCall("category"),
				e.navigationCall(in),
				e.breadcrumbsCall("category", params),
				{Label: FieldProducts, Op: e.searchOp(in, "", filters)},
				e.yearsCall(),
			}
		},
		Compose: func(in PageInput, res aggregate.Results) (PageResponse, error) {
			path := slugPath("category", in.Param(AttrCategory))
			return e.listingCompose(PageTypeCategory, path,
				FieldMeta, FieldWidgets, FieldNavigationCategories, FieldBreadcrumbs, FieldProducts, FieldYears)(in, res)
		},
	}
}

func (e *Engine) makePage() Page {
	return Page{
		Name:     "make",
		Type:     PageTypeMake,
		Validate: func(in PageInput) error { return requireParam(in, AttrMake) },
		Calls: func(in PageInput) []aggregate.Call {
			mk := in.Param(AttrMake)
			params := map[string]string{AttrMake: mk}
			return []aggregate.Call{
				e.metaCall(in, "make", params),
				e.widgetsCall("make"),
				e.navigationCall(in),
				e.breadcrumbsCall("make", params),
				{Label: FieldModels, Op: aggregate.Op(func(ctx context.Context) ([]VehicleModel, error) {
					return e.vehicles.GetModels(ctx, Slugify(mk))
				})},
				{Label: FieldProducts, Op: e.searchOp(in, "", in.vehicleFilters())},
				e.yearsCall(),
			}
		},
		Compose: func(in PageInput, res aggregate.Results) (PageResponse, error) {
			path := slugPath(in.Param(AttrMake))
			return e.listingCompose(PageTypeMake, path,
				FieldMeta, FieldWidgets, FieldNavigationCategories, FieldBreadcrumbs, FieldModels, FieldProducts, FieldYears)(in, res)
		},
	}
}

func (e *Engine) partPage() Page {
	return Page{
		Name:     "part",
		Type:     PageTypePart,
		Validate: func(in PageInput) error { return requireParam(in, AttrPart) },
		Calls: func(in PageInput) []aggregate.Call {
			part := in.Param(AttrPart)
			params := map[string]string{AttrPart: part}
			filters := in.vehicleFilters()
			for k, v := range filters {
				params[k] = v
			}
			filters[AttrPart] = part
			search := e.searchOp(in, "", filters)
			return []aggregate.Call{
				e.metaCall(in, "part", params),
				e.widgetsCall("part"),
				e.navigationCall(in),
				e.breadcrumbsCall("part", params),
				{Label: FieldProducts, Op: search},
				e.chainedRatingsCall(search),
				e.yearsCall(),
			}
		},
		Compose: func(in PageInput, res aggregate.Results) (PageResponse, error) {
			path := slugPath(in.Param(AttrMake), in.Param(AttrModel), in.Param(AttrPart))
			return e.listingCompose(PageTypePart, path,
				FieldMeta, FieldWidgets, FieldNavigationCategories, FieldBreadcrumbs, FieldProducts, FieldRatings, FieldYears)(in, res)
		},
	}
}

func (e *Engine) brandPage() Page {
	return Page{
		Name:     "brand",
		Type:     PageTypeBrand,
		Validate: func(in PageInput) error { return requireParam(in, AttrBrand) },
		Calls: func(in PageInput) []aggregate.Call {
			brand := in.Param(AttrBrand)
			params := map[string]string{AttrBrand: brand}
			filters := in.vehicleFilters()
			filters[AttrBrand] = brand
			return []aggregate.Call{
				e.metaCall(in, "brand", params),
				e.widgetsCall("brand"),
				e.navigationCall(in),
				e.breadcrumbsCall("brand", params),
				{Label: FieldProducts, Op: e.searchOp(in, "", filters)},
				e.yearsCall(),
			}
		},
		Compose: func(in PageInput, res aggregate.Results) (PageResponse, error) {
			path := slugPath("brand", in.Param(AttrBrand))
			return e.listingCompose(PageTypeBrand, path,
				FieldMeta, FieldWidgets, FieldNavigationCategories, FieldBreadcrumbs, FieldProducts, FieldYears)(in, res)
		},
	}
}

func (e *Engine) searchPage() Page {
	return Page{
		Name:     "search",
		Type:     PageTypeSearch,
		Validate: func(in PageInput) error { return requireParam(in, AttrQuery) },
		Calls: func(in PageInput) []aggregate.Call {
			q := in.Param(AttrQuery)
			filters := in.vehicleFilters()
			for _, k := range []string{AttrBrand, AttrPart, AttrCategory} {
				if v := in.Param(k); v != "" {
					filters[k] = v
				}
			}
			search := e.searchOp(in, q, filters)
			return []aggregate.Call{
				e.metaCall(in, "search", map[string]string{AttrQuery: q}),
				e.widgetsCall("search"),
				e.navigationCall(in),
				{Label: FieldProducts, Op: search},
				e.chainedRatingsCall(search),
				e.yearsCall(),
			}
		},
		// Search result pages are not canonical.
		Compose: e.listingCompose(PageTypeSearch, "",
			FieldMeta, FieldWidgets, FieldNavigationCategories, FieldProducts, FieldRatings, FieldYears),
	}
}

func (e *Engine) productPage() Page {
	return Page{
		Name:     "product",
		Type:     PageTypeProduct,
		Validate: func(in PageInput) error { return requireParam(in, AttrSKU) },
		Calls: func(in PageInput) []aggregate.Call {
			sku := in.Param(AttrSKU)
			params := map[string]string{AttrSKU: sku}
			return []aggregate.Call{
				e.metaCall(in, "product", params),
				e.widgetsCall("product"),
				e.navigationCall(in),
				e.breadcrumbsCall("product", params),
				{
					Label: FieldProduct,
					Op: aggregate.Op(func(ctx context.Context) (*Product, error) {
						return e.catalog.GetProduct(ctx, in.Context.Domain, sku)
					}),
					Critical: true,
				},
				{Label: FieldRatings, Op: aggregate.Op(func(ctx context.Context) ([]Rating, error) {
					return e.ratings.GetRatings(ctx, []string{sku})
				})},
				{Label: FieldVideos, Op: aggregate.Op(func(ctx context.Context) ([]Video, error) {
					return e.content.GetVideos(ctx, sku)
				})},
			}
		},
		Compose: func(in PageInput, res aggregate.Results) (PageResponse, error) {
			product, ok := aggregate.Value[*Product](res, FieldProduct)
			if !ok || product == nil {
				return nil, apierr.NotFound("product %s not found", in.Param(AttrSKU))
			}
			if product.Redirect != nil && product.Redirect.Value != "" {
				return redirectResponse(product.Redirect.Value, product.Redirect.StatusCode), nil
			}

			resp := newResponse(PageTypeProduct, res,
				FieldMeta, FieldWidgets, FieldNavigationCategories, FieldBreadcrumbs, FieldProduct, FieldRatings, FieldVideos)

			path := product.URI
			if path == "" {
				path = slugPath("p", product.SKU)
			}
			resp[FieldCanonicalURI] = CanonicalURI(e.config.CanonicalScheme, in.Context.Domain, path)

			ratings, _ := aggregate.Value[[]Rating](res, FieldRatings)
			data := []map[string]any{
				ProductSchema(e.config.CanonicalScheme, in.Context.Domain, product, ratingFor(ratings, product.SKU)),
			}
			if crumbs, ok := aggregate.Value[[]Breadcrumb](res, FieldBreadcrumbs); ok && len(crumbs) > 0 {
				data = append(data, BreadcrumbSchema(e.config.CanonicalScheme, in.Context.Domain, crumbs))
			}
			resp[FieldStructuredData] = data
			return resp, nil
		},
	}
}
