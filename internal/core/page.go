package core

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/team-pogie-react/page-service/internal/aggregate"
	"github.com/team-pogie-react/page-service/internal/reqctx"
)

// Page is one page type: how to validate its input, which upstream calls it
// needs, and how to compose the settled results into a response.
type Page struct {
	// Name is the route name, e.g. "cart".
	Name string

	// Type is reported in the pageType field, e.g. "cart_page".
	Type string

	// Validate rejects malformed input before any upstream call is made. Optional.
	Validate func(in PageInput) error

	// Calls builds the call set.
	Calls func(in PageInput) []aggregate.Call

	// Compose maps settled results to the response.
	Compose func(in PageInput, res aggregate.Results) (PageResponse, error)
}

// PageInput is everything a page strategy may read about the request.
type PageInput struct {
	Context    reqctx.RequestContext
	Attributes Attributes
	Query      url.Values
	Body       map[string]any
}

// Param returns a request parameter: resolved attributes first, then query, then body.
func (in PageInput) Param(key string) string {
	if v := in.Attributes[key]; v != "" {
		return v
	}
	if v := in.Query.Get(key); v != "" {
		return v
	}
	return reqctx.Scalar(in.Body[key])
}

// PageNumber returns the 1-based listing page.
func (in PageInput) PageNumber() int {
	n, err := strconv.Atoi(in.Param(AttrPage))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// selectableAttributes are the keys reported in selectedAttributes.
var selectableAttributes = []string{AttrYear, AttrMake, AttrModel, AttrPart, AttrBrand, AttrCategory, AttrQuery}

// SelectedAttributes merges recognized query keys with the resolved attributes.
// Resolved attributes win.
func (in PageInput) SelectedAttributes() map[string]string {
	out := make(map[string]string)
	for _, k := range selectableAttributes {
		if v := in.Query.Get(k); v != "" {
			out[k] = v
		}
	}
	for _, k := range selectableAttributes {
		if v := in.Attributes[k]; v != "" {
			out[k] = v
		}
	}
	return out
}

// vehicleFilters returns the year/make/model selection, if any.
func (in PageInput) vehicleFilters() map[string]string {
	out := make(map[string]string)
	for _, k := range []string{AttrYear, AttrMake, AttrModel} {
		if v := in.Param(k); v != "" {
			out[k] = v
		}
	}
	return out
}

// newResponse starts a response with the given fields copied from res.
func newResponse(pageType string, res aggregate.Results, fields ...string) PageResponse {
	resp := PageResponse{FieldPageType: pageType}
	for _, f := range fields {
		resp[f] = res.Field(f)
	}
	return resp
}

// redirectResponse replaces normal composition when a collaborator signals a move.
// A zero status means 301.
func redirectResponse(uri string, status int) PageResponse {
	if status == 0 {
		status = http.StatusMovedPermanently
	}
	return PageResponse{
		FieldPageType:    PageTypeRedirect,
		FieldRedirectURI: uri,
		FieldStatusCode:  status,
	}
}

// searchRedirect reports a redirect signalled by the products slot. Listing
// redirects are always answered with 301, whatever status the search carries.
func searchRedirect(res aggregate.Results) (*Redirect, bool) {
	result, ok := aggregate.Value[*ProductSearchResult](res, FieldProducts)
	if !ok || result == nil || result.Redirect == nil || result.Redirect.Value == "" {
		return nil, false
	}
	return result.Redirect, true
}
