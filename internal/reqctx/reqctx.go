// Package reqctx derives the per-request context (domain, order, customer, overrides)
// from the containers of an inbound request.
package reqctx

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/team-pogie-react/page-service/internal/apierr"
)

// Source holds the raw request containers. Any of them may be nil.
type Source struct {
	Body   map[string]any
	Query  url.Values
	Params map[string]string
}

// RequestContext is the normalized view of a request. Treat it as read-only.
type RequestContext struct {
	Domain     string
	OrderID    string
	CustomerID string

	overrides map[string]string
}

// Overrides returns a copy of the recognized override values.
func (rc RequestContext) Overrides() map[string]string {
	out := make(map[string]string, len(rc.overrides))
	for k, v := range rc.overrides {
		out[k] = v
	}
	return out
}

// Override returns a single override value.
func (rc RequestContext) Override(name string) (string, bool) {
	v, ok := rc.overrides[name]
	return v, ok
}

// Extract builds a RequestContext.
//
// overrideKeys maps a request key to the override name it populates.
//
// Precedence differs per field and is intentional:
//   - domain: body, then query
//   - orderId, customerId: body, then query, then params
//   - overrides: body is applied first and query overwrites it
func Extract(src Source, overrideKeys map[string]string) RequestContext {
	rc := RequestContext{
		Domain:     first(src.bodyValue("domain"), src.queryValue("domain")),
		OrderID:    first(src.bodyValue("orderId"), src.queryValue("orderId"), src.Params["orderId"]),
		CustomerID: first(src.bodyValue("customerId"), src.queryValue("customerId"), src.Params["customerId"]),
		overrides:  make(map[string]string),
	}

	for key, name := range overrideKeys {
		if v := src.bodyValue(key); v != "" {
			rc.overrides[name] = v
		}
		if v := src.queryValue(key); v != "" {
			rc.overrides[name] = v
		}
	}

	return rc
}

// Validate rejects an empty or unknown domain.
//
// Matching is case-insensitive and ignores a leading "www.".
func Validate(rc RequestContext, knownDomains []string) error {
	if rc.Domain == "" {
		return apierr.BadRequest(apierr.CodeInvalidDomain, "domain is required")
	}
	want := normalizeDomain(rc.Domain)
	for _, d := range knownDomains {
		if normalizeDomain(d) == want {
			return nil
		}
	}
	return apierr.BadRequest(apierr.CodeInvalidDomain, "unknown domain %q", rc.Domain)
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	return strings.TrimPrefix(d, "www.")
}

func (s Source) bodyValue(key string) string {
	if s.Body == nil {
		return ""
	}
	return Scalar(s.Body[key])
}

func (s Source) queryValue(key string) string {
	if s.Query == nil {
		return ""
	}
	return s.Query.Get(key)
}

// Scalar renders a scalar JSON value as a string; objects and arrays yield "".
// Bodies decoded with UseNumber keep integers of any size exact.
func Scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
