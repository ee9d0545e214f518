package core

import (
	"strings"
	"unicode"
)

const schemaContext = "https://schema.org"

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// CanonicalURI builds an absolute URI for path on domain.
func CanonicalURI(scheme, domain, path string) string {
	if scheme == "" {
		scheme = "https"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return scheme + "://" + strings.ToLower(strings.TrimSpace(domain)) + path
}

// slugPath joins the slugs of the non-empty parts into a path.
func slugPath(parts ...string) string {
	var segs []string
	for _, p := range parts {
		if s := Slugify(p); s != "" {
			segs = append(segs, s)
		}
	}
	return "/" + strings.Join(segs, "/")
}

func absolute(scheme, domain, uri string) string {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	return CanonicalURI(scheme, domain, uri)
}

// BreadcrumbSchema renders crumbs as a schema.org BreadcrumbList.
func BreadcrumbSchema(scheme, domain string, crumbs []Breadcrumb) map[string]any {
	items := make([]map[string]any, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     absolute(scheme, domain, c.URI),
		})
	}
	return map[string]any{
		"@context":        schemaContext,
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	}
}

// ProductSchema renders p as a schema.org Product. rating may be nil.
func ProductSchema(scheme, domain string, p *Product, rating *Rating) map[string]any {
	availability := "https://schema.org/OutOfStock"
	if p.InStock {
		availability = "https://schema.org/InStock"
	}
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}

	out := map[string]any{
		"@context": schemaContext,
		"@type":    "Product",
		"sku":      p.SKU,
		"name":     p.Name,
		"offers": map[string]any{
			"@type":         "Offer",
			"price":         p.Price,
			"priceCurrency": currency,
			"availability":  availability,
			"url":           absolute(scheme, domain, p.URI),
		},
	}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if p.ImageURL != "" {
		out["image"] = p.ImageURL
	}
	if p.Brand != "" {
		out["brand"] = map[string]any{"@type": "Brand", "name": p.Brand}
	}
	if rating != nil && rating.ReviewCount > 0 {
		out["aggregateRating"] = map[string]any{
			"@type":       "AggregateRating",
			"ratingValue": rating.Average,
			"reviewCount": rating.ReviewCount,
		}
	}
	return out
}

// ratingFor finds the rating for sku.
func ratingFor(ratings []Rating, sku string) *Rating {
	for i := range ratings {
		if ratings[i].SKU == sku {
			return &ratings[i]
		}
	}
	return nil
}
