package cache

import (
	"context"

	"github.com/team-pogie-react/page-service/internal/core"
)

// Catalog caches navigation categories per domain. Searches and product lookups
// pass straight through.
type Catalog struct {
	core.CatalogService
	categories *loader[[]core.Category]
}

// NewCatalog wraps next.
func NewCatalog(next core.CatalogService, opts Options) *Catalog {
	return &Catalog{
		CatalogService: next,
		categories:     newLoader[[]core.Category]("categories", opts),
	}
}

func (c *Catalog) GetCategories(ctx context.Context, domain string) ([]core.Category, error) {
	return c.categories.get(ctx, domain, func(ctx context.Context) ([]core.Category, error) {
		return c.CatalogService.GetCategories(ctx, domain)
	})
}

// Ping forwards to the wrapped service when it supports it.
func (c *Catalog) Ping(ctx context.Context) error {
	return ping(ctx, c.CatalogService)
}

// Purge drops every cached entry.
func (c *Catalog) Purge() {
	c.categories.Purge()
}

// Vehicles caches model years and models per make.
type Vehicles struct {
	next   core.VehicleService
	years  *loader[[]int]
	models *loader[[]core.VehicleModel]
}

// NewVehicles wraps next.
func NewVehicles(next core.VehicleService, opts Options) *Vehicles {
	return &Vehicles{
		next:   next,
		years:  newLoader[[]int]("years", opts),
		models: newLoader[[]core.VehicleModel]("models", opts),
	}
}

func (v *Vehicles) GetYears(ctx context.Context) ([]int, error) {
	return v.years.get(ctx, "", v.next.GetYears)
}

func (v *Vehicles) GetModels(ctx context.Context, makeSlug string) ([]core.VehicleModel, error) {
	return v.models.get(ctx, makeSlug, func(ctx context.Context) ([]core.VehicleModel, error) {
		return v.next.GetModels(ctx, makeSlug)
	})
}

// Ping forwards to the wrapped service when it supports it.
func (v *Vehicles) Ping(ctx context.Context) error {
	return ping(ctx, v.next)
}

// Purge drops every cached entry.
func (v *Vehicles) Purge() {
	v.years.Purge()
	v.models.Purge()
}

func ping(ctx context.Context, svc any) error {
	if p, ok := svc.(core.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
