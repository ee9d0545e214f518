package core

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/team-pogie-react/page-service/internal/aggregate"
	"github.com/team-pogie-react/page-service/internal/apierr"
	"github.com/team-pogie-react/page-service/internal/logging"
	"github.com/team-pogie-react/page-service/internal/reqctx"
)

// Recorder receives page and upstream timings.
// Implementations: metrics.Recorder
type Recorder interface {
	ObservePage(pageType string, elapsed time.Duration, err error)
	ObserveUpstream(pageType, label string, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObservePage(string, time.Duration, error)             {}
func (nopRecorder) ObserveUpstream(string, string, time.Duration, error) {}

// Engine assembles pages from upstream collaborators.
type Engine struct {
	config   Config
	logger   logr.Logger
	recorder Recorder

	meta     MetadataService
	widgets  WidgetService
	crumbs   BreadcrumbService
	content  ContentService
	catalog  CatalogService
	vehicles VehicleService
	orders   OrderService
	ratings  RatingService

	pages map[string]Page
}

// EngineDeps holds dependencies for constructing an Engine.
type EngineDeps struct {
	Config   Config
	Logger   logr.Logger
	Recorder Recorder

	Metadata    MetadataService
	Widgets     WidgetService
	Breadcrumbs BreadcrumbService
	Content     ContentService
	Catalog     CatalogService
	Vehicles    VehicleService
	Orders      OrderService
	Ratings     RatingService
}

// NewEngine creates an engine with every page type registered.
func NewEngine(deps EngineDeps) *Engine {
	cfg := deps.Config
	if cfg.CanonicalScheme == "" {
		cfg.CanonicalScheme = "https"
	}
	if cfg.ProductsPerPage <= 0 {
		cfg.ProductsPerPage = 24
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	e := &Engine{
		config:   cfg,
		logger:   deps.Logger,
		recorder: recorder,
		meta:     deps.Metadata,
		widgets:  deps.Widgets,
		crumbs:   deps.Breadcrumbs,
		content:  deps.Content,
		catalog:  deps.Catalog,
		vehicles: deps.Vehicles,
		orders:   deps.Orders,
		ratings:  deps.Ratings,
		pages:    make(map[string]Page),
	}

	for _, p := range e.builtinPages() {
		e.Register(p)
	}
	return e
}

// Register adds or replaces a page type.
func (e *Engine) Register(p Page) {
	e.pages[p.Name] = p
}

// Pages returns the registered page names, sorted.
func (e *Engine) Pages() []string {
	names := make([]string, 0, len(e.pages))
	for name := range e.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle builds the page named name for req.
//
// Validation errors are returned before any upstream call is issued. A failed
// non-critical upstream call degrades its field to an inline error; a failed
// critical call fails the whole page.
func (e *Engine) Handle(ctx context.Context, name string, req Request) (PageResponse, error) {
	p, ok := e.pages[name]
	if !ok {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeUnknownPage, fmt.Sprintf("unknown page type %q", name))
	}

	start := time.Now()
	resp, err := e.handle(ctx, p, req)
	e.recorder.ObservePage(p.Type, time.Since(start), err)
	return resp, err
}

func (e *Engine) handle(ctx context.Context, p Page, req Request) (PageResponse, error) {
	rc := reqctx.Extract(req.Source, e.config.OverrideKeys)
	if err := reqctx.Validate(rc, e.config.KnownDomains); err != nil {
		return nil, err
	}

	in := PageInput{
		Context:    rc,
		Attributes: req.Attributes,
		Query:      req.Source.Query,
		Body:       req.Source.Body,
	}
	if p.Validate != nil {
		if err := p.Validate(in); err != nil {
			return nil, err
		}
	}

	logger := e.logger.WithValues("pageType", p.Type, "domain", rc.Domain)
	agg := &aggregate.Aggregator{
		Logger: logger,
		Budget: e.config.Budget,
		Observe: func(label string, elapsed time.Duration, err error) {
			e.recorder.ObserveUpstream(p.Type, label, elapsed, err)
		},
	}

	res, err := agg.Settle(ctx, p.Calls(in))
	if err != nil {
		return nil, err
	}
	if degraded := res.Degraded(); len(degraded) > 0 {
		logger.V(logging.DEBUG).Info("Page degraded", "fields", degraded)
	}

	return p.Compose(in, res)
}

// Warm pre-loads navigation categories for every known domain and the vehicle
// years, so the first requests hit a warm cache.
func (e *Engine) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, domain := range e.config.KnownDomains {
		domain := domain
		g.Go(func() error {
			if _, err := e.catalog.GetCategories(ctx, domain); err != nil {
				return fmt.Errorf("failed to warm categories for %s: %w", domain, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		if _, err := e.vehicles.GetYears(ctx); err != nil {
			return fmt.Errorf("failed to warm vehicle years: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Ready pings every collaborator that supports it and returns all failures.
func (e *Engine) Ready(ctx context.Context) error {
	// Collaborators registered under several roles are pinged once. Only pointers
	// are deduplicated; value collaborators may not be comparable.
	seen := make(map[uintptr]struct{})
	var pingers []Pinger
	for _, dep := range []any{e.meta, e.widgets, e.crumbs, e.content, e.catalog, e.vehicles, e.orders, e.ratings} {
		p, ok := dep.(Pinger)
		if !ok {
			continue
		}
		if v := reflect.ValueOf(p); v.Kind() == reflect.Pointer {
			if _, dup := seen[v.Pointer()]; dup {
				continue
			}
			seen[v.Pointer()] = struct{}{}
		}
		pingers = append(pingers, p)
	}

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, p := range pingers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Ping(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errs
}
