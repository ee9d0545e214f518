// Package metrics exposes Prometheus collectors for page assembly.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/team-pogie-react/page-service/internal/apierr"
)

const namespace = "page_service"

var (
	// --- Common Label Sets ---
	pageLabels     = []string{"page_type"}
	slotLabels     = []string{"page_type", "slot"}
	outcomeLabels  = []string{"page_type", "status"}
	inlineLabels   = []string{"page_type", "slot", "code"}
	cacheLabels    = []string{"cache", "result"}
	latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
)

// knownCodes are the codes used as-is for the code label. Any other code comes
// from an upstream and is reported by status class.
var knownCodes = map[string]struct{}{
	apierr.CodeInvalidDomain:    {},
	apierr.CodeInvalidRequest:   {},
	apierr.CodeUnknownPage:      {},
	apierr.CodeNotFound:         {},
	apierr.CodeUpstreamTimeout:  {},
	apierr.CodeRequestCancelled: {},
	apierr.CodeUpstreamPanic:    {},
	apierr.CodeUpstreamError:    {},
	apierr.CodeUnavailable:      {},
}

func codeLabel(ae *apierr.Error) string {
	if code, ok := ae.Code.(string); ok {
		if _, known := knownCodes[code]; known {
			return code
		}
	}
	return fmt.Sprintf("%dxx", ae.Status/100)
}

// Recorder implements core.Recorder and cache.Recorder on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	pageRequests     *prometheus.CounterVec
	pageDuration     *prometheus.HistogramVec
	upstreamDuration *prometheus.HistogramVec
	inlineErrors     *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pageRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "page_requests_total",
				Help:      "Counter of page requests broken out by page type and response status.",
			},
			outcomeLabels,
		),
		pageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "page_duration_seconds",
				Help:      "Page assembly latency in seconds.",
				Buckets:   latencyBuckets,
			},
			pageLabels,
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Latency of each upstream call in seconds, by page type and result slot.",
				Buckets:   latencyBuckets,
			},
			slotLabels,
		),
		inlineErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inline_errors_total",
				Help:      "Counter of result slots that settled as an error.",
			},
			inlineLabels,
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Counter of upstream cache lookups by cache and result (hit or miss).",
			},
			cacheLabels,
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.pageRequests,
		r.pageDuration,
		r.upstreamDuration,
		r.inlineErrors,
		r.cacheLookups,
	)
	return r
}

// Registry returns the registry the collectors live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ObservePage(pageType string, elapsed time.Duration, err error) {
	status := http.StatusOK
	if err != nil {
		status = apierr.From(err).Status
	}
	r.pageRequests.WithLabelValues(pageType, strconv.Itoa(status)).Inc()
	r.pageDuration.WithLabelValues(pageType).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveUpstream(pageType, slot string, elapsed time.Duration, err error) {
	r.upstreamDuration.WithLabelValues(pageType, slot).Observe(elapsed.Seconds())
	if err != nil {
		r.inlineErrors.WithLabelValues(pageType, slot, codeLabel(apierr.From(err))).Inc()
	}
}

func (r *Recorder) ObserveCache(name string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(name, result).Inc()
}
