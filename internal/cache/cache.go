// Package cache decorates slow-changing upstream lookups (navigation categories,
// vehicle years and models) with an expiring LRU and single-flight loading.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Options configures a cache.
type Options struct {
	// Size is the maximum number of entries. Defaults to 256.
	Size int

	// TTL is how long an entry stays fresh. Defaults to 5m.
	TTL time.Duration

	// Recorder, if set, is told about every hit and miss.
	Recorder Recorder
}

// Recorder observes cache effectiveness.
// Implementations: metrics.Recorder
type Recorder interface {
	ObserveCache(name string, hit bool)
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = 256
	}
	if o.TTL <= 0 {
		o.TTL = 5 * time.Minute
	}
	return o
}

// loader is a read-through cache for one kind of value.
type loader[V any] struct {
	name     string
	entries  *expirable.LRU[string, V]
	group    singleflight.Group
	recorder Recorder
}

func newLoader[V any](name string, opts Options) *loader[V] {
	opts = opts.withDefaults()
	return &loader[V]{
		name:     name,
		entries:  expirable.NewLRU[string, V](opts.Size, nil, opts.TTL),
		recorder: opts.Recorder,
	}
}

// get returns the cached value for key or loads it. Concurrent misses for the
// same key share one load. The load is detached from the caller's cancellation
// and bounded by the upstream client's own timeout.
func (l *loader[V]) get(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := l.entries.Get(key); ok {
		l.observe(true)
		return v, nil
	}
	l.observe(false)

	ch := l.group.DoChan(key, func() (any, error) {
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return v, err
		}
		l.entries.Add(key, v)
		return v, nil
	})

	var zero V
	select {
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (l *loader[V]) observe(hit bool) {
	if l.recorder != nil {
		l.recorder.ObserveCache(l.name, hit)
	}
}

// Purge drops every entry.
func (l *loader[V]) Purge() {
	l.entries.Purge()
}

// Len returns the number of cached entries, expired ones included until evicted.
func (l *loader[V]) Len() int {
	return l.entries.Len()
}
