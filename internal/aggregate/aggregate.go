// Package aggregate runs a set of independent upstream calls concurrently and settles
// every one of them, turning failures into inline error values instead of aborting.
//
// A page is assembled from many collaborators. Most of them are decorative (widgets,
// ratings, navigation) and the page must still render when they fail, so Settle never
// short-circuits on a non-critical failure. Calls marked Critical are the exception:
// their failure cancels the rest and is returned as a *CriticalError.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-logr/logr"

	"github.com/team-pogie-react/page-service/internal/apierr"
)

// Operation is one pending upstream computation.
type Operation func(ctx context.Context) (any, error)

// Call binds an Operation to the result slot it fills.
type Call struct {
	Label    string
	Op       Operation
	Critical bool
}

// InlineError is a degraded slot. It serializes as {"error": {message, status, code}}.
type InlineError struct {
	Error *apierr.Error `json:"error"`
}

// Settled is the outcome of one call. Exactly one of Value or Err is meaningful.
type Settled struct {
	Value any
	Err   *InlineError
}

// CriticalError reports the failure of a call marked Critical.
type CriticalError struct {
	Label string
	Err   *apierr.Error
}

func (e *CriticalError) Error() string {
	return fmt.Sprintf("critical call %q failed: %v", e.Label, e.Err)
}

func (e *CriticalError) Unwrap() error { return e.Err }

// Observer is notified once per settled slot. err is nil on success.
type Observer func(label string, elapsed time.Duration, err error)

// Aggregator settles call sets.
//
// Budget bounds the whole set: slots still pending when it elapses settle as
// 504 UPSTREAM_TIMEOUT and Settle returns without waiting for them. Zero means
// no request-level budget; each collaborator's own timeout still applies.
type Aggregator struct {
	Logger  logr.Logger
	Budget  time.Duration
	Observe Observer
}

// New creates an Aggregator.
func New(logger logr.Logger, budget time.Duration) *Aggregator {
	return &Aggregator{Logger: logger, Budget: budget}
}

type outcome struct {
	index   int
	value   any
	err     error
	elapsed time.Duration
}

// Settle runs every call concurrently and returns once all slots are filled.
//
// The returned Results always has one entry per call unless a critical call
// failed, in which case the error is a *CriticalError and the Results are nil.
func (a *Aggregator) Settle(parent context.Context, calls []Call) (Results, error) {
	if err := checkCalls(calls); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var budget <-chan time.Time
	if a.Budget > 0 {
		timer := time.NewTimer(a.Budget)
		defer timer.Stop()
		budget = timer.C
	}

	// Buffered so that stragglers never block after Settle has returned.
	done := make(chan outcome, len(calls))
	start := time.Now()
	for i, c := range calls {
		i, c := i, c
		go func() {
			done <- a.run(ctx, i, c)
		}()
	}

	results := make(Results, len(calls))
	for len(results) < len(calls) {
		select {
		case o := <-done:
			if err := a.settle(results, calls[o.index], o); err != nil {
				return nil, err
			}
		case <-budget:
			if err := a.expire(results, calls, start, apierr.Wrap(
				fmt.Errorf("request budget of %s exceeded: %w", a.Budget, context.DeadlineExceeded),
				http.StatusGatewayTimeout, apierr.CodeUpstreamTimeout)); err != nil {
				return nil, err
			}
			return results, nil
		case <-parent.Done():
			if err := a.expire(results, calls, start, apierr.From(parent.Err())); err != nil {
				return nil, err
			}
			return results, nil
		}
	}

	return results, nil
}

func (a *Aggregator) run(ctx context.Context, index int, c Call) (o outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o = outcome{
				index: index,
				err:   apierr.New(http.StatusInternalServerError, apierr.CodeUpstreamPanic, fmt.Sprintf("panic in %s: %v", c.Label, r)),
			}
		}
		o.elapsed = time.Since(start)
	}()

	v, err := c.Op(ctx)
	return outcome{index: index, value: v, err: err}
}

func (a *Aggregator) settle(results Results, c Call, o outcome) error {
	a.observe(c.Label, o.elapsed, o.err)

	if o.err == nil {
		results[c.Label] = Settled{Value: o.value}
		return nil
	}

	ae := apierr.From(o.err)
	a.logFailure(c, ae)
	if c.Critical {
		return &CriticalError{Label: c.Label, Err: ae}
	}
	results[c.Label] = Settled{Err: &InlineError{Error: ae}}
	return nil
}

// expire fills every unsettled slot with ae. It returns a *CriticalError when
// one of the unsettled calls is critical.
func (a *Aggregator) expire(results Results, calls []Call, start time.Time, ae *apierr.Error) error {
	elapsed := time.Since(start)
	var critical error
	for _, c := range calls {
		if _, ok := results[c.Label]; ok {
			continue
		}
		a.observe(c.Label, elapsed, ae)
		a.logFailure(c, ae)
		if c.Critical && critical == nil {
			critical = &CriticalError{Label: c.Label, Err: ae}
		}
		results[c.Label] = Settled{Err: &InlineError{Error: ae}}
	}
	return critical
}

// logFailure must never fail the aggregation, so a misbehaving sink is contained.
func (a *Aggregator) logFailure(c Call, ae *apierr.Error) {
	defer func() { _ = recover() }()
	a.Logger.Error(ae, "Upstream call failed",
		"label", c.Label, "status", ae.Status, "code", ae.Code, "critical", c.Critical)
}

func (a *Aggregator) observe(label string, elapsed time.Duration, err error) {
	if a.Observe == nil {
		return
	}
	defer func() { _ = recover() }()
	a.Observe(label, elapsed, err)
}

var errEmptyLabel = errors.New("aggregate: call with empty label")

func checkCalls(calls []Call) error {
	seen := make(map[string]struct{}, len(calls))
	for _, c := range calls {
		if c.Label == "" {
			return errEmptyLabel
		}
		if c.Op == nil {
			return fmt.Errorf("aggregate: call %q has no operation", c.Label)
		}
		if _, dup := seen[c.Label]; dup {
			return fmt.Errorf("aggregate: duplicate label %q", c.Label)
		}
		seen[c.Label] = struct{}{}
	}
	return nil
}

// Results maps a label to its settled outcome.
type Results map[string]Settled

// Field returns the slot's value, or its *InlineError when the slot degraded.
func (r Results) Field(label string) any {
	s, ok := r[label]
	if !ok {
		return nil
	}
	if s.Err != nil {
		return s.Err
	}
	return s.Value
}

// Failed reports whether the slot degraded.
func (r Results) Failed(label string) bool {
	s, ok := r[label]
	return ok && s.Err != nil
}

// Degraded returns the sorted labels of all degraded slots.
func (r Results) Degraded() []string {
	var out []string
	for label, s := range r {
		if s.Err != nil {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

// Value returns the slot's value typed as T.
//
// ok is false when the slot is missing, degraded, or holds another type.
func Value[T any](r Results, label string) (T, bool) {
	var zero T
	s, ok := r[label]
	if !ok || s.Err != nil {
		return zero, false
	}
	v, ok := s.Value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
