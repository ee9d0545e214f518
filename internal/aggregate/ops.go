package aggregate

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/team-pogie-react/page-service/internal/apierr"
)

// Op adapts a typed collaborator call into an Operation.
func Op[T any](f func(ctx context.Context) (T, error)) Operation {
	return func(ctx context.Context) (any, error) {
		return f(ctx)
	}
}

// Resolved is a call whose precondition did not hold: the slot settles to v
// and no collaborator is invoked.
func Resolved(label string, v any) Call {
	return Call{
		Label: label,
		Op: func(context.Context) (any, error) {
			return v, nil
		},
	}
}

// Memo returns an Operation that runs op at most once and shares its outcome
// with every caller. Later callers block until the first run completes.
func Memo(op Operation) Operation {
	var (
		once sync.Once
		val  any
		err  error
	)
	return func(ctx context.Context) (any, error) {
		once.Do(func() {
			defer func() {
				if r := recover(); r != nil {
					err = apierr.New(http.StatusInternalServerError, apierr.CodeUpstreamPanic, fmt.Sprintf("panic: %v", r))
				}
			}()
			val, err = op(ctx)
		})
		return val, err
	}
}

// Then chains next onto op. When op fails, the chained slot fails with the same
// error without calling next.
func Then[T any](op Operation, next func(ctx context.Context, v T) (any, error)) Operation {
	return func(ctx context.Context) (any, error) {
		v, err := op(ctx)
		if err != nil {
			return nil, err
		}
		typed, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("aggregate: chained result has type %T", v)
		}
		return next(ctx, typed)
	}
}
