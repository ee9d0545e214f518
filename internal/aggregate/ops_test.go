package aggregate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchResult struct{ SKUs []string }

func TestResolved(t *testing.T) {
	res, err := New(logr.Discard(), 0).Settle(context.Background(), []Call{
		Resolved("refinedAddress", map[string]any{}),
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, res.Field("refinedAddress"))
}

func TestMemoThen(t *testing.T) {
	ctx := context.Background()

	t.Run("Given shared search When products and ratings settle Then search runs once", func(t *testing.T) {
		var searches, ratings atomic.Int32
		search := Memo(Op(func(context.Context) (*searchResult, error) {
			searches.Add(1)
			return &searchResult{SKUs: []string{"A", "B"}}, nil
		}))

		res, err := New(logr.Discard(), 0).Settle(ctx, []Call{
			{Label: "products", Op: search},
			{Label: "ratings", Op: Then(search, func(_ context.Context, r *searchResult) (any, error) {
				ratings.Add(1)
				return len(r.SKUs), nil
			})},
		})

		require.NoError(t, err)
		assert.Equal(t, int32(1), searches.Load())
		assert.Equal(t, int32(1), ratings.Load())
		assert.Equal(t, 2, res.Field("ratings"))
	})

	t.Run("Given failing search When chained Then both slots degrade and next not called", func(t *testing.T) {
		var ratings atomic.Int32
		search := Memo(fail(errors.New("search down")))

		res, err := New(logr.Discard(), 0).Settle(ctx, []Call{
			{Label: "products", Op: search},
			{Label: "ratings", Op: Then(search, func(context.Context, *searchResult) (any, error) {
				ratings.Add(1)
				return nil, nil
			})},
		})

		require.NoError(t, err)
		assert.True(t, res.Failed("products"))
		assert.True(t, res.Failed("ratings"))
		assert.Equal(t, int32(0), ratings.Load())
	})

	t.Run("Given unexpected type When chained Then slot degrades", func(t *testing.T) {
		res, err := New(logr.Discard(), 0).Settle(ctx, []Call{
			{Label: "ratings", Op: Then(ok("not a search"), func(context.Context, *searchResult) (any, error) {
				return nil, nil
			})},
		})

		require.NoError(t, err)
		assert.True(t, res.Failed("ratings"))
	})

	t.Run("Given panicking memoized op When called twice Then both see the error", func(t *testing.T) {
		op := Memo(func(context.Context) (any, error) { panic("boom") })

		_, err1 := op(ctx)
		_, err2 := op(ctx)

		assert.Error(t, err1)
		assert.Error(t, err2)
	})
}

func TestValue(t *testing.T) {
	r := Results{
		"years": {Value: []int{2024, 2025}},
		"meta":  {Err: &InlineError{}},
	}

	years, found := Value[[]int](r, "years")
	assert.True(t, found)
	assert.Equal(t, []int{2024, 2025}, years)

	_, found = Value[[]int](r, "meta")
	assert.False(t, found)

	_, found = Value[string](r, "years")
	assert.False(t, found)

	_, found = Value[string](r, "missing")
	assert.False(t, found)
}
