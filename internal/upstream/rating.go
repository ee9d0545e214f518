package upstream

import (
	"context"
	"net/url"

	"github.com/team-pogie-react/page-service/internal/core"
)

// RatingClient implements core.RatingService.
type RatingClient struct {
	*Client
}

// NewRatingClient creates a ratings client.
func NewRatingClient(c *Client) *RatingClient {
	return &RatingClient{Client: c}
}

// GetRatings returns review summaries for skus. SKUs without reviews are omitted
// by the upstream.
func (c *RatingClient) GetRatings(ctx context.Context, skus []string) ([]core.Rating, error) {
	if len(skus) == 0 {
		return []core.Rating{}, nil
	}
	var out []core.Rating
	if err := c.Get(ctx, "/ratings", url.Values{"sku": skus}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
