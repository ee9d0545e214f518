package upstream

import (
	"context"

	"github.com/team-pogie-react/page-service/internal/core"
)

// VehicleClient implements core.VehicleService.
type VehicleClient struct {
	*Client
}

// NewVehicleClient creates a vehicle (year/make/model) client.
func NewVehicleClient(c *Client) *VehicleClient {
	return &VehicleClient{Client: c}
}

// GetYears returns the model years on offer, newest first.
func (c *VehicleClient) GetYears(ctx context.Context) ([]int, error) {
	var out []int
	if err := c.Get(ctx, "/years", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetModels returns the models of a make.
func (c *VehicleClient) GetModels(ctx context.Context, makeSlug string) ([]core.VehicleModel, error) {
	var out []core.VehicleModel
	if err := c.Get(ctx, escape("makes", makeSlug, "models"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
