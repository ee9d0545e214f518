package upstream

import (
	"context"
	"net/url"

	"github.com/team-pogie-react/page-service/internal/core"
)

// OrderClient implements core.OrderService.
//
// Overrides are forwarded as query parameters so the order service can apply
// them (e.g. a preview date) the same way for every endpoint.
type OrderClient struct {
	*Client
}

// NewOrderClient creates an order client.
func NewOrderClient(c *Client) *OrderClient {
	return &OrderClient{Client: c}
}

type paymentTokenRequest struct {
	CustomerID string `json:"customerId"`
}

func overrideQuery(overrides map[string]string) url.Values {
	if len(overrides) == 0 {
		return nil
	}
	q := make(url.Values, len(overrides))
	for k, v := range overrides {
		q.Set(k, v)
	}
	return q
}

func (c *OrderClient) GetOrder(ctx context.Context, orderID string, overrides map[string]string) (*core.OrderView, error) {
	var out core.OrderView
	if err := c.Get(ctx, escape("orders", orderID), overrideQuery(overrides), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *OrderClient) GetShippingMethods(ctx context.Context, orderID string) ([]core.ShippingMethod, error) {
	var out []core.ShippingMethod
	if err := c.Get(ctx, escape("orders", orderID, "shipping-methods"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderClient) GetPaymentToken(ctx context.Context, customerID string) (*core.PaymentToken, error) {
	var out core.PaymentToken
	if err := c.Post(ctx, "/payments/token", paymentTokenRequest{CustomerID: customerID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *OrderClient) GetConfirmation(ctx context.Context, orderID string, overrides map[string]string) (*core.Confirmation, error) {
	var out core.Confirmation
	if err := c.Get(ctx, escape("orders", orderID, "confirmation"), overrideQuery(overrides), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefineAddress resolves the address referenced by an srm token.
func (c *OrderClient) RefineAddress(ctx context.Context, srm string) (*core.Address, error) {
	var out core.Address
	if err := c.Get(ctx, "/addresses/refine", url.Values{"srm": {srm}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
