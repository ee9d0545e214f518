package upstream

import (
	"context"
	"net/url"
	"strconv"

	"github.com/team-pogie-react/page-service/internal/core"
)

// ContentClient talks to the CMS. It implements core.WidgetService,
// core.BreadcrumbService and core.ContentService.
type ContentClient struct {
	*Client
}

// NewContentClient creates a CMS client.
func NewContentClient(c *Client) *ContentClient {
	return &ContentClient{Client: c}
}

type breadcrumbRequest struct {
	Page   string            `json:"page"`
	Params map[string]string `json:"params,omitempty"`
}

func (c *ContentClient) GetWidgets(ctx context.Context, pageKey string) ([]core.Widget, error) {
	var out []core.Widget
	if err := c.Get(ctx, "/widgets", url.Values{"page": {pageKey}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ContentClient) GetBreadcrumbs(ctx context.Context, pageKey string, params map[string]string) ([]core.Breadcrumb, error) {
	var out []core.Breadcrumb
	if err := c.Post(ctx, "/breadcrumbs", breadcrumbRequest{Page: pageKey, Params: params}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ContentClient) GetArticles(ctx context.Context, domain string, limit int) ([]core.Article, error) {
	q := url.Values{"domain": {domain}, "limit": {strconv.Itoa(limit)}}
	var out []core.Article
	if err := c.Get(ctx, "/articles", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ContentClient) GetVideos(ctx context.Context, sku string) ([]core.Video, error) {
	var out []core.Video
	if err := c.Get(ctx, "/videos", url.Values{"sku": {sku}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
